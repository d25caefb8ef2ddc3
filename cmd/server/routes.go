package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jikku/coffeehouse/internal/config"
	"github.com/jikku/coffeehouse/internal/urls"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSite(config.CreateDefaultConfig(), nil, zap.NewNop())
		if err != nil {
			return err
		}
		printRoutes(cmd.OutOrStdout(), s.router.Routes())
		return nil
	},
}

func printRoutes(w io.Writer, routes []urls.Route) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Path", "View", "Methods", "Extra"})
	table.SetAutoWrapText(false)

	for _, r := range routes {
		table.Append([]string{r.Name, r.Path, r.View, strings.Join(r.Methods, ","), formatExtra(r.Extra)})
	}
	table.Render()
}

func formatExtra(extra map[string]any) string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, extra[k]))
	}
	return strings.Join(parts, " ")
}
