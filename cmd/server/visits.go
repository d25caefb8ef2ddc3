package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jikku/coffeehouse/internal/database"
	"github.com/jikku/coffeehouse/internal/models"
)

var visitsLimit int

var visitsCmd = &cobra.Command{
	Use:   "visits",
	Short: "Show store page views recorded in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.Open(cmd.Context(), cfg.Database, zap.NewNop())
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		counts, err := db.CountVisits(cmd.Context())
		if err != nil {
			return err
		}
		recent, err := db.RecentVisits(cmd.Context(), visitsLimit)
		if err != nil {
			return err
		}

		printVisits(cmd.OutOrStdout(), db.Engine(), counts, recent)
		return nil
	},
}

func init() {
	visitsCmd.Flags().IntVar(&visitsLimit, "limit", 20, "Number of recent visits to list")
}

func printVisits(w io.Writer, engine string, counts map[string]int64, recent []models.Visit) {
	fmt.Fprintf(w, "Database: %s\n\n", engine)

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	totals := tablewriter.NewWriter(w)
	totals.SetHeader([]string{"Store", "Views"})
	for _, id := range ids {
		totals.Append([]string{id, strconv.FormatInt(counts[id], 10)})
	}
	totals.Render()

	fmt.Fprintln(w)

	log := tablewriter.NewWriter(w)
	log.SetHeader([]string{"ID", "Store", "Path", "Hours", "Map", "When"})
	log.SetAutoWrapText(false)
	for _, v := range recent {
		log.Append([]string{
			strconv.FormatInt(v.ID, 10),
			v.StoreID,
			v.Path,
			v.Hours,
			v.Map,
			v.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	log.Render()
}
