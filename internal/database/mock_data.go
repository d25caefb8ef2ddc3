package database

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/jikku/coffeehouse/internal/models"
)

// GenerateMockData inserts sample visits when the visit log is empty.
// It is used in development mode only.
func (db *DB) GenerateMockData(ctx context.Context, n int) error {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM visits"); err != nil {
		return fmt.Errorf("failed to count visits: %w", err)
	}
	if count > 0 {
		db.logger.Debug("Visit log already populated, skipping mock data", zap.Int("visits", count))
		return nil
	}

	storeIDs := []string{"1", "2", "3"}
	hours := []string{"", "", "sunday", "monday", "saturday"}
	maps := []string{"", "", "flash"}
	agents := []string{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := 0; i < n; i++ {
		id := storeIDs[rand.Intn(len(storeIDs))]
		v := models.Visit{
			StoreID:   id,
			Path:      "/stores/" + id + "/",
			Hours:     hours[rand.Intn(len(hours))],
			Map:       maps[rand.Intn(len(maps))],
			UserAgent: agents[rand.Intn(len(agents))],
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO visits (store_id, path, hours, map, user_agent)
			VALUES (:store_id, :path, :hours, :map, :user_agent)
		`, v); err != nil {
			return fmt.Errorf("failed to insert mock visit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mock data: %w", err)
	}

	db.logger.Info("Generated mock visits", zap.Int("visits", n))
	return nil
}
