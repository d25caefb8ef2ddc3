package database

import (
	"context"
	"fmt"

	"github.com/jikku/coffeehouse/internal/models"
)

// RecordVisit stores one store page view
func (db *DB) RecordVisit(ctx context.Context, v models.Visit) error {
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO visits (store_id, path, hours, map, user_agent)
		VALUES (:store_id, :path, :hours, :map, :user_agent)
	`, v)
	if err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

// RecentVisits returns the latest visits, newest first
func (db *DB) RecentVisits(ctx context.Context, limit int) ([]models.Visit, error) {
	if limit <= 0 {
		limit = 50
	}

	visits := []models.Visit{}
	query := db.Rebind(`
		SELECT id, store_id, path, hours, map, user_agent, created_at
		FROM visits
		ORDER BY id DESC
		LIMIT ?
	`)
	if err := db.SelectContext(ctx, &visits, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

// CountVisits returns the number of visits per store identifier
func (db *DB) CountVisits(ctx context.Context) (map[string]int64, error) {
	rows, err := db.QueryxContext(ctx, `SELECT store_id, COUNT(*) FROM visits GROUP BY store_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
