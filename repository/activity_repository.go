package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"anistream/database"
	"anistream/models"
)

// ActivityRepository handles the dashboard activity feed
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create records an activity. details, when non-nil, is stored as JSON.
func (r *ActivityRepository) Create(activityType models.ActivityType, subject, message string, details interface{}) error {
	var detailsJSON string
	if details != nil {
		detailsBytes, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal activity details: %w", err)
		}
		detailsJSON = string(detailsBytes)
	}

	query := `INSERT INTO activities (type, subject, message, details, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, string(activityType), subject, message, detailsJSON, database.FormatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

// Recent returns up to limit activities, newest first
func (r *ActivityRepository) Recent(limit int) ([]models.Activity, error) {
	activities := []models.Activity{}
	query := `SELECT id, type, subject, message, COALESCE(details, '') AS details, created_at
			  FROM activities
			  ORDER BY created_at DESC, id DESC
			  LIMIT ?`
	if err := r.db.Select(&activities, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	return activities, nil
}

// CountsByType returns the number of recorded activities per type
func (r *ActivityRepository) CountsByType() (map[models.ActivityType]int, error) {
	rows, err := r.db.Query(`SELECT type, COUNT(*) FROM activities GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count activities: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("Failed to close rows: %v\n", cerr)
		}
	}()

	counts := make(map[models.ActivityType]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan activity count: %w", err)
		}
		counts[models.ActivityType(t)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity counts: %w", err)
	}

	return counts, nil
}

// DeleteOlderThan removes activities older than the specified duration
func (r *ActivityRepository) DeleteOlderThan(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := r.db.Exec(`DELETE FROM activities WHERE created_at < ?`, database.FormatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old activities: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
