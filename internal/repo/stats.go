// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/contactly/go-contacts-backend/internal/domain"
)

// ContactsStats returns aggregate metadata for a user's live contacts: the
// total number of rows and the maximum UpdatedAt timestamp among those rows.
//
// It executes two lightweight queries against the contacts table scoped to
// the provided userID. When the user has no contacts, the returned count is 0
// and maxUpdatedAt is nil.
//
// Return values:
//   - count:        total live contacts for userID
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func ContactsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Contact{}).Where("user_id = ?", userID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	err = db.WithContext(ctx).Model(&domain.Contact{}).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Limit(1).
		Select("updated_at").
		Scan(&row).Error
	if err != nil {
		return 0, nil, err
	}
	ts := row.UpdatedAt
	return count, &ts, nil
}
