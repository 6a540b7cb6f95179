// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded outcome of a previously processed quote
// intake, keyed by (user_id, affiliate_id, key). It enables safe retries of
// the intake POST by returning the originally produced outcome without
// re-running duplicate checks or re-issuing writes.
//
// RecordID points to the Quote row when Outcome is "filed" and to the
// SpamQuote row when Outcome is "flagged".
type Idempotency struct {
	ID          string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_affiliate_key,priority:1"`
	AffiliateID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_affiliate_key,priority:2"`
	Key         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_affiliate_key,priority:3"`
	RecordID    string    `gorm:"type:TEXT NOT NULL"`
	Outcome     string    `gorm:"type:TEXT NOT NULL"`
	Status      int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt   time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
