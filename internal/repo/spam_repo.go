// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the SpamQuote
// model.
//
// Spam quotes are written exactly once, as the single side effect of a
// flagged intake. They are listed for operator inspection and never promoted
// back to regular quotes.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
)

// CreateSpamQuote inserts a quarantine row for a duplicate submission.
// The ID is generated when unset and CreatedAt defaults to UTC now.
// On success, it returns the persisted SpamQuote. On failure, a DB error.
func CreateSpamQuote(ctx context.Context, db *gorm.DB, sq *domain.SpamQuote) (*domain.SpamQuote, error) {
	if sq.ID == "" {
		sq.ID = uuid.NewString()
	}
	if sq.CreatedAt.IsZero() {
		sq.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(sq).Error; err != nil {
		return nil, err
	}
	return sq, nil
}

// GetSpamQuote fetches a single spam quote by its ID. If the record does not
// exist, it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetSpamQuote(ctx context.Context, db *gorm.DB, id string) (*domain.SpamQuote, error) {
	var sq domain.SpamQuote
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&sq).Error
	if err != nil {
		return nil, err
	}
	return &sq, nil
}

// CountSpamQuotes returns the total number of spam quotes for an affiliate.
// On DB error, it returns the error.
func CountSpamQuotes(ctx context.Context, db *gorm.DB, affiliateID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.SpamQuote{}).
		Where("affiliate_id = ?", affiliateID).
		Count(&total).Error
	return total, err
}

// ListSpamQuotesPage returns a paginated slice of spam quotes for an
// affiliate, newest first. On DB error, it returns the error.
func ListSpamQuotesPage(ctx context.Context, db *gorm.DB, affiliateID string, offset, limit int) ([]domain.SpamQuote, error) {
	var out []domain.SpamQuote
	err := db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
