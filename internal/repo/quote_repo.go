// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Quote model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving intake/review rules to the services package.
//
// Error semantics:
//   - When a quote is not found, functions return gorm.ErrRecordNotFound
//     (aliased as ErrNotFound in affiliate_repo.go).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
)

// CreateQuote inserts a quote row. The caller supplies the generated ID and
// the base-price/commission snapshot; CreatedAt defaults to UTC now when
// unset. On success, it returns the persisted Quote.
func CreateQuote(ctx context.Context, db *gorm.DB, q *domain.Quote) (*domain.Quote, error) {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuote fetches a single quote by its ID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetQuote(ctx context.Context, db *gorm.DB, id string) (*domain.Quote, error) {
	var q domain.Quote
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CountQuotes returns the number of quotes for an affiliate, optionally
// filtered by status (empty status means all). On DB error, it returns the error.
func CountQuotes(ctx context.Context, db *gorm.DB, affiliateID string, status domain.QuoteStatus) (int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.Quote{}).
		Where("affiliate_id = ?", affiliateID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListQuotesPage returns a paginated slice of quotes for an affiliate,
// newest first, optionally filtered by status (empty status means all).
// On DB error, it returns the error.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListQuotesPage(ctx context.Context, db *gorm.DB, affiliateID string, status domain.QuoteStatus, offset, limit int) ([]domain.Quote, error) {
	q := db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Quote
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateQuoteReview sets the status of a quote and, when amount is non-nil,
// its review-adjusted amount. Commission and base price are snapshots from
// intake time and are never touched here.
//
// If no rows are affected (quote missing), it returns ErrNotFound.
func UpdateQuoteReview(ctx context.Context, db *gorm.DB, id string, status domain.QuoteStatus, amount *decimal.Decimal) error {
	updates := map[string]any{"status": status}
	if amount != nil {
		updates["amount"] = *amount
	}
	res := db.WithContext(ctx).
		Model(&domain.Quote{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
