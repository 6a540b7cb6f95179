// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Affiliate
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an affiliate is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Counter semantics:
//   - IncrementQuotesCount and IncrementSalesCount issue a single server-side
//     UPDATE with an arithmetic expression. They never read-modify-write, so
//     concurrent intake for the same affiliate cannot lose updates. The
//     counter columns are NOT NULL DEFAULT 0, which covers the
//     increment-or-initialize case for rows created before the counters
//     existed.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateAffiliate inserts a new Affiliate row with zeroed counters.
// The affiliate ID is a randomly generated UUID, and CreatedAt is set to UTC.
//
// On success, it returns the persisted Affiliate. On failure, it returns a DB error.
func CreateAffiliate(ctx context.Context, db *gorm.DB, name, email, phone string, basePrice decimal.Decimal) (*domain.Affiliate, error) {
	a := &domain.Affiliate{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		BasePrice: basePrice,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAffiliate fetches a single affiliate by its ID. If the record does not
// exist, it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetAffiliate(ctx context.Context, db *gorm.DB, id string) (*domain.Affiliate, error) {
	var a domain.Affiliate
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountAffiliates returns the total number of affiliates.
// On DB error, it returns the error.
func CountAffiliates(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Affiliate{}).
		Count(&total).Error
	return total, err
}

// ListAffiliatesPage returns a paginated slice of affiliates, ordered by
// creation time descending. Use CountAffiliates to obtain the total for
// pagination metadata. On DB error, it returns the error.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListAffiliatesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Affiliate, error) {
	var out []domain.Affiliate
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateAffiliate updates the mutable attributes of an affiliate (contact
// details and base price). Counters are deliberately excluded; they change
// only through the atomic increment helpers below.
//
// If no rows are affected (affiliate missing), it returns ErrNotFound.
func UpdateAffiliate(ctx context.Context, db *gorm.DB, id, name, email, phone string, basePrice decimal.Decimal) error {
	res := db.WithContext(ctx).
		Model(&domain.Affiliate{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":       name,
			"email":      email,
			"phone":      phone,
			"base_price": basePrice,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAffiliate soft-deletes an affiliate. If no rows are affected
// (affiliate missing), it returns ErrNotFound.
func DeleteAffiliate(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Affiliate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementQuotesCount atomically adds delta to the affiliate's quotes_count
// via a server-side UPDATE expression. If the affiliate does not exist, it
// returns ErrNotFound.
func IncrementQuotesCount(ctx context.Context, db *gorm.DB, id string, delta int64) error {
	return incrementCounter(ctx, db, id, "quotes_count", delta)
}

// IncrementSalesCount atomically adds delta to the affiliate's sales_count
// via a server-side UPDATE expression. If the affiliate does not exist, it
// returns ErrNotFound.
func IncrementSalesCount(ctx context.Context, db *gorm.DB, id string, delta int64) error {
	return incrementCounter(ctx, db, id, "sales_count", delta)
}

// incrementCounter issues `UPDATE affiliates SET <col> = <col> + delta`
// scoped to one row. The arithmetic happens inside the store, never in Go.
func incrementCounter(ctx context.Context, db *gorm.DB, id, column string, delta int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Affiliate{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
