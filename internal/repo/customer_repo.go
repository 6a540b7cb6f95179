// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Customer
// model.
//
// Customers back the two duplicate-detection lookups used by quote intake:
//   - CountCustomersByEmail hits the (affiliate_id, email) unique index.
//   - ListCustomersByZip hits the (affiliate_id, zip_code) secondary index
//     and returns candidate rows for the pet-match comparison, which is
//     performed in the service layer (case-insensitive name, numeric age).
//
// Error semantics:
//   - A second customer for the same (affiliate_id, email) violates the
//     unique index; the raw DB error is propagated for the service layer to
//     translate.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
)

// CreateCustomer inserts a customer row keyed by (affiliateID, email).
// The zip code is stored as given; callers normalize it beforehand.
//
// The (affiliate_id, email) pair must be unique, enforced by the database
// schema. On success, it returns the persisted Customer. On failure, it
// returns a DB error.
func CreateCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) (*domain.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// CountCustomersByEmail returns the number of customer rows for the given
// affiliate and exact email. With the unique index in place the result is 0
// or 1; intake only cares about presence. On DB error, it returns the error.
func CountCustomersByEmail(ctx context.Context, db *gorm.DB, affiliateID, email string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("affiliate_id = ? AND email = ?", affiliateID, email).
		Count(&total).Error
	return total, err
}

// ListCustomersByZip returns all customer rows for the given affiliate and
// zip code, ordered by creation time ascending. It returns an empty slice
// when no rows match. On DB error, it returns the error.
func ListCustomersByZip(ctx context.Context, db *gorm.DB, affiliateID, zipCode string) ([]domain.Customer, error) {
	var out []domain.Customer
	err := db.WithContext(ctx).
		Where("affiliate_id = ? AND zip_code = ?", affiliateID, zipCode).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
