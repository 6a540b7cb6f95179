// AffiliateService: affiliate CRUD, pagination, and counter bumps.
//
// This file implements the AffiliateService, which manages the lifecycle of
// affiliate records: creation, paginated listing, contact/base-price updates,
// soft deletion, and the sale-recording action that bumps sales_count. The
// rollup counters are never written directly here; they change only through
// the repo's server-side atomic increments.
//
// Service-level errors (e.g., ErrAffiliateNotFound) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AffiliateRepo defines the repository contract required by AffiliateService.
// Implementations are responsible for persistence of affiliate aggregates.
type AffiliateRepo interface {
	// CreateAffiliate inserts a new affiliate row with zeroed counters.
	CreateAffiliate(ctx context.Context, db *gorm.DB, name, email, phone string, basePrice decimal.Decimal) (*domain.Affiliate, error)

	// GetAffiliate fetches an affiliate by ID.
	GetAffiliate(ctx context.Context, db *gorm.DB, id string) (*domain.Affiliate, error)

	// CountAffiliates returns the total number of affiliates for pagination.
	CountAffiliates(ctx context.Context, db *gorm.DB) (int64, error)

	// ListAffiliatesPage returns a page of affiliates.
	ListAffiliatesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Affiliate, error)

	// UpdateAffiliate updates contact details and base price.
	UpdateAffiliate(ctx context.Context, db *gorm.DB, id, name, email, phone string, basePrice decimal.Decimal) error

	// DeleteAffiliate soft-deletes an affiliate.
	DeleteAffiliate(ctx context.Context, db *gorm.DB, id string) error

	// IncrementSalesCount atomically adds delta to sales_count.
	IncrementSalesCount(ctx context.Context, db *gorm.DB, id string, delta int64) error
}

// AffiliateService provides affiliate-level operations such as creating,
// listing, updating, and recording sales. It enforces name/price rules.
type AffiliateService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the affiliate repository used by this service.
	Repo AffiliateRepo
}

// NewAffiliateService constructs an AffiliateService.
func NewAffiliateService(db *gorm.DB, r AffiliateRepo) *AffiliateService {
	return &AffiliateService{DB: db, Repo: r}
}

// Create inserts a new affiliate with the provided contact details and base
// price. Names are normalized and the base price must not be negative.
func (s *AffiliateService) Create(ctx context.Context, name, email, phone string, basePrice decimal.Decimal) (*domain.Affiliate, error) {
	tr := otel.Tracer("services/AffiliateService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	name = normalizeName(name)
	if name == "" {
		return nil, errors.New("name must not be empty")
	}
	if basePrice.IsNegative() {
		return nil, ErrInvalidBasePrice
	}
	return s.Repo.CreateAffiliate(ctx, s.DB, name, strings.TrimSpace(email), strings.TrimSpace(phone), basePrice)
}

// Get fetches a single affiliate by ID.
func (s *AffiliateService) Get(ctx context.Context, id string) (*domain.Affiliate, error) {
	a, err := s.Repo.GetAffiliate(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListPage returns a page of affiliates (paginated). It applies defaults for
// invalid page/pageSize and returns total count.
func (s *AffiliateService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Affiliate, int64, error) {
	tr := otel.Tracer("services/AffiliateService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountAffiliates(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Affiliate{}, 0, nil
	}

	items, err := s.Repo.ListAffiliatesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Update modifies an affiliate's contact details and base price, ensuring the
// affiliate exists. Counters are untouched.
func (s *AffiliateService) Update(ctx context.Context, id, name, email, phone string, basePrice decimal.Decimal) error {
	name = normalizeName(name)
	if name == "" {
		return errors.New("name must not be empty")
	}
	if basePrice.IsNegative() {
		return ErrInvalidBasePrice
	}
	err := s.Repo.UpdateAffiliate(ctx, s.DB, id, name, strings.TrimSpace(email), strings.TrimSpace(phone), basePrice)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAffiliateNotFound
	}
	return err
}

// Delete soft-deletes an affiliate.
func (s *AffiliateService) Delete(ctx context.Context, id string) error {
	err := s.Repo.DeleteAffiliate(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAffiliateNotFound
	}
	return err
}

// RecordSale atomically bumps the affiliate's sales_count by one and returns
// the refreshed record so callers can display the new counters.
func (s *AffiliateService) RecordSale(ctx context.Context, id string) (*domain.Affiliate, error) {
	tr := otel.Tracer("services/AffiliateService")
	ctx, span := tr.Start(ctx, "RecordSale",
		trace.WithAttributes(attribute.String("affiliate.id", id)),
	)
	defer span.End()

	if err := s.Repo.IncrementSalesCount(ctx, s.DB, id, 1); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// normalizeName trims whitespace and collapses multiple spaces to one.
func normalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
