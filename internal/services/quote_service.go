// QuoteService: quote and spam-quote listings plus review transitions.
//
// This file implements the QuoteService, which serves the review side of the
// pipeline: paginated quote listings (optionally filtered by status),
// spam-quote listings for operator inspection, and the status/amount update
// performed by the review workflow. Intake itself lives in IntakeService;
// this service never creates quotes and never touches the rollup counters.
package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
	"github.com/pawquote/go-affiliate-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// QuoteService provides listing and review operations over quotes and
// spam quotes.
type QuoteService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// ListPage returns paginated quotes for an affiliate, newest first. A
// non-empty status narrows the listing and must be a valid QuoteStatus.
func (s *QuoteService) ListPage(ctx context.Context, affiliateID string, status domain.QuoteStatus, page, pageSize int) ([]domain.Quote, int64, error) {
	tr := otel.Tracer("services/QuoteService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("affiliate.id", affiliateID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if err := s.ensureAffiliate(ctx, affiliateID); err != nil {
		return nil, 0, err
	}

	total, err := repo.CountQuotes(ctx, s.DB, affiliateID, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Quote{}, 0, nil
	}

	items, err := repo.ListQuotesPage(ctx, s.DB, affiliateID, status, offset, pageSize)
	return items, total, err
}

// ListSpamPage returns paginated spam quotes for an affiliate, newest first.
func (s *QuoteService) ListSpamPage(ctx context.Context, affiliateID string, page, pageSize int) ([]domain.SpamQuote, int64, error) {
	tr := otel.Tracer("services/QuoteService")
	ctx, span := tr.Start(ctx, "ListSpamPage",
		trace.WithAttributes(
			attribute.String("affiliate.id", affiliateID),
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

	if err := s.ensureAffiliate(ctx, affiliateID); err != nil {
		return nil, 0, err
	}

	total, err := repo.CountSpamQuotes(ctx, s.DB, affiliateID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.SpamQuote{}, 0, nil
	}

	items, err := repo.ListSpamQuotesPage(ctx, s.DB, affiliateID, offset, pageSize)
	return items, total, err
}

// Review updates a quote's status and, optionally, its amount. Commission and
// base price keep their intake-time snapshot values.
func (s *QuoteService) Review(ctx context.Context, quoteID string, status domain.QuoteStatus, amount *decimal.Decimal) (*domain.Quote, error) {
	tr := otel.Tracer("services/QuoteService")
	ctx, span := tr.Start(ctx, "Review",
		trace.WithAttributes(
			attribute.String("quote.id", quoteID),
			attribute.String("quote.status", string(status)),
		),
	)
	defer span.End()

	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if amount != nil && amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	if err := repo.UpdateQuoteReview(ctx, s.DB, quoteID, status, amount); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	return repo.GetQuote(ctx, s.DB, quoteID)
}

// ensureAffiliate verifies the affiliate exists before a listing so missing
// affiliates surface as 404 rather than an empty page.
func (s *QuoteService) ensureAffiliate(ctx context.Context, affiliateID string) error {
	if _, err := repo.GetAffiliate(ctx, s.DB, affiliateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAffiliateNotFound
		}
		return err
	}
	return nil
}
