// IntakeService: duplicate detection and transactional quote filing.
//
// This file implements IntakeService, the application-level component that
// owns quote intake for an affiliate. It validates the submission, runs the
// two duplicate heuristics (existing customer email; same pet in the same zip
// code), and either quarantines the submission as a SpamQuote or commits it:
// a new Customer row, a new Quote row carrying a base-price snapshot, and an
// atomic bump of the affiliate's quotes_count.
//
// Consistency notes: the two duplicate lookups are independent reads and run
// concurrently; the three commit writes also run concurrently and are NOT a
// single transaction, so a store failure mid-commit can leave partial state
// (e.g. quote written, counter not bumped). The counter itself is always a
// server-side atomic add, so concurrent intakes never lose increments.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// the affiliate identifier and the intake outcome.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
	"github.com/pawquote/go-affiliate-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

// Intake outcome labels, also used as the idempotency record outcome.
const (
	OutcomeFiled   = "filed"
	OutcomeFlagged = "flagged"
)

// AffiliateContext carries the affiliate identity and base price under which
// a submission is processed. BasePrice is the value snapshotted onto the
// quote; a zero value is allowed and snapshots as 0.
type AffiliateContext struct {
	ID        string
	BasePrice decimal.Decimal
}

// Submission is an operator-entered quote request. All fields except Status
// and Notes are required. PetAge is kept as the raw client token and coerced
// numerically so that "5" and 5 compare equal during duplicate detection.
type Submission struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	PetName   string
	PetBreed  string
	PetAge    string
	Address   string
	ZipCode   string
	Status    domain.QuoteStatus // empty defaults to pending
	Notes     string
}

// IntakeOutcome is the terminal result of one intake attempt. Exactly one of
// Quote/SpamQuote is set, matching the Outcome label.
type IntakeOutcome struct {
	Outcome   string            `json:"outcome"`
	Quote     *domain.Quote     `json:"quote,omitempty"`
	SpamQuote *domain.SpamQuote `json:"spam_quote,omitempty"`
}

// IntakeService decides whether a submission is a duplicate for its affiliate
// and files or flags it accordingly.
type IntakeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Submit runs the full intake procedure for one submission.
//
// Steps:
//  1. Validate affiliate context and required submission fields; trim the
//     zip code; coerce pet age.
//  2. Run the duplicate-email and duplicate-pet lookups concurrently. Both
//     always run; neither short-circuits the other.
//  3. On any duplicate, persist a single SpamQuote (duplicate_email wins
//     when both heuristics fire) and return a flagged outcome. No customer,
//     no quote, no counter change.
//  4. Otherwise persist the Quote (base-price snapshot, amount 0), the
//     Customer keyed by (affiliate, email), and the quotes_count increment
//     as three concurrent writes, and return a filed outcome.
//
// Any store failure aborts the attempt and is returned as-is; writes already
// committed in step 4 are not rolled back.
func (s *IntakeService) Submit(ctx context.Context, aff AffiliateContext, sub Submission) (*IntakeOutcome, error) {
	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("affiliate.id", aff.ID)),
	)
	defer span.End()

	if strings.TrimSpace(aff.ID) == "" {
		return nil, ErrMissingAffiliate
	}
	if err := validateSubmission(&sub); err != nil {
		return nil, err
	}
	petAge, err := coercePetAge(sub.PetAge)
	if err != nil {
		return nil, err
	}
	zip := strings.TrimSpace(sub.ZipCode)
	status := sub.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	// Duplicate checks: two independent index reads, issued together.
	var (
		emailMatches int64
		zipCustomers []domain.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := repo.CountCustomersByEmail(gctx, s.DB, aff.ID, sub.Email)
		if err != nil {
			return fmt.Errorf("duplicate-email lookup: %w", err)
		}
		emailMatches = n
		return nil
	})
	g.Go(func() error {
		rows, err := repo.ListCustomersByZip(gctx, s.DB, aff.ID, zip)
		if err != nil {
			return fmt.Errorf("duplicate-pet lookup: %w", err)
		}
		zipCustomers = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	isDuplicateEmail := emailMatches > 0
	isDuplicatePet := matchesExistingPet(zipCustomers, sub.PetName, petAge)

	if isDuplicateEmail || isDuplicatePet {
		// Email duplicate wins the tie when both heuristics fire.
		reason := domain.ReasonDuplicatePetSameZip
		if isDuplicateEmail {
			reason = domain.ReasonDuplicateEmail
		}
		sq := &domain.SpamQuote{
			ID:          uuid.NewString(),
			AffiliateID: aff.ID,
			Email:       sub.Email,
			FirstName:   sub.FirstName,
			LastName:    sub.LastName,
			PetName:     sub.PetName,
			PetBreed:    sub.PetBreed,
			PetAge:      petAge,
			Address:     sub.Address,
			ZipCode:     zip,
			Phone:       sub.Phone,
			Reason:      reason,
			Notes:       sub.Notes,
		}
		if _, err := repo.CreateSpamQuote(ctx, s.DB, sq); err != nil {
			return nil, fmt.Errorf("persist spam quote: %w", err)
		}
		span.SetAttributes(
			attribute.String("intake.outcome", OutcomeFlagged),
			attribute.String("intake.reason", string(reason)),
		)
		return &IntakeOutcome{Outcome: OutcomeFlagged, SpamQuote: sq}, nil
	}

	quote := &domain.Quote{
		ID:          uuid.NewString(),
		AffiliateID: aff.ID,
		Email:       sub.Email,
		FirstName:   sub.FirstName,
		LastName:    sub.LastName,
		PetName:     sub.PetName,
		PetBreed:    sub.PetBreed,
		PetAge:      petAge,
		Address:     sub.Address,
		ZipCode:     zip,
		Phone:       sub.Phone,
		Status:      status,
		Amount:      decimal.Zero,
		Commission:  aff.BasePrice,
		BasePrice:   aff.BasePrice,
		Notes:       sub.Notes,
	}
	customer := &domain.Customer{
		ID:          uuid.NewString(),
		AffiliateID: aff.ID,
		Email:       sub.Email,
		FirstName:   sub.FirstName,
		LastName:    sub.LastName,
		PetName:     sub.PetName,
		PetBreed:    sub.PetBreed,
		PetAge:      petAge,
		Address:     sub.Address,
		ZipCode:     zip,
		Phone:       sub.Phone,
	}

	// Three independent writes, submitted together. Success is the
	// conjunction of all three; there is no group transaction.
	g2, g2ctx := errgroup.WithContext(ctx)
	g2.Go(func() error {
		if _, err := repo.CreateQuote(g2ctx, s.DB, quote); err != nil {
			return fmt.Errorf("persist quote: %w", err)
		}
		return nil
	})
	g2.Go(func() error {
		if _, err := repo.CreateCustomer(g2ctx, s.DB, customer); err != nil {
			return fmt.Errorf("persist customer: %w", err)
		}
		return nil
	})
	g2.Go(func() error {
		if err := repo.IncrementQuotesCount(g2ctx, s.DB, aff.ID, 1); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrAffiliateNotFound
			}
			return fmt.Errorf("increment quotes count: %w", err)
		}
		return nil
	})
	if err := g2.Wait(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("intake.outcome", OutcomeFiled))
	return &IntakeOutcome{Outcome: OutcomeFiled, Quote: quote}, nil
}

// validateSubmission trims all text fields and checks required-field
// presence. Handlers validate at bind time; this re-check covers direct
// callers of the service.
func validateSubmission(sub *Submission) error {
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.FirstName = strings.TrimSpace(sub.FirstName)
	sub.LastName = strings.TrimSpace(sub.LastName)
	sub.PetName = strings.TrimSpace(sub.PetName)
	sub.PetBreed = strings.TrimSpace(sub.PetBreed)
	sub.Address = strings.TrimSpace(sub.Address)

	required := []struct {
		name  string
		value string
	}{
		{"email", sub.Email},
		{"phone", sub.Phone},
		{"first_name", sub.FirstName},
		{"last_name", sub.LastName},
		{"pet_name", sub.PetName},
		{"pet_breed", sub.PetBreed},
		{"pet_age", strings.TrimSpace(sub.PetAge)},
		{"address", sub.Address},
		{"zip_code", strings.TrimSpace(sub.ZipCode)},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%s: %w", f.name, ErrMissingField)
		}
	}
	return nil
}

// coercePetAge parses the raw pet-age token as a non-negative integer.
func coercePetAge(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, ErrInvalidPetAge
	}
	return n, nil
}

// matchesExistingPet reports whether any customer in the same zip code has
// the same pet: case-folded name equality and numeric age equality.
func matchesExistingPet(customers []domain.Customer, petName string, petAge int) bool {
	// cases.Caser carries internal state, so build it per call.
	fold := cases.Fold()
	folded := fold.String(strings.TrimSpace(petName))
	for _, c := range customers {
		if c.PetAge == petAge && fold.String(strings.TrimSpace(c.PetName)) == folded {
			return true
		}
	}
	return false
}
