// Quote intake HTTP handler.
//
// This file exposes the intake endpoint:
//   - POST /affiliates/{id}/quotes  (submit a quote; duplicate detection)
//
// The handler is transport-thin:
//   - validate & normalize inputs (pet age accepts a JSON number or string)
//   - resolve the affiliate context (identity + base price)
//   - delegate to the application service (IntakeService)
//   - implement idempotency semantics for safe retries
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, affiliate, key), the handler returns that recorded
// outcome and sets `Idempotency-Replayed: true`; nothing is re-filed and the
// affiliate's counters are untouched.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
	"github.com/pawquote/go-affiliate-backend/internal/http/middleware"
	"github.com/pawquote/go-affiliate-backend/internal/repo"
	"github.com/pawquote/go-affiliate-backend/internal/services"
)

//
// DTOs
//

// FlexString accepts either a JSON string or a bare JSON number and stores the
// raw token. Operator UIs send pet age both ways; the service compares it
// numerically either way.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// SubmitQuoteRequest is the JSON payload for a quote submission.
type SubmitQuoteRequest struct {
	Email     string     `json:"email"      binding:"required,email" example:"a@x.com"`
	Phone     string     `json:"phone"      binding:"required"       example:"+1 212 555 0123"`
	FirstName string     `json:"first_name" binding:"required"       example:"Ada"`
	LastName  string     `json:"last_name"  binding:"required"       example:"Lovelace"`
	PetName   string     `json:"pet_name"   binding:"required"       example:"Rex"`
	PetBreed  string     `json:"pet_breed"  binding:"required"       example:"Beagle"`
	PetAge    FlexString `json:"pet_age"    binding:"required"       example:"3"`
	Address   string     `json:"address"    binding:"required"       example:"1 Main St"`
	ZipCode   string     `json:"zip_code"   binding:"required"       example:"10001"`
	// Status optionally overrides the default "pending".
	Status string `json:"status" example:"pending"`
	// Notes is free-text operator commentary.
	Notes string `json:"notes" example:"walk-in referral"`
}

// IntakeResponse is the JSON envelope for an intake outcome. Exactly one of
// Quote/SpamQuote is present, matching Outcome ("filed" or "flagged").
type IntakeResponse struct {
	Outcome   string            `json:"outcome" example:"filed"`
	Quote     *domain.Quote     `json:"quote,omitempty"`
	SpamQuote *domain.SpamQuote `json:"spam_quote,omitempty"`
}

//
// Handlers
//

// SubmitQuote godoc
// @ID          submitQuote
// @Summary     Submit a quote for an affiliate
// @Description Runs duplicate detection (existing customer email; same pet in
// @Description the same zip). Non-duplicates are filed as a quote + customer
// @Description with the affiliate's base price snapshotted and quotes_count
// @Description bumped; duplicates are quarantined as spam quotes.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Intake
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "Operator user ID"  example(ops-1)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Affiliate ID (UUID)"  format(uuid)
// @Param       body             body    handlers.SubmitQuoteRequest  true  "Quote submission payload"
//
// @Success     201  {object}  handlers.IntakeResponse "Quote filed"
// @Success     200  {object}  handlers.IntakeResponse "Submission flagged as spam"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Affiliate not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Store error"
// @Router      /affiliates/{id}/quotes [post]
func (h *Handlers) SubmitQuote(c *gin.Context) {
	ctx := c.Request.Context()
	affiliateID := c.Param("id")

	if _, err := uuid.Parse(affiliateID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "affiliate id must be a UUID")
		return
	}

	var req SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "submission fields missing or malformed")
		return
	}

	status := domain.QuoteStatus(strings.TrimSpace(req.Status))
	if status != "" && !status.Valid() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid quote status")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path): read validated key if present.
	idemKey, _ := intakeIdempotencyKey(c)
	if idemKey != "" {
		if db := h.dbHandle(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, currentUser, affiliateID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if resp, status, ok2 := h.replayOutcome(c, db, rec); ok2 {
					c.Header(middleware.HeaderIdempotencyReplayed, "true")
					middleware.ObserveIntakeOutcome("replayed")
					ok(c, status, resp)
					return
				}
			}
		}
	}

	// Resolve the affiliate context. Intake never starts without it.
	aff, err := h.affSvc.Get(ctx, affiliateID)
	if err != nil {
		switch err {
		case services.ErrAffiliateNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "affiliate not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeStoreError, err.Error())
		}
		return
	}

	outcome, err := h.intakeSvc.Submit(ctx,
		services.AffiliateContext{ID: aff.ID, BasePrice: aff.BasePrice},
		services.Submission{
			Email:     req.Email,
			Phone:     req.Phone,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			PetName:   req.PetName,
			PetBreed:  req.PetBreed,
			PetAge:    string(req.PetAge),
			Address:   req.Address,
			ZipCode:   req.ZipCode,
			Status:    status,
			Notes:     req.Notes,
		})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingAffiliate):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrMissingField),
			errors.Is(err, services.ErrInvalidPetAge),
			errors.Is(err, services.ErrInvalidStatus):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrAffiliateNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "affiliate not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeStoreError, err.Error())
		}
		return
	}

	httpStatus := http.StatusOK
	recordID := ""
	if outcome.Outcome == services.OutcomeFiled {
		httpStatus = http.StatusCreated
		recordID = outcome.Quote.ID
	} else if outcome.SpamQuote != nil {
		recordID = outcome.SpamQuote.ID
	}

	// Idempotency (store path): best effort.
	if idemKey != "" && recordID != "" {
		if db := h.dbHandle(); db != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, db, currentUser, affiliateID, idemKey, recordID, outcome.Outcome, httpStatus, ttl)
		}
	}

	middleware.ObserveIntakeOutcome(outcome.Outcome)
	ok(c, httpStatus, IntakeResponse{
		Outcome:   outcome.Outcome,
		Quote:     outcome.Quote,
		SpamQuote: outcome.SpamQuote,
	})
}

// replayOutcome reconstructs the response for a stored idempotency record.
// It reports ok=false when the referenced row can no longer be loaded, in
// which case the request proceeds as a fresh intake.
func (h *Handlers) replayOutcome(c *gin.Context, db *gorm.DB, rec *domain.Idempotency) (IntakeResponse, int, bool) {
	ctx := c.Request.Context()
	switch rec.Outcome {
	case services.OutcomeFiled:
		if q, err := repo.GetQuote(ctx, db, rec.RecordID); err == nil {
			return IntakeResponse{Outcome: rec.Outcome, Quote: q}, rec.Status, true
		}
	case services.OutcomeFlagged:
		if sq, err := repo.GetSpamQuote(ctx, db, rec.RecordID); err == nil {
			return IntakeResponse{Outcome: rec.Outcome, SpamQuote: sq}, rec.Status, true
		}
	}
	return IntakeResponse{}, 0, false
}

// intakeIdempotencyKey extracts an idempotency key if an upstream middleware
// has already validated/stashed it. The fallback behavior reads the
// "Idempotency-Key" header directly when no dedicated middleware exists.
func intakeIdempotencyKey(c *gin.Context) (string, bool) {
	if v := strings.TrimSpace(c.GetHeader("Idempotency-Key")); v != "" {
		return v, true
	}
	return "", false
}
