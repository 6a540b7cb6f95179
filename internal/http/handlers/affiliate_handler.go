// Affiliate HTTP handlers.
//
// This file exposes REST endpoints for affiliate resources:
//   - POST   /affiliates             (create)
//   - GET    /affiliates             (list, paginated, ETag support)
//   - GET    /affiliates/{id}        (fetch one)
//   - PUT    /affiliates/{id}        (update contact details / base price)
//   - DELETE /affiliates/{id}        (soft delete)
//   - POST   /affiliates/{id}/sales  (record a sale; atomic counter bump)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
	"github.com/pawquote/go-affiliate-backend/internal/repo"
	"github.com/pawquote/go-affiliate-backend/internal/services"
	"github.com/pawquote/go-affiliate-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AffiliateService defines affiliate lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AffiliateService interface {
	// Create registers a new affiliate with zeroed counters.
	Create(ctx context.Context, name, email, phone string, basePrice decimal.Decimal) (*domain.Affiliate, error)
	// Get fetches a single affiliate.
	Get(ctx context.Context, id string) (*domain.Affiliate, error)
	// ListPage returns a page of affiliates and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Affiliate, int64, error)
	// Update modifies contact details and base price.
	Update(ctx context.Context, id, name, email, phone string, basePrice decimal.Decimal) error
	// Delete soft-deletes an affiliate.
	Delete(ctx context.Context, id string) error
	// RecordSale bumps sales_count atomically and returns the fresh record.
	RecordSale(ctx context.Context, id string) (*domain.Affiliate, error)
}

// IntakeService defines the quote-intake operation consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type IntakeService interface {
	// Submit files or flags one quote submission for an affiliate.
	Submit(ctx context.Context, aff services.AffiliateContext, sub services.Submission) (*services.IntakeOutcome, error)
}

// QuoteService defines quote listing and review operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type QuoteService interface {
	// ListPage returns a page of quotes for an affiliate and the total count.
	ListPage(ctx context.Context, affiliateID string, status domain.QuoteStatus, page, pageSize int) ([]domain.Quote, int64, error)
	// ListSpamPage returns a page of spam quotes for an affiliate.
	ListSpamPage(ctx context.Context, affiliateID string, page, pageSize int) ([]domain.SpamQuote, int64, error)
	// Review updates a quote's status and optional amount.
	Review(ctx context.Context, quoteID string, status domain.QuoteStatus, amount *decimal.Decimal) (*domain.Quote, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for affiliates, quote intake, and review.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	affSvc    AffiliateService
	intakeSvc IntakeService
	quoteSvc  QuoteService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(affSvc AffiliateService, intakeSvc IntakeService, quoteSvc QuoteService) *Handlers {
	return &Handlers{affSvc: affSvc, intakeSvc: intakeSvc, quoteSvc: quoteSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateAffiliateRequest is the JSON payload for registering an affiliate.
type CreateAffiliateRequest struct {
	// Name is the partner's display name.
	Name string `json:"name" binding:"required,min=1,max=255" example:"Happy Tails Rescue"`
	// Email is the partner's contact address.
	Email string `json:"email" binding:"required,email" example:"partners@happytails.org"`
	// Phone is the partner's contact number.
	Phone string `json:"phone" example:"+1 212 555 0188"`
	// BasePrice is the commission per accepted quote; accepts number or string.
	BasePrice decimal.Decimal `json:"base_price" example:"25"`
}

// UpdateAffiliateRequest is the JSON payload for updating an affiliate.
type UpdateAffiliateRequest struct {
	Name      string          `json:"name" binding:"required,min=1,max=255" example:"Happy Tails Rescue"`
	Email     string          `json:"email" binding:"required,email" example:"partners@happytails.org"`
	Phone     string          `json:"phone" example:"+1 212 555 0188"`
	BasePrice decimal.Decimal `json:"base_price" example:"27.50"`
}

// AffiliateResponse is the JSON envelope for a single affiliate.
type AffiliateResponse struct {
	Affiliate *domain.Affiliate `json:"affiliate"`
}

// ListAffiliatesResponse contains a page of affiliates and pagination metadata.
type ListAffiliatesResponse struct {
	Affiliates []domain.Affiliate `json:"affiliates"`
	Pagination Pagination         `json:"pagination"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses page/page_size from query parameters, applies sane
// defaults and caps, and returns the validated (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationMeta assembles the Pagination envelope from raw values.
func paginationMeta(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// CreateAffiliate godoc
// @ID          createAffiliate
// @Summary     Register an affiliate
// @Description Creates a new affiliate partner with zeroed quote/sale counters.
// @Tags        Affiliates
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateAffiliateRequest  true  "Affiliate payload"
//
// @Success     201  {object}  handlers.AffiliateResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /affiliates [post]
func (h *Handlers) CreateAffiliate(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and email required")
		return
	}

	a, err := h.affSvc.Create(ctx, req.Name, req.Email, req.Phone, req.BasePrice)
	if err != nil {
		switch err {
		case services.ErrInvalidBasePrice:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, AffiliateResponse{Affiliate: a})
}

// ListAffiliates godoc
// @ID          listAffiliates
// @Summary     List affiliates
// @Description Returns a paginated list of affiliates, newest first.
// @Tags        Affiliates
// @Produce     json
//
// @Param       page       query  int  false "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListAffiliatesResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /affiliates [get]
func (h *Handlers) ListAffiliates(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if db := h.dbHandle(); db != nil {
		count, maxTS, err := repo.AffiliatesStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"affiliates:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.affSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListAffiliatesResponse{
		Affiliates: items,
		Pagination: paginationMeta(page, pageSize, total),
	})
}

// GetAffiliate godoc
// @ID          getAffiliate
// @Summary     Fetch an affiliate
// @Tags        Affiliates
// @Produce     json
//
// @Param       id  path  string  true  "Affiliate ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.AffiliateResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Affiliate not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /affiliates/{id} [get]
func (h *Handlers) GetAffiliate(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "affiliate id must be a UUID")
		return
	}

	a, err := h.affSvc.Get(ctx, id)
	if err != nil {
		switch err {
		case services.ErrAffiliateNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "affiliate not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeStoreError, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, AffiliateResponse{Affiliate: a})
}

// UpdateAffiliate godoc
// @ID          updateAffiliate
// @Summary     Update an affiliate
// @Description Updates contact details and base price. Counters are immutable here.
// @Tags        Affiliates
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                           true  "Affiliate ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateAffiliateRequest  true  "Updated payload"
//
// @Success     204  "Updated"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Affiliate not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /affiliates/{id} [put]
func (h *Handlers) UpdateAffiliate(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "affiliate id must be a UUID")
		return
	}
	var req UpdateAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and email required")
		return
	}

	err := h.affSvc.Update(ctx, id, req.Name, req.Email, req.Phone, req.BasePrice)
	if err != nil {
		switch err {
		case services.ErrAffiliateNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "affiliate not found")
		case services.ErrInvalidBasePrice:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeStoreError, err.Error())
		}
		return
	}
	noContent(c)
}

// DeleteAffiliate godoc
// @ID          deleteAffiliate
// @Summary     Delete an affiliate
// @Description Soft-deletes the affiliate; historical quotes remain for audit.
// @Tags        Affiliates
// @Produce     json
//
// @Param       id  path  string  true  "Affiliate ID (UUID)"  format(uuid)
//
// @Success     204  "Deleted"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Affiliate not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /affiliates/{id} [delete]
func (h *Handlers) DeleteAffiliate(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "affiliate id must be a UUID")
		return
	}

	if err := h.affSvc.Delete(ctx, id); err != nil {
		switch err {
		case services.ErrAffiliateNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "affiliate not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeStoreError, err.Error())
		}
		return
	}
	noContent(c)
}

// RecordSale godoc
// @ID          recordSale
// @Summary     Record a sale for an affiliate
// @Description Atomically bumps the affiliate's sales counter by one.
// @Tags        Affiliates
// @Produce     json
//
// @Param       id  path  string  true  "Affiliate ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.AffiliateResponse "Affiliate with fresh counters"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Affiliate not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /affiliates/{id}/sales [post]
func (h *Handlers) RecordSale(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "affiliate id must be a UUID")
		return
	}

	a, err := h.affSvc.RecordSale(ctx, id)
	if err != nil {
		switch err {
		case services.ErrAffiliateNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "affiliate not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeStoreError, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, AffiliateResponse{Affiliate: a})
}

// dbHandle exposes the concrete GORM handle for best-effort extras (ETags,
// idempotency) when the wired service is the concrete implementation.
func (h *Handlers) dbHandle() *gorm.DB {
	if svc, ok := h.affSvc.(*services.AffiliateService); ok {
		return svc.DB
	}
	return nil
}
