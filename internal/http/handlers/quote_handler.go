// Quote review HTTP handlers.
//
// This file exposes REST endpoints for the review side of the pipeline:
//   - GET /affiliates/{id}/quotes       (list paginated quotes, ETag support)
//   - GET /affiliates/{id}/spam-quotes  (list quarantined submissions)
//   - PUT /quotes/{id}/status           (review: set status, adjust amount)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
	"github.com/pawquote/go-affiliate-backend/internal/repo"
	"github.com/pawquote/go-affiliate-backend/internal/services"
)

//
// DTOs
//

// ListQuotesResponse contains a page of quotes and pagination metadata.
type ListQuotesResponse struct {
	Quotes     []domain.Quote `json:"quotes"`
	Pagination Pagination     `json:"pagination"`
}

// ListSpamQuotesResponse contains a page of spam quotes and pagination metadata.
type ListSpamQuotesResponse struct {
	SpamQuotes []domain.SpamQuote `json:"spam_quotes"`
	Pagination Pagination         `json:"pagination"`
}

// ReviewQuoteRequest is the JSON payload for a review decision.
type ReviewQuoteRequest struct {
	// Status is the new review state.
	Status string `json:"status" binding:"required" example:"approved"`
	// Amount optionally sets the review-adjusted value; accepts number or string.
	Amount *decimal.Decimal `json:"amount,omitempty" example:"120.00"`
}

// QuoteResponse is the JSON envelope for a single quote.
type QuoteResponse struct {
	Quote *domain.Quote `json:"quote"`
}

//
// Handlers
//

// ListQuotes godoc
// @ID          listQuotes
// @Summary     List quotes for an affiliate
// @Description Returns a paginated list of quotes, newest first, with an
// @Description optional status filter.
// @Tags        Quotes
// @Produce     json
//
// @Param       id         path   string  true  "Affiliate ID (UUID)"  format(uuid)
// @Param       status     query  string  false "Status filter" Enums(no_marketing, pending, in review, approved, rejected)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListQuotesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Affiliate not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /affiliates/{id}/quotes [get]
func (h *Handlers) ListQuotes(c *gin.Context) {
	ctx := c.Request.Context()
	affiliateID := c.Param("id")

	if _, err := uuid.Parse(affiliateID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "affiliate id must be a UUID")
		return
	}

	status := domain.QuoteStatus(strings.TrimSpace(c.Query("status")))
	if status != "" && !status.Valid() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid quote status")
		return
	}

	// ETag pre-check (best effort); only for unfiltered listings so the tag
	// always covers the whole quote set.
	if db := h.dbHandle(); db != nil && status == "" {
		count, maxTS, err := repo.QuotesStats(ctx, db, affiliateID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"quotes:%s:%d:%d"`, affiliateID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)

	items, total, err := h.quoteSvc.ListPage(ctx, affiliateID, status, page, pageSize)
	if err != nil {
		switch err {
		case services.ErrAffiliateNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "affiliate not found")
		case services.ErrInvalidStatus:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid quote status")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ListQuotesResponse{
		Quotes:     items,
		Pagination: paginationMeta(page, pageSize, total),
	})
}

// ListSpamQuotes godoc
// @ID          listSpamQuotes
// @Summary     List quarantined submissions for an affiliate
// @Description Returns a paginated list of spam quotes, newest first. Spam
// @Description quotes are never promoted back into the quote pipeline.
// @Tags        Quotes
// @Produce     json
//
// @Param       id         path   string  true  "Affiliate ID (UUID)"  format(uuid)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSpamQuotesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Affiliate not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /affiliates/{id}/spam-quotes [get]
func (h *Handlers) ListSpamQuotes(c *gin.Context) {
	ctx := c.Request.Context()
	affiliateID := c.Param("id")

	if _, err := uuid.Parse(affiliateID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "affiliate id must be a UUID")
		return
	}

	page, pageSize := clampPagination(c)

	items, total, err := h.quoteSvc.ListSpamPage(ctx, affiliateID, page, pageSize)
	if err != nil {
		switch err {
		case services.ErrAffiliateNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "affiliate not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ListSpamQuotesResponse{
		SpamQuotes: items,
		Pagination: paginationMeta(page, pageSize, total),
	})
}

// ReviewQuote godoc
// @ID          reviewQuote
// @Summary     Review a quote
// @Description Sets the quote's status and, optionally, its amount. The
// @Description commission/base-price snapshot from intake time is never
// @Description recomputed.
// @Tags        Quotes
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                      true  "Quote ID (UUID)"  format(uuid)
// @Param       body  body  handlers.ReviewQuoteRequest true  "Review decision"
//
// @Success     200  {object} handlers.QuoteResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Quote not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /quotes/{id}/status [put]
func (h *Handlers) ReviewQuote(c *gin.Context) {
	ctx := c.Request.Context()
	quoteID := c.Param("id")

	if _, err := uuid.Parse(quoteID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "quote id must be a UUID")
		return
	}

	var req ReviewQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	q, err := h.quoteSvc.Review(ctx, quoteID, domain.QuoteStatus(strings.TrimSpace(req.Status)), req.Amount)
	if err != nil {
		switch err {
		case services.ErrQuoteNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "quote not found")
		case services.ErrInvalidStatus:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid quote status")
		case services.ErrInvalidAmount:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeStoreError, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, QuoteResponse{Quote: q})
}
