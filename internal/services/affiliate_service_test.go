package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
)

// ----- Fake repo -----

type fakeAffiliateRepo struct {
	// capture args
	createName  string
	createEmail string
	createPhone string
	createPrice decimal.Decimal
	createErr   error

	getID  string
	getAff *domain.Affiliate
	getErr error

	countTotal int64
	countErr   error

	pageOffset int
	pageLimit  int
	pageItems  []domain.Affiliate
	pageErr    error

	updateID    string
	updateName  string
	updatePrice decimal.Decimal
	updateErr   error

	deleteID  string
	deleteErr error

	incrID    string
	incrDelta int64
	incrErr   error
}

func (r *fakeAffiliateRepo) CreateAffiliate(ctx context.Context, db *gorm.DB, name, email, phone string, basePrice decimal.Decimal) (*domain.Affiliate, error) {
	r.createName, r.createEmail, r.createPhone, r.createPrice = name, email, phone, basePrice
	if r.createErr != nil {
		return nil, r.createErr
	}
	return &domain.Affiliate{ID: "a1", Name: name, Email: email, Phone: phone, BasePrice: basePrice}, nil
}

func (r *fakeAffiliateRepo) GetAffiliate(ctx context.Context, db *gorm.DB, id string) (*domain.Affiliate, error) {
	r.getID = id
	return r.getAff, r.getErr
}

func (r *fakeAffiliateRepo) CountAffiliates(ctx context.Context, db *gorm.DB) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeAffiliateRepo) ListAffiliatesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Affiliate, error) {
	r.pageOffset, r.pageLimit = offset, limit
	return r.pageItems, r.pageErr
}

func (r *fakeAffiliateRepo) UpdateAffiliate(ctx context.Context, db *gorm.DB, id, name, email, phone string, basePrice decimal.Decimal) error {
	r.updateID, r.updateName, r.updatePrice = id, name, basePrice
	return r.updateErr
}

func (r *fakeAffiliateRepo) DeleteAffiliate(ctx context.Context, db *gorm.DB, id string) error {
	r.deleteID = id
	return r.deleteErr
}

func (r *fakeAffiliateRepo) IncrementSalesCount(ctx context.Context, db *gorm.DB, id string, delta int64) error {
	r.incrID, r.incrDelta = id, delta
	return r.incrErr
}

// ----- Tests -----

func TestAffiliateService_Create_NormalizesAndTrims(t *testing.T) {
	fr := &fakeAffiliateRepo{}
	s := NewAffiliateService(nil, fr)

	a, err := s.Create(context.Background(), "  Happy   Paws  ", " owner@hp.test ", " 555-0100 ", decimal.NewFromInt(25))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Name != "Happy Paws" {
		t.Fatalf("name = %q, want collapsed whitespace", a.Name)
	}
	if fr.createEmail != "owner@hp.test" || fr.createPhone != "555-0100" {
		t.Fatalf("email/phone not trimmed: %q %q", fr.createEmail, fr.createPhone)
	}
}

func TestAffiliateService_Create_Rejections(t *testing.T) {
	s := NewAffiliateService(nil, &fakeAffiliateRepo{})

	if _, err := s.Create(context.Background(), "   ", "e", "p", decimal.NewFromInt(1)); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := s.Create(context.Background(), "A", "e", "p", decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidBasePrice) {
		t.Fatalf("expected ErrInvalidBasePrice, got %v", err)
	}
}

func TestAffiliateService_Get_NotFoundMapping(t *testing.T) {
	fr := &fakeAffiliateRepo{getErr: gorm.ErrRecordNotFound}
	s := NewAffiliateService(nil, fr)

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected ErrAffiliateNotFound, got %v", err)
	}
	if fr.getID != "missing" {
		t.Fatalf("repo got id %q", fr.getID)
	}
}

func TestAffiliateService_ListPage_DefaultsAndOffset(t *testing.T) {
	fr := &fakeAffiliateRepo{
		countTotal: 45,
		pageItems:  []domain.Affiliate{{ID: "a1"}, {ID: "a2"}},
	}
	s := NewAffiliateService(nil, fr)

	items, total, err := s.ListPage(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 45 || len(items) != 2 {
		t.Fatalf("total=%d items=%d", total, len(items))
	}
	if fr.pageOffset != 20 || fr.pageLimit != 10 {
		t.Fatalf("offset/limit = %d/%d, want 20/10", fr.pageOffset, fr.pageLimit)
	}

	// Invalid paging falls back to page 1, size 20.
	if _, _, err := s.ListPage(context.Background(), 0, -5); err != nil {
		t.Fatalf("ListPage defaults: %v", err)
	}
	if fr.pageOffset != 0 || fr.pageLimit != 20 {
		t.Fatalf("default offset/limit = %d/%d, want 0/20", fr.pageOffset, fr.pageLimit)
	}
}

func TestAffiliateService_ListPage_EmptyShortCircuit(t *testing.T) {
	fr := &fakeAffiliateRepo{countTotal: 0, pageErr: errors.New("must not be called")}
	s := NewAffiliateService(nil, fr)

	items, total, err := s.ListPage(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty page, got total=%d items=%d", total, len(items))
	}
}

func TestAffiliateService_Update_Validation(t *testing.T) {
	fr := &fakeAffiliateRepo{}
	s := NewAffiliateService(nil, fr)

	if err := s.Update(context.Background(), "a1", " ", "e", "p", decimal.NewFromInt(1)); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := s.Update(context.Background(), "a1", "N", "e", "p", decimal.NewFromInt(-2)); !errors.Is(err, ErrInvalidBasePrice) {
		t.Fatalf("expected ErrInvalidBasePrice, got %v", err)
	}

	fr.updateErr = gorm.ErrRecordNotFound
	if err := s.Update(context.Background(), "nope", "N", "e", "p", decimal.NewFromInt(2)); !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected ErrAffiliateNotFound, got %v", err)
	}
}

func TestAffiliateService_Delete(t *testing.T) {
	fr := &fakeAffiliateRepo{deleteErr: gorm.ErrRecordNotFound}
	s := NewAffiliateService(nil, fr)

	if err := s.Delete(context.Background(), "nope"); !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected ErrAffiliateNotFound, got %v", err)
	}

	fr.deleteErr = nil
	if err := s.Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if fr.deleteID != "a1" {
		t.Fatalf("repo got id %q", fr.deleteID)
	}
}

func TestAffiliateService_RecordSale(t *testing.T) {
	fr := &fakeAffiliateRepo{
		getAff: &domain.Affiliate{ID: "a1", SalesCount: 4},
	}
	s := NewAffiliateService(nil, fr)

	a, err := s.RecordSale(context.Background(), "a1")
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if fr.incrID != "a1" || fr.incrDelta != 1 {
		t.Fatalf("increment args %q/%d, want a1/1", fr.incrID, fr.incrDelta)
	}
	if a.SalesCount != 4 {
		t.Fatalf("expected refreshed record returned")
	}

	fr.incrErr = gorm.ErrRecordNotFound
	if _, err := s.RecordSale(context.Background(), "nope"); !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected ErrAffiliateNotFound, got %v", err)
	}
}

func TestNormalizeName(t *testing.T) {
	if got := normalizeName("  a \t b\n c "); got != "a b c" {
		t.Fatalf("normalizeName = %q", got)
	}
}
