// Package domain defines the persistence models for affiliates, customers,
// quotes, and quarantined spam quotes. These types are mapped with GORM and
// form the core data layer of the affiliate referral backend.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteStatus is the closed set of review states a quote can be in.
// Untyped status strings from clients are parsed into this type and rejected
// when outside the set.
type QuoteStatus string

// Allowed quote statuses. "in review" keeps the space-separated form used by
// the review workflow.
const (
	StatusNoMarketing QuoteStatus = "no_marketing"
	StatusPending     QuoteStatus = "pending"
	StatusInReview    QuoteStatus = "in review"
	StatusApproved    QuoteStatus = "approved"
	StatusRejected    QuoteStatus = "rejected"
)

// Valid reports whether s is one of the allowed quote statuses.
func (s QuoteStatus) Valid() bool {
	switch s {
	case StatusNoMarketing, StatusPending, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// SpamReason classifies why a submission was quarantined instead of filed.
type SpamReason string

// Duplicate-detection reasons. When a submission trips both heuristics,
// duplicate_email wins.
const (
	ReasonDuplicateEmail      SpamReason = "duplicate_email"
	ReasonDuplicatePetSameZip SpamReason = "duplicate_pet_same_zip"
)

// Valid reports whether r is one of the allowed spam reasons.
func (r SpamReason) Valid() bool {
	return r == ReasonDuplicateEmail || r == ReasonDuplicatePetSameZip
}

// Affiliate represents a referral partner whose submitted quotes and sales
// earn commission.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name / Email / Phone: partner contact details.
//   - BasePrice: commission per accepted quote/sale; snapshotted onto quotes
//     at intake time, never recomputed later.
//   - QuotesCount / SalesCount: non-negative rollup counters, incremented only
//     via server-side atomic adds (see repo.IncrementQuotesCount).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Affiliate struct {
	ID          string          `json:"id"           gorm:"type:char(36);primaryKey"`
	Name        string          `json:"name"         gorm:"type:varchar(255);not null"`
	Email       string          `json:"email"        gorm:"type:varchar(255);not null;index"`
	Phone       string          `json:"phone"        gorm:"type:varchar(32)"`
	BasePrice   decimal.Decimal `json:"base_price"   gorm:"type:decimal(12,2);not null;default:0"`
	QuotesCount int64           `json:"quotes_count" gorm:"not null;default:0"`
	SalesCount  int64           `json:"sales_count"  gorm:"not null;default:0"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Affiliate.
func (Affiliate) TableName() string { return "affiliates" }

// Customer represents the contact that accompanied an accepted quote.
// At most one customer row exists per affiliate per email (unique index), and
// the (affiliate_id, zip_code) index backs the duplicate-pet lookup.
//
// Customers are created exclusively by quote intake and are never updated or
// deleted by this backend.
type Customer struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	AffiliateID string    `json:"affiliate_id" gorm:"type:char(36);not null;uniqueIndex:ux_affiliate_email,priority:1;index:idx_affiliate_zip,priority:1"`
	Email       string    `json:"email"        gorm:"type:varchar(255);not null;uniqueIndex:ux_affiliate_email,priority:2"`
	FirstName   string    `json:"first_name"   gorm:"type:varchar(128);not null"`
	LastName    string    `json:"last_name"    gorm:"type:varchar(128);not null"`
	PetName     string    `json:"pet_name"     gorm:"type:varchar(128);not null"`
	PetBreed    string    `json:"pet_breed"    gorm:"type:varchar(128);not null"`
	PetAge      int       `json:"pet_age"      gorm:"not null;check:pet_age >= 0"`
	Address     string    `json:"address"      gorm:"type:varchar(255);not null"`
	ZipCode     string    `json:"zip_code"     gorm:"type:varchar(16);not null;index:idx_affiliate_zip,priority:2"`
	Phone       string    `json:"phone"        gorm:"type:varchar(32);not null"`
	CreatedAt   time.Time `json:"created_at"`

	// Affiliate is the owning partner. Customers are cascade-deleted if the
	// affiliate is removed.
	Affiliate Affiliate `json:"-" gorm:"foreignKey:AffiliateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// Quote represents a recorded prospective sale awaiting review. Commission
// and base price are snapshots of the affiliate's base price at intake time.
//
// Fields:
//   - ID: UUID primary key, generated per submission.
//   - AffiliateID: owning affiliate (indexed together with CreatedAt).
//   - Contact/pet fields: copied verbatim from the submission.
//   - Status: QuoteStatus, defaults to pending at intake.
//   - Amount: review-adjusted value; always 0 at intake.
//   - Commission / BasePrice: affiliate base price snapshotted at intake.
//   - Notes: free-text operator notes.
type Quote struct {
	ID          string          `json:"id"           gorm:"type:char(36);primaryKey"`
	AffiliateID string          `json:"affiliate_id" gorm:"type:char(36);not null;index:idx_affiliate_quotes,priority:1"`
	Email       string          `json:"email"        gorm:"type:varchar(255);not null"`
	FirstName   string          `json:"first_name"   gorm:"type:varchar(128);not null"`
	LastName    string          `json:"last_name"    gorm:"type:varchar(128);not null"`
	PetName     string          `json:"pet_name"     gorm:"type:varchar(128);not null"`
	PetBreed    string          `json:"pet_breed"    gorm:"type:varchar(128);not null"`
	PetAge      int             `json:"pet_age"      gorm:"not null"`
	Address     string          `json:"address"      gorm:"type:varchar(255);not null"`
	ZipCode     string          `json:"zip_code"     gorm:"type:varchar(16);not null"`
	Phone       string          `json:"phone"        gorm:"type:varchar(32);not null"`
	Status      QuoteStatus     `json:"status"       gorm:"type:varchar(16);not null;default:'pending'"`
	Amount      decimal.Decimal `json:"amount"       gorm:"type:decimal(12,2);not null;default:0"`
	Commission  decimal.Decimal `json:"commission"   gorm:"type:decimal(12,2);not null;default:0"`
	BasePrice   decimal.Decimal `json:"base_price"   gorm:"type:decimal(12,2);not null;default:0"`
	Notes       string          `json:"notes"        gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"   gorm:"index:idx_affiliate_quotes,priority:2"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Affiliate is the owning partner. Quotes are cascade-deleted if the
	// affiliate is removed.
	Affiliate Affiliate `json:"-" gorm:"foreignKey:AffiliateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Quote.
func (Quote) TableName() string { return "quotes" }

// SpamQuote is a quarantined submission judged duplicate. It carries the same
// contact/pet fields as Quote plus the detection reason, and is never promoted
// back to a regular quote.
type SpamQuote struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	AffiliateID string     `json:"affiliate_id" gorm:"type:char(36);not null;index"`
	Email       string     `json:"email"        gorm:"type:varchar(255);not null"`
	FirstName   string     `json:"first_name"   gorm:"type:varchar(128);not null"`
	LastName    string     `json:"last_name"    gorm:"type:varchar(128);not null"`
	PetName     string     `json:"pet_name"     gorm:"type:varchar(128);not null"`
	PetBreed    string     `json:"pet_breed"    gorm:"type:varchar(128);not null"`
	PetAge      int        `json:"pet_age"      gorm:"not null"`
	Address     string     `json:"address"      gorm:"type:varchar(255);not null"`
	ZipCode     string     `json:"zip_code"     gorm:"type:varchar(16);not null"`
	Phone       string     `json:"phone"        gorm:"type:varchar(32);not null"`
	Reason      SpamReason `json:"reason"       gorm:"type:varchar(32);not null"`
	Notes       string     `json:"notes"        gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Affiliate is the owning partner. Spam quotes are cascade-deleted if the
	// affiliate is removed.
	Affiliate Affiliate `json:"-" gorm:"foreignKey:AffiliateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for SpamQuote.
func (SpamQuote) TableName() string { return "spam_quotes" }
