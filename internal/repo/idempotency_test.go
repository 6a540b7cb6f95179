package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pawquote/go-affiliate-backend/internal/domain"
)

func TestIdempotency_CreateAndGet(t *testing.T) {
	db := newRepoTestDB(t, &domain.Idempotency{})

	rec, err := CreateIdempotency(context.Background(), db, "u1", "a1", "k1", "q1", "filed", 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.ExpiresAt.Before(rec.CreatedAt) {
		t.Fatalf("bad record: %+v", rec)
	}

	got, err := GetIdempotency(context.Background(), db, "u1", "a1", "k1", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.RecordID != "q1" || got.Outcome != "filed" || got.Status != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestIdempotency_Get_MissOrExpired(t *testing.T) {
	db := newRepoTestDB(t, &domain.Idempotency{})

	if _, err := GetIdempotency(context.Background(), db, "u1", "a1", "nope", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("miss: expected ErrNotFound, got %v", err)
	}

	if _, err := CreateIdempotency(context.Background(), db, "u1", "a1", "k1", "q1", "filed", 201, time.Minute); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// A lookup after the TTL window must miss.
	future := time.Now().UTC().Add(2 * time.Minute)
	if _, err := GetIdempotency(context.Background(), db, "u1", "a1", "k1", future); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired: expected ErrNotFound, got %v", err)
	}
}

func TestIdempotency_Get_BlankAffiliate(t *testing.T) {
	db := newRepoTestDB(t, &domain.Idempotency{})
	if _, err := GetIdempotency(context.Background(), db, "u1", "  ", "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank affiliate, got %v", err)
	}
}

func TestIdempotency_Create_Duplicate(t *testing.T) {
	db := newRepoTestDB(t, &domain.Idempotency{})

	if _, err := CreateIdempotency(context.Background(), db, "u1", "a1", "k1", "q1", "filed", 201, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateIdempotency(context.Background(), db, "u1", "a1", "k1", "q2", "filed", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// A different key or user is a distinct tuple.
	if _, err := CreateIdempotency(context.Background(), db, "u1", "a1", "k2", "q3", "flagged", 200, time.Hour); err != nil {
		t.Fatalf("distinct key: %v", err)
	}
	if _, err := CreateIdempotency(context.Background(), db, "u2", "a1", "k1", "q4", "filed", 201, time.Hour); err != nil {
		t.Fatalf("distinct user: %v", err)
	}
}
