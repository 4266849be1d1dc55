package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

func setupTestRepo(t *testing.T) *Postgres {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	r := NewPostgres(db, time.Second)
	if err := r.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return r
}

func newBet(eventID string) Bet {
	return Bet{EventID: eventID, Prediction: outcome.First, Stake: decimal.RequireFromString("10.50")}
}

func TestCreateAndGet(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	id, err := r.Create(ctx, newBet("E1"), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected generated bet id")
	}

	b, err := r.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if b.EventID != "E1" || b.Prediction != outcome.First {
		t.Errorf("Unexpected bet: %+v", b)
	}
	if !b.Stake.Equal(decimal.RequireFromString("10.5")) {
		t.Errorf("Expected stake 10.50, got %s", b.Stake)
	}
}

func TestCreateRollsBackWhenCheckFails(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	closed := apperr.Validation("event closed")

	var checkedAt time.Time
	_, err := r.Create(ctx, newBet("E1"), func(now time.Time) error {
		checkedAt = now
		return closed
	})
	if !errors.Is(err, closed) {
		t.Fatalf("Expected check error to be returned, got %v", err)
	}
	if checkedAt.IsZero() {
		t.Error("Expected check to receive the commit time")
	}

	bets, err := r.List(ctx, Criteria{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bets) != 0 {
		t.Errorf("Expected rollback to leave no bets, got %d", len(bets))
	}
}

func TestGetNotFound(t *testing.T) {
	r := setupTestRepo(t)
	if _, err := r.Get(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	base := time.Now()
	for i, ev := range []string{"E1", "E2", "E1", "E1"} {
		at := base.Add(time.Duration(i) * time.Second)
		r.WithClock(func() time.Time { return at })
		if _, err := r.Create(ctx, newBet(ev), nil); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := r.List(ctx, Criteria{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Expected 4 bets, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Errorf("Expected newest first, got %v before %v", all[i-1].CreatedAt, all[i].CreatedAt)
		}
	}

	e1, _ := r.List(ctx, Criteria{EventID: "E1"})
	if len(e1) != 3 {
		t.Errorf("Expected 3 bets for E1, got %d", len(e1))
	}

	page, _ := r.List(ctx, Criteria{EventID: "E1", Limit: 2, Offset: 2})
	if len(page) != 1 {
		t.Errorf("Expected 1 bet on the second page, got %d", len(page))
	}

	none, err := r.List(ctx, Criteria{EventID: "E9"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", none)
	}
}

func TestCriteriaNormalize(t *testing.T) {
	c := Criteria{Limit: 10000, Offset: -3}.Normalize()
	if c.Limit != MaxLimit || c.Offset != 0 {
		t.Errorf("Unexpected normalized criteria: %+v", c)
	}
	if d := (Criteria{}).Normalize(); d.Limit != DefaultLimit {
		t.Errorf("Expected default limit %d, got %d", DefaultLimit, d.Limit)
	}
}
