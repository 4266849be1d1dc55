package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/bet-service/lineprovider"
	"github.com/radieske/event-settlement-platform/internal/bet-service/repo"
	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

type fakeFetcher struct {
	mu     sync.Mutex
	events map[string]lineprovider.Event
	errs   map[string]error
	calls  map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		events: map[string]lineprovider.Event{},
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, id string) (lineprovider.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if err, ok := f.errs[id]; ok {
		return lineprovider.Event{}, err
	}
	ev, ok := f.events[id]
	if !ok {
		return lineprovider.Event{}, apperr.ErrNotFound
	}
	return ev, nil
}

func bet(id, eventID string, p outcome.Outcome) repo.Bet {
	return repo.Bet{ID: id, EventID: eventID, Prediction: p, Stake: decimal.NewFromInt(10)}
}

func TestSettle(t *testing.T) {
	cases := []struct {
		name       string
		prediction outcome.Outcome
		result     outcome.Outcome
		want       Status
	}{
		{"unresolved is pending", outcome.First, outcome.Unresolved, Pending},
		{"matching prediction wins", outcome.First, outcome.First, Won},
		{"other outcome loses", outcome.First, outcome.Second, Lost},
		{"draw predicted and drawn", outcome.Draw, outcome.Draw, Won},
		{"draw loses a two-way bet", outcome.Second, outcome.Draw, Lost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Settle(bet("B1", "E1", tc.prediction), lineprovider.Event{ID: "E1", Outcome: tc.result})
			if got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	f := newFakeFetcher()
	f.events["E1"] = lineprovider.Event{ID: "E1", Outcome: outcome.Second}
	f.errs["E2"] = apperr.ErrUnavailable
	r := New(zap.NewNop(), f, 0)
	ctx := context.Background()

	st, err := r.StatusOf(ctx, bet("B1", "E1", outcome.Second))
	if err != nil || st != Won {
		t.Errorf("Expected won, got %s (%v)", st, err)
	}

	st, err = r.StatusOf(ctx, bet("B2", "E2", outcome.First))
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if st != "" {
		t.Errorf("No status may be substituted on failure, got %s", st)
	}

	if _, err := r.StatusOf(ctx, bet("B3", "gone", outcome.First)); !errors.Is(err, ErrEventMissing) {
		t.Errorf("Expected ErrEventMissing, got %v", err)
	}
}

func TestAnnotatePartialDegradation(t *testing.T) {
	f := newFakeFetcher()
	f.events["E1"] = lineprovider.Event{ID: "E1", Outcome: outcome.First}
	f.events["E2"] = lineprovider.Event{ID: "E2", Outcome: outcome.Unresolved}
	f.errs["E3"] = apperr.ErrUnavailable

	bets := []repo.Bet{
		bet("B1", "E1", outcome.First),
		bet("B2", "E1", outcome.Second),
		bet("B3", "E2", outcome.First),
		bet("B4", "E3", outcome.First),
		bet("B5", "gone", outcome.First),
	}
	got := New(zap.NewNop(), f, 2).Annotate(context.Background(), bets)

	want := []Status{Won, Lost, Pending, Unavailable, EventMissing}
	if len(got) != len(want) {
		t.Fatalf("Expected %d items, got %d", len(want), len(got))
	}
	for i, s := range got {
		if s.Bet.ID != bets[i].ID {
			t.Errorf("Expected order to be preserved: %s at %d, got %s", bets[i].ID, i, s.Bet.ID)
		}
		if s.Status != want[i] {
			t.Errorf("Bet %s: expected %s, got %s", s.Bet.ID, want[i], s.Status)
		}
	}
	if got[0].Outcome != outcome.First {
		t.Errorf("Expected event outcome on settled item, got %s", got[0].Outcome)
	}
	if f.calls["E1"] != 1 {
		t.Errorf("Expected each distinct event fetched once, E1 fetched %d times", f.calls["E1"])
	}
}

func TestAnnotateEmpty(t *testing.T) {
	got := New(zap.NewNop(), newFakeFetcher(), 0).Annotate(context.Background(), nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil result, got %v", got)
	}
}
