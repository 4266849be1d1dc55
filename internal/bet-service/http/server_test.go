package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/bet-service/dto"
	"github.com/radieske/event-settlement-platform/internal/bet-service/lineprovider"
	"github.com/radieske/event-settlement-platform/internal/bet-service/repo"
	"github.com/radieske/event-settlement-platform/internal/bet-service/service"
	"github.com/radieske/event-settlement-platform/internal/bet-service/settlement"
	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

type fakeBets struct {
	placeErr  error
	placed    []service.PlaceBet
	listed    []repo.Criteria
	bets      []settlement.Settled
	getErr    error
	eventsErr error
}

func (f *fakeBets) PlaceBet(_ context.Context, in service.PlaceBet) (string, error) {
	f.placed = append(f.placed, in)
	if f.placeErr != nil {
		return "", f.placeErr
	}
	return "bet-1", nil
}

func (f *fakeBets) ListBets(_ context.Context, c repo.Criteria) ([]settlement.Settled, error) {
	f.listed = append(f.listed, c)
	return f.bets, nil
}

func (f *fakeBets) GetBet(_ context.Context, id string) (settlement.Settled, error) {
	if f.getErr != nil {
		return settlement.Settled{}, f.getErr
	}
	for _, b := range f.bets {
		if b.Bet.ID == id {
			return b, nil
		}
	}
	return settlement.Settled{}, apperr.ErrNotFound
}

func (f *fakeBets) ListAvailableEvents(context.Context) ([]lineprovider.Event, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return []lineprovider.Event{{
		ID:          "E1",
		Market:      outcome.MarketWinner,
		Coefficient: decimal.RequireFromString("1.85"),
		Deadline:    time.UnixMilli(1700000000000),
		Outcome:     outcome.Unresolved,
	}}, nil
}

func serve(t *testing.T, bets Bets, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	NewServer(zap.NewNop(), bets).Router().ServeHTTP(rec, req)
	return rec
}

func TestPlaceBetCreated(t *testing.T) {
	f := &fakeBets{}
	rec := serve(t, f, http.MethodPost, "/bets", `{"event_id":"E1","prediction":"first","stake":"10.50"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.PlaceBetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BetID != "bet-1" {
		t.Errorf("Expected bet-1, got %s", resp.BetID)
	}
	if len(f.placed) != 1 || !f.placed[0].Stake.Equal(decimal.RequireFromString("10.5")) {
		t.Errorf("Unexpected placed bet: %+v", f.placed)
	}
}

func TestPlaceBetErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		code int
		msg  string
	}{
		{"malformed json", `{`, nil, http.StatusBadRequest, "bad json"},
		{"missing event", `{"prediction":"first","stake":"1"}`, nil, http.StatusUnprocessableEntity, ""},
		{"event not found", `{"event_id":"E1","prediction":"first","stake":"1"}`, apperr.Validation(service.ReasonEventNotFound), http.StatusUnprocessableEntity, "event not found"},
		{"event closed", `{"event_id":"E1","prediction":"first","stake":"1"}`, apperr.Validation(service.ReasonEventClosed), http.StatusUnprocessableEntity, "event closed"},
		{"unavailable", `{"event_id":"E1","prediction":"first","stake":"1"}`, fmt.Errorf("fetch: %w", apperr.ErrUnavailable), http.StatusServiceUnavailable, "event service unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, &fakeBets{placeErr: tc.err}, http.MethodPost, "/bets", tc.body)
			if rec.Code != tc.code {
				t.Fatalf("Expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if tc.msg == "" {
				return
			}
			var body map[string]string
			_ = json.NewDecoder(rec.Body).Decode(&body)
			if body["error"] != tc.msg {
				t.Errorf("Expected error %q, got %q", tc.msg, body["error"])
			}
		})
	}
}

func TestListBetsPassesCriteria(t *testing.T) {
	f := &fakeBets{bets: []settlement.Settled{
		{Bet: repo.Bet{ID: "B1", EventID: "E1", Prediction: outcome.First, Stake: decimal.NewFromInt(5)}, Status: settlement.Won},
		{Bet: repo.Bet{ID: "B2", EventID: "E2", Prediction: outcome.Second, Stake: decimal.NewFromInt(5)}, Status: settlement.Unavailable},
	}}
	rec := serve(t, f, http.MethodGet, "/bets?event_id=E1&limit=10&offset=20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if c := f.listed[0]; c.EventID != "E1" || c.Limit != 10 || c.Offset != 20 {
		t.Errorf("Unexpected criteria: %+v", c)
	}

	var list []dto.BetResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].Status != "won" || list[1].Status != "unavailable" {
		t.Errorf("Unexpected listing: %+v", list)
	}
}

func TestListBetsRejectsBadQuery(t *testing.T) {
	for _, q := range []string{"limit=abc", "offset=-1", "limit=100000"} {
		rec := serve(t, &fakeBets{}, http.MethodGet, "/bets?"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestGetBetStatusCodes(t *testing.T) {
	ok := &fakeBets{bets: []settlement.Settled{
		{Bet: repo.Bet{ID: "B1", EventID: "E1", Prediction: outcome.First, Stake: decimal.NewFromInt(1)}, Status: settlement.Pending},
	}}
	if rec := serve(t, ok, http.MethodGet, "/bets/B1", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if rec := serve(t, ok, http.MethodGet, "/bets/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	unavailable := &fakeBets{getErr: apperr.ErrUnavailable}
	if rec := serve(t, unavailable, http.MethodGet, "/bets/B1", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}

	missing := &fakeBets{getErr: fmt.Errorf("bet B1: %w", settlement.ErrEventMissing)}
	if rec := serve(t, missing, http.MethodGet, "/bets/B1", ""); rec.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", rec.Code)
	}
}

func TestListEvents(t *testing.T) {
	rec := serve(t, &fakeBets{}, http.MethodGet, "/events", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var evs []dto.EventResponse
	if err := json.NewDecoder(rec.Body).Decode(&evs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(evs) != 1 || evs[0].EventID != "E1" || evs[0].Deadline != 1700000000000 {
		t.Errorf("Unexpected events: %+v", evs)
	}

	rec = serve(t, &fakeBets{eventsErr: apperr.ErrUnavailable}, http.MethodGet, "/events", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}
