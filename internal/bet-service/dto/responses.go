package dto

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/event-settlement-platform/internal/bet-service/lineprovider"
	"github.com/radieske/event-settlement-platform/internal/bet-service/settlement"
)

type PlaceBetResponse struct {
	BetID string `json:"bet_id"`
}

// BetResponse é uma aposta com o status derivado no momento da leitura
type BetResponse struct {
	BetID      string          `json:"bet_id"`
	EventID    string          `json:"event_id"`
	Prediction string          `json:"prediction"`
	Stake      decimal.Decimal `json:"stake"`
	CreatedAt  int64           `json:"created_at"` // unix millis
	Status     string          `json:"status"`     // pending | won | lost | unavailable | event_missing
}

func FromSettled(s settlement.Settled) BetResponse {
	return BetResponse{
		BetID:      s.Bet.ID,
		EventID:    s.Bet.EventID,
		Prediction: s.Bet.Prediction.String(),
		Stake:      s.Bet.Stake,
		CreatedAt:  s.Bet.CreatedAt.UnixMilli(),
		Status:     string(s.Status),
	}
}

func FromSettledList(in []settlement.Settled) []BetResponse {
	out := make([]BetResponse, 0, len(in))
	for _, s := range in {
		out = append(out, FromSettled(s))
	}
	return out
}

// EventResponse é um evento aberto para apostas
type EventResponse struct {
	EventID     string          `json:"event_id"`
	Market      string          `json:"market"`
	Coefficient decimal.Decimal `json:"coefficient"`
	Deadline    int64           `json:"deadline"`
}

func FromEvents(evs []lineprovider.Event) []EventResponse {
	out := make([]EventResponse, 0, len(evs))
	for _, e := range evs {
		out = append(out, EventResponse{
			EventID:     e.ID,
			Market:      e.Market,
			Coefficient: e.Coefficient,
			Deadline:    e.Deadline.UnixMilli(),
		})
	}
	return out
}
