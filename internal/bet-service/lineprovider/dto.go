package lineprovider

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

// Event é a visão do bet-service sobre um evento do event-service
type Event struct {
	ID          string
	Market      string
	Coefficient decimal.Decimal
	Deadline    time.Time
	Outcome     outcome.Outcome
}

// Open reporta se ainda se aceita aposta em now (now < deadline)
func (e Event) Open(now time.Time) bool {
	return e.Outcome == outcome.Unresolved && now.Before(e.Deadline)
}

// eventDTO é o formato JSON servido em /v1/events (deadline em unix millis)
type eventDTO struct {
	EventID     string          `json:"event_id"`
	Market      string          `json:"market"`
	Coefficient decimal.Decimal `json:"coefficient"`
	Deadline    int64           `json:"deadline"`
	Outcome     string          `json:"outcome"`
}

func (d eventDTO) toEvent() (Event, error) {
	if d.EventID == "" {
		return Event{}, errors.New("event without id")
	}
	o, err := outcome.Parse(d.Outcome)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:          d.EventID,
		Market:      d.Market,
		Coefficient: d.Coefficient,
		Deadline:    time.UnixMilli(d.Deadline).UTC(),
		Outcome:     o,
	}, nil
}

func fromEvent(e Event) eventDTO {
	return eventDTO{
		EventID:     e.ID,
		Market:      e.Market,
		Coefficient: e.Coefficient,
		Deadline:    e.Deadline.UnixMilli(),
		Outcome:     e.Outcome.String(),
	}
}
