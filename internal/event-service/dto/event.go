package dto

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/radieske/event-settlement-platform/internal/event-service/model"
)

var validate = validator.New()

// Event é a representação pública de um evento (também consumida pelo bet-service)
type Event struct {
	EventID     string          `json:"event_id"`
	Market      string          `json:"market"`
	Coefficient decimal.Decimal `json:"coefficient"`
	Deadline    int64           `json:"deadline"` // unix millis
	Outcome     string          `json:"outcome"`
	ResolvedAt  *int64          `json:"resolved_at,omitempty"`
}

func FromModel(e model.Event) Event {
	out := Event{
		EventID:     e.ID,
		Market:      e.Market,
		Coefficient: e.Coefficient,
		Deadline:    e.Deadline.UnixMilli(),
		Outcome:     e.Outcome.String(),
	}
	if e.ResolvedAt != nil {
		ms := e.ResolvedAt.UnixMilli()
		out.ResolvedAt = &ms
	}
	return out
}

func FromModels(evs []model.Event) []Event {
	out := make([]Event, 0, len(evs))
	for _, e := range evs {
		out = append(out, FromModel(e))
	}
	return out
}

// CreateEventRequest: event_id opcional (gerado quando vazio)
type CreateEventRequest struct {
	EventID     string          `json:"event_id" validate:"omitempty,max=64"`
	Market      string          `json:"market" validate:"required,oneof=winner 1x2"`
	Coefficient decimal.Decimal `json:"coefficient"`
	Deadline    int64           `json:"deadline" validate:"required,gt=0"`
}

func (r CreateEventRequest) Validate() error { return validate.Struct(r) }

func (r CreateEventRequest) DeadlineTime() time.Time { return time.UnixMilli(r.Deadline) }

// UpdateEventRequest: só metadados; campos ausentes ficam como estão
type UpdateEventRequest struct {
	Coefficient *decimal.Decimal `json:"coefficient,omitempty"`
	Deadline    *int64           `json:"deadline,omitempty" validate:"omitempty,gt=0"`
}

func (r UpdateEventRequest) Validate() error { return validate.Struct(r) }

func (r UpdateEventRequest) Patch() model.Patch {
	p := model.Patch{Coefficient: r.Coefficient}
	if r.Deadline != nil {
		t := time.UnixMilli(*r.Deadline)
		p.Deadline = &t
	}
	return p
}
