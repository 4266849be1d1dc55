package dto

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// PlaceBetRequest: stake em decimal (string ou número no JSON)
type PlaceBetRequest struct {
	EventID    string          `json:"event_id" validate:"required,max=64"`
	Prediction string          `json:"prediction" validate:"required"`
	Stake      decimal.Decimal `json:"stake"`
}

func (r PlaceBetRequest) Validate() error { return validate.Struct(r) }

// ListBetsQuery são os filtros aceitos em GET /bets
type ListBetsQuery struct {
	EventID string `validate:"omitempty,max=64"`
	Limit   int    `validate:"gte=0,lte=500"`
	Offset  int    `validate:"gte=0"`
}

func (q ListBetsQuery) Validate() error { return validate.Struct(q) }
