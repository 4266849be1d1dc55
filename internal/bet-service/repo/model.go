package repo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

// Bet é o modelo persistido no Postgres.
// O status (pending/won/lost) nunca é gravado: é derivado na leitura a partir do evento.
type Bet struct {
	ID         string
	EventID    string
	Prediction outcome.Outcome
	Stake      decimal.Decimal
	CreatedAt  time.Time
}

// Criteria filtra e pagina a listagem de apostas
type Criteria struct {
	EventID string // vazio = todos
	Limit   int
	Offset  int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Normalize aplica limites padrão à paginação
func (c Criteria) Normalize() Criteria {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Limit > MaxLimit {
		c.Limit = MaxLimit
	}
	if c.Offset < 0 {
		c.Offset = 0
	}
	return c
}
