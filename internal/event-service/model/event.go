package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

// Event é o modelo persistido pelo event-service (fonte da verdade dos resultados)
type Event struct {
	ID          string
	Market      string
	Coefficient decimal.Decimal
	Deadline    time.Time
	Outcome     outcome.Outcome
	ResolvedAt  *time.Time
	CreatedAt   time.Time
}

// Expired reporta se o prazo já passou em now (deadline <= now)
func (e Event) Expired(now time.Time) bool {
	return !now.Before(e.Deadline)
}

// NeedsResolution: prazo vencido e ainda sem resultado
func (e Event) NeedsResolution(now time.Time) bool {
	return e.Expired(now) && !e.Outcome.Terminal()
}

// Patch carrega os campos de metadados editáveis; o resultado nunca é editável
type Patch struct {
	Coefficient *decimal.Decimal
	Deadline    *time.Time
}
