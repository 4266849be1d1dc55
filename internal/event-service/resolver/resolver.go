package resolver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/event-service/model"
	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/internal/shared/metrics"
	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

// ErrDeadlineNotReached: tentativa de resolver antes do prazo; nada é gravado
var ErrDeadlineNotReached = errors.New("deadline not reached")

// Store é o subconjunto do repositório de eventos usado na resolução
type Store interface {
	Get(ctx context.Context, id string) (model.Event, error)
	SetOutcomeIfUnresolved(ctx context.Context, id string, o outcome.Outcome, at time.Time) (bool, error)
}

// Picker escolhe um resultado entre os válidos do mercado
type Picker interface {
	Pick(valid []outcome.Outcome) outcome.Outcome
}

// RandomPicker sorteia de forma uniforme
type RandomPicker struct{}

func (RandomPicker) Pick(valid []outcome.Outcome) outcome.Outcome {
	return valid[rand.Intn(len(valid))]
}

// FixedPicker sempre devolve o mesmo resultado (testes e ambientes de demo)
type FixedPicker outcome.Outcome

func (f FixedPicker) Pick([]outcome.Outcome) outcome.Outcome { return outcome.Outcome(f) }

// Publisher recebe a notificação de um evento recém-resolvido
type Publisher interface {
	PublishResolved(ctx context.Context, e model.Event) error
}

type Resolver struct {
	log    *zap.Logger
	store  Store
	picker Picker
	pub    Publisher
	now    func() time.Time
}

// New monta o resolver; pub pode ser nil
func New(log *zap.Logger, store Store, picker Picker, pub Publisher) *Resolver {
	if picker == nil {
		picker = RandomPicker{}
	}
	return &Resolver{log: log, store: store, picker: picker, pub: pub, now: time.Now}
}

// WithClock troca o relógio usado para comparar com o prazo
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve garante que um evento vencido tenha resultado terminal e devolve o que foi persistido.
// Chamadas concorrentes para o mesmo evento concordam no mesmo resultado: só um UPDATE
// condicional tem efeito e os demais releem o valor gravado.
func (r *Resolver) Resolve(ctx context.Context, ev model.Event) (model.Event, error) {
	if ev.Outcome.Terminal() {
		metrics.RecordResolution("already_resolved")
		return ev, nil
	}

	now := r.now()
	if !ev.Expired(now) {
		return ev, fmt.Errorf("event %s: %w", ev.ID, ErrDeadlineNotReached)
	}

	valid, err := outcome.ForMarket(ev.Market)
	if err != nil {
		return ev, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	picked := r.picker.Pick(valid)

	won, err := r.store.SetOutcomeIfUnresolved(ctx, ev.ID, picked, now)
	if err != nil {
		return ev, fmt.Errorf("resolve event %s: %w", ev.ID, err)
	}
	if !won {
		err = apperr.ErrConflictIgnored
	}

	persisted, gerr := r.store.Get(ctx, ev.ID)
	if gerr != nil {
		return ev, gerr
	}

	if errors.Is(err, apperr.ErrConflictIgnored) {
		metrics.RecordResolution("conflict_ignored")
		r.log.Debug("resolution lost to concurrent caller",
			zap.String("event_id", ev.ID),
			zap.String("outcome", persisted.Outcome.String()),
		)
		return persisted, nil
	}

	metrics.RecordResolution("assigned")
	r.log.Info("event resolved",
		zap.String("event_id", ev.ID),
		zap.String("outcome", persisted.Outcome.String()),
	)
	if r.pub != nil {
		if perr := r.pub.PublishResolved(ctx, persisted); perr != nil {
			r.log.Warn("publish event_resolved failed", zap.String("event_id", ev.ID), zap.Error(perr))
		}
	}
	return persisted, nil
}
