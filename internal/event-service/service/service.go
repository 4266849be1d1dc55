// Package service concentra as regras de consulta e manutenção de eventos do event-service.
// Toda leitura de um evento vencido e sem resultado passa pelo resolver antes de sair daqui.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/event-service/model"
	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

type Store interface {
	Create(ctx context.Context, e model.Event) error
	Get(ctx context.Context, id string) (model.Event, error)
	ListActive(ctx context.Context, now time.Time) ([]model.Event, error)
	ListPast(ctx context.Context, now time.Time) ([]model.Event, error)
	ListExpiredUnresolved(ctx context.Context, now time.Time, limit int) ([]model.Event, error)
	Update(ctx context.Context, id string, patch model.Patch) (model.Event, error)
	Delete(ctx context.Context, id string) error
}

type Resolver interface {
	Resolve(ctx context.Context, ev model.Event) (model.Event, error)
}

// ChangePublisher avisa consumidores externos (cache do bet-service) sobre edições
type ChangePublisher interface {
	PublishUpdated(ctx context.Context, e model.Event) error
	PublishDeleted(ctx context.Context, id string) error
}

type EventService struct {
	log      *zap.Logger
	store    Store
	resolver Resolver
	pub      ChangePublisher
	now      func() time.Time
}

// New monta o serviço; pub pode ser nil
func New(log *zap.Logger, store Store, resolver Resolver, pub ChangePublisher) *EventService {
	return &EventService{log: log, store: store, resolver: resolver, pub: pub, now: time.Now}
}

// WithClock troca o relógio (testes)
func (s *EventService) WithClock(now func() time.Time) *EventService {
	s.now = now
	return s
}

// NewEvent são os dados aceitos na criação
type NewEvent struct {
	ID          string
	Market      string
	Coefficient decimal.Decimal
	Deadline    time.Time
}

// GetEvent devolve o evento, resolvendo-o antes se o prazo já venceu
func (s *EventService) GetEvent(ctx context.Context, id string) (model.Event, error) {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if ev.NeedsResolution(s.now()) {
		return s.resolver.Resolve(ctx, ev)
	}
	return ev, nil
}

// ListActive: eventos ainda abertos para apostas
func (s *EventService) ListActive(ctx context.Context) ([]model.Event, error) {
	return s.store.ListActive(ctx, s.now())
}

// ListPast: eventos vencidos, todos com resultado terminal
func (s *EventService) ListPast(ctx context.Context) ([]model.Event, error) {
	evs, err := s.store.ListPast(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i, ev := range evs {
		if ev.Outcome.Terminal() {
			continue
		}
		resolved, err := s.resolver.Resolve(ctx, ev)
		if err != nil {
			return nil, err
		}
		evs[i] = resolved
	}
	return evs, nil
}

// ResolveExpired resolve um lote de eventos vencidos e devolve quantos foram processados
func (s *EventService) ResolveExpired(ctx context.Context, limit int) (int, error) {
	evs, err := s.store.ListExpiredUnresolved(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, ev := range evs {
		if _, err := s.resolver.Resolve(ctx, ev); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// CreateEvent registra um evento novo, sempre sem resultado
func (s *EventService) CreateEvent(ctx context.Context, in NewEvent) (model.Event, error) {
	if _, err := outcome.ForMarket(in.Market); err != nil {
		return model.Event{}, apperr.Validation("invalid market %q", in.Market)
	}
	if err := validateCoefficient(in.Coefficient); err != nil {
		return model.Event{}, err
	}
	now := s.now()
	if !in.Deadline.After(now) {
		return model.Event{}, apperr.Validation("deadline must be in the future")
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	ev := model.Event{
		ID:          in.ID,
		Market:      in.Market,
		Coefficient: in.Coefficient,
		Deadline:    in.Deadline,
		Outcome:     outcome.Unresolved,
		CreatedAt:   now,
	}
	if err := s.store.Create(ctx, ev); err != nil {
		return model.Event{}, err
	}
	s.log.Info("event created", zap.String("event_id", ev.ID), zap.Time("deadline", ev.Deadline))
	return s.store.Get(ctx, ev.ID)
}

// UpdateEvent altera coeficiente e/ou prazo de um evento ainda sem resultado
func (s *EventService) UpdateEvent(ctx context.Context, id string, patch model.Patch) (model.Event, error) {
	if patch.Coefficient != nil {
		if err := validateCoefficient(*patch.Coefficient); err != nil {
			return model.Event{}, err
		}
	}
	if patch.Deadline != nil && !patch.Deadline.After(s.now()) {
		return model.Event{}, apperr.Validation("deadline must be in the future")
	}

	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if cur.NeedsResolution(s.now()) {
		// vencido: o resultado é responsabilidade do resolver, não da edição
		if _, err := s.resolver.Resolve(ctx, cur); err != nil {
			return model.Event{}, err
		}
		return model.Event{}, apperr.Validation("event %s already resolved", id)
	}

	ev, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return model.Event{}, err
	}
	s.log.Info("event updated", zap.String("event_id", id))
	if s.pub != nil {
		if err := s.pub.PublishUpdated(ctx, ev); err != nil {
			s.log.Warn("publish event_updated failed", zap.String("event_id", id), zap.Error(err))
		}
	}
	return ev, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("event deleted", zap.String("event_id", id))
	if s.pub != nil {
		if err := s.pub.PublishDeleted(ctx, id); err != nil {
			s.log.Warn("publish event_deleted failed", zap.String("event_id", id), zap.Error(err))
		}
	}
	return nil
}

// coeficiente positivo com no máximo duas casas decimais
func validateCoefficient(c decimal.Decimal) error {
	if !c.IsPositive() {
		return apperr.Validation("coefficient must be positive")
	}
	if !c.Equal(c.Truncate(2)) {
		return apperr.Validation("coefficient %s has more than two decimal places", c)
	}
	return nil
}
