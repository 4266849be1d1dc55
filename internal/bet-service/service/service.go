package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/bet-service/lineprovider"
	"github.com/radieske/event-settlement-platform/internal/bet-service/repo"
	"github.com/radieske/event-settlement-platform/internal/bet-service/settlement"
	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/internal/shared/metrics"
	"github.com/radieske/event-settlement-platform/pkg/contracts/events"
	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

// Motivos de rejeição devolvidos ao cliente
const (
	ReasonEventNotFound     = "event not found"
	ReasonEventClosed       = "event closed"
	ReasonInvalidStake      = "invalid stake"
	ReasonInvalidPrediction = "invalid prediction"
)

type EventSource interface {
	Fetch(ctx context.Context, id string) (lineprovider.Event, error)
	ListActive(ctx context.Context) ([]lineprovider.Event, error)
}

type Store interface {
	Create(ctx context.Context, b repo.Bet, check repo.CommitCheck) (string, error)
	Get(ctx context.Context, id string) (repo.Bet, error)
	List(ctx context.Context, c repo.Criteria) ([]repo.Bet, error)
}

type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

type BetService struct {
	log        *zap.Logger
	store      Store
	events     EventSource
	reconciler *settlement.Reconciler
	pub        Publisher
	now        func() time.Time
}

// New monta o serviço de apostas; pub pode ser nil
func New(log *zap.Logger, store Store, src EventSource, reconciler *settlement.Reconciler, pub Publisher) *BetService {
	return &BetService{log: log, store: store, events: src, reconciler: reconciler, pub: pub, now: time.Now}
}

// WithClock troca o relógio (testes)
func (s *BetService) WithClock(now func() time.Time) *BetService {
	s.now = now
	return s
}

type PlaceBet struct {
	EventID    string
	Prediction string
	Stake      decimal.Decimal
}

// PlaceBet cria uma aposta enquanto o evento estiver aberto.
// A abertura é conferida antes da inserção e de novo no commit.
func (s *BetService) PlaceBet(ctx context.Context, in PlaceBet) (string, error) {
	id, err := s.placeBet(ctx, in)
	switch {
	case err == nil:
		metrics.RecordBetPlaced("created")
	case apperr.IsValidation(err):
		metrics.RecordBetPlaced("rejected")
	default:
		metrics.RecordBetPlaced("error")
	}
	return id, err
}

func (s *BetService) placeBet(ctx context.Context, in PlaceBet) (string, error) {
	if !validStake(in.Stake) {
		return "", apperr.Validation(ReasonInvalidStake)
	}
	pred, err := outcome.Parse(in.Prediction)
	if err != nil || !pred.Terminal() {
		return "", apperr.Validation(ReasonInvalidPrediction)
	}

	ev, err := s.events.Fetch(ctx, in.EventID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", apperr.Validation(ReasonEventNotFound)
	}
	if err != nil {
		return "", err
	}
	if !outcome.ValidFor(ev.Market, pred) {
		return "", apperr.Validation(ReasonInvalidPrediction)
	}
	if !ev.Open(s.now()) {
		return "", apperr.Validation(ReasonEventClosed)
	}

	b := repo.Bet{EventID: ev.ID, Prediction: pred, Stake: in.Stake}
	id, err := s.store.Create(ctx, b, func(now time.Time) error {
		if !now.Before(ev.Deadline) {
			return apperr.Validation(ReasonEventClosed)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("bet placed",
		zap.String("bet_id", id),
		zap.String("event_id", ev.ID),
		zap.String("prediction", pred.String()),
		zap.String("stake", in.Stake.String()),
	)
	if s.pub != nil {
		if err := s.pub.PublishBetPlaced(ctx, events.BetPlaced{
			BetID:      id,
			EventID:    ev.ID,
			Prediction: pred.String(),
			Stake:      in.Stake.StringFixed(2),
		}); err != nil {
			s.log.Warn("publish bet_placed failed", zap.String("bet_id", id), zap.Error(err))
		}
	}
	return id, nil
}

// ListBets devolve as apostas com estado por item; nunca falha por causa do event-service
func (s *BetService) ListBets(ctx context.Context, c repo.Criteria) ([]settlement.Settled, error) {
	bets, err := s.store.List(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.reconciler.Annotate(ctx, bets), nil
}

// GetBet devolve uma aposta com status; ErrUnavailable e ErrEventMissing sobem inteiros
func (s *BetService) GetBet(ctx context.Context, id string) (settlement.Settled, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return settlement.Settled{}, err
	}
	st, err := s.reconciler.StatusOf(ctx, b)
	if err != nil {
		if errors.Is(err, settlement.ErrEventMissing) {
			s.log.Error("bet references missing event", zap.String("bet_id", b.ID), zap.String("event_id", b.EventID))
		}
		return settlement.Settled{}, err
	}
	return settlement.Settled{Bet: b, Status: st}, nil
}

// ListAvailableEvents: eventos em que ainda se pode apostar
func (s *BetService) ListAvailableEvents(ctx context.Context) ([]lineprovider.Event, error) {
	evs, err := s.events.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]lineprovider.Event, 0, len(evs))
	for _, e := range evs {
		if e.Open(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

// stake positivo com no máximo duas casas decimais
func validStake(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(2))
}
