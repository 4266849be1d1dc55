// Package settlement deriva o status de uma aposta a partir do evento no event-service.
// Nada aqui é persistido: o status é sempre recalculado na leitura.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/event-settlement-platform/internal/bet-service/lineprovider"
	"github.com/radieske/event-settlement-platform/internal/bet-service/repo"
	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/internal/shared/metrics"
	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

type Status string

const (
	Pending Status = "pending"
	Won     Status = "won"
	Lost    Status = "lost"

	// estados por item usados apenas em listagens
	Unavailable  Status = "unavailable"
	EventMissing Status = "event_missing"
)

// ErrEventMissing: a aposta aponta para um evento que não existe mais (integridade de dados)
var ErrEventMissing = errors.New("referenced event missing")

// EventFetcher é a consulta externa ao event-service
type EventFetcher interface {
	Fetch(ctx context.Context, id string) (lineprovider.Event, error)
}

const defaultParallelism = 8

type Reconciler struct {
	log         *zap.Logger
	fetcher     EventFetcher
	parallelism int
}

// New monta o reconciliador; parallelism <= 0 usa o padrão
func New(log *zap.Logger, fetcher EventFetcher, parallelism int) *Reconciler {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	return &Reconciler{log: log, fetcher: fetcher, parallelism: parallelism}
}

// Settle é o mapeamento puro evento -> status
func Settle(b repo.Bet, ev lineprovider.Event) Status {
	if !ev.Outcome.Terminal() {
		return Pending
	}
	if ev.Outcome == b.Prediction {
		return Won
	}
	return Lost
}

// StatusOf consulta o evento e deriva o status; nunca substitui um status padrão em caso de falha
func (r *Reconciler) StatusOf(ctx context.Context, b repo.Bet) (Status, error) {
	ev, err := r.fetcher.Fetch(ctx, b.EventID)
	if err != nil {
		return "", classify(b, err)
	}
	st := Settle(b, ev)
	metrics.RecordBetStatus(string(st))
	return st, nil
}

// Settled é uma aposta com o estado derivado (incluindo falhas por item)
type Settled struct {
	Bet     repo.Bet
	Status  Status
	Outcome outcome.Outcome // resultado do evento quando conhecido
}

type lookup struct {
	ev  lineprovider.Event
	err error
}

// Annotate deriva o estado de cada aposta buscando cada evento distinto uma única vez.
// Falhas ficam no item (unavailable / event_missing) e nunca derrubam a listagem.
func (r *Reconciler) Annotate(ctx context.Context, bets []repo.Bet) []Settled {
	ids := make([]string, 0, len(bets))
	seen := make(map[string]struct{}, len(bets))
	for _, b := range bets {
		if _, ok := seen[b.EventID]; ok {
			continue
		}
		seen[b.EventID] = struct{}{}
		ids = append(ids, b.EventID)
	}

	results := make([]lookup, len(ids))
	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			ev, err := r.fetcher.Fetch(ctx, id)
			results[i] = lookup{ev: ev, err: err}
			return nil
		})
	}
	_ = g.Wait()

	byID := make(map[string]lookup, len(ids))
	for i, id := range ids {
		byID[id] = results[i]
	}

	out := make([]Settled, 0, len(bets))
	for _, b := range bets {
		lk := byID[b.EventID]
		s := Settled{Bet: b}
		switch {
		case lk.err == nil:
			s.Status = Settle(b, lk.ev)
			s.Outcome = lk.ev.Outcome
		case errors.Is(lk.err, apperr.ErrNotFound):
			s.Status = EventMissing
			r.log.Error("bet references missing event",
				zap.String("bet_id", b.ID), zap.String("event_id", b.EventID))
		default:
			s.Status = Unavailable
		}
		metrics.RecordBetStatus(string(s.Status))
		out = append(out, s)
	}
	return out
}

func classify(b repo.Bet, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("bet %s -> event %s: %w", b.ID, b.EventID, ErrEventMissing)
	}
	if errors.Is(err, apperr.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
}
