package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/pkg/contracts/events"
)

// Reader é o subconjunto do kafka.Reader usado pelo loop
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Invalidator remove um evento do cache do bet-service
type Invalidator interface {
	Invalidate(ctx context.Context, eventID string) error
}

// Processor consome event_changes e invalida o cache de eventos terminais.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader Reader
	Cache  Invalidator

	OnConsumed    func()       // métricas (counter++)
	OnInvalidated func()       // métricas
	OnError       func(string) // métricas por fase
}

// Run inicia o loop principal de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.onError("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		if err := p.Handle(ctx, m.Value); err != nil {
			p.Log.Warn("event change not applied", zap.ByteString("key", m.Key), zap.Error(err))
		}
	}
}

// Handle aplica uma mensagem de mudança de evento
func (p *Processor) Handle(ctx context.Context, payload []byte) error {
	var ev events.EventChanged
	if err := json.Unmarshal(payload, &ev); err != nil {
		p.onError("decode")
		return fmt.Errorf("decode event change: %w", err)
	}
	if ev.EventID == "" {
		p.onError("decode")
		return errors.New("event change without event_id")
	}

	switch ev.Type {
	case events.ChangeUpdated, events.ChangeDeleted:
		if err := p.Cache.Invalidate(ctx, ev.EventID); err != nil {
			p.onError("cache")
			return fmt.Errorf("invalidate %s: %w", ev.EventID, err)
		}
		if p.OnInvalidated != nil {
			p.OnInvalidated()
		}
		p.Log.Debug("event cache invalidated", zap.String("event_id", ev.EventID), zap.String("type", ev.Type))
	case events.ChangeResolved:
		// resultado novo: o bet-service grava no cache na próxima leitura
	default:
		p.onError("unknown_type")
		return fmt.Errorf("unknown change type %q", ev.Type)
	}
	return nil
}

func (p *Processor) onError(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
