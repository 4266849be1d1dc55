package producer

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/event-settlement-platform/internal/event-service/model"
	skafka "github.com/radieske/event-settlement-platform/internal/shared/kafka"
	"github.com/radieske/event-settlement-platform/pkg/contracts/events"
)

// KafkaPublisher publica mudanças de eventos no tópico event_changes (chave = event_id)
type KafkaPublisher struct {
	Writer *kafka.Writer
	Topic  string
	now    func() time.Time
}

func NewKafkaPublisher(w *kafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic, now: time.Now}
}

func (p *KafkaPublisher) PublishResolved(ctx context.Context, e model.Event) error {
	return p.publish(ctx, events.EventChanged{
		Type:    events.ChangeResolved,
		EventID: e.ID,
		Outcome: e.Outcome.String(),
	})
}

func (p *KafkaPublisher) PublishUpdated(ctx context.Context, e model.Event) error {
	return p.publish(ctx, events.EventChanged{Type: events.ChangeUpdated, EventID: e.ID})
}

func (p *KafkaPublisher) PublishDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, events.EventChanged{Type: events.ChangeDeleted, EventID: id})
}

func (p *KafkaPublisher) publish(ctx context.Context, ev events.EventChanged) error {
	ev.Ts = p.now().UTC()
	return skafka.WriteJSON(ctx, p.Writer, ev.EventID, ev)
}
