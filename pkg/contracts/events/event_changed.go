package events

import "time"

// Tipos de mudança publicados no tópico "event_changes"
const (
	ChangeResolved = "event_resolved"
	ChangeUpdated  = "event_updated"
	ChangeDeleted  = "event_deleted"
)

// EventChanged é emitido pelo event-service quando um evento muda de forma relevante para caches externos.
type EventChanged struct {
	Type    string    `json:"type"`
	EventID string    `json:"event_id"`
	Outcome string    `json:"outcome,omitempty"` // apenas em event_resolved
	Ts      time.Time `json:"ts"`
}
