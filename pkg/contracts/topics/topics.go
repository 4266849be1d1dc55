package topics

const (
	// Eventos (publicado pelo event-service)
	EventChanges = "event_changes"

	// Apostas (publicado pelo bet-service)
	BetPlaced = "bet_placed"
)
