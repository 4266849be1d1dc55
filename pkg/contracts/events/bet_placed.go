package events

type BetPlaced struct {
	BetID      string `json:"bet_id"`
	EventID    string `json:"event_id"`
	Prediction string `json:"prediction"`
	Stake      string `json:"stake"` // decimal em string, ex: "10.50"
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
