package storage

import (
	"time"
)

// ScoreRow is one persisted daily risk score for a country dataset.
type ScoreRow struct {
	Country   string
	ScoreDate time.Time
	Score     float64
	CreatedAt time.Time
}

// EventRow captures a detected risk-escalation event for auditing.
type EventRow struct {
	ID        int64
	Country   string
	EventDate time.Time
	Score     float64
	Delta     float64
	Dominant  string
	CreatedAt time.Time
}
