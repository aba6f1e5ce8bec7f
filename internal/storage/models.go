package storage

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SignalSample is the persisted flat record of one fused signal for one
// (symbol, cycle) pair.
type SignalSample struct {
	Symbol     string
	CycleTS    time.Time
	Overall    string
	Confidence decimal.Decimal
	Risk       string
	Price      *decimal.Decimal
	Change24h  *float64
	FearGreed  *int
	Payload    json.RawMessage
	Status     string
	Error      *string
	CreatedAt  time.Time
}

// AlertRecord captures an emitted signal alert for de-duplication/auditing.
type AlertRecord struct {
	ID         int64
	Symbol     string
	CycleTS    time.Time
	Signal     string
	Confidence decimal.Decimal
	Risk       string
	Channels   []string
	CreatedAt  time.Time
}
