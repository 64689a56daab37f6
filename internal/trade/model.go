package trade

import (
	"encoding/json"
	"time"
)

// Event is one received trading alert. Typed fields are projections of Raw;
// every one of them is optional and stored as NULL when absent.
type Event struct {
	ID         int64           `json:"id" db:"id"`
	ReceivedAt time.Time       `json:"received_at" db:"received_at"`
	Strategy   *string         `json:"strategy" db:"strategy"`
	Action     *string         `json:"action" db:"action"`
	Side       *string         `json:"side" db:"side"`
	Symbol     *string         `json:"symbol" db:"symbol"`
	TimeMs     *int64          `json:"time_ms" db:"time_ms"`
	Price      *float64        `json:"price" db:"price"`
	Qty        *float64        `json:"qty" db:"qty"`
	StopLoss   *float64        `json:"sl" db:"sl"`
	TakeProfit *float64        `json:"tp" db:"tp"`
	Equity     *float64        `json:"equity" db:"equity"`
	Reason     *string         `json:"reason" db:"reason"`
	Raw        json.RawMessage `json:"raw" db:"raw"`
}
