package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderEventType classifies events published to the interaction layer.
type OrderEventType string

const (
	EventOrderCreated       OrderEventType = "ORDER_CREATED"
	EventOrderStatusChanged OrderEventType = "ORDER_STATUS_CHANGED"
	EventOrderSettled       OrderEventType = "ORDER_SETTLED"
)

// OrderEvent is the message emitted after an order mutation commits. Events
// are advisory for the surrounding interaction layer; the ledger is the
// source of truth.
type OrderEvent struct {
	EventType  OrderEventType   `json:"eventType"`
	OrderID    string           `json:"orderID"`
	PublicID   int64            `json:"publicID"`
	OperatorID string           `json:"operatorID"`
	Status     OrderStatus      `json:"status"`
	Profit     *decimal.Decimal `json:"profit,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}
