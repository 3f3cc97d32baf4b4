package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a transfer order.
type OrderStatus string

const (
	StatusCreated         OrderStatus = "CREATED"
	StatusOriginVerifying OrderStatus = "ORIGIN_VERIFYING"
	StatusOriginConfirmed OrderStatus = "ORIGIN_CONFIRMED"
	StatusInProgress      OrderStatus = "IN_PROGRESS"
	StatusPaid            OrderStatus = "PAID"
	StatusCancelled       OrderStatus = "CANCELLED"
)

// orderTransitions is the only source of truth for legal status edges.
// Cancellation edges are listed explicitly so terminal states stay empty.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusCreated:         {StatusOriginVerifying, StatusCancelled},
	StatusOriginVerifying: {StatusOriginConfirmed, StatusCancelled},
	StatusOriginConfirmed: {StatusInProgress, StatusCancelled},
	StatusInProgress:      {StatusPaid, StatusCancelled},
	StatusPaid:            {},
	StatusCancelled:       {},
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether the edge s -> target is in the transition table.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// AllowedPredecessors returns every status from which target is reachable in
// one step. Repositories use this set as the guard predicate of conditional
// status updates.
func AllowedPredecessors(target OrderStatus) []OrderStatus {
	var preds []OrderStatus
	for from, nexts := range orderTransitions {
		for _, next := range nexts {
			if next == target {
				preds = append(preds, from)
			}
		}
	}
	return preds
}

// Order is the mutable aggregate representing one transfer. The rate fields
// are a snapshot taken at creation time and are never recomputed from a later
// rate version; all later profit math replays the snapshotted route rate.
type Order struct {
	OrderID       string `json:"orderID"`
	PublicID      int64  `json:"publicID"` // sequential, from a dedicated counter
	OperatorID    string `json:"operatorID"`
	OriginCountry string `json:"originCountry"`
	DestCountry   string `json:"destCountry"`

	AmountOrigin  decimal.Decimal `json:"amountOrigin"`
	RateVersionID string          `json:"rateVersionID"`
	CommissionPct decimal.Decimal `json:"commissionPct"`
	ClientRate    decimal.Decimal `json:"clientRate"`
	PayoutDest    decimal.Decimal `json:"payoutDest"`

	Beneficiary    string `json:"beneficiary"`
	OriginProofRef string `json:"originProofRef"`
	PaidProofRef   string `json:"paidProofRef,omitempty"`

	Status            OrderStatus `json:"status"`
	AwaitingPaidProof bool        `json:"awaitingPaidProof"`
	CancelReason      string      `json:"cancelReason,omitempty"`

	// Advisory figures recorded after the fact from execution prices.
	// They never drive fund movement.
	RealProfit *decimal.Decimal `json:"realProfit,omitempty"`

	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	AuditFields
}
