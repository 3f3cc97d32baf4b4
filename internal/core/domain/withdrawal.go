package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalRequested WithdrawalStatus = "REQUESTED"
	WithdrawalResolved  WithdrawalStatus = "RESOLVED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
)

// Withdrawal is a fund-movement request. A REQUESTED withdrawal always has a
// matching WITHDRAWAL_HOLD ledger entry of exactly -Amount; a REJECTED one
// additionally has a WITHDRAWAL_HOLD_REVERSAL of exactly +Amount. Approval
// never touches the balance again: funds were removed at request time.
type Withdrawal struct {
	WithdrawalID    string           `json:"withdrawalID"`
	UserID          string           `json:"userID"`
	Amount          decimal.Decimal  `json:"amount"` // settlement currency, positive
	DestCurrency    string           `json:"destCurrency"`
	DestAmount      decimal.Decimal  `json:"destAmount"`
	DestDetails     string           `json:"destDetails"`
	Status          WithdrawalStatus `json:"status"`
	ProofRef        string           `json:"proofRef,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	RequestedAt     time.Time        `json:"requestedAt"`
	ResolvedAt      *time.Time       `json:"resolvedAt,omitempty"`
	AuditFields
}
