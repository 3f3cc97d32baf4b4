package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType classifies an append-only ledger fact.
type LedgerEntryType string

const (
	EntryOrderProfit            LedgerEntryType = "ORDER_PROFIT"
	EntrySponsorCommission      LedgerEntryType = "SPONSOR_COMMISSION"
	EntryWithdrawalHold         LedgerEntryType = "WITHDRAWAL_HOLD"
	EntryWithdrawalHoldReversal LedgerEntryType = "WITHDRAWAL_HOLD_REVERSAL"
	EntryAdjustment             LedgerEntryType = "ADJUSTMENT"
)

// LedgerEntry is an immutable, signed financial fact in settlement currency.
// Entries are never updated or deleted. For idempotent credit types the tuple
// (user, type, ref order) acts as the idempotency key.
type LedgerEntry struct {
	EntryID    string          `json:"entryID"`
	UserID     string          `json:"userID"`
	Amount     decimal.Decimal `json:"amount"` // signed
	EntryType  LedgerEntryType `json:"entryType"`
	RefOrderID *string         `json:"refOrderID,omitempty"`
	Memo       string          `json:"memo,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	CreatedBy  string          `json:"createdBy"`
}

// Wallet is the materialized running balance of one user's ledger. It is a
// cached projection: every mutation happens in the same atomic unit as the
// ledger insert that justifies it, and the balance never goes negative.
type Wallet struct {
	UserID  string          `json:"userID"`
	Balance decimal.Decimal `json:"balance"`
	AuditFields
}
