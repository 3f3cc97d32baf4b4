package dto

import "github.com/shopspring/decimal"

// PostAdjustmentRequest is an administrative manual ledger posting.
type PostAdjustmentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Memo   string          `json:"memo" binding:"required"`
}

// RequestWithdrawalRequest places a hold on the requester's balance.
type RequestWithdrawalRequest struct {
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	DestCurrency string          `json:"destCurrency" binding:"required,currency"`
	DestAmount   decimal.Decimal `json:"destAmount" binding:"required"`
	DestDetails  string          `json:"destDetails" binding:"required"`
}

// RejectWithdrawalRequest carries the mandatory rejection reason.
type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required,min=5"`
}

// ResolveWithdrawalRequest attaches the payout proof reference.
type ResolveWithdrawalRequest struct {
	ProofRef string `json:"proofRef" binding:"required"`
}
