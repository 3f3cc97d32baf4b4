package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// CreateOrderRequest is the payload to open a new transfer order.
type CreateOrderRequest struct {
	OriginCountry  string          `json:"originCountry" binding:"required,country"`
	DestCountry    string          `json:"destCountry" binding:"required,country"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Beneficiary    string          `json:"beneficiary" binding:"required"`
	OriginProofRef string          `json:"originProofRef"`
}

// AdvanceOrderRequest names the target status of a manual advance.
type AdvanceOrderRequest struct {
	Target string `json:"target" binding:"required"`
}

// CancelOrderRequest carries the mandatory cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=5"`
}

// MarkPaidRequest attaches the destination payment proof.
type MarkPaidRequest struct {
	PaidProofRef string `json:"paidProofRef" binding:"required"`
}

// ExecutionPricesRequest records after-the-fact market prices for the
// advisory real-profit figure.
type ExecutionPricesRequest struct {
	BuyPrice  decimal.Decimal `json:"buyPrice" binding:"required"`
	SellPrice decimal.Decimal `json:"sellPrice" binding:"required"`
}

// OrderResponse is the public representation of an order.
type OrderResponse struct {
	OrderID       string             `json:"orderID"`
	PublicID      int64              `json:"publicID"`
	OperatorID    string             `json:"operatorID"`
	OriginCountry string             `json:"originCountry"`
	DestCountry   string             `json:"destCountry"`
	Amount        decimal.Decimal    `json:"amount"`
	ClientRate    decimal.Decimal    `json:"clientRate"`
	Payout        decimal.Decimal    `json:"payout"`
	Status        domain.OrderStatus `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// ToOrderResponse maps a domain order to its public representation.
func ToOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:       o.OrderID,
		PublicID:      o.PublicID,
		OperatorID:    o.OperatorID,
		OriginCountry: o.OriginCountry,
		DestCountry:   o.DestCountry,
		Amount:        o.AmountOrigin,
		ClientRate:    o.ClientRate,
		Payout:        o.PayoutDest,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
}
