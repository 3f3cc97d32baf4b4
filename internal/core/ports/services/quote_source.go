package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// Quote is one market price for a fiat currency against the settlement
// currency, as returned by the external quote source.
type Quote struct {
	Price      decimal.Decimal // fiat per unit of settlement currency
	IsVerified bool            // advertiser trust flag
	MethodUsed string          // payment method the quote was obtained with
}

// QuoteSource is the external market-quote collaborator. It is unreliable:
// a fetch may fail with apperrors.ErrQuoteUnavailable, and the rate pipeline
// retries with the next payment method in the country's configured order.
type QuoteSource interface {
	// FetchPrice fetches one quote for the given fiat currency, side and
	// payment method, sized by the reference transaction amount.
	FetchPrice(ctx context.Context, currencyCode string, side domain.QuoteSide, paymentMethod string, referenceAmount decimal.Decimal) (*Quote, error)
}
