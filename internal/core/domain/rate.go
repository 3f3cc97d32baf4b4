package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateVersionKind identifies what triggered a rate generation.
type RateVersionKind string

const (
	RateKindScheduled RateVersionKind = "SCHEDULED"
	RateKindManual    RateVersionKind = "MANUAL"
	RateKindIntraday  RateVersionKind = "INTRADAY"
)

// RateVersion is an immutable, timestamped snapshot of market conditions.
// At most one version is active at any instant; activation is atomic with
// deactivation of the prior active version. Versions are never deleted.
type RateVersion struct {
	VersionID     string          `json:"versionID"`
	Kind          RateVersionKind `json:"kind"`
	Reason        string          `json:"reason"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
	EffectiveFrom time.Time       `json:"effectiveFrom"`
	EffectiveTo   *time.Time      `json:"effectiveTo,omitempty"`
	IsActive      bool            `json:"isActive"`
}

// CountryPrice holds the buy/sell prices quoted for one country within a
// rate version, in fiat units per unit of settlement currency. Written once,
// immutable thereafter.
type CountryPrice struct {
	VersionID       string          `json:"versionID"`
	Country         string          `json:"country"`
	CurrencyCode    string          `json:"currencyCode"`
	BuyPrice        decimal.Decimal `json:"buyPrice"`
	SellPrice       decimal.Decimal `json:"sellPrice"`
	IsVerified      bool            `json:"isVerified"`
	BuyMethod       string          `json:"buyMethod"`
	SellMethod      string          `json:"sellMethod"`
	ReferenceAmount decimal.Decimal `json:"referenceAmount"`
}

// RouteRate is the computed client-facing rate for one origin->destination
// pair within a rate version. The origin buy price and destination sell price
// are duplicated here from CountryPrice for audit. Immutable once written.
type RouteRate struct {
	VersionID     string          `json:"versionID"`
	OriginCountry string          `json:"originCountry"`
	DestCountry   string          `json:"destCountry"`
	CommissionPct decimal.Decimal `json:"commissionPct"`
	OriginBuy     decimal.Decimal `json:"originBuy"`
	DestSell      decimal.Decimal `json:"destSell"`
	BaseRate      decimal.Decimal `json:"baseRate"`
	ClientRate    decimal.Decimal `json:"clientRate"`
}

// QuoteSide distinguishes buy quotes from sell quotes.
type QuoteSide string

const (
	QuoteBuy  QuoteSide = "BUY"
	QuoteSell QuoteSide = "SELL"
)

// CountryQuoteConfig describes how quotes are fetched for one country:
// the fiat currency, the ordered payment methods to try, and the reference
// transaction amount passed to the quote source.
type CountryQuoteConfig struct {
	Country         string          `json:"country"`
	CurrencyCode    string          `json:"currencyCode"`
	PaymentMethods  []string        `json:"paymentMethods"`
	ReferenceAmount decimal.Decimal `json:"referenceAmount"`
}

// GenerationResult reports the outcome of one rate generation run.
type GenerationResult struct {
	Version             *RateVersion `json:"version"`
	PricedCountries     []string     `json:"pricedCountries"`
	FailedCountries     []string     `json:"failedCountries"`
	UnverifiedCountries []string     `json:"unverifiedCountries"`
	RouteCount          int          `json:"routeCount"`
}
