// Package quotes implements the market quote source against a P2P
// marketplace search API.
package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
)

const defaultRequestTimeout = 10 * time.Second

// P2PSource fetches quotes from a P2P marketplace advert search endpoint.
// Prices are fiat per unit of settlement currency, taken from the best advert
// that accepts the requested payment method at the reference amount.
type P2PSource struct {
	baseURL string
	client  *http.Client
}

var _ portssvc.QuoteSource = (*P2PSource)(nil)

// NewP2PSource creates a quote source against the given marketplace base URL.
func NewP2PSource(baseURL string) *P2PSource {
	return &P2PSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

type advertSearchRequest struct {
	Fiat        string   `json:"fiat"`
	TradeType   string   `json:"tradeType"`
	PayTypes    []string `json:"payTypes"`
	TransAmount string   `json:"transAmount"`
	Page        int      `json:"page"`
	Rows        int      `json:"rows"`
}

type advertSearchResponse struct {
	Data []struct {
		Adv struct {
			Price string `json:"price"`
		} `json:"adv"`
		Advertiser struct {
			UserGrade int `json:"userGrade"`
		} `json:"advertiser"`
	} `json:"data"`
}

// FetchPrice fetches one quote for the given fiat currency, side and payment
// method. Transport failures, non-200 responses and empty advert lists all
// surface as apperrors.ErrQuoteUnavailable so the pipeline can fall back to
// the next payment method.
func (s *P2PSource) FetchPrice(ctx context.Context, currencyCode string, side domain.QuoteSide, paymentMethod string, referenceAmount decimal.Decimal) (*portssvc.Quote, error) {
	payload := advertSearchRequest{
		Fiat:        currencyCode,
		TradeType:   string(side),
		PayTypes:    []string{paymentMethod},
		TransAmount: referenceAmount.String(),
		Page:        1,
		Rows:        1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal advert search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/adverts/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build advert search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", apperrors.ErrQuoteUnavailable, currencyCode, side, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s %s: status %d", apperrors.ErrQuoteUnavailable, currencyCode, side, resp.StatusCode)
	}

	var parsed advertSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %s %s: malformed response: %v", apperrors.ErrQuoteUnavailable, currencyCode, side, err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("%w: %s %s: no adverts for method %s", apperrors.ErrQuoteUnavailable, currencyCode, side, paymentMethod)
	}

	best := parsed.Data[0]
	price, err := decimal.NewFromString(best.Adv.Price)
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("%w: %s %s: unusable price %q", apperrors.ErrQuoteUnavailable, currencyCode, side, best.Adv.Price)
	}

	return &portssvc.Quote{
		Price:      price,
		IsVerified: best.Advertiser.UserGrade > 0,
		MethodUsed: paymentMethod,
	}, nil
}
