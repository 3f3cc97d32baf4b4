package dto

// GenerateRatesRequest triggers a manual or intraday rate generation.
type GenerateRatesRequest struct {
	Kind   string `json:"kind" binding:"required,oneof=SCHEDULED MANUAL INTRADAY"`
	Reason string `json:"reason" binding:"required"`
}
