package port

import "context"

// PropertySuggestion is a single address autocomplete result.
type PropertySuggestion struct {
	PropertyID string `json:"property_id"`
	Address    string `json:"address"`
	State      string `json:"state"`
	Postcode   string `json:"postcode"`
	Provider   string `json:"provider"`
}

// Valuation is an automated valuation estimate for a property.
type Valuation struct {
	PropertyID    string  `json:"property_id"`
	EstimateLow   float64 `json:"estimate_low"`
	EstimateMid   float64 `json:"estimate_mid"`
	EstimateHigh  float64 `json:"estimate_high"`
	Confidence    string  `json:"confidence"`
	ValuationDate string  `json:"valuation_date"`
	Provider      string  `json:"provider"`
}

// PropertyDataClient abstracts a third-party property data provider
// (Domain, CoreLogic).
type PropertyDataClient interface {
	SuggestProperties(ctx context.Context, query string) ([]PropertySuggestion, error)
	GetValuation(ctx context.Context, propertyID string) (*Valuation, error)
	Name() string
}
