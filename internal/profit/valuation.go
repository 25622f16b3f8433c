// Package profit holds the expected-value arithmetic behind the mutation
// dashboard: what one mutation is worth, what a continuously harvested
// (ASAP) or batch harvested (AFK) greenhouse earns, and how a batch revenue
// figure computed at one fortune value maps onto another.
//
// Every function is pure. Inputs are sanitized at the boundary and no
// function returns an error or panics for out-of-range values.
package profit

var nonNegative Domain = NonNegativeDomain{}

// ValuationInput describes one triggering event.
type ValuationInput struct {
	Fortune   float64 `json:"fortune"`
	BaseItems float64 `json:"baseItems"`
	ItemPrice float64 `json:"itemPrice"`
}

func (v ValuationInput) Value() float64 {
	return CoinsPerMutation(v.Fortune, v.BaseItems, v.ItemPrice)
}

// FortuneMultiplier converts a percentage-like fortune bonus into a yield
// multiplier: 0 fortune is 1x, 100 fortune is 2x.
func FortuneMultiplier(fortune float64) float64 {
	return 1 + fortune/100
}

// CoinsPerMutation is the expected coin value of a single mutation event.
func CoinsPerMutation(fortune, baseItems, itemPrice float64) float64 {
	safeFortune := nonNegative.Normalize(fortune)
	safeBaseItems := nonNegative.Normalize(baseItems)
	safeItemPrice := nonNegative.Normalize(itemPrice)
	expectedItems := safeBaseItems * FortuneMultiplier(safeFortune)
	return expectedItems * safeItemPrice
}
