package profit

// BatchRebaseInput is one leaderboard record's batch revenue, computed at
// ReferenceFortune, and the fortune the caller actually farms at.
type BatchRebaseInput struct {
	TotalRevenue       float64 `json:"totalRevenue"`
	MutationPrice      float64 `json:"mutationPrice"`
	MutationsAtHarvest float64 `json:"mutationsAtHarvest"`
	ReferenceFortune   float64 `json:"referenceFortune"`
	ModeFortune        float64 `json:"modeFortune"`
}

// CoinsPerMutationFromBatch infers the value of one mutation event at
// ModeFortune from a batch total computed at ReferenceFortune.
//
// The batch total is the sum of the mutations' own sale value, which does
// not scale with fortune, and the crop drops, which do. The crop part is
// isolated, spread per mutation, stripped of the reference multiplier and
// re-scaled by the mode multiplier before the mutation price is added back.
// With no mutations there is no per-mutation crop share to derive, so the
// plain mutation price is returned.
func CoinsPerMutationFromBatch(in BatchRebaseInput) float64 {
	total := nonNegative.Normalize(in.TotalRevenue)
	price := nonNegative.Normalize(in.MutationPrice)
	mutations := nonNegative.Normalize(in.MutationsAtHarvest)
	refFortune := nonNegative.Normalize(in.ReferenceFortune)
	modeFortune := nonNegative.Normalize(in.ModeFortune)

	if mutations <= 0 {
		return price
	}

	mutationOnly := price * mutations
	crop := total - mutationOnly
	if crop < 0 {
		crop = 0
	}
	cropPerMutation := crop / mutations

	baseCrop := 0.0
	if refMult := FortuneMultiplier(refFortune); refMult > 0 {
		baseCrop = cropPerMutation / refMult
	}
	return baseCrop*FortuneMultiplier(modeFortune) + price
}
