package profit

var probability Domain = ProbabilityDomain{}

// ASAPInput configures a greenhouse that is harvested every stage.
// The three cost fields default to 0.
type ASAPInput struct {
	Plots              float64 `json:"plots"`
	SlotsPerPlot       float64 `json:"slotsPerPlot"`
	MutationChance     float64 `json:"mutationChance"`
	StageDurationHours float64 `json:"stageDurationHours"`
	Fortune            float64 `json:"fortune"`
	BaseItems          float64 `json:"baseItems"`
	ItemPrice          float64 `json:"itemPrice"`
	BuffCostPerHour    float64 `json:"buffCostPerHour,omitempty"`
	SetupCost          float64 `json:"setupCost,omitempty"`
	SetupAmortizeHours float64 `json:"setupAmortizeHours,omitempty"`
}

type ASAPResult struct {
	ExpectedMutationsPerStage float64 `json:"expectedMutationsPerStage"`
	RevenuePerStage           float64 `json:"revenuePerStage"`
	RevenuePerHour            float64 `json:"revenuePerHour"`
	CostsPerHour              float64 `json:"costsPerHour"`
	NetProfitPerHour          float64 `json:"netProfitPerHour"`
}

// ComputeASAP returns steady-state hourly figures for continuous harvesting.
// Each slot mutates independently with MutationChance per stage, so the
// expected count per stage is plots*slots*chance. Setup cost is spread
// linearly over SetupAmortizeHours; an empty window adds no setup charge.
// A non-positive stage duration has no hourly rate and yields a zero result.
func ComputeASAP(in ASAPInput) ASAPResult {
	plots := nonNegative.Normalize(in.Plots)
	slotsPerPlot := nonNegative.Normalize(in.SlotsPerPlot)
	mutationChance := probability.Normalize(in.MutationChance)
	stageDurationHours := nonNegative.Normalize(in.StageDurationHours)
	buffCostPerHour := nonNegative.Normalize(in.BuffCostPerHour)
	setupCost := nonNegative.Normalize(in.SetupCost)
	setupAmortizeHours := nonNegative.Normalize(in.SetupAmortizeHours)

	if stageDurationHours <= 0 {
		return ASAPResult{}
	}

	valuePerMutation := CoinsPerMutation(in.Fortune, in.BaseItems, in.ItemPrice)
	expected := plots * slotsPerPlot * mutationChance
	revenuePerStage := expected * valuePerMutation
	revenuePerHour := revenuePerStage / stageDurationHours

	setupCostPerHour := 0.0
	if setupAmortizeHours > 0 {
		setupCostPerHour = setupCost / setupAmortizeHours
	}
	costsPerHour := buffCostPerHour + setupCostPerHour

	return ASAPResult{
		ExpectedMutationsPerStage: expected,
		RevenuePerStage:           revenuePerStage,
		RevenuePerHour:            revenuePerHour,
		CostsPerHour:              costsPerHour,
		NetProfitPerHour:          revenuePerHour - costsPerHour,
	}
}
