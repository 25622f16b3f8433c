package profit

import "math"

// AFKInput configures a greenhouse that is left alone for HarvestStages
// stages and harvested once. HarvestStages is truncated to an integer.
type AFKInput struct {
	Plots              float64 `json:"plots"`
	SlotsPerPlot       float64 `json:"slotsPerPlot"`
	MutationChance     float64 `json:"mutationChance"`
	StageDurationHours float64 `json:"stageDurationHours"`
	HarvestStages      float64 `json:"harvestStages"`
	Fortune            float64 `json:"fortune"`
	BaseItems          float64 `json:"baseItems"`
	ItemPrice          float64 `json:"itemPrice"`
	SetupCost          float64 `json:"setupCost,omitempty"`
	BuffCostPerHarvest float64 `json:"buffCostPerHarvest,omitempty"`
}

type AFKResult struct {
	ExpectedMutationsByHarvest float64 `json:"expectedMutationsByHarvest"`
	HarvestTimeHours           float64 `json:"harvestTimeHours"`
	RevenueByHarvest           float64 `json:"revenueByHarvest"`
	CostsByHarvest             float64 `json:"costsByHarvest"`
	NetProfitByHarvest         float64 `json:"netProfitByHarvest"`
	NetProfitPerHour           float64 `json:"netProfitPerHour"`
	SpawnProbabilityByHarvest  float64 `json:"spawnProbabilityByHarvest"`
}

// SpawnProbability is the chance that a slot has mutated at least once
// after n independent stages: 1 - (1-p)^n. It saturates at 1.
func SpawnProbability(chance float64, stages int) float64 {
	if stages <= 0 {
		return 0
	}
	p := probability.Normalize(chance)
	return 1 - math.Pow(1-p, float64(stages))
}

// ComputeAFK returns the figures for one bulk harvest. Setup and buff costs
// are charged once per harvest, even when no stage elapsed, in which case
// the harvest is a pure loss and the hourly rate is reported as 0.
func ComputeAFK(in AFKInput) AFKResult {
	plots := nonNegative.Normalize(in.Plots)
	slotsPerPlot := nonNegative.Normalize(in.SlotsPerPlot)
	stageDurationHours := nonNegative.Normalize(in.StageDurationHours)
	harvestStages := int(math.Floor(nonNegative.Normalize(in.HarvestStages)))
	setupCost := nonNegative.Normalize(in.SetupCost)
	buffCostPerHarvest := nonNegative.Normalize(in.BuffCostPerHarvest)
	costs := setupCost + buffCostPerHarvest

	if stageDurationHours <= 0 || harvestStages <= 0 {
		return AFKResult{
			CostsByHarvest:     costs,
			NetProfitByHarvest: -costs,
		}
	}

	valuePerMutation := CoinsPerMutation(in.Fortune, in.BaseItems, in.ItemPrice)
	spawn := SpawnProbability(in.MutationChance, harvestStages)
	expected := plots * slotsPerPlot * spawn
	harvestTimeHours := float64(harvestStages) * stageDurationHours
	revenue := expected * valuePerMutation
	net := revenue - costs

	perHour := 0.0
	if harvestTimeHours > 0 {
		perHour = net / harvestTimeHours
	}

	return AFKResult{
		ExpectedMutationsByHarvest: expected,
		HarvestTimeHours:           harvestTimeHours,
		RevenueByHarvest:           revenue,
		CostsByHarvest:             costs,
		NetProfitByHarvest:         net,
		NetProfitPerHour:           perHour,
		SpawnProbabilityByHarvest:  spawn,
	}
}
