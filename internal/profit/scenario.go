package profit

const (
	StrategyASAP = "asap"
	StrategyAFK  = "afk"
)

// Scenario joins one leaderboard record with the caller's strategy inputs.
type Scenario struct {
	Name               string  `json:"name,omitempty"`
	TotalRevenue       float64 `json:"totalRevenue"`
	MutationPrice      float64 `json:"mutationPrice"`
	MutationsAtHarvest float64 `json:"mutationsAtHarvest"`
	ReferenceFortune   float64 `json:"referenceFortune"`
	MutationChance     float64 `json:"mutationChance"`
	GrowthStages       float64 `json:"growthStages"`
	StageDurationHours float64 `json:"stageDurationHours"`

	Plots        float64 `json:"plots"`
	SlotsPerPlot float64 `json:"slotsPerPlot"`
	FortuneASAP  float64 `json:"fortuneAsap"`
	FortuneAFK   float64 `json:"fortuneAfk"`

	// HarvestHours wins over HarvestStages when positive. With neither set
	// the AFK harvest waits GrowthStages stages (at least one).
	HarvestStages float64 `json:"harvestStages,omitempty"`
	HarvestHours  float64 `json:"harvestHours,omitempty"`

	BuffCostPerHour    float64 `json:"buffCostPerHour,omitempty"`
	BuffCostPerHarvest float64 `json:"buffCostPerHarvest,omitempty"`
	SetupCost          float64 `json:"setupCost,omitempty"`
	SetupAmortizeHours float64 `json:"setupAmortizeHours,omitempty"`
}

type ScenarioResult struct {
	Name          string     `json:"name,omitempty"`
	CoinsASAP     float64    `json:"coinsPerMutationAsap"`
	CoinsAFK      float64    `json:"coinsPerMutationAfk"`
	HarvestStages int        `json:"harvestStages"`
	ASAP          ASAPResult `json:"asap"`
	AFK           AFKResult  `json:"afk"`
	Best          string     `json:"best"`
}

// Evaluate runs the full data flow for one record: rebase the batch value
// to each strategy's fortune, then price both strategies with it.
func Evaluate(s Scenario) ScenarioResult {
	rebase := func(modeFortune float64) float64 {
		return CoinsPerMutationFromBatch(BatchRebaseInput{
			TotalRevenue:       s.TotalRevenue,
			MutationPrice:      s.MutationPrice,
			MutationsAtHarvest: s.MutationsAtHarvest,
			ReferenceFortune:   s.ReferenceFortune,
			ModeFortune:        modeFortune,
		})
	}
	coinsASAP := rebase(s.FortuneASAP)
	coinsAFK := rebase(s.FortuneAFK)
	stages := s.harvestStages()

	asap := ComputeASAP(ASAPInput{
		Plots:              s.Plots,
		SlotsPerPlot:       s.SlotsPerPlot,
		MutationChance:     s.MutationChance,
		StageDurationHours: s.StageDurationHours,
		BaseItems:          1,
		ItemPrice:          coinsASAP,
		BuffCostPerHour:    s.BuffCostPerHour,
		SetupCost:          s.SetupCost,
		SetupAmortizeHours: s.SetupAmortizeHours,
	})
	afk := ComputeAFK(AFKInput{
		Plots:              s.Plots,
		SlotsPerPlot:       s.SlotsPerPlot,
		MutationChance:     s.MutationChance,
		StageDurationHours: s.StageDurationHours,
		HarvestStages:      float64(stages),
		BaseItems:          1,
		ItemPrice:          coinsAFK,
		SetupCost:          s.SetupCost,
		BuffCostPerHarvest: s.BuffCostPerHarvest,
	})

	best := StrategyASAP
	if afk.NetProfitPerHour > asap.NetProfitPerHour {
		best = StrategyAFK
	}
	return ScenarioResult{
		Name:          s.Name,
		CoinsASAP:     coinsASAP,
		CoinsAFK:      coinsAFK,
		HarvestStages: stages,
		ASAP:          asap,
		AFK:           afk,
		Best:          best,
	}
}

func (s Scenario) harvestStages() int {
	if hours := nonNegative.Normalize(s.HarvestHours); hours > 0 {
		return HarvestStagesFromHours(hours, s.StageDurationHours)
	}
	if stages := nonNegative.Normalize(s.HarvestStages); stages > 0 {
		return int(stages)
	}
	growth := int(nonNegative.Normalize(s.GrowthStages))
	if growth < 1 {
		return 1
	}
	return growth
}
