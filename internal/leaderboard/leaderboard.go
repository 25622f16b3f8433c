// Package leaderboard ranks greenhouse mutations by expected profit per
// harvest cycle, using catalog facts and live bazaar prices.
package leaderboard

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/GiantWizard/wiz/mutations/internal/bazaar"
	"github.com/GiantWizard/wiz/mutations/internal/catalog"
	"github.com/GiantWizard/wiz/mutations/internal/profit"
)

const (
	BaseCycleHours     = 4.0
	SpawnChance        = 0.25
	BatchLifespanHours = 120.0

	// Flat drop bonus every greenhouse crop receives on top of fortune.
	fixedDropMultiplier = 2.16 * 1.3

	MaxPlots              = 3
	MaxGreenhouseUpgrades = 9
	MaxUniqueCrops        = 12
)

type Params struct {
	Plots              int         `json:"plots"`
	Fortune            float64     `json:"fortune"`
	GreenhouseUpgrades int         `json:"ghUpgrade"`
	UniqueCrops        int         `json:"uniqueCrops"`
	SetupSide          bazaar.Side `json:"setupSide,omitempty"`
	SellSide           bazaar.Side `json:"sellSide,omitempty"`
}

func DefaultParams() Params {
	return Params{
		Plots:              1,
		Fortune:            2500,
		GreenhouseUpgrades: MaxGreenhouseUpgrades,
		UniqueCrops:        MaxUniqueCrops,
		SetupSide:          bazaar.SideSellPrice,
		SellSide:           bazaar.SideSellPrice,
	}
}

// Normalize clamps every field into range instead of rejecting it.
func (p Params) Normalize() Params {
	p.Plots = clampInt(p.Plots, 1, MaxPlots)
	p.Fortune = profit.NonNegative(p.Fortune)
	p.GreenhouseUpgrades = clampInt(p.GreenhouseUpgrades, 0, MaxGreenhouseUpgrades)
	p.UniqueCrops = clampInt(p.UniqueCrops, 0, MaxUniqueCrops)
	if p.SetupSide != bazaar.SideBuyPrice {
		p.SetupSide = bazaar.SideSellPrice
	}
	if p.SellSide != bazaar.SideBuyPrice {
		p.SellSide = bazaar.SideSellPrice
	}
	return p
}

func (p Params) key() string {
	return fmt.Sprintf("%d|%g|%d|%d|%s|%s", p.Plots, p.Fortune, p.GreenhouseUpgrades, p.UniqueCrops, p.SetupSide, p.SellSide)
}

// CycleTimeHours is the greenhouse growth-stage duration after upgrades
// and unique-crop bonuses, shared by every mutation.
func CycleTimeHours(ghUpgrades, uniqueCrops int) float64 {
	gh := float64(clampInt(ghUpgrades, 0, MaxGreenhouseUpgrades)) / MaxGreenhouseUpgrades * 0.25
	unique := float64(clampInt(uniqueCrops, 0, MaxUniqueCrops)) / MaxUniqueCrops * 0.30
	return BaseCycleHours * (1 - gh - unique)
}

type Entry struct {
	Mutation  string `json:"mutation"`
	ProductID string `json:"productId"`
	Limit     int    `json:"limit"`

	// TotalRevenue is the expected value of one harvest cycle at the
	// board's reference fortune: crop drops plus the mutations themselves.
	TotalRevenue       float64 `json:"totalRevenue"`
	CropRevenue        float64 `json:"cropRevenue"`
	MutationPrice      float64 `json:"mutationPrice"`
	MutationsAtHarvest float64 `json:"mutationsAtHarvest"`
	MutationChance     float64 `json:"mutationChance"`
	GrowthStages       int     `json:"growthStages"`

	SetupCost      float64 `json:"setupCost"`
	Destructive    bool    `json:"destructive"`
	ProfitPerBatch float64 `json:"profitPerBatch"`
	ProfitPerHour  float64 `json:"profitPerHour"`

	// SellHours is how long insta-selling one cycle's mutations takes at
	// the current weekly volume. Illiquid means there is no volume at all.
	SellHours float64 `json:"sellHours"`
	Illiquid  bool    `json:"illiquid,omitempty"`
}

type Board struct {
	Params              Params  `json:"params"`
	ReferenceFortune    float64 `json:"referenceFortune"`
	CycleTimeHours      float64 `json:"cycleTimeHours"`
	TotalCyclesPerBatch float64 `json:"totalCyclesPerBatch"`
	Entries             []Entry `json:"leaderboard"`
	Warning             string  `json:"warning,omitempty"`
}

// Entry looks up a ranked mutation by name.
func (b Board) Entry(name string) (Entry, bool) {
	for _, e := range b.Entries {
		if e.Mutation == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Scenario seeds a profit scenario from one entry; callers fill in their
// own plot layout, fortunes and costs.
func (b Board) Scenario(e Entry) profit.Scenario {
	return profit.Scenario{
		Name:               e.Mutation,
		TotalRevenue:       e.TotalRevenue,
		MutationPrice:      e.MutationPrice,
		MutationsAtHarvest: e.MutationsAtHarvest,
		ReferenceFortune:   b.ReferenceFortune,
		MutationChance:     e.MutationChance,
		GrowthStages:       float64(e.GrowthStages),
		StageDurationHours: b.CycleTimeHours,
		Plots:              float64(b.Params.Plots),
		SlotsPerPlot:       float64(e.Limit) / float64(max(b.Params.Plots, 1)),
		FortuneASAP:        b.ReferenceFortune,
		FortuneAFK:         b.ReferenceFortune,
		SetupCost:          e.SetupCost,
	}
}

// Build prices every catalog mutation that has a recipe and ranks them by
// profit per batch. A price source failure is reported in Board.Warning
// and the board is built with whatever prices were returned. Only a done
// context is an error.
func Build(ctx context.Context, cat *catalog.Catalog, src bazaar.PriceSource, params Params) (Board, error) {
	params = params.Normalize()
	prices, err := src.Prices(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Board{}, ctxErr
	}

	cycle := CycleTimeHours(params.GreenhouseUpgrades, params.UniqueCrops)
	cycles := BatchLifespanHours / cycle
	board := Board{
		Params:              params,
		ReferenceFortune:    params.Fortune,
		CycleTimeHours:      cycle,
		TotalCyclesPerBatch: cycles,
		Entries:             make([]Entry, 0, len(cat.Mutations)),
	}
	if err != nil {
		board.Warning = fmt.Sprintf("bazaar prices unavailable: %v", err)
	}

	pr := pricer{cat: cat, prices: prices}
	dropMult := fixedDropMultiplier * profit.FortuneMultiplier(params.Fortune)

	for _, m := range cat.Mutations {
		if len(m.Recipe) == 0 {
			continue
		}
		limit := m.Limit * params.Plots

		crop := 0.0
		special := cat.DropMultiplier(m.Name)
		for _, name := range sortedKeys(m.Drops) {
			base := m.Drops[name]
			if base <= 0 {
				continue
			}
			drops := base * float64(limit) * dropMult * special * SpawnChance
			crop += drops * cat.NPCPrices[name]
		}

		mutationPrice := pr.product(m.Name, params.SellSide)
		mutations := float64(limit) * SpawnChance
		total := crop + mutationPrice*mutations

		setup := pr.setupCost(m, params)
		destructive := cat.IsDestructive(m.Name)
		batch := total - setup/math.Max(1, cycles)
		if destructive {
			batch = total - setup
		}

		sellHours, illiquid := pr.sellHours(m.Name, mutations)

		board.Entries = append(board.Entries, Entry{
			Mutation:           m.Name,
			ProductID:          m.ID,
			Limit:              limit,
			TotalRevenue:       total,
			CropRevenue:        crop,
			MutationPrice:      mutationPrice,
			MutationsAtHarvest: mutations,
			MutationChance:     SpawnChance,
			GrowthStages:       m.Stages(),
			SetupCost:          setup,
			Destructive:        destructive,
			ProfitPerBatch:     batch,
			ProfitPerHour:      batch / cycle,
			SellHours:          sellHours,
			Illiquid:           illiquid,
		})
	}

	sort.SliceStable(board.Entries, func(i, j int) bool {
		a, b := board.Entries[i], board.Entries[j]
		if a.ProfitPerBatch != b.ProfitPerBatch {
			return a.ProfitPerBatch > b.ProfitPerBatch
		}
		return a.Mutation < b.Mutation
	})
	return board, nil
}

type pricer struct {
	cat    *catalog.Catalog
	prices map[string]bazaar.QuickStatus
}

func (p pricer) product(name string, side bazaar.Side) float64 {
	id, ok := p.cat.ProductID(name)
	if !ok {
		return 0
	}
	return profit.NonNegative(p.prices[id].Price(side))
}

func (p pricer) sellHours(name string, qty float64) (float64, bool) {
	id, ok := p.cat.ProductID(name)
	if !ok {
		return 0, true
	}
	d, err := bazaar.InstasellFillTime(qty, p.prices[id])
	if err != nil {
		return 0, true
	}
	return d.Hours(), false
}

func (p pricer) ingredient(name string, side bazaar.Side) float64 {
	if p.cat.IsFree(name) {
		return 0
	}
	if npc, ok := p.cat.NPCPrices[name]; ok {
		return npc
	}
	return p.product(name, side)
}

// setupCost prices the ingredients surrounding every slot. Overrides are
// per plot and replace the recipe entirely.
func (p pricer) setupCost(m catalog.Mutation, params Params) float64 {
	if override, ok := p.cat.SetupOverrides[m.Name]; ok {
		cost := 0.0
		for _, name := range sortedKeys(override) {
			cost += override[name] * p.ingredient(name, params.SetupSide)
		}
		return cost * float64(params.Plots)
	}
	limit := float64(m.Limit * params.Plots)
	cost := 0.0
	for _, name := range sortedKeys(m.Recipe) {
		cost += m.Recipe[name] * p.ingredient(name, params.SetupSide) * limit
	}
	return cost
}

// sortedKeys fixes the summation order so repeated builds are bit-identical.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
