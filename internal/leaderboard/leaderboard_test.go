package leaderboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/GiantWizard/wiz/mutations/internal/bazaar"
	"github.com/GiantWizard/wiz/mutations/internal/catalog"
	"github.com/GiantWizard/wiz/mutations/internal/profit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
npc_prices: {Wheat: 3}
ingredient_ids: {Fermento: FERMENTO}
free_ingredients: [Fire]
destructive: [Boom]
mutations:
  - name: Dustgrain
    limit: 4
    growth_stages: 2
    recipe: {Wheat: 4, Fire: 1}
    drops: {Wheat: 100}
  - name: Boom
    limit: 2
    recipe: {Fermento: 1}
  - name: Seedless
    limit: 1
    drops: {Wheat: 1}
`

var testPrices = bazaar.StaticSource{
	"DUSTGRAIN": {SellPrice: 50, BuyPrice: 60, BuyMovingWeek: 7 * 24},
	"BOOM":      {SellPrice: 1000, BuyPrice: 1100},
	"FERMENTO":  {SellPrice: 300, BuyPrice: 400},
}

func testParams() Params {
	return Params{Plots: 1, Fortune: 0, GreenhouseUpgrades: 9, UniqueCrops: 12}
}

func loadTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return cat
}

func TestCycleTimeHours(t *testing.T) {
	assert.InDelta(t, 4.0, CycleTimeHours(0, 0), 1e-9)
	assert.InDelta(t, 1.8, CycleTimeHours(9, 12), 1e-9)
	assert.InDelta(t, 3.0, CycleTimeHours(9, 0), 1e-9)
	assert.InDelta(t, 1.8, CycleTimeHours(50, 99), 1e-9, "inputs are clamped")
}

func TestParamsNormalize(t *testing.T) {
	p := Params{Plots: 7, Fortune: -5, GreenhouseUpgrades: -1, UniqueCrops: 40, SellSide: "bogus"}.Normalize()
	assert.Equal(t, MaxPlots, p.Plots)
	assert.Equal(t, 0.0, p.Fortune)
	assert.Equal(t, 0, p.GreenhouseUpgrades)
	assert.Equal(t, MaxUniqueCrops, p.UniqueCrops)
	assert.Equal(t, bazaar.SideSellPrice, p.SellSide)
	assert.Equal(t, bazaar.SideSellPrice, p.SetupSide)

	assert.Equal(t, 1, Params{}.Normalize().Plots)
}

func TestBuildRanksByBatchProfit(t *testing.T) {
	board, err := Build(context.Background(), loadTestCatalog(t), testPrices, testParams())
	require.NoError(t, err)

	assert.Empty(t, board.Warning)
	assert.InDelta(t, 1.8, board.CycleTimeHours, 1e-9)
	assert.InDelta(t, 120/1.8, board.TotalCyclesPerBatch, 1e-9)
	require.Len(t, board.Entries, 2, "mutations without a recipe are skipped")
	assert.Equal(t, "Dustgrain", board.Entries[0].Mutation)
	assert.Equal(t, "Boom", board.Entries[1].Mutation)

	dust := board.Entries[0]
	assert.Equal(t, 4, dust.Limit)
	assert.InDelta(t, 842.4, dust.CropRevenue, 1e-6)
	assert.InDelta(t, 1.0, dust.MutationsAtHarvest, 1e-9)
	assert.InDelta(t, 892.4, dust.TotalRevenue, 1e-6)
	assert.InDelta(t, 48.0, dust.SetupCost, 1e-9, "free ingredients cost nothing")
	assert.InDelta(t, 892.4-48/(120/1.8), dust.ProfitPerBatch, 1e-6)
	assert.InDelta(t, dust.ProfitPerBatch/1.8, dust.ProfitPerHour, 1e-6)
	assert.Equal(t, 2, dust.GrowthStages)
	assert.False(t, dust.Destructive)
	assert.False(t, dust.Illiquid)
	assert.InDelta(t, 1.0, dust.SellHours, 1e-6, "one mutation at one sale per hour")
}

func TestBuildDestructivePaysFullSetup(t *testing.T) {
	board, err := Build(context.Background(), loadTestCatalog(t), testPrices, testParams())
	require.NoError(t, err)

	boom, ok := board.Entry("Boom")
	require.True(t, ok)
	assert.True(t, boom.Destructive)
	assert.InDelta(t, 500.0, boom.TotalRevenue, 1e-9)
	assert.InDelta(t, 600.0, boom.SetupCost, 1e-9)
	assert.InDelta(t, -100.0, boom.ProfitPerBatch, 1e-9)
	assert.Equal(t, 1, boom.GrowthStages)
	assert.True(t, boom.Illiquid)
}

func TestBuildScalesWithPlotsAndSides(t *testing.T) {
	p := testParams()
	p.Plots = 3
	p.SetupSide = bazaar.SideBuyPrice
	p.SellSide = bazaar.SideBuyPrice
	board, err := Build(context.Background(), loadTestCatalog(t), testPrices, p)
	require.NoError(t, err)

	boom, ok := board.Entry("Boom")
	require.True(t, ok)
	assert.Equal(t, 6, boom.Limit)
	assert.InDelta(t, 1100.0, boom.MutationPrice, 1e-9)
	assert.InDelta(t, 6*400.0, boom.SetupCost, 1e-9)
}

func TestBuildIsDeterministic(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)
	prices := bazaar.StaticSource{}
	for i, id := range cat.ProductIDs() {
		prices[id] = bazaar.QuickStatus{SellPrice: float64(1000 + i*37), BuyPrice: float64(1100 + i*41)}
	}

	first, err := Build(context.Background(), cat, prices, DefaultParams())
	require.NoError(t, err)
	second, err := Build(context.Background(), cat, prices, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.Entries)
}

type failingSource struct{ calls int }

func (f *failingSource) Prices(context.Context) (map[string]bazaar.QuickStatus, error) {
	f.calls++
	return map[string]bazaar.QuickStatus{}, errors.New("bazaar down")
}

func TestBuildWarnsWhenPricesFail(t *testing.T) {
	board, err := Build(context.Background(), loadTestCatalog(t), &failingSource{}, testParams())
	require.NoError(t, err)
	assert.Contains(t, board.Warning, "bazaar down")
	require.Len(t, board.Entries, 2)

	dust, ok := board.Entry("Dustgrain")
	require.True(t, ok)
	assert.Equal(t, 0.0, dust.MutationPrice)
	assert.InDelta(t, 842.4, dust.CropRevenue, 1e-6, "NPC-priced drops survive a bazaar outage")
}

func TestBuildCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, loadTestCatalog(t), testPrices, testParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBoardScenarioRebasesAtReferenceFortune(t *testing.T) {
	p := testParams()
	p.Fortune = 200
	board, err := Build(context.Background(), loadTestCatalog(t), testPrices, p)
	require.NoError(t, err)

	dust, ok := board.Entry("Dustgrain")
	require.True(t, ok)
	res := profit.Evaluate(board.Scenario(dust))

	assert.InDelta(t, dust.TotalRevenue/dust.MutationsAtHarvest, res.CoinsASAP, 1e-6)
	assert.InDelta(t, res.CoinsASAP, res.CoinsAFK, 1e-9)
	assert.Equal(t, 2, res.HarvestStages)
}

type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSource) Prices(ctx context.Context) (map[string]bazaar.QuickStatus, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return testPrices.Prices(ctx)
}

func TestServiceCachesHealthyBoards(t *testing.T) {
	src := &countingSource{}
	svc := NewService(loadTestCatalog(t), src, 0, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Board(context.Background(), testParams())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, src.calls)

	other := testParams()
	other.Plots = 2
	_, err := svc.Board(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestServiceSkipsCachingWarnings(t *testing.T) {
	src := &failingSource{}
	svc := NewService(loadTestCatalog(t), src, 0, nil)

	for i := 0; i < 2; i++ {
		board, err := svc.Board(context.Background(), testParams())
		require.NoError(t, err)
		assert.NotEmpty(t, board.Warning)
	}
	assert.Equal(t, 2, src.calls)
}

type blockingSource struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) Prices(ctx context.Context) (map[string]bazaar.QuickStatus, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return testPrices.Prices(ctx)
	case <-ctx.Done():
		return map[string]bazaar.QuickStatus{}, ctx.Err()
	}
}

func TestServiceBuildSurvivesCancelledCaller(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(loadTestCatalog(t), src, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.Board(ctx, testParams())
		first <- err
	}()
	<-src.started
	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	second := make(chan error, 1)
	var board Board
	go func() {
		var err error
		board, err = svc.Board(context.Background(), testParams())
		second <- err
	}()
	close(src.release)

	require.NoError(t, <-second)
	assert.Empty(t, board.Warning)
	assert.Len(t, board.Entries, 2)
}
