// Command mutcalc prices a greenhouse mutation under both harvesting
// strategies from the command line, or prints the live leaderboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/GiantWizard/wiz/mutations/internal/bazaar"
	"github.com/GiantWizard/wiz/mutations/internal/catalog"
	"github.com/GiantWizard/wiz/mutations/internal/config"
	"github.com/GiantWizard/wiz/mutations/internal/feed"
	"github.com/GiantWizard/wiz/mutations/internal/leaderboard"
	"github.com/GiantWizard/wiz/mutations/internal/profit"
	"github.com/GiantWizard/wiz/mutations/internal/report"
)

func main() {
	var (
		plots       = flag.Float64("plots", 1, "plots")
		slots       = flag.Float64("slots", 16, "mutation slots per plot")
		chance      = flag.Float64("chance", leaderboard.SpawnChance, "per-stage mutation chance (0-1)")
		stageHours  = flag.Float64("stage-hours", leaderboard.CycleTimeHours(9, 12), "growth stage duration in hours")
		fortune     = flag.Float64("fortune", 2500, "farming fortune")
		baseItems   = flag.Float64("base-items", 1, "base items per mutation")
		price       = flag.Float64("price", 0, "coins per item")
		buffHour    = flag.Float64("buff-hour", 0, "ASAP buff cost per hour")
		buffHarvest = flag.Float64("buff-harvest", 0, "AFK buff cost per harvest")
		setup       = flag.Float64("setup", 0, "setup cost")
		amortize    = flag.Float64("amortize", 0, "hours to amortize the ASAP setup cost over")
		stages      = flag.Float64("stages", 0, "AFK harvest after this many stages")
		hours       = flag.Float64("hours", 0, "AFK harvest after this many hours (overrides -stages)")
		board       = flag.Bool("board", false, "print the leaderboard instead")
		top         = flag.Int("top", 15, "leaderboard rows")
		server      = flag.String("server", "", "read the leaderboard from a running API instead of the bazaar")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *board {
		p := leaderboard.DefaultParams()
		p.Plots = int(*plots)
		p.Fortune = *fortune
		if err := printBoard(cfg, p, *server, *top); err != nil {
			fmt.Fprintf(os.Stderr, "leaderboard: %v\n", err)
			os.Exit(1)
		}
		return
	}

	harvest := *stages
	if *hours > 0 {
		harvest = float64(profit.HarvestStagesFromHours(*hours, *stageHours))
	}

	asap := profit.ComputeASAP(profit.ASAPInput{
		Plots:              *plots,
		SlotsPerPlot:       *slots,
		MutationChance:     *chance,
		StageDurationHours: *stageHours,
		Fortune:            *fortune,
		BaseItems:          *baseItems,
		ItemPrice:          *price,
		BuffCostPerHour:    *buffHour,
		SetupCost:          *setup,
		SetupAmortizeHours: *amortize,
	})
	afk := profit.ComputeAFK(profit.AFKInput{
		Plots:              *plots,
		SlotsPerPlot:       *slots,
		MutationChance:     *chance,
		StageDurationHours: *stageHours,
		HarvestStages:      harvest,
		Fortune:            *fortune,
		BaseItems:          *baseItems,
		ItemPrice:          *price,
		SetupCost:          *setup,
		BuffCostPerHarvest: *buffHarvest,
	})

	fmt.Printf("coins per mutation: %s\n\n", report.Coins(profit.CoinsPerMutation(*fortune, *baseItems, *price)))
	_ = report.WriteASAP(os.Stdout, asap)
	fmt.Println()
	_ = report.WriteAFK(os.Stdout, afk)
}

func printBoard(cfg config.Config, p leaderboard.Params, server string, top int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.FeedTimeout)
	defer cancel()

	var b leaderboard.Board
	if server != "" {
		loader := feed.NewLoader(feed.NewHTTPSource(server, nil), feed.WithTimeout(cfg.FeedTimeout))
		if err := loader.Load(ctx, p); err != nil {
			return err
		}
		b = loader.State().Board
	} else {
		cat, err := catalog.Load()
		if err != nil {
			return err
		}
		client := bazaar.NewClient(bazaar.WithURL(cfg.BazaarURL), bazaar.WithRateLimit(cfg.BazaarRate, 1))
		src := bazaar.NewCachedSource(client, cat.ProductIDs(), bazaar.WithTTL(time.Minute))
		b, err = leaderboard.Build(ctx, cat, src, p)
		if err != nil {
			return err
		}
	}
	return report.WriteBoard(os.Stdout, b, top)
}
