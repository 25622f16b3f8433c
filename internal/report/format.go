// Package report renders profit results and leaderboards as plain text.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/GiantWizard/wiz/mutations/internal/leaderboard"
	"github.com/GiantWizard/wiz/mutations/internal/profit"
	"github.com/dustin/go-humanize"
)

// Compact abbreviates a coin amount: 1.25k, 3.40M, 2.00B.
func Compact(coins float64) string {
	sign := ""
	v := coins
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%s%.2fB", sign, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s%.2fM", sign, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s%.2fk", sign, v/1e3)
	}
	return fmt.Sprintf("%s%.2f", sign, v)
}

// Diff is Compact with an explicit plus sign on gains.
func Diff(coins float64) string {
	if coins > 0 {
		return "+" + Compact(coins)
	}
	return Compact(coins)
}

// Coins rounds to whole coins with thousands separators.
func Coins(coins float64) string {
	if math.IsNaN(coins) || math.IsInf(coins, 0) {
		return "0"
	}
	r := math.Round(coins)
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return humanize.Commaf(r)
}

func WriteASAP(w io.Writer, r profit.ASAPResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ASAP (harvest every stage)")
	fmt.Fprintf(tw, "  mutations / stage\t%.3f\n", r.ExpectedMutationsPerStage)
	fmt.Fprintf(tw, "  revenue / stage\t%s\n", Coins(r.RevenuePerStage))
	fmt.Fprintf(tw, "  revenue / hour\t%s\n", Coins(r.RevenuePerHour))
	fmt.Fprintf(tw, "  costs / hour\t%s\n", Coins(r.CostsPerHour))
	fmt.Fprintf(tw, "  net / hour\t%s\t(%s)\n", Coins(r.NetProfitPerHour), Diff(r.NetProfitPerHour))
	return tw.Flush()
}

func WriteAFK(w io.Writer, r profit.AFKResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AFK (single harvest)")
	fmt.Fprintf(tw, "  spawn chance\t%.2f%%\n", r.SpawnProbabilityByHarvest*100)
	fmt.Fprintf(tw, "  mutations\t%.3f\n", r.ExpectedMutationsByHarvest)
	fmt.Fprintf(tw, "  harvest time\t%.2fh\n", r.HarvestTimeHours)
	fmt.Fprintf(tw, "  revenue\t%s\n", Coins(r.RevenueByHarvest))
	fmt.Fprintf(tw, "  costs\t%s\n", Coins(r.CostsByHarvest))
	fmt.Fprintf(tw, "  net\t%s\t(%s)\n", Coins(r.NetProfitByHarvest), Diff(r.NetProfitByHarvest))
	fmt.Fprintf(tw, "  net / hour\t%s\n", Coins(r.NetProfitPerHour))
	return tw.Flush()
}

// WriteBoard prints the top n entries; n <= 0 prints all of them.
func WriteBoard(w io.Writer, b leaderboard.Board, n int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "cycle %.2fh, %.1f cycles per batch, fortune %s\t\n", b.CycleTimeHours, b.TotalCyclesPerBatch, Coins(b.ReferenceFortune))
	if b.Warning != "" {
		fmt.Fprintf(tw, "warning: %s\t\n", b.Warning)
	}
	fmt.Fprintln(tw, strings.Join([]string{"#", "mutation", "profit/batch", "profit/hour", "setup", ""}, "\t"))
	for i, e := range b.Entries {
		if n > 0 && i >= n {
			break
		}
		name := e.Mutation
		if e.Destructive {
			name += "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", i+1, name, Compact(e.ProfitPerBatch), Compact(e.ProfitPerHour), Compact(e.SetupCost))
	}
	return tw.Flush()
}
