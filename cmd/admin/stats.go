package main

import (
	"flag"
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"

	"sanctuary.game/internal/persistence/snapshot"
	"sanctuary.game/internal/sim/tuning"
)

// tierStats summarises the specimens of one distinction.
type tierStats struct {
	Distinction  int
	Count        int
	Mature       int
	VitalityMean float64 // percent of capacity
	VitalitySD   float64
	VitalityP10  float64
	VitalityP50  float64
	MaturityMean float64
}

func statsCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	src := sourceFlags(fs)
	_ = fs.Parse(args)

	doc, tune, _, err := src.open()
	if err != nil {
		return err
	}
	rows := distinctionStats(doc, tune)
	fmt.Fprintf(out, "%-4s %6s %6s %9s %7s %7s %7s %9s\n", "tier", "count", "mature", "vit_mean", "vit_sd", "vit_p10", "vit_p50", "maturity")
	for _, r := range rows {
		fmt.Fprintf(out, "%-4d %6d %6d %8.1f%% %7.1f %7.1f %7.1f %8.1f%%\n",
			r.Distinction, r.Count, r.Mature, r.VitalityMean, r.VitalitySD, r.VitalityP10, r.VitalityP50, r.MaturityMean)
	}
	return nil
}

func distinctionStats(doc snapshot.SaveV1, tune tuning.Tuning) []tierStats {
	vit := map[int][]float64{}
	mat := map[int][]float64{}
	mature := map[int]int{}
	for _, s := range doc.Specimens {
		c := tune.Vitality.Capacity[tuning.TierIndex(s.Distinction)]
		vit[s.Distinction] = append(vit[s.Distinction], 100*s.Vitality/c)
		mat[s.Distinction] = append(mat[s.Distinction], s.MaturityProgress)
		if s.IsMature {
			mature[s.Distinction]++
		}
	}
	tiers := make([]int, 0, len(vit))
	for d := range vit {
		tiers = append(tiers, d)
	}
	sort.Ints(tiers)

	out := make([]tierStats, 0, len(tiers))
	for _, d := range tiers {
		xs := vit[d]
		sort.Float64s(xs)
		mean, sd := stat.MeanStdDev(xs, nil)
		if len(xs) < 2 {
			sd = 0
		}
		out = append(out, tierStats{
			Distinction:  d,
			Count:        len(xs),
			Mature:       mature[d],
			VitalityMean: mean,
			VitalitySD:   sd,
			VitalityP10:  stat.Quantile(0.1, stat.Empirical, xs, nil),
			VitalityP50:  stat.Quantile(0.5, stat.Empirical, xs, nil),
			MaturityMean: stat.Mean(mat[d], nil),
		})
	}
	return out
}
