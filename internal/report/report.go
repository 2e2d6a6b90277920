package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/playcall/internal/index"
	"github.com/pable/playcall/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintSituation prints a one-line header for the query.
func PrintSituation(w io.Writer, corpus string, s model.Situation) {
	kind := "scrimmage"
	if s.IsTwoPointConversion {
		kind = "two-point try"
	}
	fmt.Fprintf(w, "\nCorpus: %s  |  Q%d %02d:%02d  |  %s, %d to go at the %d  |  %s\n\n",
		corpus, s.Quarter, s.Minutes, s.Seconds, s.DownLabel(), s.ToGo, s.YardLine, kind)
}

// PrintResult prints every section of an analysis result.
func PrintResult(w io.Writer, res model.AnalysisResult) {
	if res.NoMatch {
		fmt.Fprintln(w, "No similar plays found. Try a nearby distance or field position.")
		return
	}

	tier := res.Tier
	if tier == "" {
		tier = "—"
	}
	fmt.Fprintf(w, "Similar plays: %d  |  Source: %s  |  Window: %s  |  Avg yards: %.2f\n\n",
		res.TotalSimilarPlays, res.Source, tier, res.AverageYards)

	if res.NoGainMatch {
		fmt.Fprintf(w, "No play gained ground in these spots. Sample games: %v\n\n", res.GameIDs)
	} else if res.BestPlay != nil {
		PrintBestPlay(w, res.BestPlay)
	}

	if res.RunVsPass != nil {
		PrintRunVsPass(w, *res.RunVsPass)
	}
	if len(res.PlayTypeBreakdown) > 0 {
		PrintBreakdown(w, res.PlayTypeBreakdown)
	}
	if res.RiskAssessment != nil {
		PrintRisk(w, *res.RiskAssessment)
	}
	if len(res.IdealPlays) > 0 {
		PrintIdealPlays(w, res.IdealPlays)
	}
	if len(res.Likelihoods) > 0 {
		PrintLikelihoods(w, res.Likelihoods)
	}
	if res.RecommendedStrategy != "" {
		fmt.Fprintf(w, "Strategy: %s\n", res.RecommendedStrategy)
	}
}

// PrintBestPlay prints the representative play.
func PrintBestPlay(w io.Writer, p *model.Play) {
	var outcome []string
	if p.ResultIsFirstDown {
		outcome = append(outcome, "first down")
	}
	if p.IsTouchdown {
		outcome = append(outcome, "touchdown")
	}
	if p.IsTwoPointConversionSuccessful {
		outcome = append(outcome, "two-point good")
	}
	result := fmt.Sprintf("%+d yds", p.ResultingYards)
	for _, o := range outcome {
		result += ", " + o
	}

	fmt.Fprintf(w, "Best play: %s %s (%s)  |  %s vs %s, %s  |  %s\n",
		p.PlayType, p.SubType(), p.Formation, p.Offense, p.Defense, p.GameDate, result)
	if p.Description != "" {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
	fmt.Fprintln(w)
}

// PrintRunVsPass prints the side-by-side run and pass comparison.
func PrintRunVsPass(w io.Writer, rvp model.RunVsPassComparison) {
	table := newTable(w)
	table.Header("SIDE", "ATT", "SUCCESS%", "AVG_YDS", "1ST_DOWN%", "TO%", "SCORE")
	table.Append(
		"RUN",
		strconv.Itoa(rvp.RunAttempts),
		fmt.Sprintf("%.1f%%", rvp.RunSuccessRate),
		fmt.Sprintf("%.2f", rvp.RunAvgYards),
		fmt.Sprintf("%.1f%%", rvp.RunFirstDownRate),
		fmt.Sprintf("%.1f%%", rvp.RunTurnoverRate),
		fmt.Sprintf("%.2f", rvp.RunScore),
	)
	table.Append(
		"PASS",
		strconv.Itoa(rvp.PassAttempts),
		fmt.Sprintf("%.1f%%", rvp.PassSuccessRate),
		fmt.Sprintf("%.2f", rvp.PassAvgYards),
		fmt.Sprintf("%.1f%%", rvp.PassFirstDownRate),
		fmt.Sprintf("%.1f%%", rvp.PassTurnoverRate),
		fmt.Sprintf("%.2f", rvp.PassScore),
	)
	table.Render()
	fmt.Fprintf(w, "Recommendation: %s\n\n", rvp.Recommendation)
}

// PrintBreakdown prints the ranked play-type groups with a 95% Wilson interval
// on the success rate and a sample-size flag.
func PrintBreakdown(w io.Writer, stats []model.PlayTypeStats) {
	table := newTable(w)
	table.Header("#", "PLAY", "SUBTYPE", "ATT", "SUCCESS%", "95% CI", "AVG_YDS", "TD", "TO", "NEG%", "SAMPLE")
	for i, s := range stats {
		lo, hi := wilsonCI(s.Successes, s.Attempts)
		sub := s.SubType
		if sub == "" {
			sub = "—"
		}
		table.Append(
			strconv.Itoa(i+1),
			s.PlayType,
			sub,
			strconv.Itoa(s.Attempts),
			fmt.Sprintf("%.1f%%", s.SuccessRate),
			fmt.Sprintf("%.0f–%.0f%%", lo*100, hi*100),
			fmt.Sprintf("%.2f", s.AvgYards),
			strconv.Itoa(s.Touchdowns),
			strconv.Itoa(s.Turnovers),
			fmt.Sprintf("%.1f%%", s.NegativePlayRate),
			sampleFlag(s.Attempts),
		)
	}
	table.Render()
	fmt.Fprintln(w)
}

// PrintRisk prints the risk percentages.
func PrintRisk(w io.Writer, r model.RiskStats) {
	table := newTable(w)
	table.Header("TURNOVER%", "INT%", "FUMBLE%", "SACK%", "NEGATIVE%", "INCOMPLETE%")
	table.Append(
		fmt.Sprintf("%.1f%%", r.OverallTurnoverRate),
		fmt.Sprintf("%.1f%%", r.InterceptionRate),
		fmt.Sprintf("%.1f%%", r.FumbleRate),
		fmt.Sprintf("%.1f%%", r.SackRate),
		fmt.Sprintf("%.1f%%", r.NegativePlayRate),
		fmt.Sprintf("%.1f%%", r.IncompleteRate),
	)
	table.Render()
	fmt.Fprintln(w)
}

// PrintIdealPlays prints the top play calls with their share of attempts.
func PrintIdealPlays(w io.Writer, plays []model.IdealPlay) {
	table := newTable(w)
	table.Header("PLAY", "SUBTYPE", "SHARE%", "ATT", "SUCCESS%")
	for _, p := range plays {
		table.Append(
			p.PlayType,
			p.SubType,
			fmt.Sprintf("%.1f%%", p.Likelihood),
			strconv.Itoa(p.Attempts),
			fmt.Sprintf("%.1f%%", p.SuccessRate),
		)
	}
	table.Render()
	fmt.Fprintln(w)
}

// PrintLikelihoods prints outcome likelihoods with their pass/rush split.
func PrintLikelihoods(w io.Writer, ls []model.Likelihood) {
	table := newTable(w)
	table.Header("OUTCOME", "CHANCE%", "VIA_PASS%", "VIA_RUSH%")
	for _, l := range ls {
		pass, rush := "—", "—"
		if l.PassingPercentage > 0 || l.RushingPercentage > 0 {
			pass = fmt.Sprintf("%.1f%%", l.PassingPercentage)
			rush = fmt.Sprintf("%.1f%%", l.RushingPercentage)
		}
		table.Append(l.Name, fmt.Sprintf("%.1f%%", l.Percentage), pass, rush)
	}
	table.Render()
	fmt.Fprintln(w)
}

// PrintIndexStats prints bucket occupancy for a situation index.
func PrintIndexStats(w io.Writer, st index.Stats) {
	table := newTable(w)
	table.Header("ENTRIES", "BUCKETS", "MODULUS", "LOAD", "USED", "LONGEST", "REHASHES")
	table.Append(
		strconv.Itoa(st.Entries),
		strconv.Itoa(st.Capacity),
		strconv.Itoa(st.Modulus),
		fmt.Sprintf("%.3f", st.LoadFactor),
		strconv.Itoa(st.UsedBuckets),
		strconv.Itoa(st.LongestChain),
		strconv.Itoa(st.Rehashes),
	)
	table.Render()
}

// PrintCorpora prints stored corpora.
func PrintCorpora(w io.Writer, corpora []model.CorpusSummary) {
	table := newTable(w)
	table.Header("NAME", "PLAYS", "SKIPPED", "FINGERPRINT", "INGESTED", "SOURCE")
	for _, c := range corpora {
		table.Append(
			c.Name,
			strconv.Itoa(c.PlayCount),
			strconv.Itoa(c.SkippedRows),
			c.Fingerprint,
			c.IngestedAt,
			c.SourcePath,
		)
	}
	table.Render()
}

// BatchRow is one named situation and its result.
type BatchRow struct {
	Name      string               `json:"name"`
	Situation model.Situation      `json:"situation"`
	Result    model.AnalysisResult `json:"result"`
}

// PrintBatch prints one summary line per situation.
func PrintBatch(w io.Writer, rows []BatchRow) {
	table := newTable(w)
	table.Header("NAME", "SPOT", "PLAYS", "WINDOW", "CALL", "TOP PLAY", "TOP%", "AVG_YDS")
	for _, r := range rows {
		s := r.Situation
		spot := fmt.Sprintf("Q%d %02d:%02d %s, %d to go @%d", s.Quarter, s.Minutes, s.Seconds, s.DownLabel(), s.ToGo, s.YardLine)
		if r.Result.NoMatch {
			table.Append(r.Name, spot, "0", "-", "-", "-", "-", "-")
			continue
		}
		call := "-"
		if r.Result.RunVsPass != nil {
			call = string(r.Result.RunVsPass.Recommendation)
		}
		top, topPct := "-", "-"
		if len(r.Result.Likelihoods) > 0 {
			top = r.Result.Likelihoods[0].Name
			topPct = fmt.Sprintf("%.1f%%", r.Result.Likelihoods[0].Percentage)
		}
		window := r.Result.Tier
		if window == "" {
			window = "-"
		}
		table.Append(
			r.Name,
			spot,
			strconv.Itoa(r.Result.TotalSimilarPlays),
			window,
			call,
			top,
			topPct,
			fmt.Sprintf("%.2f", r.Result.AverageYards),
		)
	}
	table.Render()
}

func sampleFlag(n int) string {
	switch {
	case n >= 50:
		return "OK"
	case n >= 20:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}
