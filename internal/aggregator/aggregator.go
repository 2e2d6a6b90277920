package aggregator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pable/playcall/internal/model"
)

const (
	// MinBreakdownAttempts drops thin (play type, sub-type) groups.
	MinBreakdownAttempts = 3
	// MaxBreakdownEntries caps the ranked breakdown.
	MaxBreakdownEntries = 8
	// MaxIdealPlays caps the ideal-play list drawn from the breakdown.
	MaxIdealPlays = 5

	// A side must beat the other's score by more than this factor to be recommended.
	recommendMargin = 1.15
	// Turnover rate (percent) above which the strategy warns about ball security.
	ballSecurityThreshold = 8.0
)

// Summary bundles every aggregate computed from one candidate set.
type Summary struct {
	RunVsPass    model.RunVsPassComparison
	Breakdown    []model.PlayTypeStats
	Risk         model.RiskStats
	AverageYards float64
	Strategy     string
	IdealPlays   []model.IdealPlay
	Likelihoods  []model.Likelihood
}

// Aggregate computes every statistic for the candidate plays of situation s.
func Aggregate(s model.Situation, plays []*model.Play) Summary {
	rvp := RunVsPass(plays)
	breakdown := Breakdown(plays)
	risk := Risk(plays)
	return Summary{
		RunVsPass:    rvp,
		Breakdown:    breakdown,
		Risk:         risk,
		AverageYards: AverageYards(plays),
		Strategy:     Strategy(rvp, s, breakdown, risk),
		IdealPlays:   IdealPlays(breakdown),
		Likelihoods:  Likelihoods(s, plays),
	}
}

// ---- Run vs pass ----

type sideAccum struct {
	attempts, successes, firstDowns, turnovers int
	yards                                      int
}

func (a sideAccum) avgYards() float64 {
	if a.attempts == 0 {
		return 0
	}
	return float64(a.yards) / float64(a.attempts)
}

// pct returns n as a percentage of the side's attempts.
func (a sideAccum) pct(n int) float64 {
	if a.attempts == 0 {
		return 0
	}
	return float64(n) / float64(a.attempts) * 100
}

// score is avgYards*2 + firstDownRate - turnovers/max(attempts,1)*50.
func (a sideAccum) score() float64 {
	return a.avgYards()*2 + a.pct(a.firstDowns) - float64(a.turnovers)/float64(max(a.attempts, 1))*50
}

// RunVsPass compares rushes against passes. Rush turnovers are fumbles; pass
// turnovers are interceptions or fumbles.
func RunVsPass(plays []*model.Play) model.RunVsPassComparison {
	var run, pass sideAccum
	for _, p := range plays {
		var side *sideAccum
		var turnover bool
		switch {
		case p.IsRush:
			side, turnover = &run, p.IsFumble
		case p.IsPass:
			side, turnover = &pass, p.IsTurnover()
		default:
			continue
		}
		side.attempts++
		side.yards += p.ResultingYards
		if p.IsSuccess() {
			side.successes++
		}
		if p.ResultIsFirstDown {
			side.firstDowns++
		}
		if turnover {
			side.turnovers++
		}
	}

	runScore, passScore := run.score(), pass.score()
	rec := model.RecommendBalanced
	if runScore > passScore*recommendMargin {
		rec = model.RecommendRun
	} else if passScore > runScore*recommendMargin {
		rec = model.RecommendPass
	}

	return model.RunVsPassComparison{
		RunAttempts:       run.attempts,
		RunSuccessRate:    run.pct(run.successes),
		RunAvgYards:       run.avgYards(),
		RunFirstDownRate:  run.pct(run.firstDowns),
		RunTurnoverRate:   run.pct(run.turnovers),
		PassAttempts:      pass.attempts,
		PassSuccessRate:   pass.pct(pass.successes),
		PassAvgYards:      pass.avgYards(),
		PassFirstDownRate: pass.pct(pass.firstDowns),
		PassTurnoverRate:  pass.pct(pass.turnovers),
		RunScore:          runScore,
		PassScore:         passScore,
		Recommendation:    rec,
	}
}

// ---- Play-type breakdown ----

// Breakdown groups plays by (play type, sub-type), keeps groups with at least
// MinBreakdownAttempts, and ranks them by
// successRate * log10(attempts+1) * (1 - turnoverRate*0.5), best first.
func Breakdown(plays []*model.Play) []model.PlayTypeStats {
	type groupKey struct{ playType, subType string }
	type groupAccum struct {
		model.PlayTypeStats
		yards, negatives int
	}

	// Slice + index map keeps first-seen order for stable tie-breaking.
	var groups []*groupAccum
	byKey := make(map[groupKey]*groupAccum)
	for _, p := range plays {
		k := groupKey{p.PlayType, p.SubType()}
		g, ok := byKey[k]
		if !ok {
			g = &groupAccum{PlayTypeStats: model.PlayTypeStats{PlayType: k.playType, SubType: k.subType}}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.Attempts++
		g.yards += p.ResultingYards
		if p.IsSuccess() {
			g.Successes++
		}
		if p.IsTouchdown {
			g.Touchdowns++
		}
		if p.IsTurnover() {
			g.Turnovers++
		}
		if p.ResultingYards < 0 {
			g.negatives++
		}
	}

	out := []model.PlayTypeStats{}
	for _, g := range groups {
		if g.Attempts < MinBreakdownAttempts {
			continue
		}
		n := float64(g.Attempts)
		s := g.PlayTypeStats
		s.SuccessRate = float64(g.Successes) / n * 100
		s.AvgYards = float64(g.yards) / n
		s.NegativePlayRate = float64(g.negatives) / n * 100
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return breakdownScore(out[i]) > breakdownScore(out[j])
	})
	if len(out) > MaxBreakdownEntries {
		out = out[:MaxBreakdownEntries]
	}
	return out
}

func breakdownScore(s model.PlayTypeStats) float64 {
	turnoverRate := float64(s.Turnovers) / float64(max(s.Attempts, 1))
	return s.SuccessRate * math.Log10(float64(s.Attempts)+1) * (1 - turnoverRate*0.5)
}

// ---- Risk ----

// Risk computes turnover, fumble, and negative-play rates over all plays, and
// interception, sack, and incompletion rates over pass attempts.
func Risk(plays []*model.Play) model.RiskStats {
	total := len(plays)
	if total == 0 {
		return model.RiskStats{}
	}

	var passes, turnovers, interceptions, fumbles, sacks, negatives, incompletions int
	for _, p := range plays {
		if p.IsTurnover() {
			turnovers++
		}
		if p.IsInterception {
			interceptions++
		}
		if p.IsFumble {
			fumbles++
		}
		if p.ResultingYards < 0 {
			negatives++
		}
		if !p.IsPass {
			continue
		}
		passes++
		if p.IsSack {
			sacks++
		}
		if p.IsIncomplete {
			incompletions++
		}
	}

	return model.RiskStats{
		OverallTurnoverRate: percent(turnovers, total),
		InterceptionRate:    percent(interceptions, passes),
		FumbleRate:          percent(fumbles, total),
		SackRate:            percent(sacks, passes),
		NegativePlayRate:    percent(negatives, total),
		IncompleteRate:      percent(incompletions, passes),
	}
}

// AverageYards is the mean resulting yardage, 0 for no plays.
func AverageYards(plays []*model.Play) float64 {
	if len(plays) == 0 {
		return 0
	}
	total := 0
	for _, p := range plays {
		total += p.ResultingYards
	}
	return float64(total) / float64(len(plays))
}

// ---- Narrative ----

var guidance = map[model.Recommendation]string{
	model.RecommendRun:      "Lean on the ground game; runs are producing safer, more efficient yardage in this spot",
	model.RecommendPass:     "Spread the field; passing concepts are outperforming the run in these spots",
	model.RecommendBalanced: "Mix your calls; neither run nor pass has a decisive edge, so stay unpredictable",
}

// Strategy renders the recommendation as a single deterministic sentence.
func Strategy(rvp model.RunVsPassComparison, s model.Situation, breakdown []model.PlayTypeStats, risk model.RiskStats) string {
	var b strings.Builder
	b.WriteString(guidance[rvp.Recommendation])

	if len(breakdown) > 0 {
		top := breakdown[0]
		fmt.Fprintf(&b, ". Top result: %s", top.PlayType)
		if top.SubType != "" {
			fmt.Fprintf(&b, " (%s)", top.SubType)
		}
		fmt.Fprintf(&b, " with %.1f%% success across %d reps", top.SuccessRate, top.Attempts)
	}

	if risk.OverallTurnoverRate > ballSecurityThreshold {
		b.WriteString(". Ball security is a concern; consider quicker throws or conservative concepts")
	}

	fmt.Fprintf(&b, " for %s, %d to go inside the %d.", s.DownLabel(), s.ToGo, s.YardLine)
	return b.String()
}

// IdealPlays lists the top breakdown entries with each one's share of the
// breakdown's attempts. An empty sub-type reads as "Balanced".
func IdealPlays(breakdown []model.PlayTypeStats) []model.IdealPlay {
	out := []model.IdealPlay{}
	if len(breakdown) == 0 {
		return out
	}
	total := 0
	for _, s := range breakdown {
		total += s.Attempts
	}
	total = max(total, 1)

	for _, s := range breakdown[:min(len(breakdown), MaxIdealPlays)] {
		sub := s.SubType
		if sub == "" {
			sub = "Balanced"
		}
		out = append(out, model.IdealPlay{
			PlayType:    s.PlayType,
			SubType:     sub,
			Likelihood:  float64(s.Attempts) / float64(total) * 100,
			Attempts:    s.Attempts,
			SuccessRate: s.SuccessRate,
		})
	}
	return out
}

// Likelihoods reports how often the candidates produced a first down, touchdown,
// or made field goal, split by pass and rush. Two-point queries get a single
// conversion likelihood instead. Sorted by percentage, highest first.
func Likelihoods(s model.Situation, plays []*model.Play) []model.Likelihood {
	out := []model.Likelihood{}
	total := len(plays)
	if total == 0 {
		return out
	}

	if s.IsTwoPointConversion {
		var conversions, viaPass, viaRush int
		for _, p := range plays {
			if !p.IsTwoPointConversion || p.PlayType == "EXTRA POINT" || !p.IsTwoPointConversionSuccessful {
				continue
			}
			conversions++
			// Conversion rows do not flag pass or rush; the description does.
			if strings.Contains(p.Description, "PASS") {
				viaPass++
			} else {
				viaRush++
			}
		}
		return append(out, model.Likelihood{
			Name:              "Two Point Conversion",
			Percentage:        percent(conversions, total),
			PassingPercentage: percent(viaPass, conversions),
			RushingPercentage: percent(viaRush, conversions),
		})
	}

	var firstDowns, fdPass, fdRush, touchdowns, tdPass, tdRush, fieldGoals int
	for _, p := range plays {
		if p.ResultIsFirstDown {
			firstDowns++
			if p.IsPass {
				fdPass++
			} else if p.IsRush {
				fdRush++
			}
		}
		if p.IsTouchdown {
			touchdowns++
			if p.IsPass {
				tdPass++
			} else if p.IsRush {
				tdRush++
			}
		}
		if p.PlayType == "FIELD GOAL" && strings.Contains(p.Description, "IS GOOD") {
			fieldGoals++
		}
	}

	if firstDowns > 0 {
		out = append(out, model.Likelihood{
			Name:              "First Down",
			Percentage:        percent(firstDowns, total),
			PassingPercentage: percent(fdPass, firstDowns),
			RushingPercentage: percent(fdRush, firstDowns),
		})
	}
	if touchdowns > 0 {
		out = append(out, model.Likelihood{
			Name:              "Touchdown",
			Percentage:        percent(touchdowns, total),
			PassingPercentage: percent(tdPass, touchdowns),
			RushingPercentage: percent(tdRush, touchdowns),
		})
	}
	if fieldGoals > 0 {
		out = append(out, model.Likelihood{Name: "Field Goal", Percentage: percent(fieldGoals, total)})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Percentage > out[j].Percentage })
	return out
}

// percent returns n/of as a percentage, 0 when of is 0.
func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}
