package aggregator

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/pable/playcall/internal/model"
)

const eps = 1e-9

// rush builds a rush play with the given yardage.
func rush(yards int, dir string) *model.Play {
	p := &model.Play{PlayType: "RUSH", IsRush: true, RushDirection: dir, ResultingYards: yards}
	model.DeriveWeights(p)
	return p
}

// pass builds a completed pass play with the given yardage.
func pass(yards int, passType string) *model.Play {
	p := &model.Play{PlayType: "PASS", IsPass: true, PassType: passType, ResultingYards: yards}
	model.DeriveWeights(p)
	return p
}

// with applies flag mutations to p and recomputes its weights.
func with(p *model.Play, mut func(*model.Play)) *model.Play {
	mut(p)
	model.DeriveWeights(p)
	return p
}

func firstDown(p *model.Play) { p.ResultIsFirstDown = true }
func fumbled(p *model.Play) { p.IsFumble = true }
func intercepted(p *model.Play) { p.IsInterception = true }
func incompleted(p *model.Play) {
	p.IsIncomplete = true
	p.ResultingYards = 0
}
func sacked(p *model.Play) { p.IsSack = true }
func scored(p *model.Play) { p.IsTouchdown = true }

// scenarioPlays builds 40 rushes (avg 4.0, 10 first downs, 1 fumble) and
// 60 passes (avg 6.5, 20 first downs, 3 interceptions).
func scenarioPlays() []*model.Play {
	var plays []*model.Play
	for i := 0; i < 40; i++ {
		p := rush(4, "MIDDLE")
		if i < 10 {
			p = with(p, firstDown)
		}
		if i == 39 {
			p = with(p, fumbled)
		}
		plays = append(plays, p)
	}
	for i := 0; i < 60; i++ {
		yards := 6
		if i%2 == 0 {
			yards = 7
		}
		p := pass(yards, "SHORT RIGHT")
		if i < 20 {
			p = with(p, firstDown)
		}
		if i >= 57 {
			p = with(p, intercepted)
		}
		plays = append(plays, p)
	}
	return plays
}

func TestRunVsPass_Scenario(t *testing.T) {
	rvp := RunVsPass(scenarioPlays())

	if rvp.RunAttempts != 40 || rvp.PassAttempts != 60 {
		t.Fatalf("attempts: run=%d pass=%d, want 40/60", rvp.RunAttempts, rvp.PassAttempts)
	}
	if math.Abs(rvp.RunAvgYards-4.0) > eps {
		t.Errorf("run avg = %.3f, want 4.0", rvp.RunAvgYards)
	}
	if math.Abs(rvp.PassAvgYards-6.5) > eps {
		t.Errorf("pass avg = %.3f, want 6.5", rvp.PassAvgYards)
	}

	// run:  4.0*2 + 25.0 - 1/40*50 = 31.75
	// pass: 6.5*2 + 33.33 - 3/60*50 = 43.8333
	wantRun := 4.0*2 + 25.0 - 1.0/40*50
	wantPass := 6.5*2 + 20.0/60*100 - 3.0/60*50
	if math.Abs(rvp.RunScore-wantRun) > eps {
		t.Errorf("run score = %.4f, want %.4f", rvp.RunScore, wantRun)
	}
	if math.Abs(rvp.PassScore-wantPass) > eps {
		t.Errorf("pass score = %.4f, want %.4f", rvp.PassScore, wantPass)
	}
	if rvp.Recommendation != model.RecommendPass {
		t.Errorf("recommendation = %s, want pass", rvp.Recommendation)
	}
	if math.Abs(rvp.RunTurnoverRate-2.5) > eps {
		t.Errorf("run turnover rate = %.3f, want 2.5", rvp.RunTurnoverRate)
	}
	if math.Abs(rvp.PassTurnoverRate-5.0) > eps {
		t.Errorf("pass turnover rate = %.3f, want 5.0", rvp.PassTurnoverRate)
	}
}

func TestRunVsPass_MarginBoundaries(t *testing.T) {
	// Equal sides -> balanced.
	even := []*model.Play{rush(5, "LEFT"), pass(5, "SHORT LEFT")}
	if got := RunVsPass(even).Recommendation; got != model.RecommendBalanced {
		t.Errorf("even sides: got %s, want balanced", got)
	}

	// Run 12 vs pass 10 average: 24 > 20*1.15 = 23 -> run.
	runHeavy := []*model.Play{rush(12, "LEFT"), pass(10, "DEEP LEFT")}
	if got := RunVsPass(runHeavy).Recommendation; got != model.RecommendRun {
		t.Errorf("run-heavy: got %s, want run", got)
	}

	// Run 11 vs pass 10: 22 < 23 -> balanced.
	near := []*model.Play{rush(11, "LEFT"), pass(10, "DEEP LEFT")}
	if got := RunVsPass(near).Recommendation; got != model.RecommendBalanced {
		t.Errorf("within margin: got %s, want balanced", got)
	}
}

func TestRunVsPass_NoAttempts(t *testing.T) {
	fg := &model.Play{PlayType: "FIELD GOAL"}
	rvp := RunVsPass([]*model.Play{fg})
	if rvp.RunAttempts != 0 || rvp.PassAttempts != 0 {
		t.Fatalf("expected no attempts, got %d/%d", rvp.RunAttempts, rvp.PassAttempts)
	}
	if rvp.RunScore != 0 || rvp.PassScore != 0 {
		t.Errorf("expected zero scores, got %.2f/%.2f", rvp.RunScore, rvp.PassScore)
	}
	if rvp.Recommendation != model.RecommendBalanced {
		t.Errorf("got %s, want balanced", rvp.Recommendation)
	}
}

func TestRunVsPass_IncompleteIsNotSuccess(t *testing.T) {
	plays := []*model.Play{
		with(pass(0, "SHORT LEFT"), incompleted),
		pass(3, "SHORT LEFT"),
	}
	rvp := RunVsPass(plays)
	if math.Abs(rvp.PassSuccessRate-50) > eps {
		t.Errorf("pass success rate = %.2f, want 50", rvp.PassSuccessRate)
	}
}

func TestBreakdown_DropsThinGroups(t *testing.T) {
	plays := []*model.Play{
		rush(3, "LEFT"), rush(4, "LEFT"), rush(5, "LEFT"),
		rush(3, "RIGHT"), rush(4, "RIGHT"),
	}
	got := Breakdown(plays)
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d: %+v", len(got), got)
	}
	if got[0].SubType != "LEFT" || got[0].Attempts != 3 {
		t.Errorf("unexpected group %+v", got[0])
	}
	if math.Abs(got[0].AvgYards-4) > eps {
		t.Errorf("avg yards = %.2f, want 4", got[0].AvgYards)
	}
}

func TestBreakdown_CapsAtEight(t *testing.T) {
	var plays []*model.Play
	for g := 0; g < 11; g++ {
		for i := 0; i < 3; i++ {
			plays = append(plays, pass(g+1, fmt.Sprintf("ROUTE %d", g)))
		}
	}
	got := Breakdown(plays)
	if len(got) != MaxBreakdownEntries {
		t.Fatalf("expected %d groups, got %d", MaxBreakdownEntries, len(got))
	}
}

func TestBreakdown_RankingFormula(t *testing.T) {
	var plays []*model.Play
	// SHORT LEFT: 4/4 success, no turnovers -> 100*log10(5) = 69.9
	for i := 0; i < 4; i++ {
		plays = append(plays, pass(5, "SHORT LEFT"))
	}
	// DEEP RIGHT: 10 attempts, 6 successes, 2 interceptions -> 60*log10(11)*0.9 = 56.2
	for i := 0; i < 10; i++ {
		p := pass(20, "DEEP RIGHT")
		if i >= 6 {
			p = with(p, incompleted)
		}
		if i >= 8 {
			p = with(p, intercepted)
		}
		plays = append(plays, p)
	}
	// MIDDLE rush: 10/10 success, 1 fumble -> 100*log10(11)*0.95 = 98.9
	for i := 0; i < 10; i++ {
		p := rush(2, "MIDDLE")
		if i == 0 {
			p = with(p, fumbled)
		}
		plays = append(plays, p)
	}

	got := Breakdown(plays)
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(got))
	}
	order := []string{got[0].SubType, got[1].SubType, got[2].SubType}
	want := []string{"MIDDLE", "SHORT LEFT", "DEEP RIGHT"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if got[2].Turnovers != 2 || got[0].Turnovers != 1 {
		t.Errorf("turnovers: %d/%d", got[0].Turnovers, got[2].Turnovers)
	}
}

func TestBreakdown_NonScrimmageHasEmptySubType(t *testing.T) {
	var plays []*model.Play
	for i := 0; i < 3; i++ {
		plays = append(plays, &model.Play{PlayType: "FIELD GOAL", PassType: "ignored", RushDirection: "ignored"})
	}
	got := Breakdown(plays)
	if len(got) != 1 || got[0].SubType != "" {
		t.Fatalf("unexpected breakdown %+v", got)
	}
}

func TestRisk(t *testing.T) {
	plays := []*model.Play{
		with(pass(0, "SHORT LEFT"), intercepted),
		with(pass(0, "SHORT LEFT"), incompleted),
		with(pass(-7, "SHORT LEFT"), sacked),
		pass(8, "SHORT LEFT"),
		with(rush(-2, "LEFT"), fumbled),
	}
	r := Risk(plays)
	checks := []struct {
		name      string
		got, want float64
	}{
		{"overall turnover", r.OverallTurnoverRate, 40},
		{"interception", r.InterceptionRate, 25},
		{"incomplete", r.IncompleteRate, 25},
		{"sack", r.SackRate, 25},
		{"fumble", r.FumbleRate, 20},
		{"negative", r.NegativePlayRate, 40},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > eps {
			t.Errorf("%s rate = %.2f, want %.2f", c.name, c.got, c.want)
		}
	}

	if (Risk(nil) != model.RiskStats{}) {
		t.Error("expected zero risk for no plays")
	}
}

func TestRisk_ScenarioTurnoverRate(t *testing.T) {
	r := Risk(scenarioPlays())
	if math.Abs(r.OverallTurnoverRate-4.0) > eps {
		t.Errorf("overall turnover rate = %.3f, want 4.0", r.OverallTurnoverRate)
	}
	if math.Abs(r.InterceptionRate-5.0) > eps {
		t.Errorf("interception rate = %.3f, want 5.0", r.InterceptionRate)
	}
}

func TestAverageYards(t *testing.T) {
	if AverageYards(nil) != 0 {
		t.Error("expected 0 for no plays")
	}
	got := AverageYards([]*model.Play{rush(3, "LEFT"), pass(-1, "SHORT LEFT"), pass(10, "DEEP LEFT")})
	if math.Abs(got-4) > eps {
		t.Errorf("average = %.2f, want 4", got)
	}
}

func TestStrategy(t *testing.T) {
	s := model.NewSituation(1, 3, 4, 35, 9, 0, false)
	rvp := model.RunVsPassComparison{Recommendation: model.RecommendRun}
	breakdown := []model.PlayTypeStats{{PlayType: "RUSH", SubType: "LEFT TACKLE", SuccessRate: 62.5, Attempts: 16}}

	got := Strategy(rvp, s, breakdown, model.RiskStats{OverallTurnoverRate: 3})
	want := "Lean on the ground game; runs are producing safer, more efficient yardage in this spot" +
		". Top result: RUSH (LEFT TACKLE) with 62.5% success across 16 reps" +
		" for down 3, 4 to go inside the 35."
	if got != want {
		t.Errorf("strategy:\n got %q\nwant %q", got, want)
	}

	risky := Strategy(model.RunVsPassComparison{Recommendation: model.RecommendPass}, s, nil, model.RiskStats{OverallTurnoverRate: 8.5})
	if !strings.Contains(risky, "Ball security is a concern") {
		t.Errorf("expected ball-security warning in %q", risky)
	}
	if strings.Contains(risky, "Top result") {
		t.Errorf("unexpected top-result clause without breakdown: %q", risky)
	}

	atThreshold := Strategy(rvp, s, nil, model.RiskStats{OverallTurnoverRate: 8})
	if strings.Contains(atThreshold, "Ball security") {
		t.Errorf("warning should require a rate above 8%%: %q", atThreshold)
	}

	conv := Strategy(model.RunVsPassComparison{Recommendation: model.RecommendBalanced},
		model.NewSituation(4, 0, 0, 98, 1, 0, true), []model.PlayTypeStats{{PlayType: "PASS", SuccessRate: 50, Attempts: 4}}, model.RiskStats{})
	if !strings.HasSuffix(conv, "Top result: PASS with 50.0% success across 4 reps for conversion, 0 to go inside the 98.") {
		t.Errorf("conversion strategy = %q", conv)
	}
}

func TestIdealPlays(t *testing.T) {
	breakdown := []model.PlayTypeStats{
		{PlayType: "PASS", SubType: "SHORT LEFT", Attempts: 30, SuccessRate: 70},
		{PlayType: "RUSH", SubType: "", Attempts: 10, SuccessRate: 60},
		{PlayType: "PASS", SubType: "DEEP", Attempts: 5},
		{PlayType: "RUSH", SubType: "LEFT", Attempts: 5},
		{PlayType: "RUSH", SubType: "RIGHT", Attempts: 5},
		{PlayType: "SCRAMBLE", SubType: "", Attempts: 45},
	}
	got := IdealPlays(breakdown)
	if len(got) != MaxIdealPlays {
		t.Fatalf("expected %d ideal plays, got %d", MaxIdealPlays, len(got))
	}
	if math.Abs(got[0].Likelihood-30) > eps {
		t.Errorf("share = %.2f, want 30", got[0].Likelihood)
	}
	if got[1].SubType != "Balanced" {
		t.Errorf("empty sub-type should read Balanced, got %q", got[1].SubType)
	}
	if len(IdealPlays(nil)) != 0 {
		t.Error("expected no ideal plays for empty breakdown")
	}
}

func TestLikelihoods(t *testing.T) {
	s := model.NewSituation(2, 1, 10, 70, 5, 0, false)
	plays := []*model.Play{
		with(pass(12, "SHORT LEFT"), firstDown),
		with(with(pass(25, "DEEP LEFT"), firstDown), scored),
		with(rush(11, "LEFT"), firstDown),
		rush(2, "LEFT"),
		{PlayType: "FIELD GOAL", Description: "42 YARD FIELD GOAL IS GOOD"},
	}
	got := Likelihoods(s, plays)
	if len(got) != 3 {
		t.Fatalf("expected 3 likelihoods, got %+v", got)
	}
	if got[0].Name != "First Down" || math.Abs(got[0].Percentage-60) > eps {
		t.Errorf("first = %+v", got[0])
	}
	if math.Abs(got[0].PassingPercentage-200.0/3) > 1e-6 {
		t.Errorf("first-down pass share = %.3f", got[0].PassingPercentage)
	}
	if got[1].Percentage != 20 || got[2].Percentage != 20 {
		t.Errorf("tail percentages = %.1f, %.1f", got[1].Percentage, got[2].Percentage)
	}
	if got[1].Name != "Touchdown" {
		t.Errorf("ties keep insertion order, got %s", got[1].Name)
	}
}

func TestLikelihoods_TwoPoint(t *testing.T) {
	s := model.NewSituation(4, 0, 0, 98, 1, 0, true)
	conv := func(desc string, ok bool) *model.Play {
		return &model.Play{PlayType: "PASS", Description: desc, IsTwoPointConversion: true, IsTwoPointConversionSuccessful: ok}
	}
	plays := []*model.Play{
		conv("TWO-POINT CONVERSION ATTEMPT. PASS TO X. ATTEMPT SUCCEEDS.", true),
		conv("TWO-POINT CONVERSION ATTEMPT. RUSH UP THE MIDDLE. ATTEMPT SUCCEEDS.", true),
		conv("TWO-POINT CONVERSION ATTEMPT. PASS INCOMPLETE. ATTEMPT FAILS.", false),
		{PlayType: "EXTRA POINT", IsTwoPointConversion: true, IsTwoPointConversionSuccessful: true},
	}
	got := Likelihoods(s, plays)
	if len(got) != 1 || got[0].Name != "Two Point Conversion" {
		t.Fatalf("unexpected likelihoods %+v", got)
	}
	if math.Abs(got[0].Percentage-50) > eps {
		t.Errorf("conversion pct = %.2f, want 50", got[0].Percentage)
	}
	if got[0].PassingPercentage != 50 || got[0].RushingPercentage != 50 {
		t.Errorf("split = %.1f/%.1f", got[0].PassingPercentage, got[0].RushingPercentage)
	}
}

func TestAggregate_Composes(t *testing.T) {
	s := model.NewSituation(1, 1, 10, 50, 7, 30, false)
	sum := Aggregate(s, scenarioPlays())
	if sum.RunVsPass.Recommendation != model.RecommendPass {
		t.Errorf("recommendation = %s", sum.RunVsPass.Recommendation)
	}
	if len(sum.Breakdown) != 2 {
		t.Errorf("breakdown groups = %d, want 2", len(sum.Breakdown))
	}
	if !strings.HasPrefix(sum.Strategy, "Spread the field") {
		t.Errorf("strategy = %q", sum.Strategy)
	}
	if math.Abs(sum.AverageYards-(40*4.0+60*6.5)/100) > eps {
		t.Errorf("average yards = %.3f", sum.AverageYards)
	}
}
