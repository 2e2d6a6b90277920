package model

import (
	"errors"
	"fmt"
	"math"
)

// Outcome weights applied once at ingestion. Turnover penalties are large enough
// that any turnover dominates a play's rating.
const (
	FirstDownWeight    = 10.0
	TouchdownWeight    = 10.0
	InterceptionWeight = -100.0
	FumbleWeight       = -1000.0
	TwoPointWeight     = 5.0
)

// ErrInvalidSituation is returned by Situation.Validate.
var ErrInvalidSituation = errors.New("invalid situation")

// ---- Historical plays ----

// Play is one immutable play-by-play record. Plays are created during ingestion
// and shared read-only, by pointer, for the lifetime of a corpus.
type Play struct {
	GameID    int    `json:"gameId"`
	GameDate  string `json:"gameDate"`
	Offense   string `json:"offense"`
	Defense   string `json:"defense"`
	Quarter   int    `json:"quarter"`
	Minutes   int    `json:"minutes"`
	Seconds   int    `json:"seconds"`
	TimeAsInt int    `json:"timeAsInt"` // 7:05 -> 705
	Down      int    `json:"down"`      // 0 = two-point try
	ToGo      int    `json:"toGo"`
	YardLine  int    `json:"yardLine"`

	ResultIsFirstDown              bool `json:"resultIsFirstDown"`
	IsRush                         bool `json:"isRush"`
	IsPass                         bool `json:"isPass"`
	IsIncomplete                   bool `json:"isIncomplete"`
	IsTouchdown                    bool `json:"isTouchdown"`
	IsSack                         bool `json:"isSack"`
	IsInterception                 bool `json:"isInterception"`
	IsFumble                       bool `json:"isFumble"`
	IsTwoPointConversion           bool `json:"isTwoPointConversion"`
	IsTwoPointConversionSuccessful bool `json:"isTwoPointConversionSuccessful"`

	Description    string `json:"description"`
	ResultingYards int    `json:"resultingYards"`
	Formation      string `json:"formation"`
	PlayType       string `json:"playType"`
	PassType       string `json:"passType"`
	RushDirection  string `json:"rushDirection"`

	// Derived by DeriveWeights.
	FirstDownWeight    float64 `json:"-"`
	YardsWeight        float64 `json:"-"`
	TouchdownWeight    float64 `json:"-"`
	InterceptionWeight float64 `json:"-"`
	FumbleWeight       float64 `json:"-"`
	TwoPointWeight     float64 `json:"-"`
}

// SubType is the pass type for passes, the rush direction for rushes, and empty otherwise.
func (p *Play) SubType() string {
	switch {
	case p.IsPass:
		return p.PassType
	case p.IsRush:
		return p.RushDirection
	default:
		return ""
	}
}

// IsTurnover reports an interception or a fumble.
func (p *Play) IsTurnover() bool {
	return p.IsInterception || p.IsFumble
}

// IsSuccess is a first down, a touchdown, or positive yardage that was not an incompletion.
func (p *Play) IsSuccess() bool {
	return p.ResultIsFirstDown || p.IsTouchdown || (p.ResultingYards > 0 && !p.IsIncomplete)
}

// Clock formats the game clock as MM:SS.
func (p *Play) Clock() string {
	return fmt.Sprintf("%02d:%02d", p.Minutes, p.Seconds)
}

// CheckOutcome rejects outcome flag combinations no real play can have.
func (p *Play) CheckOutcome() error {
	if p.IsIncomplete && !p.IsPass {
		return fmt.Errorf("incomplete flag on a non-pass play")
	}
	if p.IsRush && p.IsPass {
		return fmt.Errorf("play marked both rush and pass")
	}
	if p.IsTwoPointConversionSuccessful && !p.IsTwoPointConversion {
		return fmt.Errorf("successful two-point flag without a two-point attempt")
	}
	return nil
}

// DeriveWeights fills TimeAsInt and the outcome weights from the raw fields.
func DeriveWeights(p *Play) {
	p.TimeAsInt = TimeAsInt(p.Minutes, p.Seconds)
	p.FirstDownWeight, p.TouchdownWeight = 0, 0
	p.InterceptionWeight, p.FumbleWeight, p.TwoPointWeight = 0, 0, 0
	if p.ResultIsFirstDown {
		p.FirstDownWeight = FirstDownWeight
	}
	if p.IsTouchdown {
		p.TouchdownWeight = TouchdownWeight
	}
	if p.IsInterception {
		p.InterceptionWeight = InterceptionWeight
	}
	if p.IsFumble {
		p.FumbleWeight = FumbleWeight
	}
	if p.IsTwoPointConversionSuccessful {
		p.TwoPointWeight = TwoPointWeight
	}
	p.YardsWeight = YardsWeight(p.ResultingYards)
}

// YardsWeight grows sublinearly with gained or lost yardage, keeping the sign.
func YardsWeight(yards int) float64 {
	if yards < 0 {
		return -math.Pow(float64(-yards), 0.75)
	}
	return math.Pow(float64(yards), 0.75)
}

// TimeAsInt concatenates minutes with zero-padded seconds: 7:05 -> 705.
func TimeAsInt(minutes, seconds int) int {
	return minutes*100 + seconds
}

// ---- Queries ----

// Situation is the game state a caller wants a play call for.
type Situation struct {
	Quarter              int  `json:"quarter" yaml:"quarter"`
	Down                 int  `json:"down" yaml:"down"`
	ToGo                 int  `json:"toGo" yaml:"toGo"`
	YardLine             int  `json:"yardLine" yaml:"yardLine"`
	Minutes              int  `json:"minutes" yaml:"minutes"`
	Seconds              int  `json:"seconds" yaml:"seconds"`
	TimeAsInt            int  `json:"timeAsInt" yaml:"-"`
	IsTwoPointConversion bool `json:"isTwoPointConversion" yaml:"twoPoint"`
}

// NewSituation builds a Situation with TimeAsInt filled in.
func NewSituation(quarter, down, toGo, yardLine, minutes, seconds int, twoPoint bool) Situation {
	return Situation{
		Quarter:              quarter,
		Down:                 down,
		ToGo:                 toGo,
		YardLine:             yardLine,
		Minutes:              minutes,
		Seconds:              seconds,
		TimeAsInt:            TimeAsInt(minutes, seconds),
		IsTwoPointConversion: twoPoint,
	}
}

// Normalize recomputes TimeAsInt; decoded situations only carry minutes and seconds.
func (s *Situation) Normalize() {
	s.TimeAsInt = TimeAsInt(s.Minutes, s.Seconds)
}

// Validate enforces the input boundary ranges. The analysis core assumes they hold.
func (s Situation) Validate() error {
	switch {
	case s.Quarter < 1 || s.Quarter > 4:
		return fmt.Errorf("%w: quarter %d not in 1-4", ErrInvalidSituation, s.Quarter)
	case s.Down < 0 || s.Down > 4:
		return fmt.Errorf("%w: down %d not in 0-4", ErrInvalidSituation, s.Down)
	case s.ToGo < 0 || s.ToGo > 99:
		return fmt.Errorf("%w: distance %d not in 0-99", ErrInvalidSituation, s.ToGo)
	case s.YardLine < 1 || s.YardLine > 99:
		return fmt.Errorf("%w: yard line %d not in 1-99", ErrInvalidSituation, s.YardLine)
	case s.Minutes < 0 || s.Minutes > 15 || s.Seconds < 0 || s.Seconds > 59:
		return fmt.Errorf("%w: clock %02d:%02d", ErrInvalidSituation, s.Minutes, s.Seconds)
	case s.Minutes == 15 && s.Seconds > 0:
		return fmt.Errorf("%w: clock %02d:%02d exceeds 15:00", ErrInvalidSituation, s.Minutes, s.Seconds)
	case s.IsTwoPointConversion && s.Down != 0:
		return fmt.Errorf("%w: two-point try must use down 0", ErrInvalidSituation)
	}
	return nil
}

// DownLabel is "conversion" for two-point tries and "down N" otherwise.
func (s Situation) DownLabel() string {
	if s.Down == 0 {
		return "conversion"
	}
	return fmt.Sprintf("down %d", s.Down)
}

// ---- Analysis output ----

// Recommendation is the run-vs-pass verdict.
type Recommendation string

const (
	RecommendRun      Recommendation = "run"
	RecommendPass     Recommendation = "pass"
	RecommendBalanced Recommendation = "balanced"
)

type RunVsPassComparison struct {
	RunAttempts       int            `json:"runAttempts"`
	RunSuccessRate    float64        `json:"runSuccessRate"`
	RunAvgYards       float64        `json:"runAvgYards"`
	RunFirstDownRate  float64        `json:"runFirstDownRate"`
	RunTurnoverRate   float64        `json:"runTurnoverRate"`
	PassAttempts      int            `json:"passAttempts"`
	PassSuccessRate   float64        `json:"passSuccessRate"`
	PassAvgYards      float64        `json:"passAvgYards"`
	PassFirstDownRate float64        `json:"passFirstDownRate"`
	PassTurnoverRate  float64        `json:"passTurnoverRate"`
	RunScore          float64        `json:"runScore"`
	PassScore         float64        `json:"passScore"`
	Recommendation    Recommendation `json:"recommendation"`
}

// PlayTypeStats aggregates one (play type, sub-type) group. Rates are percentages.
type PlayTypeStats struct {
	PlayType         string  `json:"playType"`
	SubType          string  `json:"subType"`
	Attempts         int     `json:"attempts"`
	Successes        int     `json:"successes"`
	SuccessRate      float64 `json:"successRate"`
	AvgYards         float64 `json:"avgYards"`
	Touchdowns       int     `json:"touchdowns"`
	Turnovers        int     `json:"turnovers"`
	NegativePlayRate float64 `json:"negativePlayRate"`
}

// RiskStats holds percentages. Interception, sack, and incomplete rates are over pass attempts only.
type RiskStats struct {
	OverallTurnoverRate float64 `json:"overallTurnoverRate"`
	InterceptionRate    float64 `json:"interceptionRate"`
	FumbleRate          float64 `json:"fumbleRate"`
	SackRate            float64 `json:"sackRate"`
	NegativePlayRate    float64 `json:"negativePlayRate"`
	IncompleteRate      float64 `json:"incompleteRate"`
}

// IdealPlay is a top breakdown entry with its share of the ranked attempts.
type IdealPlay struct {
	PlayType    string  `json:"playType"`
	SubType     string  `json:"subType"`
	Likelihood  float64 `json:"likelihood"`
	Attempts    int     `json:"attempts"`
	SuccessRate float64 `json:"successRate"`
}

// Likelihood is how often an outcome occurred among the candidates, with the pass/rush split.
type Likelihood struct {
	Name              string  `json:"name"`
	Percentage        float64 `json:"percentage"`
	PassingPercentage float64 `json:"passingPercentage,omitempty"`
	RushingPercentage float64 `json:"rushingPercentage,omitempty"`
}

// AnalysisResult is the full answer to one query. NoMatch and NoGainMatch are terminal states.
type AnalysisResult struct {
	Source              string               `json:"source"`
	Tier                string               `json:"tier,omitempty"`
	TotalSimilarPlays   int                  `json:"totalSimilarPlays"`
	BestPlay            *Play                `json:"bestPlay"`
	NoMatch             bool                 `json:"noMatch"`
	NoGainMatch         bool                 `json:"noGainMatch"`
	GameIDs             []int                `json:"gameIds,omitempty"`
	RunVsPass           *RunVsPassComparison `json:"runVsPass"`
	PlayTypeBreakdown   []PlayTypeStats      `json:"playTypeBreakdown"`
	RiskAssessment      *RiskStats           `json:"riskAssessment"`
	AverageYards        float64              `json:"averageYards"`
	RecommendedStrategy string               `json:"recommendedStrategy"`
	IdealPlays          []IdealPlay          `json:"idealPlays"`
	Likelihoods         []Likelihood         `json:"likelihoods"`
}

// ---- Stored corpora ----

// CorpusSummary is a lightweight record for list/drop commands.
type CorpusSummary struct {
	Name        string
	Fingerprint string // jody64 over accepted rows, hex
	SourcePath  string
	PlayCount   int
	SkippedRows int
	IngestedAt  string
}
