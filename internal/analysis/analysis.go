// Package analysis turns a situation and a frozen corpus into an AnalysisResult.
//
// A Corpus owns its plays and the index built over them. Two candidate sources
// feed the same ranking and aggregation pipeline: a tiered filter over the whole
// corpus, and an exact index bucket narrowed by that same filter. The two can
// disagree for the same situation because the bucket is keyed on a coarse code
// while the filter works on windows; both are kept as-is.
package analysis

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pable/playcall/internal/aggregator"
	"github.com/pable/playcall/internal/index"
	"github.com/pable/playcall/internal/model"
	"github.com/pable/playcall/internal/scoring"
	"github.com/pable/playcall/internal/similarity"
)

// Candidate source names.
const (
	StrategyFilter = "filter"
	StrategyIndex  = "index"
)

// MaxSampleGameIDs caps the game ids attached to a no-gain result.
const MaxSampleGameIDs = 5

// CandidateSource yields the plays comparable to a situation.
type CandidateSource interface {
	Name() string
	Candidates(ctx context.Context, s model.Situation) (similarity.Result, error)
}

// Corpus is a named, immutable play set and its index. Build once with NewCorpus
// and share freely; nothing mutates it afterwards.
type Corpus struct {
	name   string
	plays  []*model.Play
	idx    *index.Index
	shards int
}

// Option configures a Corpus.
type Option func(*Corpus)

// WithShards splits filter scans across n goroutines. n <= 1 scans sequentially.
func WithShards(n int) Option {
	return func(c *Corpus) { c.shards = n }
}

// NewCorpus copies plays, derives their weights, and builds the situation index.
func NewCorpus(name string, plays []model.Play, opts ...Option) *Corpus {
	owned := make([]model.Play, len(plays))
	copy(owned, plays)

	ptrs := make([]*model.Play, len(owned))
	for i := range owned {
		model.DeriveWeights(&owned[i])
		ptrs[i] = &owned[i]
	}

	c := &Corpus{name: name, plays: ptrs}
	for _, o := range opts {
		o(c)
	}
	c.idx = index.Build(ptrs)

	logrus.WithFields(logrus.Fields{
		"corpus":  name,
		"plays":   len(ptrs),
		"indexed": c.idx.Len(),
		"buckets": c.idx.Cap(),
	}).Debug("corpus built")
	return c
}

// Name is the corpus name.
func (c *Corpus) Name() string { return c.name }

// Len is the number of plays in the corpus.
func (c *Corpus) Len() int { return len(c.plays) }

// Plays returns the corpus plays. Callers must not modify them.
func (c *Corpus) Plays() []*model.Play { return c.plays }

// Index returns the situation index built over the corpus.
func (c *Corpus) Index() *index.Index { return c.idx }

// FilterSource scans the whole corpus with the tiered filter.
func (c *Corpus) FilterSource() CandidateSource { return filterSource{c} }

// IndexSource looks up the situation's bucket and filters within it.
func (c *Corpus) IndexSource() CandidateSource { return indexSource{c} }

// Source returns the candidate source with the given name.
func (c *Corpus) Source(strategy string) (CandidateSource, error) {
	switch strategy {
	case "", StrategyFilter:
		return c.FilterSource(), nil
	case StrategyIndex:
		return c.IndexSource(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want %s or %s)", strategy, StrategyFilter, StrategyIndex)
	}
}

// Analyze runs s against the corpus using the named strategy.
func (c *Corpus) Analyze(ctx context.Context, s model.Situation, strategy string) (model.AnalysisResult, error) {
	src, err := c.Source(strategy)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	return Analyze(ctx, s, src)
}

type filterSource struct{ c *Corpus }

func (f filterSource) Name() string { return StrategyFilter }

func (f filterSource) Candidates(ctx context.Context, s model.Situation) (similarity.Result, error) {
	return similarity.FilterParallel(ctx, s, f.c.plays, f.c.shards)
}

type indexSource struct{ c *Corpus }

func (i indexSource) Name() string { return StrategyIndex }

func (i indexSource) Candidates(ctx context.Context, s model.Situation) (similarity.Result, error) {
	if err := ctx.Err(); err != nil {
		return similarity.Result{}, err
	}
	return similarity.Filter(s, i.c.idx.Lookup(s)), nil
}

// Analyze gathers candidates from src and assembles the result. The only error is
// a canceled or expired context; every analytical outcome is a result state.
func Analyze(ctx context.Context, s model.Situation, src CandidateSource) (model.AnalysisResult, error) {
	found, err := src.Candidates(ctx, s)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("find candidates: %w", err)
	}
	res := Assemble(s, found.Plays)
	res.Source = src.Name()
	if len(found.Plays) > 0 {
		res.Tier = found.Tier.String()
	}

	logrus.WithFields(logrus.Fields{
		"source":     res.Source,
		"tier":       res.Tier,
		"candidates": res.TotalSimilarPlays,
		"noMatch":    res.NoMatch,
	}).Debug("situation analyzed")
	return res, nil
}

// Assemble ranks and aggregates an already selected candidate set.
func Assemble(s model.Situation, candidates []*model.Play) model.AnalysisResult {
	if len(candidates) == 0 {
		res := emptyResult()
		res.NoMatch = true
		return res
	}

	ranked := scoring.Rank(candidates)
	sum := aggregator.Aggregate(s, candidates)

	best := scoring.Best(ranked)
	if best == nil {
		// Degenerate set: keep the aggregates and a few ids for tracing.
		res := emptyResult()
		res.NoGainMatch = true
		res.TotalSimilarPlays = len(candidates)
		res.GameIDs = sampleGameIDs(ranked)
		res.RunVsPass = &sum.RunVsPass
		res.PlayTypeBreakdown = sum.Breakdown
		res.RiskAssessment = &sum.Risk
		res.AverageYards = sum.AverageYards
		res.RecommendedStrategy = sum.Strategy
		return res
	}

	return model.AnalysisResult{
		TotalSimilarPlays:   len(candidates),
		BestPlay:            best,
		RunVsPass:           &sum.RunVsPass,
		PlayTypeBreakdown:   sum.Breakdown,
		RiskAssessment:      &sum.Risk,
		AverageYards:        sum.AverageYards,
		RecommendedStrategy: sum.Strategy,
		IdealPlays:          sum.IdealPlays,
		Likelihoods:         sum.Likelihoods,
	}
}

func emptyResult() model.AnalysisResult {
	return model.AnalysisResult{
		PlayTypeBreakdown: []model.PlayTypeStats{},
		IdealPlays:        []model.IdealPlay{},
		Likelihoods:       []model.Likelihood{},
	}
}

func sampleGameIDs(ranked []*model.Play) []int {
	n := min(len(ranked), MaxSampleGameIDs)
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		ids[i] = ranked[i].GameID
	}
	return ids
}
