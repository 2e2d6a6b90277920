// Package similarity narrows a corpus to plays run in a comparable situation,
// relaxing its windows when too few plays match.
package similarity

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pable/playcall/internal/model"
	"github.com/pable/playcall/internal/situation"
)

// Tier identifies the window set that produced a candidate list.
type Tier int

const (
	TierTwoPoint  Tier = iota // fixed goal-line window for conversion tries
	TierExact                 // distance, field position, and clock windows
	TierNoClock               // clock window dropped
	TierWideField             // clock dropped, field position widened to +/-10
)

func (t Tier) String() string {
	switch t {
	case TierTwoPoint:
		return "two-point"
	case TierExact:
		return "exact"
	case TierNoClock:
		return "no-clock"
	case TierWideField:
		return "wide-field"
	default:
		return "?"
	}
}

// Escalation thresholds: a tier with fewer matches than this moves on to the next.
const (
	MinExactMatches   = 50
	MinNoClockMatches = 30
)

const (
	yardLineLeeway     = 5
	wideYardLineLeeway = 10
)

// Result is the candidate list plus the tier that produced it.
type Result struct {
	Plays []*model.Play
	Tier  Tier
}

// window is one complete match predicate.
type window struct {
	quarter, down int
	toGo, yard    situation.Bounds
	clock         situation.Bounds
	useClock      bool
}

func (w window) match(p *model.Play) bool {
	return p.Quarter == w.quarter &&
		p.Down == w.down &&
		w.toGo.Contains(p.ToGo) &&
		w.yard.Contains(p.YardLine) &&
		(!w.useClock || w.clock.Contains(p.TimeAsInt))
}

// windows returns the predicates to try in order for s.
func windows(s model.Situation) []window {
	base := window{
		quarter:  s.Quarter,
		down:     s.Down,
		clock:    situation.TimeBounds(s.Minutes, s.Seconds),
		useClock: true,
	}
	if s.Down == 0 {
		base.toGo = situation.Bounds{Lo: 0, Hi: 0}
		base.yard = situation.Bounds{Lo: 98, Hi: 99}
		return []window{base}
	}
	base.toGo = situation.ToGoBounds(s.ToGo)
	base.yard = situation.YardLineBounds(s.YardLine, yardLineLeeway)

	noClock := base
	noClock.useClock = false

	wide := noClock
	wide.yard = situation.YardLineBounds(s.YardLine, wideYardLineLeeway)

	return []window{base, noClock, wide}
}

// Filter scans corpus with progressively looser windows. Each tier rescans the
// whole corpus and the last tier attempted is returned; tiers are never merged.
// Two-point tries (down 0) use a single fixed window.
func Filter(s model.Situation, corpus []*model.Play) Result {
	return run(s, func(w window) []*model.Play { return scan(w, corpus) })
}

// FilterParallel is Filter with each tier's scan split across contiguous shards.
// Shard results are concatenated in shard order, so the output equals Filter's.
func FilterParallel(ctx context.Context, s model.Situation, corpus []*model.Play, shards int) (Result, error) {
	if shards <= 1 || len(corpus) < shards {
		return Filter(s, corpus), nil
	}
	var scanErr error
	res := run(s, func(w window) []*model.Play {
		if scanErr != nil {
			return nil
		}
		plays, err := scanSharded(ctx, w, corpus, shards)
		if err != nil {
			scanErr = err
		}
		return plays
	})
	if scanErr != nil {
		return Result{}, scanErr
	}
	return res, nil
}

func run(s model.Situation, scanFn func(window) []*model.Play) Result {
	ws := windows(s)
	if s.Down == 0 {
		return Result{Plays: scanFn(ws[0]), Tier: TierTwoPoint}
	}

	plays := scanFn(ws[0])
	if len(plays) >= MinExactMatches {
		return Result{Plays: plays, Tier: TierExact}
	}
	plays = scanFn(ws[1])
	if len(plays) >= MinNoClockMatches {
		return Result{Plays: plays, Tier: TierNoClock}
	}
	return Result{Plays: scanFn(ws[2]), Tier: TierWideField}
}

func scan(w window, corpus []*model.Play) []*model.Play {
	out := []*model.Play{}
	for _, p := range corpus {
		if w.match(p) {
			out = append(out, p)
		}
	}
	return out
}

func scanSharded(ctx context.Context, w window, corpus []*model.Play, shards int) ([]*model.Play, error) {
	parts := make([][]*model.Play, shards)
	size := (len(corpus) + shards - 1) / shards

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < shards; i++ {
		lo := i * size
		hi := min(lo+size, len(corpus))
		if lo >= hi {
			continue
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parts[i] = scan(w, corpus[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, part := range parts {
		total += len(part)
	}
	out := make([]*model.Play, 0, total)
	for _, part := range parts {
		out = append(out, part...)
	}
	return out, nil
}
