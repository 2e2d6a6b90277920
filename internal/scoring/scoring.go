// Package scoring rates candidate plays and picks a representative best play.
package scoring

import (
	"sort"

	"github.com/pable/playcall/internal/model"
)

// Rating is the sum of a play's precomputed outcome weights. Higher is better.
func Rating(p *model.Play) float64 {
	return p.FirstDownWeight + p.YardsWeight + p.TouchdownWeight +
		p.InterceptionWeight + p.FumbleWeight + p.TwoPointWeight
}

// Rank returns a copy of plays sorted by rating, highest first. Ties keep input order.
func Rank(plays []*model.Play) []*model.Play {
	ranked := make([]*model.Play, len(plays))
	copy(ranked, plays)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Rating(ranked[i]) > Rating(ranked[j])
	})
	return ranked
}

// Best returns the highest-ranked play that gained ground without an incompletion
// or interception, falling back to the top-ranked play. Nil only when ranked is empty.
func Best(ranked []*model.Play) *model.Play {
	for _, p := range ranked {
		if !p.IsIncomplete && !p.IsInterception && p.ResultingYards >= 0 {
			return p
		}
	}
	if len(ranked) > 0 {
		return ranked[0]
	}
	return nil
}
