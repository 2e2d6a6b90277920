package similarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/playcall/internal/model"
)

func play(id, quarter, down, toGo, yardLine, mins, secs int) *model.Play {
	p := &model.Play{
		GameID: id, Quarter: quarter, Down: down, ToGo: toGo, YardLine: yardLine,
		Minutes: mins, Seconds: secs, PlayType: "PASS", IsPass: true,
	}
	model.DeriveWeights(p)
	return p
}

// repeat appends n copies of the situation with ids starting at from.
func repeat(corpus []*model.Play, n, from, quarter, down, toGo, yardLine, mins, secs int) []*model.Play {
	for i := 0; i < n; i++ {
		corpus = append(corpus, play(from+i, quarter, down, toGo, yardLine, mins, secs))
	}
	return corpus
}

var firstAndTen = model.NewSituation(1, 1, 10, 50, 7, 30, false)

func TestFilter_ExactTierSufficient(t *testing.T) {
	var corpus []*model.Play
	corpus = repeat(corpus, 50, 0, 1, 1, 10, 50, 7, 0)
	corpus = repeat(corpus, 20, 100, 1, 1, 10, 50, 12, 0) // outside clock window

	res := Filter(firstAndTen, corpus)
	assert.Equal(t, TierExact, res.Tier)
	assert.Len(t, res.Plays, 50)
}

func TestFilter_49ExactMatchesEscalatesToNoClock(t *testing.T) {
	var corpus []*model.Play
	corpus = repeat(corpus, 49, 0, 1, 1, 10, 50, 7, 0)
	corpus = repeat(corpus, 20, 100, 1, 1, 10, 50, 12, 0)

	res := Filter(firstAndTen, corpus)
	assert.Equal(t, TierNoClock, res.Tier)
	assert.Len(t, res.Plays, 69)
}

func TestFilter_29NoClockMatchesEscalatesToWideField(t *testing.T) {
	var corpus []*model.Play
	corpus = repeat(corpus, 20, 0, 1, 1, 10, 50, 7, 0)
	corpus = repeat(corpus, 9, 100, 1, 1, 10, 50, 12, 0)
	corpus = repeat(corpus, 5, 200, 1, 1, 10, 59, 12, 0) // only inside +/-10
	corpus = repeat(corpus, 5, 300, 1, 1, 10, 61, 12, 0) // outside every window

	res := Filter(firstAndTen, corpus)
	assert.Equal(t, TierWideField, res.Tier)
	assert.Len(t, res.Plays, 34)
}

func TestFilter_30NoClockMatchesStops(t *testing.T) {
	var corpus []*model.Play
	corpus = repeat(corpus, 30, 0, 1, 1, 10, 50, 12, 0)
	corpus = repeat(corpus, 5, 200, 1, 1, 10, 59, 12, 0)

	res := Filter(firstAndTen, corpus)
	assert.Equal(t, TierNoClock, res.Tier)
	assert.Len(t, res.Plays, 30)
}

func TestFilter_LastTierReturnedEvenWhenEmpty(t *testing.T) {
	corpus := repeat(nil, 10, 0, 2, 1, 10, 50, 7, 0)
	res := Filter(firstAndTen, corpus)
	assert.Equal(t, TierWideField, res.Tier)
	assert.NotNil(t, res.Plays)
	assert.Empty(t, res.Plays)
}

func TestFilter_TwoPointNeverEscalates(t *testing.T) {
	var corpus []*model.Play
	corpus = repeat(corpus, 3, 0, 4, 0, 0, 98, 2, 0)
	corpus = repeat(corpus, 2, 10, 4, 0, 0, 99, 2, 30)
	corpus = repeat(corpus, 40, 100, 4, 0, 0, 97, 2, 0) // yard line outside [98,99]
	corpus = repeat(corpus, 40, 200, 4, 0, 2, 98, 2, 0) // distance outside [0,0]
	corpus = repeat(corpus, 40, 300, 4, 0, 0, 98, 9, 0) // clock outside window

	// The stated yard line is ignored for conversions.
	s := model.NewSituation(4, 0, 2, 15, 2, 10, true)
	res := Filter(s, corpus)
	assert.Equal(t, TierTwoPoint, res.Tier)
	require.Len(t, res.Plays, 5)
	for _, p := range res.Plays {
		assert.GreaterOrEqual(t, p.YardLine, 98)
		assert.LessOrEqual(t, p.YardLine, 99)
		assert.Equal(t, 0, p.ToGo)
	}
}

func TestFilter_ZeroDistanceMatchesOnlyZero(t *testing.T) {
	var corpus []*model.Play
	corpus = repeat(corpus, 50, 0, 3, 4, 0, 99, 5, 0)
	corpus = repeat(corpus, 50, 100, 3, 4, 1, 99, 5, 0)

	res := Filter(model.NewSituation(3, 4, 0, 99, 5, 0, false), corpus)
	assert.Equal(t, TierExact, res.Tier)
	require.Len(t, res.Plays, 50)
	assert.Equal(t, 0, res.Plays[0].GameID)
}

func TestFilter_PreservesCorpusOrder(t *testing.T) {
	corpus := []*model.Play{
		play(3, 1, 1, 10, 50, 7, 0),
		play(1, 1, 1, 11, 52, 7, 0),
		play(2, 1, 1, 9, 48, 7, 0),
	}
	res := Filter(firstAndTen, corpus)
	require.Len(t, res.Plays, 3)
	assert.Equal(t, 3, res.Plays[0].GameID)
	assert.Equal(t, 1, res.Plays[1].GameID)
	assert.Equal(t, 2, res.Plays[2].GameID)
}

func TestFilterParallel_MatchesSequential(t *testing.T) {
	var corpus []*model.Play
	for i := 0; i < 997; i++ {
		corpus = append(corpus, play(i, 1+i%2, 1+i%3, 8+i%5, 40+i%20, i%15, i%60))
	}
	situations := []model.Situation{
		firstAndTen,
		model.NewSituation(2, 2, 9, 45, 3, 0, false),
		model.NewSituation(1, 3, 12, 59, 14, 59, false),
	}
	for _, s := range situations {
		want := Filter(s, corpus)
		for _, shards := range []int{0, 1, 3, 8, 64} {
			got, err := FilterParallel(context.Background(), s, corpus, shards)
			require.NoError(t, err)
			assert.Equal(t, want.Tier, got.Tier)
			assert.Equal(t, want.Plays, got.Plays, "shards=%d", shards)
		}
	}
}

func TestFilterParallel_CanceledContext(t *testing.T) {
	corpus := repeat(nil, 100, 0, 1, 1, 10, 50, 7, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FilterParallel(ctx, firstAndTen, corpus, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "exact", TierExact.String())
	assert.Equal(t, "two-point", TierTwoPoint.String())
	assert.Equal(t, "no-clock", TierNoClock.String())
	assert.Equal(t, "wide-field", TierWideField.String())
}
