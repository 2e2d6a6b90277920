package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/playcall/internal/model"
)

// makePlay returns a weighted play at the given situation.
func makePlay(gameID, quarter, down, toGo, yardLine, mins, secs int, playType string) *model.Play {
	p := &model.Play{
		GameID: gameID, Quarter: quarter, Down: down, ToGo: toGo, YardLine: yardLine,
		Minutes: mins, Seconds: secs, PlayType: playType, IsRush: playType == "RUSH",
		IsPass: playType == "PASS",
	}
	model.DeriveWeights(p)
	return p
}

func firstAndTen() model.Situation {
	return model.NewSituation(1, 1, 10, 50, 7, 30, false)
}

func TestBuild_SkipsAdministrativeSnaps(t *testing.T) {
	plays := []*model.Play{makePlay(1, 1, 1, 10, 50, 7, 30, "RUSH")}
	for i, pt := range []string{"", "NO PLAY", "TIMEOUT", "KICK OFF", "PUNT", "EXTRA POINT", "QB KNEEL"} {
		plays = append(plays, makePlay(100+i, 1, 1, 10, 50, 7, 30, pt))
	}

	idx := Build(plays)
	require.Equal(t, 1, idx.Len())
	got := idx.Lookup(firstAndTen())
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].GameID)
}

func TestLookup_LIFOWithinBucket(t *testing.T) {
	plays := []*model.Play{
		makePlay(1, 1, 1, 10, 50, 7, 30, "PASS"),
		makePlay(2, 1, 1, 9, 55, 6, 0, "RUSH"),
		makePlay(3, 1, 1, 12, 59, 4, 31, "PASS"),
	}
	idx := Build(plays)

	got := idx.Lookup(firstAndTen())
	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{got[0].GameID, got[1].GameID, got[2].GameID})
	// Shared, not copied.
	assert.Same(t, plays[0], got[2])
}

func TestLookup_EmptyBucket(t *testing.T) {
	idx := Build([]*model.Play{makePlay(1, 1, 1, 10, 50, 7, 30, "PASS")})
	got := idx.Lookup(model.NewSituation(4, 4, 1, 2, 0, 10, false))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLookup_CollisionsShareBucket(t *testing.T) {
	// 11251 and 10253 are congruent mod 499.
	a := makePlay(1, 1, 1, 10, 50, 7, 30, "PASS")
	b := makePlay(2, 1, 0, 10, 50, 1, 0, "PASS")
	idx := Build([]*model.Play{a, b})

	got := idx.Lookup(firstAndTen())
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].GameID)
	assert.Equal(t, idx.Bucket(firstAndTen()), idx.Bucket(model.NewSituation(1, 0, 10, 50, 1, 0, true)))
}

func TestPrimeBelow(t *testing.T) {
	assert.Equal(t, 499, primeBelow(500))
	assert.Equal(t, 491, primeBelow(499))
	assert.Equal(t, 7, primeBelow(10))
	// Past the table the last prime is reused.
	assert.Equal(t, MaxPrime, primeBelow(1000))
	assert.Equal(t, MaxPrime, primeBelow(64000))
}

func TestInsert_LoadFactorInvariant(t *testing.T) {
	idx := newIndex(InitialCapacity)
	for i := 0; i < 2000; i++ {
		idx.insert(makePlay(i, 1+i%4, 1+i%4, i%30, 1+i%99, i%15, i%60, "PASS"))
		require.LessOrEqual(t, idx.LoadFactor(), MaxLoadFactor, "after insert %d", i)
	}
	assert.Equal(t, 2000, idx.Len())
}

func TestRehash_DoublesCapacityAndKeepsEntries(t *testing.T) {
	idx := newIndex(InitialCapacity)
	seen := make(map[int]bool)
	for i := 0; i < 350; i++ {
		idx.insert(makePlay(i, 2, 3, 4, i%99+1, 5, 0, "RUSH"))
	}
	require.Equal(t, InitialCapacity, idx.Cap())
	require.Equal(t, 0, idx.rehashes)

	idx.insert(makePlay(350, 2, 3, 4, 10, 5, 0, "RUSH"))
	assert.Equal(t, 2*InitialCapacity, idx.Cap())
	assert.Equal(t, 351, idx.Len())
	assert.Equal(t, 1, idx.rehashes)

	for _, head := range idx.heads {
		for n := head; n != nilNode; n = idx.nodes[n].next {
			seen[idx.nodes[n].play.GameID] = true
		}
	}
	assert.Len(t, seen, 351)
}

func TestStats(t *testing.T) {
	plays := []*model.Play{
		makePlay(1, 1, 1, 10, 50, 7, 30, "PASS"),
		makePlay(2, 1, 1, 10, 50, 7, 30, "RUSH"),
		makePlay(3, 3, 2, 5, 20, 1, 0, "RUSH"),
	}
	st := Build(plays).Stats()
	assert.Equal(t, 3, st.Entries)
	assert.Equal(t, InitialCapacity, st.Capacity)
	assert.Equal(t, 499, st.Modulus)
	assert.Equal(t, 2, st.UsedBuckets)
	assert.Equal(t, 2, st.LongestChain)
	assert.InDelta(t, 3.0/500, st.LoadFactor, 1e-9)
}
