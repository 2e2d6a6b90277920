// Package index buckets historical plays by situational fingerprint in a chained
// hash table. The table is built once from a corpus and read-only afterwards.
package index

import (
	"strconv"

	"github.com/pable/playcall/internal/model"
	"github.com/pable/playcall/internal/situation"
)

const (
	// InitialCapacity is the bucket count of a fresh index.
	InitialCapacity = 500
	// MaxLoadFactor triggers a rehash once exceeded after an insert.
	MaxLoadFactor = 0.70
)

// primes is ascending. Capacities past the last entry keep reducing by MaxPrime,
// so buckets beyond MaxPrime stay empty on large tables.
var primes = []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59,
	61, 67, 71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131, 137, 139,
	149, 151, 157, 163, 167, 173, 179, 181, 191, 193, 197, 199, 211, 223, 227,
	229, 233, 239, 241, 251, 257, 263, 269, 271, 277, 281, 283, 293, 307, 311,
	313, 317, 331, 337, 347, 349, 353, 359, 367, 373, 379, 383, 389, 397, 401,
	409, 419, 421, 431, 433, 439, 443, 449, 457, 461, 463, 467, 479, 487, 491, 499}

// MaxPrime is the largest modulus the index ever reduces by.
var MaxPrime = primes[len(primes)-1]

// excluded play types are administrative snaps, never candidates.
var excluded = map[string]bool{
	"NO PLAY":     true,
	"TIMEOUT":     true,
	"KICK OFF":    true,
	"PUNT":        true,
	"EXTRA POINT": true,
	"QB KNEEL":    true,
}

const nilNode int32 = -1

type node struct {
	play *model.Play
	next int32
}

// Index is a chained hash table: heads[b] is the arena offset of the first node in
// bucket b, and each node links to the next by offset. Chains are LIFO.
type Index struct {
	heads    []int32
	nodes    []node
	modulus  int
	rehashes int
}

// Stats describes bucket occupancy.
type Stats struct {
	Entries      int
	Capacity     int
	Modulus      int
	LoadFactor   float64
	UsedBuckets  int
	LongestChain int
	Rehashes     int
}

// Build indexes every eligible play. Plays are referenced, not copied.
func Build(plays []*model.Play) *Index {
	idx := newIndex(InitialCapacity)
	for _, p := range plays {
		if !Eligible(p) {
			continue
		}
		idx.insert(p)
	}
	return idx
}

// Eligible reports whether a play belongs in the index.
func Eligible(p *model.Play) bool {
	return p.PlayType != "" && !excluded[p.PlayType]
}

func newIndex(capacity int) *Index {
	idx := &Index{
		heads:   make([]int32, capacity),
		modulus: primeBelow(capacity),
	}
	for i := range idx.heads {
		idx.heads[i] = nilNode
	}
	return idx
}

// primeBelow returns the largest tabulated prime strictly less than capacity.
func primeBelow(capacity int) int {
	p := primes[0]
	for _, q := range primes {
		if q >= capacity {
			break
		}
		p = q
	}
	return p
}

func (idx *Index) bucket(code string) int {
	// Codes are always five decimal digits.
	hash, _ := strconv.Atoi(code)
	return hash % idx.modulus
}

func (idx *Index) insert(p *model.Play) {
	idx.link(p)
	if idx.LoadFactor() > MaxLoadFactor {
		idx.rehash()
	}
}

func (idx *Index) link(p *model.Play) {
	b := idx.bucket(situation.CodeOf(p))
	idx.nodes = append(idx.nodes, node{play: p, next: idx.heads[b]})
	idx.heads[b] = int32(len(idx.nodes) - 1)
}

// rehash doubles capacity and relinks every entry, walking old buckets in order
// and each old chain head to tail.
func (idx *Index) rehash() {
	old := *idx
	fresh := newIndex(len(old.heads) * 2)
	fresh.nodes = make([]node, 0, len(old.nodes))
	for _, head := range old.heads {
		for n := head; n != nilNode; n = old.nodes[n].next {
			fresh.link(old.nodes[n].play)
		}
	}
	fresh.rehashes = old.rehashes + 1
	*idx = *fresh
}

// Lookup returns the plays sharing the situation's bucket, most recently inserted
// first. An empty bucket yields an empty slice.
func (idx *Index) Lookup(s model.Situation) []*model.Play {
	b := idx.bucket(situation.CodeOfSituation(s))
	out := []*model.Play{}
	for n := idx.heads[b]; n != nilNode; n = idx.nodes[n].next {
		out = append(out, idx.nodes[n].play)
	}
	return out
}

// Len is the number of indexed plays.
func (idx *Index) Len() int { return len(idx.nodes) }

// Cap is the current bucket count.
func (idx *Index) Cap() int { return len(idx.heads) }

// LoadFactor is entries per bucket.
func (idx *Index) LoadFactor() float64 {
	return float64(len(idx.nodes)) / float64(len(idx.heads))
}

// Bucket returns the bucket a situation hashes to.
func (idx *Index) Bucket(s model.Situation) int {
	return idx.bucket(situation.CodeOfSituation(s))
}

// Stats walks every chain.
func (idx *Index) Stats() Stats {
	st := Stats{
		Entries:    idx.Len(),
		Capacity:   idx.Cap(),
		Modulus:    idx.modulus,
		LoadFactor: idx.LoadFactor(),
		Rehashes:   idx.rehashes,
	}
	for _, head := range idx.heads {
		if head == nilNode {
			continue
		}
		st.UsedBuckets++
		length := 0
		for n := head; n != nilNode; n = idx.nodes[n].next {
			length++
		}
		st.LongestChain = max(st.LongestChain, length)
	}
	return st
}
