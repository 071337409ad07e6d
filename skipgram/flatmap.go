package skipgram

import "sort"

// Bucket is one entry of a FlatMap: a neighbor word id and the cumulative
// probability mass up to and including it.
type Bucket struct {
	Key int
	Cum float64
}

// FlatMap is an ordered (key, cumulative-probability) list supporting
// inverse-CDF sampling. Cumulative values are strictly increasing and the
// last one sums to 1.0 over all observed neighbors.
type FlatMap []Bucket

// Sample returns the key of the first bucket whose cumulative probability
// brackets r, i.e. prev < r <= cum. The upper bound is inclusive: a draw
// equal to a bucket's exact cumulative value selects that bucket. If the
// search bracket collapses without a match the first key is returned; this
// mirrors the original sampler and is covered by a dedicated test rather
// than "fixed".
func (f FlatMap) Sample(r float64) int {
	lo, hi := 0, len(f)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		lower := 0.0
		if mid > 0 {
			lower = f[mid-1].Cum
		}
		switch {
		case r > lower && r <= f[mid].Cum:
			return f[mid].Key
		case r <= lower:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	return f[0].Key
}

// Keys returns the neighbor ids in bucket order. Buckets are built from
// sorted neighbor ids, so the result is ascending.
func (f FlatMap) Keys() []int {
	keys := make([]int, len(f))
	for i, b := range f {
		keys[i] = b.Key
	}
	return keys
}

// Contains reports whether key is one of the map's neighbor ids, using
// binary search over the sorted key order.
func (f FlatMap) Contains(key int) bool {
	i := sort.Search(len(f), func(i int) bool { return f[i].Key >= key })
	return i < len(f) && f[i].Key == key
}
