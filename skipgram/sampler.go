package skipgram

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrSamplingExhausted is returned when negative sampling cannot find enough
// candidates outside the exclude set. The original implementation looped
// forever in this case; a retry cap turns starvation into a reportable error.
var ErrSamplingExhausted = errors.New("skipgram: negative sampling exhausted")

// maxDrawAttempts bounds the rejection loop per requested sample.
const maxDrawAttempts = 1000

// Sampler draws positive and negative skip-gram samples. Not safe for
// concurrent use; the training loop is single-threaded.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler with a deterministic seed.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Positive draws n neighbor ids from the distribution by inverse-CDF binary
// search. Draws are independent: duplicates across the n results are allowed.
func (s *Sampler) Positive(dist FlatMap, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = dist.Sample(s.rng.Float64())
	}
	return out
}

// Negative draws n word ids uniformly from pool, rejecting any id present in
// the exclude distribution (the anchor's positive-neighbor keys). Fails with
// ErrSamplingExhausted once the retry cap is reached, which guards against
// pathologically small per-language vocabularies.
func (s *Sampler) Negative(exclude FlatMap, pool []int, n int) ([]int, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: empty language pool", ErrSamplingExhausted)
	}
	out := make([]int, 0, n)
	attempts := 0
	for len(out) < n {
		if attempts >= maxDrawAttempts*n {
			return nil, fmt.Errorf("%w: %d attempts for %d samples from pool of %d",
				ErrSamplingExhausted, attempts, n, len(pool))
		}
		attempts++
		cand := pool[s.rng.Intn(len(pool))]
		if exclude.Contains(cand) {
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

// Shuffle permutes a slice of ids in place using the sampler's generator so
// epoch ordering stays reproducible under a fixed seed.
func (s *Sampler) Shuffle(ids []int) {
	s.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// PickN draws up to n elements from candidates with replacement. Used for
// dictionary-equivalence positives when a word has translations.
func (s *Sampler) PickN(candidates []int, n int) []int {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = candidates[s.rng.Intn(len(candidates))]
	}
	return out
}
