package parser

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// bruteForce enumerates every head assignment and returns the score of the
// best legal tree (single root child, acyclic).
func bruteForce(scores [][]float64) float64 {
	n := len(scores) - 1
	heads := make([]int, n+1)
	best := math.Inf(-1)

	var walk func(d int)
	walk = func(d int) {
		if d > n {
			if ValidateTree(heads) != nil {
				return
			}
			s := treeScore(scores, heads)
			if s > best {
				best = s
			}
			return
		}
		for h := 0; h <= n; h++ {
			if h == d {
				continue
			}
			heads[d] = h
			walk(d + 1)
		}
	}
	walk(1)
	return best
}

func randomScores(rng *rand.Rand, n int, scale float64) [][]float64 {
	s := make([][]float64, n+1)
	for d := range s {
		s[d] = make([]float64, n+1)
		for h := range s[d] {
			s[d][h] = (rng.Float64()*2 - 1) * scale
		}
	}
	return s
}

func TestDecodeMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var dec Decoder

	for n := 2; n <= 6; n++ {
		for trial := 0; trial < 25; trial++ {
			scores := randomScores(rng, n, 10)
			heads := dec.Decode(scores)

			require.NoError(t, ValidateTree(heads), "n=%d trial=%d heads=%v", n, trial, heads)
			want := bruteForce(scores)
			got := treeScore(scores, heads)
			require.InDeltaf(t, want, got, 1e-9, "n=%d trial=%d heads=%v", n, trial, heads)
		}
	}
}

func TestDecodeTrivial(t *testing.T) {
	var dec Decoder
	require.Equal(t, []int{0}, dec.Decode([][]float64{{0}}))
	require.Equal(t, []int{0, 0}, dec.Decode([][]float64{{0, 0}, {0, 0}}))
}

func TestDecodeUniformScores(t *testing.T) {
	var dec Decoder
	for n := 2; n <= 5; n++ {
		scores := make([][]float64, n+1)
		for d := range scores {
			scores[d] = make([]float64, n+1)
		}
		require.NoError(t, ValidateTree(dec.Decode(scores)))
	}
}

func TestDecodeBreaksCycle(t *testing.T) {
	// 1 and 2 strongly prefer each other; only weak edges reach the root.
	scores := [][]float64{
		{0, 0, 0},
		{-5, 0, 10},
		{-6, 10, 0},
	}
	var dec Decoder
	heads := dec.Decode(scores)
	require.NoError(t, ValidateTree(heads))
	// Best legal tree: 1 <- root, 2 <- 1 (score 5) beats 2 <- root, 1 <- 2
	// (score 4).
	require.Equal(t, []int{0, 0, 1}, heads)
}

func TestDecodeSingleRootConstraint(t *testing.T) {
	// Unconstrained optimum attaches both tokens to the root.
	scores := [][]float64{
		{0, 0, 0},
		{10, 0, 1},
		{10, 1, 0},
	}
	var dec Decoder
	heads := dec.Decode(scores)
	require.NoError(t, ValidateTree(heads))
	require.Equal(t, 11.0, treeScore(scores, heads))
}

func TestDecodeNegativeScores(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var dec Decoder
	for trial := 0; trial < 10; trial++ {
		scores := randomScores(rng, 5, 100)
		for d := range scores {
			for h := range scores[d] {
				scores[d][h] -= 200 // all negative
			}
		}
		heads := dec.Decode(scores)
		require.NoError(t, ValidateTree(heads))
		require.InDelta(t, bruteForce(scores), treeScore(scores, heads), 1e-9)
	}
}

func TestDecodeBatch(t *testing.T) {
	var dec Decoder
	// Padded 4x4 matrices with true lengths 2 and 3.
	pad := func(n int) [][]float64 {
		s := make([][]float64, 4)
		for d := range s {
			s[d] = make([]float64, 4)
			for h := range s[d] {
				if d <= n && h <= n {
					s[d][h] = float64((d*7+h*3)%5) - 2
				}
			}
		}
		return s
	}
	out := dec.DecodeBatch([][][]float64{pad(2), pad(3)}, []int{2, 3})
	require.Len(t, out, 2)
	require.Len(t, out[0], 3)
	require.Len(t, out[1], 4)
	require.NoError(t, ValidateTree(out[0]))
	require.NoError(t, ValidateTree(out[1]))
}
