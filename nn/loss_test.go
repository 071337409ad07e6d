package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/polyglotml/wordgram/skipgram"
)

func TestPairLossSignSymmetry(t *testing.T) {
	for _, m := range []float64{-3, -0.5, 0, 0.5, 3} {
		require.InDelta(t, PairLoss(m, true), PairLoss(-m, false), 1e-12)
	}
	// Aligned positive pairs and anti-aligned negative pairs are cheap.
	require.Less(t, PairLoss(5, true), PairLoss(-5, true))
	require.Less(t, PairLoss(-5, false), PairLoss(5, false))
}

func TestPairLossLinearTail(t *testing.T) {
	// Above the softplus threshold the loss is exactly linear, no overflow.
	require.Equal(t, 100.0, PairLoss(100, false))
	require.Equal(t, 1e6, PairLoss(1e6, false))
	require.InDelta(t, 0.0, PairLoss(100, true), 1e-12)
	require.False(t, math.IsInf(PairLoss(1e300, false), 0))
}

func TestContrastiveLossSingles(t *testing.T) {
	// Two rows with dot product 2 over dim 2: mean dot 1.
	repr := mat.NewDense(3, 2, []float64{
		1, 1,
		1, 1,
		-1, -1,
	})
	spans := []skipgram.Span{{Anchor: 0, Positives: []int{1}, Negatives: []int{2}}}

	res := ContrastiveLoss(repr, spans, nil)
	require.InDelta(t, math.Log1p(math.Exp(-1)), res.Pos, 1e-12)
	require.InDelta(t, math.Log1p(math.Exp(-1)), res.Neg, 1e-12) // dot -2, mean -1
	require.InDelta(t, res.Pos+res.Neg, res.Total, 1e-12)
}

func TestContrastiveLossMeansOverPairs(t *testing.T) {
	repr := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 0,
		0, 1,
		-1, 0,
	})
	spans := []skipgram.Span{
		{Anchor: 0, Positives: []int{1}, DictPositives: []int{2}},
		{Anchor: 0, Negatives: []int{3}},
	}

	res := ContrastiveLoss(repr, spans, nil)
	// Positives: mean dots 0.5 and 0, averaged softplus.
	want := (math.Log1p(math.Exp(-0.5)) + math.Log1p(math.Exp(0))) / 2
	require.InDelta(t, want, res.Pos, 1e-12)
	require.InDelta(t, math.Log1p(math.Exp(-0.5)), res.Neg, 1e-12)
}

func TestContrastiveLossGradient(t *testing.T) {
	repr := mat.NewDense(4, 3, []float64{
		0.3, -0.2, 0.5,
		-0.1, 0.4, 0.2,
		0.6, 0.1, -0.3,
		-0.4, -0.5, 0.2,
	})
	spans := []skipgram.Span{
		{Anchor: 0, Positives: []int{1}, DictPositives: []int{2}, Negatives: []int{3}},
		{Anchor: 2, Positives: []int{3}, Negatives: []int{1}},
	}

	dRepr := mat.NewDense(4, 3, nil)
	ContrastiveLoss(repr, spans, dRepr)

	const eps = 1e-6
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			orig := repr.At(i, j)
			repr.Set(i, j, orig+eps)
			up := ContrastiveLoss(repr, spans, nil).Total
			repr.Set(i, j, orig-eps)
			down := ContrastiveLoss(repr, spans, nil).Total
			repr.Set(i, j, orig)

			numeric := (up - down) / (2 * eps)
			require.InDeltaf(t, numeric, dRepr.At(i, j), 1e-6, "entry (%d,%d)", i, j)
		}
	}
}

func TestContrastiveLossEmpty(t *testing.T) {
	repr := mat.NewDense(1, 2, []float64{1, 2})
	res := ContrastiveLoss(repr, nil, nil)
	require.Zero(t, res.Total)
}
