package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/polyglotml/wordgram/skipgram"
)

// softplusThreshold is where log(1+exp(x)) is replaced by x to avoid
// overflow; exp(50) already dwarfs the 1.
const softplusThreshold = 50

func softplus(x float64) float64 {
	if x > softplusThreshold {
		return x
	}
	return math.Log1p(math.Exp(x))
}

// LossResult breaks the contrastive loss into its positive and negative
// terms. Total is their sum, not their average.
type LossResult struct {
	Total float64
	Pos   float64
	Neg   float64
}

// ContrastiveLoss scores anchor/positive and anchor/negative pairs over the
// encoded batch. For a positive pair the loss is log(1+exp(-m)) and for a
// negative pair log(1+exp(+m)), where m is the dot product mean-reduced over
// the embedding dimension. Dictionary-equivalence samples count as positives.
//
// When dRepr is non-nil, d(loss)/d(repr) is accumulated into it row by row.
func ContrastiveLoss(repr *mat.Dense, spans []skipgram.Span, dRepr *mat.Dense) LossResult {
	_, dim := repr.Dims()
	d := float64(dim)

	type pair struct{ a, b int }
	var posPairs, negPairs []pair
	for _, sp := range spans {
		for _, p := range sp.Positives {
			posPairs = append(posPairs, pair{sp.Anchor, p})
		}
		for _, p := range sp.DictPositives {
			posPairs = append(posPairs, pair{sp.Anchor, p})
		}
		for _, n := range sp.Negatives {
			negPairs = append(negPairs, pair{sp.Anchor, n})
		}
	}

	var res LossResult
	for _, pr := range posPairs {
		a, b := repr.RawRowView(pr.a), repr.RawRowView(pr.b)
		m := floats.Dot(a, b) / d
		res.Pos += softplus(-m)
		if dRepr != nil {
			// d softplus(-m)/dm = -sigmoid(-m), averaged over pairs.
			dm := -sigmoid(-m) / float64(len(posPairs))
			floats.AddScaled(dRepr.RawRowView(pr.a), dm/d, b)
			floats.AddScaled(dRepr.RawRowView(pr.b), dm/d, a)
		}
	}
	for _, pr := range negPairs {
		a, b := repr.RawRowView(pr.a), repr.RawRowView(pr.b)
		m := floats.Dot(a, b) / d
		res.Neg += softplus(m)
		if dRepr != nil {
			dm := sigmoid(m) / float64(len(negPairs))
			floats.AddScaled(dRepr.RawRowView(pr.a), dm/d, b)
			floats.AddScaled(dRepr.RawRowView(pr.b), dm/d, a)
		}
	}

	if len(posPairs) > 0 {
		res.Pos /= float64(len(posPairs))
	}
	if len(negPairs) > 0 {
		res.Neg /= float64(len(negPairs))
	}
	res.Total = res.Pos + res.Neg
	return res
}

// PairLoss computes the loss of a single pair from its mean-reduced dot
// product. positive selects the sign convention.
func PairLoss(meanDot float64, positive bool) float64 {
	if positive {
		return softplus(-meanDot)
	}
	return softplus(meanDot)
}
