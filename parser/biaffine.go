package parser

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Biaffine scores head attachments with a bilinear form over dependent and
// head projections plus linear terms for each side:
//
//	score(d, h) = dep_d^T W head_h + u·dep_d + v·head_h + b
type Biaffine struct {
	W *mat.Dense // dim x dim
	U []float64  // dim
	V []float64  // dim
	B float64
}

// NewBiaffine creates a scorer for representations of the given width.
func NewBiaffine(dim int, seed int64) *Biaffine {
	rng := rand.New(rand.NewSource(seed))
	scale := 1.0 / math.Sqrt(float64(dim))
	w := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			w.Set(i, j, rng.NormFloat64()*scale)
		}
	}
	b := &Biaffine{W: w, U: make([]float64, dim), V: make([]float64, dim)}
	for i := range b.U {
		b.U[i] = rng.NormFloat64() * scale
		b.V[i] = rng.NormFloat64() * scale
	}
	return b
}

// Score produces the (n+1)x(n+1) attachment matrix for one sentence. reps
// holds the root representation in row 0 followed by one row per token.
// Row d of the result scores every candidate head for dependent d; row 0 is
// zero and only present so the matrix stays square for the decoder.
func (b *Biaffine) Score(reps *mat.Dense) [][]float64 {
	n, _ := reps.Dims()

	// One matmul gives dep^T W for every dependent; the linear terms depend
	// on a single row each and are hoisted out of the pair loop.
	var depW mat.Dense
	depW.Mul(reps, b.W)
	uDep := make([]float64, n)
	vHead := make([]float64, n)
	for i := 0; i < n; i++ {
		uDep[i] = floats.Dot(b.U, reps.RawRowView(i))
		vHead[i] = floats.Dot(b.V, reps.RawRowView(i))
	}

	out := make([][]float64, n)
	for d := 0; d < n; d++ {
		out[d] = make([]float64, n)
		if d == 0 {
			continue
		}
		row := depW.RawRowView(d)
		for h := 0; h < n; h++ {
			out[d][h] = floats.Dot(row, reps.RawRowView(h)) + uDep[d] + vHead[h] + b.B
		}
	}
	return out
}

// Softmax normalizes each dependent's head scores in place to a probability
// distribution, the form the decoder receives during evaluation.
func Softmax(scores [][]float64) {
	for d := 1; d < len(scores); d++ {
		row := scores[d]
		maxV := row[0]
		for _, v := range row {
			if v > maxV {
				maxV = v
			}
		}
		sum := 0.0
		for i, v := range row {
			row[i] = math.Exp(v - maxV)
			sum += row[i]
		}
		for i := range row {
			row[i] /= sum
		}
	}
}
