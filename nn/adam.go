package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Adam implements the Adam optimizer over a fixed list of parameter tensors.
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	step int
	m    [][]float64
	v    [][]float64
}

// NewAdam creates an optimizer with the original trainer's defaults
// (lr 1e-4) when lr <= 0.
func NewAdam(lr float64) *Adam {
	if lr <= 0 {
		lr = 1e-4
	}
	return &Adam{LR: lr, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
}

// Step applies one update. params and grads must have the same shapes in the
// same order on every call.
func (a *Adam) Step(params, grads []*mat.Dense) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			r, c := p.Dims()
			a.m[i] = make([]float64, r*c)
			a.v[i] = make([]float64, r*c)
		}
	}
	a.step++
	bc1 := 1 - math.Pow(a.Beta1, float64(a.step))
	bc2 := 1 - math.Pow(a.Beta2, float64(a.step))

	for i, p := range params {
		pd := p.RawMatrix().Data
		gd := grads[i].RawMatrix().Data
		m, v := a.m[i], a.v[i]
		for j := range pd {
			g := gd[j]
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g
			mHat := m[j] / bc1
			vHat := v[j] / bc2
			pd[j] -= a.LR * mHat / (math.Sqrt(vHat) + a.Eps)
		}
	}
}
