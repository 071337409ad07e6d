package nn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestAdamDefaults(t *testing.T) {
	a := NewAdam(0)
	require.Equal(t, 1e-4, a.LR)
	require.Equal(t, 0.9, a.Beta1)
	require.Equal(t, 0.999, a.Beta2)

	require.Equal(t, 0.5, NewAdam(0.5).LR)
}

func TestAdamMinimizesQuadratic(t *testing.T) {
	// f(x, y) = (x-3)^2 + (y+2)^2.
	p := mat.NewDense(1, 2, []float64{0, 0})
	g := mat.NewDense(1, 2, nil)
	opt := NewAdam(0.05)

	for i := 0; i < 3000; i++ {
		g.Set(0, 0, 2*(p.At(0, 0)-3))
		g.Set(0, 1, 2*(p.At(0, 1)+2))
		opt.Step([]*mat.Dense{p}, []*mat.Dense{g})
	}
	require.InDelta(t, 3, p.At(0, 0), 1e-2)
	require.InDelta(t, -2, p.At(0, 1), 1e-2)
}

func TestAdamFirstStepIsLR(t *testing.T) {
	// With bias correction the very first update has magnitude ~LR regardless
	// of gradient scale.
	p := mat.NewDense(1, 1, []float64{1})
	g := mat.NewDense(1, 1, []float64{250})
	opt := NewAdam(0.01)
	opt.Step([]*mat.Dense{p}, []*mat.Dense{g})
	require.InDelta(t, 1-0.01, p.At(0, 0), 1e-6)
}
