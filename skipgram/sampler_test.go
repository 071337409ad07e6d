package skipgram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositiveDrawsFromDistribution(t *testing.T) {
	dist := FlatMap{{Key: 5, Cum: 0.5}, {Key: 9, Cum: 1.0}}
	s := NewSampler(1)

	out := s.Positive(dist, 100)
	require.Len(t, out, 100)
	for _, id := range out {
		require.Contains(t, []int{5, 9}, id)
	}
}

func TestNegativeExcludesPositives(t *testing.T) {
	exclude := FlatMap{{Key: 2, Cum: 0.5}, {Key: 4, Cum: 1.0}}
	pool := []int{1, 2, 3, 4, 5}
	s := NewSampler(2)

	out, err := s.Negative(exclude, pool, 200)
	require.NoError(t, err)
	require.Len(t, out, 200)
	for _, id := range out {
		require.NotEqual(t, 2, id)
		require.NotEqual(t, 4, id)
	}
}

func TestNegativeExhaustion(t *testing.T) {
	// Every pool member is excluded: the retry cap must trip instead of
	// spinning forever.
	exclude := FlatMap{{Key: 1, Cum: 0.5}, {Key: 2, Cum: 1.0}}
	s := NewSampler(3)

	_, err := s.Negative(exclude, []int{1, 2}, 4)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSamplingExhausted))
}

func TestNegativeEmptyPool(t *testing.T) {
	s := NewSampler(4)
	_, err := s.Negative(nil, nil, 4)
	require.True(t, errors.Is(err, ErrSamplingExhausted))
}

func TestShuffleDeterministic(t *testing.T) {
	a := []int{0, 1, 2, 3, 4, 5, 6, 7}
	b := []int{0, 1, 2, 3, 4, 5, 6, 7}
	NewSampler(7).Shuffle(a)
	NewSampler(7).Shuffle(b)
	require.Equal(t, a, b)
	require.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, a)
}

func TestPickN(t *testing.T) {
	s := NewSampler(5)
	require.Nil(t, s.PickN(nil, 4))

	out := s.PickN([]int{42}, 4)
	require.Equal(t, []int{42, 42, 42, 42}, out)
}
