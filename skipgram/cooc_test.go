package skipgram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyglotml/wordgram/corpus"
)

func seqs(lang int, lines ...[]string) []corpus.Sequence {
	out := make([]corpus.Sequence, len(lines))
	for i, l := range lines {
		out[i] = corpus.Sequence{Tokens: l, Lang: lang}
	}
	return out
}

func TestBuildSmallCorpus(t *testing.T) {
	// Two declared languages; the second contributes no tokens.
	in := append(seqs(0,
		[]string{"a", "b", "c"},
		[]string{"b", "c", "a"},
	), corpus.Sequence{Lang: 1})
	idx := Build(in, BuilderConfig{Window: 1, MinFreq: 1})

	require.Equal(t, 3, idx.NumWords())
	require.Equal(t, 3, idx.Count())
	require.Equal(t, 2, idx.NumLangs())
	require.Empty(t, idx.LangPool(1))

	a, ok := idx.Lookup(corpus.WordKey{Word: "a", Lang: 0})
	require.True(t, ok)
	b, ok := idx.Lookup(corpus.WordKey{Word: "b", Lang: 0})
	require.True(t, ok)
	c, ok := idx.Lookup(corpus.WordKey{Word: "c", Lang: 0})
	require.True(t, ok)

	// "a" saw b and c once each: both kept, equal mass.
	require.Equal(t, []int{b, c}, idx.Dist(a).Keys())

	// "b" saw a once and c twice: the pruning rule drops a (run 1 < run 2).
	require.Equal(t, []int{c}, idx.Dist(b).Keys())

	// Symmetric for "c".
	require.Equal(t, []int{b}, idx.Dist(c).Keys())
}

func TestBuildMinFreqCutoff(t *testing.T) {
	idx := Build(seqs(0,
		[]string{"x", "y", "x", "y", "rare"},
	), BuilderConfig{Window: 2, MinFreq: 2})

	require.Equal(t, 2, idx.NumWords())
	_, ok := idx.Lookup(corpus.WordKey{Word: "rare", Lang: 0})
	require.False(t, ok)
}

func TestBuildWindowRespectsSequenceBoundary(t *testing.T) {
	idx := Build(seqs(0,
		[]string{"p", "q"},
		[]string{"r", "s"},
	), BuilderConfig{Window: 5, MinFreq: 1})

	p, _ := idx.Lookup(corpus.WordKey{Word: "p", Lang: 0})
	q, _ := idx.Lookup(corpus.WordKey{Word: "q", Lang: 0})
	require.Equal(t, []int{q}, idx.Dist(p).Keys())
}

func TestBuildSeparatesLanguages(t *testing.T) {
	in := append(seqs(0, []string{"w", "w", "w"}), seqs(1, []string{"w", "w"})...)
	idx := Build(in, BuilderConfig{Window: 1, MinFreq: 1})

	require.Equal(t, 2, idx.NumWords())
	require.Equal(t, 2, idx.NumLangs())
	require.Len(t, idx.LangPool(0), 1)
	require.Len(t, idx.LangPool(1), 1)
	require.Nil(t, idx.LangPool(2))
}

func TestBuildDistributionCumulative(t *testing.T) {
	// 4 of key 1, 2 of key 2, 1 of key 3. Rule keeps 1 (4>=2), 2 (2>=1), 3
	// (last).
	dist := buildDistribution([]int{1, 1, 1, 1, 2, 2, 3})
	require.Equal(t, []int{1, 2, 3}, dist.Keys())

	prev := 0.0
	for _, b := range dist {
		require.Greater(t, b.Cum, prev)
		prev = b.Cum
	}
	require.Equal(t, 1.0, dist[len(dist)-1].Cum)
	require.InDelta(t, 4.0/7.0, dist[0].Cum, 1e-12)
}

func TestBuildDistributionPruning(t *testing.T) {
	// Runs: key 1 x1, key 2 x3, key 3 x2. Key 1 is dropped (1 < 3); key 2
	// survives (3 >= 2); key 3 survives as the final bucket.
	dist := buildDistribution([]int{1, 2, 2, 2, 3, 3})
	require.Equal(t, []int{2, 3}, dist.Keys())
	require.InDelta(t, 3.0/5.0, dist[0].Cum, 1e-12)
	require.Equal(t, 1.0, dist[1].Cum)
}

func TestBuildDistributionTieKeepsEarlier(t *testing.T) {
	dist := buildDistribution([]int{1, 2})
	require.Equal(t, []int{1, 2}, dist.Keys())
}

func TestBuildDistributionAscendingRunsCollapse(t *testing.T) {
	// Strictly growing run lengths prune everything but the final bucket.
	dist := buildDistribution([]int{1, 2, 2, 3, 3, 3})
	require.Equal(t, []int{3}, dist.Keys())
	require.Equal(t, 1.0, dist[0].Cum)
}

func TestBuildDistributionEmpty(t *testing.T) {
	require.Nil(t, buildDistribution(nil))
}
