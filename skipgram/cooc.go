// Package skipgram builds per-word co-occurrence distributions from tagged
// multilingual sequences and draws positive/negative training samples from
// them.
//
// Vocabulary entries are (surface form, language) pairs assigned dense
// integer ids at build time. Sampling never touches a hash map: positive
// draws binary-search a sorted cumulative array and negative draws index a
// contiguous per-language pool.
package skipgram

import (
	"sort"

	"github.com/polyglotml/wordgram/corpus"
)

// BuilderConfig holds co-occurrence index construction parameters.
type BuilderConfig struct {
	Window  int `yaml:"window"`   // symmetric context window size
	MinFreq int `yaml:"min-freq"` // minimum corpus frequency for a trainable word
}

// DefaultBuilderConfig returns the window and cutoff used by the original
// skip-gram trainer.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{Window: 5, MinFreq: 7}
}

// Index holds the vocabulary and per-word positive-neighbor distributions.
// Build-once, read-many: nothing mutates after Build returns.
type Index struct {
	words []corpus.WordKey // id -> vocabulary entry
	freq  []int            // id -> corpus frequency
	dist  []FlatMap        // id -> neighbor distribution, nil if pruned empty

	ids       map[corpus.WordKey]int // construction and dictionary lookup only
	trainIdx  []int                  // ids with a non-empty distribution
	lang2Widx [][]int                // language id -> vocabulary ids
	numLangs  int
}

// Build scans the corpus once, collecting for every qualifying word all
// qualifying words within ±cfg.Window positions of it (never crossing a
// sequence boundary), then collapses and prunes the neighbor counts into
// cumulative distributions.
func Build(seqs []corpus.Sequence, cfg BuilderConfig) *Index {
	idx := &Index{ids: make(map[corpus.WordKey]int)}

	// First pass: frequencies per (word, lang).
	counts := make(map[corpus.WordKey]int)
	for _, seq := range seqs {
		if seq.Lang+1 > idx.numLangs {
			idx.numLangs = seq.Lang + 1
		}
		for _, tok := range seq.Tokens {
			counts[corpus.WordKey{Word: tok, Lang: seq.Lang}]++
		}
	}

	// Assign dense ids to qualifying words in corpus order.
	idx.lang2Widx = make([][]int, idx.numLangs)
	for _, seq := range seqs {
		for _, tok := range seq.Tokens {
			key := corpus.WordKey{Word: tok, Lang: seq.Lang}
			if counts[key] < cfg.MinFreq {
				continue
			}
			if _, ok := idx.ids[key]; ok {
				continue
			}
			id := len(idx.words)
			idx.ids[key] = id
			idx.words = append(idx.words, key)
			idx.freq = append(idx.freq, counts[key])
			idx.lang2Widx[seq.Lang] = append(idx.lang2Widx[seq.Lang], id)
		}
	}

	// Second pass: neighbor collection within the window.
	neighbors := make([][]int, len(idx.words))
	for _, seq := range seqs {
		for i, tok := range seq.Tokens {
			anchor, ok := idx.ids[corpus.WordKey{Word: tok, Lang: seq.Lang}]
			if !ok {
				continue
			}
			lo := max(0, i-cfg.Window)
			hi := min(len(seq.Tokens), i+cfg.Window+1)
			for j := lo; j < hi; j++ {
				if j == i {
					continue
				}
				other, ok := idx.ids[corpus.WordKey{Word: seq.Tokens[j], Lang: seq.Lang}]
				if !ok {
					continue
				}
				neighbors[anchor] = append(neighbors[anchor], other)
			}
		}
	}

	idx.dist = make([]FlatMap, len(idx.words))
	for id, ns := range neighbors {
		idx.dist[id] = buildDistribution(ns)
		if len(idx.dist[id]) > 0 {
			idx.trainIdx = append(idx.trainIdx, id)
		}
	}
	return idx
}

// buildDistribution sorts the raw neighbor id list, collapses runs of equal
// ids into counts, applies the pruning rule, and normalizes the survivors
// into cumulative probabilities.
//
// The pruning rule is deliberate and non-standard: a bucket survives only if
// its run length is >= the run length of the immediately following bucket
// (ties keep the earlier bucket; the final bucket always survives). Deviating
// from it is a correctness bug, not a simplification.
func buildDistribution(ns []int) FlatMap {
	if len(ns) == 0 {
		return nil
	}
	sort.Ints(ns)

	type run struct {
		key   int
		count int
	}
	var runs []run
	for _, n := range ns {
		if len(runs) > 0 && runs[len(runs)-1].key == n {
			runs[len(runs)-1].count++
		} else {
			runs = append(runs, run{key: n, count: 1})
		}
	}

	var kept []run
	total := 0
	for i, r := range runs {
		if i+1 < len(runs) && r.count < runs[i+1].count {
			continue
		}
		kept = append(kept, r)
		total += r.count
	}
	if len(kept) == 0 {
		return nil
	}

	dist := make(FlatMap, len(kept))
	cum := 0.0
	for i, r := range kept {
		cum += float64(r.count) / float64(total)
		dist[i] = Bucket{Key: r.key, Cum: cum}
	}
	dist[len(dist)-1].Cum = 1.0
	return dist
}

// Count returns the number of trainable vocabulary entries: distinct
// qualifying (word, lang) pairs whose distribution survived pruning.
func (x *Index) Count() int { return len(x.trainIdx) }

// NumWords returns the total vocabulary size, trainable or not.
func (x *Index) NumWords() int { return len(x.words) }

// NumLangs returns the number of languages seen during Build.
func (x *Index) NumLangs() int { return x.numLangs }

// Word returns the vocabulary entry for a dense id.
func (x *Index) Word(id int) corpus.WordKey { return x.words[id] }

// Lookup returns the dense id for a vocabulary entry, if assigned.
func (x *Index) Lookup(key corpus.WordKey) (int, bool) {
	id, ok := x.ids[key]
	return id, ok
}

// Dist returns the neighbor distribution for a word id. Nil means the word
// is excluded from the trainable set.
func (x *Index) Dist(id int) FlatMap { return x.dist[id] }

// TrainIdx returns the ids of all trainable words.
func (x *Index) TrainIdx() []int { return x.trainIdx }

// LangPool returns the vocabulary ids for one language, used to restrict
// negative sampling to the anchor's language.
func (x *Index) LangPool(lang int) []int {
	if lang < 0 || lang >= len(x.lang2Widx) {
		return nil
	}
	return x.lang2Widx[lang]
}
