package skipgram

import (
	"fmt"

	"github.com/polyglotml/wordgram/corpus"
)

// Samples drawn per anchor on each access. Nothing is cached: every batch
// redraws its positives and negatives.
const (
	numPositives = 4
	numNegatives = 4
	numDictPos   = 4
)

// Dataset walks the trainable vocabulary in (shuffled) order, producing
// examples with fresh positive, dictionary and negative samples per access.
type Dataset struct {
	idx     *Index
	dict    *corpus.Dictionary
	sampler *Sampler

	order  []int
	cursor int
}

// NewDataset creates a dataset over the index's trainable words. dict may be
// nil when no equivalence dictionary is available.
func NewDataset(idx *Index, dict *corpus.Dictionary, sampler *Sampler) *Dataset {
	order := make([]int, len(idx.TrainIdx()))
	copy(order, idx.TrainIdx())
	return &Dataset{idx: idx, dict: dict, sampler: sampler, order: order}
}

// Index exposes the vocabulary the dataset's example ids refer to.
func (d *Dataset) Index() *Index { return d.idx }

// Count returns the number of anchors in one epoch.
func (d *Dataset) Count() int { return len(d.order) }

// Batches returns the number of batches per epoch for the given batch size.
func (d *Dataset) Batches(batchSize int) int {
	n := d.Count() / batchSize
	if d.Count()%batchSize != 0 {
		n++
	}
	return n
}

// Shuffle permutes the anchor order for the next epoch.
func (d *Dataset) Shuffle() { d.sampler.Shuffle(d.order) }

// Reset rewinds the dataset to the start of the epoch.
func (d *Dataset) Reset() { d.cursor = 0 }

// NextBatch draws up to batchSize examples. It returns an empty slice once
// the epoch is exhausted.
func (d *Dataset) NextBatch(batchSize int) ([]Example, error) {
	var batch []Example
	for len(batch) < batchSize && d.cursor < len(d.order) {
		anchor := d.order[d.cursor]
		d.cursor++

		dist := d.idx.Dist(anchor)
		key := d.idx.Word(anchor)
		neg, err := d.sampler.Negative(dist, d.idx.LangPool(key.Lang), numNegatives)
		if err != nil {
			return nil, fmt.Errorf("anchor %q lang %d: %w", key.Word, key.Lang, err)
		}
		batch = append(batch, Example{
			Anchor:        anchor,
			Positives:     d.sampler.Positive(dist, numPositives),
			DictPositives: d.dictPositives(key),
			Negatives:     neg,
		})
	}
	return batch, nil
}

// dictPositives maps the anchor's dictionary translations to vocabulary ids
// and draws the forced-positive samples. Translations missing from the
// vocabulary are ignored.
func (d *Dataset) dictPositives(key corpus.WordKey) []int {
	if d.dict == nil {
		return nil
	}
	var candidates []int
	for _, tr := range d.dict.Lookup(key) {
		if id, ok := d.idx.Lookup(tr); ok {
			candidates = append(candidates, id)
		}
	}
	return d.sampler.PickN(candidates, numDictPos)
}
