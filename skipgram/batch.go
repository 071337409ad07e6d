package skipgram

// Example is one anchor word with freshly drawn samples, all as dense
// vocabulary ids.
type Example struct {
	Anchor        int
	Positives     []int
	DictPositives []int
	Negatives     []int
}

// Span records where one example's tokens landed in the flat list. All
// values index FlatBatch.Words.
type Span struct {
	Anchor        int
	Positives     []int
	DictPositives []int
	Negatives     []int
}

// FlatBatch is a batch flattened into a single surface-form list with a
// parallel language list, so the encoder embeds every token in one forward
// pass. Repeated surface forms are kept as separate entries on purpose:
// deduplication would break gradient flow for contrastive pairs that happen
// to repeat.
type FlatBatch struct {
	Words []string
	Langs []int
	Spans []Span
}

// Assemble flattens the examples in order anchor0, pos0..., dict0..., neg0...,
// anchor1, ... and records per-anchor index spans back into the flat list.
func Assemble(idx *Index, examples []Example) FlatBatch {
	var fb FlatBatch
	fb.Spans = make([]Span, len(examples))

	push := func(id int) int {
		key := idx.Word(id)
		fb.Words = append(fb.Words, key.Word)
		fb.Langs = append(fb.Langs, key.Lang)
		return len(fb.Words) - 1
	}

	for i, ex := range examples {
		sp := Span{Anchor: push(ex.Anchor)}
		for _, id := range ex.Positives {
			sp.Positives = append(sp.Positives, push(id))
		}
		for _, id := range ex.DictPositives {
			sp.DictPositives = append(sp.DictPositives, push(id))
		}
		for _, id := range ex.Negatives {
			sp.Negatives = append(sp.Negatives, push(id))
		}
		fb.Spans[i] = sp
	}
	return fb
}
