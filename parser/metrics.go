package parser

import "fmt"

// Metrics accumulates attachment scores over evaluated sentences.
type Metrics struct {
	Tokens       int
	HeadCorrect  int
	LabelCorrect int
}

// UAS is the fraction of tokens whose predicted head matches gold.
func (m Metrics) UAS() float64 {
	if m.Tokens == 0 {
		return 0
	}
	return float64(m.HeadCorrect) / float64(m.Tokens)
}

// LAS is the fraction of tokens with both head and relation label correct.
func (m Metrics) LAS() float64 {
	if m.Tokens == 0 {
		return 0
	}
	return float64(m.LabelCorrect) / float64(m.Tokens)
}

// Add scores one sentence. Heads are indexed with the root at 0, position 0
// ignored. Labels may be nil when only unlabeled accuracy is wanted; label
// credit then follows the head match.
func (m *Metrics) Add(predHeads, goldHeads []int, predLabels, goldLabels []string) {
	for d := 1; d < len(goldHeads); d++ {
		m.Tokens++
		if predHeads[d] != goldHeads[d] {
			continue
		}
		m.HeadCorrect++
		if goldLabels == nil || predLabels[d] == goldLabels[d] {
			m.LabelCorrect++
		}
	}
}

// Evaluator keeps per-language metrics alongside the aggregate, mirroring how
// dev scores are reported per treebank.
type Evaluator struct {
	Overall Metrics
	ByLang  map[int]*Metrics
}

func NewEvaluator() *Evaluator {
	return &Evaluator{ByLang: make(map[int]*Metrics)}
}

func (e *Evaluator) Add(lang int, predHeads, goldHeads []int, predLabels, goldLabels []string) {
	e.Overall.Add(predHeads, goldHeads, predLabels, goldLabels)
	lm := e.ByLang[lang]
	if lm == nil {
		lm = &Metrics{}
		e.ByLang[lang] = lm
	}
	lm.Add(predHeads, goldHeads, predLabels, goldLabels)
}

// ValidateTree checks that a head assignment is a well-formed dependency
// tree: every token reaches the root and exactly one token attaches to it.
func ValidateTree(heads []int) error {
	n := len(heads) - 1
	if n < 0 {
		return fmt.Errorf("parser: empty head assignment")
	}
	rootChildren := 0
	for d := 1; d <= n; d++ {
		h := heads[d]
		if h < 0 || h > n {
			return fmt.Errorf("parser: token %d has out-of-range head %d", d, h)
		}
		if h == d {
			return fmt.Errorf("parser: token %d is its own head", d)
		}
		if h == 0 {
			rootChildren++
		}
	}
	if n > 0 && rootChildren != 1 {
		return fmt.Errorf("parser: expected one root attachment, found %d", rootChildren)
	}
	for d := 1; d <= n; d++ {
		seen := make(map[int]bool, 8)
		v := d
		for v != 0 {
			if seen[v] {
				return fmt.Errorf("parser: cycle through token %d", d)
			}
			seen[v] = true
			v = heads[v]
		}
	}
	return nil
}
