// Package corpus loads whitespace-tokenized multilingual corpora and
// cross-lingual equivalence dictionaries.
//
// A sequence is one line of the corpus file tagged with the integer id of the
// language it was loaded for. Sequences are immutable after loading.
package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Sequence is an ordered list of raw tokens plus the language it belongs to.
type Sequence struct {
	Tokens []string
	Lang   int
}

// WordKey identifies a vocabulary entry. The same surface form in two
// languages is two distinct entries.
type WordKey struct {
	Word string
	Lang int
}

// Load reads a whitespace-tokenized corpus file, one sequence per line.
// Empty lines are skipped.
func Load(path string, lang int) ([]Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	defer f.Close()

	var seqs []Sequence
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		tokens := strings.Fields(s.Text())
		if len(tokens) == 0 {
			continue
		}
		seqs = append(seqs, Sequence{Tokens: tokens, Lang: lang})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("corpus: reading %s: %w", path, err)
	}
	return seqs, nil
}
