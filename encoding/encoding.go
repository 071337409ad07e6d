// Package encoding maps characters, tokens and languages to dense integer
// ids. The table is built once from training data by frequency cutoff and
// persisted as a JSON document that round-trips exactly.
package encoding

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/polyglotml/wordgram/corpus"
)

// Reserved ids. Id 0 is always PAD and id 1 always UNK; the character map
// additionally reserves sequence boundary markers.
const (
	PadID   = 0
	UnkID   = 1
	StartID = 2
	StopID  = 3
)

// Reserved surface forms for the ids above.
const (
	PadToken   = "<PAD>"
	UnkToken   = "<UNK>"
	StartToken = "<s>"
	StopToken  = "</s>"
)

// Table is the bidirectional id mapping for characters, tokens and languages.
// Cluster fields mirror the optional word-target section of the encodings
// file and are preserved verbatim across save/load.
type Table struct {
	NumLangs  int            `json:"num_langs"`
	Char2Int  map[string]int `json:"char2int"`
	Token2Int map[string]int `json:"token2int"`

	MaxClusters        int                         `json:"max_clusters,omitempty"`
	MaxWordsInClusters int                         `json:"max_words_in_clusters,omitempty"`
	Word2Target        map[string]map[string][]int `json:"word2target,omitempty"`
}

// NewTable returns a table holding only the reserved entries.
func NewTable() *Table {
	return &Table{
		Char2Int: map[string]int{
			PadToken: PadID, UnkToken: UnkID, StartToken: StartID, StopToken: StopID,
		},
		Token2Int: map[string]int{PadToken: PadID, UnkToken: UnkID},
	}
}

// Compute tallies case-folded character and token frequencies, then inserts
// every character meeting charCutoff and every token exceeding tokenCutoff.
// Ids are assigned in corpus order, so identical corpora always produce
// identical tables. Reserved ids are always present.
func (t *Table) Compute(seqs []corpus.Sequence, tokenCutoff, charCutoff int) {
	char2count := make(map[string]int)
	token2count := make(map[string]int)
	for _, seq := range seqs {
		if seq.Lang+1 > t.NumLangs {
			t.NumLangs = seq.Lang + 1
		}
		for _, token := range seq.Tokens {
			token2count[strings.ToLower(token)]++
			for _, r := range token {
				char2count[strings.ToLower(string(r))]++
			}
		}
	}
	for _, seq := range seqs {
		for _, token := range seq.Tokens {
			tok := strings.ToLower(token)
			if token2count[tok] > tokenCutoff {
				if _, ok := t.Token2Int[tok]; !ok {
					t.Token2Int[tok] = len(t.Token2Int)
				}
			}
			for _, r := range token {
				ch := strings.ToLower(string(r))
				if char2count[ch] >= charCutoff {
					if _, ok := t.Char2Int[ch]; !ok {
						t.Char2Int[ch] = len(t.Char2Int)
					}
				}
			}
		}
	}
}

// CharID returns the id of the case-folded character, or UnkID. Out of
// vocabulary characters always map to UNK.
func (t *Table) CharID(r rune) int {
	if id, ok := t.Char2Int[strings.ToLower(string(r))]; ok {
		return id
	}
	return UnkID
}

// TokenID returns the id of the case-folded token, or UnkID.
func (t *Table) TokenID(tok string) int {
	if id, ok := t.Token2Int[strings.ToLower(tok)]; ok {
		return id
	}
	return UnkID
}

// NumChars returns the size of the character id space.
func (t *Table) NumChars() int { return len(t.Char2Int) }

// NumTokens returns the size of the token id space.
func (t *Table) NumTokens() int { return len(t.Token2Int) }

// Save writes the table as JSON.
func (t *Table) Save(path string) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	return nil
}

// Load reads a table previously written by Save.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("encoding: parsing %s: %w", path, err)
	}
	return &t, nil
}
