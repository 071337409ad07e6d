package corpus

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Dictionary maps a word in one language to its translations in another.
// Entries are symmetric: adding a->b also adds b->a. Translation pairs act as
// forced positives during skip-gram sampling.
type Dictionary struct {
	entries map[WordKey][]WordKey
	seen    map[[2]WordKey]bool
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		entries: make(map[WordKey][]WordKey),
		seen:    make(map[[2]WordKey]bool),
	}
}

// Add records a translation pair in both directions. Duplicate pairs are
// ignored.
func (d *Dictionary) Add(a, b WordKey) {
	d.addOne(a, b)
	d.addOne(b, a)
}

func (d *Dictionary) addOne(from, to WordKey) {
	if d.seen[[2]WordKey{from, to}] {
		return
	}
	d.seen[[2]WordKey{from, to}] = true
	d.entries[from] = append(d.entries[from], to)
}

// Lookup returns the translations recorded for k, or nil.
func (d *Dictionary) Lookup(k WordKey) []WordKey {
	return d.entries[k]
}

// Len returns the number of words that have at least one translation.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// LoadDictionary reads a tab-separated translation file into d. Each line
// holds a source and a target field; each field may list synonyms separated
// by semicolons, and every source/target combination is added. Lines starting
// with '#' are comments. Malformed lines (no tab-separated second field) are
// logged and skipped, not fatal.
func (d *Dictionary) LoadDictionary(path string, srcLang, dstLang int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			slog.Warn("skipping malformed dictionary line", "path", path, "line", lineNo)
			continue
		}
		for _, src := range splitSynonyms(parts[0]) {
			for _, dst := range splitSynonyms(parts[1]) {
				d.Add(WordKey{Word: src, Lang: srcLang}, WordKey{Word: dst, Lang: dstLang})
			}
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("corpus: reading %s: %w", path, err)
	}
	return nil
}

func splitSynonyms(field string) []string {
	var out []string
	for _, w := range strings.Split(field, ";") {
		w = strings.TrimSpace(w)
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
