package corpus

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Tree is one gold-annotated dependency tree. Heads and Labels carry the
// artificial root at index 0 (head 0, empty label), so they are one longer
// than Tokens.
type Tree struct {
	Tokens []string
	Heads  []int
	Labels []string
	Lang   int
}

// LoadTreebank reads a CoNLL-U treebank tagged with a language id. Sentences
// are separated by blank lines; '#' lines are comments. Multiword ranges
// ("1-2") and empty nodes ("1.1") carry no tree edge and are skipped, as are
// lines with too few columns (logged). A non-integer HEAD field is fatal.
func LoadTreebank(path string, lang int) ([]Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	defer f.Close()

	newTree := func() Tree {
		return Tree{Lang: lang, Heads: []int{0}, Labels: []string{""}}
	}

	var trees []Tree
	cur := newTree()
	flush := func() {
		if len(cur.Tokens) > 0 {
			trees = append(trees, cur)
		}
		cur = newTree()
	}

	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 8 {
			slog.Warn("skipping malformed treebank line", "path", path, "line", lineNo)
			continue
		}
		if _, err := strconv.Atoi(cols[0]); err != nil {
			continue
		}
		head, err := strconv.Atoi(cols[6])
		if err != nil {
			return nil, fmt.Errorf("corpus: %s line %d: bad head %q", path, lineNo, cols[6])
		}
		cur.Tokens = append(cur.Tokens, cols[1])
		cur.Heads = append(cur.Heads, head)
		cur.Labels = append(cur.Labels, cols[7])
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("corpus: reading %s: %w", path, err)
	}
	flush()
	return trees, nil
}
