package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "corpus.txt", "the quick fox\n\n  \njumps  over\n")

	seqs, err := Load(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(seqs) != 2 {
		t.Fatalf("expected 2 sequences, got %d", len(seqs))
	}
	if got := len(seqs[0].Tokens); got != 3 {
		t.Errorf("first sequence: expected 3 tokens, got %d", got)
	}
	if seqs[1].Tokens[0] != "jumps" || seqs[1].Tokens[1] != "over" {
		t.Errorf("unexpected second sequence: %v", seqs[1].Tokens)
	}
	for _, s := range seqs {
		if s.Lang != 3 {
			t.Errorf("expected lang 3, got %d", s.Lang)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.txt", 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}
