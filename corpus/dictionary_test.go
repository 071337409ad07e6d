package corpus

import "testing"

func TestDictionarySymmetric(t *testing.T) {
	d := NewDictionary()
	dog := WordKey{Word: "dog", Lang: 0}
	hund := WordKey{Word: "hund", Lang: 1}
	d.Add(dog, hund)
	d.Add(dog, hund) // duplicate, ignored

	if got := d.Lookup(dog); len(got) != 1 || got[0] != hund {
		t.Errorf("dog lookup: %v", got)
	}
	if got := d.Lookup(hund); len(got) != 1 || got[0] != dog {
		t.Errorf("hund lookup: %v", got)
	}
	if d.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", d.Len())
	}
}

func TestLoadDictionary(t *testing.T) {
	path := writeFile(t, "dict.tsv",
		"# comment line\n"+
			"dog\thund\n"+
			"cat;kitty\tkatze\n"+
			"malformed-no-tab\n"+
			"empty-target\t   \n"+
			"\n"+
			"bird\tvogel;piepmatz\n")

	d := NewDictionary()
	if err := d.LoadDictionary(path, 0, 1); err != nil {
		t.Fatal(err)
	}

	katze := WordKey{Word: "katze", Lang: 1}
	for _, src := range []string{"cat", "kitty"} {
		got := d.Lookup(WordKey{Word: src, Lang: 0})
		if len(got) != 1 || got[0] != katze {
			t.Errorf("%s lookup: %v", src, got)
		}
	}
	if got := d.Lookup(WordKey{Word: "bird", Lang: 0}); len(got) != 2 {
		t.Errorf("bird lookup: %v", got)
	}
	if got := d.Lookup(WordKey{Word: "malformed-no-tab", Lang: 0}); got != nil {
		t.Errorf("malformed line was indexed: %v", got)
	}
	if got := d.Lookup(WordKey{Word: "empty-target", Lang: 0}); got != nil {
		t.Errorf("empty-target line was indexed: %v", got)
	}
}

func TestLoadDictionaryMissingFile(t *testing.T) {
	d := NewDictionary()
	if err := d.LoadDictionary("does-not-exist.tsv", 0, 1); err == nil {
		t.Fatal("expected error for missing file")
	}
}
