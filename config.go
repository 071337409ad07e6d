package wordgram

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/polyglotml/wordgram/nn"
	"github.com/polyglotml/wordgram/skipgram"
	"github.com/polyglotml/wordgram/trainer"
)

// Language declares one training language: its code and corpus files. Dev is
// optional.
type Language struct {
	Code  string `yaml:"code"`
	Train string `yaml:"train"`
	Dev   string `yaml:"dev"`
}

// DictionaryFile points at a word-equivalence table between two declared
// languages.
type DictionaryFile struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Path   string `yaml:"path"`
}

// Manifest is the YAML training manifest consumed by the train command.
type Manifest struct {
	Languages    []Language       `yaml:"languages"`
	Dictionaries []DictionaryFile `yaml:"dictionaries"`

	// Encoding table cutoffs: characters need count >= CharCutoff, tokens
	// count > TokenCutoff.
	CharCutoff  int   `yaml:"char-cutoff"`
	TokenCutoff int   `yaml:"token-cutoff"`
	Seed        int64 `yaml:"seed"`

	Cooc    skipgram.BuilderConfig `yaml:"cooccurrence"`
	Encoder nn.EncoderConfig       `yaml:"encoder"`
	Trainer trainer.Config         `yaml:"trainer"`
}

// DefaultManifest returns a manifest with every hyper-parameter at its
// default and no corpora declared.
func DefaultManifest() Manifest {
	return Manifest{
		CharCutoff:  2,
		TokenCutoff: 1,
		Cooc:        skipgram.DefaultBuilderConfig(),
		Encoder:     nn.DefaultEncoderConfig(),
		Trainer:     trainer.DefaultConfig(),
	}
}

// LoadManifest reads and validates a YAML manifest. Missing hyper-parameter
// sections keep their defaults.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wordgram: read manifest: %w", err)
	}
	m := DefaultManifest()
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("wordgram: parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("wordgram: manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks declared languages and dictionary references.
func (m *Manifest) Validate() error {
	if len(m.Languages) == 0 {
		return fmt.Errorf("no languages declared")
	}
	seen := make(map[string]bool, len(m.Languages))
	for _, l := range m.Languages {
		if l.Code == "" {
			return fmt.Errorf("language with empty code")
		}
		if seen[l.Code] {
			return fmt.Errorf("duplicate language code %q", l.Code)
		}
		seen[l.Code] = true
		if l.Train == "" {
			return fmt.Errorf("language %q has no train corpus", l.Code)
		}
	}
	for _, d := range m.Dictionaries {
		if !seen[d.Source] || !seen[d.Target] {
			return fmt.Errorf("dictionary %s references undeclared language %q/%q",
				d.Path, d.Source, d.Target)
		}
		if d.Source == d.Target {
			return fmt.Errorf("dictionary %s maps language %q to itself", d.Path, d.Source)
		}
	}
	return nil
}

// LangID returns the dense id of a language code: its position in the
// manifest's declaration order.
func (m *Manifest) LangID(code string) (int, bool) {
	for i, l := range m.Languages {
		if l.Code == code {
			return i, true
		}
	}
	return 0, false
}
