// Package wordgram trains multilingual character-level word embeddings with a
// skip-gram contrastive objective and decodes biaffine attachment scores into
// non-projective dependency trees.
//
//	m, _ := wordgram.LoadManifest("train.yaml")
//	state, _ := wordgram.Train(context.Background(), m, nil)
//	fmt.Println(state.BestNLL)
package wordgram

import (
	"context"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/polyglotml/wordgram/corpus"
	"github.com/polyglotml/wordgram/encoding"
	"github.com/polyglotml/wordgram/internal/checkpoint"
	"github.com/polyglotml/wordgram/nn"
	"github.com/polyglotml/wordgram/parser"
	"github.com/polyglotml/wordgram/skipgram"
	"github.com/polyglotml/wordgram/trainer"
)

// Model bundles a trained encoder with the encoding table it was built on.
type Model struct {
	Encoder *nn.Encoder
	Table   *encoding.Table
}

// Train runs the full pipeline described by the manifest: load corpora,
// compute the encoding table, build co-occurrence indexes, and train the
// encoder until early stopping. The encoding table and checkpoints are
// written under the manifest's store prefix.
func Train(ctx context.Context, m *Manifest, log *slog.Logger) (*trainer.LoopState, error) {
	if log == nil {
		log = slog.Default()
	}

	trainSeqs, devSeqs, err := loadCorpora(m, log)
	if err != nil {
		return nil, err
	}

	table := encoding.NewTable()
	table.Compute(trainSeqs, m.TokenCutoff, m.CharCutoff)
	encPath := checkpoint.EncodingsPath(m.Trainer.StorePrefix)
	if err := table.Save(encPath); err != nil {
		return nil, fmt.Errorf("wordgram: %w", err)
	}
	log.Info("encoding table computed",
		"chars", table.NumChars(), "tokens", table.NumTokens(), "path", encPath)

	idx := skipgram.Build(trainSeqs, m.Cooc)
	if idx.Count() == 0 {
		return nil, fmt.Errorf("wordgram: no trainable words survive window=%d min-freq=%d",
			m.Cooc.Window, m.Cooc.MinFreq)
	}
	log.Info("co-occurrence index built", "vocabulary", idx.NumWords(), "trainable", idx.Count())

	dict, err := loadDictionaries(m, log)
	if err != nil {
		return nil, err
	}

	sampler := skipgram.NewSampler(m.Seed)
	train := skipgram.NewDataset(idx, dict, sampler)

	var dev *skipgram.Dataset
	if len(devSeqs) > 0 {
		devIdx := skipgram.Build(devSeqs, m.Cooc)
		if devIdx.Count() > 0 {
			dev = skipgram.NewDataset(devIdx, dict, skipgram.NewSampler(m.Seed+1))
		} else {
			log.Warn("dev corpora produced no trainable words, falling back to train loss")
		}
	}

	enc := nn.NewEncoder(m.Encoder, table, m.Seed)
	return trainer.New(m.Trainer, enc, train, dev, log).Run(ctx)
}

// Evaluate restores the best checkpoint under the manifest's store prefix and
// reports the mean contrastive loss over the manifest's dev corpora. When no
// language declares a dev corpus, the training corpora are scored instead.
func Evaluate(m *Manifest, log *slog.Logger) (float64, error) {
	if log == nil {
		log = slog.Default()
	}
	model, ck, err := LoadModel(m.Trainer.StorePrefix)
	if err != nil {
		return 0, err
	}
	log.Info("checkpoint loaded", "run_id", ck.RunID, "epoch", ck.Epoch, "train_dev_nll", ck.DevNLL)

	trainSeqs, devSeqs, err := loadCorpora(m, log)
	if err != nil {
		return 0, err
	}
	seqs := devSeqs
	if len(seqs) == 0 {
		log.Warn("no dev corpora declared, scoring the training corpora")
		seqs = trainSeqs
	}
	idx := skipgram.Build(seqs, m.Cooc)
	if idx.Count() == 0 {
		return 0, fmt.Errorf("wordgram: no trainable words survive window=%d min-freq=%d",
			m.Cooc.Window, m.Cooc.MinFreq)
	}
	dict, err := loadDictionaries(m, log)
	if err != nil {
		return 0, err
	}
	ds := skipgram.NewDataset(idx, dict, skipgram.NewSampler(m.Seed))
	return trainer.New(m.Trainer, model.Encoder, ds, ds, log).DevLoss()
}

// EvaluateParser decodes attachment trees for gold treebank sentences and
// reports UAS per language and overall. Each sentence runs through the
// encoder, the biaffine scorer, a row softmax and the spanning-arborescence
// decoder; the scorer's width must match the encoder output. Gold trees are
// validated up front.
func EvaluateParser(m *Model, scorer *parser.Biaffine, trees []corpus.Tree) (*parser.Evaluator, error) {
	dim := m.Encoder.OutputDim()
	if wr, _ := scorer.W.Dims(); wr != dim {
		return nil, fmt.Errorf("wordgram: scorer width %d does not match encoder output %d", wr, dim)
	}

	var dec parser.Decoder
	ev := parser.NewEvaluator()
	for i, tr := range trees {
		if len(tr.Heads) != len(tr.Tokens)+1 {
			return nil, fmt.Errorf("wordgram: sentence %d: %d heads for %d tokens",
				i, len(tr.Heads), len(tr.Tokens))
		}
		if err := parser.ValidateTree(tr.Heads); err != nil {
			return nil, fmt.Errorf("wordgram: sentence %d: %w", i, err)
		}
		if len(tr.Tokens) == 0 {
			continue
		}

		langs := make([]int, len(tr.Tokens))
		for j := range langs {
			langs[j] = tr.Lang
		}
		enc := m.Encoder.Encode(tr.Tokens, langs).Output()

		// Row 0 is the artificial root, kept at zero.
		reps := mat.NewDense(len(tr.Tokens)+1, dim, nil)
		for j := range tr.Tokens {
			copy(reps.RawRowView(j+1), enc.RawRowView(j))
		}

		scores := scorer.Score(reps)
		parser.Softmax(scores)
		heads := dec.Decode(scores)
		ev.Add(tr.Lang, heads, tr.Heads, nil, nil)
	}
	return ev, nil
}

// LoadModel restores the best checkpoint written under a store prefix.
func LoadModel(prefix string) (*Model, *checkpoint.Checkpoint, error) {
	table, err := encoding.Load(checkpoint.EncodingsPath(prefix))
	if err != nil {
		return nil, nil, fmt.Errorf("wordgram: %w", err)
	}
	ck, err := checkpoint.Load(checkpoint.BestPath(prefix))
	if err != nil {
		return nil, nil, fmt.Errorf("wordgram: %w", err)
	}
	if ck.Params == nil {
		return nil, nil, fmt.Errorf("wordgram: checkpoint %s has no parameters", checkpoint.BestPath(prefix))
	}
	enc := nn.NewEncoder(ck.Params.Config, table, 0)
	if err := enc.LoadState(ck.Params); err != nil {
		return nil, nil, fmt.Errorf("wordgram: %w", err)
	}
	return &Model{Encoder: enc, Table: table}, ck, nil
}

// Encode returns the embedding rows for a batch of words tagged with a
// manifest language id.
func (m *Model) Encode(words []string, lang int) [][]float64 {
	langs := make([]int, len(words))
	for i := range langs {
		langs[i] = lang
	}
	out := m.Encoder.Encode(words, langs).Output()
	rows := make([][]float64, len(words))
	for i := range rows {
		rows[i] = append([]float64(nil), out.RawRowView(i)...)
	}
	return rows
}

func loadCorpora(m *Manifest, log *slog.Logger) (train, dev []corpus.Sequence, err error) {
	for id, l := range m.Languages {
		seqs, err := corpus.Load(l.Train, id)
		if err != nil {
			return nil, nil, fmt.Errorf("wordgram: language %q: %w", l.Code, err)
		}
		log.Info("train corpus loaded", "lang", l.Code, "sequences", len(seqs))
		train = append(train, seqs...)

		if l.Dev == "" {
			continue
		}
		dseqs, err := corpus.Load(l.Dev, id)
		if err != nil {
			return nil, nil, fmt.Errorf("wordgram: language %q: %w", l.Code, err)
		}
		log.Info("dev corpus loaded", "lang", l.Code, "sequences", len(dseqs))
		dev = append(dev, dseqs...)
	}
	return train, dev, nil
}

func loadDictionaries(m *Manifest, log *slog.Logger) (*corpus.Dictionary, error) {
	if len(m.Dictionaries) == 0 {
		return nil, nil
	}
	dict := corpus.NewDictionary()
	for _, d := range m.Dictionaries {
		src, _ := m.LangID(d.Source)
		dst, _ := m.LangID(d.Target)
		if err := dict.LoadDictionary(d.Path, src, dst); err != nil {
			return nil, fmt.Errorf("wordgram: dictionary %s: %w", d.Path, err)
		}
	}
	log.Info("dictionaries loaded", "entries", dict.Len())
	return dict, nil
}
