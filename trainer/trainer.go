// Package trainer drives the skip-gram training loop: batching, optimization,
// periodic dev evaluation, checkpointing and early stopping.
package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/polyglotml/wordgram/internal/checkpoint"
	"github.com/polyglotml/wordgram/nn"
	"github.com/polyglotml/wordgram/skipgram"
)

// Config holds the loop hyper-parameters.
type Config struct {
	BatchSize    int     `yaml:"batch-size"`
	Patience     int     `yaml:"patience"`
	EvalInterval int     `yaml:"eval-interval"`
	LearningRate float64 `yaml:"learning-rate"`
	StorePrefix  string  `yaml:"store"`
	MaxEpochs    int     `yaml:"max-epochs"` // 0 means no cap, stop on patience only
}

// DefaultConfig returns the defaults of the original multilingual runs.
func DefaultConfig() Config {
	return Config{
		BatchSize:    100,
		Patience:     20,
		EvalInterval: 10000,
		LearningRate: 1e-4,
		StorePrefix:  "wordgram",
	}
}

// LoopState is the complete mutable state of one training run. It is passed
// explicitly so a run can be inspected or resumed without package globals.
type LoopState struct {
	RunID        string
	Epoch        int
	BatchesSeen  int
	BestNLL      float64
	PatienceLeft int
}

// Trainer runs the synchronous training loop over a train and a dev dataset.
type Trainer struct {
	cfg   Config
	enc   *nn.Encoder
	opt   *nn.Adam
	grads *nn.Gradients
	train *skipgram.Dataset
	dev   *skipgram.Dataset
	log   *slog.Logger
}

// New wires a trainer. dev may be nil; dev loss then falls back to the
// training set, which still gives early stopping a signal but no
// generalization estimate.
func New(cfg Config, enc *nn.Encoder, train, dev *skipgram.Dataset, log *slog.Logger) *Trainer {
	if log == nil {
		log = slog.Default()
	}
	if dev == nil {
		log.Warn("no dev set provided, evaluating loss on the training set")
		dev = train
	}
	return &Trainer{
		cfg:   cfg,
		enc:   enc,
		opt:   nn.NewAdam(cfg.LearningRate),
		grads: enc.NewGradients(),
		train: train,
		dev:   dev,
		log:   log,
	}
}

// Run trains until patience is exhausted or the context is cancelled. The
// returned state reflects the moment the loop stopped.
func (t *Trainer) Run(ctx context.Context) (*LoopState, error) {
	st := &LoopState{
		RunID:        uuid.NewString(),
		BestNLL:      math.Inf(1),
		PatienceLeft: t.cfg.Patience,
	}
	t.log.Info("training started",
		"run_id", st.RunID,
		"anchors", t.train.Count(),
		"batch_size", t.cfg.BatchSize,
		"patience", t.cfg.Patience)

	for st.PatienceLeft > 0 && (t.cfg.MaxEpochs == 0 || st.Epoch < t.cfg.MaxEpochs) {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		improved, err := t.epoch(ctx, st)
		if err != nil {
			return st, err
		}
		st.Epoch++
		if improved {
			st.PatienceLeft = t.cfg.Patience
		} else {
			st.PatienceLeft--
			t.log.Info("no improvement", "epoch", st.Epoch, "patience_left", st.PatienceLeft)
		}
	}
	t.log.Info("training finished", "epochs", st.Epoch, "best_nll", st.BestNLL)
	return st, nil
}

// epoch runs one pass over the training anchors. It reports whether dev loss
// improved at any evaluation during the epoch.
func (t *Trainer) epoch(ctx context.Context, st *LoopState) (bool, error) {
	t.train.Shuffle()
	t.train.Reset()

	bar := progressbar.NewOptions(t.train.Batches(t.cfg.BatchSize),
		progressbar.OptionSetDescription(fmt.Sprintf("epoch %d", st.Epoch+1)),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	improved := false
	for {
		if err := ctx.Err(); err != nil {
			return improved, err
		}
		examples, err := t.train.NextBatch(t.cfg.BatchSize)
		if err != nil {
			return improved, fmt.Errorf("trainer: draw batch: %w", err)
		}
		if len(examples) == 0 {
			break
		}

		loss := t.step(examples)
		st.BatchesSeen++
		bar.Add(1)

		if st.BatchesSeen%t.cfg.EvalInterval == 0 {
			t.log.Info("train loss", "batches", st.BatchesSeen, "loss", loss.Total)
			ok, err := t.evaluate(st)
			if err != nil {
				return improved, err
			}
			improved = improved || ok
		}
	}
	bar.Finish()

	ok, err := t.evaluate(st)
	if err != nil {
		return improved, err
	}
	return improved || ok, nil
}

// step runs forward, loss, backward and one optimizer update on a batch.
func (t *Trainer) step(examples []skipgram.Example) nn.LossResult {
	fb := skipgram.Assemble(t.train.Index(), examples)
	act := t.enc.Encode(fb.Words, fb.Langs)
	out := act.Output()

	r, c := out.Dims()
	dOut := mat.NewDense(r, c, nil)
	loss := nn.ContrastiveLoss(out, fb.Spans, dOut)

	t.grads.Zero()
	t.enc.Backward(act, dOut, t.grads)
	t.opt.Step(t.enc.Params(), t.grads.Params())
	return loss
}

// evaluate computes dev NLL and writes checkpoints: the rolling "last" file
// always, the "best" file on improvement. A failed write aborts the run.
func (t *Trainer) evaluate(st *LoopState) (bool, error) {
	nll, err := t.DevLoss()
	if err != nil {
		return false, err
	}
	t.log.Info("dev loss", "epoch", st.Epoch+1, "batches", st.BatchesSeen, "nll", nll)

	ck := &checkpoint.Checkpoint{
		RunID:   st.RunID,
		Epoch:   st.Epoch + 1,
		Batches: st.BatchesSeen,
		DevNLL:  nll,
		SavedAt: time.Now().UTC(),
		Params:  t.enc.State(),
	}
	if err := checkpoint.Save(checkpoint.LastPath(t.cfg.StorePrefix), ck); err != nil {
		return false, fmt.Errorf("trainer: %w", err)
	}
	if nll >= st.BestNLL {
		return false, nil
	}
	st.BestNLL = nll
	if err := checkpoint.Save(checkpoint.BestPath(t.cfg.StorePrefix), ck); err != nil {
		return false, fmt.Errorf("trainer: %w", err)
	}
	t.log.Info("new best model", "nll", nll, "path", checkpoint.BestPath(t.cfg.StorePrefix))
	return true, nil
}

// DevLoss runs a full forward-only pass over the dev anchors and returns the
// mean batch loss.
func (t *Trainer) DevLoss() (float64, error) {
	t.dev.Reset()
	total, batches := 0.0, 0
	for {
		examples, err := t.dev.NextBatch(t.cfg.BatchSize)
		if err != nil {
			return 0, fmt.Errorf("trainer: draw dev batch: %w", err)
		}
		if len(examples) == 0 {
			break
		}
		fb := skipgram.Assemble(t.dev.Index(), examples)
		act := t.enc.Encode(fb.Words, fb.Langs)
		loss := nn.ContrastiveLoss(act.Output(), fb.Spans, nil)
		total += loss.Total
		batches++
	}
	if batches == 0 {
		return 0, fmt.Errorf("trainer: dev set produced no batches")
	}
	return total / float64(batches), nil
}
