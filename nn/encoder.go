// Package nn implements the character-convolutional word encoder, the
// contrastive loss and the Adam optimizer used to train it.
//
// There is no general-purpose autograd: gradients are derived by hand for
// exactly the layers the encoder uses, the same way the rest of the model
// math is written out explicitly.
package nn

import (
	"fmt"
	"math"
	"math/rand"
	"unicode"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/polyglotml/wordgram/encoding"
)

// Character case classes. PAD is 0 so the embedding table lines up with the
// reserved character ids.
const (
	casePad      = 0
	caseCaseless = 1 // digits, symbols, anything without case
	caseUpper    = 2
	caseLower    = 3
	caseTitle    = 4 // titlecase or mixed-case runes
	numCases     = 5
)

// EncoderConfig holds the encoder hyperparameters.
type EncoderConfig struct {
	CharEmbSize int     `json:"char_emb_size" yaml:"char-emb-size"`
	CaseEmbSize int     `json:"case_emb_size" yaml:"case-emb-size"`
	LangEmbSize int     `json:"lang_emb_size" yaml:"lang-emb-size"`
	NumFilters  int     `json:"num_filters" yaml:"num-filters"` // conv output channels, split in half by the gate
	KernelSize  int     `json:"kernel_size" yaml:"kernel-size"` // must be odd
	NumLayers   int     `json:"num_layers" yaml:"num-layers"`
	OutputBound float64 `json:"output_bound" yaml:"output-bound"` // scaled-tanh range
}

// DefaultEncoderConfig returns the sizes of the original multilingual model.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		CharEmbSize: 256,
		CaseEmbSize: 32,
		LangEmbSize: 32,
		NumFilters:  256,
		KernelSize:  5,
		NumLayers:   3,
		OutputBound: 5,
	}
}

// Encoder turns surface-form strings into fixed-width vectors. The character
// sequence is reversed before embedding so the convolution sees suffixes
// first, then a stack of GLU-gated convolutions is summed over the time axis
// and bounded with a scaled tanh.
type Encoder struct {
	cfg   EncoderConfig
	table *encoding.Table

	charEmb *mat.Dense   // numChars x CharEmbSize
	caseEmb *mat.Dense   // numCases x CaseEmbSize
	langEmb *mat.Dense   // numLangs x LangEmbSize
	convW   []*mat.Dense // per layer: NumFilters x (inCh*KernelSize)
	convB   []*mat.Dense // per layer: 1 x NumFilters
}

// NewEncoder builds an encoder with randomly initialized parameters.
func NewEncoder(cfg EncoderConfig, table *encoding.Table, seed int64) *Encoder {
	rng := rand.New(rand.NewSource(seed))
	e := &Encoder{cfg: cfg, table: table}

	e.charEmb = randDense(rng, table.NumChars(), cfg.CharEmbSize, 0.1)
	e.caseEmb = randDense(rng, numCases, cfg.CaseEmbSize, 0.1)
	e.langEmb = randDense(rng, max(table.NumLangs, 1), cfg.LangEmbSize, 0.1)

	for l := 0; l < cfg.NumLayers; l++ {
		in := e.layerInput(l)
		scale := 1.0 / math.Sqrt(float64(in*cfg.KernelSize))
		e.convW = append(e.convW, randDense(rng, cfg.NumFilters, in*cfg.KernelSize, scale))
		e.convB = append(e.convB, mat.NewDense(1, cfg.NumFilters, nil))
	}
	return e
}

func randDense(rng *rand.Rand, r, c int, scale float64) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(r, c, data)
}

// OutputDim returns the width of the encoded vectors.
func (e *Encoder) OutputDim() int { return e.cfg.NumFilters / 2 }

// Config returns the encoder hyperparameters.
func (e *Encoder) Config() EncoderConfig { return e.cfg }

func (e *Encoder) layerInput(l int) int {
	if l == 0 {
		return e.cfg.CharEmbSize + e.cfg.CaseEmbSize + e.cfg.LangEmbSize
	}
	return e.cfg.NumFilters / 2
}

// wordState caches one word's forward pass for backprop.
type wordState struct {
	charIDs []int
	caseIDs []int
	lang    int
	inputs  []*mat.Dense // input to each conv layer, T x inCh
	zs      []*mat.Dense // preactivations, T x NumFilters
	as      []*mat.Dense // gated outputs, T x H
	sum     []float64    // residual-accumulated time sum, H
}

// Activations holds the cached forward pass of one batch.
type Activations struct {
	words []wordState
	out   *mat.Dense // n x H
}

// Output returns the encoded vectors, one row per input string.
func (a *Activations) Output() *mat.Dense { return a.out }

// Encode runs the forward pass over a flat batch of surface forms with
// parallel language ids, caching activations for Backward.
func (e *Encoder) Encode(words []string, langs []int) *Activations {
	h := e.OutputDim()
	act := &Activations{
		words: make([]wordState, len(words)),
		out:   mat.NewDense(max(len(words), 1), h, nil),
	}
	for i, w := range words {
		ws := e.forwardWord(w, langs[i])
		act.words[i] = ws
		for j := 0; j < h; j++ {
			b := e.cfg.OutputBound
			act.out.Set(i, j, b*math.Tanh(ws.sum[j]/b))
		}
	}
	return act
}

func (e *Encoder) forwardWord(word string, lang int) wordState {
	runes := []rune(word)
	// Reverse so the convolution sees the suffix first. This is an explicit
	// design choice of the model, not incidental.
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}

	T := len(runes)
	ws := wordState{lang: lang}
	if T == 0 {
		T = 1
		ws.charIDs = []int{encoding.UnkID}
		ws.caseIDs = []int{casePad}
	} else {
		ws.charIDs = make([]int, T)
		ws.caseIDs = make([]int, T)
		for t, r := range runes {
			ws.charIDs[t] = e.table.CharID(r)
			ws.caseIDs[t] = caseClass(r)
		}
	}

	// Embedding concat: char ++ case ++ lang, identical per-row lang vector.
	d0 := e.layerInput(0)
	x := mat.NewDense(T, d0, nil)
	dc, da := e.cfg.CharEmbSize, e.cfg.CaseEmbSize
	langRow := e.langEmb.RawRowView(clampRow(lang, e.langEmb))
	for t := 0; t < T; t++ {
		row := x.RawRowView(t)
		copy(row[:dc], e.charEmb.RawRowView(ws.charIDs[t]))
		copy(row[dc:dc+da], e.caseEmb.RawRowView(ws.caseIDs[t]))
		copy(row[dc+da:], langRow)
	}

	h := e.OutputDim()
	ws.sum = make([]float64, h)
	for l := 0; l < e.cfg.NumLayers; l++ {
		z := e.convolve(l, x)
		a := mat.NewDense(T, h, nil)
		for t := 0; t < T; t++ {
			zrow := z.RawRowView(t)
			arow := a.RawRowView(t)
			for j := 0; j < h; j++ {
				arow[j] = math.Tanh(zrow[j]) * sigmoid(zrow[h+j])
			}
			// Residual accumulation across layers, summed over time.
			floats.Add(ws.sum, arow)
		}
		ws.inputs = append(ws.inputs, x)
		ws.zs = append(ws.zs, z)
		ws.as = append(ws.as, a)
		x = a
	}
	return ws
}

// convolve applies layer l's 1-D convolution with zero padding.
func (e *Encoder) convolve(l int, x *mat.Dense) *mat.Dense {
	T, in := x.Dims()
	k := e.cfg.KernelSize
	pad := k / 2
	z := mat.NewDense(T, e.cfg.NumFilters, nil)
	bias := e.convB[l].RawRowView(0)
	for t := 0; t < T; t++ {
		zrow := z.RawRowView(t)
		copy(zrow, bias)
		for o := 0; o < e.cfg.NumFilters; o++ {
			wrow := e.convW[l].RawRowView(o)
			for kk := 0; kk < k; kk++ {
				tt := t + kk - pad
				if tt < 0 || tt >= T {
					continue
				}
				zrow[o] += floats.Dot(wrow[kk*in:(kk+1)*in], x.RawRowView(tt))
			}
		}
	}
	return z
}

// Backward accumulates parameter gradients for d(loss)/d(output) into g.
func (e *Encoder) Backward(act *Activations, dOut *mat.Dense, g *Gradients) {
	h := e.OutputDim()
	b := e.cfg.OutputBound
	for i := range act.words {
		ws := &act.words[i]

		// Through the bounded output: d/dv b*tanh(v/b) = 1 - tanh^2(v/b).
		dSum := make([]float64, h)
		for j := 0; j < h; j++ {
			th := math.Tanh(ws.sum[j] / b)
			dSum[j] = dOut.At(i, j) * (1 - th*th)
		}
		e.backwardWord(ws, dSum, g)
	}
}

func (e *Encoder) backwardWord(ws *wordState, dSum []float64, g *Gradients) {
	h := e.OutputDim()
	T := len(ws.charIDs)
	k := e.cfg.KernelSize
	pad := k / 2

	// Every layer's output feeds the residual sum; the gradient from the
	// next layer's input is added on top while walking backwards.
	var dNextInput *mat.Dense
	for l := e.cfg.NumLayers - 1; l >= 0; l-- {
		in := e.layerInput(l)
		dA := mat.NewDense(T, h, nil)
		for t := 0; t < T; t++ {
			copy(dA.RawRowView(t), dSum)
			if dNextInput != nil {
				floats.Add(dA.RawRowView(t), dNextInput.RawRowView(t))
			}
		}

		// GLU backward: a = tanh(p) * sigmoid(q).
		dZ := mat.NewDense(T, e.cfg.NumFilters, nil)
		z := ws.zs[l]
		for t := 0; t < T; t++ {
			zrow := z.RawRowView(t)
			dzrow := dZ.RawRowView(t)
			darow := dA.RawRowView(t)
			for j := 0; j < h; j++ {
				tp := math.Tanh(zrow[j])
				sq := sigmoid(zrow[h+j])
				dzrow[j] = darow[j] * sq * (1 - tp*tp)
				dzrow[h+j] = darow[j] * tp * sq * (1 - sq)
			}
		}

		// Convolution backward.
		x := ws.inputs[l]
		dX := mat.NewDense(T, in, nil)
		dW := g.convW[l]
		dB := g.convB[l].RawRowView(0)
		for t := 0; t < T; t++ {
			dzrow := dZ.RawRowView(t)
			floats.Add(dB, dzrow)
			for o := 0; o < e.cfg.NumFilters; o++ {
				if dzrow[o] == 0 {
					continue
				}
				wrow := e.convW[l].RawRowView(o)
				dwrow := dW.RawRowView(o)
				for kk := 0; kk < k; kk++ {
					tt := t + kk - pad
					if tt < 0 || tt >= T {
						continue
					}
					floats.AddScaled(dwrow[kk*in:(kk+1)*in], dzrow[o], x.RawRowView(tt))
					floats.AddScaled(dX.RawRowView(tt), dzrow[o], wrow[kk*in:(kk+1)*in])
				}
			}
		}
		dNextInput = dX
	}

	// Embedding gradients from the first layer's input.
	dc, da := e.cfg.CharEmbSize, e.cfg.CaseEmbSize
	langRow := g.langEmb.RawRowView(clampRow(ws.lang, g.langEmb))
	for t := 0; t < T; t++ {
		row := dNextInput.RawRowView(t)
		floats.Add(g.charEmb.RawRowView(ws.charIDs[t]), row[:dc])
		floats.Add(g.caseEmb.RawRowView(ws.caseIDs[t]), row[dc:dc+da])
		floats.Add(langRow, row[dc+da:])
	}
}

// Params returns the trainable tensors in a stable order.
func (e *Encoder) Params() []*mat.Dense {
	out := []*mat.Dense{e.charEmb, e.caseEmb, e.langEmb}
	for l := range e.convW {
		out = append(out, e.convW[l], e.convB[l])
	}
	return out
}

// Gradients mirrors the encoder parameters.
type Gradients struct {
	charEmb *mat.Dense
	caseEmb *mat.Dense
	langEmb *mat.Dense
	convW   []*mat.Dense
	convB   []*mat.Dense
}

// NewGradients allocates a zeroed gradient set matching the encoder.
func (e *Encoder) NewGradients() *Gradients {
	g := &Gradients{
		charEmb: zeroLike(e.charEmb),
		caseEmb: zeroLike(e.caseEmb),
		langEmb: zeroLike(e.langEmb),
	}
	for l := range e.convW {
		g.convW = append(g.convW, zeroLike(e.convW[l]))
		g.convB = append(g.convB, zeroLike(e.convB[l]))
	}
	return g
}

// Params returns the gradient tensors in the same order as Encoder.Params.
func (g *Gradients) Params() []*mat.Dense {
	out := []*mat.Dense{g.charEmb, g.caseEmb, g.langEmb}
	for l := range g.convW {
		out = append(out, g.convW[l], g.convB[l])
	}
	return out
}

// Zero clears all gradient tensors in place.
func (g *Gradients) Zero() {
	for _, m := range g.Params() {
		m.Zero()
	}
}

func zeroLike(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	return mat.NewDense(r, c, nil)
}

func clampRow(i int, m *mat.Dense) int {
	r, _ := m.Dims()
	if i < 0 {
		return 0
	}
	if i >= r {
		return r - 1
	}
	return i
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// caseClass assigns the per-character case id: caseless for anything without
// a case distinction, then upper, lower, or titlecase/mixed.
func caseClass(r rune) int {
	switch {
	case unicode.ToLower(r) == unicode.ToUpper(r):
		return caseCaseless
	case unicode.IsUpper(r):
		return caseUpper
	case unicode.IsLower(r):
		return caseLower
	default:
		return caseTitle
	}
}

// State captures the encoder parameters for checkpointing.
type State struct {
	Config   EncoderConfig `json:"config"`
	NumChars int           `json:"num_chars"`
	NumLangs int           `json:"num_langs"`
	CharEmb  [][]float64   `json:"char_emb"`
	CaseEmb  [][]float64   `json:"case_emb"`
	LangEmb  [][]float64   `json:"lang_emb"`
	ConvW    [][][]float64 `json:"conv_w"`
	ConvB    [][]float64   `json:"conv_b"`
}

// State snapshots the current parameters.
func (e *Encoder) State() *State {
	s := &State{
		Config:   e.cfg,
		NumChars: e.table.NumChars(),
		NumLangs: e.table.NumLangs,
		CharEmb:  denseRows(e.charEmb),
		CaseEmb:  denseRows(e.caseEmb),
		LangEmb:  denseRows(e.langEmb),
	}
	for l := range e.convW {
		s.ConvW = append(s.ConvW, denseRows(e.convW[l]))
		s.ConvB = append(s.ConvB, append([]float64(nil), e.convB[l].RawRowView(0)...))
	}
	return s
}

// LoadState restores parameters from a snapshot. Dimensions must match the
// encoder's current configuration and encoding table.
func (e *Encoder) LoadState(s *State) error {
	if s.NumChars != e.table.NumChars() || s.NumLangs != e.table.NumLangs {
		return fmt.Errorf("nn: state shape mismatch: chars %d/%d langs %d/%d",
			s.NumChars, e.table.NumChars(), s.NumLangs, e.table.NumLangs)
	}
	if s.Config != e.cfg {
		return fmt.Errorf("nn: state config mismatch")
	}
	if err := setRows(e.charEmb, s.CharEmb); err != nil {
		return err
	}
	if err := setRows(e.caseEmb, s.CaseEmb); err != nil {
		return err
	}
	if err := setRows(e.langEmb, s.LangEmb); err != nil {
		return err
	}
	for l := range e.convW {
		if err := setRows(e.convW[l], s.ConvW[l]); err != nil {
			return err
		}
		copy(e.convB[l].RawRowView(0), s.ConvB[l])
	}
	return nil
}

func denseRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = append([]float64(nil), m.RawRowView(i)...)
	}
	return out
}

func setRows(m *mat.Dense, rows [][]float64) error {
	r, c := m.Dims()
	if len(rows) != r {
		return fmt.Errorf("nn: state shape mismatch: %d rows, want %d", len(rows), r)
	}
	for i := 0; i < r; i++ {
		if len(rows[i]) != c {
			return fmt.Errorf("nn: state shape mismatch: row %d has %d cols, want %d", i, len(rows[i]), c)
		}
		copy(m.RawRowView(i), rows[i])
	}
	return nil
}
