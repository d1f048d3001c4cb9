// Package inference runs log-space forward, backward, posterior and
// Viterbi decoding over a compiled model.
//
// An Engine is read-only after construction and safe for concurrent use.
// Every call allocates its own working matrices.
package inference

import (
	"math"

	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
	"github.com/dd0wney/cluso-tmhmm/pkg/topology"
)

// Engine holds the log-space tables of one model.
type Engine struct {
	model *model.Model
	n     int
	start int
	end   int

	// logT is n×n row-major. logE is n×cols row-major where cols is the
	// alphabet plus the start and end sentinel columns.
	logT []float64
	logE []float64
	cols int

	// Nonzero transitions, each list in increasing index order.
	preds [][]int
	succs [][]int

	projector topology.Projector
	logger    logging.Logger
	metrics   PredictionRecorder
}

// NewEngine precomputes the log tables of m.
func NewEngine(m *model.Model, opts EngineOptions) (*Engine, error) {
	if m == nil {
		return nil, model.NewError("engine").Context("nil model").Cause(model.ErrTooFewStates).Err()
	}
	n := m.NumStates()
	a := m.Alphabet().Len()
	e := &Engine{
		model:   m,
		n:       n,
		start:   m.StartIndex(),
		end:     m.EndIndex(),
		cols:    a + 2,
		logT:    make([]float64, n*n),
		logE:    make([]float64, n*(a+2)),
		preds:   make([][]int, n),
		succs:   make([][]int, n),
		logger:  logging.OrNop(opts.Logger),
		metrics: opts.Metrics,
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p := m.Transition(i, j)
			e.logT[i*n+j] = math.Log(p)
			if p > 0 {
				e.succs[i] = append(e.succs[i], j)
				e.preds[j] = append(e.preds[j], i)
			}
		}
	}

	for i := 0; i < n; i++ {
		row := e.logE[i*e.cols : (i+1)*e.cols]
		for k := range row {
			row[k] = math.Inf(-1)
		}
		switch i {
		case e.start:
			row[e.startColumn()] = 0
		case e.end:
			row[e.endColumn()] = 0
		default:
			for k := 0; k < a; k++ {
				row[k] = math.Log(m.Emission(i, k))
			}
		}
	}

	e.projector = opts.Projector
	if e.projector == nil {
		p, err := topology.NewLabelProjector(m)
		if err != nil {
			return nil, err
		}
		e.projector = p
	}

	e.logger.Debug("engine ready",
		logging.Component("engine"),
		logging.Count(n),
		logging.Int("columns", e.cols))
	return e, nil
}

// Model returns the compiled model the engine decodes with.
func (e *Engine) Model() *model.Model { return e.model }

func (e *Engine) startColumn() int { return e.cols - 2 }
func (e *Engine) endColumn() int   { return e.cols - 1 }

func (e *Engine) lt(from, to int) float64 { return e.logT[from*e.n+to] }
func (e *Engine) le(state, col int) float64 { return e.logE[state*e.cols+col] }

// Encode frames residues with the sentinels and maps every residue to
// its alphabet column. Residues must be bare alphabet symbols; anything
// else, the sentinel characters included, is an input error.
func (e *Engine) Encode(residues string) (Sequence, error) {
	if residues == "" {
		return nil, model.NewError("encode").Input().Cause(model.ErrEmptySequence).Err()
	}
	alphabet := e.model.Alphabet()
	seq := make(Sequence, len(residues)+2)
	seq[0] = e.startColumn()
	for i := 0; i < len(residues); i++ {
		k, ok := alphabet.Index(residues[i])
		if !ok {
			return nil, model.NewError("encode").Input().Subject(string(residues[i])).At(i+1).
				Context("not in alphabet %s", alphabet).Cause(model.ErrUnknownSymbol).Err()
		}
		seq[i+1] = k
	}
	seq[len(seq)-1] = e.endColumn()
	return seq, nil
}

// check rejects sequences that were not produced by Encode for this
// engine's alphabet.
func (e *Engine) check(seq Sequence) error {
	if len(seq) < 3 {
		return model.NewError("decode").Input().Cause(model.ErrEmptySequence).Err()
	}
	for t, c := range seq {
		if c < 0 || c >= e.cols {
			return model.NewError("decode").Input().At(t).Context("column %d", c).
				Cause(model.ErrUnknownSymbol).Err()
		}
	}
	return nil
}
