// Package model compiles textual profile-HMM descriptions into validated
// transition and emission tables.
//
// A description is a sequence of state blocks:
//
//	inglob {
//	  trans inglob:0.98 Mi1:0.02;
//	  only  A:0.09 C:0.02 ...;
//	  label i;
//	}
//
// The first declared state is the silent start state. The state named by
// CompileOptions.EndState is the silent terminal state. A Model is
// immutable; ApplyEndSmoothing returns a new one.
package model

import (
	"time"

	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultHeaderLines is the fixed header block skipped before parsing.
	DefaultHeaderLines = 9
	// DefaultEndState names the terminal state.
	DefaultEndState = "end"
	// DefaultTolerance bounds row-sum drift from 1.
	DefaultTolerance = 1e-6
)

// CompileRecorder receives compilation outcomes. *metrics.Registry
// satisfies it.
type CompileRecorder interface {
	RecordCompilation(status string, states int, duration time.Duration)
}

// CompileOptions configures Compile and FromTables.
type CompileOptions struct {
	HeaderLines int
	Alphabet    *Alphabet
	EndState    string
	Tolerance   float64
	Logger      logging.Logger
	Metrics     CompileRecorder

	// Smoothed declares that tables passed to FromTables already carry
	// end smoothing, so it cannot be applied a second time.
	Smoothed bool
}

// DefaultCompileOptions returns the options used for the TMHMM model files.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{
		HeaderLines: DefaultHeaderLines,
		Alphabet:    AminoAcids,
		EndState:    DefaultEndState,
		Tolerance:   DefaultTolerance,
	}
}

func (o CompileOptions) withDefaults() CompileOptions {
	if o.Alphabet == nil {
		o.Alphabet = AminoAcids
	}
	if o.EndState == "" {
		o.EndState = DefaultEndState
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	o.Logger = logging.OrNop(o.Logger)
	return o
}

// Model is a compiled, validated profile HMM.
type Model struct {
	tables   *Tables
	index    *TopologyIndex
	start    int
	end      int
	smoothed bool
	tol      float64
}

// Compile parses text, resolves ties, builds the tables and validates them.
func Compile(text string, opts CompileOptions) (*Model, error) {
	opts = opts.withDefaults()
	timer := logging.StartDebugTimer(opts.Logger, "model compiled", logging.Component("compiler"))

	m, err := compile(text, opts)
	status := "success"
	if err != nil {
		status = "error"
		opts.Logger.Error("model compilation failed", logging.Component("compiler"), logging.Error(err))
	} else {
		timer.End(logging.Count(m.NumStates()))
	}
	if opts.Metrics != nil {
		states := 0
		if m != nil {
			states = m.NumStates()
		}
		opts.Metrics.RecordCompilation(status, states, timer.Elapsed())
	}
	return m, err
}

func compile(text string, opts CompileOptions) (*Model, error) {
	set, err := parseText(text, opts.HeaderLines, opts.Logger)
	if err != nil {
		return nil, err
	}
	if err := completeStates(set); err != nil {
		return nil, err
	}
	tables, err := statesToTables(set, opts.Alphabet)
	if err != nil {
		return nil, err
	}
	return newModel(tables, opts)
}

// FromTables wraps already-built matrices, such as those read back from
// the TSV interchange files. The tables are copied and validated.
func FromTables(t *Tables, opts CompileOptions) (*Model, error) {
	opts = opts.withDefaults()
	if t == nil || t.Transition == nil || t.Emission == nil {
		return nil, NewError("tables").Context("missing matrix").Cause(ErrTooFewStates).Err()
	}
	c := t.Clone()
	if c.Alphabet == nil {
		c.Alphabet = opts.Alphabet
	}
	if len(c.Labels) != len(c.States) {
		c.Labels = make([]string, len(c.States))
	}

	n := len(c.States)
	if r, cols := c.Transition.Dims(); r != n || cols != n {
		return nil, NewError("tables").Context("transition is %dx%d for %d states", r, cols, n).
			Cause(ErrNotStochastic).Err()
	}
	if r, cols := c.Emission.Dims(); r != n-1 || cols != c.Alphabet.Len() {
		return nil, NewError("tables").Context("emission is %dx%d, want %dx%d", r, cols, n-1, c.Alphabet.Len()).
			Cause(ErrNotStochastic).Err()
	}
	return newModel(c, opts)
}

func newModel(t *Tables, opts CompileOptions) (*Model, error) {
	if len(t.States) < 2 {
		return nil, NewError("tables").Cause(ErrTooFewStates).Err()
	}
	index, err := NewTopologyIndex(t.States)
	if err != nil {
		return nil, err
	}
	end, err := index.IndexOf(opts.EndState)
	if err != nil {
		return nil, err
	}
	if end == 0 {
		return nil, NewError("tables").Subject(opts.EndState).Context("end state cannot be the start state").
			Cause(ErrTooFewStates).Err()
	}
	if err := validateTables(t, end, opts.Tolerance); err != nil {
		return nil, err
	}

	opts.Logger.Debug("tables built",
		logging.Component("compiler"),
		logging.Int("states", len(t.States)),
		logging.Int("alphabet", t.Alphabet.Len()),
		logging.State(t.States[0]))

	return &Model{
		tables:   t,
		index:    index,
		start:    0,
		end:      end,
		smoothed: opts.Smoothed,
		tol:      opts.Tolerance,
	}, nil
}

// Index returns the shared topology index.
func (m *Model) Index() *TopologyIndex { return m.index }

// NumStates returns the number of states.
func (m *Model) NumStates() int { return len(m.tables.States) }

// States returns the state names in index order.
func (m *Model) States() []string { return m.index.Names() }

// Alphabet returns the emission alphabet.
func (m *Model) Alphabet() *Alphabet { return m.tables.Alphabet }

// StartIndex is always 0.
func (m *Model) StartIndex() int { return m.start }

// EndIndex returns the terminal state's index.
func (m *Model) EndIndex() int { return m.end }

// Smoothed reports whether ApplyEndSmoothing produced this model.
func (m *Model) Smoothed() bool { return m.smoothed }

// Label returns the label attribute of state i.
func (m *Model) Label(i int) string { return m.tables.Labels[i] }

// Transition returns P(from → to).
func (m *Model) Transition(from, to int) float64 {
	return m.tables.Transition.At(from, to)
}

// Emission returns the probability that state emits the symbol at
// alphabet position sym. The start state emits nothing.
func (m *Model) Emission(state, sym int) float64 {
	if state == m.start {
		return 0
	}
	return m.tables.Emission.At(state-1, sym)
}

// TransitionMatrix returns a copy of the transition matrix.
func (m *Model) TransitionMatrix() *mat.Dense { return mat.DenseCopyOf(m.tables.Transition) }

// EmissionMatrix returns a copy of the emission matrix.
func (m *Model) EmissionMatrix() *mat.Dense { return mat.DenseCopyOf(m.tables.Emission) }

// Tables returns a deep copy of the compiled tables.
func (m *Model) Tables() *Tables { return m.tables.Clone() }
