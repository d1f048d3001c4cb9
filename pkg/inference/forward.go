package inference

import (
	"math"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// logSumExp is floats.LogSumExp extended to the empty set.
func logSumExp(v []float64) float64 {
	if len(v) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(v)
}

// Forward returns the numStates×L matrix F where F[s][t] is the log
// probability of emitting columns 0..t and being in state s at t.
func (e *Engine) Forward(seq Sequence) (*mat.Dense, error) {
	if err := e.check(seq); err != nil {
		return nil, err
	}
	return mat.NewDense(e.n, len(seq), e.forward(seq)), nil
}

func (e *Engine) forward(seq Sequence) []float64 {
	L := len(seq)
	f := make([]float64, e.n*L)
	for s := 0; s < e.n; s++ {
		f[s*L] = math.Inf(-1)
	}
	f[e.start*L] = 0

	buf := make([]float64, 0, e.n)
	for t := 1; t < L; t++ {
		for s := 0; s < e.n; s++ {
			buf = buf[:0]
			for _, p := range e.preds[s] {
				buf = append(buf, f[p*L+t-1]+e.lt(p, s))
			}
			f[s*L+t] = logSumExp(buf) + e.le(s, seq[t])
		}
	}
	return f
}

// Backward returns the numStates×L matrix B where B[s][t] is the log
// probability of emitting columns t+1..L-1 given state s at t. The last
// column is 0 for every state.
func (e *Engine) Backward(seq Sequence) (*mat.Dense, error) {
	if err := e.check(seq); err != nil {
		return nil, err
	}
	return mat.NewDense(e.n, len(seq), e.backward(seq)), nil
}

func (e *Engine) backward(seq Sequence) []float64 {
	L := len(seq)
	b := make([]float64, e.n*L)

	buf := make([]float64, 0, e.n)
	for t := L - 2; t >= 0; t-- {
		for s := 0; s < e.n; s++ {
			buf = buf[:0]
			for _, next := range e.succs[s] {
				buf = append(buf, b[next*L+t+1]+e.lt(s, next)+e.le(next, seq[t+1]))
			}
			b[s*L+t] = logSumExp(buf)
		}
	}
	return b
}

// LogLikelihood returns log P(sequence), the log-sum-exp of the last
// forward column. It is −Inf when no path emits the sequence.
func (e *Engine) LogLikelihood(seq Sequence) (float64, error) {
	if err := e.check(seq); err != nil {
		return 0, err
	}
	return e.logLikelihood(e.forward(seq), len(seq)), nil
}

func (e *Engine) logLikelihood(f []float64, L int) float64 {
	last := make([]float64, e.n)
	for s := range last {
		last[s] = f[s*L+L-1]
	}
	return logSumExp(last)
}

// PosteriorDecode picks, for every column, the state with the highest
// F+B. Ties go to the lowest state index.
func (e *Engine) PosteriorDecode(seq Sequence) (Path, error) {
	path, _, err := e.posterior(seq)
	return path, err
}

func (e *Engine) posterior(seq Sequence) (Path, float64, error) {
	if err := e.check(seq); err != nil {
		return nil, 0, err
	}
	L := len(seq)
	f := e.forward(seq)
	ll := e.logLikelihood(f, L)
	if math.IsInf(ll, -1) {
		return nil, ll, noPath("posterior", seq)
	}
	b := e.backward(seq)

	path := make(Path, L)
	col := make([]float64, e.n)
	for t := 0; t < L; t++ {
		for s := 0; s < e.n; s++ {
			col[s] = f[s*L+t] + b[s*L+t]
		}
		path[t] = floats.MaxIdx(col)
	}
	return path, ll, nil
}

// Posteriors returns the numStates×L matrix of state probabilities
// P(state s at column t | sequence). Every column sums to 1.
func (e *Engine) Posteriors(seq Sequence) (*mat.Dense, error) {
	if err := e.check(seq); err != nil {
		return nil, err
	}
	L := len(seq)
	f := e.forward(seq)
	ll := e.logLikelihood(f, L)
	if math.IsInf(ll, -1) {
		return nil, noPath("posterior", seq)
	}
	b := e.backward(seq)
	for i := range f {
		f[i] = math.Exp(f[i] + b[i] - ll)
	}
	return mat.NewDense(e.n, L, f), nil
}

func noPath(op string, seq Sequence) error {
	return model.NewError(op).Input().Context("%d residues", seq.Residues()).Cause(model.ErrNoPath).Err()
}
