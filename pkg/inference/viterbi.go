package inference

import (
	"math"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

// ViterbiDecode returns the most probable state path. Among equally
// probable predecessors the lowest state index wins.
func (e *Engine) ViterbiDecode(seq Sequence) (Path, error) {
	path, _, err := e.viterbi(seq)
	return path, err
}

// viterbi also returns the log probability of the best path.
func (e *Engine) viterbi(seq Sequence) (Path, float64, error) {
	if err := e.check(seq); err != nil {
		return nil, 0, err
	}
	L := len(seq)
	v := make([]float64, e.n*L)
	ptr := make([]int, e.n*L)
	for s := 0; s < e.n; s++ {
		v[s*L] = math.Inf(-1)
		ptr[s*L] = -1
	}
	v[e.start*L] = 0

	for t := 1; t < L; t++ {
		for s := 0; s < e.n; s++ {
			best, arg := math.Inf(-1), -1
			for _, p := range e.preds[s] {
				if c := v[p*L+t-1] + e.lt(p, s); c > best {
					best, arg = c, p
				}
			}
			v[s*L+t] = best + e.le(s, seq[t])
			ptr[s*L+t] = arg
		}
	}

	score := v[e.end*L+L-1]
	if math.IsInf(score, -1) {
		return nil, score, noPath("viterbi", seq)
	}

	path := make(Path, L)
	path[L-1] = e.end
	for t := L - 1; t > 0; t-- {
		path[t-1] = ptr[path[t]*L+t]
	}
	return path, score, nil
}

// Decode dispatches to ViterbiDecode or PosteriorDecode.
func (e *Engine) Decode(seq Sequence, method Method) (Path, error) {
	switch method {
	case Viterbi:
		return e.ViterbiDecode(seq)
	case Posterior:
		return e.PosteriorDecode(seq)
	}
	return nil, model.NewError("decode").Input().Subject(string(method)).Cause(ErrUnknownMethod).Err()
}
