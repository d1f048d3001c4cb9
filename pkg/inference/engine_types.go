package inference

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/topology"
)

// Method selects a decoding algorithm.
type Method string

const (
	Viterbi   Method = "viterbi"
	Posterior Method = "posterior"
)

// ErrUnknownMethod is returned for a method other than viterbi or posterior.
var ErrUnknownMethod = errors.New("unknown decoding method")

// ParseMethod accepts a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case Viterbi, Posterior:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Sequence is an encoded sequence framed by the start and end sentinels.
// Each element is a column of the engine's emission table.
type Sequence []int

// Len returns the framed length L, two more than the residue count.
func (s Sequence) Len() int { return len(s) }

// Residues returns the number of residues between the sentinels.
func (s Sequence) Residues() int { return len(s) - 2 }

// Path is a decoded state path over a framed sequence. Path[0] is the
// start state and Path[len-1] the end state.
type Path []int

// Residues returns the states assigned to the residue columns.
func (p Path) Residues() []int {
	if len(p) < 2 {
		return nil
	}
	return p[1 : len(p)-1]
}

// PredictionRecorder receives per-sequence outcomes. *metrics.Registry
// satisfies it.
type PredictionRecorder interface {
	RecordPrediction(method, status string, length, helices int, duration time.Duration)
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Logger    logging.Logger
	Metrics   PredictionRecorder
	Projector topology.Projector // defaults to the model's label attributes
}

// Prediction is the outcome of Predict for one sequence.
type Prediction struct {
	ID            string             `json:"id"`
	Length        int                `json:"length"`
	Method        Method             `json:"method"`
	LogLikelihood float64            `json:"log_likelihood"`
	Path          []string           `json:"path"`
	Labels        string             `json:"labels"`
	Segments      []topology.Segment `json:"segments"`
	Helices       int                `json:"helices"`
	Topology      string             `json:"topology"`
}
