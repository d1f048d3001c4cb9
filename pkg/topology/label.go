// Package topology projects decoded state paths onto membrane topology
// labels and summarizes them as segments.
package topology

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

// Label is the per-residue topology class.
type Label byte

const (
	None     Label = 0
	Membrane Label = 'M'
	Inside   Label = 'i'
	Outside  Label = 'o'
)

// ErrUnknownLabel is returned for a state label other than M, i or o.
var ErrUnknownLabel = errors.New("unknown topology label")

func (l Label) String() string {
	if l == None {
		return "-"
	}
	return string(l)
}

// MarshalText encodes the label as its character, so JSON carries "M"
// rather than a number.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the output of MarshalText.
func (l *Label) UnmarshalText(b []byte) error {
	if string(b) == "-" {
		*l = None
		return nil
	}
	v, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ParseLabel maps a state's label attribute to a Label. The empty string
// maps to None.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "":
		return None, nil
	case "M":
		return Membrane, nil
	case "i":
		return Inside, nil
	case "o":
		return Outside, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

// Format renders labels as a string, one character per residue.
func Format(labels []Label) string {
	var b strings.Builder
	b.Grow(len(labels))
	for _, l := range labels {
		b.WriteString(l.String())
	}
	return b.String()
}

// Projector maps state indices to labels.
type Projector interface {
	Project(path []int) []Label
}

// LabelProjector reads labels from the states' label attributes.
type LabelProjector struct {
	labels []Label
}

// NewLabelProjector builds a projector for m. Silent states project to
// None; emitting states without a label project to Outside.
func NewLabelProjector(m *model.Model) (*LabelProjector, error) {
	p := &LabelProjector{labels: make([]Label, m.NumStates())}
	for i := range p.labels {
		if i == m.StartIndex() || i == m.EndIndex() {
			continue
		}
		l, err := ParseLabel(m.Label(i))
		if err != nil {
			name, _ := m.Index().NameOf(i)
			return nil, model.NewError("project").Subject(name).Cause(err).Err()
		}
		if l == None {
			l = Outside
		}
		p.labels[i] = l
	}
	return p, nil
}

// Project implements Projector.
func (p *LabelProjector) Project(path []int) []Label {
	out := make([]Label, len(path))
	for t, s := range path {
		if s >= 0 && s < len(p.labels) {
			out[t] = p.labels[s]
		}
	}
	return out
}

// RangeProjector labels a contiguous block of state indices as membrane
// and everything else as outside. It is meant for models without label
// attributes whose helix states are declared together.
type RangeProjector struct {
	First, Last int
}

// NewRangeProjector returns a projector for the inclusive index range.
func NewRangeProjector(first, last int) *RangeProjector {
	return &RangeProjector{First: first, Last: last}
}

// Project implements Projector.
func (p *RangeProjector) Project(path []int) []Label {
	out := make([]Label, len(path))
	for t, s := range path {
		if s >= p.First && s <= p.Last {
			out[t] = Membrane
		} else {
			out[t] = Outside
		}
	}
	return out
}
