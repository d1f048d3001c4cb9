package model

import (
	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Smoothing names the two global loop states that get a geometric
// stopping probability, and that probability.
type Smoothing struct {
	Alpha       float64
	InsideLoop  string
	OutsideLoop string
	Logger      logging.Logger
}

// DefaultSmoothing returns the settings for the bundled TMHMM model.
func DefaultSmoothing() Smoothing {
	return Smoothing{
		Alpha:       0.1,
		InsideLoop:  "inglob",
		OutsideLoop: "outglob",
	}
}

// ApplyEndSmoothing returns a copy of m in which T[loop][end] = Alpha for
// both loop states, each row then divided by its new sum. It runs once per
// compiled model; m itself is not modified.
func (m *Model) ApplyEndSmoothing(s Smoothing) (*Model, error) {
	if m.smoothed {
		return nil, NewError("smooth").Cause(ErrAlreadySmoothed).Err()
	}
	if !(s.Alpha > 0 && s.Alpha < 1) {
		return nil, NewError("smooth").Context("alpha %g", s.Alpha).Cause(ErrInvalidAlpha).Err()
	}

	rows := make([]int, 0, 2)
	for _, name := range []string{s.InsideLoop, s.OutsideLoop} {
		i, err := m.index.IndexOf(name)
		if err != nil {
			return nil, err
		}
		if i == m.start || i == m.end {
			return nil, NewError("smooth").Subject(name).Context("loop state cannot be a sentinel").
				Cause(ErrUnknownState).Err()
		}
		rows = append(rows, i)
	}
	if rows[0] == rows[1] {
		return nil, NewError("smooth").Subject(s.InsideLoop).Context("inside and outside loop are the same state").
			Cause(ErrUnknownState).Err()
	}

	t := m.tables.Clone()
	for _, i := range rows {
		row := mat.Row(nil, i, t.Transition)
		smoothRow(row, m.end, s.Alpha)
		t.Transition.SetRow(i, row)
	}

	if err := validateTables(t, m.end, m.tol); err != nil {
		return nil, err
	}

	logging.OrNop(s.Logger).Debug("end smoothing applied",
		logging.Alpha(s.Alpha),
		logging.String("inside_loop", s.InsideLoop),
		logging.String("outside_loop", s.OutsideLoop))

	return &Model{
		tables:   t,
		index:    m.index,
		start:    m.start,
		end:      m.end,
		smoothed: true,
		tol:      m.tol,
	}, nil
}

// smoothRow overwrites row[end] with alpha and rescales the row to sum 1.
func smoothRow(row []float64, end int, alpha float64) {
	row[end] = alpha
	sum := floats.Sum(row)
	for k := range row {
		row[k] /= sum
	}
}
