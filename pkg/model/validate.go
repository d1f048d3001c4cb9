package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// validateTables enforces the stochastic-row invariants: every transition
// row sums to 1 except the terminal end row, which may be all zero, and
// every emitting state's emission row sums to 1.
func validateTables(t *Tables, end int, tol float64) error {
	n, _ := t.Transition.Dims()
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, t.Transition)
		if err := checkEntries("transition", t.States[i], row); err != nil {
			return err
		}
		sum := floats.Sum(row)
		if i == end && sum == 0 {
			continue
		}
		if math.Abs(sum-1) > tol {
			return NewError("validate").Subject(t.States[i]).
				Context("transition row sums to %.6g", sum).Cause(ErrNotStochastic).Err()
		}
	}

	for i := 1; i < n; i++ {
		row := mat.Row(nil, i-1, t.Emission)
		if err := checkEntries("emission", t.States[i], row); err != nil {
			return err
		}
		if i == end {
			continue
		}
		if sum := floats.Sum(row); math.Abs(sum-1) > tol {
			return NewError("validate").Subject(t.States[i]).
				Context("emission row sums to %.6g", sum).Cause(ErrNotStochastic).Err()
		}
	}
	return nil
}

func checkEntries(table, state string, row []float64) error {
	for _, v := range row {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return NewError("validate").Subject(state).Context("%s entry %g", table, v).
				Cause(ErrBadProbability).Err()
		}
	}
	return nil
}
