package model

import (
	"gonum.org/v1/gonum/mat"
)

// Tables are the dense matrices compiled from a model description.
//
// Transition is states×states; Transition[i][j] is P(i → j). Emission has
// one row per state except the start state at index 0, so state i uses
// row i−1; columns follow Alphabet.
type Tables struct {
	States     []string
	Labels     []string // per state, "" when the state has no label
	Alphabet   *Alphabet
	Transition *mat.Dense
	Emission   *mat.Dense
}

// Clone returns a deep copy.
func (t *Tables) Clone() *Tables {
	c := &Tables{
		States:     append([]string(nil), t.States...),
		Labels:     append([]string(nil), t.Labels...),
		Alphabet:   t.Alphabet,
		Transition: mat.DenseCopyOf(t.Transition),
		Emission:   mat.DenseCopyOf(t.Emission),
	}
	return c
}

// statesToTables assigns each state its declaration index and writes the
// resolved probabilities into dense matrices. Unset entries stay 0.
func statesToTables(set *stateSet, alphabet *Alphabet) (*Tables, error) {
	n := len(set.order)
	if n < 2 {
		return nil, NewError("tables").Context("%d states declared", n).Cause(ErrTooFewStates).Err()
	}

	t := &Tables{
		States:     set.names(),
		Labels:     make([]string, n),
		Alphabet:   alphabet,
		Transition: mat.NewDense(n, n, nil),
		Emission:   mat.NewDense(n-1, alphabet.Len(), nil),
	}

	for i, s := range set.order {
		t.Labels[i] = s.Label

		if s.transListed {
			return nil, NewError("tables").Subject(s.Name).Context("trans").Cause(ErrMissingProbabilities).Err()
		}
		for _, p := range s.Trans {
			j, ok := set.byName[p.Key]
			if !ok {
				return nil, NewError("tables").Subject(s.Name).Context("transition to %q", p.Key).
					Cause(ErrUnknownState).Err()
			}
			t.Transition.Set(i, j, p.Value)
		}

		if i == 0 {
			continue
		}
		if s.emitListed {
			return nil, NewError("tables").Subject(s.Name).Context("only").Cause(ErrMissingProbabilities).Err()
		}
		for _, p := range s.Emit {
			k, err := alphabet.letterIndex(p.Key)
			if err != nil {
				return nil, NewError("tables").Subject(s.Name).Cause(err).Err()
			}
			t.Emission.Set(i-1, k, p.Value)
		}
	}
	return t, nil
}
