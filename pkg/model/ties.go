package model

// completeStates resolves tied_trans and tied_letter references as a phase
// separate from parsing, so a tie may name a state declared later.
//
// Chains are followed in dependency order: a referenced state is resolved
// before the state borrowing from it, whatever the declaration order.
// Cycles are rejected. Running it again on a resolved set changes nothing.
func completeStates(set *stateSet) error {
	r := &tieResolver{
		set:        set,
		transState: make(map[string]visit),
		emitState:  make(map[string]visit),
	}
	for _, s := range set.order {
		if err := r.resolveTrans(s); err != nil {
			return err
		}
		if err := r.resolveEmit(s); err != nil {
			return err
		}
	}
	return nil
}

type visit int

const (
	unvisited visit = iota
	visiting
	resolved
)

type tieResolver struct {
	set        *stateSet
	transState map[string]visit
	emitState  map[string]visit
}

func (r *tieResolver) target(op string, s *State, ref string) (*State, error) {
	t, ok := r.set.get(ref)
	if !ok {
		return nil, NewError(op).Subject(s.Name).Context("references %q", ref).Cause(ErrUnresolvedTie).Err()
	}
	return t, nil
}

func (r *tieResolver) resolveTrans(s *State) error {
	switch r.transState[s.Name] {
	case resolved:
		return nil
	case visiting:
		return NewError("resolve_ties").Subject(s.Name).Context("tied_trans").Cause(ErrTieCycle).Err()
	}
	if s.TiedTrans == "" {
		r.transState[s.Name] = resolved
		return nil
	}

	r.transState[s.Name] = visiting
	ref, err := r.target("resolve_ties", s, s.TiedTrans)
	if err != nil {
		return err
	}
	if err := r.resolveTrans(ref); err != nil {
		return err
	}
	if ref.transListed {
		return NewError("resolve_ties").Subject(ref.Name).Context("tied_trans source of %q", s.Name).
			Cause(ErrMissingProbabilities).Err()
	}

	values := ref.Trans.Values()
	if len(values) != len(s.TransNames) {
		return NewError("resolve_ties").Subject(s.Name).
			Context("%d targets, %q declares %d values", len(s.TransNames), ref.Name, len(values)).
			Cause(ErrTieMismatch).Err()
	}

	trans := make(ProbTable, len(values))
	for i, name := range s.TransNames {
		trans[i] = Prob{Key: name, Value: values[i]}
	}
	s.Trans = trans
	s.transListed = false
	r.transState[s.Name] = resolved
	return nil
}

func (r *tieResolver) resolveEmit(s *State) error {
	switch r.emitState[s.Name] {
	case resolved:
		return nil
	case visiting:
		return NewError("resolve_ties").Subject(s.Name).Context("tied_letter").Cause(ErrTieCycle).Err()
	}
	if s.TiedLetter == "" {
		r.emitState[s.Name] = resolved
		return nil
	}

	r.emitState[s.Name] = visiting
	ref, err := r.target("resolve_ties", s, s.TiedLetter)
	if err != nil {
		return err
	}
	if err := r.resolveEmit(ref); err != nil {
		return err
	}
	if ref.emitListed {
		return NewError("resolve_ties").Subject(ref.Name).Context("tied_letter source of %q", s.Name).
			Cause(ErrMissingProbabilities).Err()
	}

	s.Emit = ref.Emit.Clone()
	s.emitListed = false
	r.emitState[s.Name] = resolved
	return nil
}
