package model

// TopologyIndex is the bidirectional state name ↔ matrix index mapping.
// It is built once per model and never mutated.
type TopologyIndex struct {
	names []string
	index map[string]int
}

// NewTopologyIndex builds an index from the state ordering.
func NewTopologyIndex(names []string) (*TopologyIndex, error) {
	idx := &TopologyIndex{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if _, dup := idx.index[name]; dup {
			return nil, NewError("index").Subject(name).Context("duplicate state name").Cause(ErrSyntax).Err()
		}
		idx.index[name] = i
	}
	return idx, nil
}

// IndexOf returns the matrix index of name.
func (x *TopologyIndex) IndexOf(name string) (int, error) {
	i, ok := x.index[name]
	if !ok {
		return 0, UnknownStateError("index", name)
	}
	return i, nil
}

// NameOf returns the state name at matrix index i.
func (x *TopologyIndex) NameOf(i int) (string, error) {
	if i < 0 || i >= len(x.names) {
		return "", NewError("index").At(i).Cause(ErrUnknownState).Err()
	}
	return x.names[i], nil
}

// Len returns the number of states.
func (x *TopologyIndex) Len() int {
	return len(x.names)
}

// Names returns the state names in index order.
func (x *TopologyIndex) Names() []string {
	return append([]string(nil), x.names...)
}

// NamesOf maps a path of indices to state names.
func (x *TopologyIndex) NamesOf(path []int) ([]string, error) {
	out := make([]string, len(path))
	for i, s := range path {
		name, err := x.NameOf(s)
		if err != nil {
			return nil, err
		}
		out[i] = name
	}
	return out, nil
}
