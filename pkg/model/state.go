package model

// AttrKind tags the recognized attribute keys of a state block.
type AttrKind int

const (
	AttrString AttrKind = iota // any unrecognized key, bare-token value
	AttrTrans
	AttrOnly
	AttrType
	AttrEnd
	AttrTiedTrans
	AttrTiedLetter
	AttrLabel
)

var attrKeys = map[string]AttrKind{
	"trans":       AttrTrans,
	"only":        AttrOnly,
	"type":        AttrType,
	"end":         AttrEnd,
	"tied_trans":  AttrTiedTrans,
	"tied_letter": AttrTiedLetter,
	"label":       AttrLabel,
}

func attrKindOf(key string) AttrKind {
	if k, ok := attrKeys[key]; ok {
		return k
	}
	return AttrString
}

func (k AttrKind) String() string {
	for key, kind := range attrKeys {
		if kind == k {
			return key
		}
	}
	return "string"
}

// Attribute is one `KEY VALUE ;` assignment. Which payload field is set
// depends on Kind: Probs or List for trans/only, Int for type/end, Text
// for everything else.
type Attribute struct {
	Kind   AttrKind
	Key    string
	Probs  ProbTable
	List   []string
	IsList bool
	Int    int
	Text   string
}

// Prob is one entry of an ordered probability table.
type Prob struct {
	Key   string
	Value float64
}

// ProbTable is an insertion-ordered mapping. Setting an existing key
// replaces its value in place.
type ProbTable []Prob

func (p ProbTable) set(key string, v float64) ProbTable {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = v
			return p
		}
	}
	return append(p, Prob{Key: key, Value: v})
}

// Keys returns the keys in declaration order.
func (p ProbTable) Keys() []string {
	keys := make([]string, len(p))
	for i, e := range p {
		keys[i] = e.Key
	}
	return keys
}

// Values returns the values in declaration order.
func (p ProbTable) Values() []float64 {
	vals := make([]float64, len(p))
	for i, e := range p {
		vals[i] = e.Value
	}
	return vals
}

// Clone returns an independent copy.
func (p ProbTable) Clone() ProbTable {
	if p == nil {
		return nil
	}
	return append(ProbTable(nil), p...)
}

// Get returns the value stored for key.
func (p ProbTable) Get(key string) (float64, bool) {
	for _, e := range p {
		if e.Key == key {
			return e.Value, true
		}
	}
	return 0, false
}

// State is the decoded form of one state block.
type State struct {
	Name  string
	Type  int
	End   int
	Label string

	// Trans holds outgoing probabilities. TransNames keeps the declared
	// target order for both the letter-map and the list form; a tied
	// state borrows values positionally onto these names.
	Trans      ProbTable
	TransNames []string
	Emit       ProbTable

	TiedTrans  string
	TiedLetter string

	// Extra holds unrecognized keys verbatim.
	Extra map[string]string

	transListed bool
	emitListed  bool
}

// decodeState folds raw attributes into a State. Later assignments of the
// same key win.
func decodeState(name string, attrs []Attribute) *State {
	s := &State{Name: name}
	for _, a := range attrs {
		switch a.Kind {
		case AttrTrans:
			if a.IsList {
				s.Trans = nil
				s.TransNames = append([]string(nil), a.List...)
				s.transListed = true
			} else {
				s.Trans = a.Probs.Clone()
				s.TransNames = a.Probs.Keys()
				s.transListed = false
			}
		case AttrOnly:
			if a.IsList {
				s.Emit = nil
				s.emitListed = true
			} else {
				s.Emit = a.Probs.Clone()
				s.emitListed = false
			}
		case AttrType:
			s.Type = a.Int
		case AttrEnd:
			s.End = a.Int
		case AttrTiedTrans:
			s.TiedTrans = a.Text
		case AttrTiedLetter:
			s.TiedLetter = a.Text
		case AttrLabel:
			s.Label = a.Text
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]string)
			}
			s.Extra[a.Key] = a.Text
		}
	}
	return s
}

// stateSet keeps states in declaration order with name lookup.
type stateSet struct {
	order  []*State
	byName map[string]int
}

func newStateSet() *stateSet {
	return &stateSet{byName: make(map[string]int)}
}

// put appends s, or replaces an existing state of the same name in its
// original position. It reports whether a replacement happened.
func (ss *stateSet) put(s *State) bool {
	if i, ok := ss.byName[s.Name]; ok {
		ss.order[i] = s
		return true
	}
	ss.byName[s.Name] = len(ss.order)
	ss.order = append(ss.order, s)
	return false
}

func (ss *stateSet) get(name string) (*State, bool) {
	i, ok := ss.byName[name]
	if !ok {
		return nil, false
	}
	return ss.order[i], true
}

func (ss *stateSet) names() []string {
	names := make([]string, len(ss.order))
	for i, s := range ss.order {
		names[i] = s.Name
	}
	return names
}
