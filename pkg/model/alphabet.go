package model

import (
	"fmt"
)

// Boundary sentinels framing an encoded sequence. They are never part of
// an emission alphabet.
const (
	StartSentinel = '^'
	EndSentinel   = '$'
)

// Alphabet is a fixed ordered symbol set; a symbol's index is its position.
type Alphabet struct {
	symbols string
	index   [256]int // position+1, 0 = absent
}

// AminoAcids is the 20 standard residues in the order used by the
// emission tables.
var AminoAcids = MustAlphabet("ACDEFGHIKLMNPQRSTVWY")

// NewAlphabet builds an alphabet from single-byte symbols.
func NewAlphabet(symbols string) (*Alphabet, error) {
	if symbols == "" {
		return nil, NewError("alphabet").Cause(ErrUnknownSymbol).Context("empty alphabet").Err()
	}
	a := &Alphabet{symbols: symbols}
	for i := 0; i < len(symbols); i++ {
		c := symbols[i]
		if c == StartSentinel || c == EndSentinel || c <= ' ' {
			return nil, NewError("alphabet").Subject(string(c)).Cause(ErrUnknownSymbol).
				Context("reserved symbol").Err()
		}
		if a.index[c] != 0 {
			return nil, NewError("alphabet").Subject(string(c)).Cause(ErrUnknownSymbol).
				Context("duplicate symbol").Err()
		}
		a.index[c] = i + 1
	}
	return a, nil
}

// MustAlphabet is NewAlphabet for package-level constants.
func MustAlphabet(symbols string) *Alphabet {
	a, err := NewAlphabet(symbols)
	if err != nil {
		panic(err)
	}
	return a
}

// Len returns the number of symbols.
func (a *Alphabet) Len() int {
	return len(a.symbols)
}

// Symbols returns the symbols in index order.
func (a *Alphabet) Symbols() string {
	return a.symbols
}

// Index returns the position of c.
func (a *Alphabet) Index(c byte) (int, bool) {
	i := a.index[c]
	return i - 1, i != 0
}

// Symbol returns the symbol at position i.
func (a *Alphabet) Symbol(i int) byte {
	return a.symbols[i]
}

// letterIndex resolves a model token naming a single symbol.
func (a *Alphabet) letterIndex(token string) (int, error) {
	if len(token) != 1 {
		return 0, fmt.Errorf("%w: %q is not a single symbol", ErrUnknownSymbol, token)
	}
	i, ok := a.Index(token[0])
	if !ok {
		return 0, fmt.Errorf("%w: %q not in alphabet %s", ErrUnknownSymbol, token, a.symbols)
	}
	return i, nil
}

// Columns returns the symbols as single-character strings, for table headers.
func (a *Alphabet) Columns() []string {
	cols := make([]string, len(a.symbols))
	for i := range cols {
		cols[i] = a.symbols[i : i+1]
	}
	return cols
}

func (a *Alphabet) String() string {
	return a.symbols
}
