package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/tokenizer"
)

// stripHeader drops the fixed header block, then blank lines and lines
// starting with '#'.
func stripHeader(text string, headerLines int) string {
	lines := strings.SplitAfter(text, "\n")
	if headerLines >= len(lines) {
		return ""
	}
	var b strings.Builder
	for _, line := range lines[max(headerLines, 0):] {
		if line == "\n" || line == "\r\n" || strings.HasPrefix(line, "#") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

func isPunct(tok string) bool {
	return tok == ":" || tok == ";" || tok == "{" || tok == "}"
}

type parser struct {
	tok    *tokenizer.Tokenizer
	logger logging.Logger
}

func (p *parser) syntaxErr(format string, args ...any) error {
	return NewError("parse").At(p.tok.Pos()).Context(format, args...).Cause(ErrSyntax).Err()
}

// parseStates reads state blocks until the token stream is exhausted.
func (p *parser) parseStates() (*stateSet, error) {
	set := newStateSet()
	for p.tok.HasMore() {
		name, attrs, err := p.parseState()
		if err != nil {
			return nil, err
		}
		if set.put(decodeState(name, attrs)) {
			p.logger.Warn("state redefined, later definition wins", logging.State(name))
		}
	}
	return set, nil
}

func (p *parser) parseState() (string, []Attribute, error) {
	name, _ := p.tok.Advance()
	if isPunct(name) {
		return "", nil, p.syntaxErr("expected state name, got %q", name)
	}
	if open, ok := p.tok.Advance(); !ok || open != "{" {
		return "", nil, p.syntaxErr("expected '{' after state %q", name)
	}

	var attrs []Attribute
	for {
		key, ok := p.tok.Advance()
		if !ok {
			return "", nil, p.syntaxErr("state %q is not closed", name)
		}
		if key == "}" {
			return name, attrs, nil
		}
		if isPunct(key) {
			return "", nil, p.syntaxErr("expected attribute key in state %q, got %q", name, key)
		}

		attr, err := p.parseValue(key)
		if err != nil {
			return "", nil, err
		}
		attrs = append(attrs, attr)

		if semi, ok := p.tok.Advance(); !ok || semi != ";" {
			return "", nil, p.syntaxErr("expected ';' after %s in state %q", key, name)
		}
	}
}

func (p *parser) parseValue(key string) (Attribute, error) {
	attr := Attribute{Kind: attrKindOf(key), Key: key}

	switch attr.Kind {
	case AttrTrans, AttrOnly:
		probs, ok, err := p.parseLetters()
		if err != nil {
			return attr, err
		}
		if ok {
			attr.Probs = probs
			return attr, nil
		}
		list, err := p.parseList()
		if err != nil {
			return attr, err
		}
		attr.List, attr.IsList = list, true

	case AttrType, AttrEnd:
		v, ok := p.tok.Advance()
		if !ok {
			return attr, p.syntaxErr("missing value for %s", key)
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return attr, p.syntaxErr("%s expects an integer, got %q", key, v)
		}
		attr.Int = n

	default:
		v, ok := p.tok.Advance()
		if !ok || isPunct(v) {
			return attr, p.syntaxErr("missing value for %s", key)
		}
		attr.Text = v
	}
	return attr, nil
}

// parseLetters reads `KEY : NUMBER` pairs up to (not including) ';'. When
// the first pair is not in colon form both lookahead tokens are pushed
// back and ok is false so the caller can retry as a plain list.
func (p *parser) parseLetters() (ProbTable, bool, error) {
	probs := ProbTable{}
	first := true
	for p.tok.HasMore() {
		key, _ := p.tok.Advance()
		if key == ";" {
			p.tok.PushBack()
			return probs, true, nil
		}
		sep, ok := p.tok.Advance()
		if !ok || sep != ":" {
			if first {
				p.tok.PushBack()
				p.tok.PushBack()
				return nil, false, nil
			}
			return nil, false, p.syntaxErr("expected ':' after %q", key)
		}
		if isPunct(key) {
			return nil, false, p.syntaxErr("unexpected %q in probability list", key)
		}
		raw, ok := p.tok.Advance()
		if !ok {
			break
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false, p.syntaxErr("invalid probability %q for %q", raw, key)
		}
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil, false, NewError("parse").Subject(key).At(p.tok.Pos()).
				Context("value %s", raw).Cause(ErrBadProbability).Err()
		}
		probs = probs.set(key, v)
		first = false
	}
	return nil, false, p.syntaxErr("unexpected end of input in probability list")
}

// parseList reads bare tokens up to (not including) ';'.
func (p *parser) parseList() ([]string, error) {
	list := []string{}
	for p.tok.HasMore() {
		arg, _ := p.tok.Advance()
		if arg == ";" {
			p.tok.PushBack()
			return list, nil
		}
		if isPunct(arg) {
			return nil, p.syntaxErr("unexpected %q in list", arg)
		}
		list = append(list, arg)
	}
	return nil, p.syntaxErr("unexpected end of input in list")
}

// ParseStates runs the tokenizer and parser over model text and returns the
// decoded states in declaration order, before tie resolution.
func ParseStates(text string, headerLines int, logger logging.Logger) ([]*State, error) {
	set, err := parseText(text, headerLines, logger)
	if err != nil {
		return nil, err
	}
	return set.order, nil
}

func parseText(text string, headerLines int, logger logging.Logger) (*stateSet, error) {
	p := &parser{
		tok:    tokenizer.New(stripHeader(text, headerLines)),
		logger: logging.OrNop(logger),
	}
	return p.parseStates()
}
