// Package seqio reads protein sequences in FASTA format.
package seqio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/mmap"
)

// ErrNoHeader is returned when sequence data precedes the first '>' line.
var ErrNoHeader = errors.New("sequence data before first FASTA header")

// maxLine bounds a single input line.
const maxLine = 16 << 20

// Record is one FASTA entry.
type Record struct {
	ID          string
	Description string
	Residues    string
}

// Reader iterates over FASTA records.
type Reader struct {
	sc     *bufio.Scanner
	line   int
	header string
	primed bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Next returns the next record, or io.EOF after the last one. Residues
// are upper-cased with whitespace and a trailing '*' removed; symbol
// checking is left to the engine.
func (r *Reader) Next() (*Record, error) {
	if !r.primed {
		if err := r.seekHeader(); err != nil {
			return nil, err
		}
		r.primed = true
	}
	if r.header == "" {
		return nil, io.EOF
	}

	rec := parseHeader(r.header)
	r.header = ""

	var b strings.Builder
	for r.sc.Scan() {
		r.line++
		line := r.sc.Text()
		if strings.HasPrefix(line, ">") {
			r.header = line
			break
		}
		for _, f := range strings.Fields(line) {
			b.WriteString(f)
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("fasta line %d: %w", r.line, err)
	}

	rec.Residues = strings.TrimSuffix(strings.ToUpper(b.String()), "*")
	return rec, nil
}

// seekHeader skips blank lines and ';' comments up to the first header.
func (r *Reader) seekHeader() error {
	for r.sc.Scan() {
		r.line++
		line := strings.TrimSpace(r.sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, ";"):
			continue
		case strings.HasPrefix(line, ">"):
			r.header = line
			return nil
		default:
			return fmt.Errorf("fasta line %d: %w", r.line, ErrNoHeader)
		}
	}
	if err := r.sc.Err(); err != nil {
		return fmt.Errorf("fasta line %d: %w", r.line, err)
	}
	return nil
}

func parseHeader(line string) *Record {
	line = strings.TrimSpace(strings.TrimPrefix(line, ">"))
	id, desc, _ := strings.Cut(line, " ")
	return &Record{ID: id, Description: strings.TrimSpace(desc)}
}

// ReadAll reads every record from r.
func ReadAll(r io.Reader) ([]Record, error) {
	fr := NewReader(r)
	var out []Record
	for {
		rec, err := fr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
}

// File is a Reader over a memory-mapped file.
type File struct {
	*Reader
	m *mmap.ReaderAt
}

// Open maps path and returns a Reader over it.
func Open(path string) (*File, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}
	return &File{
		Reader: NewReader(io.NewSectionReader(m, 0, int64(m.Len()))),
		m:      m,
	}, nil
}

// Close unmaps the file.
func (f *File) Close() error {
	return f.m.Close()
}

// ReadFile maps path and reads every record.
func ReadFile(path string) ([]Record, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Record
	for {
		rec, err := f.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
}
