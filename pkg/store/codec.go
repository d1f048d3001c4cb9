package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// document is the JSON form of a stored model.
type document struct {
	SchemaVersion int         `json:"schema_version"`
	CodecVersion  int         `json:"codec_version"`
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	CreatedAt     time.Time   `json:"created_at"`
	Alphabet      string      `json:"alphabet"`
	EndState      string      `json:"end_state"`
	Smoothed      bool        `json:"smoothed"`
	States        []string    `json:"states"`
	Labels        []string    `json:"labels"`
	Transition    [][]float64 `json:"transition"`
	Emission      [][]float64 `json:"emission"`
}

func (d *document) record() Record {
	return Record{
		ID:        d.ID,
		Name:      d.Name,
		States:    len(d.States),
		Alphabet:  d.Alphabet,
		Smoothed:  d.Smoothed,
		CreatedAt: d.CreatedAt,
	}
}

func newDocument(name string, m *model.Model) *document {
	t := m.Tables()
	return &document{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
		ID:            uuid.NewString(),
		Name:          name,
		CreatedAt:     time.Now().UTC(),
		Alphabet:      t.Alphabet.Symbols(),
		EndState:      t.States[m.EndIndex()],
		Smoothed:      m.Smoothed(),
		States:        t.States,
		Labels:        t.Labels,
		Transition:    rows(t.Transition),
		Emission:      rows(t.Emission),
	}
}

func rows(d *mat.Dense) [][]float64 {
	r, _ := d.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, d)
	}
	return out
}

func dense(data [][]float64) (*mat.Dense, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, errors.New("empty matrix")
	}
	cols := len(data[0])
	d := mat.NewDense(len(data), cols, nil)
	for i, row := range data {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		d.SetRow(i, row)
	}
	return d, nil
}

// Encode returns the snappy-compressed JSON payload for m.
func Encode(name string, m *model.Model) ([]byte, Record, error) {
	doc := newDocument(name, m)
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, Record{}, err
	}
	return snappy.Encode(nil, raw), doc.record(), nil
}

func decodeDocument(payload []byte) (*document, error) {
	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.SchemaVersion != CurrentSchemaVersion || doc.CodecVersion != CurrentCodecVersion {
		return nil, fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, doc.SchemaVersion, doc.CodecVersion)
	}
	return &doc, nil
}

// Decode rebuilds and revalidates the model stored in payload.
func Decode(payload []byte) (*model.Model, Record, error) {
	doc, err := decodeDocument(payload)
	if err != nil {
		return nil, Record{}, err
	}
	alphabet, err := model.NewAlphabet(doc.Alphabet)
	if err != nil {
		return nil, Record{}, err
	}
	trans, err := dense(doc.Transition)
	if err != nil {
		return nil, Record{}, fmt.Errorf("transition: %w", err)
	}
	emit, err := dense(doc.Emission)
	if err != nil {
		return nil, Record{}, fmt.Errorf("emission: %w", err)
	}

	opts := model.DefaultCompileOptions()
	opts.Alphabet = alphabet
	opts.EndState = doc.EndState
	opts.Smoothed = doc.Smoothed
	m, err := model.FromTables(&model.Tables{
		States:     doc.States,
		Labels:     doc.Labels,
		Alphabet:   alphabet,
		Transition: trans,
		Emission:   emit,
	}, opts)
	if err != nil {
		return nil, Record{}, err
	}
	return m, doc.record(), nil
}
