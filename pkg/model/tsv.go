package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Corner cells of the interchange tables.
const (
	TransitionCorner = "state/state"
	EmissionCorner   = "state/AA"
	LabelsCorner     = "state/label"
)

// WriteTransitionTSV writes the transition matrix: a header row of state
// names, then one row per originating state. The values are written as
// m holds them; callers that want the files to be re-smoothable pass the
// unsmoothed model.
func WriteTransitionTSV(w io.Writer, m *Model) error {
	return writeTSV(w, TransitionCorner, m.States(), m.States(), m.tables.Transition, 0)
}

// WriteEmissionTSV writes the emission matrix: a header row of alphabet
// symbols, then one row per emitting state (the start state has none).
func WriteEmissionTSV(w io.Writer, m *Model) error {
	return writeTSV(w, EmissionCorner, m.Alphabet().Columns(), m.States(), m.tables.Emission, 1)
}

// WriteLabelsTSV writes one row per state with its topology label, empty
// for unlabelled states.
func WriteLabelsTSV(w io.Writer, m *Model) (retErr error) {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'
	defer func() {
		tw.Flush()
		if err := tw.Error(); err != nil && retErr == nil {
			retErr = fmt.Errorf("TSV writer flush error: %w", err)
		}
	}()

	if err := tw.Write([]string{LabelsCorner, "label"}); err != nil {
		return fmt.Errorf("failed to write TSV header: %w", err)
	}
	for i, name := range m.States() {
		if err := tw.Write([]string{name, m.Label(i)}); err != nil {
			return fmt.Errorf("failed to write label of %s: %w", name, err)
		}
	}
	return nil
}

// ReadLabelsTSV fills t.Labels from a file written by WriteLabelsTSV.
// States missing from the file keep an empty label.
func ReadLabelsTSV(r io.Reader, t *Tables) error {
	tr := csv.NewReader(r)
	tr.Comma = '\t'
	tr.FieldsPerRecord = 2
	records, err := tr.ReadAll()
	if err != nil {
		return NewError("read_labels").Context("%v", err).Cause(ErrSyntax).Err()
	}
	if len(records) == 0 || records[0][0] != LabelsCorner {
		return NewError("read_labels").Context("missing %s header", LabelsCorner).Cause(ErrSyntax).Err()
	}

	pos := make(map[string]int, len(t.States))
	for i, s := range t.States {
		pos[s] = i
	}
	labels := make([]string, len(t.States))
	for _, rec := range records[1:] {
		i, ok := pos[rec[0]]
		if !ok {
			return NewError("read_labels").Subject(rec[0]).Cause(ErrUnknownState).Err()
		}
		labels[i] = rec[1]
	}
	t.Labels = labels
	return nil
}

func writeTSV(w io.Writer, corner string, cols, rows []string, data *mat.Dense, rowOffset int) (retErr error) {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'
	defer func() {
		tw.Flush()
		if err := tw.Error(); err != nil && retErr == nil {
			retErr = fmt.Errorf("TSV writer flush error: %w", err)
		}
	}()

	if err := tw.Write(append([]string{corner}, cols...)); err != nil {
		return fmt.Errorf("failed to write TSV header: %w", err)
	}

	r, c := data.Dims()
	record := make([]string, c+1)
	for i := 0; i < r; i++ {
		record[0] = rows[i+rowOffset]
		for j := 0; j < c; j++ {
			record[j+1] = strconv.FormatFloat(data.At(i, j), 'g', -1, 64)
		}
		if err := tw.Write(record); err != nil {
			return fmt.Errorf("failed to write TSV row %s: %w", record[0], err)
		}
	}
	return nil
}

// ReadTablesTSV parses the two interchange files back into Tables. Labels
// live in their own file; they come back empty until ReadLabelsTSV fills
// them.
func ReadTablesTSV(transition, emission io.Reader) (*Tables, error) {
	states, transRows, trans, err := readTSV(transition, "transition")
	if err != nil {
		return nil, err
	}
	if strings.Join(states, "\t") != strings.Join(transRows, "\t") {
		return nil, NewError("read_tables").Context("transition row names differ from column names").
			Cause(ErrUnknownState).Err()
	}

	symbols, emitRows, emis, err := readTSV(emission, "emission")
	if err != nil {
		return nil, err
	}
	if len(states) < 2 || strings.Join(emitRows, "\t") != strings.Join(states[1:], "\t") {
		return nil, NewError("read_tables").Context("emission rows must list every state but the first").
			Cause(ErrUnknownState).Err()
	}
	for _, s := range symbols {
		if len(s) != 1 {
			return nil, NewError("read_tables").Subject(s).Cause(ErrUnknownSymbol).Err()
		}
	}
	alphabet, err := NewAlphabet(strings.Join(symbols, ""))
	if err != nil {
		return nil, err
	}

	return &Tables{
		States:     states,
		Labels:     make([]string, len(states)),
		Alphabet:   alphabet,
		Transition: trans,
		Emission:   emis,
	}, nil
}

func readTSV(r io.Reader, name string) (cols, rows []string, data *mat.Dense, err error) {
	tr := csv.NewReader(r)
	tr.Comma = '\t'
	records, err := tr.ReadAll()
	if err != nil {
		return nil, nil, nil, NewError("read_tables").Context("%s: %v", name, err).Cause(ErrSyntax).Err()
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, nil, nil, NewError("read_tables").Context("%s table is empty", name).Cause(ErrSyntax).Err()
	}

	cols = records[0][1:]
	data = mat.NewDense(len(records)-1, len(cols), nil)
	for i, rec := range records[1:] {
		rows = append(rows, rec[0])
		for j, field := range rec[1:] {
			v, perr := strconv.ParseFloat(field, 64)
			if perr != nil {
				return nil, nil, nil, NewError("read_tables").Subject(rec[0]).
					Context("%s column %s: %q", name, cols[j], field).Cause(ErrSyntax).Err()
			}
			data.Set(i, j, v)
		}
	}
	return cols, rows, data, nil
}
