package seqio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `; exported by a sequence browser

>sp|P02945|BACR_HALSA Bacteriorhodopsin
MLELLPTAVE GVSQAQITGR
pewiwlalgt

>empty
>tail no trailing newline
ACDEF*`

func TestReadAll(t *testing.T) {
	recs, err := ReadAll(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "sp|P02945|BACR_HALSA", recs[0].ID)
	assert.Equal(t, "Bacteriorhodopsin", recs[0].Description)
	assert.Equal(t, "MLELLPTAVEGVSQAQITGRPEWIWLALGT", recs[0].Residues)

	assert.Equal(t, "empty", recs[1].ID)
	assert.Empty(t, recs[1].Residues)

	assert.Equal(t, "tail", recs[2].ID)
	assert.Equal(t, "no trailing newline", recs[2].Description)
	assert.Equal(t, "ACDEF", recs[2].Residues)
}

func TestReader_Empty(t *testing.T) {
	r := NewReader(strings.NewReader("\n\n"))
	_, err := r.Next()
	assert.True(t, errors.Is(err, io.EOF))

	recs, err := ReadAll(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReader_NoHeader(t *testing.T) {
	_, err := ReadAll(strings.NewReader("ACDEF\n>x\nAC\n"))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqs.fasta")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	recs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "ACDEF", recs[2].Residues)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.fasta"))
	assert.Error(t, err)
}
