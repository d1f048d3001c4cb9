package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/dd0wney/cluso-tmhmm/models"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

type fakeRecorder struct {
	mu     sync.Mutex
	ops    []string
	stored int
}

func (f *fakeRecorder) RecordStoreOperation(operation, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, operation+"/"+status)
}

func (f *fakeRecorder) SetStoredModels(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = n
}

func bundled(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.Compile(models.TMHMM, model.DefaultCompileOptions())
	require.NoError(t, err)
	s, err := m.ApplyEndSmoothing(model.DefaultSmoothing())
	require.NoError(t, err)
	return s
}

func assertSameModel(t *testing.T, want, got *model.Model) {
	t.Helper()
	assert.Equal(t, want.States(), got.States())
	assert.Equal(t, want.Alphabet().Symbols(), got.Alphabet().Symbols())
	assert.Equal(t, want.EndIndex(), got.EndIndex())
	assert.Equal(t, want.Smoothed(), got.Smoothed())
	assert.True(t, mat.Equal(want.TransitionMatrix(), got.TransitionMatrix()))
	assert.True(t, mat.Equal(want.EmissionMatrix(), got.EmissionMatrix()))
	for i := 0; i < want.NumStates(); i++ {
		assert.Equal(t, want.Label(i), got.Label(i))
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	m := bundled(t)
	payload, rec, err := Encode("tmhmm", m)
	require.NoError(t, err)
	assert.Equal(t, "tmhmm", rec.Name)
	assert.Equal(t, 46, rec.States)
	assert.True(t, rec.Smoothed)
	assert.Len(t, rec.ID, 36)

	back, rec2, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, rec, rec2)
	assertSameModel(t, m, back)

	_, err = back.ApplyEndSmoothing(model.DefaultSmoothing())
	assert.ErrorIs(t, err, model.ErrAlreadySmoothed)
}

func TestCodec_VersionMismatch(t *testing.T) {
	payload, _, err := Encode("tmhmm", bundled(t))
	require.NoError(t, err)
	raw, err := snappy.Decode(nil, payload)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc["codec_version"] = CurrentCodecVersion + 1
	raw, err = json.Marshal(doc)
	require.NoError(t, err)

	_, _, err = Decode(snappy.Encode(nil, raw))
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestCodec_Corrupt(t *testing.T) {
	_, _, err := Decode([]byte("not snappy"))
	assert.Error(t, err)
}

func TestCodec_InvalidTables(t *testing.T) {
	payload, _, err := Encode("tmhmm", bundled(t))
	require.NoError(t, err)
	raw, err := snappy.Decode(nil, payload)
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc.Transition[1][1] += 0.5
	raw, err = json.Marshal(&doc)
	require.NoError(t, err)

	_, _, err = Decode(snappy.Encode(nil, raw))
	assert.ErrorIs(t, err, model.ErrNotStochastic)
	assert.True(t, model.IsConfiguration(err))
}

func openStores(t *testing.T) map[string]func(*fakeRecorder) ModelStore {
	return map[string]func(*fakeRecorder) ModelStore{
		"memory": func(r *fakeRecorder) ModelStore { return NewMemoryStore(r) },
		"sqlite": func(r *fakeRecorder) ModelStore {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "models.db"), r)
			require.NoError(t, err)
			return s
		},
	}
}

func TestModelStore_SaveLoadList(t *testing.T) {
	ctx := context.Background()
	m := bundled(t)

	for name, open := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := &fakeRecorder{}
			s := open(rec)
			t.Cleanup(func() { _ = s.Close() })

			saved, err := s.Save(ctx, "tmhmm", m)
			require.NoError(t, err)
			assert.Equal(t, 46, saved.States)

			loaded, err := s.Load(ctx, "tmhmm")
			require.NoError(t, err)
			assertSameModel(t, m, loaded)

			_, err = s.Load(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.Save(ctx, "", m)
			assert.ErrorIs(t, err, ErrEmptyName)

			_, err = s.Save(ctx, "another", m)
			require.NoError(t, err)
			replaced, err := s.Save(ctx, "tmhmm", m)
			require.NoError(t, err)
			assert.NotEqual(t, saved.ID, replaced.ID)

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "another", list[0].Name)
			assert.Equal(t, "tmhmm", list[1].Name)
			assert.Equal(t, replaced.ID, list[1].ID)
			assert.True(t, list[1].Smoothed)
			assert.Equal(t, model.AminoAcids.Symbols(), list[1].Alphabet)

			assert.Equal(t, 2, rec.stored)
			assert.Contains(t, rec.ops, "save/success")
			assert.Contains(t, rec.ops, "load/success")
			assert.Contains(t, rec.ops, "load/not_found")
			assert.Contains(t, rec.ops, "save/error")
			assert.Contains(t, rec.ops, "list/success")
		})
	}
}

func TestModelStore_Closed(t *testing.T) {
	ctx := context.Background()
	for name, open := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := &fakeRecorder{}
			s := open(rec)
			require.NoError(t, s.Close())
			_, err := s.Load(ctx, "tmhmm")
			assert.True(t, errors.Is(err, ErrClosed))
			_, err = s.List(ctx)
			assert.True(t, errors.Is(err, ErrClosed))
			assert.Equal(t, []string{"load/error", "list/error"}, rec.ops)
		})
	}
}

func TestSQLiteStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models.db")
	m := bundled(t)

	s, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	_, err = s.Save(ctx, "tmhmm", m)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	loaded, err := s.Load(ctx, "tmhmm")
	require.NoError(t, err)
	assertSameModel(t, m, loaded)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, DriverMemory, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "x.db"), nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "redis", "", nil)
	assert.Error(t, err)

	_, err = Open(ctx, DriverSQLite, "", nil)
	assert.Error(t, err)
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in, driver, dsn string
	}{
		{"sqlite:models.db", "sqlite", "models.db"},
		{"memory", "memory", ""},
		{"postgres://u@localhost/tmhmm", "postgres", "postgres://u@localhost/tmhmm"},
	}
	for _, tt := range tests {
		driver, dsn := ParseTarget(tt.in)
		if driver != tt.driver || dsn != tt.dsn {
			t.Errorf("ParseTarget(%q) = %q, %q; want %q, %q", tt.in, driver, dsn, tt.driver, tt.dsn)
		}
	}
}
