// Package store persists compiled models so they can be served without
// recompiling the model description.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

var (
	// ErrNotFound is returned by Load when no model has the given name.
	ErrNotFound = errors.New("model not found")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
	// ErrEmptyName rejects saves without a model name.
	ErrEmptyName = errors.New("model name is required")
)

// Record describes a stored model.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	States    int       `json:"states"`
	Alphabet  string    `json:"alphabet"`
	Smoothed  bool      `json:"smoothed"`
	CreatedAt time.Time `json:"created_at"`
}

// ModelStore saves and loads compiled models by name. Saving under an
// existing name replaces the previous model.
type ModelStore interface {
	Save(ctx context.Context, name string, m *model.Model) (Record, error)
	Load(ctx context.Context, name string) (*model.Model, error)
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// OperationRecorder receives store operation outcomes. *metrics.Registry
// satisfies it.
type OperationRecorder interface {
	RecordStoreOperation(operation, status string, duration time.Duration)
	SetStoredModels(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordStoreOperation(string, string, time.Duration) {}
func (nopRecorder) SetStoredModels(int)                                {}

func recorderOrNop(r OperationRecorder) OperationRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// observe records the outcome of one operation started at start.
func observe(r OperationRecorder, op string, start time.Time, err error) {
	status := "success"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	r.RecordStoreOperation(op, status, time.Since(start))
}
