package parallel

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-tmhmm/pkg/inference"
	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/seqio"
)

// ErrTaskPanic marks a record whose decode panicked.
var ErrTaskPanic = errors.New("decode panicked")

// Predictor decodes one sequence. *inference.Engine satisfies it.
type Predictor interface {
	Predict(ctx context.Context, id, residues string, method inference.Method) (*inference.Prediction, error)
}

// Result is the outcome for one record of a batch. Exactly one of
// Prediction and Err is set.
type Result struct {
	ID         string
	Prediction *inference.Prediction
	Err        error
}

// DecodeBatch runs one Predict call per record on a worker pool. Results
// come back in input order. A failing record, for example one with an
// unknown residue, only sets that record's Err.
//
// The returned error is non-nil only when the pool cannot be created or
// ctx ends before every record has run.
func DecodeBatch(ctx context.Context, p Predictor, records []seqio.Record, method inference.Method, workers int, logger logging.Logger) ([]Result, error) {
	logger = logging.OrNop(logger)
	results := make([]Result, len(records))
	if len(records) == 0 {
		return results, nil
	}

	pool, err := NewWorkerPool(min(workers, len(records)), logger)
	if err != nil {
		return nil, err
	}

	timer := logging.StartTimer(logger, "batch decoded",
		logging.Component("batch"),
		logging.Count(len(records)),
		logging.Method(string(method)),
		logging.Int("workers", pool.Workers()))

	for i := range records {
		rec := records[i]
		results[i].ID = rec.ID
		task := func() {
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("%w: %s: %v", ErrTaskPanic, rec.ID, r)
				}
			}()
			results[i].Prediction, results[i].Err = p.Predict(ctx, rec.ID, rec.Residues, method)
		}
		if err := pool.Submit(ctx, task); err != nil {
			for j := i; j < len(records); j++ {
				results[j].ID = records[j].ID
				results[j].Err = err
			}
			break
		}
	}
	pool.Close()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	timer.End(logging.Int("failed", failed))

	return results, ctx.Err()
}
