package inference

import (
	"context"

	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
	"github.com/dd0wney/cluso-tmhmm/pkg/topology"
)

// Predict encodes residues, decodes them with method and projects the
// path onto topology labels. The context is checked once before decoding
// starts; a decode runs to completion.
func (e *Engine) Predict(ctx context.Context, id, residues string, method Method) (*Prediction, error) {
	timer := logging.StartDebugTimer(e.logger, "sequence decoded",
		logging.Component("engine"),
		logging.SequenceID(id),
		logging.Length(len(residues)),
		logging.Method(string(method)))

	pred, err := e.predict(ctx, id, residues, method)

	status, helices := "success", 0
	switch {
	case err == nil:
		helices = pred.Helices
		timer.End(logging.Count(helices))
	case model.IsInput(err):
		status = "input_error"
		e.logger.Warn("sequence rejected", logging.SequenceID(id), logging.Error(err))
	default:
		status = "error"
		e.logger.Error("prediction failed", logging.SequenceID(id), logging.Error(err))
	}
	if e.metrics != nil {
		e.metrics.RecordPrediction(string(method), status, len(residues), helices, timer.Elapsed())
	}
	return pred, err
}

func (e *Engine) predict(ctx context.Context, id, residues string, method Method) (*Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq, err := e.Encode(residues)
	if err != nil {
		return nil, err
	}

	var (
		path Path
		ll   float64
	)
	switch method {
	case Viterbi:
		if path, _, err = e.viterbi(seq); err != nil {
			return nil, err
		}
		ll = e.logLikelihood(e.forward(seq), len(seq))
	case Posterior:
		if path, ll, err = e.posterior(seq); err != nil {
			return nil, err
		}
	default:
		return nil, model.NewError("decode").Input().Subject(string(method)).Cause(ErrUnknownMethod).Err()
	}

	states := path.Residues()
	names, err := e.model.Index().NamesOf(states)
	if err != nil {
		return nil, err
	}
	labels := e.projector.Project(states)
	segs := topology.Segments(labels)

	return &Prediction{
		ID:            id,
		Length:        len(residues),
		Method:        method,
		LogLikelihood: ll,
		Path:          names,
		Labels:        topology.Format(labels),
		Segments:      segs,
		Helices:       topology.HelixCount(segs),
		Topology:      topology.Topology(segs),
	}, nil
}
