package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dd0wney/cluso-tmhmm/pkg/inference"
	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/parallel"
	"github.com/dd0wney/cluso-tmhmm/pkg/seqio"
	"github.com/dd0wney/cluso-tmhmm/pkg/store"
	"github.com/dd0wney/cluso-tmhmm/pkg/validation"
)

// defaultSequenceID names sequences submitted without an id.
const defaultSequenceID = "sequence"

func (s *Server) method(name string) (inference.Method, error) {
	if name == "" {
		return s.opts.DefaultMethod, nil
	}
	return inference.ParseMethod(name)
}

// normalizeResidues applies the same cleanup as the FASTA reader.
func normalizeResidues(seq string) string {
	seq = strings.ToUpper(strings.Join(strings.Fields(seq), ""))
	return strings.TrimSuffix(seq, "*")
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req validation.PredictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidatePredictRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	method, err := s.method(req.Method)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID == "" {
		req.ID = defaultSequenceID
	}

	pred, err := s.Engine().Predict(r.Context(), req.ID, normalizeResidues(req.Sequence), method)
	if err != nil {
		writeModelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// BatchResult is one entry of a batch response. Error is set instead of
// Prediction when that sequence could not be decoded.
type BatchResult struct {
	ID         string                `json:"id"`
	Prediction *inference.Prediction `json:"prediction,omitempty"`
	Error      *ErrorResponse        `json:"error,omitempty"`
}

// BatchResponse lists results in request order.
type BatchResponse struct {
	Model     string        `json:"model"`
	Method    string        `json:"method"`
	Results   []BatchResult `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

func (s *Server) handleBatchPredict(w http.ResponseWriter, r *http.Request) {
	var req validation.BatchPredictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateBatchPredictRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Sequences) > s.opts.MaxBatch {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds maximum %d", len(req.Sequences), s.opts.MaxBatch))
		return
	}
	method, err := s.method(req.Method)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records := make([]seqio.Record, len(req.Sequences))
	for i, sr := range req.Sequences {
		id := sr.ID
		if id == "" {
			id = fmt.Sprintf("%s_%d", defaultSequenceID, i+1)
		}
		records[i] = seqio.Record{ID: id, Residues: normalizeResidues(sr.Sequence)}
	}

	engine := s.Engine()
	results, err := parallel.DecodeBatch(r.Context(), engine, records, method, s.opts.Workers, s.logger)
	if err != nil {
		writeModelError(w, err)
		return
	}

	resp := BatchResponse{
		Model:   s.ModelName(),
		Method:  string(method),
		Results: make([]BatchResult, len(results)),
	}
	for i, res := range results {
		resp.Results[i] = BatchResult{ID: res.ID, Prediction: res.Prediction}
		if res.Err != nil {
			_, e := errorResponse(res.Err)
			resp.Results[i].Error = &e
			resp.Failed++
			continue
		}
		resp.Succeeded++
	}
	s.logger.Debug("batch served",
		logging.Count(len(results)),
		logging.Int("failed", resp.Failed),
		logging.Method(string(method)))
	writeJSON(w, http.StatusOK, resp)
}

// StateInfo describes one model state.
type StateInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
}

// ModelResponse describes the served model.
type ModelResponse struct {
	Name     string      `json:"name"`
	States   []StateInfo `json:"states"`
	Alphabet string      `json:"alphabet"`
	Start    string      `json:"start"`
	End      string      `json:"end"`
	Smoothed bool        `json:"smoothed"`
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	m := s.Engine().Model()
	names := m.States()
	resp := ModelResponse{
		Name:     s.ModelName(),
		States:   make([]StateInfo, len(names)),
		Alphabet: m.Alphabet().Symbols(),
		Start:    names[m.StartIndex()],
		End:      names[m.EndIndex()],
		Smoothed: m.Smoothed(),
	}
	for i, name := range names {
		resp.States[i] = StateInfo{Index: i, Name: name, Label: m.Label(i)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeJSON(w, http.StatusOK, map[string]any{"models": []store.Record{}})
		return
	}
	records, err := s.opts.Store.List(r.Context())
	if err != nil {
		s.logger.Error("list models failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "list models failed")
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": records})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
