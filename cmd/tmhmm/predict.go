package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dd0wney/cluso-tmhmm/models"
	"github.com/dd0wney/cluso-tmhmm/pkg/config"
	"github.com/dd0wney/cluso-tmhmm/pkg/inference"
	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
	"github.com/dd0wney/cluso-tmhmm/pkg/parallel"
	"github.com/dd0wney/cluso-tmhmm/pkg/report"
	"github.com/dd0wney/cluso-tmhmm/pkg/seqio"
	"github.com/dd0wney/cluso-tmhmm/pkg/topology"
)

type predictFlags struct {
	modelFlags
	tables  string
	target  string
	name    string
	fasta   string
	method  string
	workers int
	plain   bool
	json    bool
	noBlock bool
}

func runPredict(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var pf predictFlags
	pf.register(fs)
	fs.StringVar(&pf.tables, "tables", "", "directory with transition.tsv and emissions.tsv from tmhmm compile")
	fs.StringVar(&pf.target, "store", "", "load the model from a store, e.g. sqlite:models.db")
	fs.StringVar(&pf.name, "name", "", "model name in the store (default from config)")
	fs.StringVar(&pf.fasta, "fasta", "-", "FASTA file, - for stdin")
	fs.StringVar(&pf.method, "method", "", "viterbi or posterior (default from config)")
	fs.IntVar(&pf.workers, "workers", 0, "parallel decodes (default from config)")
	fs.BoolVar(&pf.plain, "plain", false, "disable terminal styling")
	fs.BoolVar(&pf.json, "json", false, "write one JSON prediction per line")
	fs.BoolVar(&pf.noBlock, "summary", false, "omit the label/residue alignment")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := pf.load()
	if err != nil {
		return err
	}
	if pf.method != "" {
		cfg.Decode.Method = pf.method
	}
	if pf.workers > 0 {
		cfg.Decode.Workers = pf.workers
	}
	method, err := inference.ParseMethod(cfg.Decode.Method)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, stderr)

	m, err := pf.loadModel(ctx, cfg, logger)
	if err != nil {
		return err
	}
	engine, err := inference.NewEngine(m, inference.EngineOptions{
		Logger:    logger,
		Projector: fallbackProjector(m, logger),
	})
	if err != nil {
		return err
	}

	records, err := readRecords(pf.fasta)
	if err != nil {
		return err
	}
	results, err := parallel.DecodeBatch(ctx, engine, records, method, cfg.Decode.Workers, logger)
	if err != nil {
		return err
	}

	failed, err := pf.write(stdout, records, results)
	if err != nil {
		return err
	}
	if failed > 0 {
		return &exitError{code: exitPartial, err: fmt.Errorf("%d of %d sequences failed", failed, len(records))}
	}
	return nil
}

func (pf *predictFlags) loadModel(ctx context.Context, cfg *config.Config, logger logging.Logger) (*model.Model, error) {
	var (
		m    *model.Model
		name = cfg.Model.Name
		err  error
	)
	switch {
	case pf.tables != "":
		m, err = readTables(pf.tables, cfg.Model, logger)
		name = pf.tables
	case pf.target != "":
		if pf.name != "" {
			name = pf.name
		}
		st, oerr := openStore(ctx, pf.target)
		if oerr != nil {
			return nil, oerr
		}
		defer st.Close()
		m, err = st.Load(ctx, name)
	default:
		m, err = cfg.Model.Compile(logger, nil)
	}
	if err != nil {
		return nil, err
	}
	describe(logger, name, m)
	return m, nil
}

// fallbackProjector returns the TMHMM helix index range for models that
// carry no labels at all, such as tables written without labels.tsv. It
// returns nil when the states' own labels should be used.
func fallbackProjector(m *model.Model, logger logging.Logger) topology.Projector {
	for i := 0; i < m.NumStates(); i++ {
		if m.Label(i) != "" {
			return nil
		}
	}
	first, last := 2, 2*models.MotifLength+1
	logger.Warn("model has no state labels, projecting helix states by index",
		logging.Int("first", first), logging.Int("last", last))
	return topology.NewRangeProjector(first, last)
}

func readRecords(path string) ([]seqio.Record, error) {
	var (
		records []seqio.Record
		err     error
	)
	if path == "-" {
		records, err = seqio.ReadAll(os.Stdin)
	} else {
		records, err = seqio.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("no sequences in input")
	}
	return records, nil
}

func (pf *predictFlags) write(out io.Writer, records []seqio.Record, results []parallel.Result) (int, error) {
	failed := 0
	if pf.json {
		enc := json.NewEncoder(out)
		for _, r := range results {
			if r.Err != nil {
				failed++
				if err := enc.Encode(map[string]string{"id": r.ID, "error": r.Err.Error()}); err != nil {
					return failed, err
				}
				continue
			}
			if err := enc.Encode(r.Prediction); err != nil {
				return failed, err
			}
		}
		return failed, nil
	}

	opts := report.DefaultOptions()
	opts.Plain = pf.plain || !isTerminal(out)
	opts.Blocks = !pf.noBlock
	w := report.NewWriter(out, opts)
	for i, r := range results {
		var err error
		if r.Err != nil {
			failed++
			err = w.WriteError(r.ID, r.Err)
		} else {
			err = w.Write(r.Prediction, records[i].Residues)
		}
		if err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
