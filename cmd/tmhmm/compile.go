package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dd0wney/cluso-tmhmm/pkg/config"
	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

const (
	transitionFile = "transition.tsv"
	emissionFile   = "emissions.tsv"
	labelsFile     = "labels.tsv"
)

func runCompile(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var mf modelFlags
	mf.register(fs)
	out := fs.String("out", "", "directory for the unsmoothed transition.tsv, emissions.tsv and labels.tsv")
	target := fs.String("store", "", "also save the model to a store, e.g. sqlite:models.db")
	name := fs.String("name", "", "model name in the store (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" && *target == "" {
		return fmt.Errorf("one of -out or -store is required")
	}

	cfg, err := mf.load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, stderr)

	raw, err := cfg.Model.CompileRaw(logger, nil)
	if err != nil {
		return err
	}
	m, err := raw.ApplyEndSmoothing(cfg.Model.Smoothing(logger))
	if err != nil {
		return err
	}
	if *name == "" {
		*name = cfg.Model.Name
	}
	describe(logger, *name, m)

	if *out != "" {
		if err := writeTables(*out, raw); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s, %s and %s\n", filepath.Join(*out, transitionFile),
			filepath.Join(*out, emissionFile), filepath.Join(*out, labelsFile))
	}

	if *target != "" {
		st, err := openStore(ctx, *target)
		if err != nil {
			return err
		}
		defer st.Close()
		rec, err := st.Save(ctx, *name, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "saved %s as %s\n", rec.Name, rec.ID)
	}
	return nil
}

func writeTables(dir string, m *model.Model) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	write := func(name string, fn func(io.Writer, *model.Model) error) (err error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		return fn(f, m)
	}
	if err := write(transitionFile, model.WriteTransitionTSV); err != nil {
		return err
	}
	if err := write(emissionFile, model.WriteEmissionTSV); err != nil {
		return err
	}
	return write(labelsFile, model.WriteLabelsTSV)
}

// readTables loads a model written by writeTables and applies end
// smoothing from cfg. labels.tsv is optional.
func readTables(dir string, cfg config.ModelConfig, logger logging.Logger) (*model.Model, error) {
	trans, err := os.Open(filepath.Join(dir, transitionFile))
	if err != nil {
		return nil, err
	}
	defer trans.Close()
	emis, err := os.Open(filepath.Join(dir, emissionFile))
	if err != nil {
		return nil, err
	}
	defer emis.Close()

	tables, err := model.ReadTablesTSV(trans, emis)
	if err != nil {
		return nil, err
	}
	switch labels, err := os.Open(filepath.Join(dir, labelsFile)); {
	case err == nil:
		defer labels.Close()
		if err := model.ReadLabelsTSV(labels, tables); err != nil {
			return nil, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	raw, err := model.FromTables(tables, cfg.CompileOptions(logger, nil))
	if err != nil {
		return nil, err
	}
	return raw.ApplyEndSmoothing(cfg.Smoothing(logger))
}
