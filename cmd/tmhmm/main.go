// Command tmhmm compiles TMHMM model files and predicts membrane topology
// for FASTA sequences.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-tmhmm/pkg/config"
	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
	"github.com/dd0wney/cluso-tmhmm/pkg/store"
)

const usage = `usage: tmhmm <command> [flags]

commands:
  compile   compile a model and write transition.tsv / emissions.tsv
  predict   predict topologies for the sequences in a FASTA file
  models    list models held by a store

run "tmhmm <command> -h" for command flags
`

// exitPartial is returned when some sequences could not be decoded.
const exitPartial = 2

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "tmhmm: %v\n", err)
		} else {
			code = 0
		}
		os.Exit(code)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return &exitError{code: 1, err: errors.New("missing command")}
	}
	switch args[0] {
	case "compile":
		return runCompile(ctx, args[1:], stdout, stderr)
	case "predict":
		return runPredict(ctx, args[1:], stdout, stderr)
	case "models":
		return runModels(ctx, args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// modelFlags are shared by compile and predict.
type modelFlags struct {
	configPath string
	modelPath  string
	alpha      float64
	logLevel   string
}

func (f *modelFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.modelPath, "model", "", "model description file (default: bundled TMHMM model)")
	fs.Float64Var(&f.alpha, "alpha", 0, "end smoothing constant in (0, 1) (default from config)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
}

// load returns the configuration with flag overrides applied.
func (f *modelFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.modelPath != "" {
		cfg.Model.Path = f.modelPath
	}
	if f.alpha != 0 {
		cfg.Model.Alpha = f.alpha
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config, stderr io.Writer) logging.Logger {
	return logging.NewJSONLogger(stderr, cfg.Level())
}

func openStore(ctx context.Context, target string) (store.ModelStore, error) {
	driver, dsn := store.ParseTarget(target)
	return store.Open(ctx, driver, dsn, nil)
}

func runModels(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	fs.SetOutput(stderr)
	target := fs.String("store", "", "model store, e.g. sqlite:models.db or postgres://...")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *target == "" {
		return errors.New("-store is required")
	}
	st, err := openStore(ctx, *target)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.List(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(stdout, "%s\t%s\tstates=%d\tsmoothed=%t\t%s\n",
			r.Name, r.ID, r.States, r.Smoothed, r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

// describe logs a one-line summary of a loaded model.
func describe(logger logging.Logger, name string, m *model.Model) {
	logger.Info("model ready",
		logging.String("model", name),
		logging.Count(m.NumStates()),
		logging.Bool("smoothed", m.Smoothed()))
}
