package config

import (
	"fmt"
	"os"

	"github.com/dd0wney/cluso-tmhmm/models"
	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

// CompileOptions returns the compiler settings for this model.
func (c ModelConfig) CompileOptions(logger logging.Logger, rec model.CompileRecorder) model.CompileOptions {
	opts := model.DefaultCompileOptions()
	opts.HeaderLines = c.HeaderLines
	opts.EndState = c.EndState
	opts.Logger = logger
	opts.Metrics = rec
	return opts
}

// Smoothing returns the end smoothing settings for this model.
func (c ModelConfig) Smoothing(logger logging.Logger) model.Smoothing {
	return model.Smoothing{
		Alpha:       c.Alpha,
		InsideLoop:  c.InsideLoop,
		OutsideLoop: c.OutsideLoop,
		Logger:      logger,
	}
}

// Text returns the model description at Path, or the bundled model.
func (c ModelConfig) Text() (string, error) {
	if c.Path == "" {
		return models.TMHMM, nil
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read model file: %w", err)
	}
	return string(data), nil
}

// CompileRaw reads and compiles the configured model without end
// smoothing.
func (c ModelConfig) CompileRaw(logger logging.Logger, rec model.CompileRecorder) (*model.Model, error) {
	text, err := c.Text()
	if err != nil {
		return nil, err
	}
	return model.Compile(text, c.CompileOptions(logger, rec))
}

// Compile reads, compiles and smooths the configured model.
func (c ModelConfig) Compile(logger logging.Logger, rec model.CompileRecorder) (*model.Model, error) {
	m, err := c.CompileRaw(logger, rec)
	if err != nil {
		return nil, err
	}
	return m.ApplyEndSmoothing(c.Smoothing(logger))
}
