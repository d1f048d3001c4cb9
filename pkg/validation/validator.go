package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxSequenceLength = 100000
	MaxIDLength       = 256
	MaxBatchSize      = 1000
	MinBatchSize      = 1

	// Sequence identifiers follow FASTA header words: printable, no spaces.
	idPattern = regexp.MustCompile(`^[\x21-\x7e]+$`)
)

func init() {
	validate = validator.New()
}

// PredictRequest asks for the topology of one sequence
type PredictRequest struct {
	ID       string `json:"id" validate:"omitempty,max=256"`
	Sequence string `json:"sequence" validate:"required,max=100000"`
	Method   string `json:"method" validate:"omitempty,oneof=viterbi posterior"`
}

// SequenceRequest is one entry of a batch
type SequenceRequest struct {
	ID       string `json:"id" validate:"omitempty,max=256"`
	Sequence string `json:"sequence" validate:"required,max=100000"`
}

// BatchPredictRequest asks for the topology of several sequences decoded
// with the same method
type BatchPredictRequest struct {
	Sequences []SequenceRequest `json:"sequences" validate:"required,min=1,max=1000,dive"`
	Method    string            `json:"method" validate:"omitempty,oneof=viterbi posterior"`
}

// ValidatePredictRequest validates a single prediction request. Residue
// symbols are not checked here; the engine rejects them per sequence.
func ValidatePredictRequest(req *PredictRequest) error {
	if req == nil {
		return errors.New("predict request cannot be nil")
	}

	// Validate using struct tags
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	return ValidateSequenceID(req.ID)
}

// ValidateBatchPredictRequest validates a batch prediction request
func ValidateBatchPredictRequest(req *BatchPredictRequest) error {
	if req == nil {
		return errors.New("batch request cannot be nil")
	}

	if err := ValidateBatchSize(len(req.Sequences)); err != nil {
		return err
	}

	// Validate using struct tags
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	for i, s := range req.Sequences {
		if err := ValidateSequenceID(s.ID); err != nil {
			return fmt.Errorf("Sequences[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateBatchSize validates the size of a batch request
func ValidateBatchSize(size int) error {
	if size < MinBatchSize {
		return fmt.Errorf("batch size must be at least %d, got %d", MinBatchSize, size)
	}
	if size > MaxBatchSize {
		return fmt.Errorf("batch size must not exceed %d, got %d", MaxBatchSize, size)
	}
	return nil
}

// ValidateSequenceID validates an optional sequence identifier
func ValidateSequenceID(id string) error {
	if id == "" {
		return nil
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("sequence id exceeds maximum length of %d characters", MaxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("sequence id '%s' contains whitespace or non-printable characters", id)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
