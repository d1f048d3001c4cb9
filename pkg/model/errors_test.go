package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := NewError("encode").Input().Subject("B").At(4).Context("not in alphabet").Cause(ErrUnknownSymbol).Err()

	want := `input error: encode "B" at 4 (not in alphabet): unknown symbol`
	if err.Error() != want {
		t.Errorf("Error() = %q\nwant      %q", err.Error(), want)
	}

	bare := NewError("tables").Cause(ErrTooFewStates).Err()
	if bare.Error() != "configuration error: tables: model needs a start and an end state" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestError_Classification(t *testing.T) {
	input := NewError("viterbi").Input().Cause(ErrNoPath).Err()
	config := UnknownStateError("index", "ghost")
	wrapped := fmt.Errorf("loading model: %w", config)

	if !IsInput(input) || IsConfiguration(input) {
		t.Error("input error misclassified")
	}
	if !IsConfiguration(wrapped) || IsInput(wrapped) {
		t.Error("wrapped configuration error misclassified")
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("plain errors carry no kind")
	}
	if !errors.Is(wrapped, ErrUnknownState) {
		t.Error("cause lost through wrapping")
	}

	var e *Error
	if !errors.As(wrapped, &e) || e.Subject != "ghost" {
		t.Errorf("errors.As = %+v", e)
	}
}
