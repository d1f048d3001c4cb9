package validation

import (
	"errors"
	"io/fs"
	"math"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_Rules(t *testing.T) {
	tests := []struct {
		name    string
		apply   func(*ConfigValidator)
		wantErr bool
	}{
		{"required empty", func(cv *ConfigValidator) { cv.Required("Model", "") }, true},
		{"required set", func(cv *ConfigValidator) { cv.Required("Model", "models/tmhmm.model") }, false},
		{"workers below", func(cv *ConfigValidator) { cv.RangeInt("Workers", 0, 1, 256) }, true},
		{"workers at max", func(cv *ConfigValidator) { cv.RangeInt("Workers", 256, 1, 256) }, false},
		{"workers above", func(cv *ConfigValidator) { cv.RangeInt("Workers", 257, 1, 256) }, true},
		{"timeout below", func(cv *ConfigValidator) {
			cv.RangeDuration("ReadTimeout", 500*time.Millisecond, time.Second, time.Minute)
		}, true},
		{"timeout inside", func(cv *ConfigValidator) {
			cv.RangeDuration("ReadTimeout", 30*time.Second, time.Second, time.Minute)
		}, false},
		{"header lines zero", func(cv *ConfigValidator) { cv.NonNegative("HeaderLines", 0) }, false},
		{"header lines negative", func(cv *ConfigValidator) { cv.NonNegative("HeaderLines", -1) }, true},
		{"method allowed", func(cv *ConfigValidator) { cv.OneOf("Method", "posterior", []string{"viterbi", "posterior"}) }, false},
		{"method unknown", func(cv *ConfigValidator) { cv.OneOf("Method", "forward", []string{"viterbi", "posterior"}) }, true},
		{"when true", func(cv *ConfigValidator) {
			cv.When(true, func(v *ConfigValidator) { v.Required("DSN", "") })
		}, true},
		{"when false", func(cv *ConfigValidator) {
			cv.When(false, func(v *ConfigValidator) { v.Required("DSN", "") })
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("TestConfig")
			tt.apply(cv)
			if cv.HasErrors() != tt.wantErr {
				t.Errorf("HasErrors() = %v, want %v (%v)", cv.HasErrors(), tt.wantErr, cv.Validate())
			}
		})
	}
}

func TestConfigValidator_OpenRangeFloat(t *testing.T) {
	tests := []struct {
		value   float64
		wantErr bool
	}{
		{0, true},
		{0.1, false},
		{0.999, false},
		{1, true},
		{-0.5, true},
		{math.NaN(), true},
	}
	for _, tt := range tests {
		cv := NewConfigValidator("TestConfig").OpenRangeFloat("Alpha", tt.value, 0, 1)
		if cv.HasErrors() != tt.wantErr {
			t.Errorf("OpenRangeFloat(%v) error = %v, want error %v", tt.value, cv.Validate(), tt.wantErr)
		}
	}
}

func TestConfigValidator_CustomKeepsCause(t *testing.T) {
	err := NewConfigValidator("Config").
		Custom("Model.Path", func() error { return fs.ErrNotExist }).
		Validate()

	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("cause lost: %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "Model.Path" || fe.Section != "Config" {
		t.Errorf("FieldError = %+v", fe)
	}
	if !strings.HasPrefix(err.Error(), "Config.Model.Path: ") {
		t.Errorf("message = %q", err.Error())
	}

	if err := NewConfigValidator("Config").Custom("Model.Path", func() error { return nil }).Validate(); err != nil {
		t.Errorf("passing check reported %v", err)
	}
}

func TestConfigValidator_ReportsEveryField(t *testing.T) {
	cv := NewConfigValidator("TestConfig").
		Required("Model", "").
		NonNegative("Workers", -1).
		OpenRangeFloat("Alpha", 2, 0, 1)

	if len(cv.Errors()) != 3 {
		t.Fatalf("got %d errors, want 3", len(cv.Errors()))
	}
	msg := cv.Validate().Error()
	for _, field := range []string{"TestConfig.Model", "TestConfig.Workers", "TestConfig.Alpha"} {
		if !strings.Contains(msg, field) {
			t.Errorf("Validate() = %q, missing %s", msg, field)
		}
	}
}

func TestConfigValidator_ValidNil(t *testing.T) {
	if err := NewConfigValidator("TestConfig").Required("Model", "valid").Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestDefaults(t *testing.T) {
	if DefaultOr("", "viterbi") != "viterbi" || DefaultOr("posterior", "viterbi") != "posterior" {
		t.Error("DefaultOr")
	}
	if DefaultOrInt(0, 10) != 10 || DefaultOrInt(-5, 10) != 10 || DefaultOrInt(5, 10) != 5 {
		t.Error("DefaultOrInt")
	}
	if DefaultOrDuration(0, 5*time.Second) != 5*time.Second || DefaultOrDuration(10*time.Second, 5*time.Second) != 10*time.Second {
		t.Error("DefaultOrDuration")
	}
}
