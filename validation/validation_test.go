package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/readflow/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("name", "readflow")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("name", "   ")
	if !v2.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New().
		Min("workers", 0, 1).
		OneOf("policy", "keep", []string{"discard", "flush"}).
		OneOf("empty", "", []string{"a"}).
		Custom(false, "band", "must not be negative")

	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", got, v.Errors())
	}
	err := v.Validate()
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
	for _, want := range []string{"workers: must be at least 1", "policy: must be one of: discard, flush", "band: must not be negative"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidatorNoErrors(t *testing.T) {
	if err := New().Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

type encoderSection struct {
	Stride int     `mapstructure:"stride" validate:"gte=1"`
	Ratio  float64 `mapstructure:"max_length_ratio" validate:"gte=0,lte=1"`
}

type pipelineSection struct {
	Policy   string         `mapstructure:"incomplete_families" validate:"oneof=discard flush"`
	Encoder  encoderSection `mapstructure:"encoder"`
	RunLabel string         `validate:"required"`
}

func TestValidateStructTags(t *testing.T) {
	ok := pipelineSection{Policy: "flush", Encoder: encoderSection{Stride: 5, Ratio: 0.05}, RunLabel: "x"}
	if err := Validate(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := pipelineSection{Policy: "keep", Encoder: encoderSection{Stride: 0, Ratio: 2}}
	err := Validate(bad)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{
		"incomplete_families: must be one of: discard flush",
		"encoder.stride: must be at least 1",
		"encoder.max_length_ratio: must be at most 1",
		"run_label: is required",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestMerge(t *testing.T) {
	v := New()
	v.Merge("pipeline", Validate(pipelineSection{Policy: "flush", Encoder: encoderSection{Stride: 1}}))
	v.Merge("logging", stderrors.New("logging.level must be one of [info]"))
	v.Merge("nothing", nil)

	errs := v.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs[0].Field != "run_label" || errs[1].Field != "logging" {
		t.Errorf("unexpected fields %v", errs)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{"QueueCapacity": "queue_capacity", "Name": "name", "ID": "i_d"}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
