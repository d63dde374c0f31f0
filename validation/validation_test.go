package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/lifescope/errors"
)

type nested struct {
	InjectPrefix string   `mapstructure:"inject_prefix" validate:"required,exported"`
	CacheTypes   []string `mapstructure:"cache_types" validate:"dive,required"`
}

type sample struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`
	Container   nested `mapstructure:"container"`
	SampleRate  float64
}

func validSample() sample {
	return sample{
		Name:        "arena",
		Environment: "development",
		Container:   nested{InjectPrefix: "Inject", CacheTypes: []string{"game.Sword"}},
	}
}

func TestValidateValid(t *testing.T) {
	if err := Validate(validSample()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sample)
		field  string
		msg    string
	}{
		{"missing name", func(s *sample) { s.Name = "" }, "name", "is required"},
		{"bad environment", func(s *sample) { s.Environment = "qa" }, "environment", "must be one of"},
		{"lower-case prefix", func(s *sample) { s.Container.InjectPrefix = "inject" }, "container.inject_prefix", "upper-case"},
		{"prefix with dot", func(s *sample) { s.Container.InjectPrefix = "In.ject" }, "container.inject_prefix", "upper-case"},
		{"empty cache type", func(s *sample) { s.Container.CacheTypes = []string{""} }, "container.cache_types[0]", "is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := validSample()
			tc.mutate(&s)
			err := Validate(s)
			if err == nil {
				t.Fatal("expected error")
			}
			if !stderrors.Is(err, errors.ErrInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("expected field %q in %q", tc.field, err.Error())
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Errorf("expected message %q in %q", tc.msg, err.Error())
			}

			var appErr *errors.AppError
			if !stderrors.As(err, &appErr) {
				t.Fatal("expected *errors.AppError")
			}
			fields, ok := appErr.Details["fields"].([]FieldError)
			if !ok || len(fields) != 1 {
				t.Errorf("expected one field error, got %v", appErr.Details["fields"])
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("SampleRate"); got != "sample_rate" {
		t.Errorf("expected sample_rate, got %s", got)
	}
}
