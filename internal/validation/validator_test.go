// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Endpoint string        `validate:"required,http_url"`
	Path     string        `validate:"required,urlpath"`
	Format   string        `validate:"oneof=json console"`
	Retries  int           `validate:"min=0,max=10"`
	Timeout  time.Duration `validate:"gt=0"`
}

func validSample() sample {
	return sample{
		Endpoint: "https://collector.example.com",
		Path:     "/event",
		Format:   "json",
		Retries:  3,
		Timeout:  10 * time.Second,
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}

func TestValidateStructValid(t *testing.T) {
	t.Parallel()

	s := validSample()
	if err := ValidateStruct(&s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStructInvalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*sample)
		wantTag string
	}{
		{"missing endpoint", func(s *sample) { s.Endpoint = "" }, "required"},
		{"non-http endpoint", func(s *sample) { s.Endpoint = "ftp://x" }, "http_url"},
		{"relative path", func(s *sample) { s.Path = "event" }, "urlpath"},
		{"path with query", func(s *sample) { s.Path = "/event?x=1" }, "urlpath"},
		{"bad format", func(s *sample) { s.Format = "xml" }, "oneof"},
		{"too many retries", func(s *sample) { s.Retries = 11 }, "max"},
		{"zero timeout", func(s *sample) { s.Timeout = 0 }, "gt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(&s)

			err := ValidateStruct(&s)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var sve *StructValidationError
			if !errors.As(err, &sve) {
				t.Fatalf("expected *StructValidationError, got %T", err)
			}
			if len(sve.Errors()) != 1 {
				t.Fatalf("expected 1 field error, got %d: %v", len(sve.Errors()), err)
			}
			if got := sve.Errors()[0].Tag(); got != tt.wantTag {
				t.Errorf("tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestErrorMessagesIncludeField(t *testing.T) {
	t.Parallel()

	s := validSample()
	s.Format = "xml"
	err := ValidateStruct(&s)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "sample.Format must be one of: json console") {
		t.Errorf("unexpected message: %v", err)
	}
}
