package application

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "simple name",
			input: "billing-service",
		},
		{
			name:  "underscores and digits",
			input: "worker_02",
		},
		{
			name:  "single character",
			input: "a",
		},
		{
			name:  "max length",
			input: strings.Repeat("a", 255),
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   strings.Repeat("a", 256),
			wantErr: true,
		},
		{
			name:    "contains space",
			input:   "billing service",
			wantErr: true,
		},
		{
			name:    "contains dot",
			input:   "billing.service",
			wantErr: true,
		},
		{
			name:    "contains slash",
			input:   "billing/service",
			wantErr: true,
		},
		{
			name:    "non-ascii",
			input:   "schéma",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateName(%q) error = %v, want ErrInvalidName", tt.input, err)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	got, err := NormalizeName("  billing-service  ")
	if err != nil {
		t.Fatalf("NormalizeName() error = %v", err)
	}
	if got != "billing-service" {
		t.Errorf("NormalizeName() = %q, want %q", got, "billing-service")
	}

	if _, err := NormalizeName("   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("NormalizeName(whitespace) error = %v, want ErrInvalidName", err)
	}
}

func TestNormalizeDescription(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name    string
		input   *string
		want    *string
		wantErr bool
	}{
		{
			name:  "nil stays nil",
			input: nil,
			want:  nil,
		},
		{
			name:  "empty becomes nil",
			input: strPtr(""),
			want:  nil,
		},
		{
			name:  "whitespace becomes nil",
			input: strPtr("   \t  "),
			want:  nil,
		},
		{
			name:  "trimmed",
			input: strPtr("  handles invoices  "),
			want:  strPtr("handles invoices"),
		},
		{
			name:  "max length",
			input: strPtr(strings.Repeat("d", 1000)),
			want:  strPtr(strings.Repeat("d", 1000)),
		},
		{
			name:    "too long",
			input:   strPtr(strings.Repeat("d", 1001)),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDescription(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeDescription() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDescription) {
					t.Errorf("error = %v, want ErrInvalidDescription", err)
				}
				return
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("NormalizeDescription() = %q, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("NormalizeDescription() = nil, want %q", *tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("NormalizeDescription() = %q, want %q", *got, *tt.want)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{
			name: "simple document",
			doc:  Document{"host": "localhost", "port": 5432},
		},
		{
			name: "nested document",
			doc:  Document{"database": map[string]any{"host": "localhost"}},
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: true,
		},
		{
			name:    "empty document",
			doc:     Document{},
			wantErr: true,
		},
		{
			name:    "oversized document",
			doc:     Document{"blob": strings.Repeat("x", maxConfigBytes)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocument() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 26 {
			t.Fatalf("NewID() length = %d, want 26", len(id))
		}
		if err := ValidateID(id); err != nil {
			t.Fatalf("NewID() produced invalid ID %q: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("NewID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{
			name: "well-formed ULID",
			id:   "01HZXW5N8GQ1M4T0V9C2R7K3JD",
		},
		{
			name:    "too short",
			id:      "01HZXW5N8GQ1M4T0V9C2R7K3J",
			wantErr: true,
		},
		{
			name:    "too long",
			id:      "01HZXW5N8GQ1M4T0V9C2R7K3JDX",
			wantErr: true,
		},
		{
			name:    "lowercase",
			id:      "01hzxw5n8gq1m4t0v9c2r7k3jd",
			wantErr: true,
		},
		{
			name:    "excluded letter I",
			id:      "01HZXW5N8GQIM4T0V9C2R7K3JD",
			wantErr: true,
		},
		{
			name:    "excluded letter O",
			id:      "01HZXW5N8GQOM4T0V9C2R7K3JD",
			wantErr: true,
		},
		{
			name:    "empty",
			id:      "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidID) {
				t.Errorf("error = %v, want ErrInvalidID", err)
			}
		})
	}
}
