package logging

import (
	"log/slog"
	"strings"
	"testing"
)

func TestRedactString(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "api key",
			input: "using key sk-abc123def456 for detector",
			want:  "using key sk-*** for detector",
		},
		{
			name:  "bearer token",
			input: "header Bearer eyJhbGciOiJIUzI1NiJ9.payload",
			want:  "header Bearer ***",
		},
		{
			name:  "email address",
			input: "user jane.doe@company.com reported",
			want:  "user ***@*** reported",
		},
		{
			name:  "ssn",
			input: "found 123-45-6789 in text",
			want:  "found ***-**-**** in text",
		},
		{
			name:  "password assignment",
			input: "password: hunter2",
			want:  "password: ***",
		},
		{
			name:  "clean text untouched",
			input: "processed 3 findings in 12ms",
			want:  "processed 3 findings in 12ms",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactAttr_SensitiveKeys(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"api_key", "sk-verysecretkey", "sk-v***"},
		{"password", "hunter2", "hunt***"},
		{"authorization", "Bearer abc", "Bear***"},
		{"token", "abc", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := r.RedactAttr(slog.String(tt.key, tt.value))
			if got.Value.String() != tt.want {
				t.Errorf("RedactAttr(%s=%q) = %q, want %q", tt.key, tt.value, got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactAttr_NonStringPassthrough(t *testing.T) {
	r := NewRedactor()

	attr := slog.Int("findings", 42)
	got := r.RedactAttr(attr)
	if got.Value.Kind() != slog.KindInt64 || got.Value.Int64() != 42 {
		t.Errorf("Non-string attribute was altered: %v", got)
	}
}

func TestLogger_RedactsOutput(t *testing.T) {
	var buf strings.Builder
	logger, err := New(Options{
		Enabled: true,
		Level:   "info",
		Format:  "json",
		Writer:  &buf,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("detector call", "endpoint", "https://d.internal", "api_key", "sk-abc123secret")

	out := buf.String()
	if strings.Contains(out, "sk-abc123secret") {
		t.Errorf("Secret leaked into log output: %s", out)
	}
	if !strings.Contains(out, "detector call") {
		t.Errorf("Expected the message in output: %s", out)
	}
}

func TestLogger_DisabledDiscards(t *testing.T) {
	var buf strings.Builder
	logger, err := New(Options{Enabled: false, Writer: &buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Error("should not appear")
	if buf.Len() != 0 {
		t.Errorf("Disabled logger wrote output: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf strings.Builder
	logger, err := New(Options{
		Enabled: true,
		Level:   "warn",
		Format:  "text",
		Writer:  &buf,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("below threshold")
	logger.Warn("at threshold")

	out := buf.String()
	if strings.Contains(out, "below threshold") {
		t.Error("Info record emitted at warn level")
	}
	if !strings.Contains(out, "at threshold") {
		t.Error("Warn record missing")
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	if _, err := New(Options{Enabled: true, Level: "loud"}); err == nil {
		t.Error("Expected invalid level to be rejected")
	}
	if _, err := New(Options{Enabled: true, Format: "xml"}); err == nil {
		t.Error("Expected invalid format to be rejected")
	}
}
