package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigError
		expected string
	}{
		{
			name:     "with field",
			err:      NewConfigError("rules.path", "missing required field"),
			expected: "config error in rules.path: missing required field",
		},
		{
			name:     "without field",
			err:      NewConfigError("", "failed to load config"),
			expected: "config error: failed to load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.expected)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("eval", underlyingErr)

	expected := "eval: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "generic", err: errors.New("boom"), want: ExitError},
		{name: "config", err: NewConfigError("", "bad"), want: ExitConfig},
		{name: "wrapped config", err: fmt.Errorf("setup: %w", NewConfigError("rules.path", "bad")), want: ExitConfig},
		{name: "rules failed", err: ErrRulesFailed, want: ExitRulesFailed},
		{
			name: "wrapped rules failed",
			err:  NewCommandError("eval", fmt.Errorf("2 rule(s): %w", ErrRulesFailed)),
			want: ExitRulesFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
