package cli

import (
	"errors"
	"fmt"
)

// ErrRulesFailed is returned by commands when at least one rule failed to
// evaluate and the caller asked for a strict exit status.
var ErrRulesFailed = errors.New("rules failed")

// Process exit statuses.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitRulesFailed = 2
	ExitConfig      = 3
)

// ConfigError reports an unusable configuration file or flag. Field is the
// dotted config key when one is known.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError returns a ConfigError for field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return "config error in " + e.Field + ": " + e.Message
	}
	return "config error: " + e.Message
}

// CommandError ties a failure to the subcommand that produced it.
type CommandError struct {
	Command string
	Err     error
}

// NewCommandError wraps err as a failure of command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	var cfgErr *ConfigError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrRulesFailed):
		return ExitRulesFailed
	case errors.As(err, &cfgErr):
		return ExitConfig
	}
	return ExitError
}
