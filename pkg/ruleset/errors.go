package ruleset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoRuleset is returned when evaluating before a ruleset was loaded.
var ErrNoRuleset = errors.New("no ruleset loaded")

// ErrRuleNotFound is returned when a named rule does not exist.
var ErrRuleNotFound = errors.New("rule not found")

// LoadError represents a file system error while loading rule files, such
// as a missing file or an oversized one.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load rule file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load rule file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError represents a malformed rule document.
type ParseError struct {
	// FilePath is the path of the document, empty for in-memory data
	FilePath string

	// Message describes the parsing error
	Message string

	// Cause is the underlying decoder error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	prefix := "parse error"
	if e.FilePath != "" {
		prefix = fmt.Sprintf("parse error in %q", e.FilePath)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// RuleError represents an invalid rule inside a document: a missing name,
// a missing expression or an expression that does not decode.
type RuleError struct {
	// FilePath is the path of the document, empty for in-memory data
	FilePath string

	// Index is the position of the rule in the document
	Index int

	// Rule is the rule name, if known
	Rule string

	// Message describes the problem
	Message string

	// Cause is the underlying decode error
	Cause error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	parts := []string{"invalid rule"}
	if e.Rule != "" {
		parts = append(parts, fmt.Sprintf("%q", e.Rule))
	} else {
		parts = append(parts, fmt.Sprintf("#%d", e.Index))
	}
	if e.FilePath != "" {
		parts = append(parts, fmt.Sprintf("in %q", e.FilePath))
	}
	msg := strings.Join(parts, " ") + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *RuleError) Unwrap() error {
	return e.Cause
}

// DuplicateRuleError is returned when two rules share a name.
type DuplicateRuleError struct {
	Rule string

	// Sources are the files defining the rule, when known
	Sources []string
}

// Error implements the error interface.
func (e *DuplicateRuleError) Error() string {
	var sources []string
	for _, s := range e.Sources {
		if s != "" {
			sources = append(sources, s)
		}
	}
	if len(sources) > 0 {
		return fmt.Sprintf("duplicate rule %q (defined in %s)", e.Rule, strings.Join(sources, ", "))
	}
	return fmt.Sprintf("duplicate rule %q", e.Rule)
}

// ErrorList contains multiple errors collected while loading a directory.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %v\n", i+1, err))
	}
	return sb.String()
}

// Unwrap returns the collected errors for errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the list.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if the list contains any errors.
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil if there are no errors, the single error if there is one,
// or the ErrorList itself if there are multiple errors.
func (e *ErrorList) ToError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return e
}
