package patch

import (
	"errors"
	"fmt"
)

// TransformFunc rewrites the full content of a file. It must not have side
// effects so that a failing rule can be discarded without cleanup.
type TransformFunc func(content string) (string, error)

// Rule describes a transform applied to every path in Paths.
type Rule struct {
	Name      string
	Paths     []string
	Transform TransformFunc
}

// ErrorKind classifies patch failures.
type ErrorKind string

const (
	KindTargetMissing    ErrorKind = "target_missing"
	KindPatternMismatch  ErrorKind = "pattern_mismatch"
	KindSubstringMissing ErrorKind = "substring_missing"
)

// Sentinel errors usable with errors.Is against any *Error of the same kind.
var (
	ErrTargetMissing    = &Error{Kind: KindTargetMissing, Message: "patch target missing or empty"}
	ErrPatternMismatch  = &Error{Kind: KindPatternMismatch, Message: "patch pattern mismatch"}
	ErrSubstringMissing = &Error{Kind: KindSubstringMissing, Message: "patch substring not found"}
)

// Error represents a structured failure while applying a rule.
type Error struct {
	Kind    ErrorKind
	Rule    string
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = "patch error"
	}
	if e.Rule != "" {
		msg = fmt.Sprintf("%s: %s", e.Rule, msg)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors of the same kind so callers can compare against the
// package sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return other.Kind != "" && other.Kind == e.Kind
}

// Options configure how rules are applied for both filesystem and in-memory
// operations.
type Options struct {
	// AllowNoop lets literal rules accept content that no longer contains
	// their substring. The file is then written back unchanged.
	AllowNoop bool
	// OnNoop is called for every literal rule that matched nothing while
	// AllowNoop is set.
	OnNoop func(rule, path string)
}

// FilesystemOptions augments Options with the workspace root used to resolve
// rule paths.
type FilesystemOptions struct {
	Options
	WorkingDir string
}

// Result describes the outcome for a single file.
type Result struct {
	// Status is "M" when the content changed and "=" when it was rewritten
	// unchanged.
	Status string
	Path   string
	Rules  []string
}
