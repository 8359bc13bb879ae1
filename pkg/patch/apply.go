package patch

import (
	"context"
	"errors"
	"io/fs"
	"strings"
)

type workspace interface {
	Ensure(path string) (*state, error)
	Commit() ([]Result, error)
}

type state struct {
	path            string
	relativePath    string
	content         string
	originalContent string
	originalMode    fs.FileMode
	rules           []string
}

func apply(ctx context.Context, rules []Rule, ws workspace, opts Options) ([]Result, error) {
	if ws == nil {
		return nil, errors.New("nil workspace")
	}
	for _, rule := range rules {
		if rule.Transform == nil {
			return nil, &Error{Rule: rule.Name, Message: "rule has no transform"}
		}
		for _, path := range rule.Paths {
			if ctx.Err() != nil {
				return nil, &Error{Rule: rule.Name, Path: path, Message: "patch cancelled", Err: ctx.Err()}
			}
			st, err := ws.Ensure(path)
			if err != nil {
				return nil, withRule(err, rule.Name)
			}
			patched, err := rule.Transform(st.content)
			if err != nil {
				if opts.AllowNoop && errors.Is(err, ErrSubstringMissing) {
					if opts.OnNoop != nil {
						opts.OnNoop(rule.Name, st.relativePath)
					}
					st.rules = append(st.rules, rule.Name)
					continue
				}
				return nil, withLocation(err, rule.Name, st.relativePath)
			}
			st.content = patched
			st.rules = append(st.rules, rule.Name)
		}
	}
	return ws.Commit()
}

func withRule(err error, rule string) error {
	var pe *Error
	if errors.As(err, &pe) {
		copied := *pe
		if copied.Rule == "" {
			copied.Rule = rule
		}
		return &copied
	}
	return &Error{Rule: rule, Message: "patch failed", Err: err}
}

func withLocation(err error, rule, path string) error {
	var pe *Error
	if errors.As(err, &pe) {
		copied := *pe
		if copied.Rule == "" {
			copied.Rule = rule
		}
		if copied.Path == "" {
			copied.Path = path
		}
		return &copied
	}
	return &Error{Rule: rule, Path: path, Message: "transform failed", Err: err}
}

func (st *state) perm() fs.FileMode {
	if perm := st.originalMode & fs.ModePerm; perm != 0 {
		return perm
	}
	return 0o644
}

func resultFor(st *state) Result {
	status := "M"
	if st.content == st.originalContent {
		status = "="
	}
	return Result{Status: status, Path: st.relativePath, Rules: append([]string(nil), st.rules...)}
}

func missingTarget(rel, reason string) *Error {
	return &Error{
		Kind:    KindTargetMissing,
		Path:    rel,
		Message: strings.TrimSpace("file does not exist or is empty " + reason),
	}
}
