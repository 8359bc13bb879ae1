package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Apply applies rules to files below workspaceDir. Nothing is written unless
// every rule succeeds.
func Apply(ctx context.Context, workspaceDir string, rules []Rule, opts Options) ([]Result, error) {
	return ApplyFilesystem(ctx, rules, FilesystemOptions{Options: opts, WorkingDir: workspaceDir})
}

// ApplyFilesystem applies rules to the OS filesystem.
func ApplyFilesystem(ctx context.Context, rules []Rule, opts FilesystemOptions) ([]Result, error) {
	ws, err := newFilesystemWorkspace(opts)
	if err != nil {
		return nil, err
	}
	return apply(ctx, rules, ws, opts.Options)
}

type filesystemWorkspace struct {
	workingDir string
	states     map[string]*state
	order      []string
}

func newFilesystemWorkspace(opts FilesystemOptions) (*filesystemWorkspace, error) {
	workingDir := strings.TrimSpace(opts.WorkingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		workingDir = wd
	}
	if abs, err := filepath.Abs(workingDir); err == nil {
		workingDir = abs
	}
	return &filesystemWorkspace{
		workingDir: workingDir,
		states:     make(map[string]*state),
	}, nil
}

func (ws *filesystemWorkspace) Ensure(path string) (*state, error) {
	abs, rel, err := ws.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if st, ok := ws.states[abs]; ok {
		return st, nil
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, missingTarget(rel, "")
	case err != nil:
		return nil, &Error{Kind: KindTargetMissing, Path: rel, Message: "failed to stat target", Err: err}
	case info.IsDir():
		return nil, missingTarget(rel, "(is a directory)")
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, &Error{Kind: KindTargetMissing, Path: rel, Message: "failed to read target", Err: err}
	}
	if len(content) == 0 {
		return nil, missingTarget(rel, "")
	}

	st := &state{
		path:            abs,
		relativePath:    rel,
		content:         string(content),
		originalContent: string(content),
		originalMode:    info.Mode(),
	}
	ws.states[abs] = st
	ws.order = append(ws.order, abs)
	return st, nil
}

// Commit writes every patched file. When a write fails, files written before
// it are restored to their original content.
func (ws *filesystemWorkspace) Commit() ([]Result, error) {
	results := make([]Result, 0, len(ws.order))
	written := make([]*state, 0, len(ws.order))
	for _, key := range ws.order {
		st := ws.states[key]
		if err := os.WriteFile(st.path, []byte(st.content), st.perm()); err != nil {
			var result error = &Error{Path: st.relativePath, Message: "failed to write patched file", Err: err}
			if rerr := restore(written); rerr != nil {
				result = multierror.Append(result, rerr)
			}
			return nil, result
		}
		written = append(written, st)
		results = append(results, resultFor(st))
	}
	return results, nil
}

func restore(states []*state) error {
	var result *multierror.Error
	for _, st := range states {
		if err := os.WriteFile(st.path, []byte(st.originalContent), st.perm()); err != nil {
			result = multierror.Append(result, fmt.Errorf("restore %s: %w", st.relativePath, err))
		}
	}
	return result.ErrorOrNil()
}

func (ws *filesystemWorkspace) resolvePath(relative string) (string, string, error) {
	rel := strings.TrimSpace(relative)
	if rel == "" {
		return "", "", &Error{Kind: KindTargetMissing, Message: "invalid patch path"}
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if !filepath.IsLocal(cleaned) {
		return "", "", &Error{Kind: KindTargetMissing, Path: rel, Message: "patch path escapes the workspace"}
	}
	return filepath.Join(ws.workingDir, cleaned), filepath.ToSlash(cleaned), nil
}
