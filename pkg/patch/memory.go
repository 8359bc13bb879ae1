package patch

import (
	"context"
	"path/filepath"
	"strings"
)

// ApplyToMemory applies rules to an in-memory document store represented by a
// map keyed by relative path. The provided map is copied before mutation and
// the updated snapshot is returned.
func ApplyToMemory(ctx context.Context, rules []Rule, files map[string]string, opts Options) (map[string]string, []Result, error) {
	snapshot := make(map[string]string, len(files))
	for k, v := range files {
		snapshot[filepath.Clean(k)] = v
	}
	ws := newMemoryWorkspace(snapshot)
	results, err := apply(ctx, rules, ws, opts)
	if err != nil {
		return nil, nil, err
	}
	return ws.files, results, nil
}

type memoryWorkspace struct {
	files  map[string]string
	states map[string]*state
	order  []string
}

func newMemoryWorkspace(files map[string]string) *memoryWorkspace {
	return &memoryWorkspace{
		files:  files,
		states: make(map[string]*state),
	}
}

func (ws *memoryWorkspace) Ensure(path string) (*state, error) {
	rel := filepath.Clean(strings.TrimSpace(path))
	if rel == "" || rel == "." {
		return nil, &Error{Kind: KindTargetMissing, Message: "invalid patch path"}
	}
	if st, ok := ws.states[rel]; ok {
		return st, nil
	}

	content, ok := ws.files[rel]
	if !ok || content == "" {
		return nil, missingTarget(rel, "")
	}
	st := &state{
		path:            rel,
		relativePath:    rel,
		content:         content,
		originalContent: content,
	}
	ws.states[rel] = st
	ws.order = append(ws.order, rel)
	return st, nil
}

func (ws *memoryWorkspace) Commit() ([]Result, error) {
	results := make([]Result, 0, len(ws.order))
	for _, key := range ws.order {
		st := ws.states[key]
		ws.files[key] = st.content
		results = append(results, resultFor(st))
	}
	return results, nil
}
