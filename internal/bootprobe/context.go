package bootprobe

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
)

// Context inspects the build directory and the tools available on PATH.
// Tests supply fixture directories and a custom command lookup.
type Context struct {
	root     string
	lookPath func(string) (string, error)
	output   OutputFunc
}

// OutputFunc runs a resolved command and returns its combined output.
type OutputFunc func(ctx context.Context, path string, args ...string) (string, error)

// NewContext constructs a Context rooted at the provided path. Commands are
// resolved using exec.LookPath by default.
func NewContext(root string) *Context {
	return &Context{
		root:     root,
		lookPath: exec.LookPath,
	}
}

// NewContextWithLookPath overrides the command lookup.
func NewContextWithLookPath(root string, lookPath func(string) (string, error)) *Context {
	ctx := NewContext(root)
	if lookPath != nil {
		ctx.lookPath = lookPath
	}
	return ctx
}

// WithOutput replaces the command execution used by RunCommandOutput.
func (c *Context) WithOutput(fn OutputFunc) *Context {
	c.output = fn
	return c
}

// Root returns the directory probes inspect.
func (c *Context) Root() string {
	return c.root
}

// HasFile reports whether a regular file exists relative to the root.
func (c *Context) HasFile(relPath string) bool {
	if relPath == "" {
		return false
	}
	path := filepath.Join(c.root, relPath)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadFile loads a file relative to the root.
func (c *Context) ReadFile(relPath string) ([]byte, error) {
	if relPath == "" {
		return nil, errors.New("path must be provided")
	}
	return os.ReadFile(filepath.Join(c.root, relPath))
}

// CommandExists reports whether a command is available on PATH.
func (c *Context) CommandExists(name string) bool {
	if name == "" {
		return false
	}
	_, err := c.lookPath(name)
	return err == nil
}

// RunCommandOutput resolves and executes a command, returning its combined
// stdout/stderr output. Used for read-only probes such as `node --version`.
func (c *Context) RunCommandOutput(ctx context.Context, name string, args ...string) (string, error) {
	if name == "" {
		return "", errors.New("command name must be provided")
	}
	path, err := c.lookPath(name)
	if err != nil {
		return "", err
	}
	if c.output != nil {
		return c.output(ctx, path, args...)
	}
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	return string(out), err
}
