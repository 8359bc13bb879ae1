package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	maxErrorTailBytes = 4 * 1024
	errorTailLines    = 20
	// waitDelay bounds how long Run waits for output pipes after the process
	// was killed.
	waitDelay = 2 * time.Second
)

// Command describes a process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env is appended to the current process environment.
	Env []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) error
}

// CommandError reports a failed invocation together with the tail of its
// stderr output.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed", e.Command)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s with exit code %d", msg, e.ExitCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg = fmt.Sprintf("%s\n%s", msg, tail)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	// Timeout bounds each command. Zero means no limit.
	Timeout time.Duration
}

// NewExecRunner builds the default runner. Nil writers discard output.
func NewExecRunner(stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{Stdout: stdout, Stderr: stderr}
}

// Run executes cmd and waits for it to finish.
func (e *ExecRunner) Run(ctx context.Context, cmd Command) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return errors.New("command: empty command name")
	}

	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.WaitDelay = waitDelay
	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Env...)
	}

	var stderrBuf bytes.Buffer
	execCmd.Stdout = writerOrDiscard(e.Stdout)
	execCmd.Stderr = io.MultiWriter(writerOrDiscard(e.Stderr), &stderrBuf)

	runErr := execCmd.Run()
	if runErr == nil {
		return nil
	}

	tail, _ := truncateOutput(stderrBuf.Bytes(), maxErrorTailBytes, errorTailLines)
	cmdErr := &CommandError{
		Command:  cmd.String(),
		ExitCode: -1,
		Stderr:   string(tail),
		Err:      runErr,
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	if runCtx.Err() != nil && ctx.Err() == nil {
		cmdErr.Err = fmt.Errorf("timeout after %s: %w", e.Timeout, runErr)
	}
	return cmdErr
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func truncateOutput(output []byte, maxBytes, tailLines int) ([]byte, bool) {
	if len(output) == 0 {
		return output, false
	}
	truncated := false
	if maxBytes > 0 && len(output) > maxBytes {
		output = output[len(output)-maxBytes:]
		truncated = true
	}

	if tailLines <= 0 {
		return output, truncated
	}

	lines := bytes.Split(bytes.TrimRight(output, "\n"), []byte("\n"))
	if len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
		truncated = true
	}

	return bytes.Join(lines, []byte("\n")), truncated
}
