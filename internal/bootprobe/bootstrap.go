package bootprobe

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCommands is returned by Check when a required command is not on
// PATH.
var ErrMissingCommands = errors.New("required commands missing")

// Check runs the probes and fails when a required command is missing. The
// result is returned in both cases so callers can report it.
func Check(goctx context.Context, ctx *Context, packages ...string) (Result, error) {
	result := Run(goctx, ctx, packages...)
	if missing := result.Missing(); len(missing) > 0 {
		return result, fmt.Errorf("preflight: %w: %s", ErrMissingCommands, strings.Join(missing, ", "))
	}
	return result, nil
}
