package patch

import (
	"context"
	"errors"
	"testing"
)

func TestApplyToMemoryDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"dist/cli.js": "'--inject <url>'\n" + combineSource,
		"README.md":   "readme",
	}

	updated, results, err := ApplyToMemory(context.Background(), testRules(), files, Options{})
	if err != nil {
		t.Fatalf("ApplyToMemory returned error: %v", err)
	}
	if len(results) != 1 || results[0].Status != "M" {
		t.Fatalf("unexpected results: %#v", results)
	}
	if files["dist/cli.js"] == updated["dist/cli.js"] {
		t.Fatalf("input map should not be mutated")
	}
	if updated["README.md"] != "readme" {
		t.Fatalf("untargeted files should be carried over")
	}
}

func TestApplyToMemoryMissingTarget(t *testing.T) {
	t.Parallel()

	_, _, err := ApplyToMemory(context.Background(), testRules(), map[string]string{}, Options{})
	if !errors.Is(err, ErrTargetMissing) {
		t.Fatalf("expected target missing, got %v", err)
	}
}
