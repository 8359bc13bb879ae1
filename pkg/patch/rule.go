package patch

import (
	"fmt"
	"strings"
)

// ReplaceLiteral replaces the first exact occurrence of old with replacement.
// Content that already carries replacement instead of old is returned as is.
// Content with neither yields ErrSubstringMissing; Apply turns that into a
// no-op only when Options.AllowNoop is set.
func ReplaceLiteral(old, replacement string) TransformFunc {
	return func(content string) (string, error) {
		if old == "" {
			return "", &Error{Kind: KindSubstringMissing, Message: "empty literal"}
		}
		idx := strings.Index(content, old)
		if idx < 0 {
			if replacement != "" && strings.Contains(content, replacement) {
				return content, nil
			}
			return content, &Error{
				Kind:    KindSubstringMissing,
				Message: fmt.Sprintf("literal %q not found", old),
			}
		}
		return content[:idx] + replacement + content[idx+len(old):], nil
	}
}

// ReplaceFunctionBody swaps the body of the function located by anchor for
// body, keeping every other byte of the content intact.
func ReplaceFunctionBody(anchor FunctionAnchor, body string) TransformFunc {
	return func(content string) (string, error) {
		segments, err := SplitFunction(content, anchor)
		if err != nil {
			return "", err
		}
		segments.Body = body
		return segments.Join(), nil
	}
}
