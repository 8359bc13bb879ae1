package patch

import (
	"fmt"
	"strings"
)

// segmentCount is the number of pieces a structural match must produce:
// prefix, signature, body, return statement and suffix.
const segmentCount = 5

// FunctionAnchor locates a function by its literal signature line and the
// literal statement that closes it.
type FunctionAnchor struct {
	// Signature is matched verbatim, including its trailing newline.
	Signature string
	// Terminator is the closing statement, e.g. "return files;\n}". It must
	// start on its own indented line.
	Terminator string
}

// Segments is the five-way split of a file around an anchored function.
type Segments struct {
	Prefix    string
	Signature string
	Body      string
	Return    string
	Suffix    string
}

// Join reassembles the segments in order.
func (s Segments) Join() string {
	var b strings.Builder
	b.Grow(len(s.Prefix) + len(s.Signature) + len(s.Body) + len(s.Return) + len(s.Suffix))
	b.WriteString(s.Prefix)
	b.WriteString(s.Signature)
	b.WriteString(s.Body)
	b.WriteString(s.Return)
	b.WriteString(s.Suffix)
	return b.String()
}

// SplitFunction splits content into the five segments around the function
// described by anchor. The signature is the last occurrence that is followed
// by a terminator; the return segment is the last terminator after it,
// including the newline and indentation that precede it.
func SplitFunction(content string, anchor FunctionAnchor) (Segments, error) {
	parts := splitFunction(content, anchor)
	if len(parts) != segmentCount {
		return Segments{}, &Error{
			Kind:    KindPatternMismatch,
			Message: fmt.Sprintf("failed to match function %q: expected %d segments, got %d", strings.TrimSpace(anchor.Signature), segmentCount, len(parts)),
		}
	}
	return Segments{
		Prefix:    parts[0],
		Signature: parts[1],
		Body:      parts[2],
		Return:    parts[3],
		Suffix:    parts[4],
	}, nil
}

func splitFunction(content string, anchor FunctionAnchor) []string {
	if anchor.Signature == "" || anchor.Terminator == "" {
		return nil
	}

	end := len(content)
	for {
		sigStart := strings.LastIndex(content[:end], anchor.Signature)
		if sigStart < 0 {
			return nil
		}
		bodyStart := sigStart + len(anchor.Signature)
		if retStart, retEnd, ok := lastIndentedTerminator(content[bodyStart:], anchor.Terminator); ok {
			retStart += bodyStart
			retEnd += bodyStart
			return []string{
				content[:sigStart],
				content[sigStart:bodyStart],
				content[bodyStart:retStart],
				content[retStart:retEnd],
				content[retEnd:],
			}
		}
		end = sigStart + len(anchor.Signature) - 1
	}
}

// lastIndentedTerminator finds the last "\n<whitespace>+terminator" in s and
// returns the byte range starting at that newline.
func lastIndentedTerminator(s, terminator string) (int, int, bool) {
	end := len(s)
	for end > 0 {
		idx := strings.LastIndex(s[:end], terminator)
		if idx < 0 {
			return 0, 0, false
		}
		for j := idx - 1; j >= 0 && isSpace(s[j]); j-- {
			if s[j] == '\n' && j < idx-1 {
				return j, idx + len(terminator), true
			}
		}
		end = idx + len(terminator) - 1
	}
	return 0, 0, false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
