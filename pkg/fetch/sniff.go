package fetch

import (
	"bytes"
	"fmt"
	"os"

	"github.com/h2non/filetype"
)

// signature is a magic-number matcher for types filetype does not know.
type signature struct {
	ext   string
	match func(buf []byte) bool
}

var extraSignatures = []signature{
	{ext: "icns", match: func(buf []byte) bool {
		return len(buf) >= 8 && bytes.Equal(buf[:4], []byte("icns"))
	}},
}

// DetectExtension returns the extension (without dot) implied by the leading
// bytes of buf.
func DetectExtension(buf []byte) (string, error) {
	for _, sig := range extraSignatures {
		if sig.match(buf) {
			return sig.ext, nil
		}
	}

	kind, err := filetype.Match(buf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownFileType, err)
	}
	if kind == filetype.Unknown || kind.Extension == "" {
		return "", ErrUnknownFileType
	}
	return kind.Extension, nil
}

// InferExtname reads the file at path and detects its extension.
func InferExtname(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fetch: read %s: %w", path, err)
	}
	ext, err := DetectExtension(data)
	if err != nil {
		return "", fmt.Errorf("fetch: %s: %w", path, err)
	}
	return ext, nil
}
