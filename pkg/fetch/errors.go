package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrDownloadFailed matches every *DownloadError.
	ErrDownloadFailed = errors.New("download failed")
	// ErrEmptyBody is returned for a response without payload.
	ErrEmptyBody = errors.New("empty response body")
	// ErrUnknownFileType is returned when no signature matches.
	ErrUnknownFileType = errors.New("unknown file type")
)

// DownloadError is returned once the retry budget is exhausted. Err holds the
// error of the last attempt.
type DownloadError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDownloadFailed.
func (e *DownloadError) Is(target error) bool {
	return target == ErrDownloadFailed
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %d", e.Code)
}
