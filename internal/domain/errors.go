package domain

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by all adapters. Sentinels are wrapped with
// context at the call site and matched with errors.Is by the retry policy
// and the orchestrator.
var (
	// ErrAuth marks rejected credentials. Fatal, never retried.
	ErrAuth = errors.New("authentication rejected")

	// ErrNetwork marks transient connectivity failures. Retried with
	// bounded backoff inside the owning stage, then fatal.
	ErrNetwork = errors.New("transient network failure")

	// ErrGeneration marks an unusable response from the text service:
	// unreachable, quota, or fewer valid posts than requested. Fatal;
	// partial output is never accepted.
	ErrGeneration = errors.New("content generation failed")
)

// UploadError reports a single failed database insert. Sibling records are
// unaffected; the orchestrator aggregates these into the run report.
type UploadError struct {
	Index int
	Title string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload post %d (%q): %v", e.Index+1, e.Title, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
