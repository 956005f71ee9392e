package extract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySource is returned when the source text is empty.
var ErrEmptySource = errors.New("source text is empty")

// ErrModelMissing is returned when no model is configured for the run.
var ErrModelMissing = errors.New("model not specified")

// ErrBinarySource is returned when byte input does not look like text.
var ErrBinarySource = errors.New("source bytes are not textual")

// ErrConfigDrift is returned when the run configuration changed between the
// start-of-run snapshot and the assembly-time snapshot.
var ErrConfigDrift = errors.New("run configuration changed mid-run")

// ChunkError reports a degenerate chunking configuration. It is fatal and
// never retried.
type ChunkError struct {
	MaxChars     int
	OverlapChars int
	Reason       string
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunking: %s (max_chunk_chars=%d chunk_overlap_chars=%d)",
		e.Reason, e.MaxChars, e.OverlapChars)
}

// TransientProviderError wraps a retryable provider failure (timeout, rate
// limit, 5xx) that persisted through every allowed attempt.
type TransientProviderError struct {
	Chunk    int
	Kind     ExtractionKind
	Attempts int
	Err      error
}

func (e *TransientProviderError) Error() string {
	return fmt.Sprintf("provider: transient failure for chunk %d kind %s after %d attempts: %v",
		e.Chunk, e.Kind, e.Attempts, e.Err)
}

func (e *TransientProviderError) Unwrap() error { return e.Err }

// FatalProviderError wraps a provider failure that retrying cannot fix
// (authentication, malformed request, unsupported model).
type FatalProviderError struct {
	Chunk int
	Kind  ExtractionKind
	Err   error
}

func (e *FatalProviderError) Error() string {
	return fmt.Sprintf("provider: fatal failure for chunk %d kind %s: %v", e.Chunk, e.Kind, e.Err)
}

func (e *FatalProviderError) Unwrap() error { return e.Err }

// MalformedResponseError reports a completion answer with no parseable JSON
// payload. It is a data-quality failure, never retried.
type MalformedResponseError struct {
	Chunk int
	Kind  ExtractionKind
	Err   error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("parse: malformed response for chunk %d kind %s: %v", e.Chunk, e.Kind, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Violation is a single contract defect found by the validator.
type Violation struct {
	Path    string // e.g. "endpoints[2].responses[0].status_code"
	Message string
}

func (v Violation) String() string { return v.Path + ": " + v.Message }

// ValidationError carries the complete list of contract violations; the
// validator does not stop at the first defect.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation: %d violation(s)", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		b.WriteString(v.String())
	}
	return b.String()
}
