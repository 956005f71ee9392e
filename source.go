package extract

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SourceText is the full unstructured input produced by the text-extraction
// collaborator. Immutable; consumed only by the chunker. Len counts runes, as
// do all chunk spans.
type SourceText struct {
	Text string
	Len  int
}

// NewSource wraps already-extracted document text.
func NewSource(text string) *SourceText {
	return &SourceText{Text: text, Len: len([]rune(text))}
}

// NewSourceFromBytes sniffs the input and rejects anything that is not
// textual. The pipeline expects the output of a text-extraction service, not
// a raw document; feeding it PDF bytes is a caller bug worth catching early.
func NewSourceFromBytes(b []byte) (*SourceText, error) {
	mt := mimetype.Detect(b)
	if !isTextual(mt) {
		return nil, fmt.Errorf("%w: detected %s", ErrBinarySource, mt.String())
	}
	return NewSource(string(b)), nil
}

func isTextual(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
		if m.Is("application/json") || m.Is("application/xml") {
			return true
		}
	}
	return false
}
