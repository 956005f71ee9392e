package extract

import (
	"context"
	"log/slog"
	"strings"
)

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, model, prompt string, temperature float32) ([]byte, error)

func (f InvokerFunc) Generate(ctx context.Context, model, prompt string, temperature float32) ([]byte, error) {
	return f(ctx, model, prompt, temperature)
}

// scriptedInvoker answers each kind's prompt with a canned payload, keyed off
// the marker phrases in the default templates. Stateless, so the pipeline may
// call it from many goroutines.
type scriptedInvoker struct {
	responses map[ExtractionKind]string
}

func (s *scriptedInvoker) Generate(ctx context.Context, model, prompt string, temperature float32) ([]byte, error) {
	kind := kindOfPrompt(prompt)
	if resp, ok := s.responses[kind]; ok {
		return []byte(resp), nil
	}
	return []byte("[]"), nil
}

func kindOfPrompt(prompt string) ExtractionKind {
	switch {
	case strings.Contains(prompt, "field name mappings"):
		return KindFieldMapping
	case strings.Contains(prompt, "business rules and constraints"):
		return KindConstraint
	case strings.Contains(prompt, "edge cases"):
		return KindEdgeCase
	}
	return KindSchema
}

// NewForTesting returns an Extractor whose invoker replays the given
// responses without a real client. Kinds absent from the map answer with an
// empty JSON array.
func NewForTesting(prompts PromptProvider, responses map[ExtractionKind]string) *Extractor {
	return &Extractor{
		invoker: &scriptedInvoker{responses: responses},
		prompts: prompts,
		log:     slog.Default(),
	}
}
