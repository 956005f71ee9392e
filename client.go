package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// Invoker is the narrow seam to the completion service. Implementations own
// one network round-trip; retrying lives in the completion client, not here.
type Invoker interface {
	Generate(ctx context.Context, model string, prompt string, temperature float32) ([]byte, error)
}

// GenaiInvoker drives the Gemini API via Google GenAI.
type GenaiInvoker struct {
	Client *genai.Client
	Log    *slog.Logger
}

func (gv *GenaiInvoker) Generate(ctx context.Context, model string, prompt string, temperature float32) ([]byte, error) {
	if gv.Client == nil {
		return nil, errors.New("genai client not initialized")
	}
	log := gv.Log
	if log == nil {
		log = slog.Default()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	}

	log.Debug("Generating content", "model", model, "prompt_length", len(prompt), "temperature", temperature)
	resp, err := gv.Client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, errors.New("no parts in candidate content")
	}
	text := candidate.Content.Parts[0].Text
	if text == "" {
		return nil, errors.New("no text in first part of response")
	}
	log.Debug("Received completion", "model", model, "response_length", len(text))
	return []byte(text), nil
}

// isRetryable classifies provider failures. Timeouts, rate limits, and server
// errors are worth another attempt; authentication and request-shape failures
// are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if code, ok := apiErrorCode(err); ok {
		switch {
		case code == 408, code == 429:
			return true
		case code >= 500:
			return true
		case code == 400, code == 401, code == 403, code == 404:
			return false
		}
	}
	// Unknown transport failures get the benefit of the doubt.
	return true
}

// apiErrorCode digs the HTTP status out of a genai API error, whichever form
// it was wrapped in.
func apiErrorCode(err error) (int, bool) {
	var ptr *genai.APIError
	if errors.As(err, &ptr) {
		return ptr.Code, true
	}
	var val genai.APIError
	if errors.As(err, &val) {
		return val.Code, true
	}
	return 0, false
}

// completionClient issues one completion call per (chunk, kind) pair and owns
// the retry loop. No state is mutated besides attempt counters local to the
// call.
type completionClient struct {
	invoker     Invoker
	policy      RetryPolicy
	model       string
	temperature float32
	callTimeout time.Duration
	log         *slog.Logger
}

// complete returns the raw completion text for one (chunk, kind) pair, or a
// typed provider error carrying the chunk index, kind, and attempt count.
func (c *completionClient) complete(ctx context.Context, chunk int, kind ExtractionKind, prompt string) ([]byte, error) {
	if c.model == "" {
		return nil, &FatalProviderError{Chunk: chunk, Kind: kind, Err: ErrModelMissing}
	}

	var raw []byte
	attempts, err := c.policy.run(ctx, func() error {
		callCtx := ctx
		if c.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
			defer cancel()
		}
		var genErr error
		raw, genErr = c.invoker.Generate(callCtx, c.model, prompt, c.temperature)
		if genErr != nil {
			c.log.Debug("Completion attempt failed", "chunk", chunk, "kind", kind, "error", genErr)
		}
		return genErr
	})
	if err != nil {
		if classify := c.policy.Classify; classify != nil && !classify(err) {
			return nil, &FatalProviderError{Chunk: chunk, Kind: kind, Err: err}
		}
		return nil, &TransientProviderError{Chunk: chunk, Kind: kind, Attempts: attempts, Err: err}
	}
	c.log.Debug("Completion succeeded", "chunk", chunk, "kind", kind, "attempts", attempts, "response_length", len(raw))
	return raw, nil
}
