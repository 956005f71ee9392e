package extract

import (
	"maps"

	"github.com/google/uuid"
)

// LLMConfig is the sampling configuration snapshot recorded with each run.
type LLMConfig struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxRetries  int     `json:"max_retries"`
}

// RunMetadata captures everything needed to reproduce a run: the completion
// configuration and the prompt template version per extraction kind. Captured
// once at the start of a run and once more at assembly; the two snapshots
// must be identical. RunID identifies the run and sits outside the equality
// check.
type RunMetadata struct {
	RunID          string                    `json:"run_id"`
	LLMConfig      LLMConfig                 `json:"llm_config"`
	PromptVersions map[ExtractionKind]string `json:"prompt_versions"`
}

// CaptureMetadata snapshots the active configuration and prompt version
// table. Pure data capture; nothing is recomputed afterward.
func CaptureMetadata(opts Options, prompts PromptProvider) RunMetadata {
	return RunMetadata{
		LLMConfig: LLMConfig{
			Model:       opts.Model,
			Temperature: opts.Temperature,
			MaxRetries:  opts.Retry.MaxAttempts,
		},
		PromptVersions: prompts.Versions(),
	}
}

// sameConfig reports whether two snapshots describe the same run
// configuration, ignoring RunID.
func (m RunMetadata) sameConfig(other RunMetadata) bool {
	return m.LLMConfig == other.LLMConfig &&
		maps.Equal(m.PromptVersions, other.PromptVersions)
}

func newRunID() string { return uuid.NewString() }
