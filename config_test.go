package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	assert.Equal(t, 24000, o.MaxChunkChars)
	assert.Equal(t, 200, o.ChunkOverlapChars)
	assert.Equal(t, 300*time.Second, o.Deadline)
	assert.Equal(t, 4, o.MaxConcurrent)
	assert.Equal(t, 3, o.Retry.MaxAttempts)
	assert.Zero(t, o.CallTimeout)
	assert.Empty(t, o.Model)
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("EXTRACT_MODEL", "gemini-2.5-pro")
	t.Setenv("EXTRACT_TEMPERATURE", "0.25")
	t.Setenv("EXTRACT_MAX_CHUNK_CHARS", "8000")
	t.Setenv("EXTRACT_CHUNK_OVERLAP_CHARS", "50")
	t.Setenv("EXTRACT_MAX_RETRIES", "5")
	t.Setenv("EXTRACT_RETRY_BASE_DELAY", "250ms")
	t.Setenv("EXTRACT_CALL_TIMEOUT", "45s")
	t.Setenv("EXTRACT_DEADLINE", "2m")
	t.Setenv("EXTRACT_MAX_CONCURRENT", "8")

	o := defaultOptions()
	OptionsFromEnv()(&o)

	assert.Equal(t, "gemini-2.5-pro", o.Model)
	assert.InDelta(t, 0.25, float64(o.Temperature), 1e-6)
	assert.Equal(t, 8000, o.MaxChunkChars)
	assert.Equal(t, 50, o.ChunkOverlapChars)
	assert.Equal(t, 5, o.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, o.Retry.BaseDelay)
	assert.Equal(t, 45*time.Second, o.CallTimeout)
	assert.Equal(t, 2*time.Minute, o.Deadline)
	assert.Equal(t, 8, o.MaxConcurrent)
}

func TestOptionsFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("EXTRACT_TEMPERATURE", "hot")
	t.Setenv("EXTRACT_MAX_CHUNK_CHARS", "lots")
	t.Setenv("EXTRACT_DEADLINE", "soon")

	o := defaultOptions()
	OptionsFromEnv()(&o)

	assert.Zero(t, o.Temperature)
	assert.Equal(t, 24000, o.MaxChunkChars)
	assert.Equal(t, 300*time.Second, o.Deadline)
}

func TestExplicitOptionsOverrideEnv(t *testing.T) {
	t.Setenv("EXTRACT_MODEL", "env-model")

	o := defaultOptions()
	for _, fn := range []func(*Options){OptionsFromEnv(), WithModel("explicit-model")} {
		fn(&o)
	}
	assert.Equal(t, "explicit-model", o.Model)
}
