package extract

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options configures one pipeline run. Zero values fall back to defaults; use
// the With... constructors rather than building the struct by hand.
type Options struct {
	Model             string
	Temperature       float32
	MaxChunkChars     int
	ChunkOverlapChars int
	Retry             RetryPolicy
	CallTimeout       time.Duration // budget for one completion call; expiry is retried
	Deadline          time.Duration // end-to-end budget for the whole run
	MaxConcurrent     int           // in-flight completion call ceiling
	Runner            Runner        // nil → NewLimitedRunner(ctx, MaxConcurrent)
	PreferLater       bool          // flip list-kind dedup policy to later-chunk-wins
}

const (
	defaultMaxChunkChars     = 24000
	defaultChunkOverlapChars = 200
	defaultMaxConcurrent     = 4
	defaultDeadline          = 300 * time.Second
)

func defaultOptions() Options {
	return Options{
		MaxChunkChars:     defaultMaxChunkChars,
		ChunkOverlapChars: defaultChunkOverlapChars,
		Retry:             DefaultRetryPolicy(),
		Deadline:          defaultDeadline,
		MaxConcurrent:     defaultMaxConcurrent,
	}
}

func WithModel(name string) func(*Options) {
	return func(o *Options) { o.Model = name }
}

func WithTemperature(t float32) func(*Options) {
	return func(o *Options) { o.Temperature = t }
}

func WithMaxChunkChars(n int) func(*Options) {
	return func(o *Options) { o.MaxChunkChars = n }
}

func WithChunkOverlap(n int) func(*Options) {
	return func(o *Options) { o.ChunkOverlapChars = n }
}

func WithRetryPolicy(p RetryPolicy) func(*Options) {
	return func(o *Options) { o.Retry = p }
}

// WithCallTimeout bounds each completion call separately from the run
// deadline. A timed-out call counts as a transient failure and is retried;
// zero disables the per-call bound.
func WithCallTimeout(d time.Duration) func(*Options) {
	return func(o *Options) { o.CallTimeout = d }
}

// WithDeadline sets the end-to-end budget; past it the run fails with no
// partial output.
func WithDeadline(d time.Duration) func(*Options) {
	return func(o *Options) { o.Deadline = d }
}

func WithConcurrency(n int) func(*Options) {
	return func(o *Options) { o.MaxConcurrent = n }
}

func WithRunner(r Runner) func(*Options) {
	return func(o *Options) { o.Runner = r }
}

// WithPreferLaterDuplicates makes list-kind dedup keep the later chunk's
// entry instead of the first-seen one.
func WithPreferLaterDuplicates() func(*Options) {
	return func(o *Options) { o.PreferLater = true }
}

// Environment variables recognized by OptionsFromEnv.
const (
	envModel          = "EXTRACT_MODEL"
	envTemperature    = "EXTRACT_TEMPERATURE"
	envMaxChunkChars  = "EXTRACT_MAX_CHUNK_CHARS"
	envChunkOverlap   = "EXTRACT_CHUNK_OVERLAP_CHARS"
	envMaxRetries     = "EXTRACT_MAX_RETRIES"
	envRetryBaseDelay = "EXTRACT_RETRY_BASE_DELAY"
	envCallTimeout    = "EXTRACT_CALL_TIMEOUT"
	envDeadline       = "EXTRACT_DEADLINE"
	envMaxConcurrent  = "EXTRACT_MAX_CONCURRENT"
)

// OptionsFromEnv reads run options from the environment, loading a .env file
// first when one exists. Unset or unparseable variables leave the defaults
// untouched. The returned option composes with the explicit With... options.
func OptionsFromEnv() func(*Options) {
	_ = godotenv.Load() // absent .env is fine
	return func(o *Options) {
		if v := os.Getenv(envModel); v != "" {
			o.Model = v
		}
		if v := os.Getenv(envTemperature); v != "" {
			if f, err := strconv.ParseFloat(v, 32); err == nil {
				o.Temperature = float32(f)
			}
		}
		if n, ok := intEnv(envMaxChunkChars); ok {
			o.MaxChunkChars = n
		}
		if n, ok := intEnv(envChunkOverlap); ok {
			o.ChunkOverlapChars = n
		}
		if n, ok := intEnv(envMaxRetries); ok {
			o.Retry.MaxAttempts = n
		}
		if v := os.Getenv(envRetryBaseDelay); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				o.Retry.BaseDelay = d
			}
		}
		if v := os.Getenv(envCallTimeout); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				o.CallTimeout = d
			}
		}
		if v := os.Getenv(envDeadline); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				o.Deadline = d
			}
		}
		if n, ok := intEnv(envMaxConcurrent); ok {
			o.MaxConcurrent = n
		}
	}
}

func intEnv(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
