package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/genai"
)

// State tracks pipeline progress. Transitions only move forward; FAILED is
// terminal and reachable from any non-terminal state. Extraction is never
// re-entered once merging begins.
type State int

const (
	StateInit State = iota
	StateChunked
	StateExtracting
	StateMerged
	StateValidated
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateChunked:
		return "CHUNKED"
	case StateExtracting:
		return "EXTRACTING"
	case StateMerged:
		return "MERGED"
	case StateValidated:
		return "VALIDATED"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// canTransition reports whether the pipeline may move from one state to
// another.
func canTransition(from, to State) bool {
	if from == StateDone || from == StateFailed {
		return false
	}
	if to == StateFailed {
		return true
	}
	return to == from+1
}

// Extractor runs the chunk/extract/merge/validate pipeline. Construct once,
// run many times; each run is independent.
type Extractor struct {
	invoker Invoker
	prompts PromptProvider
	log     *slog.Logger
}

// New returns an Extractor backed by the Gemini API that logs with
// slog.Default().
func New(client *genai.Client, prompts PromptProvider) *Extractor {
	return NewWithLogger(client, prompts, slog.Default())
}

// NewWithLogger lets the caller supply their own logger.
func NewWithLogger(client *genai.Client, prompts PromptProvider, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{invoker: &GenaiInvoker{Client: client, Log: log}, prompts: prompts, log: log}
}

// NewWithInvoker builds an Extractor over any Invoker implementation.
func NewWithInvoker(invoker Invoker, prompts PromptProvider, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{invoker: invoker, prompts: prompts, log: log}
}

// run carries the per-run state machine so concurrent Run calls do not share
// mutable state.
type run struct {
	ex    *Extractor
	state State
}

func (r *run) to(next State) error {
	if !canTransition(r.state, next) {
		return fmt.Errorf("illegal state transition %s -> %s", r.state, next)
	}
	r.ex.log.Debug("Pipeline state", "from", r.state.String(), "to", next.String())
	r.state = next
	return nil
}

func (r *run) fail(err error) error {
	_ = r.to(StateFailed)
	return err
}

// Run executes the whole pipeline over the source text and returns the
// validated output, or a single typed error naming the stage and chunk/kind
// that failed. The contract is all-or-nothing: no partial output ever
// escapes a failed run.
func (x *Extractor) Run(ctx context.Context, src *SourceText, optFns ...func(*Options)) (*ValidatedOutput, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &run{ex: x, state: StateInit}
	if src == nil || src.Text == "" {
		return nil, r.fail(fmt.Errorf("run: %w", ErrEmptySource))
	}
	x.log.Debug("Run starting", "source_len", src.Len, "model", opts.Model,
		"max_chunk_chars", opts.MaxChunkChars, "overlap", opts.ChunkOverlapChars,
		"deadline", opts.Deadline, "max_concurrent", opts.MaxConcurrent)
	if opts.Model == "" {
		return nil, r.fail(fmt.Errorf("run: %w", ErrModelMissing))
	}

	startMeta := CaptureMetadata(opts, x.prompts)

	chunks, err := SplitSource(src, opts.MaxChunkChars, opts.ChunkOverlapChars)
	if err != nil {
		return nil, r.fail(fmt.Errorf("run: %w", err))
	}
	if err := r.to(StateChunked); err != nil {
		return nil, r.fail(err)
	}
	x.log.Debug("Source chunked", "chunk_count", len(chunks))

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	if err := r.to(StateExtracting); err != nil {
		return nil, r.fail(err)
	}
	partials, err := x.extractAll(ctx, chunks, opts)
	if err != nil {
		return nil, r.fail(fmt.Errorf("run: %w", err))
	}

	if err := r.to(StateMerged); err != nil {
		return nil, r.fail(err)
	}
	var mergeOpts []MergeOption
	if opts.PreferLater {
		mergeOpts = append(mergeOpts, PreferLaterDuplicates())
	}
	rec := MergeResults(partials, mergeOpts...)
	x.log.Debug("Partials merged",
		"endpoints", endpointCount(rec), "field_mappings", len(rec.FieldMappings),
		"constraints", len(rec.Constraints), "edge_cases", len(rec.EdgeCases))

	// Second snapshot; drift means something reconfigured the run under us.
	endMeta := CaptureMetadata(opts, x.prompts)
	if !startMeta.sameConfig(endMeta) {
		return nil, r.fail(fmt.Errorf("run: %w", ErrConfigDrift))
	}
	endMeta.RunID = newRunID()

	if err := r.to(StateValidated); err != nil {
		return nil, r.fail(err)
	}
	out, err := Validate(rec, endMeta)
	if err != nil {
		return nil, r.fail(fmt.Errorf("run: %w", err))
	}

	if err := r.to(StateDone); err != nil {
		return nil, r.fail(err)
	}
	x.log.Info("Run complete", "run_id", endMeta.RunID,
		"endpoints", len(out.Schema.Endpoints), "chunks", len(chunks))
	return out, nil
}

// extractAll fans out one completion call per (chunk, kind) pair with bounded
// concurrency. Workers only append to the shared slice under the mutex; the
// merge fold itself runs later on the caller goroutine in chunk order.
func (x *Extractor) extractAll(ctx context.Context, chunks []Chunk, opts Options) ([]PartialResult, error) {
	runner := opts.Runner
	if runner == nil {
		runner, ctx = NewLimitedRunner(ctx, opts.MaxConcurrent)
	}
	client := &completionClient{
		invoker:     x.invoker,
		policy:      opts.Retry,
		model:       opts.Model,
		temperature: opts.Temperature,
		callTimeout: opts.CallTimeout,
		log:         x.log,
	}

	var (
		mu       sync.Mutex
		partials = make([]PartialResult, 0, len(chunks)*len(Kinds()))
	)
	for _, chunk := range chunks {
		for _, kind := range Kinds() {
			chunk, kind := chunk, kind
			runner.Go(func() error {
				prompt, err := x.prompts.Render(kind, chunk.Text)
				if err != nil {
					return fmt.Errorf("chunk %d kind %s: %w", chunk.Index, kind, err)
				}
				raw, err := client.complete(ctx, chunk.Index, kind, prompt)
				if err != nil {
					return err
				}
				pr, err := ParseResponse(chunk.Index, kind, raw)
				if err != nil {
					return err
				}
				mu.Lock()
				partials = append(partials, pr)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := runner.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

func endpointCount(rec MergedRecord) int {
	if rec.Schema == nil {
		return 0
	}
	return len(rec.Schema.Endpoints)
}

// RunPlan describes what a run would do without touching the network.
type RunPlan struct {
	Chunks         int
	CallsPerKind   int
	TotalCalls     int
	EstInputTokens int
}

// Plan simulates chunking and prompt construction for cost estimation. Token
// counts use the usual four-characters-per-token heuristic.
func (x *Extractor) Plan(src *SourceText, optFns ...func(*Options)) (*RunPlan, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	chunks, err := SplitSource(src, opts.MaxChunkChars, opts.ChunkOverlapChars)
	if err != nil {
		return nil, err
	}
	plan := &RunPlan{Chunks: len(chunks), CallsPerKind: len(chunks)}
	for _, chunk := range chunks {
		for _, kind := range Kinds() {
			prompt, err := x.prompts.Render(kind, chunk.Text)
			if err != nil {
				return nil, err
			}
			plan.TotalCalls++
			plan.EstInputTokens += len(prompt) / 4
		}
	}
	return plan, nil
}
