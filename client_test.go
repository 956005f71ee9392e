package extract

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Classify:    isRetryable,
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(context.DeadlineExceeded))
	assert.False(t, isRetryable(context.Canceled))
	assert.True(t, isRetryable(&genai.APIError{Code: 429}))
	assert.True(t, isRetryable(&genai.APIError{Code: 500}))
	assert.True(t, isRetryable(&genai.APIError{Code: 503}))
	assert.True(t, isRetryable(&genai.APIError{Code: 408}))
	assert.False(t, isRetryable(&genai.APIError{Code: 401}))
	assert.False(t, isRetryable(&genai.APIError{Code: 400}))
	assert.False(t, isRetryable(&genai.APIError{Code: 403}))
	assert.False(t, isRetryable(&genai.APIError{Code: 404}))
	assert.True(t, isRetryable(errors.New("connection reset")))
}

// A call that times out twice then succeeds on the third attempt must still
// produce a result without exceeding the attempt budget.
func TestComplete_SucceedsOnThirdAttempt(t *testing.T) {
	calls := 0
	invoker := InvokerFunc(func(ctx context.Context, model, prompt string, temperature float32) ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, &genai.APIError{Code: 503, Message: "overloaded"}
		}
		return []byte(`{"ok":true}`), nil
	})
	c := &completionClient{invoker: invoker, policy: testPolicy(), model: "m", log: slog.Default()}

	raw, err := c.complete(context.Background(), 0, KindSchema, "prompt")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, 3, calls)
}

func TestComplete_TransientExhaustsAttempts(t *testing.T) {
	calls := 0
	invoker := InvokerFunc(func(ctx context.Context, model, prompt string, temperature float32) ([]byte, error) {
		calls++
		return nil, &genai.APIError{Code: 429, Message: "rate limited"}
	})
	c := &completionClient{invoker: invoker, policy: testPolicy(), model: "m", log: slog.Default()}

	_, err := c.complete(context.Background(), 2, KindConstraint, "prompt")
	var transient *TransientProviderError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, 2, transient.Chunk)
	assert.Equal(t, KindConstraint, transient.Kind)
	assert.Equal(t, 3, transient.Attempts)
	assert.Equal(t, 3, calls, "must not exceed the attempt budget")

	var apiErr *genai.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestComplete_FatalNeverRetried(t *testing.T) {
	calls := 0
	invoker := InvokerFunc(func(ctx context.Context, model, prompt string, temperature float32) ([]byte, error) {
		calls++
		return nil, &genai.APIError{Code: 401, Message: "bad credentials"}
	})
	c := &completionClient{invoker: invoker, policy: testPolicy(), model: "m", log: slog.Default()}

	_, err := c.complete(context.Background(), 1, KindSchema, "prompt")
	var fatal *FatalProviderError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 1, fatal.Chunk)
	assert.Equal(t, 1, calls)
}

func TestComplete_MissingModelIsFatal(t *testing.T) {
	invoker := InvokerFunc(func(ctx context.Context, model, prompt string, temperature float32) ([]byte, error) {
		t.Fatal("invoker must not be called without a model")
		return nil, nil
	})
	c := &completionClient{invoker: invoker, policy: testPolicy(), log: slog.Default()}

	_, err := c.complete(context.Background(), 0, KindSchema, "prompt")
	var fatal *FatalProviderError
	require.ErrorAs(t, err, &fatal)
	assert.ErrorIs(t, err, ErrModelMissing)
}

func TestComplete_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	invoker := InvokerFunc(func(ctx context.Context, model, prompt string, temperature float32) ([]byte, error) {
		calls++
		cancel()
		return nil, &genai.APIError{Code: 500}
	})
	c := &completionClient{invoker: invoker, policy: testPolicy(), model: "m", log: slog.Default()}

	_, err := c.complete(ctx, 0, KindSchema, "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "no further attempts after cancellation")
}

// A call that outlives its per-call budget is a transient failure: the
// attempt is cut off, retried, and the run context stays live throughout.
func TestComplete_CallTimeoutIsRetried(t *testing.T) {
	calls := 0
	invoker := InvokerFunc(func(ctx context.Context, model, prompt string, temperature float32) ([]byte, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []byte(`{"ok":true}`), nil
	})
	c := &completionClient{
		invoker:     invoker,
		policy:      testPolicy(),
		model:       "m",
		callTimeout: 10 * time.Millisecond,
		log:         slog.Default(),
	}

	ctx := context.Background()
	raw, err := c.complete(ctx, 0, KindSchema, "prompt")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, 2, calls)
	assert.NoError(t, ctx.Err(), "per-call timeout must not cancel the run context")
}

func TestComplete_CallTimeoutExhaustsAsTransient(t *testing.T) {
	invoker := InvokerFunc(func(ctx context.Context, model, prompt string, temperature float32) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c := &completionClient{
		invoker:     invoker,
		policy:      testPolicy(),
		model:       "m",
		callTimeout: 5 * time.Millisecond,
		log:         slog.Default(),
	}

	_, err := c.complete(context.Background(), 3, KindConstraint, "prompt")
	var terr *TransientProviderError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 3, terr.Chunk)
	assert.Equal(t, 3, terr.Attempts)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryPolicy_DelayDoubles(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond}
	assert.Equal(t, time.Duration(0), p.delay(1))
	assert.Equal(t, 100*time.Millisecond, p.delay(2))
	assert.Equal(t, 200*time.Millisecond, p.delay(3))
	assert.Equal(t, 400*time.Millisecond, p.delay(4))
}

func TestRetryPolicy_JitterBounded(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, Jitter: true}
	for i := 0; i < 20; i++ {
		d := p.delay(2)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestRetryPolicy_ZeroAttemptsStillCallsOnce(t *testing.T) {
	calls := 0
	p := RetryPolicy{}
	attempts, err := p.run(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}
