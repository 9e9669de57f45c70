package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "github.com/twphl/ddb-harvester/pkg/errors"
	"github.com/twphl/ddb-harvester/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 10,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		OnRetry:     nil,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf is the default retry predicate
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var harvestErr *errs.Error
	if errors.As(err, &harvestErr) {
		return errs.IsRetryable(harvestErr.Type)
	}

	var oaiErr *errs.OAIError
	if errors.As(err, &oaiErr) {
		return errs.IsRetryableOAICode(oaiErr.Code)
	}

	// Context errors are never retried
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Default to retrying unknown errors
	return true
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	attempt := 0

	for {
		attempt++

		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		lastErr = err

		if !cfg.RetryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		delay := cfg.Backoff.NextDelay(attempt)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(cfg.Context, delay); err != nil {
			if cfg.Logger != nil {
				cfg.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
					"attempt": attempt,
					"reason":  err.Error(),
				})
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}

// Retrier provides a reusable retry mechanism
type Retrier struct {
	config *Config
}

// NewRetrier creates a new retrier with the given configuration
func NewRetrier(cfg *Config) *Retrier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Retrier{config: cfg}
}

// Do executes an operation with retry logic
func (r *Retrier) Do(op Operation) error {
	return Do(op, r.config)
}

// WithMaxAttempts returns a new retrier with updated max attempts
func (r *Retrier) WithMaxAttempts(maxAttempts int) *Retrier {
	newConfig := *r.config
	newConfig.MaxAttempts = maxAttempts
	return &Retrier{config: &newConfig}
}

// WithContext returns a new retrier with updated context
func (r *Retrier) WithContext(ctx context.Context) *Retrier {
	newConfig := *r.config
	newConfig.Context = ctx
	return &Retrier{config: &newConfig}
}

// OAIRetrier retries OAI-PMH requests with a backoff that depends on what
// failed: transport and server errors back off exponentially, protocol-level
// errors (the endpoint answered, but with an OAI error) back off linearly.
type OAIRetrier struct {
	maxAttempts      int
	transportBackoff BackoffStrategy
	protocolBackoff  BackoffStrategy
	log              logger.Logger
}

// NewOAIRetrier creates a retrier for OAI-PMH requests
func NewOAIRetrier(maxAttempts int, log logger.Logger) *OAIRetrier {
	return &OAIRetrier{
		maxAttempts:      maxAttempts,
		transportBackoff: DefaultExponentialBackoff(),
		protocolBackoff:  DefaultLinearBackoff(),
		log:              log,
	}
}

// Do executes op, selecting the backoff strategy per failed attempt
func (r *OAIRetrier) Do(ctx context.Context, op Operation) error {
	backoff := &errorAwareBackoff{retrier: r}

	// Record whether the last failure was a protocol error so the backoff
	// can pick the right strategy for the following delay.
	wrapped := func() error {
		err := op()
		if err != nil {
			var oaiErr *errs.OAIError
			backoff.lastWasOAI = errors.As(err, &oaiErr)
		}
		return err
	}

	cfg := &Config{
		MaxAttempts: r.maxAttempts,
		Backoff:     backoff,
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
		Logger:      r.log,
	}
	return Do(wrapped, cfg)
}

// errorAwareBackoff delegates to the protocol backoff when the last failure
// was an OAI error, and to the transport backoff otherwise.
type errorAwareBackoff struct {
	retrier    *OAIRetrier
	lastWasOAI bool
}

func (b *errorAwareBackoff) NextDelay(attempt int) time.Duration {
	if b.lastWasOAI {
		return b.retrier.protocolBackoff.NextDelay(attempt)
	}
	return b.retrier.transportBackoff.NextDelay(attempt)
}

func (b *errorAwareBackoff) Reset() {
	b.lastWasOAI = false
}
