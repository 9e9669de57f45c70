// Package retry provides backoff and retry logic for handling transient
// failures in OAI-PMH requests.
//
// Features:
//   - Multiple backoff strategies (exponential, linear, constant)
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates
//   - An OAI-aware retrier that backs off exponentially on transport errors
//     and linearly on protocol errors
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.Ping()
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
//	// OAI-specific retrier
//	retrier := retry.NewOAIRetrier(10, logger.GetLogger())
//	err := retrier.Do(ctx, func() error {
//		_, err := client.GetRecord(ctx, id)
//		return err
//	})
package retry
