// Package ratelimit provides rate limiting for requests against the OAI-PMH
// endpoint.
//
// OAI-PMH repositories are often run by libraries on modest hardware, and the
// DDB endpoint in particular starts answering with protocol errors when
// hammered. A token bucket shared by all fetch workers keeps the request rate
// within the configured budget.
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// 120 requests per minute, bursts of at most 10
//	limiter := ratelimit.NewPerMinute(120, 10)
//	limiter.Wait()
//	// ... issue request
package ratelimit
