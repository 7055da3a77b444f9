// Package httpclient provides an outbound REST client with pluggable
// authentication strategies, bounded exponential-backoff retries,
// request/response interceptors, and structured request logging.
//
// Authentication
//   - At most one auth.Strategy is active per client. It is applied
//     after default and per-call headers are merged, so strategy
//     headers always win over caller-supplied ones.
//   - The strategy can be swapped or cleared at any time; the change
//     takes effect for attempts that have not yet been authenticated.
//
// Retries
//   - Controlled by a retry.Policy: only responses whose status code is
//     in the policy's retry set are retried, up to MaxAttempts times.
//   - Retry n waits BaseDelay * 2^(n-1). The wait aborts early when the
//     request context is canceled.
//   - Transport-level failures (DNS, connect, timeout) carry no HTTP
//     status and are never retried.
//
// Correlation
//   - Every wire request carries a freshly generated X-Request-ID
//     value. Retries of the same logical call are distinct wire
//     requests and get distinct IDs.
package httpclient
