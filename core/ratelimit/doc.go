// Package ratelimit throttles outbound calls to a ticketing provider.
//
// Providers publish layered quotas (for example 10 calls per 10 seconds, 300 per 10 minutes and
// 1000 per hour) and sometimes a concurrency limit. A Limiter chains one token bucket per quota
// (golang.org/x/time/rate) behind a weighted semaphore (golang.org/x/sync/semaphore).
//
// A Limiter belongs to one provider client instance; the client cache keeps that instance alive
// across runs so quotas hold between synchronizations of the same connection.
package ratelimit
