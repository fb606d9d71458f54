/*
Package resilience provides a circuit breaker for outbound fetches.

# Overview

The boot sequence fetches the manifest, embedded resources and runtime
assemblies from the host. When the host is down, a tripped breaker fails
those fetches fast instead of queueing retries behind each other.

States: Closed (requests flow), Open (requests rejected with
ErrCircuitOpen until Timeout elapses), Half-Open (up to MaxRequests trial
requests; enough successes close the breaker, any failure reopens it).

# Usage

	breaker := resilience.New("fetch", resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	body, err := resilience.Do(breaker, func() ([]byte, error) {
		return fetch(ctx, url)
	})
*/
package resilience
