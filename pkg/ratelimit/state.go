// Package ratelimit reads the upstream's rate-limit headers and reports the
// remaining quota through logs and metrics. It never delays or blocks a request.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Rate-limit response headers sent by the upstream API.
const (
	HeaderLimit     = "RateLimit-Limit"
	HeaderRemaining = "RateLimit-Remaining"
	HeaderReset     = "RateLimit-Reset"
)

// LowRemainingThreshold marks the quota as low when fewer requests remain.
const LowRemainingThreshold = 10

// State is the quota reported by one response.
type State struct {
	// Limit is the number of requests allowed per window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetIn is the time until the window resets.
	ResetIn time.Duration
}

// IsLow returns true if the remaining quota is below LowRemainingThreshold.
func (s State) IsLow() bool {
	return s.Remaining < LowRemainingThreshold
}

// ParseHeaders extracts the quota from response headers. ok is false when the
// response carries no rate-limit headers, which is normal for unauthenticated calls.
func ParseHeaders(headers http.Header) (state State, ok bool, err error) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return State{}, false, nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return State{}, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}
	state.Remaining = remain

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return State{}, false, fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
		state.Limit = limit
	}

	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		resetSeconds, err := strconv.Atoi(resetStr)
		if err != nil {
			return State{}, false, fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		state.ResetIn = time.Duration(resetSeconds) * time.Second
	}

	return state, true, nil
}
