package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestState_IsLow(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		expected  bool
	}{
		{"well above threshold", 100, false},
		{"at threshold", LowRemainingThreshold, false},
		{"just below threshold", LowRemainingThreshold - 1, true},
		{"exhausted", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{Remaining: tt.remaining}
			if got := s.IsLow(); got != tt.expected {
				t.Errorf("IsLow() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name        string
		headers     map[string]string
		expected    State
		expectedOK  bool
		shouldError bool
	}{
		{
			name:       "no headers",
			headers:    map[string]string{},
			expectedOK: false,
		},
		{
			name: "all headers",
			headers: map[string]string{
				HeaderLimit:     "120",
				HeaderRemaining: "117",
				HeaderReset:     "42",
			},
			expected:   State{Limit: 120, Remaining: 117, ResetIn: 42 * time.Second},
			expectedOK: true,
		},
		{
			name:       "remaining only",
			headers:    map[string]string{HeaderRemaining: "3"},
			expected:   State{Remaining: 3},
			expectedOK: true,
		},
		{
			name:        "invalid remaining",
			headers:     map[string]string{HeaderRemaining: "lots"},
			shouldError: true,
		},
		{
			name:        "invalid reset",
			headers:     map[string]string{HeaderRemaining: "5", HeaderReset: "soon"},
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			for k, v := range tt.headers {
				headers.Set(k, v)
			}

			state, ok, err := ParseHeaders(headers)

			if tt.shouldError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ok != tt.expectedOK {
				t.Errorf("ok = %v, want %v", ok, tt.expectedOK)
			}
			if state != tt.expected {
				t.Errorf("state = %+v, want %+v", state, tt.expected)
			}
		})
	}
}
