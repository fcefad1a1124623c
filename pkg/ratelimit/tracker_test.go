package ratelimit

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestObserve_UpdatesGauges(t *testing.T) {
	tracker := NewTracker(zerolog.Nop())

	headers := http.Header{}
	headers.Set(HeaderLimit, "120")
	headers.Set(HeaderRemaining, "80")
	headers.Set(HeaderReset, "30")

	tracker.Observe(headers)

	if got := testutil.ToFloat64(quotaRemaining); got != 80 {
		t.Errorf("remaining gauge = %v, want 80", got)
	}
	if got := testutil.ToFloat64(quotaLimit); got != 120 {
		t.Errorf("limit gauge = %v, want 120", got)
	}
}

func TestObserve_LowQuotaWarns(t *testing.T) {
	buf := &bytes.Buffer{}
	tracker := NewTracker(zerolog.New(buf))

	before := testutil.ToFloat64(quotaLowTotal)

	headers := http.Header{}
	headers.Set(HeaderRemaining, "2")
	tracker.Observe(headers)

	if got := testutil.ToFloat64(quotaLowTotal) - before; got != 1 {
		t.Errorf("low quota counter delta = %v, want 1", got)
	}
	if !strings.Contains(buf.String(), "nearly exhausted") {
		t.Errorf("expected warning log, got %q", buf.String())
	}
}

func TestObserve_NoHeadersIsNoop(t *testing.T) {
	buf := &bytes.Buffer{}
	tracker := NewTracker(zerolog.New(buf))

	before := testutil.ToFloat64(quotaLowTotal)
	tracker.Observe(http.Header{})

	if testutil.ToFloat64(quotaLowTotal) != before {
		t.Error("counter changed without headers")
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected log output %q", buf.String())
	}
}

func TestObserve_MalformedHeadersWarns(t *testing.T) {
	buf := &bytes.Buffer{}
	tracker := NewTracker(zerolog.New(buf))

	headers := http.Header{}
	headers.Set(HeaderRemaining, "many")
	tracker.Observe(headers)

	if !strings.Contains(buf.String(), "Failed to parse rate limit headers") {
		t.Errorf("expected parse warning, got %q", buf.String())
	}
}
