package pagination

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// stubFetcher returns the page index as its value and fails the configured pages.
type stubFetcher struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	fail     map[int]bool
	delay    func(page int) time.Duration

	mu    sync.Mutex
	pages []int
}

func (s *stubFetcher) FetchPage(ctx context.Context, page int) (int, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	s.mu.Lock()
	s.pages = append(s.pages, page)
	s.mu.Unlock()

	if s.delay != nil {
		select {
		case <-time.After(s.delay(page)):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if s.fail[page] {
		return 0, errors.New("simulated failure")
	}
	return page, nil
}

type stubDiscoverer struct {
	pages int
	err   error
}

func (d stubDiscoverer) Discover(ctx context.Context) (int, error) {
	return d.pages, d.err
}

func TestAggregate_IssuesExactlyTotalPages(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 50} {
		fetcher := &stubFetcher{}
		agg := NewAggregator[int](fetcher, DefaultConfig())

		results := agg.Aggregate(context.Background(), n)

		if got := int(fetcher.calls.Load()); got != n {
			t.Errorf("N=%d: fetch calls = %d, want %d", n, got, n)
		}
		if len(results) != n {
			t.Errorf("N=%d: len(results) = %d, want %d", n, len(results), n)
		}

		seen := make(map[int]bool)
		for _, p := range fetcher.pages {
			if p < 0 || p >= n {
				t.Errorf("N=%d: page %d out of range", n, p)
			}
			if seen[p] {
				t.Errorf("N=%d: page %d fetched twice", n, p)
			}
			seen[p] = true
		}
	}
}

func TestAggregate_ZeroPages(t *testing.T) {
	fetcher := &stubFetcher{}
	agg := NewAggregator[int](fetcher, DefaultConfig())

	for _, n := range []int{0, -3} {
		results := agg.Aggregate(context.Background(), n)
		if results == nil || len(results) != 0 {
			t.Errorf("Aggregate(%d) = %v, want empty non-nil slice", n, results)
		}
	}
	if fetcher.calls.Load() != 0 {
		t.Errorf("fetch calls = %d, want 0", fetcher.calls.Load())
	}
}

func TestAggregate_OrderStableUnderRandomLatency(t *testing.T) {
	const n = 25
	for run := 0; run < 5; run++ {
		rng := rand.New(rand.NewSource(int64(run)))
		delays := make([]time.Duration, n)
		for i := range delays {
			delays[i] = time.Duration(rng.Intn(20)) * time.Millisecond
		}

		fetcher := &stubFetcher{delay: func(page int) time.Duration { return delays[page] }}
		agg := NewAggregator[int](fetcher, DefaultConfig())

		results := agg.Aggregate(context.Background(), n)

		for i, r := range results {
			if r.Page != i {
				t.Fatalf("run %d: results[%d].Page = %d", run, i, r.Page)
			}
			if !r.OK || r.Value != i {
				t.Fatalf("run %d: results[%d] = %+v, want value %d", run, i, r, i)
			}
		}
	}
}

func TestAggregate_FailedPagesAreAbsent(t *testing.T) {
	fetcher := &stubFetcher{fail: map[int]bool{1: true, 4: true}}
	agg := NewAggregator[int](fetcher, DefaultConfig())

	results := agg.Aggregate(context.Background(), 6)

	for i, r := range results {
		if fetcher.fail[i] {
			if r.OK {
				t.Errorf("page %d should be absent", i)
			}
			if r.Err == nil {
				t.Errorf("page %d should record its failure", i)
			}
			if r.Value != 0 {
				t.Errorf("absent page %d carries value %d", i, r.Value)
			}
			continue
		}
		if !r.OK || r.Value != i {
			t.Errorf("page %d = %+v, want present with value %d", i, r, i)
		}
	}

	present := Present(results)
	expected := []int{0, 2, 3, 5}
	if len(present) != len(expected) {
		t.Fatalf("Present() = %v, want %v", present, expected)
	}
	for i := range expected {
		if present[i] != expected[i] {
			t.Errorf("Present()[%d] = %d, want %d", i, present[i], expected[i])
		}
	}
}

func TestAggregate_PanicIsolatedToPage(t *testing.T) {
	fetcher := PageFetcherFunc[string](func(ctx context.Context, page int) (string, error) {
		if page == 2 {
			panic("malformed")
		}
		return "ok", nil
	})
	agg := NewAggregator[string](fetcher, DefaultConfig())

	results := agg.Aggregate(context.Background(), 4)

	for i, r := range results {
		if i == 2 {
			if r.OK || r.Err == nil {
				t.Errorf("page 2 should be absent with an error, got %+v", r)
			}
			continue
		}
		if !r.OK || r.Value != "ok" {
			t.Errorf("page %d = %+v, want ok", i, r)
		}
	}
}

func TestAggregate_WaitsForSlowPages(t *testing.T) {
	fetcher := &stubFetcher{
		fail: map[int]bool{0: true},
		delay: func(page int) time.Duration {
			if page == 2 {
				return 100 * time.Millisecond
			}
			return 0
		},
	}
	agg := NewAggregator[int](fetcher, DefaultConfig())

	results := agg.Aggregate(context.Background(), 3)

	if !results[2].OK {
		t.Errorf("slow page should complete, got %+v", results[2])
	}
	if results[0].OK {
		t.Error("failed page 0 should be absent")
	}
}

func TestAggregate_MaxConcurrency(t *testing.T) {
	fetcher := &stubFetcher{delay: func(int) time.Duration { return 10 * time.Millisecond }}
	agg := NewAggregator[int](fetcher, Config{MaxConcurrency: 3})

	results := agg.Aggregate(context.Background(), 12)

	if len(results) != 12 {
		t.Fatalf("len(results) = %d, want 12", len(results))
	}
	if got := fetcher.maxSeen.Load(); got > 3 {
		t.Errorf("max in-flight = %d, want <= 3", got)
	}
}

func TestAggregate_PageTimeout(t *testing.T) {
	fetcher := &stubFetcher{delay: func(page int) time.Duration {
		if page == 1 {
			return 2 * time.Second
		}
		return 0
	}}
	agg := NewAggregator[int](fetcher, Config{PageTimeout: 50 * time.Millisecond})

	start := time.Now()
	results := agg.Aggregate(context.Background(), 3)

	if time.Since(start) > time.Second {
		t.Errorf("page timeout not applied, took %v", time.Since(start))
	}
	if results[1].OK {
		t.Error("timed out page should be absent")
	}
	if !errors.Is(results[1].Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want deadline exceeded", results[1].Err)
	}
	if !results[0].OK || !results[2].OK {
		t.Error("fast pages should be present")
	}
}

func TestAggregate_AggregateTimeout(t *testing.T) {
	fetcher := &stubFetcher{delay: func(int) time.Duration { return 2 * time.Second }}
	agg := NewAggregator[int](fetcher, Config{Timeout: 50 * time.Millisecond})

	results := agg.Aggregate(context.Background(), 4)

	if len(results) != 4 {
		t.Fatalf("len(results) = %d, want 4", len(results))
	}
	for i, r := range results {
		if r.OK {
			t.Errorf("page %d should be absent after aggregate timeout", i)
		}
	}
}

func TestFetchAllPages(t *testing.T) {
	t.Run("discovered_count_drives_fetches", func(t *testing.T) {
		fetcher := &stubFetcher{}
		agg := NewAggregator[int](fetcher, DefaultConfig())

		results, err := agg.FetchAllPages(context.Background(), stubDiscoverer{pages: 3})
		if err != nil {
			t.Fatalf("FetchAllPages() failed: %v", err)
		}
		if len(results) != 3 || fetcher.calls.Load() != 3 {
			t.Errorf("results = %d, calls = %d, want 3 and 3", len(results), fetcher.calls.Load())
		}
	})

	t.Run("discovery_failure_escalates", func(t *testing.T) {
		fetcher := &stubFetcher{}
		agg := NewAggregator[int](fetcher, DefaultConfig())

		_, err := agg.FetchAllPages(context.Background(), stubDiscoverer{err: ErrUpstreamUnavailable})
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Errorf("err = %v, want ErrUpstreamUnavailable", err)
		}
		if fetcher.calls.Load() != 0 {
			t.Errorf("fetch calls = %d, want 0", fetcher.calls.Load())
		}
	})
}

func TestNewAggregator_NilFetcherPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil fetcher")
		}
	}()
	NewAggregator[int](nil, DefaultConfig())
}
