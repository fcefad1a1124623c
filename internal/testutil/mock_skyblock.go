// Package testutil provides testing utilities for the SkyBlock market client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// BasePath is the path prefix the mock serves under, mirroring the real API root.
const BasePath = "/skyblock"

// MockAuction is one auction entry served by the mock.
type MockAuction struct {
	Auctioneer  string `json:"auctioneer"`
	ItemName    string `json:"item_name"`
	StartingBid int64  `json:"starting_bid"`
	End         int64  `json:"end"`
}

// MockPageBehavior overrides how a single auction page is served.
type MockPageBehavior struct {
	StatusCode int
	Body       string
	Delay      time.Duration
	// Hijack closes the connection without a response.
	Hijack bool
}

// MockSkyblock is a configurable mock SkyBlock API for testing.
type MockSkyblock struct {
	server *httptest.Server
	mu     sync.RWMutex

	pages          [][]MockAuction
	pageBehaviors  map[int]MockPageBehavior
	discovery      *MockPageBehavior
	bazaarStatus   int
	bazaarBody     string
	requestCount   int
	pageRequests   map[int]int
	discoveryCount int
	bazaarCount    int
}

// NewMockSkyblock creates a new mock server with no pages.
func NewMockSkyblock() *MockSkyblock {
	mock := &MockSkyblock{
		pageBehaviors: make(map[int]MockPageBehavior),
		pageRequests:  make(map[int]int),
		bazaarStatus:  http.StatusOK,
		bazaarBody:    `{"success": true, "products": {}}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(BasePath+"/auctions", mock.handleAuctions)
	mux.HandleFunc(BasePath+"/bazaar", mock.handleBazaar)

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))

	return mock
}

// URL returns the API root of the mock, including BasePath.
func (m *MockSkyblock) URL() string {
	return m.server.URL + BasePath
}

// Close shuts down the mock server.
func (m *MockSkyblock) Close() {
	m.server.Close()
}

// SetPages configures the auction pages; totalPages is len(pages).
func (m *MockSkyblock) SetPages(pages ...[]MockAuction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = pages
}

// SetPageBehavior overrides how page n is served.
func (m *MockSkyblock) SetPageBehavior(page int, b MockPageBehavior) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageBehaviors[page] = b
}

// SetDiscoveryBehavior overrides the response to GET /auctions without a page.
func (m *MockSkyblock) SetDiscoveryBehavior(b MockPageBehavior) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discovery = &b
}

// SetBazaarResponse configures the bazaar endpoint.
func (m *MockSkyblock) SetBazaarResponse(statusCode int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bazaarStatus = statusCode
	m.bazaarBody = body
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSkyblock) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetDiscoveryCount returns the number of page-less /auctions requests.
func (m *MockSkyblock) GetDiscoveryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.discoveryCount
}

// GetPageRequestCounts returns a copy of per-page request counts.
func (m *MockSkyblock) GetPageRequestCounts() map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]int, len(m.pageRequests))
	for k, v := range m.pageRequests {
		out[k] = v
	}
	return out
}

// GetBazaarCount returns the number of bazaar requests.
func (m *MockSkyblock) GetBazaarCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bazaarCount
}

func (m *MockSkyblock) handleAuctions(w http.ResponseWriter, r *http.Request) {
	pageParam := r.URL.Query().Get("page")

	m.mu.Lock()
	total := len(m.pages)
	var behavior *MockPageBehavior
	page := 0
	if pageParam == "" {
		m.discoveryCount++
		behavior = m.discovery
	} else {
		n, err := strconv.Atoi(pageParam)
		if err != nil {
			m.mu.Unlock()
			http.Error(w, `{"success": false, "cause": "invalid page"}`, http.StatusBadRequest)
			return
		}
		page = n
		m.pageRequests[page]++
		if b, ok := m.pageBehaviors[page]; ok {
			behavior = &b
		}
	}
	var auctions []MockAuction
	if page >= 0 && page < total {
		auctions = m.pages[page]
	}
	m.mu.Unlock()

	if behavior != nil {
		if behavior.Delay > 0 {
			select {
			case <-time.After(behavior.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if behavior.Hijack {
			hijackAndClose(w)
			return
		}
		if behavior.StatusCode != 0 || behavior.Body != "" {
			status := behavior.StatusCode
			if status == 0 {
				status = http.StatusOK
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			w.Write([]byte(behavior.Body))
			return
		}
	}

	if page < 0 || (total > 0 && page >= total) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success": false, "cause": "Page not found"}`))
		return
	}

	if auctions == nil {
		auctions = []MockAuction{}
	}
	body, err := json.Marshal(map[string]any{
		"success":       true,
		"page":          page,
		"totalPages":    total,
		"totalAuctions": countAuctions(m.snapshotPages()),
		"lastUpdated":   time.Now().UnixMilli(),
		"auctions":      auctions,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (m *MockSkyblock) handleBazaar(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.bazaarCount++
	status, body := m.bazaarStatus, m.bazaarBody
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (m *MockSkyblock) snapshotPages() [][]MockAuction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pages
}

func countAuctions(pages [][]MockAuction) int {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	return n
}

func hijackAndClose(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}

// NewAuction builds a mock auction with a recognizable owner and item name.
func NewAuction(page, index int, bid int64, end int64) MockAuction {
	return MockAuction{
		Auctioneer:  fmt.Sprintf("owner-%d-%d", page, index),
		ItemName:    fmt.Sprintf("Item %d-%d", page, index),
		StartingBid: bid,
		End:         end,
	}
}
