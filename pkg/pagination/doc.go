// Package pagination provides concurrent retrieval of every page of a
// paginated upstream collection.
//
// A Discoverer reports how many pages exist. An Aggregator then launches one
// fetch per page index, waits for all of them, and returns one PageResult per
// index in index order. A failed page becomes an absent result and never
// affects its siblings.
//
// Example usage:
//
//	agg := pagination.NewAggregator[auction.Page](fetcher, pagination.DefaultConfig())
//	results, err := agg.FetchAllPages(ctx, discoverer)
//	for _, r := range results {
//		if !r.OK {
//			continue
//		}
//		use(r.Value)
//	}
//
// The aggregator:
//   - Issues exactly totalPages fetches, zero when totalPages is 0
//   - Runs every fetch concurrently (optionally capped by MaxConcurrency)
//   - Never cancels siblings when one page fails
//   - Applies optional per-page and aggregate timeouts (none by default)
package pagination
