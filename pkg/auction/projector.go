package auction

import (
	"fmt"
	"time"

	"github.com/Sternrassler/skyblock-market/pkg/format"
	"github.com/Sternrassler/skyblock-market/pkg/metrics"
	"github.com/Sternrassler/skyblock-market/pkg/pagination"
)

// TimeLeftMode selects how an entry's end timestamp becomes a time-left string.
type TimeLeftMode string

const (
	// TimeLeftEndAsDuration formats the absolute end timestamp as if it were a
	// duration and keeps only the part below one day. This reproduces the
	// historical output of the site, which never subtracted the current time.
	TimeLeftEndAsDuration TimeLeftMode = "end-as-duration"

	// TimeLeftRemaining formats end minus now, clamped at zero.
	TimeLeftRemaining TimeLeftMode = "remaining"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// ParseTimeLeftMode validates a mode name. An empty name selects the default.
func ParseTimeLeftMode(s string) (TimeLeftMode, error) {
	switch TimeLeftMode(s) {
	case "":
		return TimeLeftEndAsDuration, nil
	case TimeLeftEndAsDuration, TimeLeftRemaining:
		return TimeLeftMode(s), nil
	default:
		return "", fmt.Errorf("unknown time-left mode %q", s)
	}
}

// Projector flattens fetched pages into display records. It holds no state
// between calls, so projecting the same input twice gives the same output.
type Projector struct {
	mode TimeLeftMode
	now  func() time.Time
}

// NewProjector creates a projector. now may be nil, in which case time.Now is used.
func NewProjector(mode TimeLeftMode, now func() time.Time) (*Projector, error) {
	if mode == "" {
		mode = TimeLeftEndAsDuration
	}
	if _, err := ParseTimeLeftMode(string(mode)); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Projector{mode: mode, now: now}, nil
}

// Project returns one record per entry of every present page, in page order
// and then upstream entry order. Absent pages contribute nothing.
func (p *Projector) Project(pages []pagination.PageResult[Page]) []Record {
	total := 0
	for _, page := range pages {
		if page.OK {
			total += len(page.Value.Auctions)
		}
	}

	records := make([]Record, 0, total)
	for _, page := range pages {
		if !page.OK {
			continue
		}
		for _, entry := range page.Value.Auctions {
			records = append(records, p.projectEntry(entry))
		}
	}

	metrics.RecordsProjected.WithLabelValues("auction").Add(float64(len(records)))
	return records
}

func (p *Projector) projectEntry(e Entry) Record {
	return Record{
		Owner:    e.Auctioneer,
		ItemName: e.ItemName,
		Price:    format.Number(e.StartingBid),
		TimeLeft: p.timeLeft(e.End),
	}
}

func (p *Projector) timeLeft(end int64) string {
	switch p.mode {
	case TimeLeftRemaining:
		return format.Duration(end - p.now().UnixMilli())
	default:
		within := end % dayMillis
		if within < 0 {
			within += dayMillis
		}
		return format.Duration(within)
	}
}
