package history

import (
	"time"

	"wallet-history-indexer/internal/domain/entity"
)

const (
	labelToday     = "Today"
	labelYesterday = "Yesterday"
	dateLayout     = "Jan 2, 2006"
	day            = 24 * time.Hour
)

// Grouper buckets sorted events by a date label relative to the call time
type Grouper struct {
	loc *time.Location
}

// NewGrouper creates a grouper rendering absolute dates in loc
func NewGrouper(loc *time.Location) *Grouper {
	if loc == nil {
		loc = time.Local
	}
	return &Grouper{loc: loc}
}

// Label returns "Today", "Yesterday" or the absolute date of ts
func (g *Grouper) Label(ts, now time.Time) string {
	switch fullDaysBetween(ts, now) {
	case 0:
		return labelToday
	case 1:
		return labelYesterday
	default:
		return ts.In(g.loc).Format(dateLayout)
	}
}

// Group partitions events, which must already be sorted newest first. Buckets
// appear in first-seen order of their label and events keep their order.
// The input slice is not modified.
func (g *Grouper) Group(events []entity.ProcessedEvent, now time.Time) []entity.GroupedBucket {
	buckets := make([]entity.GroupedBucket, 0)
	index := make(map[string]int)

	for _, ev := range events {
		label := g.Label(ev.Time(), now)
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, entity.GroupedBucket{DateLabel: label})
		}
		buckets[i].Events = append(buckets[i].Events, ev)
	}

	return buckets
}

// fullDaysBetween is floor((now - ts) / 24h)
func fullDaysBetween(ts, now time.Time) int64 {
	elapsed := now.Sub(ts)
	days := int64(elapsed / day)
	if elapsed < 0 && elapsed%day != 0 {
		days--
	}
	return days
}
