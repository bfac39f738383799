package history

import (
	"testing"
	"time"

	"wallet-history-indexer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t time.Time) entity.ProcessedEvent {
	return entity.ProcessedEvent{ID: t.String(), TimestampMillis: t.UnixMilli()}
}

func TestGrouper_Label(t *testing.T) {
	g := NewGrouper(time.UTC)

	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"same instant", fixedNow, "Today"},
		{"just under a day", fixedNow.Add(-23*time.Hour - 59*time.Minute), "Today"},
		{"exactly one day", fixedNow.Add(-24 * time.Hour), "Yesterday"},
		{"under two days", fixedNow.Add(-47 * time.Hour), "Yesterday"},
		{"two days", fixedNow.Add(-48 * time.Hour), "Mar 13, 2024"},
		{"last year", time.Date(2023, time.December, 1, 8, 0, 0, 0, time.UTC), "Dec 1, 2023"},
		{"future timestamp", fixedNow.Add(36 * time.Hour), "Mar 17, 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Label(tt.ts, fixedNow))
		})
	}
}

func TestGrouper_TodayAndSixDaysAgo(t *testing.T) {
	g := NewGrouper(time.UTC)
	in := []entity.ProcessedEvent{
		at(fixedNow.Add(-time.Hour)),
		at(fixedNow.Add(-6 * 24 * time.Hour)),
	}

	buckets := g.Group(in, fixedNow)

	require.Len(t, buckets, 2)
	assert.Equal(t, "Today", buckets[0].DateLabel)
	assert.Equal(t, "Mar 9, 2024", buckets[1].DateLabel)
}

func TestGrouper_PreservesCountAndOrder(t *testing.T) {
	g := NewGrouper(time.UTC)
	in := []entity.ProcessedEvent{
		at(fixedNow.Add(-1 * time.Hour)),
		at(fixedNow.Add(-2 * time.Hour)),
		at(fixedNow.Add(-30 * time.Hour)),
		at(fixedNow.Add(-5 * 24 * time.Hour)),
		at(fixedNow.Add(-5*24*time.Hour - time.Minute)),
	}
	before := append([]entity.ProcessedEvent(nil), in...)

	buckets := g.Group(in, fixedNow)

	total := 0
	var flattened []entity.ProcessedEvent
	for _, b := range buckets {
		total += len(b.Events)
		flattened = append(flattened, b.Events...)
	}
	assert.Equal(t, len(in), total)
	assert.Equal(t, in, flattened)
	assert.Equal(t, before, in)
	assert.Equal(t, []string{"Today", "Yesterday", "Mar 10, 2024"},
		[]string{buckets[0].DateLabel, buckets[1].DateLabel, buckets[2].DateLabel})
}

func TestGrouper_Empty(t *testing.T) {
	buckets := NewGrouper(time.UTC).Group(nil, fixedNow)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
}
