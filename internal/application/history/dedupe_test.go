package history

import (
	"testing"

	"wallet-history-indexer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func events(pairs ...interface{}) []entity.ProcessedEvent {
	out := make([]entity.ProcessedEvent, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, entity.ProcessedEvent{ID: pairs[i].(string), TimestampMillis: int64(pairs[i+1].(int))})
	}
	return out
}

func ids(evs []entity.ProcessedEvent) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.ID
	}
	return out
}

func TestDedupe_FirstOccurrenceWins(t *testing.T) {
	in := []entity.ProcessedEvent{
		{ID: "a", Amount: "1"},
		{ID: "b", Amount: "2"},
		{ID: "a", Amount: "3"},
	}

	out := Dedupe(in)

	assert.Equal(t, []string{"a", "b"}, ids(out))
	assert.Equal(t, "1", out[0].Amount)
}

func TestSortNewestFirst_Stable(t *testing.T) {
	in := events("a", 10, "b", 30, "c", 10, "d", 20, "e", 30)

	out := SortNewestFirst(in)

	assert.Equal(t, []string{"b", "e", "d", "a", "c"}, ids(out))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(in), "input must not be reordered")
}

func TestDedupeAndSort_Properties(t *testing.T) {
	in := events("a", 5, "b", 9, "a", 1, "c", 9, "d", 3, "b", 100, "e", 7)

	out := DedupeAndSort(in)

	distinct := map[string]struct{}{}
	for _, ev := range in {
		distinct[ev.ID] = struct{}{}
	}
	assert.LessOrEqual(t, len(out), len(in))
	assert.Len(t, out, len(distinct))

	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].TimestampMillis, out[i].TimestampMillis)
	}

	assert.Equal(t, out, SortNewestFirst(out))
	assert.Equal(t, out, Dedupe(out))
	assert.Equal(t, DedupeAndSort(out), out)
}
