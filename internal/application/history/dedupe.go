package history

import (
	"sort"

	"wallet-history-indexer/internal/domain/entity"
)

// Dedupe drops events whose ID was already seen, keeping the first occurrence
func Dedupe(events []entity.ProcessedEvent) []entity.ProcessedEvent {
	seen := make(map[string]struct{}, len(events))
	out := make([]entity.ProcessedEvent, 0, len(events))
	for _, ev := range events {
		if _, ok := seen[ev.ID]; ok {
			continue
		}
		seen[ev.ID] = struct{}{}
		out = append(out, ev)
	}
	return out
}

// SortNewestFirst returns a copy ordered by timestamp descending; equal
// timestamps keep their encounter order
func SortNewestFirst(events []entity.ProcessedEvent) []entity.ProcessedEvent {
	out := make([]entity.ProcessedEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampMillis > out[j].TimestampMillis
	})
	return out
}

// DedupeAndSort removes duplicate identities then sorts newest first
func DedupeAndSort(events []entity.ProcessedEvent) []entity.ProcessedEvent {
	return SortNewestFirst(Dedupe(events))
}
