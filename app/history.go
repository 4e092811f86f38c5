package app

// History is a fixed-capacity list of entries, most recent first. The oldest
// entry is dropped when a push would exceed the capacity. It is not safe for
// concurrent use; the Controller guards it.
type History struct {
	capacity int
	entries  []HistoryEntry
}

// NewHistory returns an empty History holding at most capacity entries.
// Capacities below one are raised to one.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity, entries: make([]HistoryEntry, 0, capacity)}
}

// Push prepends e, evicting the oldest entry on overflow.
func (h *History) Push(e HistoryEntry) {
	if len(h.entries) == h.capacity {
		h.entries = h.entries[:h.capacity-1]
	}
	h.entries = append(h.entries, HistoryEntry{})
	copy(h.entries[1:], h.entries)
	h.entries[0] = e
}

// Entries returns a copy of the list, most recent first.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Find looks an entry up by ID.
func (h *History) Find(id string) (HistoryEntry, bool) {
	for _, e := range h.entries {
		if e.ID == id {
			return e, true
		}
	}
	return HistoryEntry{}, false
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}
