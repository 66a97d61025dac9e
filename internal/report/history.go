package report

import "sync"

// historyCap is how many recent compliance queries are kept for recall.
const historyCap = 5

// HistoryEntry is one recorded compliance search.
type HistoryEntry struct {
	Code  string `json:"code"`
	Found bool   `json:"found"`
}

// History is a newest-first rolling record of recent compliance searches.
// In-memory only; it resets with the process. Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

// Record prepends an entry, evicting the oldest past the cap.
func (h *History) Record(code string, found bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]HistoryEntry{{Code: code, Found: found}}, h.entries...)
	if len(h.entries) > historyCap {
		h.entries = h.entries[:historyCap]
	}
}

// Recent returns the recorded entries, newest first.
func (h *History) Recent() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}
