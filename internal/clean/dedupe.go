package clean

import "sync"

// defaultDedupeCap bounds the seen-key window. Duplicate raw rows sit next
// to each other in the export, so the window only needs to cover one file.
const defaultDedupeCap = 50000

// matchKeyDeduper records seen match keys so duplicate raw rows collapse to
// one canonical record. The key is (date, both player ids sorted, round).
// The window is bounded; once full, recording a new key evicts the oldest.
type matchKeyDeduper struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
	cap   int
}

func newMatchKeyDeduper() *matchKeyDeduper {
	return newBoundedDeduper(defaultDedupeCap)
}

func newBoundedDeduper(limit int) *matchKeyDeduper {
	return &matchKeyDeduper{
		seen: make(map[string]struct{}),
		cap:  limit,
	}
}

// SeenAndRecord atomically checks whether key was seen and records it if not.
// Returns true if the key was already seen.
func (d *matchKeyDeduper) SeenAndRecord(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return true
	}
	if len(d.order) >= d.cap {
		delete(d.seen, d.order[0])
		d.order = d.order[1:]
	}
	d.seen[key] = struct{}{}
	d.order = append(d.order, key)
	return false
}

// Size returns the number of recorded keys.
func (d *matchKeyDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
