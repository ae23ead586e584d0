// Package tracker holds the in-memory list of actions and reconciles it with
// server responses. It performs no I/O; the caller runs the request and
// reports the outcome.
package tracker

import (
	"github.com/kingrea/ecotrack/internal/domain"
)

// LoadStatus tracks the list-fetch operation only.
type LoadStatus int

const (
	StatusLoading LoadStatus = iota
	StatusLoaded
	StatusError
)

// LoadErrorMessage is shown when the list fetch fails.
const LoadErrorMessage = "Failed to load actions."

func (s LoadStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Tracker owns the cached list. A failed load keeps the previous items.
type Tracker struct {
	items   []domain.Action
	status  LoadStatus
	loadErr string
}

// New returns a tracker in the loading state with an empty list.
func New() *Tracker {
	return &Tracker{status: StatusLoading}
}

// Status reports the state of the most recent list fetch.
func (t *Tracker) Status() LoadStatus { return t.status }

// LoadError returns the banner text for a failed fetch, or "".
func (t *Tracker) LoadError() string { return t.loadErr }

// BeginLoad marks a fetch as in flight and clears any previous load error.
func (t *Tracker) BeginLoad() {
	t.status = StatusLoading
	t.loadErr = ""
}

// FinishLoad records the outcome of a fetch. On success the list is replaced
// (later duplicates of an id are dropped); on failure the list is kept.
func (t *Tracker) FinishLoad(items []domain.Action, err error) {
	if err != nil {
		t.status = StatusError
		t.loadErr = LoadErrorMessage
		return
	}
	seen := make(map[int64]struct{}, len(items))
	next := make([]domain.Action, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		next = append(next, item)
	}
	t.items = next
	t.status = StatusLoaded
	t.loadErr = ""
}

// ApplyCreate appends a created record. If the id is already cached the
// entry is replaced in place instead, keeping ids unique.
func (t *Tracker) ApplyCreate(a domain.Action) {
	if i := t.index(a.ID); i >= 0 {
		t.items[i] = a
		return
	}
	t.items = append(t.items, a)
}

// ApplyUpdate replaces the entry with the given id. Unknown ids are ignored.
func (t *Tracker) ApplyUpdate(id int64, a domain.Action) {
	i := t.index(id)
	if i < 0 {
		return
	}
	a.ID = id
	t.items[i] = a
}

// ApplyDelete removes the entry with the given id when ok is true.
func (t *Tracker) ApplyDelete(id int64, ok bool) {
	if !ok {
		return
	}
	i := t.index(id)
	if i < 0 {
		return
	}
	t.items = append(t.items[:i:i], t.items[i+1:]...)
}

// Items returns a copy of the cached list in display order.
func (t *Tracker) Items() []domain.Action {
	out := make([]domain.Action, len(t.items))
	copy(out, t.items)
	return out
}

// Get returns the cached record for id.
func (t *Tracker) Get(id int64) (domain.Action, bool) {
	if i := t.index(id); i >= 0 {
		return t.items[i], true
	}
	return domain.Action{}, false
}

// Len returns the number of cached records.
func (t *Tracker) Len() int { return len(t.items) }

// TotalPoints sums points across the cached list.
func (t *Tracker) TotalPoints() int64 {
	var total int64
	for _, a := range t.items {
		total += a.Points
	}
	return total
}

func (t *Tracker) index(id int64) int {
	for i, a := range t.items {
		if a.ID == id {
			return i
		}
	}
	return -1
}
