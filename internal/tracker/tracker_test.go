package tracker

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kingrea/ecotrack/internal/domain"
)

func seeded(t *testing.T, items ...domain.Action) *Tracker {
	t.Helper()
	tr := New()
	tr.BeginLoad()
	tr.FinishLoad(items, nil)
	return tr
}

func ids(items []domain.Action) []int64 {
	out := make([]int64, 0, len(items))
	for _, a := range items {
		out = append(out, a.ID)
	}
	return out
}

func TestLoadLifecycle(t *testing.T) {
	tr := New()
	if tr.Status() != StatusLoading {
		t.Fatalf("new tracker should be loading, got %s", tr.Status())
	}
	tr.FinishLoad([]domain.Action{{ID: 1, Action: "Recycling", Date: "2025-01-08", Points: 25}}, nil)
	if tr.Status() != StatusLoaded || tr.Len() != 1 {
		t.Fatalf("expected loaded with one item, got %s/%d", tr.Status(), tr.Len())
	}

	tr.BeginLoad()
	if tr.Status() != StatusLoading {
		t.Fatalf("refresh should re-enter loading")
	}
	tr.FinishLoad(nil, errors.New("connection refused"))
	if tr.Status() != StatusError {
		t.Fatalf("expected error status, got %s", tr.Status())
	}
	if tr.LoadError() != LoadErrorMessage {
		t.Fatalf("expected fixed banner text, got %q", tr.LoadError())
	}
	if tr.Len() != 1 {
		t.Fatalf("failed load must retain the previous list, got %d items", tr.Len())
	}

	tr.BeginLoad()
	if tr.LoadError() != "" {
		t.Fatalf("BeginLoad should clear the banner")
	}
	tr.FinishLoad([]domain.Action{}, nil)
	if tr.Len() != 0 || tr.Status() != StatusLoaded {
		t.Fatalf("successful empty load should clear the list")
	}
}

func TestFinishLoadDropsDuplicateIDs(t *testing.T) {
	tr := seeded(t,
		domain.Action{ID: 1, Action: "a"},
		domain.Action{ID: 2, Action: "b"},
		domain.Action{ID: 1, Action: "dup"},
	)
	if got := ids(tr.Items()); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Fatalf("ids = %v, want [1 2]", got)
	}
	if a, _ := tr.Get(1); a.Action != "a" {
		t.Fatalf("first occurrence should win, got %q", a.Action)
	}
}

func TestApplyCreateAppendsExactlyOnce(t *testing.T) {
	tr := seeded(t, domain.Action{ID: 5, Action: "Composting"})
	created := domain.Action{ID: 1, Action: "Recycling", Date: "2025-01-08", Points: 25}
	tr.ApplyCreate(created)
	if got := ids(tr.Items()); !reflect.DeepEqual(got, []int64{5, 1}) {
		t.Fatalf("create should append to the end, got %v", got)
	}

	// Server and cache diverged: same id comes back again.
	again := created
	again.Points = 40
	tr.ApplyCreate(again)
	if tr.Len() != 2 {
		t.Fatalf("duplicate id must not be appended twice, len=%d", tr.Len())
	}
	if a, _ := tr.Get(1); a.Points != 40 {
		t.Fatalf("expected in-place replacement, got %+v", a)
	}
}

func TestApplyUpdateTouchesOnlyMatchingRow(t *testing.T) {
	tr := seeded(t,
		domain.Action{ID: 1, Action: "Composting", Date: "2025-01-10", Points: 10},
		domain.Action{ID: 2, Action: "Bike", Date: "2025-01-11", Points: 5},
	)
	before := tr.Items()
	tr.ApplyUpdate(1, domain.Action{ID: 1, Action: "Composting", Date: "2025-01-10", Points: 30})
	after := tr.Items()
	if after[0].Points != 30 {
		t.Fatalf("row 1 not updated: %+v", after[0])
	}
	if after[1] != before[1] {
		t.Fatalf("row 2 changed: %+v -> %+v", before[1], after[1])
	}

	tr.ApplyUpdate(99, domain.Action{ID: 99, Action: "ghost"})
	if tr.Len() != 2 {
		t.Fatalf("unknown id must not be inserted")
	}

	// The cached id wins over whatever the response body says.
	tr.ApplyUpdate(2, domain.Action{ID: 7, Action: "Bike", Points: 6})
	if _, ok := tr.Get(7); ok {
		t.Fatalf("id must be immutable")
	}
	if a, _ := tr.Get(2); a.Points != 6 {
		t.Fatalf("row 2 not updated: %+v", a)
	}
}

func TestApplyDeleteRequiresOK(t *testing.T) {
	tr := seeded(t, domain.Action{ID: 1}, domain.Action{ID: 2}, domain.Action{ID: 3})
	tr.ApplyDelete(2, false)
	if tr.Len() != 3 {
		t.Fatalf("non-204 delete must leave the list unchanged")
	}
	tr.ApplyDelete(2, true)
	if got := ids(tr.Items()); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("ids = %v, want [1 3]", got)
	}
	tr.ApplyDelete(42, true)
	if tr.Len() != 2 {
		t.Fatalf("unknown id delete must be a no-op")
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	tr := seeded(t, domain.Action{ID: 1, Points: 3})
	items := tr.Items()
	items[0].Points = 100
	if a, _ := tr.Get(1); a.Points != 3 {
		t.Fatalf("mutating Items() leaked into tracker")
	}
}

func TestTotalPoints(t *testing.T) {
	tr := seeded(t, domain.Action{ID: 1, Points: 25}, domain.Action{ID: 2, Points: 10})
	if tr.TotalPoints() != 35 {
		t.Fatalf("total = %d, want 35", tr.TotalPoints())
	}
	tr.ApplyDelete(1, true)
	if tr.TotalPoints() != 10 {
		t.Fatalf("total after delete = %d, want 10", tr.TotalPoints())
	}
}
