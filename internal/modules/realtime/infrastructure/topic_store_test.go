package infrastructure

import (
	"fmt"
	"sync"
	"testing"

	"toolEaseRt/internal/modules/realtime/domain"
)

func rec(id string) domain.Record { return domain.Record{"id": id} }

func ids(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r["id"].(string))
	}
	return out
}

func TestTopicStoreKeepsLastCapacityRecords(t *testing.T) {
	t.Parallel()

	store := NewTopicStore("bookings", 3)
	for i := 1; i <= 5; i++ {
		store.Append(rec(fmt.Sprintf("R%d", i)))
	}

	got := ids(store.Snapshot())
	want := []string{"R3", "R4", "R5"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("snapshot expected %v got %v", want, got)
	}
	if store.Len() != 3 || store.Cap() != 3 {
		t.Fatalf("unexpected len/cap %d/%d", store.Len(), store.Cap())
	}
}

func TestTopicStoreWindowAcrossManyWraps(t *testing.T) {
	t.Parallel()

	const capacity = 7
	store := NewTopicStore("revenue", capacity)
	for n := 1; n <= 50; n++ {
		store.Append(rec(fmt.Sprintf("%d", n)))
		got := ids(store.Snapshot())
		first := n - capacity + 1
		if first < 1 {
			first = 1
		}
		if len(got) != n-first+1 {
			t.Fatalf("after %d appends expected %d records got %d", n, n-first+1, len(got))
		}
		for i, id := range got {
			if id != fmt.Sprintf("%d", first+i) {
				t.Fatalf("after %d appends order broken: %v", n, got)
			}
		}
	}
}

func TestTopicStoreTail(t *testing.T) {
	t.Parallel()

	store := NewTopicStore("issues", 4)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		store.Append(rec(id))
	}
	if got := ids(store.Tail(2)); fmt.Sprint(got) != "[d e]" {
		t.Fatalf("unexpected tail: %v", got)
	}
	if got := ids(store.Tail(10)); fmt.Sprint(got) != "[b c d e]" {
		t.Fatalf("unexpected oversized tail: %v", got)
	}
}

func TestTopicStoreSnapshotDoesNotAlias(t *testing.T) {
	t.Parallel()

	store := NewTopicStore("feedback", 2)
	store.Append(rec("a"))
	snap := store.Snapshot()
	store.Append(rec("b"))
	store.Append(rec("c"))
	if got := ids(snap); fmt.Sprint(got) != "[a]" {
		t.Fatalf("snapshot changed after appends: %v", got)
	}
}

func TestTopicStoreDefaultsCapacity(t *testing.T) {
	t.Parallel()

	if got := NewTopicStore("x", 0).Cap(); got != DefaultHistoryCapacity {
		t.Fatalf("expected default capacity %d got %d", DefaultHistoryCapacity, got)
	}
}

func TestTopicStoreConcurrentAppendAndSnapshot(t *testing.T) {
	t.Parallel()

	store := NewTopicStore("geofence", 16)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				store.Append(domain.Record{"id": fmt.Sprintf("%d-%d", w, i), "worker": w})
			}
		}(w)
	}
	for i := 0; i < 200; i++ {
		for _, r := range store.Snapshot() {
			if r == nil || r["id"] == nil {
				t.Fatalf("torn record observed: %#v", r)
			}
		}
	}
	wg.Wait()
	if store.Len() != 16 {
		t.Fatalf("expected full store, got %d", store.Len())
	}
}

func TestStoreRegistry(t *testing.T) {
	t.Parallel()

	table, err := domain.NewTopicTable(domain.DefaultTopicRoutes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reg := NewStoreRegistry(table, 5)
	if len(reg.Keys()) != 9 {
		t.Fatalf("expected 9 stores, got %v", reg.Keys())
	}
	if !reg.Append("bookings", rec("B1")) {
		t.Fatal("expected append to known key")
	}
	if reg.Append("unknown", rec("X")) {
		t.Fatal("expected append to unknown key to fail")
	}
	s, ok := reg.Store("bookings")
	if !ok || s.Len() != 1 || s.Cap() != 5 {
		t.Fatalf("unexpected bookings store state ok=%v", ok)
	}
}
