package scope

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/perms"
)

type record struct {
	ID   uint
	Name string
}

func recordID(r record) uint { return r.ID }

func fixed(calls *int32, items ...record) Query[record] {
	return func() ([]record, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return items, nil
	}
}

func failing(calls *int32) Query[record] {
	return func() ([]record, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return nil, errors.New("backend unavailable")
	}
}

func TestUnionDeduplicatesOverlap(t *testing.T) {
	t1 := record{ID: 1, Name: "T1"}
	t2 := record{ID: 2, Name: "T2"}
	t3 := record{ID: 3, Name: "T3"}

	// Owner query returns [T1, T2], membership query returns [T2, T3]
	merged, err := Union(recordID, fixed(nil, t1, t2), fixed(nil, t2, t3))
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}

	if len(merged) != 3 {
		t.Fatalf("Expected 3 distinct records, got %d", len(merged))
	}
	seen := map[uint]int{}
	for _, r := range merged {
		seen[r.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("Expected record %d exactly once, got %d", id, n)
		}
	}
	for _, id := range []uint{1, 2, 3} {
		if seen[id] != 1 {
			t.Errorf("Expected record %d in merged output", id)
		}
	}
}

func TestUnionSizeEqualsIDSetCardinality(t *testing.T) {
	a := fixed(nil, record{ID: 1}, record{ID: 2}, record{ID: 3})
	b := fixed(nil, record{ID: 2}, record{ID: 3}, record{ID: 4})
	c := fixed(nil, record{ID: 1}, record{ID: 5})

	merged, err := Union(recordID, a, b, c)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	if len(merged) != 5 {
		t.Errorf("Expected union cardinality 5, got %d", len(merged))
	}
}

func TestUnionLastWriteWinsPerID(t *testing.T) {
	a := fixed(nil, record{ID: 1, Name: "from-owner"})
	b := fixed(nil, record{ID: 1, Name: "from-membership"})

	merged, err := Union(recordID, a, b)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(merged))
	}
	if merged[0].Name != "from-membership" {
		t.Errorf("Expected later query to win for duplicate id, got %q", merged[0].Name)
	}
}

func TestUnionEmptyInputs(t *testing.T) {
	merged, err := Union(recordID, fixed(nil), fixed(nil))
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	if merged == nil {
		t.Fatal("Expected settled empty union to be an empty slice, not nil")
	}
	if len(merged) != 0 {
		t.Errorf("Expected empty union, got %d records", len(merged))
	}
}

func TestModeFor(t *testing.T) {
	cases := []struct {
		name string
		p    perms.Permissions
		want ViewMode
	}{
		{"not ready", perms.Permissions{}, ViewUnresolved},
		{"not ready with flags", perms.Permissions{IsManager: true}, ViewUnresolved},
		{"manager", perms.Permissions{IsManager: true, Ready: true}, ViewElevated},
		{"dev", perms.Permissions{IsDev: true, Ready: true}, ViewElevated},
		{"both", perms.Permissions{IsManager: true, IsDev: true, Ready: true}, ViewElevated},
		{"neither", perms.Permissions{Ready: true}, ViewScoped},
	}

	for _, tc := range cases {
		if got := ModeFor(tc.p); got != tc.want {
			t.Errorf("%s: expected mode %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestSelectElevatedIssuesOnlyBroadQuery(t *testing.T) {
	var broadCalls, ownerCalls, memberCalls int32
	broad := fixed(&broadCalls, record{ID: 1}, record{ID: 2})
	owner := fixed(&ownerCalls, record{ID: 1})
	member := fixed(&memberCalls, record{ID: 2})

	res, err := Select(ViewElevated, recordID, broad, owner, member)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if broadCalls != 1 {
		t.Errorf("Expected exactly one broad query, got %d", broadCalls)
	}
	if ownerCalls != 0 || memberCalls != 0 {
		t.Error("Expected owner/membership queries to be suppressed for elevated view")
	}
	if res.Loading {
		t.Error("Expected settled result")
	}
	if len(res.Items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(res.Items))
	}
}

func TestSelectScopedIssuesExactlyOwnerAndMemberQueries(t *testing.T) {
	var broadCalls, ownerCalls, memberCalls int32
	broad := fixed(&broadCalls, record{ID: 1}, record{ID: 2}, record{ID: 3})
	owner := fixed(&ownerCalls, record{ID: 1}, record{ID: 2})
	member := fixed(&memberCalls, record{ID: 2}, record{ID: 3})

	res, err := Select(ViewScoped, recordID, broad, owner, member)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if broadCalls != 0 {
		t.Error("Expected broad query to never be issued for scoped view")
	}
	if ownerCalls != 1 || memberCalls != 1 {
		t.Errorf("Expected owner and membership queries exactly once, got %d and %d", ownerCalls, memberCalls)
	}
	if len(res.Items) != 3 {
		t.Errorf("Expected union of 3 items, got %d", len(res.Items))
	}
}

func TestSelectUnresolvedIssuesNothing(t *testing.T) {
	var broadCalls, ownerCalls, memberCalls int32
	broad := fixed(&broadCalls)
	owner := fixed(&ownerCalls)
	member := fixed(&memberCalls)

	res, err := Select(ViewUnresolved, recordID, broad, owner, member)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if broadCalls != 0 || ownerCalls != 0 || memberCalls != 0 {
		t.Error("Expected no queries while permissions are unresolved")
	}
	if !res.Loading {
		t.Error("Expected loading result while unresolved")
	}
	if res.Items != nil {
		t.Error("Expected nil items before first resolution")
	}
}

func TestSelectScopedEmptyResultsSettle(t *testing.T) {
	res, err := Select(ViewScoped, recordID, fixed(nil), fixed(nil), fixed(nil))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if res.Loading {
		t.Error("Expected empty scoped view to settle, not stay loading")
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Error("Expected empty (non-nil) item list")
	}
}

func TestSelectQueryFailureStaysLoading(t *testing.T) {
	var ownerCalls int32
	res, err := Select(ViewScoped, recordID, fixed(nil), fixed(&ownerCalls, record{ID: 1}), failing(nil))
	if err == nil {
		t.Fatal("Expected error from failing membership query")
	}
	if !res.Loading {
		t.Error("Expected loading result when a contributing query fails")
	}
	if res.Items != nil {
		t.Error("Partial data must never be presented as complete")
	}
}
