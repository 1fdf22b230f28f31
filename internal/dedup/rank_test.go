package dedup

import "testing"

func ptr(v int64) *int64 { return &v }

func TestComputeDiscardSetKeepsHighestTrackCount(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, MasterID: ptr(100), TrackCount: 10},
		{ID: 2, MasterID: ptr(100), TrackCount: 12},
		{ID: 3, MasterID: ptr(100), TrackCount: 12},
	}
	discard := ComputeDiscardSet(candidates)
	if _, kept := discard[2]; kept {
		t.Fatalf("id 2 should survive: highest track count, lowest id among ties")
	}
	if _, discarded := discard[1]; !discarded {
		t.Fatalf("id 1 should be discarded")
	}
	if _, discarded := discard[3]; !discarded {
		t.Fatalf("id 3 should be discarded: tie broken by lower id")
	}
	if len(discard) != 2 {
		t.Fatalf("expected exactly 2 discards, got %+v", discard)
	}
}

func TestComputeDiscardSetIgnoresNilMasterID(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, MasterID: nil, TrackCount: 1},
		{ID: 2, MasterID: nil, TrackCount: 99},
	}
	discard := ComputeDiscardSet(candidates)
	if len(discard) != 0 {
		t.Fatalf("releases without a master id must never be grouped, got %+v", discard)
	}
}

func TestComputeDiscardSetSingletonGroupSurvives(t *testing.T) {
	candidates := []Candidate{{ID: 1, MasterID: ptr(100), TrackCount: 0}}
	discard := ComputeDiscardSet(candidates)
	if len(discard) != 0 {
		t.Fatalf("a lone release in its master group must survive, got %+v", discard)
	}
}

func TestComputeDiscardSetNoDuplicatesIsNoOp(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, MasterID: ptr(100), TrackCount: 5},
		{ID: 2, MasterID: ptr(200), TrackCount: 3},
	}
	discard := ComputeDiscardSet(candidates)
	if len(discard) != 0 {
		t.Fatalf("distinct master groups of size 1 should discard nothing, got %+v", discard)
	}
}

func TestComputeDiscardSetMultipleGroups(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, MasterID: ptr(100), TrackCount: 10},
		{ID: 2, MasterID: ptr(100), TrackCount: 5},
		{ID: 3, MasterID: ptr(200), TrackCount: 1},
		{ID: 4, MasterID: ptr(200), TrackCount: 2},
	}
	discard := ComputeDiscardSet(candidates)
	want := map[int64]struct{}{2: {}, 3: {}}
	if len(discard) != len(want) {
		t.Fatalf("expected %+v, got %+v", want, discard)
	}
	for id := range want {
		if _, ok := discard[id]; !ok {
			t.Fatalf("expected %d discarded, got %+v", id, discard)
		}
	}
}
