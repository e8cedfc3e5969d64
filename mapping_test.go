package opensched

import "testing"

func TestFirstUnusedPreferredOrder(t *testing.T) {
	fu := &FirstUnused{PreferredCoresOrder: []Tcore{3, 1, 0, 2}}
	available := []bool{true, true, true, true}
	active := []bool{false, false, false, false}

	got := fu.Map("parsec-canneal-native-2", 2, available, active)
	want := []Tcore{3, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Map()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFirstUnusedFallsBackToIndexOrder(t *testing.T) {
	fu := &FirstUnused{}
	available := []bool{false, true, false, true}
	active := []bool{true, false, true, false}

	got := fu.Map("parsec-canneal-native-2", 2, available, active)
	want := []Tcore{1, 3}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Map() = %v, want %v", got, want)
	}
}

func TestFirstUnusedRefusesWhenNotEnoughCores(t *testing.T) {
	fu := &FirstUnused{}
	available := []bool{true, false, false}
	active := []bool{false, false, false}

	got := fu.Map("parsec-canneal-native-2", 2, available, active)
	if len(got) >= 2 {
		t.Errorf("Map() returned %d cores, want fewer than requested (refusal)", len(got))
	}
}

func TestFirstUnusedSkipsOutOfRangePreferredCores(t *testing.T) {
	fu := &FirstUnused{PreferredCoresOrder: []Tcore{99, 0}}
	available := []bool{true, true}
	active := []bool{false, false}

	got := fu.Map("parsec-canneal-native-1", 1, available, active)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("Map() = %v, want [0]", got)
	}
}

func TestParseMappingPolicyUnknown(t *testing.T) {
	cfg := NewMapConfig()
	if _, err := ParseMappingPolicy("round_robin", 2, 2, cfg); err == nil {
		t.Errorf("expected error for unknown mapping policy name")
	}
}

func TestNewFirstUnusedReadsPreferredCoreArray(t *testing.T) {
	cfg := NewMapConfig()
	cfg.IntArrays["scheduler/open/preferred_core"] = []int64{2, 0, 1, -1}
	fu := NewFirstUnused(2, 2, cfg)
	want := []Tcore{2, 0, 1}
	if len(fu.PreferredCoresOrder) != len(want) {
		t.Fatalf("PreferredCoresOrder = %v, want %v", fu.PreferredCoresOrder, want)
	}
	for i := range want {
		if fu.PreferredCoresOrder[i] != want[i] {
			t.Errorf("PreferredCoresOrder[%d] = %d, want %d", i, fu.PreferredCoresOrder[i], want[i])
		}
	}
}
