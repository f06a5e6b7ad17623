package model

import "testing"

// TestRemainingCapacity_NeverNegative verifies the capacity invariant
// holds for every count up to and beyond the ceiling.
func TestRemainingCapacity_NeverNegative(t *testing.T) {
	m := &Match{MaxCapacity: 10, Status: MatchAvailable}
	for count := uint32(0); count <= 12; count++ {
		m.CurrentParticipantCount = count
		got := m.RemainingCapacity()
		if count <= 10 && got != 10-count {
			t.Errorf("count=%d: remaining = %d, want %d", count, got, 10-count)
		}
		if count > 10 && got != 0 {
			t.Errorf("count=%d: remaining = %d, want clamped 0", count, got)
		}
	}
}

// TestIsFull_DerivedFromCount verifies fullness is a pure predicate
// over the count, independent of the stored status string.
func TestIsFull_DerivedFromCount(t *testing.T) {
	m := &Match{MaxCapacity: 3, CurrentParticipantCount: 2, Status: MatchFull}
	if m.IsFull() {
		t.Error("match with remaining capacity reported full")
	}
	m.CurrentParticipantCount = 3
	m.Status = MatchAvailable
	if !m.IsFull() {
		t.Error("match at capacity not reported full")
	}
}

func TestDeriveStatus_Transitions(t *testing.T) {
	tests := []struct {
		name   string
		status string
		max    uint32
		count  uint32
		want   string
	}{
		{"below capacity stays available", MatchAvailable, 10, 9, MatchAvailable},
		{"at capacity becomes full", MatchAvailable, 10, 10, MatchFull},
		{"freed slot reopens", MatchFull, 10, 9, MatchAvailable},
		{"cancelled is terminal", MatchCancelled, 10, 0, MatchCancelled},
		{"closed is terminal", MatchClosed, 10, 2, MatchClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Match{MaxCapacity: tt.max, Status: tt.status}
			if got := m.DeriveStatus(tt.count); got != tt.want {
				t.Errorf("DeriveStatus(%d) = %q, want %q", tt.count, got, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		MatchAvailable: false,
		MatchFull:      false,
		MatchCancelled: true,
		MatchClosed:    true,
	} {
		m := &Match{Status: status}
		if m.IsTerminal() != want {
			t.Errorf("IsTerminal() for %s = %v, want %v", status, !want, want)
		}
	}
}
