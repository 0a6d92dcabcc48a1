package domain

import (
	"testing"
	"time"
)

func TestIdleState_TotalCost(t *testing.T) {
	s := IdleState{
		EntryLatency: 300 * time.Microsecond,
		ExitLatency:  1200 * time.Microsecond,
		MinResidency: 2000 * time.Microsecond,
	}
	if got := s.TotalCost(); got != 3500*time.Microsecond {
		t.Errorf("TotalCost() = %v, want 3.5ms", got)
	}
}

func TestCostModel_Valid(t *testing.T) {
	tests := []struct {
		name string
		m    CostModel
		want bool
	}{
		{"empty", CostModel{}, false},
		{"idle only", CostModel{Idle: []IdleState{{Power: 1}}}, false},
		{"capacity only", CostModel{Capacity: []CapacityState{{Capacity: 1, Power: 1}}}, false},
		{"both", CostModel{
			Idle:     []IdleState{{Power: 1}},
			Capacity: []CapacityState{{Capacity: 1, Power: 1}},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCostModel_Deepest(t *testing.T) {
	m := CostModel{Idle: []IdleState{{}, {}, {}}}
	if got := m.Deepest(); got != 2 {
		t.Errorf("Deepest() = %d, want 2", got)
	}
	var empty CostModel
	if got := empty.Deepest(); got != -1 {
		t.Errorf("Deepest() on empty = %d, want -1", got)
	}
}
