package domain

import "time"

// IdleState describes one power-down depth of a domain.
// Index 0 in a cost model is the shallowest, always-available state.
// Power is in bogo-watts: any consistent normalization works, the
// admission and energy math only ever compare values from one model.
type IdleState struct {
	Power        uint64        `json:"power" toml:"power"`
	EntryLatency time.Duration `json:"entry_latency" toml:"entry_latency"`
	ExitLatency  time.Duration `json:"exit_latency" toml:"exit_latency"`
	MinResidency time.Duration `json:"min_residency" toml:"min_residency"`
	Param        uint32        `json:"param" toml:"param"`
}

// TotalCost is the full overhead of entering and profiting from the
// state: entry latency + exit latency + minimum residency.
func (s IdleState) TotalCost() time.Duration {
	return s.EntryLatency + s.ExitLatency + s.MinResidency
}

// CapacityState describes one operating point of a domain.
type CapacityState struct {
	Capacity uint64 `json:"capacity" toml:"capacity"`
	Power    uint64 `json:"power" toml:"power"`
}

// CostModel carries the per-domain energy tables: ordered idle states
// (shallowest first) and capacity states (increasing capacity).
type CostModel struct {
	Idle     []IdleState     `json:"idle"`
	Capacity []CapacityState `json:"capacity"`
}

// Valid reports whether the model carries usable data. Domains with
// an invalid model are never admitted for power-down.
func (m CostModel) Valid() bool {
	return len(m.Idle) > 0 && len(m.Capacity) > 0
}

// Deepest returns the index of the deepest idle state, or -1 when the
// model has no idle data.
func (m CostModel) Deepest() int {
	return len(m.Idle) - 1
}
