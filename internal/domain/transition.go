package domain

import "time"

// TransitionKind distinguishes journal entries.
type TransitionKind string

const (
	TransitionPowerOn  TransitionKind = "power_on"
	TransitionPowerOff TransitionKind = "power_off"
)

// Transition is one recorded power callback invocation.
type Transition struct {
	ID         int64          `json:"id"`
	Domain     string         `json:"domain"`
	Kind       TransitionKind `json:"kind"`
	StateIndex int            `json:"state_index"`
	Param      uint32         `json:"param"`
	Cpus       string         `json:"cpus"`
	Status     int            `json:"status"`
	At         time.Time      `json:"at"`
}
