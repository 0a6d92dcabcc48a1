package pd

import (
	"sync"
	"sync/atomic"
	"time"
)

// FixedLatency is a LatencyProvider returning a constant tolerance.
// Useful for one-shot evaluations and tests; production integrators
// back this with their QoS framework.
type FixedLatency time.Duration

// LatencyTolerance implements LatencyProvider.
func (f FixedLatency) LatencyTolerance() time.Duration { return time.Duration(f) }

// AdjustableLatency is a LatencyProvider whose tolerance can change
// at runtime, e.g. when a latency-critical workload arrives. Reads
// are a single atomic load so the admission path stays lock-free.
type AdjustableLatency struct {
	ns atomic.Int64
}

// Set updates the tolerance. Zero forbids all power-down.
func (l *AdjustableLatency) Set(d time.Duration) { l.ns.Store(int64(d)) }

// LatencyTolerance implements LatencyProvider.
func (l *AdjustableLatency) LatencyTolerance() time.Duration {
	return time.Duration(l.ns.Load())
}

// CpuStateTable is an in-memory CPUStates implementation. The daemon
// feeds it from its collaborators; tests feed it directly.
//
// CPUs default to online with no scheduled wakeup, the state of a
// freshly booted, fully idle system.
type CpuStateTable struct {
	mu      sync.RWMutex
	offline map[int]bool
	wakeups map[int]time.Time
}

// NewCpuStateTable returns a table with every CPU online and
// unconstrained.
func NewCpuStateTable() *CpuStateTable {
	return &CpuStateTable{
		offline: make(map[int]bool),
		wakeups: make(map[int]time.Time),
	}
}

// SetOnline marks a CPU online or offline.
func (t *CpuStateTable) SetOnline(cpu int, online bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if online {
		delete(t.offline, cpu)
	} else {
		t.offline[cpu] = true
	}
}

// SetWakeup schedules the CPU's next required wakeup instant.
func (t *CpuStateTable) SetWakeup(cpu int, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wakeups[cpu] = at
}

// ClearWakeup removes any scheduled wakeup for the CPU.
func (t *CpuStateTable) ClearWakeup(cpu int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.wakeups, cpu)
}

// Online implements CPUStates.
func (t *CpuStateTable) Online(cpu int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.offline[cpu]
}

// NextWakeup implements CPUStates.
func (t *CpuStateTable) NextWakeup(cpu int) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	at, ok := t.wakeups[cpu]
	return at, ok
}
