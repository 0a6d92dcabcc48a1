// Package pd implements the hierarchical CPU power-domain model:
// the domain registry, the hierarchy builder, CPU attachment and the
// power-down admission engine.
//
// Concurrency contract: domain construction and membership changes
// serialize on the registry's build lock; admission and power
// transitions only read state that was published with atomics, so
// they never block on a builder.
package pd

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cpupd-dev/cpupd/internal/domain"
)

// Ops is the platform callback pair for one domain. A nil callback
// is treated as success, mirroring firmware-less domains.
type Ops struct {
	PowerOn  func() int
	PowerOff func(stateIdx int, param uint32, members domain.CpuSet) int
}

// PowerDomain is one node of the power-domain hierarchy.
//
// The member set accumulates every CPU physically inside the domain,
// descendants included; it only ever grows. Parent is a registry key,
// not a pointer, so the domain graph has no ownership cycles.
type PowerDomain struct {
	Name       string
	ProviderID string
	Cost       domain.CostModel
	Ops        Ops

	parent   string // set at most once, under the build lock
	members  atomic.Pointer[domain.CpuSet]
	selected atomic.Int32 // last selected idle-state index
}

func newPowerDomain(name string, cost domain.CostModel, ops Ops) *PowerDomain {
	d := &PowerDomain{
		Name:       name,
		ProviderID: uuid.NewString(),
		Cost:       cost,
		Ops:        ops,
	}
	empty := domain.CpuSet{}
	d.members.Store(&empty)
	return d
}

// Parent returns the parent domain name, or "" for a root.
func (d *PowerDomain) Parent() string { return d.parent }

// Members returns the published member snapshot. Safe for concurrent
// readers while CPUs are being attached.
func (d *PowerDomain) Members() domain.CpuSet {
	return *d.members.Load()
}

// addMember inserts a CPU into the member set, copy-on-write.
// Caller holds the build lock. Inserting a present CPU is a no-op.
func (d *PowerDomain) addMember(cpu int) {
	cur := d.members.Load()
	if cur.Contains(cpu) {
		return
	}
	next := cur.Clone()
	next.Set(cpu)
	d.members.Store(&next)
}

// setParent records the parent link. First writer wins; the builder
// only links a freshly created domain, so a second call never
// carries a different parent.
func (d *PowerDomain) setParent(name string) {
	if d.parent == "" {
		d.parent = name
	}
}

// SelectedState returns the idle-state index chosen by the last
// admission evaluation. 0 when the domain was vetoed.
func (d *PowerDomain) SelectedState() int {
	return int(d.selected.Load())
}

func (d *PowerDomain) setSelectedState(i int) {
	d.selected.Store(int32(i))
}

// PowerOn invokes the platform power_on callback. No callback means
// the domain needs no firmware help to come up: status 0.
func (d *PowerDomain) PowerOn() int {
	if d.Ops.PowerOn == nil {
		return 0
	}
	return d.Ops.PowerOn()
}

// PowerOff invokes the platform power_off callback with the selected
// state index, that state's firmware param, and the accumulated
// member set. Status codes pass through verbatim.
func (d *PowerDomain) PowerOff() int {
	if d.Ops.PowerOff == nil {
		return 0
	}
	idx := d.SelectedState()
	var param uint32
	if idx >= 0 && idx < len(d.Cost.Idle) {
		param = d.Cost.Idle[idx].Param
	}
	return d.Ops.PowerOff(idx, param, d.Members())
}
