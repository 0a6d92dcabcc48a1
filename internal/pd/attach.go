package pd

import (
	"errors"
	"fmt"
	"log"

	"github.com/cpupd-dev/cpupd/internal/domain"
)

// DeviceAttacher is the generic device power-management collaborator
// a CPU is attached through. Status 0 is success; anything else is a
// collaborator-specific code reported upward but never allowed to
// block membership propagation.
type DeviceAttacher interface {
	AttachDevice(cpu int) int
}

// Attacher connects CPUs to their leaf domains and propagates
// membership up the parent chain.
type Attacher struct {
	builder *Builder
	devices DeviceAttacher // optional
}

// NewAttacher creates an attacher. devices may be nil.
func NewAttacher(builder *Builder, devices DeviceAttacher) *Attacher {
	return &Attacher{builder: builder, devices: devices}
}

// Attach resolves the CPU's leaf domain, issues the generic attach
// request, and inserts the CPU into the member set of the leaf and
// every ancestor. Membership propagates even when the generic attach
// reports a failure: a CPU already attached through another path
// still belongs under its domains for admission purposes.
func (a *Attacher) Attach(cpu int) error {
	leaf, ok := a.builder.desc.CpuDomain(cpu)
	if !ok {
		return fmt.Errorf("cpu%d: %w", cpu, domain.ErrNotFound)
	}

	h, err := a.builder.Resolve(leaf)
	if err != nil {
		return fmt.Errorf("cpu%d: resolve %s: %w", cpu, leaf, err)
	}

	status := 0
	if a.devices != nil {
		status = a.devices.AttachDevice(cpu)
		if status != 0 {
			log.Printf("[pd] WARNING: unable to attach cpu%d to power-domain: status %d", cpu, status)
		}
	}

	// A leaf that resolved to a generic provider is not ours to
	// account CPUs against.
	if d := h.Domain(); d != nil {
		a.propagate(d, cpu)
	}

	if status != 0 {
		return fmt.Errorf("cpu%d: generic attach status %d", cpu, status)
	}
	return nil
}

// propagate inserts the CPU into the member set of d and all its
// ancestors, under the build lock so it cannot race domain creation.
// Inserting an already-present CPU is a no-op at every level.
func (a *Attacher) propagate(d *PowerDomain, cpu int) {
	a.builder.reg.buildMu.Lock()
	defer a.builder.reg.buildMu.Unlock()

	for cur := d; cur != nil; {
		cur.addMember(cpu)
		p := cur.Parent()
		if p == "" {
			return
		}
		next, ok := a.builder.reg.Find(p)
		if !ok {
			return
		}
		cur = next
	}
}

// AttachAll attaches every described CPU. One CPU's failure does not
// prevent attaching the others; failures come back joined.
func (a *Attacher) AttachAll() error {
	var errs []error
	for _, cpu := range a.builder.desc.Cpus() {
		if err := a.Attach(cpu); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
