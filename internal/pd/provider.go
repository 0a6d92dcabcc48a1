package pd

import (
	"fmt"
	"sync"
)

// Handle is the externally visible provider handle for a resolved
// domain. Generic domains created outside this package also appear
// as handles; those carry no *PowerDomain and are never consulted by
// the admission engine.
type Handle struct {
	Name string
	ID   string

	pd *PowerDomain // nil for generic, non-CPU domains

	mu       sync.Mutex
	children []*Handle
}

// Domain returns the internal CPU power domain behind the handle,
// or nil for a generic domain.
func (h *Handle) Domain() *PowerDomain { return h.pd }

// IsCPUDomain reports whether the handle fronts a CPU power domain.
func (h *Handle) IsCPUDomain() bool { return h.pd != nil }

// Subdomains returns a snapshot of the linked child handles.
func (h *Handle) Subdomains() []*Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Handle, len(h.children))
	copy(out, h.children)
	return out
}

func (h *Handle) addSubdomain(child *Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.children {
		if c == child {
			return
		}
	}
	h.children = append(h.children, child)
}

// Providers is the provider table other subsystems resolve domains
// through. Generic domains may be advertised here before the
// hierarchy builder ever runs; the builder then returns them as-is
// instead of creating a CPU domain with the same identity.
type Providers struct {
	mu sync.Mutex
	m  map[string]*Handle
}

// NewProviders returns an empty provider table.
func NewProviders() *Providers {
	return &Providers{m: make(map[string]*Handle)}
}

// Lookup resolves a provider handle by name.
func (p *Providers) Lookup(name string) (*Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.m[name]
	return h, ok
}

// Advertise publishes a handle for a CPU power domain. If another
// provider claimed the name in the meantime the advertisement fails;
// the returned handle is still valid for internal use, it just is
// not resolvable by external consumers.
func (p *Providers) Advertise(d *PowerDomain) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := &Handle{Name: d.Name, ID: d.ProviderID, pd: d}
	if _, taken := p.m[d.Name]; taken {
		return h, fmt.Errorf("provider name %q already claimed", d.Name)
	}
	p.m[d.Name] = h
	return h, nil
}

// AdvertiseGeneric publishes a non-CPU domain handle, the way an
// unrelated subsystem would register its own provider.
func (p *Providers) AdvertiseGeneric(name, id string) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.m[name]; ok {
		return h
	}
	h := &Handle{Name: name, ID: id}
	p.m[name] = h
	return h
}
