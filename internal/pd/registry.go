package pd

import (
	"sync"
)

// Registry is the process-wide table of CPU power domains, keyed by
// domain name.
//
// Reads are wait-free (sync.Map) and frequent: the admission path
// and power transitions resolve domains through it. Writes happen
// only during hierarchy construction and serialize on the build
// lock, which CPU attachment shares so membership propagation never
// races domain creation. There is no removal; the registry lives for
// the process.
type Registry struct {
	buildMu sync.Mutex // serializes builds and membership propagation
	domains sync.Map   // name -> *PowerDomain
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Find looks up a domain by name. Never blocks, never observes a
// partially constructed domain: domains are fully initialized before
// insertion publishes them.
func (r *Registry) Find(name string) (*PowerDomain, bool) {
	v, ok := r.domains.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*PowerDomain), true
}

// Insert publishes a domain. If an insert for the same name already
// won, the argument is discarded and the existing domain returned,
// so concurrent builds from overlapping descriptions cannot
// duplicate a domain.
func (r *Registry) Insert(d *PowerDomain) *PowerDomain {
	v, _ := r.domains.LoadOrStore(d.Name, d)
	return v.(*PowerDomain)
}

// Len returns the number of registered domains.
func (r *Registry) Len() int {
	n := 0
	r.domains.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Range calls fn for every registered domain until fn returns false.
func (r *Registry) Range(fn func(d *PowerDomain) bool) {
	r.domains.Range(func(_, v any) bool {
		return fn(v.(*PowerDomain))
	})
}
