package pd

import (
	"errors"
	"fmt"
	"log"

	"github.com/cpupd-dev/cpupd/internal/domain"
	"github.com/cpupd-dev/cpupd/internal/topology"
)

// Registrar is the external registration framework a new domain is
// announced to. Rejection is logged and tolerated: the domain stays
// fully usable internally.
type Registrar interface {
	Register(h *Handle) error
}

// Builder turns a hardware description into registered power
// domains, wiring parent links and deduplicating against domains
// that already exist, including generic domains some other subsystem
// advertised first.
type Builder struct {
	reg       *Registry
	providers *Providers
	desc      *topology.Description
	ops       Ops
	registrar Registrar // optional
}

// NewBuilder creates a hierarchy builder. registrar may be nil.
func NewBuilder(reg *Registry, providers *Providers, desc *topology.Description, ops Ops, registrar Registrar) *Builder {
	return &Builder{reg: reg, providers: providers, desc: desc, ops: ops, registrar: registrar}
}

// Description returns the hardware description the builder works from.
func (b *Builder) Description() *topology.Description { return b.desc }

// Resolve returns the provider handle for the named domain, creating
// and registering the domain (and its ancestors) on first use.
// Resolving the same name twice returns the same handle. Only one
// build proceeds at a time; lookups on the registry stay wait-free
// throughout.
func (b *Builder) Resolve(name string) (*Handle, error) {
	b.reg.buildMu.Lock()
	defer b.reg.buildMu.Unlock()
	return b.resolve(name)
}

func (b *Builder) resolve(name string) (*Handle, error) {
	node, ok := b.desc.Node(name)
	if !ok {
		return nil, fmt.Errorf("domain %q: %w", name, domain.ErrNotFound)
	}
	if !node.Available() {
		return nil, fmt.Errorf("domain %q: %w", name, domain.ErrNotAvailable)
	}

	// An already-resolvable provider wins: it may be a CPU domain
	// from an earlier build, or a generic domain owned by another
	// subsystem. Either way it is returned as-is, with no callbacks
	// attached and no internal parent linking.
	if h, ok := b.providers.Lookup(name); ok {
		return h, nil
	}

	d := b.reg.Insert(newPowerDomain(name, node.Cost, b.ops))

	h, err := b.providers.Advertise(d)
	if err != nil {
		log.Printf("[pd] WARNING: unable to advertise %s as provider: %v", name, err)
	}
	if b.registrar != nil {
		if err := b.registrar.Register(h); err != nil {
			log.Printf("[pd] WARNING: unable to register domain %s: %v", name, err)
		}
	}

	if node.Parent != "" {
		parent, err := b.resolve(node.Parent)
		if err != nil {
			// The subtree stays usable without its parent link.
			log.Printf("[pd] parent %s of %s not resolvable: %v", node.Parent, name, err)
			return h, nil
		}
		parent.addSubdomain(h)
		if pdom := parent.Domain(); pdom != nil {
			d.setParent(pdom.Name)
		}
	}

	return h, nil
}

// BuildAll resolves every described domain. Disabled nodes are
// skipped; other failures abort only their own subtree and are
// returned joined.
func (b *Builder) BuildAll() error {
	var errs []error
	for _, name := range b.desc.Domains() {
		if _, err := b.Resolve(name); err != nil {
			if errors.Is(err, domain.ErrNotAvailable) {
				log.Printf("[pd] skipping disabled domain %s", name)
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
