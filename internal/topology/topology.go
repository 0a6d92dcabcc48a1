// Package topology parses the hardware description the hierarchy
// builder consumes: power-domain nodes with their cost tables, and
// CPU to leaf-domain mappings. Descriptions come from a TOML file or
// from a built-in platform preset.
package topology

import (
	"fmt"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cpupd-dev/cpupd/internal/domain"
)

// Node is one described power domain.
type Node struct {
	Name     string
	Parent   string // "" for a root domain
	Disabled bool
	Cost     domain.CostModel
}

// Available reports whether the node may be turned into a domain.
func (n Node) Available() bool { return !n.Disabled }

// Description is a validated hardware description.
type Description struct {
	order []string
	nodes map[string]Node
	cpus  map[int]string
}

// Node looks up a described domain by name.
func (d *Description) Node(name string) (Node, bool) {
	n, ok := d.nodes[name]
	return n, ok
}

// Domains returns domain names in declaration order.
func (d *Description) Domains() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// CpuDomain returns the leaf domain a CPU is described under.
func (d *Description) CpuDomain(cpu int) (string, bool) {
	name, ok := d.cpus[cpu]
	return name, ok
}

// Cpus returns all described CPU ids in ascending order.
func (d *Description) Cpus() []int {
	out := make([]int, 0, len(d.cpus))
	for c := range d.cpus {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// New builds a Description from nodes and CPU mappings, validating
// structure: unique names, declared parents, no parent cycles,
// monotonically increasing capacity tables, and CPU mappings that
// reference declared domains.
func New(nodes []Node, cpus map[int]string) (*Description, error) {
	if len(nodes) == 0 {
		return nil, domain.ErrNoDomains
	}

	d := &Description{
		nodes: make(map[string]Node, len(nodes)),
		cpus:  make(map[int]string, len(cpus)),
	}
	for _, n := range nodes {
		if n.Name == "" {
			return nil, fmt.Errorf("domain with empty name")
		}
		if _, dup := d.nodes[n.Name]; dup {
			return nil, fmt.Errorf("domain %q declared twice", n.Name)
		}
		d.nodes[n.Name] = n
		d.order = append(d.order, n.Name)
	}

	for _, n := range nodes {
		if n.Parent != "" {
			if _, ok := d.nodes[n.Parent]; !ok {
				return nil, fmt.Errorf("domain %q: parent %q: %w", n.Name, n.Parent, domain.ErrUnknownParent)
			}
		}
		for i := 1; i < len(n.Cost.Capacity); i++ {
			if n.Cost.Capacity[i].Capacity <= n.Cost.Capacity[i-1].Capacity {
				return nil, fmt.Errorf("domain %q: capacity table not increasing at index %d", n.Name, i)
			}
		}
	}

	// Parent chains must terminate.
	for _, n := range nodes {
		seen := map[string]bool{n.Name: true}
		for p := n.Parent; p != ""; p = d.nodes[p].Parent {
			if seen[p] {
				return nil, fmt.Errorf("domain %q: parent cycle through %q", n.Name, p)
			}
			seen[p] = true
		}
	}

	for cpu, name := range cpus {
		if cpu < 0 {
			return nil, fmt.Errorf("negative cpu id %d", cpu)
		}
		if _, ok := d.nodes[name]; !ok {
			return nil, fmt.Errorf("cpu%d: domain %q not declared", cpu, name)
		}
		d.cpus[cpu] = name
	}

	return d, nil
}

// ─── TOML loading ───────────────────────────────────────────────────────────

type fileState struct {
	Power          uint64 `toml:"power"`
	EntryLatencyUs int64  `toml:"entry_latency_us"`
	ExitLatencyUs  int64  `toml:"exit_latency_us"`
	MinResidencyUs int64  `toml:"min_residency_us"`
	Param          uint32 `toml:"param"`
}

type fileCapacity struct {
	Capacity uint64 `toml:"capacity"`
	Power    uint64 `toml:"power"`
}

type fileDomain struct {
	Name     string         `toml:"name"`
	Parent   string         `toml:"parent"`
	Disabled bool           `toml:"disabled"`
	State    []fileState    `toml:"state"`
	Capacity []fileCapacity `toml:"capacity"`
}

type fileCpu struct {
	ID     int    `toml:"id"`
	Domain string `toml:"domain"`
}

type fileDescription struct {
	Domain []fileDomain `toml:"domain"`
	Cpu    []fileCpu    `toml:"cpu"`
}

// Load reads a TOML hardware description from disk.
func Load(path string) (*Description, error) {
	var fd fileDescription
	if _, err := toml.DecodeFile(path, &fd); err != nil {
		return nil, fmt.Errorf("parse topology %s: %w", path, err)
	}

	nodes := make([]Node, 0, len(fd.Domain))
	for _, n := range fd.Domain {
		node := Node{Name: n.Name, Parent: n.Parent, Disabled: n.Disabled}
		for _, s := range n.State {
			node.Cost.Idle = append(node.Cost.Idle, domain.IdleState{
				Power:        s.Power,
				EntryLatency: time.Duration(s.EntryLatencyUs) * time.Microsecond,
				ExitLatency:  time.Duration(s.ExitLatencyUs) * time.Microsecond,
				MinResidency: time.Duration(s.MinResidencyUs) * time.Microsecond,
				Param:        s.Param,
			})
		}
		for _, c := range n.Capacity {
			node.Cost.Capacity = append(node.Cost.Capacity, domain.CapacityState{
				Capacity: c.Capacity,
				Power:    c.Power,
			})
		}
		nodes = append(nodes, node)
	}

	cpus := make(map[int]string, len(fd.Cpu))
	for _, c := range fd.Cpu {
		if prev, dup := cpus[c.ID]; dup && prev != c.Domain {
			return nil, fmt.Errorf("cpu%d mapped to both %q and %q", c.ID, prev, c.Domain)
		}
		cpus[c.ID] = c.Domain
	}

	return New(nodes, cpus)
}
