package topology

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cpupd-dev/cpupd/internal/domain"
)

func validModel() domain.CostModel {
	return domain.CostModel{
		Idle:     []domain.IdleState{{Power: 10}},
		Capacity: []domain.CapacityState{{Capacity: 100, Power: 10}},
	}
}

func TestNew_RejectsEmptyDescription(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, domain.ErrNoDomains) {
		t.Errorf("New(nil) error = %v, want ErrNoDomains", err)
	}
}

func TestNew_RejectsUnknownParent(t *testing.T) {
	_, err := New([]Node{{Name: "leaf", Parent: "ghost", Cost: validModel()}}, nil)
	if !errors.Is(err, domain.ErrUnknownParent) {
		t.Errorf("error = %v, want ErrUnknownParent", err)
	}
}

func TestNew_RejectsDuplicateDomain(t *testing.T) {
	_, err := New([]Node{
		{Name: "leaf", Cost: validModel()},
		{Name: "leaf", Cost: validModel()},
	}, nil)
	if err == nil {
		t.Error("duplicate domain names should be rejected")
	}
}

func TestNew_RejectsParentCycle(t *testing.T) {
	_, err := New([]Node{
		{Name: "a", Parent: "b", Cost: validModel()},
		{Name: "b", Parent: "a", Cost: validModel()},
	}, nil)
	if err == nil {
		t.Error("parent cycle should be rejected")
	}
}

func TestNew_RejectsNonIncreasingCapacity(t *testing.T) {
	m := validModel()
	m.Capacity = []domain.CapacityState{
		{Capacity: 300, Power: 30},
		{Capacity: 200, Power: 20},
	}
	_, err := New([]Node{{Name: "leaf", Cost: m}}, nil)
	if err == nil {
		t.Error("non-increasing capacity table should be rejected")
	}
}

func TestNew_RejectsUnmappedCpuDomain(t *testing.T) {
	_, err := New([]Node{{Name: "leaf", Cost: validModel()}}, map[int]string{0: "ghost"})
	if err == nil {
		t.Error("cpu mapped to undeclared domain should be rejected")
	}
}

func TestDescription_Accessors(t *testing.T) {
	d, err := New([]Node{
		{Name: "root", Cost: validModel()},
		{Name: "leaf", Parent: "root", Cost: validModel()},
	}, map[int]string{2: "leaf", 0: "leaf"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := d.Domains(); len(got) != 2 || got[0] != "root" || got[1] != "leaf" {
		t.Errorf("Domains() = %v, want declaration order [root leaf]", got)
	}
	if got := d.Cpus(); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("Cpus() = %v, want [0 2]", got)
	}
	if name, ok := d.CpuDomain(2); !ok || name != "leaf" {
		t.Errorf("CpuDomain(2) = %q, %v", name, ok)
	}
	if _, ok := d.CpuDomain(7); ok {
		t.Error("CpuDomain(7) should miss")
	}
	if n, ok := d.Node("leaf"); !ok || n.Parent != "root" {
		t.Errorf("Node(leaf) = %+v, %v", n, ok)
	}
}

// ─── TOML loading ───────────────────────────────────────────────────────────

const sampleTOML = `
[[domain]]
name = "soc"

[[domain.state]]
power = 25

[[domain.state]]
power = 10
entry_latency_us = 800
exit_latency_us = 2000
min_residency_us = 5000
param = 0x2010000

[[domain.capacity]]
capacity = 1024
power = 100

[[domain]]
name = "cluster0"
parent = "soc"

[[domain.state]]
power = 56

[[domain.state]]
power = 17
entry_latency_us = 400
exit_latency_us = 1200
min_residency_us = 2500
param = 0x1010000

[[domain.capacity]]
capacity = 235
power = 26

[[domain.capacity]]
capacity = 447
power = 57

[[cpu]]
id = 0
domain = "cluster0"

[[cpu]]
id = 1
domain = "cluster0"
`

func writeDesc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topology.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_ParsesDomainsAndCpus(t *testing.T) {
	d, err := Load(writeDesc(t, sampleTOML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	n, ok := d.Node("cluster0")
	if !ok {
		t.Fatal("cluster0 missing")
	}
	if n.Parent != "soc" {
		t.Errorf("cluster0 parent = %q, want soc", n.Parent)
	}
	if len(n.Cost.Idle) != 2 {
		t.Fatalf("cluster0 idle states = %d, want 2", len(n.Cost.Idle))
	}
	deep := n.Cost.Idle[1]
	if deep.EntryLatency != 400*time.Microsecond {
		t.Errorf("entry latency = %v, want 400us", deep.EntryLatency)
	}
	if deep.MinResidency != 2500*time.Microsecond {
		t.Errorf("min residency = %v, want 2.5ms", deep.MinResidency)
	}
	if deep.Param != 0x1010000 {
		t.Errorf("param = %#x, want 0x1010000", deep.Param)
	}
	if len(n.Cost.Capacity) != 2 {
		t.Errorf("capacity states = %d, want 2", len(n.Cost.Capacity))
	}

	if name, ok := d.CpuDomain(1); !ok || name != "cluster0" {
		t.Errorf("CpuDomain(1) = %q, %v", name, ok)
	}
}

func TestLoad_RejectsConflictingCpuMapping(t *testing.T) {
	conflicting := sampleTOML + `
[[cpu]]
id = 0
domain = "soc"
`
	if _, err := Load(writeDesc(t, conflicting)); err == nil {
		t.Error("conflicting cpu mapping should be rejected")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing file should error")
	}
}

// ─── Presets ────────────────────────────────────────────────────────────────

func TestPreset_AllBuiltinsValidate(t *testing.T) {
	for _, name := range Presets() {
		d, err := Preset(name)
		if err != nil {
			t.Errorf("Preset(%s): %v", name, err)
			continue
		}
		if len(d.Domains()) == 0 {
			t.Errorf("preset %s has no domains", name)
		}
		for _, dn := range d.Domains() {
			n, _ := d.Node(dn)
			if !n.Cost.Valid() {
				t.Errorf("preset %s domain %s has invalid cost model", name, dn)
			}
		}
		if len(d.Cpus()) == 0 {
			t.Errorf("preset %s maps no CPUs", name)
		}
	}
}

func TestPreset_Unknown(t *testing.T) {
	if _, err := Preset("exynos"); !errors.Is(err, domain.ErrUnknownPreset) {
		t.Errorf("Preset(exynos) error = %v, want ErrUnknownPreset", err)
	}
}

func TestPreset_JunoShape(t *testing.T) {
	d, err := Preset("juno")
	if err != nil {
		t.Fatalf("Preset(juno): %v", err)
	}
	a57, ok := d.Node("cluster-a57")
	if !ok {
		t.Fatal("cluster-a57 missing")
	}
	if a57.Parent != "soc" {
		t.Errorf("cluster-a57 parent = %q, want soc", a57.Parent)
	}
	if name, _ := d.CpuDomain(1); name != "cluster-a57" {
		t.Errorf("cpu1 domain = %q, want cluster-a57", name)
	}
	if name, _ := d.CpuDomain(0); name != "cluster-a53" {
		t.Errorf("cpu0 domain = %q, want cluster-a53", name)
	}
}
