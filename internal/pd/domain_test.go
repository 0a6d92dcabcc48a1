package pd

import (
	"testing"
	"time"

	"github.com/cpupd-dev/cpupd/internal/domain"
)

func TestPowerDomain_MemberInsertIsIdempotent(t *testing.T) {
	d := newPowerDomain("cluster0", domain.CostModel{}, Ops{})
	d.addMember(3)
	d.addMember(3)

	if got := d.Members().Count(); got != 1 {
		t.Errorf("member count after double insert = %d, want 1", got)
	}
	if !d.Members().Contains(3) {
		t.Error("cpu 3 should be a member")
	}
}

func TestPowerDomain_MembersSnapshotIsStable(t *testing.T) {
	d := newPowerDomain("cluster0", domain.CostModel{}, Ops{})
	d.addMember(0)

	snap := d.Members()
	d.addMember(1)

	if snap.Contains(1) {
		t.Error("snapshot taken before insert must not grow")
	}
	if !d.Members().Contains(1) {
		t.Error("fresh snapshot should include the new member")
	}
}

func TestPowerDomain_ParentSetOnce(t *testing.T) {
	d := newPowerDomain("cluster0", domain.CostModel{}, Ops{})
	d.setParent("soc")
	d.setParent("other")

	if got := d.Parent(); got != "soc" {
		t.Errorf("Parent() = %q, want first-set %q", got, "soc")
	}
}

func TestPowerOn_NilCallbackIsSuccess(t *testing.T) {
	d := newPowerDomain("cluster0", domain.CostModel{}, Ops{})
	if got := d.PowerOn(); got != 0 {
		t.Errorf("PowerOn() without callback = %d, want 0", got)
	}
	if got := d.PowerOff(); got != 0 {
		t.Errorf("PowerOff() without callback = %d, want 0", got)
	}
}

func TestPowerOn_StatusPassesThrough(t *testing.T) {
	d := newPowerDomain("cluster0", domain.CostModel{}, Ops{
		PowerOn: func() int { return -22 },
	})
	if got := d.PowerOn(); got != -22 {
		t.Errorf("PowerOn() = %d, want platform status -22 unmodified", got)
	}
}

func TestPowerOff_PassesSelectedStateAndMembers(t *testing.T) {
	cost := domain.CostModel{
		Idle: []domain.IdleState{
			{Power: 50, Param: 0x0},
			{Power: 5, MinResidency: 100 * time.Microsecond, Param: 0x1010000},
		},
		Capacity: []domain.CapacityState{{Capacity: 1024, Power: 100}},
	}

	var gotIdx int
	var gotParam uint32
	var gotMembers domain.CpuSet
	d := newPowerDomain("cluster0", cost, Ops{
		PowerOff: func(idx int, param uint32, members domain.CpuSet) int {
			gotIdx, gotParam, gotMembers = idx, param, members
			return 0
		},
	})
	d.addMember(0)
	d.addMember(5)

	cpus := NewCpuStateTable()
	e := NewEngine(FixedLatency(20*time.Microsecond), cpus)

	if !e.PowerDownOK(d) {
		t.Fatal("expected admit")
	}
	if got := d.PowerOff(); got != 0 {
		t.Fatalf("PowerOff() = %d", got)
	}

	if gotIdx != 1 {
		t.Errorf("power_off state index = %d, want 1", gotIdx)
	}
	if gotParam != 0x1010000 {
		t.Errorf("power_off param = %#x, want %#x", gotParam, 0x1010000)
	}
	if !gotMembers.Equal(domain.NewCpuSet(0, 5)) {
		t.Errorf("power_off members = %s, want 0,5", gotMembers)
	}
}
