package topology

import (
	"time"

	"github.com/cpupd-dev/cpupd/internal/domain"
)

// Built-in platform descriptions. Power numbers are bogo-watts from
// the board energy models; latency and residency values follow the
// boards' idle-state bindings. Only consistency within one table
// matters, not the unit.

func us(v int64) time.Duration { return time.Duration(v) * time.Microsecond }

// junoDescription models the Juno r0/r2 board: a Cortex-A53 quad and
// a Cortex-A57 pair, each cluster a domain under a common SoC domain.
func junoDescription() (*Description, error) {
	a53Cluster := domain.CostModel{
		Idle: []domain.IdleState{
			{Power: 56}, // WFI, always available
			{Power: 56, EntryLatency: us(300), ExitLatency: us(1200), MinResidency: us(2000), Param: 0x0010000},
			{Power: 17, EntryLatency: us(400), ExitLatency: us(1200), MinResidency: us(2500), Param: 0x1010000},
		},
		Capacity: []domain.CapacityState{
			{Capacity: 235, Power: 26},
			{Capacity: 303, Power: 30},
			{Capacity: 368, Power: 39},
			{Capacity: 406, Power: 47},
			{Capacity: 447, Power: 57},
		},
	}
	a57Cluster := domain.CostModel{
		Idle: []domain.IdleState{
			{Power: 65}, // WFI
			{Power: 65, EntryLatency: us(300), ExitLatency: us(1200), MinResidency: us(2000), Param: 0x0010000},
			{Power: 24, EntryLatency: us(400), ExitLatency: us(1200), MinResidency: us(2500), Param: 0x1010000},
		},
		Capacity: []domain.CapacityState{
			{Capacity: 417, Power: 24},
			{Capacity: 579, Power: 32},
			{Capacity: 744, Power: 43},
			{Capacity: 883, Power: 49},
			{Capacity: 1024, Power: 64},
		},
	}
	soc := domain.CostModel{
		Idle: []domain.IdleState{
			{Power: 25},
			{Power: 10, EntryLatency: us(800), ExitLatency: us(2000), MinResidency: us(5000), Param: 0x2010000},
		},
		Capacity: []domain.CapacityState{
			{Capacity: 1024, Power: 100},
		},
	}

	nodes := []Node{
		{Name: "soc", Cost: soc},
		{Name: "cluster-a57", Parent: "soc", Cost: a57Cluster},
		{Name: "cluster-a53", Parent: "soc", Cost: a53Cluster},
	}
	// Juno enumerates the A57 pair as CPUs 1 and 2.
	cpus := map[int]string{
		0: "cluster-a53",
		1: "cluster-a57",
		2: "cluster-a57",
		3: "cluster-a53",
		4: "cluster-a53",
		5: "cluster-a53",
	}
	return New(nodes, cpus)
}

// mt8173Description models the MediaTek MT8173: two A53s and two
// A72-class cores in separate cluster domains.
func mt8173Description() (*Description, error) {
	a53Cluster := domain.CostModel{
		Idle: []domain.IdleState{
			{Power: 184}, // WFI
			{Power: 147, EntryLatency: us(350), ExitLatency: us(640), MinResidency: us(1300), Param: 0x0010000},
			{Power: 4, EntryLatency: us(500), ExitLatency: us(1000), MinResidency: us(3000), Param: 0x1010000},
		},
		Capacity: []domain.CapacityState{
			{Capacity: 249, Power: 54},
			{Capacity: 332, Power: 86},
			{Capacity: 415, Power: 123},
			{Capacity: 441, Power: 161},
		},
	}
	a72Cluster := domain.CostModel{
		Idle: []domain.IdleState{
			{Power: 171}, // WFI
			{Power: 151, EntryLatency: us(350), ExitLatency: us(640), MinResidency: us(1300), Param: 0x0010000},
			{Power: 70, EntryLatency: us(500), ExitLatency: us(1000), MinResidency: us(3000), Param: 0x1010000},
		},
		Capacity: []domain.CapacityState{
			{Capacity: 386, Power: 122},
			{Capacity: 579, Power: 209},
			{Capacity: 772, Power: 298},
			{Capacity: 1024, Power: 486},
		},
	}

	nodes := []Node{
		{Name: "cluster0", Cost: a53Cluster},
		{Name: "cluster1", Cost: a72Cluster},
	}
	cpus := map[int]string{
		0: "cluster0",
		1: "cluster0",
		2: "cluster1",
		3: "cluster1",
	}
	return New(nodes, cpus)
}

// Preset returns a built-in description by name.
func Preset(name string) (*Description, error) {
	switch name {
	case "juno":
		return junoDescription()
	case "mt8173":
		return mt8173Description()
	default:
		return nil, domain.ErrUnknownPreset
	}
}

// Presets lists the built-in description names.
func Presets() []string {
	return []string{"juno", "mt8173"}
}
