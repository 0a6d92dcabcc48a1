// Package platform provides implementations of the per-domain
// power_on/power_off callback pair. The actual firmware transport
// (SMC, SCMI, a mailbox) is the integrator's: it comes in as a single
// injected call function, this package only shapes the arguments.
package platform

import (
	"log"
	"sync"

	"github.com/cpupd-dev/cpupd/internal/domain"
	"github.com/cpupd-dev/cpupd/internal/pd"
)

// Noop returns callbacks that report success without touching
// hardware. Used for domains that need no firmware assistance.
func Noop() pd.Ops {
	return pd.Ops{
		PowerOn:  func() int { return 0 },
		PowerOff: func(int, uint32, domain.CpuSet) int { return 0 },
	}
}

// Call is a simple firmware call: a function ID plus three
// arguments, returning the firmware status.
type Call func(fn uint64, a1, a2, a3 uint64) int

// FirmwareOps adapts a Call into the callback pair. power_on issues
// onFn with no arguments; power_off issues offFn with the state
// index, the state's firmware param and the member CPU mask.
func FirmwareOps(call Call, onFn, offFn uint64) pd.Ops {
	return pd.Ops{
		PowerOn: func() int {
			return call(onFn, 0, 0, 0)
		},
		PowerOff: func(stateIdx int, param uint32, members domain.CpuSet) int {
			return call(offFn, uint64(stateIdx), uint64(param), members.Mask64())
		},
	}
}

// Logging wraps ops so every invocation is visible in the daemon
// log. Useful while bringing up a new description.
func Logging(name string, inner pd.Ops) pd.Ops {
	return pd.Ops{
		PowerOn: func() int {
			status := 0
			if inner.PowerOn != nil {
				status = inner.PowerOn()
			}
			log.Printf("[platform] %s power_on status=%d", name, status)
			return status
		},
		PowerOff: func(stateIdx int, param uint32, members domain.CpuSet) int {
			status := 0
			if inner.PowerOff != nil {
				status = inner.PowerOff(stateIdx, param, members)
			}
			log.Printf("[platform] %s power_off state=%d param=%#x cpus=%s status=%d",
				name, stateIdx, param, members, status)
			return status
		},
	}
}

// Invocation is one recorded callback call.
type Invocation struct {
	Kind       domain.TransitionKind
	StateIndex int
	Param      uint32
	Members    domain.CpuSet
}

// Recorder captures callback invocations for tests and dry runs.
type Recorder struct {
	mu     sync.Mutex
	Status int // returned from every call
	calls  []Invocation
}

// Ops returns the recording callback pair.
func (r *Recorder) Ops() pd.Ops {
	return pd.Ops{
		PowerOn: func() int {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.calls = append(r.calls, Invocation{Kind: domain.TransitionPowerOn})
			return r.Status
		},
		PowerOff: func(stateIdx int, param uint32, members domain.CpuSet) int {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.calls = append(r.calls, Invocation{
				Kind:       domain.TransitionPowerOff,
				StateIndex: stateIdx,
				Param:      param,
				Members:    members.Clone(),
			})
			return r.Status
		},
	}
}

// Calls returns a snapshot of the recorded invocations.
func (r *Recorder) Calls() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invocation, len(r.calls))
	copy(out, r.calls)
	return out
}
