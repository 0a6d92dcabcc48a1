// Package power is the application service over the power-domain
// core: it builds the hierarchy, attaches CPUs, evaluates admission,
// invokes power transitions, and feeds the journal and metrics.
package power

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cpupd-dev/cpupd/internal/domain"
	"github.com/cpupd-dev/cpupd/internal/infra/metrics"
	"github.com/cpupd-dev/cpupd/internal/infra/sqlite"
	"github.com/cpupd-dev/cpupd/internal/pd"
	"github.com/cpupd-dev/cpupd/internal/topology"
)

// ErrVetoed reports that admission refused a requested power-down.
var ErrVetoed = errors.New("power-down vetoed by admission")

// Service owns the domain registry and everything operating on it.
type Service struct {
	reg       *pd.Registry
	providers *pd.Providers
	builder   *pd.Builder
	attacher  *pd.Attacher
	engine    *pd.Engine
	latency   *pd.AdjustableLatency
	cpus      *pd.CpuStateTable
	db        *sqlite.DB // optional; nil disables the journal
}

// Config bundles the collaborators a Service is built from.
type Config struct {
	Description *topology.Description
	Ops         pd.Ops
	Devices     pd.DeviceAttacher // optional
	Registrar   pd.Registrar      // optional
	DB          *sqlite.DB        // optional
	Tolerance   time.Duration     // initial latency tolerance
}

// NewService wires a service; Build/AttachAll still have to run.
func NewService(cfg Config) *Service {
	reg := pd.NewRegistry()
	providers := pd.NewProviders()
	latency := &pd.AdjustableLatency{}
	latency.Set(cfg.Tolerance)
	cpus := pd.NewCpuStateTable()

	s := &Service{
		reg:       reg,
		providers: providers,
		builder:   pd.NewBuilder(reg, providers, cfg.Description, cfg.Ops, cfg.Registrar),
		latency:   latency,
		cpus:      cpus,
		db:        cfg.DB,
	}
	s.attacher = pd.NewAttacher(s.builder, cfg.Devices)
	s.engine = pd.NewEngine(latency, cpus)
	return s
}

// Registry exposes the domain registry for read-side consumers.
func (s *Service) Registry() *pd.Registry { return s.reg }

// Providers exposes the provider table.
func (s *Service) Providers() *pd.Providers { return s.providers }

// CpuStates exposes the mutable per-CPU state table.
func (s *Service) CpuStates() *pd.CpuStateTable { return s.cpus }

// Build resolves every described domain.
func (s *Service) Build() error {
	err := s.builder.BuildAll()
	metrics.DomainsRegistered.Set(float64(s.reg.Len()))
	return err
}

// AttachAll attaches every described CPU, collecting failures.
func (s *Service) AttachAll() error {
	err := s.attacher.AttachAll()
	s.reg.Range(func(d *pd.PowerDomain) bool {
		metrics.DomainMembers.WithLabelValues(d.Name).Set(float64(d.Members().Count()))
		return true
	})
	return err
}

// SetTolerance updates the system-wide latency tolerance.
func (s *Service) SetTolerance(d time.Duration) { s.latency.Set(d) }

// Tolerance returns the current latency tolerance.
func (s *Service) Tolerance() time.Duration { return s.latency.LatencyTolerance() }

// Decision is the outcome of one admission evaluation.
type Decision struct {
	Domain        string        `json:"domain"`
	Admit         bool          `json:"admit"`
	SelectedState int           `json:"selected_state"`
	Tolerance     time.Duration `json:"tolerance_ns"`
}

// Evaluate runs power-down-ok for the named domain against the
// service's live latency and CPU state sources.
func (s *Service) Evaluate(name string) (Decision, error) {
	d, ok := s.reg.Find(name)
	if !ok {
		return Decision{}, fmt.Errorf("domain %q: %w", name, domain.ErrNotFound)
	}
	return s.evaluate(d, s.engine, s.latency.LatencyTolerance()), nil
}

// EvaluateWith runs a one-shot evaluation under a supplied tolerance
// and wakeup offsets, without disturbing the live sources. Offsets
// are relative to now; CPUs listed in offline are treated offline.
func (s *Service) EvaluateWith(name string, tolerance time.Duration, wakeupIn map[int]time.Duration, offline []int) (Decision, error) {
	d, ok := s.reg.Find(name)
	if !ok {
		return Decision{}, fmt.Errorf("domain %q: %w", name, domain.ErrNotFound)
	}

	cpus := pd.NewCpuStateTable()
	now := time.Now()
	for cpu, in := range wakeupIn {
		cpus.SetWakeup(cpu, now.Add(in))
	}
	for _, cpu := range offline {
		cpus.SetOnline(cpu, false)
	}
	engine := pd.NewEngine(pd.FixedLatency(tolerance), cpus)
	return s.evaluate(d, engine, tolerance), nil
}

func (s *Service) evaluate(d *pd.PowerDomain, engine *pd.Engine, tolerance time.Duration) Decision {
	admit := engine.PowerDownOK(d)

	outcome := "veto"
	if admit {
		outcome = "admit"
	}
	metrics.AdmissionDecisions.WithLabelValues(d.Name, outcome).Inc()
	metrics.SelectedState.WithLabelValues(d.Name).Set(float64(d.SelectedState()))

	return Decision{
		Domain:        d.Name,
		Admit:         admit,
		SelectedState: d.SelectedState(),
		Tolerance:     tolerance,
	}
}

// PowerOff evaluates admission for the domain and, if admitted,
// invokes the platform power_off callback. The platform status is
// returned verbatim; the transition lands in the journal either way.
func (s *Service) PowerOff(name string) (int, error) {
	d, ok := s.reg.Find(name)
	if !ok {
		return 0, fmt.Errorf("domain %q: %w", name, domain.ErrNotFound)
	}

	dec := s.evaluate(d, s.engine, s.latency.LatencyTolerance())
	if !dec.Admit {
		return 0, fmt.Errorf("domain %q: %w", name, ErrVetoed)
	}

	status := d.PowerOff()
	s.journal(d, domain.TransitionPowerOff, d.SelectedState(), status)
	return status, nil
}

// PowerOn invokes the platform power_on callback.
func (s *Service) PowerOn(name string) (int, error) {
	d, ok := s.reg.Find(name)
	if !ok {
		return 0, fmt.Errorf("domain %q: %w", name, domain.ErrNotFound)
	}
	status := d.PowerOn()
	s.journal(d, domain.TransitionPowerOn, 0, status)
	return status, nil
}

func (s *Service) journal(d *pd.PowerDomain, kind domain.TransitionKind, stateIdx int, status int) {
	result := "ok"
	if status != 0 {
		result = "error"
	}
	metrics.PowerTransitions.WithLabelValues(d.Name, string(kind), result).Inc()

	if s.db == nil {
		return
	}
	var param uint32
	if stateIdx >= 0 && stateIdx < len(d.Cost.Idle) {
		param = d.Cost.Idle[stateIdx].Param
	}
	t := domain.Transition{
		Domain:     d.Name,
		Kind:       kind,
		StateIndex: stateIdx,
		Param:      param,
		Cpus:       d.Members().String(),
		Status:     status,
		At:         time.Now().UTC(),
	}
	if err := s.db.RecordTransition(t); err != nil {
		log.Printf("[power] WARNING: journal write failed: %v", err)
	}
}

// History returns recent journal entries, newest first.
func (s *Service) History(domainName string, limit int) ([]domain.Transition, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.db.ListTransitions(domainName, limit)
}

// DomainInfo is a read-side snapshot of one domain for the API/CLI.
type DomainInfo struct {
	Name          string             `json:"name"`
	ProviderID    string             `json:"provider_id"`
	Parent        string             `json:"parent,omitempty"`
	Members       []int              `json:"members"`
	SelectedState int                `json:"selected_state"`
	IdleStates    []domain.IdleState `json:"idle_states"`
}

// Domains returns snapshots of every registered domain, in
// description order with undescribed registry entries appended.
func (s *Service) Domains() []DomainInfo {
	var out []DomainInfo
	seen := map[string]bool{}
	for _, name := range s.builder.Description().Domains() {
		if d, ok := s.reg.Find(name); ok {
			out = append(out, snapshot(d))
			seen[name] = true
		}
	}
	s.reg.Range(func(d *pd.PowerDomain) bool {
		if !seen[d.Name] {
			out = append(out, snapshot(d))
		}
		return true
	})
	return out
}

// Domain returns the snapshot of one domain.
func (s *Service) Domain(name string) (DomainInfo, error) {
	d, ok := s.reg.Find(name)
	if !ok {
		return DomainInfo{}, fmt.Errorf("domain %q: %w", name, domain.ErrNotFound)
	}
	return snapshot(d), nil
}

func snapshot(d *pd.PowerDomain) DomainInfo {
	return DomainInfo{
		Name:          d.Name,
		ProviderID:    d.ProviderID,
		Parent:        d.Parent(),
		Members:       d.Members().List(),
		SelectedState: d.SelectedState(),
		IdleStates:    d.Cost.Idle,
	}
}
