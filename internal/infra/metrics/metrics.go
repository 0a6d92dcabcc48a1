// Package metrics provides Prometheus metrics for cpupd: admission
// decisions, power transitions, domain membership and registry size.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Admission ──────────────────────────────────────────────────────────────

// AdmissionDecisions counts power-down-ok evaluations by outcome
// ("admit" or "veto").
var AdmissionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cpupd",
	Name:      "admission_decisions_total",
	Help:      "Power-down admission evaluations by domain and outcome.",
}, []string{"domain", "outcome"})

// SelectedState tracks the idle-state index chosen by the last
// admission evaluation per domain.
var SelectedState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "cpupd",
	Name:      "selected_idle_state",
	Help:      "Idle-state index selected by the last admission evaluation.",
}, []string{"domain"})

// ─── Transitions ────────────────────────────────────────────────────────────

// PowerTransitions counts invoked platform callbacks by kind
// (power_on / power_off) and result ("ok" or "error").
var PowerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cpupd",
	Name:      "power_transitions_total",
	Help:      "Platform power callbacks invoked, by domain, kind and result.",
}, []string{"domain", "kind", "result"})

// ─── Hierarchy ──────────────────────────────────────────────────────────────

// DomainMembers tracks accumulated member CPU count per domain.
var DomainMembers = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "cpupd",
	Name:      "domain_member_cpus",
	Help:      "Number of member CPUs accumulated under a domain.",
}, []string{"domain"})

// DomainsRegistered tracks the registry size.
var DomainsRegistered = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "cpupd",
	Name:      "domains_registered",
	Help:      "Number of CPU power domains in the registry.",
})
