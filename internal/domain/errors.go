package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, no infrastructure dependency.

var (
	// Hierarchy build errors
	ErrNotAvailable = errors.New("domain node is disabled")
	ErrNotFound     = errors.New("no power-domain mapping found")
	ErrNoCostModel  = errors.New("domain has no cost model")

	// Topology description errors
	ErrNoDomains     = errors.New("description declares no domains")
	ErrUnknownParent = errors.New("parent domain not declared")
	ErrUnknownPreset = errors.New("unknown topology preset")
)
