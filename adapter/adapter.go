// Package adapter implements the pluggable context adapters that each
// contribute a bounded slice of an iso's state to the assembled prompt. An
// adapter reads only the per-turn Snapshot; it never touches a store
// directly and never mutates anything during assembly.
package adapter

import "github.com/hupe1980/isokit/core"

// Adapter is the capability interface the assembler depends on. The
// assembler never inspects concrete variant identity, so new variants can be
// added without touching the pipeline or the loop.
type Adapter interface {
	// Name is the adapter's unique identity. Equal priorities are ordered
	// by name, lexicographically, so assembly stays deterministic.
	Name() string

	// Priority orders adapters in the assembled prompt; lower sorts first.
	Priority() int

	// Tag is the XML-like wrapping tag the assembler puts around this
	// adapter's combined output so the model can attribute provenance.
	Tag() string

	// BestEffort reports whether a BuildMessages failure should downgrade
	// to a logged skip instead of aborting the turn.
	BestEffort() bool

	// BuildMessages produces the adapter's contribution from the snapshot.
	// An adapter with nothing to contribute returns an empty slice; the
	// assembler omits it entirely (no empty tag).
	BuildMessages(snap *core.Snapshot) ([]core.Message, error)
}

// Base carries the identity, ordering and policy fields shared by every
// built-in adapter. Embed it and implement BuildMessages.
type Base struct {
	name       string
	priority   int
	tag        string
	bestEffort bool
}

// NewBase constructs the shared adapter fields.
func NewBase(name string, priority int, tag string) Base {
	return Base{name: name, priority: priority, tag: tag}
}

// Name implements Adapter.
func (b Base) Name() string { return b.name }

// Priority implements Adapter.
func (b Base) Priority() int { return b.priority }

// Tag implements Adapter.
func (b Base) Tag() string { return b.tag }

// BestEffort implements Adapter.
func (b Base) BestEffort() bool { return b.bestEffort }

// AsBestEffort wraps an existing adapter so assembly treats its failures as
// a logged skip. Useful when the adapter was constructed elsewhere, e.g.
// from configuration.
func AsBestEffort(ad Adapter) Adapter {
	return bestEffortAdapter{Adapter: ad}
}

type bestEffortAdapter struct {
	Adapter
}

func (bestEffortAdapter) BestEffort() bool { return true }

// WithBestEffort marks the adapter best-effort: assembly logs and skips it
// on failure instead of failing the turn.
func (b Base) WithBestEffort() Base {
	b.bestEffort = true
	return b
}
