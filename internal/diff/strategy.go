// Package diff computes the differences between two scene snapshots.
//
// Two strategies are available behind the Strategy interface: Set, which
// only detects additions, removals and content updates, and Ordered, which
// also detects nodes that moved. Pick one explicitly with New.
package diff

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// Strategy maps two snapshots to a Result. Implementations are pure: they
// keep no state between calls and never modify their inputs.
type Strategy interface {
	Diff(old, new *model.Snapshot) *Result
	Algorithm() Algorithm
}

// Algorithm selects a Strategy.
type Algorithm int

const (
	// SetBased selects the Set strategy.
	SetBased Algorithm = iota
	// MoveAware selects the Ordered strategy.
	MoveAware
)

func (a Algorithm) String() string {
	switch a {
	case SetBased:
		return "set-based"
	case MoveAware:
		return "move-aware"
	default:
		return "unknown"
	}
}

// Algorithms lists every known algorithm.
var Algorithms = []Algorithm{SetBased, MoveAware}

// ParseAlgorithm parses the name of an algorithm. "set" and "move" are
// accepted as short forms.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "set-based", "set":
		return SetBased, nil
	case "move-aware", "move", "ordered", "heckel":
		return MoveAware, nil
	}
	return 0, errors.Newf("unknown diff algorithm %q", s)
}

// Options tune a strategy.
type Options struct {
	// TrackParent makes the set-based strategy report a node whose parent
	// changed as updated. The move-aware strategy reports such nodes as
	// moves and ignores this option.
	TrackParent bool
}

// Option configures Options.
type Option func(*Options)

// TrackParent sets Options.TrackParent.
func TrackParent(on bool) Option {
	return func(o *Options) { o.TrackParent = on }
}

// New returns the strategy for alg.
func New(alg Algorithm, opts ...Option) (Strategy, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	switch alg {
	case SetBased:
		return &Set{TrackParent: o.TrackParent}, nil
	case MoveAware:
		return &Ordered{}, nil
	}
	return nil, errors.Newf("unknown diff algorithm %d", int(alg))
}

// Diff runs the strategy selected by alg.
func Diff(alg Algorithm, old, new *model.Snapshot, opts ...Option) (*Result, error) {
	s, err := New(alg, opts...)
	if err != nil {
		return nil, err
	}
	return s.Diff(old, new), nil
}
