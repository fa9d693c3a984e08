package strategy

import (
	"fmt"
	"sort"
)

// Strategy is a numeral system for block decomposition.
type Strategy interface {
	// Name returns the stable strategy name used in configuration.
	Name() string

	// MaxDigit returns the largest digit value the system uses.
	MaxDigit() uint8

	// Weight returns the number of elements held by one block at level.
	Weight(level int) int

	// PlanInsert returns the digit vector for n+1 given the vector for n,
	// together with the merges realizing the transition. d is not modified.
	PlanInsert(d Digits) (Digits, Plan)

	// Decompose returns the canonical digit vector for n, as reached by n
	// insertions into an empty vector.
	Decompose(n int) Digits
}

// RebuildThresholder is an optional Strategy extension supplying its own
// dead-weight fraction that triggers a global rebuild.
type RebuildThresholder interface {
	RebuildThreshold() float64
}

// DefaultRebuildThreshold is the dead-weight fraction that triggers a global
// rebuild when neither the strategy nor the caller configure one.
const DefaultRebuildThreshold = 0.5

// MaxLevel is the highest level whose weight fits in an int on 64-bit
// platforms for every strategy in this package.
const MaxLevel = 61

var registry = map[string]func() Strategy{
	"binary":        func() Strategy { return Binary{} },
	"simple-binary": func() Strategy { return SimpleBinary{} },
	"skew-binary":   func() Strategy { return SkewBinary{} },
}

// ByName returns the built-in strategy registered under name.
func ByName(name string) (Strategy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, Names())
	}
	return f(), nil
}

// Names lists the built-in strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ThresholdOf returns the rebuild threshold s asks for, or the default.
func ThresholdOf(s Strategy) float64 {
	if rt, ok := s.(RebuildThresholder); ok {
		return rt.RebuildThreshold()
	}
	return DefaultRebuildThreshold
}
