// Package route implements the swap-inserting qubit router.
//
// Given a program over a single quantum register and a [device.Device], the
// router rewrites every two-qubit primitive so it acts on physically coupled
// qubits, inserting swap chains along shortest paths and direction
// corrections where the coupling only exists the other way. A [Permutation]
// tracks how the logical-to-physical correspondence evolves; the router never
// "swaps back" after a non-local gate.
//
// # Usage
//
//	rep := diag.NewReporter(logger)
//	perm := route.Map(ctx, dev, prog, route.Config{Register: "q"}, rep)
//	if rep.HasErrors() {
//	    // Some operation could not be routed; the output is degraded.
//	}
package route

import "slices"

// Permutation maps logical qubit indices to current physical indices.
// It is a bijection on [0, n) at all times: the identity at router start,
// changed by exactly one transposition per inserted swap.
type Permutation []int

// Identity returns the identity permutation on [0, n).
func Identity(n int) Permutation {
	p := make(Permutation, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Apply returns the current physical index for a logical index.
// Out-of-range logical indices map to themselves.
func (p Permutation) Apply(logical int) int {
	if logical < 0 || logical >= len(p) {
		return logical
	}
	return p[logical]
}

// Swap composes the transposition (a b) onto the permutation: every logical
// index currently mapping to physical a maps to b afterwards, and vice
// versa. The transposition is by value over the whole mapping, keeping the
// bijection intact.
func (p Permutation) Swap(a, b int) {
	for k, phys := range p {
		switch phys {
		case a:
			p[k] = b
		case b:
			p[k] = a
		}
	}
}

// IsBijection reports whether every physical index in [0, n) has exactly
// one logical owner.
func (p Permutation) IsBijection() bool {
	seen := make([]bool, len(p))
	for _, phys := range p {
		if phys < 0 || phys >= len(p) || seen[phys] {
			return false
		}
		seen[phys] = true
	}
	return true
}

// Clone returns an independent copy.
func (p Permutation) Clone() Permutation {
	return slices.Clone(p)
}
