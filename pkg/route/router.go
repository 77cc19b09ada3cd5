package route

import (
	"context"
	"time"

	"github.com/qasmkit/qroute/pkg/ast"
	"github.com/qasmkit/qroute/pkg/device"
	"github.com/qasmkit/qroute/pkg/diag"
	"github.com/qasmkit/qroute/pkg/errors"
	"github.com/qasmkit/qroute/pkg/observability"
)

// DefaultRegister is the quantum register the router operates on unless
// configured otherwise.
const DefaultRegister = "q"

// Config carries the router's single recognized option.
type Config struct {
	// Register is the name of the quantum register this pass owns.
	// References to any other register pass through untouched.
	Register string
}

func (c *Config) setDefaults() {
	if c.Register == "" {
		c.Register = DefaultRegister
	}
}

// SwapRouter rewrites a program so every two-qubit primitive acts on coupled
// qubits, tracking the evolving logical-to-physical permutation. It assumes
// the program has a single global quantum register with the configured name
// and has already been inlined.
//
// A SwapRouter is single-use: create one per routing run.
type SwapRouter struct {
	dev   *device.Device
	cfg   Config
	perm  Permutation
	rep   *diag.Reporter
	swaps int

	// ctx is the context of the active Run, held so hook callbacks fired
	// from rewrite callbacks can carry it. Routing is single-threaded.
	ctx context.Context
}

// NewSwapRouter creates a router for one run against dev.
// The permutation starts as the identity.
func NewSwapRouter(dev *device.Device, cfg Config, rep *diag.Reporter) *SwapRouter {
	cfg.setDefaults()
	return &SwapRouter{
		dev:  dev,
		cfg:  cfg,
		perm: Identity(dev.Qubits()),
		rep:  rep,
	}
}

// Map routes prog onto dev and returns the final permutation. Routing
// failures are reported on rep and never abort the run; callers must treat
// Error-severity diagnostics as making the output unusable.
func Map(ctx context.Context, dev *device.Device, prog *ast.Program, cfg Config, rep *diag.Reporter) Permutation {
	return NewSwapRouter(dev, cfg, rep).Run(ctx, prog)
}

// Run performs the rewrite and returns the final permutation.
// The permutation must not be read until Run returns.
func (m *SwapRouter) Run(ctx context.Context, prog *ast.Program) Permutation {
	hooks := observability.Router()
	hooks.OnRouteStart(ctx, m.dev.Name(), m.dev.Qubits())
	start := time.Now()

	m.ctx = ctx
	ast.Replace(prog, m)
	m.ctx = nil

	hooks.OnRouteComplete(ctx, m.dev.Name(), m.swaps, m.rep.Len(), time.Since(start))
	return m.perm
}

// Swaps returns the number of swaps inserted so far.
func (m *SwapRouter) Swaps() int { return m.swaps }

// RewriteAccess rewrites references under the configured register from
// logical to current physical indices. Other registers pass through.
func (m *SwapRouter) RewriteAccess(a ast.Access) ast.Access {
	if a.Register != m.cfg.Register {
		return a
	}
	return ast.Access{Register: a.Register, Index: m.perm.Apply(a.Index)}
}

// RewriteStmt drops leftover declarations and routes two-qubit primitives.
// Everything else is kept unchanged.
func (m *SwapRouter) RewriteStmt(s ast.Stmt, sc ast.Scope) ast.Rewrite {
	switch s := s.(type) {
	case *ast.GateDecl, *ast.OracleDecl:
		// Should have been eliminated by inlining; tolerated and dropped.
		return ast.Remove()
	case *ast.CNOTGate:
		if s.Ctrl.Register != m.cfg.Register || s.Tgt.Register != m.cfg.Register {
			return ast.Keep()
		}
		if sc.Conditional {
			return m.rewriteConditionalCNOT(s)
		}
		return m.rewriteCNOT(s)
	default:
		return ast.Keep()
	}
}

// rewriteCNOT is the central rewrite rule. Traversal is post-order, so the
// permutation has already been applied to the operands: the rule works
// purely in physical index space.
func (m *SwapRouter) rewriteCNOT(gate *ast.CNOTGate) ast.Rewrite {
	ctrl, tgt := gate.Ctrl.Index, gate.Tgt.Index

	path := m.dev.ShortestPath(ctrl, tgt)
	observability.Router().OnPathSearch(m.ctx, ctrl, tgt, len(path))
	if len(path) == 0 {
		m.rep.Errorf(errors.ErrCodeRoutingDisconnected, diag.Pos(gate.P),
			"could not find a connection between qubits %d and %d", ctrl, tgt)
		return ast.Keep()
	}

	var out []ast.Stmt
	i := ctrl
	for _, j := range path {
		if j == tgt {
			// Terminal hop: realize the primitive itself.
			if m.dev.Coupled(i, j) {
				out = append(out, newCNOT(m.cfg.Register, i, j, gate.P))
			} else {
				out = append(out, newDirectionCorrectedCNOT(m.cfg.Register, i, j, gate.P)...)
			}
			break
		}
		if j != i {
			out = append(out, m.synthSwap(i, j, gate.P)...)
			m.perm.Swap(i, j)
			m.swaps++
			observability.Router().OnSwapInserted(m.ctx, i, j)
		}
		i = j
	}
	return ast.Splice(out...)
}

// synthSwap realizes a swap of physical qubits i and j as three primitives,
// choosing control and target so every primitive respects a coupled
// direction. The middle primitive runs the other way and gets a direction
// correction when that way is not coupled either.
func (m *SwapRouter) synthSwap(i, j int, pos ast.Position) []ast.Stmt {
	swapI, swapJ := i, j
	if !m.dev.Coupled(i, j) {
		swapI, swapJ = j, i
	}

	out := []ast.Stmt{newCNOT(m.cfg.Register, swapI, swapJ, pos)}
	if m.dev.Coupled(swapJ, swapI) {
		out = append(out, newCNOT(m.cfg.Register, swapJ, swapI, pos))
	} else {
		out = append(out, newDirectionCorrectedCNOT(m.cfg.Register, swapJ, swapI, pos)...)
	}
	return append(out, newCNOT(m.cfg.Register, swapI, swapJ, pos))
}

// rewriteConditionalCNOT handles a two-qubit primitive under classical
// control. Swaps are never inserted inside a conditional body: they would
// only execute when the condition holds at runtime, desyncing the statically
// tracked permutation. A gate that is already coupled is kept; anything else
// is left unrouted with a diagnostic.
func (m *SwapRouter) rewriteConditionalCNOT(gate *ast.CNOTGate) ast.Rewrite {
	if m.dev.Coupled(gate.Ctrl.Index, gate.Tgt.Index) {
		return ast.Keep()
	}
	m.rep.Errorf(errors.ErrCodeRoutingConditional, diag.Pos(gate.P),
		"cannot route gate on qubits %d and %d under classical control", gate.Ctrl.Index, gate.Tgt.Index)
	return ast.Keep()
}
