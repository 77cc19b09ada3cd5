package route

import (
	"context"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/qasmkit/qroute/pkg/ast"
	"github.com/qasmkit/qroute/pkg/device"
	"github.com/qasmkit/qroute/pkg/diag"
	"github.com/qasmkit/qroute/pkg/errors"
)

func newTestDevice(t *testing.T, qubits int, edges [][2]int) *device.Device {
	t.Helper()
	d, err := device.New("test", qubits)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	for _, e := range edges {
		if err := d.AddCoupling(e[0], e[1]); err != nil {
			t.Fatalf("AddCoupling(%d, %d): %v", e[0], e[1], err)
		}
	}
	return d
}

func routeStmts(t *testing.T, dev *device.Device, stmts ...ast.Stmt) (*ast.Program, Permutation, *diag.Reporter) {
	t.Helper()
	prog := ast.NewProgram()
	prog.Stmts = stmts
	rep := diag.NewReporter(log.New(io.Discard))
	perm := Map(context.Background(), dev, prog, Config{}, rep)
	if !perm.IsBijection() {
		t.Fatalf("routing broke the permutation bijection: %v", perm)
	}
	return prog, perm, rep
}

func cnotIndices(t *testing.T, s ast.Stmt) (int, int) {
	t.Helper()
	g, ok := s.(*ast.CNOTGate)
	if !ok {
		t.Fatalf("statement %T, want *ast.CNOTGate", s)
	}
	return g.Ctrl.Index, g.Tgt.Index
}

func TestAdjacentCoupledEmitsSinglePrimitive(t *testing.T) {
	dev := newTestDevice(t, 2, [][2]int{{0, 1}})
	prog, perm, rep := routeStmts(t, dev,
		&ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 1}})

	if len(prog.Stmts) != 1 {
		t.Fatalf("emitted %d statements, want 1", len(prog.Stmts))
	}
	if c, tg := cnotIndices(t, prog.Stmts[0]); c != 0 || tg != 1 {
		t.Errorf("primitive = cx %d, %d; want cx 0, 1", c, tg)
	}
	if !slices.Equal(perm, Identity(2)) {
		t.Errorf("permutation = %v, want identity", perm)
	}
	if rep.Len() != 0 {
		t.Errorf("diagnostics = %v, want none", rep.Diagnostics())
	}
}

// Scenario: 3-qubit line, both directions coupled, cx q[0], q[2].
// One intermediate swap of (0, 1), then the terminal primitive.
func TestLinearTopologySingleSwap(t *testing.T) {
	dev := newTestDevice(t, 3, [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}})
	prog, perm, rep := routeStmts(t, dev,
		&ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 2}})

	// Swap (0,1) as three CNOTs, then cx 1, 2.
	want := [][2]int{{0, 1}, {1, 0}, {0, 1}, {1, 2}}
	if len(prog.Stmts) != len(want) {
		t.Fatalf("emitted %d statements, want %d", len(prog.Stmts), len(want))
	}
	for i, w := range want {
		if c, tg := cnotIndices(t, prog.Stmts[i]); c != w[0] || tg != w[1] {
			t.Errorf("stmt %d = cx %d, %d; want cx %d, %d", i, c, tg, w[0], w[1])
		}
	}

	if !slices.Equal(perm, Permutation{1, 0, 2}) {
		t.Errorf("permutation = %v, want [1 0 2]", perm)
	}
	if rep.Len() != 0 {
		t.Errorf("diagnostics = %v, want none", rep.Diagnostics())
	}
}

// Scenario: 2-qubit device with only the reversed direction coupled.
// Expect the 5-node direction-corrected sequence and no swaps.
func TestDirectionCorrection(t *testing.T) {
	dev := newTestDevice(t, 2, [][2]int{{1, 0}})
	prog, perm, _ := routeStmts(t, dev,
		&ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 1}})

	if len(prog.Stmts) != 5 {
		t.Fatalf("emitted %d statements, want 5", len(prog.Stmts))
	}
	for _, i := range []int{0, 1, 3, 4} {
		u, ok := prog.Stmts[i].(*ast.UGate)
		if !ok {
			t.Fatalf("stmt %d = %T, want basis change", i, prog.Stmts[i])
		}
		if got := u.Theta.String(); got != "pi/2" {
			t.Errorf("stmt %d theta = %s, want pi/2", i, got)
		}
		if got := u.Lambda.String(); got != "pi" {
			t.Errorf("stmt %d lambda = %s, want pi", i, got)
		}
	}
	if c, tg := cnotIndices(t, prog.Stmts[2]); c != 1 || tg != 0 {
		t.Errorf("middle primitive = cx %d, %d; want reversed cx 1, 0", c, tg)
	}
	if !slices.Equal(perm, Identity(2)) {
		t.Errorf("permutation = %v, want identity", perm)
	}
}

// Scenario: one swap hop where the middle swap primitive itself needs a
// direction correction (edges are one-way along the line).
func TestOneWayLineSwapCounts(t *testing.T) {
	dev := newTestDevice(t, 3, [][2]int{{0, 1}, {1, 2}})
	prog, perm, _ := routeStmts(t, dev,
		&ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 2}})

	// Swap = cx + corrected reverse (5) + cx = 7, terminal = 1.
	if len(prog.Stmts) != 8 {
		t.Fatalf("emitted %d statements, want 8", len(prog.Stmts))
	}
	if !slices.Equal(perm, Permutation{1, 0, 2}) {
		t.Errorf("permutation = %v, want one transposition", perm)
	}
}

// Scenario: disconnected qubits. The operation stays, one diagnostic is
// reported, and the permutation is unchanged.
func TestDisconnectedReportsAndKeeps(t *testing.T) {
	dev := newTestDevice(t, 2, nil)
	original := &ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 1}}
	prog, perm, rep := routeStmts(t, dev, original)

	if len(prog.Stmts) != 1 || prog.Stmts[0] != original {
		t.Error("unroutable operation must be left in place")
	}
	if !rep.HasErrors() || rep.Len() != 1 {
		t.Errorf("diagnostics = %v, want exactly one error", rep.Diagnostics())
	}
	if got := rep.Diagnostics()[0].Code; got != errors.ErrCodeRoutingDisconnected {
		t.Errorf("code = %s, want ROUTING_DISCONNECTED", got)
	}
	if !slices.Equal(perm, Identity(2)) {
		t.Errorf("permutation = %v, want identity", perm)
	}
}

// Scenario: the second operation must see the permutation as mutated by the
// first, never the original identity.
func TestSequentialOperationsShareState(t *testing.T) {
	dev := newTestDevice(t, 3, [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}})
	prog, perm, _ := routeStmts(t, dev,
		&ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 2}},
		&ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 2}})

	// First op: swap + terminal (4 primitives). Afterwards logical 0 sits on
	// physical 1, adjacent to 2, so the second op emits exactly one
	// primitive and no further swaps.
	if len(prog.Stmts) != 5 {
		t.Fatalf("emitted %d statements, want 5", len(prog.Stmts))
	}
	if c, tg := cnotIndices(t, prog.Stmts[4]); c != 1 || tg != 2 {
		t.Errorf("second op = cx %d, %d; want cx 1, 2 under mutated permutation", c, tg)
	}
	if !slices.Equal(perm, Permutation{1, 0, 2}) {
		t.Errorf("permutation = %v, want single transposition", perm)
	}
}

func TestRewritesReferencesOfOtherStatements(t *testing.T) {
	dev := newTestDevice(t, 3, [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}})
	meas := &ast.Measure{Src: ast.Access{Register: "q", Index: 0}, Dst: ast.Access{Register: "c", Index: 0}}
	_, _, _ = routeStmts(t, dev,
		&ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 2}},
		meas)

	if meas.Src.Index != 1 {
		t.Errorf("measure source = q[%d], want q[1] after swap", meas.Src.Index)
	}
	if meas.Dst != (ast.Access{Register: "c", Index: 0}) {
		t.Errorf("classical destination = %v, want untouched", meas.Dst)
	}
}

func TestForeignRegisterPassesThrough(t *testing.T) {
	dev := newTestDevice(t, 2, nil)
	foreign := &ast.CNOTGate{Ctrl: ast.Access{Register: "anc", Index: 0}, Tgt: ast.Access{Register: "anc", Index: 1}}
	prog, _, rep := routeStmts(t, dev, foreign)

	if prog.Stmts[0] != foreign {
		t.Error("foreign-register gate must pass through")
	}
	if rep.Len() != 0 {
		t.Errorf("diagnostics = %v, want none for foreign register", rep.Diagnostics())
	}
}

func TestLeftoverDeclarationsDropped(t *testing.T) {
	dev := newTestDevice(t, 2, [][2]int{{0, 1}})
	prog, _, rep := routeStmts(t, dev,
		&ast.GateDecl{Name: "flip"},
		&ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 1}},
		&ast.OracleDecl{Name: "f"})

	if len(prog.Stmts) != 1 {
		t.Fatalf("emitted %d statements, want declarations dropped", len(prog.Stmts))
	}
	if rep.Len() != 0 {
		t.Errorf("tolerated declarations should not produce diagnostics, got %v", rep.Diagnostics())
	}
}

func TestConditionalCoupledKept(t *testing.T) {
	dev := newTestDevice(t, 2, [][2]int{{0, 1}})
	inner := &ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 1}}
	iff := &ast.If{Creg: "c", Index: -1, Value: 1, Body: []ast.Stmt{inner}}
	prog, _, rep := routeStmts(t, dev, iff)

	if len(prog.Stmts) != 1 || len(iff.Body) != 1 || iff.Body[0] != inner {
		t.Error("coupled conditional gate must be kept as-is")
	}
	if rep.Len() != 0 {
		t.Errorf("diagnostics = %v, want none", rep.Diagnostics())
	}
	_ = prog
}

func TestConditionalUncoupledDiagnosed(t *testing.T) {
	dev := newTestDevice(t, 3, [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}})
	inner := &ast.CNOTGate{Ctrl: ast.Access{Register: "q", Index: 0}, Tgt: ast.Access{Register: "q", Index: 2}}
	iff := &ast.If{Creg: "c", Index: -1, Value: 1, Body: []ast.Stmt{inner}}
	_, perm, rep := routeStmts(t, dev, iff)

	if len(iff.Body) != 1 || iff.Body[0] != inner {
		t.Error("unroutable conditional gate must be left unchanged")
	}
	if !rep.HasErrors() {
		t.Fatal("expected a diagnostic for swap insertion under classical control")
	}
	if got := rep.Diagnostics()[0].Code; got != errors.ErrCodeRoutingConditional {
		t.Errorf("code = %s, want ROUTING_CONDITIONAL", got)
	}
	if !slices.Equal(perm, Identity(3)) {
		t.Errorf("permutation = %v, want identity (no swaps under conditionals)", perm)
	}
}

func TestPermutationBijectionAcrossManyOps(t *testing.T) {
	// 5-qubit ring, one-way couplings only.
	dev := newTestDevice(t, 5, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 0}})
	var stmts []ast.Stmt
	for _, pair := range [][2]int{{0, 3}, {1, 4}, {2, 0}, {4, 2}, {3, 1}} {
		stmts = append(stmts, &ast.CNOTGate{
			Ctrl: ast.Access{Register: "q", Index: pair[0]},
			Tgt:  ast.Access{Register: "q", Index: pair[1]},
		})
	}
	_, perm, rep := routeStmts(t, dev, stmts...)

	if !perm.IsBijection() {
		t.Errorf("permutation = %v, not a bijection", perm)
	}
	if rep.HasErrors() {
		t.Errorf("unexpected diagnostics on a connected ring: %v", rep.Diagnostics())
	}
}
