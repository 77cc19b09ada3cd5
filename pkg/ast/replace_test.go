package ast

import (
	"testing"
)

// spyRewriter records visit order and applies canned decisions.
type spyRewriter struct {
	visited   []Stmt
	scopes    []Scope
	decide    func(s Stmt, sc Scope) Rewrite
	accessMap func(a Access) Access
}

func (r *spyRewriter) RewriteStmt(s Stmt, sc Scope) Rewrite {
	r.visited = append(r.visited, s)
	r.scopes = append(r.scopes, sc)
	if r.decide != nil {
		return r.decide(s, sc)
	}
	return Keep()
}

func (r *spyRewriter) RewriteAccess(a Access) Access {
	if r.accessMap != nil {
		return r.accessMap(a)
	}
	return a
}

func TestReplaceVisitsInOrder(t *testing.T) {
	cnot := &CNOTGate{Ctrl: Access{"q", 0}, Tgt: Access{"q", 1}}
	meas := &Measure{Src: Access{"q", 0}, Dst: Access{"c", 0}}
	p := &Program{Stmts: []Stmt{cnot, meas}}

	spy := &spyRewriter{}
	Replace(p, spy)

	if len(spy.visited) != 2 {
		t.Fatalf("visited %d statements, want 2", len(spy.visited))
	}
	if spy.visited[0] != cnot || spy.visited[1] != meas {
		t.Error("statements visited out of declaration order")
	}
	if len(p.Stmts) != 2 {
		t.Errorf("kept %d statements, want 2", len(p.Stmts))
	}
}

func TestReplaceSplicePreservesOrder(t *testing.T) {
	a := &Reset{Tgt: Access{"q", 0}}
	b := &CNOTGate{Ctrl: Access{"q", 0}, Tgt: Access{"q", 1}}
	c := &Reset{Tgt: Access{"q", 1}}
	p := &Program{Stmts: []Stmt{a, b, c}}

	r1 := &UGate{Theta: Pi{}, Phi: Int{0}, Lambda: Int{0}, Tgt: Access{"q", 0}}
	r2 := &UGate{Theta: Pi{}, Phi: Int{0}, Lambda: Int{0}, Tgt: Access{"q", 1}}

	spy := &spyRewriter{decide: func(s Stmt, _ Scope) Rewrite {
		if s == b {
			return Splice(r1, r2)
		}
		return Keep()
	}}
	Replace(p, spy)

	want := []Stmt{a, r1, r2, c}
	if len(p.Stmts) != len(want) {
		t.Fatalf("got %d statements, want %d", len(p.Stmts), len(want))
	}
	for i := range want {
		if p.Stmts[i] != want[i] {
			t.Errorf("stmt %d = %T, want %T", i, p.Stmts[i], want[i])
		}
	}
}

func TestReplaceRemove(t *testing.T) {
	decl := &GateDecl{Name: "flip"}
	oracle := &OracleDecl{Name: "f"}
	keepMe := &Reset{Tgt: Access{"q", 0}}
	p := &Program{Stmts: []Stmt{decl, keepMe, oracle}}

	spy := &spyRewriter{decide: func(s Stmt, _ Scope) Rewrite {
		switch s.(type) {
		case *GateDecl, *OracleDecl:
			return Remove()
		}
		return Keep()
	}}
	Replace(p, spy)

	if len(p.Stmts) != 1 || p.Stmts[0] != keepMe {
		t.Errorf("got %d statements, want only the reset", len(p.Stmts))
	}
}

func TestReplaceRewritesAccessesBeforeStmt(t *testing.T) {
	cnot := &CNOTGate{Ctrl: Access{"q", 0}, Tgt: Access{"q", 1}}
	p := &Program{Stmts: []Stmt{cnot}}

	var seenCtrl int
	spy := &spyRewriter{
		accessMap: func(a Access) Access {
			if a.Register == "q" {
				return Access{"q", a.Index + 10}
			}
			return a
		},
		decide: func(s Stmt, _ Scope) Rewrite {
			if g, ok := s.(*CNOTGate); ok {
				seenCtrl = g.Ctrl.Index
			}
			return Keep()
		},
	}
	Replace(p, spy)

	if seenCtrl != 10 {
		t.Errorf("statement rule saw ctrl=%d, want already-rewritten 10", seenCtrl)
	}
	if cnot.Tgt.Index != 11 {
		t.Errorf("tgt = %d, want 11", cnot.Tgt.Index)
	}
}

func TestReplaceLeavesForeignRegisters(t *testing.T) {
	meas := &Measure{Src: Access{"q", 1}, Dst: Access{"c", 1}}
	p := &Program{Stmts: []Stmt{meas}}

	spy := &spyRewriter{accessMap: func(a Access) Access {
		if a.Register == "q" {
			return Access{"q", 0}
		}
		return a
	}}
	Replace(p, spy)

	if meas.Src.Index != 0 {
		t.Errorf("src = %d, want rewritten 0", meas.Src.Index)
	}
	if meas.Dst != (Access{"c", 1}) {
		t.Errorf("dst = %v, want untouched c[1]", meas.Dst)
	}
}

func TestReplaceDescendsIntoIfBodies(t *testing.T) {
	inner := &CNOTGate{Ctrl: Access{"q", 0}, Tgt: Access{"q", 1}}
	iff := &If{Creg: "c", Index: -1, Value: 1, Body: []Stmt{inner}}
	p := &Program{Stmts: []Stmt{iff}}

	spy := &spyRewriter{}
	Replace(p, spy)

	if len(spy.visited) != 2 {
		t.Fatalf("visited %d statements, want body + composite", len(spy.visited))
	}
	// Post-order: the body statement before the composite.
	if spy.visited[0] != inner || spy.visited[1] != iff {
		t.Error("expected post-order visit of if body before the if itself")
	}
	if !spy.scopes[0].Conditional {
		t.Error("body statement should be visited with Conditional scope")
	}
	if spy.scopes[1].Conditional {
		t.Error("top-level if should not be marked Conditional")
	}
}

func TestReplaceSpliceInsideIfBody(t *testing.T) {
	inner := &Reset{Tgt: Access{"q", 0}}
	iff := &If{Creg: "c", Index: -1, Value: 1, Body: []Stmt{inner}}
	p := &Program{Stmts: []Stmt{iff}}

	h := &UGate{Theta: Pi{}, Phi: Int{0}, Lambda: Int{0}, Tgt: Access{"q", 0}}
	spy := &spyRewriter{decide: func(s Stmt, sc Scope) Rewrite {
		if s == inner {
			if !sc.Conditional {
				t.Error("inner statement should carry Conditional scope")
			}
			return ReplaceWith(h)
		}
		return Keep()
	}}
	Replace(p, spy)

	if len(iff.Body) != 1 || iff.Body[0] != h {
		t.Errorf("if body = %v, want single replacement", iff.Body)
	}
}
