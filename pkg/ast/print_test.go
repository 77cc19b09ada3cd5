package ast

import (
	"strings"
	"testing"
)

func TestProgramString(t *testing.T) {
	p := NewProgram()
	p.Stmts = []Stmt{
		&QregDecl{Name: "q", Size: 3},
		&CregDecl{Name: "c", Size: 3},
		&CNOTGate{Ctrl: Access{"q", 0}, Tgt: Access{"q", 1}},
		&UGate{
			Theta:  Binary{Op: OpDiv, L: Pi{}, R: Int{2}},
			Phi:    Int{0},
			Lambda: Pi{},
			Tgt:    Access{"q", 2},
		},
		&Barrier{Args: []Access{{"q", 0}, {"q", 1}}},
		&Measure{Src: Access{"q", 0}, Dst: Access{"c", 0}},
		&Reset{Tgt: Access{"q", 1}},
		&If{Creg: "c", Index: -1, Value: 1, Body: []Stmt{
			&UGate{Theta: Pi{}, Phi: Int{0}, Lambda: Pi{}, Tgt: Access{"q", 0}},
		}},
	}

	want := `OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
creg c[3];
cx q[0], q[1];
U(pi/2, 0, pi) q[2];
barrier q[0], q[1];
measure q[0] -> c[0];
reset q[1];
if (c==1) U(pi, 0, pi) q[0];
`
	if got := p.String(); got != want {
		t.Errorf("String() =\n%s\nwant:\n%s", got, want)
	}
}

func TestExprString(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"Pi", Pi{}, "pi"},
		{"Int", Int{2}, "2"},
		{"Real", Real{0.5}, "0.5"},
		{"HalfPi", Binary{Op: OpDiv, L: Pi{}, R: Int{2}}, "pi/2"},
		{"TwoPi", Binary{Op: OpMul, L: Int{2}, R: Pi{}}, "2*pi"},
		{"Nested", Binary{Op: OpDiv, L: Binary{Op: OpMul, L: Int{3}, R: Pi{}}, R: Int{4}}, "(3*pi)/4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIndexedIfCondition(t *testing.T) {
	p := &Program{Version: "2.0", Stmts: []Stmt{
		&If{Creg: "c", Index: 2, Value: 0, Body: []Stmt{
			&Reset{Tgt: Access{"q", 0}},
		}},
	}}
	if got := p.String(); !strings.Contains(got, "if (c[2]==0) reset q[0];") {
		t.Errorf("String() = %q, want indexed condition", got)
	}
}
