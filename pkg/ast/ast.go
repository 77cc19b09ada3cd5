// Package ast defines the program tree for the qroute compiler and the
// replacement engine that transforms it.
//
// The statement set is closed: every node in a program is one of the types
// below, and passes dispatch with an exhaustive type switch rather than
// open-ended visitors. Statements are held as pointers so a pass can rewrite
// register references in place while the tree is being traversed.
//
// # Core Types
//
//   - [Program]: ordered top-level statement list
//   - [Stmt]: the closed statement interface
//   - [Access]: a register reference like q[3]
//   - [Expr]: rotation-angle expressions (pi, integers, reals, binary ops)
//
// # Transformation
//
// [Replace] drives a deterministic post-order traversal and applies a
// [Rewriter]'s decision (keep, replace, splice, remove) at every statement.
package ast

import "fmt"

// Position is a 1-based source location. The zero value means "unknown".
type Position struct {
	Line   int
	Column int
}

// String formats the position as "line:column".
func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Access is a subscripted register reference, e.g. q[3] or c[0].
type Access struct {
	Register string
	Index    int
}

// String formats the access in source syntax.
func (a Access) String() string { return fmt.Sprintf("%s[%d]", a.Register, a.Index) }

// =============================================================================
// Statements
// =============================================================================

// Stmt is the closed statement interface. Only the types in this package
// implement it.
type Stmt interface {
	Pos() Position
	stmt()
}

// QregDecl declares a quantum register: qreg q[n];
type QregDecl struct {
	P    Position
	Name string
	Size int
}

// CregDecl declares a classical register: creg c[n];
type CregDecl struct {
	P    Position
	Name string
	Size int
}

// GateDecl is a leftover gate declaration. An earlier inlining pass should
// have eliminated these; the routing pass tolerates and drops them.
type GateDecl struct {
	P    Position
	Name string
}

// OracleDecl is a leftover oracle declaration, tolerated like [GateDecl].
type OracleDecl struct {
	P    Position
	Name string
}

// CNOTGate is the directed two-qubit primitive: cx ctrl, tgt;
type CNOTGate struct {
	P    Position
	Ctrl Access
	Tgt  Access
}

// UGate is the parametrized single-qubit primitive: U(theta, phi, lambda) tgt;
type UGate struct {
	P      Position
	Theta  Expr
	Phi    Expr
	Lambda Expr
	Tgt    Access
}

// Barrier prevents reordering across its arguments: barrier q[0], q[1];
type Barrier struct {
	P    Position
	Args []Access
}

// Measure reads a qubit into a classical bit: measure src -> dst;
type Measure struct {
	P   Position
	Src Access
	Dst Access
}

// Reset returns a qubit to |0>: reset tgt;
type Reset struct {
	P   Position
	Tgt Access
}

// If conditions its body on a classical register value: if (c==v) ...;
// Index is -1 when the whole register is compared.
type If struct {
	P     Position
	Creg  string
	Index int
	Value int
	Body  []Stmt
}

func (s *QregDecl) Pos() Position   { return s.P }
func (s *CregDecl) Pos() Position   { return s.P }
func (s *GateDecl) Pos() Position   { return s.P }
func (s *OracleDecl) Pos() Position { return s.P }
func (s *CNOTGate) Pos() Position   { return s.P }
func (s *UGate) Pos() Position      { return s.P }
func (s *Barrier) Pos() Position    { return s.P }
func (s *Measure) Pos() Position    { return s.P }
func (s *Reset) Pos() Position      { return s.P }
func (s *If) Pos() Position         { return s.P }

func (*QregDecl) stmt()   {}
func (*CregDecl) stmt()   {}
func (*GateDecl) stmt()   {}
func (*OracleDecl) stmt() {}
func (*CNOTGate) stmt()   {}
func (*UGate) stmt()      {}
func (*Barrier) stmt()    {}
func (*Measure) stmt()    {}
func (*Reset) stmt()      {}
func (*If) stmt()         {}

// =============================================================================
// Angle Expressions
// =============================================================================

// Expr is a rotation-angle expression. The set is closed: pi, integer and
// real literals, and binary arithmetic.
type Expr interface {
	expr()
	String() string
}

// Pi is the constant pi.
type Pi struct{}

// Int is an integer literal.
type Int struct{ V int }

// Real is a floating-point literal.
type Real struct{ V float64 }

// BinaryOp is an arithmetic operator in an angle expression.
type BinaryOp rune

// Supported angle operators.
const (
	OpAdd BinaryOp = '+'
	OpSub BinaryOp = '-'
	OpMul BinaryOp = '*'
	OpDiv BinaryOp = '/'
)

// Binary applies Op to L and R.
type Binary struct {
	Op BinaryOp
	L  Expr
	R  Expr
}

func (Pi) expr()     {}
func (Int) expr()    {}
func (Real) expr()   {}
func (Binary) expr() {}

// String renders "pi".
func (Pi) String() string { return "pi" }

// String renders the integer literal.
func (e Int) String() string { return fmt.Sprintf("%d", e.V) }

// String renders the real literal in shortest form.
func (e Real) String() string { return fmt.Sprintf("%g", e.V) }

// String renders the operation, parenthesizing nested binaries.
func (e Binary) String() string {
	return fmt.Sprintf("%s%c%s", operand(e.L), e.Op, operand(e.R))
}

func operand(e Expr) string {
	if b, ok := e.(Binary); ok {
		return "(" + b.String() + ")"
	}
	return e.String()
}

// =============================================================================
// Program
// =============================================================================

// Program is an ordered sequence of top-level statements.
type Program struct {
	Version  string // OPENQASM version, "2.0" by default
	Includes []string
	Stmts    []Stmt
}

// NewProgram creates an empty OPENQASM 2.0 program with the standard include.
func NewProgram() *Program {
	return &Program{
		Version:  "2.0",
		Includes: []string{"qelib1.inc"},
	}
}
