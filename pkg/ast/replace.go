package ast

// RewriteKind enumerates the four outcomes a [Rewriter] can choose for a
// statement.
type RewriteKind int

const (
	// RewriteKeep leaves the statement unchanged.
	RewriteKeep RewriteKind = iota
	// RewriteReplace substitutes a single statement.
	RewriteReplace
	// RewriteSplice substitutes an ordered sequence of statements.
	RewriteSplice
	// RewriteRemove deletes the statement.
	RewriteRemove
)

// Rewrite is a rewriter's decision for one statement. Construct values with
// [Keep], [ReplaceWith], [Splice] or [Remove].
type Rewrite struct {
	kind  RewriteKind
	stmts []Stmt
}

// Kind returns the decision kind.
func (r Rewrite) Kind() RewriteKind { return r.kind }

// Keep leaves the visited statement in place.
func Keep() Rewrite { return Rewrite{kind: RewriteKeep} }

// ReplaceWith substitutes the visited statement with s.
func ReplaceWith(s Stmt) Rewrite { return Rewrite{kind: RewriteReplace, stmts: []Stmt{s}} }

// Splice substitutes the visited statement with stmts, preserving
// surrounding order. An empty splice is equivalent to [Remove].
func Splice(stmts ...Stmt) Rewrite { return Rewrite{kind: RewriteSplice, stmts: stmts} }

// Remove deletes the visited statement.
func Remove() Rewrite { return Rewrite{kind: RewriteRemove} }

// Scope carries traversal context to the rewriter.
type Scope struct {
	// Conditional is true inside the body of an [If] statement.
	Conditional bool
}

// Rewriter transforms a program during [Replace].
//
// RewriteAccess is called for every register reference before RewriteStmt
// fires on the enclosing statement, so statement-level rules observe
// already-rewritten references. Implementations return the input unchanged
// for references they do not own.
type Rewriter interface {
	RewriteStmt(s Stmt, sc Scope) Rewrite
	RewriteAccess(a Access) Access
}

// Replace traverses p in a deterministic order and applies r's decisions.
//
// Top-level statements are visited in declaration order. Composite bodies
// are rewritten before the composite itself (post-order). Statements
// produced by a replacement or splice are not revisited; ownership of
// replaced nodes passes to the engine and they must not be referenced
// afterwards.
func Replace(p *Program, r Rewriter) {
	p.Stmts = rewriteList(p.Stmts, r, Scope{})
}

func rewriteList(stmts []Stmt, r Rewriter, sc Scope) []Stmt {
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		rewriteAccesses(s, r)
		if iff, ok := s.(*If); ok {
			iff.Body = rewriteList(iff.Body, r, Scope{Conditional: true})
		}
		switch res := r.RewriteStmt(s, sc); res.kind {
		case RewriteKeep:
			out = append(out, s)
		case RewriteReplace, RewriteSplice:
			out = append(out, res.stmts...)
		case RewriteRemove:
			// dropped
		}
	}
	return out
}

// rewriteAccesses applies r.RewriteAccess to every register reference of a
// single statement, in operand order.
func rewriteAccesses(s Stmt, r Rewriter) {
	switch s := s.(type) {
	case *CNOTGate:
		s.Ctrl = r.RewriteAccess(s.Ctrl)
		s.Tgt = r.RewriteAccess(s.Tgt)
	case *UGate:
		s.Tgt = r.RewriteAccess(s.Tgt)
	case *Barrier:
		for i := range s.Args {
			s.Args[i] = r.RewriteAccess(s.Args[i])
		}
	case *Measure:
		s.Src = r.RewriteAccess(s.Src)
		s.Dst = r.RewriteAccess(s.Dst)
	case *Reset:
		s.Tgt = r.RewriteAccess(s.Tgt)
	}
}
