package ast

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Write emits p as OPENQASM source. Output is deterministic: statements are
// printed in tree order with one statement per line.
func (p *Program) Write(w io.Writer) error {
	version := p.Version
	if version == "" {
		version = "2.0"
	}
	if _, err := fmt.Fprintf(w, "OPENQASM %s;\n", version); err != nil {
		return err
	}
	for _, inc := range p.Includes {
		if _, err := fmt.Fprintf(w, "include %q;\n", inc); err != nil {
			return err
		}
	}
	for _, s := range p.Stmts {
		if _, err := io.WriteString(w, formatStmt(s)); err != nil {
			return err
		}
	}
	return nil
}

// String renders the program as OPENQASM source.
func (p *Program) String() string {
	var buf bytes.Buffer
	p.Write(&buf) // bytes.Buffer writes cannot fail
	return buf.String()
}

func formatStmt(s Stmt) string {
	switch s := s.(type) {
	case *QregDecl:
		return fmt.Sprintf("qreg %s[%d];\n", s.Name, s.Size)
	case *CregDecl:
		return fmt.Sprintf("creg %s[%d];\n", s.Name, s.Size)
	case *GateDecl:
		// Should have been inlined away; keep a trace rather than emit
		// an unexpanded declaration.
		return fmt.Sprintf("// unexpanded gate %s\n", s.Name)
	case *OracleDecl:
		return fmt.Sprintf("// unexpanded oracle %s\n", s.Name)
	case *CNOTGate:
		return fmt.Sprintf("cx %s, %s;\n", s.Ctrl, s.Tgt)
	case *UGate:
		return fmt.Sprintf("U(%s, %s, %s) %s;\n", s.Theta, s.Phi, s.Lambda, s.Tgt)
	case *Barrier:
		args := make([]string, len(s.Args))
		for i, a := range s.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("barrier %s;\n", strings.Join(args, ", "))
	case *Measure:
		return fmt.Sprintf("measure %s -> %s;\n", s.Src, s.Dst)
	case *Reset:
		return fmt.Sprintf("reset %s;\n", s.Tgt)
	case *If:
		cond := s.Creg
		if s.Index >= 0 {
			cond = fmt.Sprintf("%s[%d]", s.Creg, s.Index)
		}
		var body strings.Builder
		for _, inner := range s.Body {
			body.WriteString(fmt.Sprintf("if (%s==%d) %s", cond, s.Value, formatStmt(inner)))
		}
		return body.String()
	default:
		return fmt.Sprintf("// unknown statement %T\n", s)
	}
}
