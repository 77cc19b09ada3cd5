// Package qasm reads OPENQASM 2.0 source into the qroute program tree.
//
// Only the statement subset the router operates on is supported: register
// declarations, the cx and U primitives (plus h as sugar for the Hadamard
// basis change), barrier, measure, reset, and single-statement if. Programs
// are expected to be fully inlined before routing; gate and opaque
// declarations are parsed into their tolerated leftover nodes.
package qasm

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/qasmkit/qroute/pkg/ast"
	"github.com/qasmkit/qroute/pkg/errors"
)

// anglePattern matches the rotation-angle subset: pi fractions, pi
// multiples, and plain numeric literals.
const anglePattern = `(?:-?\d+(?:\.\d+)?(?:[eE]-?\d+)?|pi(?:/\d+)?|\d+\*pi(?:/\d+)?)`

// Pre-compiled regexps for statement forms.
var (
	versionRe = regexp.MustCompile(`^OPENQASM\s+(\d+(?:\.\d+)?)\s*;$`)
	includeRe = regexp.MustCompile(`^include\s+"([^"]+)"\s*;$`)
	qregRe    = regexp.MustCompile(`^qreg\s+(\w+)\[(\d+)\]\s*;$`)
	cregRe    = regexp.MustCompile(`^creg\s+(\w+)\[(\d+)\]\s*;$`)
	cxRe      = regexp.MustCompile(`^(?:cx|CX)\s+(\w+)\[(\d+)\]\s*,\s*(\w+)\[(\d+)\]\s*;$`)
	uRe       = regexp.MustCompile(`^(?:U|u3?)\(\s*(` + anglePattern + `)\s*,\s*(` + anglePattern + `)\s*,\s*(` + anglePattern + `)\s*\)\s+(\w+)\[(\d+)\]\s*;$`)
	hRe       = regexp.MustCompile(`^h\s+(\w+)\[(\d+)\]\s*;$`)
	barrierRe = regexp.MustCompile(`^barrier\s+(.+?)\s*;$`)
	accessRe  = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)
	measureRe = regexp.MustCompile(`^measure\s+(\w+)\[(\d+)\]\s*->\s*(\w+)\[(\d+)\]\s*;$`)
	resetRe   = regexp.MustCompile(`^reset\s+(\w+)\[(\d+)\]\s*;$`)
	ifRe      = regexp.MustCompile(`^if\s*\(\s*(\w+)(?:\[(\d+)\])?\s*==\s*(\d+)\s*\)\s+(.+)$`)
	gateRe    = regexp.MustCompile(`^gate\s+(\w+)`)
	opaqueRe  = regexp.MustCompile(`^(?:opaque|oracle)\s+(\w+)`)
	piFracRe  = regexp.MustCompile(`^pi(?:/(\d+))?$`)
	piMulRe   = regexp.MustCompile(`^(\d+)\*pi(?:/(\d+))?$`)
)

// ParseFile reads an OPENQASM program from a file.
func ParseFile(path string) (*ast.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open program %s", path)
	}
	defer f.Close()
	return Parse(f)
}

// ParseString reads an OPENQASM program from a string.
func ParseString(src string) (*ast.Program, error) {
	return Parse(strings.NewReader(src))
}

// Parse reads an OPENQASM program from r. Line and column information is
// attached to every statement for diagnostics.
func Parse(r io.Reader) (*ast.Program, error) {
	prog := &ast.Program{Version: "2.0"}
	sc := bufio.NewScanner(r)

	inGateBody := false
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(stripComment(sc.Text()))
		if text == "" {
			continue
		}

		// Skip over the body of a tolerated gate declaration.
		if inGateBody {
			if strings.Contains(text, "}") {
				inGateBody = false
			}
			continue
		}

		switch {
		case versionRe.MatchString(text):
			prog.Version = versionRe.FindStringSubmatch(text)[1]
		case includeRe.MatchString(text):
			prog.Includes = append(prog.Includes, includeRe.FindStringSubmatch(text)[1])
		case gateRe.MatchString(text):
			prog.Stmts = append(prog.Stmts, &ast.GateDecl{
				P:    ast.Position{Line: line, Column: 1},
				Name: gateRe.FindStringSubmatch(text)[1],
			})
			if strings.Contains(text, "{") && !strings.Contains(text, "}") {
				inGateBody = true
			}
		case opaqueRe.MatchString(text):
			prog.Stmts = append(prog.Stmts, &ast.OracleDecl{
				P:    ast.Position{Line: line, Column: 1},
				Name: opaqueRe.FindStringSubmatch(text)[1],
			})
		default:
			s, err := parseStmt(text, line)
			if err != nil {
				return nil, err
			}
			prog.Stmts = append(prog.Stmts, s)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProgram, err, "read program")
	}
	return prog, nil
}

func parseStmt(text string, line int) (ast.Stmt, error) {
	pos := ast.Position{Line: line, Column: 1}

	switch {
	case qregRe.MatchString(text):
		m := qregRe.FindStringSubmatch(text)
		size, _ := strconv.Atoi(m[2])
		return &ast.QregDecl{P: pos, Name: m[1], Size: size}, nil

	case cregRe.MatchString(text):
		m := cregRe.FindStringSubmatch(text)
		size, _ := strconv.Atoi(m[2])
		return &ast.CregDecl{P: pos, Name: m[1], Size: size}, nil

	case cxRe.MatchString(text):
		m := cxRe.FindStringSubmatch(text)
		ci, _ := strconv.Atoi(m[2])
		ti, _ := strconv.Atoi(m[4])
		return &ast.CNOTGate{
			P:    pos,
			Ctrl: ast.Access{Register: m[1], Index: ci},
			Tgt:  ast.Access{Register: m[3], Index: ti},
		}, nil

	case uRe.MatchString(text):
		m := uRe.FindStringSubmatch(text)
		theta, err := parseAngle(m[1], line)
		if err != nil {
			return nil, err
		}
		phi, err := parseAngle(m[2], line)
		if err != nil {
			return nil, err
		}
		lambda, err := parseAngle(m[3], line)
		if err != nil {
			return nil, err
		}
		idx, _ := strconv.Atoi(m[5])
		return &ast.UGate{
			P: pos, Theta: theta, Phi: phi, Lambda: lambda,
			Tgt: ast.Access{Register: m[4], Index: idx},
		}, nil

	case hRe.MatchString(text):
		m := hRe.FindStringSubmatch(text)
		idx, _ := strconv.Atoi(m[2])
		return &ast.UGate{
			P:      pos,
			Theta:  ast.Binary{Op: ast.OpDiv, L: ast.Pi{}, R: ast.Int{V: 2}},
			Phi:    ast.Int{V: 0},
			Lambda: ast.Pi{},
			Tgt:    ast.Access{Register: m[1], Index: idx},
		}, nil

	case barrierRe.MatchString(text):
		m := barrierRe.FindStringSubmatch(text)
		var args []ast.Access
		for _, arg := range strings.Split(m[1], ",") {
			am := accessRe.FindStringSubmatch(strings.TrimSpace(arg))
			if am == nil {
				return nil, errors.New(errors.ErrCodeInvalidProgram, "line %d: malformed barrier argument %q", line, arg)
			}
			idx, _ := strconv.Atoi(am[2])
			args = append(args, ast.Access{Register: am[1], Index: idx})
		}
		return &ast.Barrier{P: pos, Args: args}, nil

	case measureRe.MatchString(text):
		m := measureRe.FindStringSubmatch(text)
		si, _ := strconv.Atoi(m[2])
		di, _ := strconv.Atoi(m[4])
		return &ast.Measure{
			P:   pos,
			Src: ast.Access{Register: m[1], Index: si},
			Dst: ast.Access{Register: m[3], Index: di},
		}, nil

	case resetRe.MatchString(text):
		m := resetRe.FindStringSubmatch(text)
		idx, _ := strconv.Atoi(m[2])
		return &ast.Reset{P: pos, Tgt: ast.Access{Register: m[1], Index: idx}}, nil

	case ifRe.MatchString(text):
		m := ifRe.FindStringSubmatch(text)
		index := -1
		if m[2] != "" {
			index, _ = strconv.Atoi(m[2])
		}
		value, _ := strconv.Atoi(m[3])
		inner, err := parseStmt(strings.TrimSpace(m[4]), line)
		if err != nil {
			return nil, err
		}
		if _, nested := inner.(*ast.If); nested {
			return nil, errors.New(errors.ErrCodeInvalidProgram, "line %d: nested if is not supported", line)
		}
		return &ast.If{P: pos, Creg: m[1], Index: index, Value: value, Body: []ast.Stmt{inner}}, nil
	}

	return nil, errors.New(errors.ErrCodeInvalidProgram, "line %d: unsupported statement %q", line, text)
}

// parseAngle parses the angle subset: "pi", "pi/2", "2*pi", "3*pi/4", and
// plain numeric literals.
func parseAngle(s string, line int) (ast.Expr, error) {
	if m := piFracRe.FindStringSubmatch(s); m != nil {
		if m[1] == "" {
			return ast.Pi{}, nil
		}
		den, _ := strconv.Atoi(m[1])
		return ast.Binary{Op: ast.OpDiv, L: ast.Pi{}, R: ast.Int{V: den}}, nil
	}
	if m := piMulRe.FindStringSubmatch(s); m != nil {
		num, _ := strconv.Atoi(m[1])
		mul := ast.Binary{Op: ast.OpMul, L: ast.Int{V: num}, R: ast.Pi{}}
		if m[2] == "" {
			return mul, nil
		}
		den, _ := strconv.Atoi(m[2])
		return ast.Binary{Op: ast.OpDiv, L: mul, R: ast.Int{V: den}}, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return ast.Int{V: n}, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return ast.Real{V: f}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidProgram, "line %d: malformed angle %q", line, s)
}

func stripComment(s string) string {
	if i := strings.Index(s, "//"); i >= 0 {
		return s[:i]
	}
	return s
}
