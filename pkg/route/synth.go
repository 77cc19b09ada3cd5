package route

import "github.com/qasmkit/qroute/pkg/ast"

// Gate construction helpers. These keep the router free of tree-building
// detail: every node the router emits comes from here, carrying the source
// position of the gate being rewritten.

// newCNOT builds the directed two-qubit primitive cx reg[ctrl], reg[tgt].
func newCNOT(register string, ctrl, tgt int, pos ast.Position) *ast.CNOTGate {
	return &ast.CNOTGate{
		P:    pos,
		Ctrl: ast.Access{Register: register, Index: ctrl},
		Tgt:  ast.Access{Register: register, Index: tgt},
	}
}

// newHadamard builds the Hadamard-equivalent basis change U(pi/2, 0, pi)
// on reg[q].
func newHadamard(register string, q int, pos ast.Position) *ast.UGate {
	return &ast.UGate{
		P:      pos,
		Theta:  ast.Binary{Op: ast.OpDiv, L: ast.Pi{}, R: ast.Int{V: 2}},
		Phi:    ast.Int{V: 0},
		Lambda: ast.Pi{},
		Tgt:    ast.Access{Register: register, Index: q},
	}
}

// newDirectionCorrectedCNOT realizes cx reg[i], reg[j] on a device that only
// couples (j, i): a basis-change sandwich around the reversed primitive.
// H i; H j; cx j, i; H i; H j preserves the externally observed control and
// target roles.
func newDirectionCorrectedCNOT(register string, i, j int, pos ast.Position) []ast.Stmt {
	return []ast.Stmt{
		newHadamard(register, i, pos),
		newHadamard(register, j, pos),
		newCNOT(register, j, i, pos),
		newHadamard(register, i, pos),
		newHadamard(register, j, pos),
	}
}
