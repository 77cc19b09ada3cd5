package device

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures coupling-graph DOT generation.
type DOTOptions struct {
	// Fidelities labels every edge with its coupling fidelity.
	Fidelities bool
}

// ToDOT converts a device's coupling graph to Graphviz DOT format.
// Qubits are rendered as circles; each directed coupling is one arrow from
// control to target. The resulting string can be rendered with [RenderSVG]
// or [RenderPNG].
func ToDOT(d *Device, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph device {\n")
	fmt.Fprintf(&buf, "  label=%q;\n", d.Name())
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for i := 0; i < d.Qubits(); i++ {
		fmt.Fprintf(&buf, "  %d;\n", i)
	}

	buf.WriteString("\n")
	for _, c := range d.Couplings() {
		if opts.Fidelities && c.Fidelity != IdealFidelity {
			fmt.Fprintf(&buf, "  %d -> %d [label=\"%.3f\", fontsize=10];\n", c.Control, c.Target, c.Fidelity)
		} else {
			fmt.Fprintf(&buf, "  %d -> %d;\n", c.Control, c.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT coupling graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT coupling graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
