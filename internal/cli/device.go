package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qasmkit/qroute/pkg/device"
	"github.com/qasmkit/qroute/pkg/diag"
	"github.com/qasmkit/qroute/pkg/errors"
)

// deviceCommand creates the device management command.
func (c *CLI) deviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Validate and render device descriptions",
	}

	cmd.AddCommand(c.deviceValidateCommand())
	cmd.AddCommand(c.deviceRenderCommand())

	return cmd
}

// deviceValidateCommand creates the "device validate" subcommand.
func (c *CLI) deviceValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <device.json>",
		Short: "Check a device description and report dropped entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := diag.NewReporter(c.Logger)
			dev, err := device.ReadFile(args[0], rep)
			if err != nil {
				return err
			}

			printDiagnostics(rep.Diagnostics())
			if rep.Len() > 0 {
				printWarning("%s loaded with %d dropped entries", args[0], rep.Len())
			} else {
				printSuccess("%s is valid", args[0])
			}
			printDetail("device: %s", dev.Name())
			printDetail("qubits: %d", dev.Qubits())
			printDetail("couplings: %d", len(dev.Couplings()))
			return nil
		},
	}
}

// renderOpts holds the command-line flags for the device render command.
type renderOpts struct {
	format     string // dot, svg, or png
	output     string // output file path (stdout for dot if empty)
	fidelities bool   // label edges with coupling fidelities
}

// deviceRenderCommand creates the "device render" subcommand.
func (c *CLI) deviceRenderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <device.json>",
		Short: "Render a device coupling graph",
		Long: `Render a device coupling graph as DOT, SVG, or PNG.

Examples:
  qroute device render ibmq5.json --format svg -o ibmq5.svg
  qroute device render ibmq5.json --fidelities`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDeviceRender(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "dot", "output format: dot, svg, or png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&opts.fidelities, "fidelities", false, "label couplings with their fidelities")

	return cmd
}

func (c *CLI) runDeviceRender(path string, opts renderOpts) error {
	rep := diag.NewReporter(c.Logger)
	dev, err := device.ReadFile(path, rep)
	if err != nil {
		return err
	}
	printDiagnostics(rep.Diagnostics())

	dot := device.ToDOT(dev, device.DOTOptions{Fidelities: opts.fidelities})

	var data []byte
	switch opts.format {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = device.RenderSVG(dot)
	case "png":
		data, err = device.RenderPNG(dot)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (must be dot, svg, or png)", opts.format)
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		if opts.format != "dot" {
			return errors.New(errors.ErrCodeInvalidInput, "binary format %q needs --output", opts.format)
		}
		fmt.Print(dot)
		return nil
	}

	if err := os.WriteFile(opts.output, data, 0644); err != nil {
		return err
	}
	printSuccess("Rendered %s coupling graph", dev.Name())
	printFile(opts.output)
	return nil
}
