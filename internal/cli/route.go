package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qasmkit/qroute/pkg/config"
	"github.com/qasmkit/qroute/pkg/diag"
	"github.com/qasmkit/qroute/pkg/errors"
	"github.com/qasmkit/qroute/pkg/pipeline"
)

// routeOpts holds the command-line flags for the route command.
type routeOpts struct {
	device     string // device description file
	output     string // output file path (stdout if empty)
	register   string // quantum register to map
	configPath string // explicit config file
	noCache    bool   // disable the artifact cache
	refresh    bool   // bypass cached artifacts
	mapping    bool   // print the final qubit mapping
}

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var opts routeOpts

	cmd := &cobra.Command{
		Use:   "route <program.qasm>",
		Short: "Route a program onto a device topology",
		Long: `Route an OPENQASM program onto a device topology.

Every cx whose qubits are not directly coupled is replaced by a swap chain
along the shortest connection, and primitives that run against the coupling
direction are wrapped in basis changes. The routed program is written to
stdout or --output.

Examples:
  qroute route bell.qasm --device ibmq5.json
  qroute route bell.qasm -d ibmq5.json -o routed.qasm --mapping
  qroute route bell.qasm -d ibmq5.json --register phys --no-cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.device, "device", "d", "", "device description file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&opts.register, "register", "", "quantum register to map (default from config)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ./qroute.toml)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached artifact exists")
	cmd.Flags().BoolVar(&opts.mapping, "mapping", false, "print the final logical to physical mapping")

	return cmd
}

func (c *CLI) runRoute(cmd *cobra.Command, programFile string, opts routeOpts) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	deviceFile := opts.device
	if deviceFile == "" {
		deviceFile = cfg.Device
	}
	if deviceFile == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no device given (use --device or set device in qroute.toml)")
	}
	register := opts.register
	if register == "" {
		register = cfg.Register
	}

	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		ProgramFile: programFile,
		DeviceFile:  deviceFile,
		Register:    register,
		NoCache:     opts.noCache,
		Refresh:     opts.refresh,
		TTL:         cfg.CacheTTL(),
		Logger:      c.Logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Routed %s onto %s", programFile, deviceFile))

	if err := writeProgram(result.Program, opts.output); err != nil {
		return err
	}

	printDiagnostics(result.Diagnostics)
	if opts.output != "" {
		printSuccess("Wrote routed program")
		printFile(opts.output)
	}
	printRouteStats(len(result.Permutation), result.Swaps, result.CacheInfo.Hit)
	if opts.mapping {
		printPermutation(result.Permutation)
	}

	if n := countErrors(result.Diagnostics); n > 0 {
		return errors.New(errors.ErrCodeRoutingDisconnected, "routing produced %d error diagnostic(s)", n)
	}
	return nil
}

// loadConfig loads an explicit config file, or the working-directory default.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault()
}

// writeProgram writes src to path, or stdout when path is empty.
func writeProgram(src, path string) error {
	if path == "" {
		_, err := fmt.Print(src)
		return err
	}
	return os.WriteFile(path, []byte(src), 0644)
}

func countErrors(diags []diag.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == diag.Error {
			n++
		}
	}
	return n
}
