// Package pipeline provides the parse → route → emit pipeline for qroute.
//
// The pipeline is shared by the CLI and the API server so both entry points
// behave identically, including how routed artifacts are cached.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: read the OPENQASM program into its statement tree
//  2. Route: insert swaps and direction corrections for the device
//  3. Emit: serialize the routed program back to OPENQASM
//
// Routing is deterministic, so the routed artifact is cached under a key
// derived from the device description, the program source, and the register
// configuration.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ProgramFile: "bell.qasm",
//	    DeviceFile:  "ibmq5.json",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Program)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/qasmkit/qroute/pkg/cache"
	"github.com/qasmkit/qroute/pkg/device"
	"github.com/qasmkit/qroute/pkg/diag"
	"github.com/qasmkit/qroute/pkg/errors"
	"github.com/qasmkit/qroute/pkg/route"
)

// DefaultRegister is the quantum register routed onto the device when the
// options do not name one.
const DefaultRegister = route.DefaultRegister

// DefaultTTL is how long routed artifacts stay cached.
const DefaultTTL = 30 * 24 * time.Hour

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Program is the OPENQASM source text. Takes precedence over
	// ProgramFile when both are set.
	Program     string `json:"program,omitempty"`
	ProgramFile string `json:"program_file,omitempty"`

	// Device is an already-loaded device. Takes precedence over
	// DeviceFile when both are set.
	Device     *device.Device `json:"-"`
	DeviceFile string         `json:"device_file,omitempty"`

	// Register is the quantum register the router maps.
	Register string `json:"register,omitempty"`

	// NoCache disables the artifact cache entirely.
	NoCache bool `json:"no_cache,omitempty"`

	// Refresh bypasses cached artifacts but still stores fresh ones.
	Refresh bool `json:"refresh,omitempty"`

	// TTL overrides DefaultTTL for stored artifacts.
	TTL time.Duration `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this pipeline execution in logs and API responses.
	RunID string

	// Program is the routed OPENQASM source.
	Program string

	// Permutation is the final logical-to-physical qubit mapping.
	Permutation route.Permutation

	// Diagnostics collects the warnings and errors reported while loading
	// the device and routing the program.
	Diagnostics []diag.Diagnostic

	// Swaps is the number of swap sequences the router inserted.
	Swaps int

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks whether the artifact came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ParseTime  time.Duration
	DeviceTime time.Duration
	RouteTime  time.Duration
	TotalTime  time.Duration
}

// CacheInfo tracks cache usage for a run.
type CacheInfo struct {
	Hit bool // whether the routed artifact came from cache
	Key string
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Program == "" && o.ProgramFile == "" {
		return errors.New(errors.ErrCodeInvalidInput, "program or program_file is required")
	}
	if o.Device == nil && o.DeviceFile == "" {
		return errors.New(errors.ErrCodeInvalidInput, "device or device_file is required")
	}
	if o.Register == "" {
		o.Register = DefaultRegister
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// RouteKeyOpts returns the cache key options for this run.
func (o *Options) RouteKeyOpts() cache.RouteKeyOpts {
	return cache.RouteKeyOpts{Register: o.Register}
}
