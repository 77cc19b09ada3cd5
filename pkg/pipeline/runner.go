package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/qasmkit/qroute/pkg/cache"
	"github.com/qasmkit/qroute/pkg/device"
	"github.com/qasmkit/qroute/pkg/diag"
	"github.com/qasmkit/qroute/pkg/errors"
	"github.com/qasmkit/qroute/pkg/qasm"
	"github.com/qasmkit/qroute/pkg/route"
)

// Runner executes the pipeline with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer selects the default keyer; a nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// artifact is the cached form of a routed program. Device-load diagnostics
// are not stored: they are reproduced when the device is loaded again.
type artifact struct {
	Program     string            `json:"program"`
	Permutation route.Permutation `json:"permutation"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	Swaps       int               `json:"swaps"`
}

// Execute runs the complete parse → route → emit pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run_id", result.RunID)

	src, err := r.programSource(opts)
	if err != nil {
		return nil, err
	}

	// Stage 1: Device
	deviceStart := time.Now()
	devRep := diag.NewReporter(logger)
	dev, deviceData, err := r.loadDevice(opts, devRep)
	if err != nil {
		return nil, err
	}
	result.Stats.DeviceTime = time.Since(deviceStart)
	result.Diagnostics = devRep.Diagnostics()

	logger.Info("loaded device",
		"device", dev.Name(),
		"qubits", dev.Qubits(),
		"couplings", len(dev.Couplings()),
		"duration", result.Stats.DeviceTime)

	key := r.Keyer.RouteKey(cache.Hash(deviceData), cache.Hash([]byte(src)), opts.RouteKeyOpts())
	result.CacheInfo.Key = key

	if !opts.NoCache && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var art artifact
			if err := json.Unmarshal(data, &art); err == nil {
				result.Program = art.Program
				result.Permutation = art.Permutation
				result.Diagnostics = append(result.Diagnostics, art.Diagnostics...)
				result.Swaps = art.Swaps
				result.CacheInfo.Hit = true
				result.Stats.TotalTime = time.Since(start)
				logger.Info("routed artifact from cache")
				return result, nil
			}
			// Corrupt entry, recompute.
			_ = r.Cache.Delete(ctx, key)
		}
	}

	// Stage 2: Parse
	parseStart := time.Now()
	prog, err := qasm.ParseString(src)
	if err != nil {
		return nil, err
	}
	result.Stats.ParseTime = time.Since(parseStart)

	logger.Info("parsed program",
		"statements", len(prog.Stmts),
		"duration", result.Stats.ParseTime)

	// Stage 3: Route
	routeStart := time.Now()
	routeRep := diag.NewReporter(logger)
	router := route.NewSwapRouter(dev, route.Config{Register: opts.Register}, routeRep)
	result.Permutation = router.Run(ctx, prog)
	result.Swaps = router.Swaps()
	result.Stats.RouteTime = time.Since(routeStart)
	result.Diagnostics = append(result.Diagnostics, routeRep.Diagnostics()...)

	logger.Info("routed program",
		"swaps", result.Swaps,
		"diagnostics", routeRep.Len(),
		"duration", result.Stats.RouteTime)

	result.Program = prog.String()

	// Programs that failed to route are not worth caching.
	if !opts.NoCache && !routeRep.HasErrors() {
		art := artifact{
			Program:     result.Program,
			Permutation: result.Permutation,
			Diagnostics: routeRep.Diagnostics(),
			Swaps:       result.Swaps,
		}
		if data, err := json.Marshal(art); err == nil {
			_ = r.Cache.Set(ctx, key, data, opts.TTL)
		}
	}

	result.Stats.TotalTime = time.Since(start)
	return result, nil
}

// programSource resolves the program text from the options.
func (r *Runner) programSource(opts Options) (string, error) {
	if opts.Program != "" {
		return opts.Program, nil
	}
	data, err := os.ReadFile(opts.ProgramFile)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read program %s", opts.ProgramFile)
	}
	return string(data), nil
}

// loadDevice resolves the device from the options and returns its canonical
// serialized form for cache keying.
func (r *Runner) loadDevice(opts Options, rep *diag.Reporter) (*device.Device, []byte, error) {
	if opts.Device != nil {
		var buf bytes.Buffer
		if err := device.Write(opts.Device, &buf); err != nil {
			return nil, nil, err
		}
		return opts.Device, buf.Bytes(), nil
	}

	data, err := os.ReadFile(opts.DeviceFile)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read device %s", opts.DeviceFile)
	}
	dev, err := device.Read(bytes.NewReader(data), rep)
	if err != nil {
		return nil, nil, err
	}
	return dev, data, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
