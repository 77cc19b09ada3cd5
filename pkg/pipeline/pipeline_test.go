package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qasmkit/qroute/pkg/cache"
	"github.com/qasmkit/qroute/pkg/device"
	"github.com/qasmkit/qroute/pkg/errors"
)

// lineDevice builds a three-qubit line with couplings in both directions.
func lineDevice(t *testing.T) *device.Device {
	t.Helper()
	dev, err := device.New("line3", 3)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	for _, c := range [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}} {
		if err := dev.AddCoupling(c[0], c[1]); err != nil {
			t.Fatalf("AddCoupling: %v", err)
		}
	}
	return dev
}

const bellProgram = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
creg c[3];
cx q[0], q[2];
`

func TestExecute(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Program: bellProgram,
		Device:  lineDevice(t),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.RunID == "" {
		t.Error("missing run id")
	}
	if !strings.Contains(result.Program, "cx q[1], q[2];") {
		t.Errorf("routed program missing final primitive:\n%s", result.Program)
	}
	if result.Swaps != 1 {
		t.Errorf("swaps = %d, want 1", result.Swaps)
	}
	if !result.Permutation.IsBijection() {
		t.Errorf("permutation %v is not a bijection", result.Permutation)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", result.Diagnostics)
	}
	if result.CacheInfo.Hit {
		t.Error("null cache reported a hit")
	}
}

func TestExecuteFromFiles(t *testing.T) {
	dir := t.TempDir()

	progPath := filepath.Join(dir, "bell.qasm")
	if err := os.WriteFile(progPath, []byte(bellProgram), 0644); err != nil {
		t.Fatalf("write program: %v", err)
	}
	devPath := filepath.Join(dir, "line3.json")
	if err := device.WriteFile(lineDevice(t), devPath); err != nil {
		t.Fatalf("write device: %v", err)
	}

	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		ProgramFile: progPath,
		DeviceFile:  devPath,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(result.Program, "qreg q[3];") {
		t.Errorf("routed program lost declarations:\n%s", result.Program)
	}
}

func TestExecuteCaching(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{Program: bellProgram, Device: lineDevice(t)}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.Hit {
		t.Error("first run reported a cache hit")
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.Hit {
		t.Error("second run missed the cache")
	}
	if second.Program != first.Program {
		t.Error("cached program differs from computed program")
	}
	if second.Swaps != first.Swaps {
		t.Errorf("cached swaps = %d, want %d", second.Swaps, first.Swaps)
	}
	if len(second.Permutation) != len(first.Permutation) {
		t.Errorf("cached permutation = %v, want %v", second.Permutation, first.Permutation)
	}

	// Refresh bypasses the cached artifact.
	refreshOpts := opts
	refreshOpts.Refresh = true
	third, err := runner.Execute(ctx, refreshOpts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.Hit {
		t.Error("refresh run reported a cache hit")
	}
}

func TestExecuteDisconnectedNotCached(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	dev, err := device.New("split", 2)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	opts := Options{Program: "qreg q[2];\ncx q[0], q[1];\n", Device: dev}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(first.Diagnostics) == 0 {
		t.Fatal("disconnected routing produced no diagnostics")
	}

	// The degraded artifact must not be served from cache.
	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if second.CacheInfo.Hit {
		t.Error("degraded artifact was cached")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"NoProgram", Options{DeviceFile: "dev.json"}},
		{"NoDevice", Options{Program: "qreg q[1];\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(nil, nil, nil)
			if _, err := runner.Execute(context.Background(), tt.opts); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestRegisterAffectsCacheKey(t *testing.T) {
	keyer := cache.NewDefaultKeyer()
	a := Options{Register: "q"}
	b := Options{Register: "phys"}
	if keyer.RouteKey("d", "p", a.RouteKeyOpts()) == keyer.RouteKey("d", "p", b.RouteKeyOpts()) {
		t.Error("register does not distinguish cache keys")
	}
}
