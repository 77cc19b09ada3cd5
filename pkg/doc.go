// Package pkg provides the core libraries for qroute.
//
// # Overview
//
// qroute rewrites quantum programs so that every two-qubit operation runs
// on qubits a target device actually couples. The pkg directory is
// organized into these areas:
//
//  1. [device] - Device topology (couplings, fidelities, shortest paths)
//  2. [ast] - Program tree and the statement replacement engine
//  3. [qasm] - OPENQASM 2.0 parsing
//  4. [route] - Swap insertion and direction correction
//  5. [pipeline] - Orchestration (parse → route → emit) with caching
//
// Supporting packages: [cache] for routed artifacts, [config] for TOML
// settings, [diag] for the diagnostic stream, [errors] for coded errors,
// [observability] for hook registries, [buildinfo] for version stamping.
//
// # Architecture
//
// The typical data flow through qroute:
//
//	OPENQASM source
//	         ↓
//	    [qasm] package (parse into the statement tree)
//	         ↓
//	    [route] package (map accesses, insert swaps, fix directions)
//	         ↓
//	    [ast] package (serialize the rewritten tree)
//	         ↓
//	    routed OPENQASM output
//
// # Quick Start
//
// Route a program onto a device:
//
//	import (
//	    "context"
//	    "github.com/qasmkit/qroute/pkg/device"
//	    "github.com/qasmkit/qroute/pkg/diag"
//	    "github.com/qasmkit/qroute/pkg/qasm"
//	    "github.com/qasmkit/qroute/pkg/route"
//	)
//
//	dev, _ := device.ReadFile("ibmq5.json", diag.NewReporter(nil))
//	prog, _ := qasm.ParseFile("bell.qasm")
//	perm := route.Map(context.Background(), dev, prog, route.Config{}, diag.NewReporter(nil))
//	fmt.Print(prog.String())
package pkg
