// Package device models the physical quantum device a program is routed onto.
//
// A [Device] is a fixed number of qubits with a directed coupling relation:
// Coupled(i, j) means a two-qubit primitive can execute with i as control and
// j as target without basis changes. Shortest-path queries treat couplings as
// undirected, since a coupling in either direction can carry a (possibly
// direction-corrected) primitive.
//
// Per-edge and per-qubit fidelities are carried for downstream consumers;
// routing itself only uses edge existence.
//
// # Construction
//
//	dev, err := device.New("ibm_lagos", 7)
//	dev.AddCoupling(0, 1)
//	dev.AddCouplingFidelity(1, 2, 0.993)
//
// A non-positive qubit count is fatal. Out-of-range endpoints or fidelities
// are returned as errors; the JSON loader downgrades them to warning
// diagnostics and drops the update.
package device

import (
	"slices"

	"github.com/qasmkit/qroute/pkg/errors"
)

// IdealFidelity is the default fidelity for qubits and couplings.
const IdealFidelity = 1.0

type edge struct{ ctrl, tgt int }

// Coupling is one directed edge of the coupling relation.
type Coupling struct {
	Control  int     `json:"control"`
	Target   int     `json:"target"`
	Fidelity float64 `json:"fidelity,omitempty"`
}

// Device is a read-only description of a physical device's topology.
// Construct it with [New] before routing; the router never mutates it.
type Device struct {
	name          string
	qubits        int
	edges         map[edge]float64
	qubitFidelity []float64
}

// New creates a device with the given name and qubit count and no couplings.
// Returns ErrCodeInvalidDevice if qubits is not positive; no partially-usable
// device is ever produced.
func New(name string, qubits int) (*Device, error) {
	if qubits <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidDevice, "qubit count must be positive, got %d", qubits)
	}
	fid := make([]float64, qubits)
	for i := range fid {
		fid[i] = IdealFidelity
	}
	return &Device{
		name:          name,
		qubits:        qubits,
		edges:         make(map[edge]float64),
		qubitFidelity: fid,
	}, nil
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Qubits returns the number of physical qubits.
func (d *Device) Qubits() int { return d.qubits }

// AddCoupling registers a directed coupling with ideal fidelity.
func (d *Device) AddCoupling(ctrl, tgt int) error {
	return d.AddCouplingFidelity(ctrl, tgt, IdealFidelity)
}

// AddCouplingFidelity registers a directed coupling with the given fidelity.
// Returns ErrCodeDroppedCoupling for out-of-range endpoints and
// ErrCodeDroppedFidelity for a fidelity outside [0, 1]; the device is left
// unchanged in both cases.
func (d *Device) AddCouplingFidelity(ctrl, tgt int, fidelity float64) error {
	if !d.inRange(ctrl) || !d.inRange(tgt) || ctrl == tgt {
		return errors.New(errors.ErrCodeDroppedCoupling,
			"coupling (%d, %d) invalid for %d-qubit device", ctrl, tgt, d.qubits)
	}
	if fidelity < 0 || fidelity > 1 {
		return errors.New(errors.ErrCodeDroppedFidelity,
			"coupling (%d, %d) fidelity %g outside [0, 1]", ctrl, tgt, fidelity)
	}
	d.edges[edge{ctrl, tgt}] = fidelity
	return nil
}

// SetQubitFidelity records the single-qubit fidelity for qubit i.
// Returns ErrCodeDroppedFidelity if i is out of range or the value is
// outside [0, 1].
func (d *Device) SetQubitFidelity(i int, fidelity float64) error {
	if !d.inRange(i) {
		return errors.New(errors.ErrCodeDroppedFidelity,
			"qubit %d out of range for %d-qubit device", i, d.qubits)
	}
	if fidelity < 0 || fidelity > 1 {
		return errors.New(errors.ErrCodeDroppedFidelity,
			"qubit %d fidelity %g outside [0, 1]", i, fidelity)
	}
	d.qubitFidelity[i] = fidelity
	return nil
}

// Coupled reports whether a two-qubit primitive can execute directly with i
// as control and j as target. Out-of-range arguments return false.
func (d *Device) Coupled(i, j int) bool {
	if !d.inRange(i) || !d.inRange(j) {
		return false
	}
	_, ok := d.edges[edge{i, j}]
	return ok
}

// CouplingFidelity returns the fidelity of the directed coupling (i, j)
// and whether that coupling exists.
func (d *Device) CouplingFidelity(i, j int) (float64, bool) {
	f, ok := d.edges[edge{i, j}]
	return f, ok
}

// QubitFidelity returns the single-qubit fidelity for qubit i,
// or IdealFidelity if i is out of range.
func (d *Device) QubitFidelity(i int) float64 {
	if !d.inRange(i) {
		return IdealFidelity
	}
	return d.qubitFidelity[i]
}

// Couplings returns all directed couplings sorted by (control, target).
func (d *Device) Couplings() []Coupling {
	out := make([]Coupling, 0, len(d.edges))
	for e, f := range d.edges {
		out = append(out, Coupling{Control: e.ctrl, Target: e.tgt, Fidelity: f})
	}
	slices.SortFunc(out, func(a, b Coupling) int {
		if a.Control != b.Control {
			return a.Control - b.Control
		}
		return a.Target - b.Target
	})
	return out
}

// ShortestPath returns a minimum-length sequence of physical qubit indices
// from i to j, inclusive of both endpoints, where every consecutive pair is
// coupled in at least one direction. Equal-length candidates resolve to the
// path through lower-numbered qubits. Returns nil when i and j are in
// different connected components or out of range.
func (d *Device) ShortestPath(i, j int) []int {
	if !d.inRange(i) || !d.inRange(j) {
		return nil
	}
	if i == j {
		return []int{i}
	}

	adj := d.undirectedAdjacency()

	// BFS from i; neighbors are expanded in ascending order so ties are
	// deterministic.
	prev := make([]int, d.qubits)
	for k := range prev {
		prev[k] = -1
	}
	prev[i] = i
	queue := []int{i}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == j {
			break
		}
		for _, next := range adj[cur] {
			if prev[next] == -1 {
				prev[next] = cur
				queue = append(queue, next)
			}
		}
	}
	if prev[j] == -1 {
		return nil
	}

	var path []int
	for cur := j; cur != i; cur = prev[cur] {
		path = append(path, cur)
	}
	path = append(path, i)
	slices.Reverse(path)
	return path
}

func (d *Device) undirectedAdjacency() [][]int {
	adj := make([][]int, d.qubits)
	for e := range d.edges {
		adj[e.ctrl] = append(adj[e.ctrl], e.tgt)
		adj[e.tgt] = append(adj[e.tgt], e.ctrl)
	}
	for i := range adj {
		slices.Sort(adj[i])
		adj[i] = slices.Compact(adj[i])
	}
	return adj
}

func (d *Device) inRange(i int) bool { return i >= 0 && i < d.qubits }
