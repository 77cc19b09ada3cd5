package device

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/qasmkit/qroute/pkg/diag"
	"github.com/qasmkit/qroute/pkg/errors"
)

// File is the JSON serialization format for device descriptions.
//
// Example:
//
//	{
//	  "name": "ibm_lagos",
//	  "qubits": 7,
//	  "couplings": [
//	    {"control": 0, "target": 1, "fidelity": 0.993},
//	    {"control": 1, "target": 0}
//	  ],
//	  "qubit_fidelity": [0.999, 0.998, 0.999, 1, 1, 1, 1]
//	}
type File struct {
	Name          string     `json:"name"`
	Qubits        int        `json:"qubits"`
	Couplings     []Coupling `json:"couplings"`
	QubitFidelity []float64  `json:"qubit_fidelity,omitempty"`
}

// Read decodes a device description from r.
//
// A non-positive qubit count aborts with ErrCodeInvalidDevice. Out-of-range
// couplings and fidelities are dropped with a warning on rep; construction
// continues. A missing fidelity defaults to IdealFidelity.
func Read(r io.Reader, rep *diag.Reporter) (*Device, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDevice, err, "decode device description")
	}
	return FromFile(f, rep)
}

// ReadFile reads a device description from a JSON file.
func ReadFile(path string, rep *diag.Reporter) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open device %s", path)
	}
	defer f.Close()
	return Read(f, rep)
}

// FromFile builds a Device from its serialization format, applying the same
// drop-and-warn policy as [Read].
func FromFile(f File, rep *diag.Reporter) (*Device, error) {
	d, err := New(f.Name, f.Qubits)
	if err != nil {
		return nil, err
	}

	for _, c := range f.Couplings {
		fidelity := c.Fidelity
		if fidelity == 0 {
			fidelity = IdealFidelity
		}
		if err := d.AddCouplingFidelity(c.Control, c.Target, fidelity); err != nil {
			rep.Warnf(errors.GetCode(err), diag.Pos{}, "%s", errors.UserMessage(err))
		}
	}

	for i, fidelity := range f.QubitFidelity {
		if err := d.SetQubitFidelity(i, fidelity); err != nil {
			rep.Warnf(errors.GetCode(err), diag.Pos{}, "%s", errors.UserMessage(err))
		}
	}

	return d, nil
}

// ToFile converts a Device to its serialization format.
// Couplings are sorted for deterministic output.
func ToFile(d *Device) File {
	fid := make([]float64, d.Qubits())
	for i := range fid {
		fid[i] = d.QubitFidelity(i)
	}
	return File{
		Name:          d.Name(),
		Qubits:        d.Qubits(),
		Couplings:     d.Couplings(),
		QubitFidelity: fid,
	}
}

// Write encodes d as indented JSON to w.
func Write(d *Device, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToFile(d)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes d to a JSON file with 0644 permissions.
func WriteFile(d *Device, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(d, f)
}
