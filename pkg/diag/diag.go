// Package diag provides the diagnostic side channel used by device loading
// and routing.
//
// Diagnostics never unwind a call: the device loader and the router always
// produce some result, and record anything suspicious here. Callers inspect
// the collected stream to decide whether the result is usable.
//
// # Usage
//
//	rep := diag.NewReporter(logger)
//	rep.Errorf(errors.ErrCodeRoutingDisconnected, pos, "no connection between qubits %d and %d", a, b)
//	if rep.HasErrors() {
//	    // Output is not hardware-valid; reject it.
//	}
package diag

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/qasmkit/qroute/pkg/errors"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// Warning marks a dropped update or tolerated irregularity.
	// The result is still usable.
	Warning Severity = iota
	// Error marks a failure that leaves the result degraded,
	// e.g. an operation that could not be routed.
	Error
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Pos identifies a source location in the input program.
// Line and Column are 1-based; the zero value means "no position".
type Pos struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// IsValid reports whether p carries a real location.
func (p Pos) IsValid() bool { return p.Line > 0 }

// String formats the position as "line:column".
func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Diagnostic is a single entry in the stream.
type Diagnostic struct {
	Severity Severity    `json:"severity"`
	Code     errors.Code `json:"code"`
	Pos      Pos         `json:"pos,omitempty"`
	Message  string      `json:"message"`
}

// String formats the diagnostic for human consumption.
func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s (%s)", d.Severity, d.Pos, d.Message, d.Code)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Severity, d.Message, d.Code)
}

// Reporter collects diagnostics in order and mirrors them to a logger.
// It is not safe for concurrent use; routing runs single-threaded.
type Reporter struct {
	logger *log.Logger
	diags  []Diagnostic
}

// NewReporter creates a reporter mirroring to the given logger.
// A nil logger falls back to log.Default().
func NewReporter(logger *log.Logger) *Reporter {
	if logger == nil {
		logger = log.Default()
	}
	return &Reporter{logger: logger}
}

// Warnf records a Warning diagnostic.
func (r *Reporter) Warnf(code errors.Code, pos Pos, format string, args ...any) {
	r.report(Diagnostic{Severity: Warning, Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Errorf records an Error diagnostic.
func (r *Reporter) Errorf(code errors.Code, pos Pos, format string, args ...any) {
	r.report(Diagnostic{Severity: Error, Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (r *Reporter) report(d Diagnostic) {
	r.diags = append(r.diags, d)
	switch d.Severity {
	case Error:
		r.logger.Error(d.Message, "code", d.Code, "pos", d.Pos)
	default:
		r.logger.Warn(d.Message, "code", d.Code, "pos", d.Pos)
	}
}

// Diagnostics returns the collected stream in report order.
// The returned slice is owned by the reporter; callers must not mutate it.
func (r *Reporter) Diagnostics() []Diagnostic { return r.diags }

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Len returns the number of collected diagnostics.
func (r *Reporter) Len() int { return len(r.diags) }
