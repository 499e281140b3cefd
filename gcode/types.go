// Package gcode models the toolpath dialect the transform engine consumes:
// rapid and linear motion commands with partial axis words, layer-boundary
// comments, and everything else passed through byte-for-byte.
package gcode

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'gcode'
func tracer() tracing.Trace {
	return tracing.Select("gcode")
}

// ErrMalformedCommand indicates an axis word that is present but not
// parseable as a number. The offending line is not interpreted and passes
// through unmodified; the run is not aborted.
var ErrMalformedCommand = errors.New("malformed motion command")

// Kind classifies a toolpath line.
type Kind int

// Lines are rapid positioning (G0), linear interpolation (G1), or opaque.
const (
	Other Kind = iota
	Rapid
	Linear
)

// Word returns the G-code word for a motion kind.
func (k Kind) Word() string {
	switch k {
	case Rapid:
		return "G0"
	case Linear:
		return "G1"
	}
	return ""
}

// AxisMask selects a subset of the five axis words.
type AxisMask uint8

// Axis bits, one per axis word of the dialect.
const (
	AxisX AxisMask = 1 << iota
	AxisY
	AxisZ
	AxisE
	AxisF
)

// Axes is a partial mapping from axis letters to values. An axis absent from
// the source line is absent here, not zero: clients must check Present
// before reading a value.
type Axes struct {
	X, Y, Z, E, F float64
	Present       AxisMask
}

// Has is a predicate: are all axes of mask m present?
func (a Axes) Has(m AxisMask) bool {
	return a.Present&m == m
}

// Set records an axis value and marks it present.
func (a *Axes) Set(m AxisMask, value float64) {
	switch m {
	case AxisX:
		a.X = value
	case AxisY:
		a.Y = value
	case AxisZ:
		a.Z = value
	case AxisE:
		a.E = value
	case AxisF:
		a.F = value
	default:
		return
	}
	a.Present |= m
}

// Command is one structured motion record. Raw retains the source line
// byte-for-byte, so uninterpreted lines survive a transform untouched.
type Command struct {
	Kind Kind
	Axes Axes
	Raw  string
}

// Line is one element of a buffered toolpath: the raw text plus its parsed
// command and, for layer-boundary comments, the layer index.
type Line struct {
	Raw    string
	Cmd    Command
	Layer  int
	Marker bool
}
