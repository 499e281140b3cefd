package bend

import (
	"bufio"
	"fmt"
	"io"

	"github.com/npillmayer/pipewarp"
	"github.com/npillmayer/pipewarp/gcode"
)

// Option adjusts the bend pipeline's derived geometry.
type Option func(*config)

type config struct {
	pipeRadius float64 // zero (within epsilon) = derive from coordinate extents
}

// WithPipeRadius overrides the bend pivot radius used for flow compensation.
// By default the radius equals the scanned pipe diameter, which keeps every
// point of the pipe wall strictly inside the pivot.
func WithPipeRadius(r float64) Option {
	return func(c *config) { c.pipeRadius = r }
}

// Transformer rotates coordinates per layer and recomputes extrusion. It is
// constructed from a frozen layer table and pipe radius; per-line state is
// only the current layer's angle.
type Transformer struct {
	table      *Table
	pipeRadius float64
	angle      float64
}

// NewTransformer returns a transformer over a scheduled layer table.
func NewTransformer(table *Table, pipeRadius float64) *Transformer {
	return &Transformer{table: table, pipeRadius: pipeRadius}
}

// TransformLine maps one toolpath line to its bent form.
//
// A command must carry X, Y and Z simultaneously to be transformed; a
// command missing any one of the three passes through unmodified. This is a
// known limitation, not silently corrected: a partial move after a
// transformed one briefly leaves the bent frame.
//
// For a qualifying command under the layer's bend angle θ, the point rotates
// in the bend plane (about the machine Y axis); Y is untouched. If the
// command extrudes, the flow is scaled by the outer/inner radius ratio at
// the command's radial position.
func (t *Transformer) TransformLine(line gcode.Line) (string, error) {
	if line.Marker {
		if rec, ok := t.table.Record(line.Layer); ok {
			t.angle = rec.BendAngle
		}
		return line.Raw, nil
	}
	cmd := line.Cmd
	if cmd.Kind == gcode.Other || !cmd.Axes.Has(gcode.AxisX|gcode.AxisY|gcode.AxisZ) {
		return line.Raw, nil
	}
	p := pipewarp.P(cmd.Axes.X, cmd.Axes.Z).Rotated(t.angle)
	upd := gcode.Axes{}
	upd.Set(gcode.AxisX, p.X())
	upd.Set(gcode.AxisZ, p.Z())
	if cmd.Axes.Has(gcode.AxisE) {
		ratio, err := pipewarp.FlowRatio(t.pipeRadius, cmd.Axes.X)
		if err != nil {
			return "", err
		}
		upd.Set(gcode.AxisE, cmd.Axes.E*ratio)
	}
	return gcode.Rewrite(line.Raw, upd), nil
}

// Warp bends a complete toolpath by totalBendAngle radians. It is a strict
// two-pass operation: the analysis pass builds the layer table, schedules
// angles and derives the pipe geometry from the coordinate extents; only
// then does the write pass start. Geometry errors surface before the first
// output byte, never mid-file.
func Warp(r io.Reader, w io.Writer, totalBendAngle float64, opts ...Option) error {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	lines, err := gcode.ReadAll(r)
	if err != nil {
		return err
	}
	table, err := Analyze(lines)
	if err != nil {
		return err
	}
	if err := Schedule(table, totalBendAngle); err != nil {
		return err
	}
	radius := cfg.pipeRadius
	if pipewarp.Is0(radius) {
		bounds, ok := gcode.ScanBounds(lines)
		if !ok {
			return fmt.Errorf("%w: no motion extents to derive pipe radius from",
				pipewarp.ErrDegenerateGeometry)
		}
		radius = bounds.LargerSpan()
	}
	if pipewarp.Is0(radius) {
		return fmt.Errorf("%w: pipe radius is zero", pipewarp.ErrDegenerateGeometry)
	}
	// Flow compensation is validated up front so the write pass cannot
	// abort with a partial file that looks complete.
	for _, line := range lines {
		cmd := line.Cmd
		if line.Marker || cmd.Kind == gcode.Other {
			continue
		}
		if cmd.Axes.Has(gcode.AxisX|gcode.AxisY|gcode.AxisZ) && cmd.Axes.Has(gcode.AxisE) {
			if _, err := pipewarp.FlowRatio(radius, cmd.Axes.X); err != nil {
				return err
			}
		}
	}

	out := bufio.NewWriter(w)
	transformer := NewTransformer(table, radius)
	for _, line := range lines {
		text, err := transformer.TransformLine(line)
		if err != nil {
			return err
		}
		if _, err := out.WriteString(text + "\n"); err != nil {
			return fmt.Errorf("writing toolpath: %w", err)
		}
	}
	return out.Flush()
}
