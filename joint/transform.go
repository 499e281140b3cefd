package joint

import (
	"bufio"
	"fmt"
	"io"

	"github.com/npillmayer/pipewarp"
	"github.com/npillmayer/pipewarp/gcode"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transformer applies the rotation frame per command. It carries the last
// seen position, initialized to the pivot at the second part's base height:
// a command naming only some axes still transforms a full point, with the
// missing coordinates carried over from earlier commands.
//
// Only axes present in the original command are emitted. E and F pass
// through completely unchanged: the joint transform never performs flow
// compensation, deliberately unlike the bend transform.
type Transformer struct {
	geom    Geometry
	frame   Frame
	carried r3.Vec
}

// NewTransformer returns a transformer for a derived geometry.
func NewTransformer(g Geometry) *Transformer {
	return &Transformer{
		geom:    g,
		frame:   g.Frame(),
		carried: r3.Vec{X: g.PivotX, Y: g.PivotY, Z: g.MinHeight},
	}
}

// TransformLine maps one line of the second part into the welded frame.
// Non-motion lines pass through verbatim.
func (t *Transformer) TransformLine(line gcode.Line) string {
	cmd := line.Cmd
	if line.Marker || cmd.Kind == gcode.Other {
		return line.Raw
	}
	if cmd.Axes.Has(gcode.AxisX) {
		t.carried.X = cmd.Axes.X
	}
	if cmd.Axes.Has(gcode.AxisY) {
		t.carried.Y = cmd.Axes.Y
	}
	if cmd.Axes.Has(gcode.AxisZ) {
		t.carried.Z = cmd.Axes.Z
	}
	// Re-base the second part's Z to start at 0 before the rigid transform.
	p := t.frame.Apply(r3.Vec{X: t.carried.X, Y: t.carried.Y, Z: t.carried.Z - t.geom.MinHeight})
	upd := gcode.Axes{}
	if cmd.Axes.Has(gcode.AxisX) {
		upd.Set(gcode.AxisX, p.X)
	}
	if cmd.Axes.Has(gcode.AxisY) {
		upd.Set(gcode.AxisY, p.Y)
	}
	if cmd.Axes.Has(gcode.AxisZ) {
		upd.Set(gcode.AxisZ, p.Z)
	}
	return gcode.Rewrite(line.Raw, upd)
}

// Transition returns the fixed block emitted between the two parts: an
// extruder-position reset, a retraction move, and a Z-lift rapid above the
// first part's maximum height.
func (g Geometry) Transition() []string {
	return []string{
		"G92 E0",
		fmt.Sprintf("G1 %s %s",
			gcode.FormatAxis(gcode.AxisE, -g.retractLength),
			gcode.FormatAxis(gcode.AxisF, g.retractFeed)),
		fmt.Sprintf("G0 %s", gcode.FormatAxis(gcode.AxisZ, g.MaxHeight+g.liftClearance)),
	}
}

// Weld merges two toolpaths at a rotated joint: the first part is written
// verbatim, then the transition block, then the second part re-projected
// through the rotation frame. tilt is in radians.
//
// Weld is a strict two-pass operation: both parts are scanned completely
// and the geometry is frozen before the first output line is written.
func Weld(first, second io.Reader, w io.Writer, tilt float64, opts ...Option) error {
	lines1, err := gcode.ReadAll(first)
	if err != nil {
		return err
	}
	lines2, err := gcode.ReadAll(second)
	if err != nil {
		return err
	}
	bounds1, ok := gcode.ScanBounds(lines1)
	if !ok {
		return fmt.Errorf("%w: first part has no motion extents", pipewarp.ErrDegenerateGeometry)
	}
	// The second part's Z range is valid even when it never names X and Y
	// together, so the re-base height is taken unconditionally.
	bounds2, _ := gcode.ScanBounds(lines2)
	secondMinZ := bounds2.MinZ
	geom, err := Derive(bounds1, secondMinZ, tilt, opts...)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(w)
	for _, line := range lines1 {
		if _, err := out.WriteString(line.Raw + "\n"); err != nil {
			return fmt.Errorf("writing toolpath: %w", err)
		}
	}
	for _, text := range geom.Transition() {
		if _, err := out.WriteString(text + "\n"); err != nil {
			return fmt.Errorf("writing toolpath: %w", err)
		}
	}
	transformer := NewTransformer(geom)
	for _, line := range lines2 {
		if _, err := out.WriteString(transformer.TransformLine(line) + "\n"); err != nil {
			return fmt.Errorf("writing toolpath: %w", err)
		}
	}
	return out.Flush()
}
