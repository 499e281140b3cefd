// Package joint welds a second toolpath onto the top of a first at an
// arbitrary tilt: a rigid 3-D rotation plus translation aligns the second
// part's frame to continue atop the first, and a fixed transition sequence
// separates the two parts in the output.
package joint

import (
	"fmt"

	"github.com/npillmayer/pipewarp"
	"github.com/npillmayer/pipewarp/gcode"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'joint'
func tracer() tracing.Trace {
	return tracing.Select("joint")
}

// Heuristic constants of the joint geometry. All of them are overridable
// through Options.
const (
	// DefaultWallFraction sets wall thickness to 10% of the pipe diameter.
	// The wall is assumed, not measured.
	DefaultWallFraction = 0.10
	// DefaultLiftClearance is the Z-lift headroom above the first part's
	// maximum height during the transition, in mm.
	DefaultLiftClearance = 5.0
	// DefaultRetractLength is the filament retraction during the
	// transition, in mm.
	DefaultRetractLength = 5.0
	// DefaultRetractFeed is the feed rate of the retraction move.
	DefaultRetractFeed = 2400.0
)

// Option adjusts the joint's heuristic constants.
type Option func(*config)

type config struct {
	wallFraction     float64
	connectionOffset float64 // 0 = diameter / 2
	liftClearance    float64
	retractLength    float64
	retractFeed      float64
}

func defaults() config {
	return config{
		wallFraction:  DefaultWallFraction,
		liftClearance: DefaultLiftClearance,
		retractLength: DefaultRetractLength,
		retractFeed:   DefaultRetractFeed,
	}
}

// WithWallFraction overrides the wall-thickness fraction of the diameter.
func WithWallFraction(f float64) Option {
	return func(c *config) { c.wallFraction = f }
}

// WithConnectionOffset overrides the joint overlap clearance. The default is
// half the pipe diameter.
func WithConnectionOffset(d float64) Option {
	return func(c *config) { c.connectionOffset = d }
}

// WithLiftClearance overrides the transition Z-lift headroom.
func WithLiftClearance(mm float64) Option {
	return func(c *config) { c.liftClearance = mm }
}

// WithRetraction overrides length and feed rate of the transition
// retraction move.
func WithRetraction(length, feed float64) Option {
	return func(c *config) {
		c.retractLength = length
		c.retractFeed = feed
	}
}

// Geometry is the frozen pipe geometry of a weld: derived once from a full
// scan of both parts' coordinate extents, immutable thereafter.
type Geometry struct {
	PivotX, PivotY   float64 // XY bounding-box center of the first part
	Diameter         float64 // larger of the first part's XY spans
	WallThickness    float64
	ConnectionOffset float64
	MaxHeight        float64 // first part's maximum Z
	MinHeight        float64 // second part's own minimum Z
	Tilt             float64 // radians

	liftClearance float64
	retractLength float64
	retractFeed   float64
}

// Derive computes the joint geometry from the first part's extents, the
// second part's minimum Z, and the tilt angle in radians. A collapsed
// bounding box yields ErrDegenerateGeometry.
func Derive(first gcode.Bounds, secondMinZ float64, tilt float64, opts ...Option) (Geometry, error) {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	diameter := first.LargerSpan()
	if pipewarp.Is0(diameter) {
		tracer().Errorf("bounding box of first part has zero extent")
		return Geometry{}, fmt.Errorf("%w: bounding box extent is zero", pipewarp.ErrDegenerateGeometry)
	}
	pivotX, pivotY := first.Center()
	offset := cfg.connectionOffset
	if offset == 0 {
		offset = diameter / 2
	}
	g := Geometry{
		PivotX:           pivotX,
		PivotY:           pivotY,
		Diameter:         diameter,
		WallThickness:    cfg.wallFraction * diameter,
		ConnectionOffset: offset,
		MaxHeight:        first.MaxZ,
		MinHeight:        secondMinZ,
		Tilt:             tilt,
		liftClearance:    cfg.liftClearance,
		retractLength:    cfg.retractLength,
		retractFeed:      cfg.retractFeed,
	}
	tracer().Debugf("joint geometry: pivot (%g,%g), diameter %g, tilt %g rad",
		pivotX, pivotY, diameter, tilt)
	return g, nil
}

// Frame is the rigid transform welding the second part onto the first: an
// orthonormal rotation about the machine Y axis plus a translation offset.
// Computed once from tilt and geometry, immutable.
type Frame struct {
	Rotation r3.Rotation
	Offset   r3.Vec
	pivot    r3.Vec
}

// Frame builds the rotation frame for this geometry. The translation lifts
// the re-based second part to the first part's top, pulled down by the
// connection offset so the parts overlap at the weld.
func (g Geometry) Frame() Frame {
	return Frame{
		Rotation: r3.NewRotation(g.Tilt, r3.Vec{Y: 1}),
		Offset:   r3.Vec{Z: g.MaxHeight - g.ConnectionOffset},
		pivot:    r3.Vec{X: g.PivotX, Y: g.PivotY},
	}
}

// Apply transforms one point of the (already re-based) second part: rotate
// about the pivot axis, then translate. With zero tilt this degenerates to a
// pure translation by the Z offset.
func (f Frame) Apply(p r3.Vec) r3.Vec {
	rotated := f.Rotation.Rotate(r3.Sub(p, f.pivot))
	return r3.Add(r3.Add(rotated, f.pivot), f.Offset)
}
