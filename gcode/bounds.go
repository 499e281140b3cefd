package gcode

import (
	polyclip "github.com/akavel/polyclip-go"
)

// Bounds holds the coordinate extents of a toolpath: the XY bounding box of
// all motion points and the observed Z range. Pipe geometry (pivot, diameter)
// derives from a single full scan; the result is frozen before any transform
// consumes it.
type Bounds struct {
	XY         polyclip.Rectangle
	MinZ, MaxZ float64
}

// ScanBounds folds all motion commands of a buffered toolpath into their
// coordinate extents. Axis words are modal: a move naming only one of X and
// Y still displaces the point, with the other coordinate carried over from
// earlier commands. Moves before both X and Y have appeared at least once
// contribute no XY point.
//
// ok is false if no XY point could be folded, in which case no pipe
// geometry can be derived; the Z range is populated regardless.
func ScanBounds(lines []Line) (Bounds, bool) {
	var contour polyclip.Contour
	var b Bounds
	var x, y float64
	var seen AxisMask
	zSeen := false
	for _, line := range lines {
		if line.Marker || line.Cmd.Kind == Other {
			continue
		}
		axes := line.Cmd.Axes
		if axes.Has(AxisX) {
			x = axes.X
			seen |= AxisX
		}
		if axes.Has(AxisY) {
			y = axes.Y
			seen |= AxisY
		}
		if axes.Present&(AxisX|AxisY) != 0 && seen&(AxisX|AxisY) == (AxisX|AxisY) {
			contour.Add(polyclip.Point{X: x, Y: y})
		}
		if axes.Has(AxisZ) {
			if !zSeen || axes.Z < b.MinZ {
				b.MinZ = axes.Z
			}
			if !zSeen || axes.Z > b.MaxZ {
				b.MaxZ = axes.Z
			}
			zSeen = true
		}
	}
	if len(contour) == 0 {
		return b, false
	}
	b.XY = contour.BoundingBox()
	return b, true
}

// Center returns the XY bounding-box center, the pivot of joint rotation.
func (b Bounds) Center() (float64, float64) {
	return (b.XY.Min.X + b.XY.Max.X) / 2, (b.XY.Min.Y + b.XY.Max.Y) / 2
}

// LargerSpan returns the larger of the two XY bounding-box extents, the
// heuristic pipe diameter.
func (b Bounds) LargerSpan() float64 {
	dx := b.XY.Max.X - b.XY.Min.X
	dy := b.XY.Max.Y - b.XY.Min.Y
	if dy > dx {
		return dy
	}
	return dx
}
