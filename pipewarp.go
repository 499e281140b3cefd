/*
Package pipewarp implements the geometric core for warping straight-axis
3-D-print toolpaths into bent pipes and for welding two toolpaths at a
rotated joint.

The root package holds the numeric plumbing shared by the transform
subpackages: epsilon arithmetic, points in the bend plane, affine
transforms, and the extrusion flow-ratio computation.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package pipewarp

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'pipewarp'
func tracer() tracing.Trace {
	return tracing.Select("pipewarp")
}

// ErrDegenerateGeometry indicates geometry that would corrupt every
// subsequent output line: zero total height, a rotation axis at or beyond
// the extrusion point, or a collapsed bounding box. Transforms abort on it
// before the write pass; NaN/Inf must never reach output.
var ErrDegenerateGeometry = errors.New("degenerate pipe geometry")

// === Numeric Data Type =====================================================

// Deg2Rad is a constant for converting from DEG to RAD or vice versa
var Deg2Rad float64 = 0.01745329251

// Epsilon : numbers below ε are considered 0
var Epsilon float64 = 0.0000001

// Is0 is a predicate: is n = 0 ?
func Is0(n float64) bool {
	return math.Abs(n) <= Epsilon
}

// Zap makes n = 0 if n "means" to be zero
func Zap(n float64) float64 {
	if Is0(n) {
		n = 0
	}
	return n
}

// === Bend-Plane Points =====================================================

// Pair is a point in the bend plane. Bending rotates layers about the
// machine Y axis, so the plane of interest is spanned by the radial X
// coordinate and the height Z coordinate; Y rides along unchanged.
type Pair complex128

// Origin represents the frequently used constant (0,0).
var Origin = P(float64(0), float64(0))

// Pretty Stringer for bend-plane points.
func (p Pair) String() string {
	return fmt.Sprintf("(%g,%g)", real(p), imag(p))
}

// C returns a Pair as a complex number.
func (p Pair) C() complex128 {
	return complex128(p)
}

// P is a quick notation for contructing a pair from radial and height floats.
func P(x, z float64) Pair {
	return Pair(complex(x, z))
}

// X is the radial part of a bend-plane point.
func (p Pair) X() float64 {
	return real(p.C())
}

// Z is the height part of a bend-plane point.
func (p Pair) Z() float64 {
	return imag(p.C())
}

// Zap rounds x-part and z-part to Epsilon.
func (p Pair) Zap() Pair {
	p = P(Zap(p.X()), Zap(p.Z()))
	return p
}

// IsOrigin is a predicate: is this pair origin?
func (p Pair) IsOrigin() bool {
	return p.Equal(Origin)
}

// Equal compares two pairs.
func (p Pair) Equal(p2 Pair) bool {
	p2 = p2.Zap()
	return Is0(p.X()-p2.X()) && Is0(p.Z()-p2.Z())
}

// Rotated returns a new pair rotated around the bend-plane origin by theta
// (counterclockwise). This is the per-layer bending projection:
//
//	new_x = x·cosθ − z·sinθ
//	new_z = x·sinθ + z·cosθ
func (p Pair) Rotated(theta float64) Pair {
	T := Rotation(theta)
	return T.Transform(p).Zap()
}

// === Affine Transformations ================================================

// AT is an affine transform, a matrix type used for transforming bend-plane
// points.
type AT []float64 // a 3x3 matrix, flattened by rows

// Internal constructor. Clients implicitely use this as a starting point for
// transform combinations.
func newAT() AT {
	m := make([]float64, 9)
	return m
}

func (m AT) set(row, col int, value float64) {
	m[row*3+col] = value
}

func (m AT) row(row int) []float64 {
	return m[row*3 : (row+1)*3]
}

// Rotation transform. Rotate a point counter-clockwise around the origin.
// Argument is in radians.
func Rotation(theta float64) AT {
	m := newAT()
	sin := math.Sin(theta)
	cos := math.Cos(theta)
	m.set(0, 0, cos)
	m.set(0, 1, -sin)
	m.set(1, 0, sin)
	m.set(1, 1, cos)
	m.set(2, 2, 1.0)
	return m
}

// Debug Stringer for an affine transform.
func (m AT) String() string {
	s := fmt.Sprintf("[%g,%g,%g|%g,%g,%g|%g,%g,%g]",
		m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])
	return s
}

// v1 × v2, v.n = [a,b,c]
func dotProd(vec1, vec2 []float64) float64 {
	p1 := vec1[0] * vec2[0]
	p2 := vec1[1] * vec2[1]
	p3 := vec1[2] * vec2[2]
	return p1 + p2 + p3
}

func (m *AT) multiplyVector(v []float64) []float64 {
	c := make([]float64, 3)
	c[0] = dotProd(m.row(0), v)
	c[1] = dotProd(m.row(1), v)
	c[2] = dotProd(m.row(2), v)
	return c
}

// Transform a bend-plane point. The argument is unchanged and a new pair is
// returned.
func (m AT) Transform(p Pair) Pair {
	c := make([]float64, 3)
	c[0] = p.X()
	c[1] = p.Z()
	c[2] = 1.0
	c = m.multiplyVector(c)
	return P(c[0], c[1])
}

// === Flow Compensation =====================================================

// FlowRatio computes the extrusion compensation factor for a point at radial
// offset x from the bend pivot of a pipe with the given radius. Bending
// stretches material on the outer radius and compresses it on the inner
// radius:
//
//	ratio = (pipeRadius + x) / (pipeRadius − x)
//
// The ratio is > 1 for x > 0, < 1 for x < 0, and exactly 1 at x = 0.
// FlowRatio returns ErrDegenerateGeometry if the inner radius collapses
// (x ≥ pipeRadius), i.e. the rotation axis lies at or beyond the extrusion
// point.
func FlowRatio(pipeRadius, x float64) (float64, error) {
	inner := pipeRadius - x
	if inner <= 0 {
		tracer().Errorf("inner radius %g collapsed for x=%g, pipe radius %g", inner, x, pipeRadius)
		return 0, fmt.Errorf("%w: inner radius %g not positive", ErrDegenerateGeometry, inner)
	}
	outer := pipeRadius + x
	return outer / inner, nil
}
