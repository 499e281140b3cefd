// Package bend warps a straight-axis layer-by-layer toolpath into a curved
// pipe: a target total bend angle is distributed progressively across the
// printed layers, coordinates are re-projected under each layer's angle, and
// extruded material is compensated for the stretch/compression the curve
// induces between outer and inner radius.
package bend

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/pipewarp/gcode"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'bend'
func tracer() tracing.Trace {
	return tracing.Select("bend")
}

// ErrInsufficientLayers indicates fewer than 2 layer-boundary markers: angle
// scheduling has no basis, and the transform aborts before any write begins.
var ErrInsufficientLayers = errors.New("toolpath has too few layers")

// LayerRecord assigns a layer its base height and scheduled bend angle.
// BaseHeight is non-decreasing with Index; BendAngle is monotone
// non-decreasing with BaseHeight, in [0, total bend angle].
type LayerRecord struct {
	Index      int
	BaseHeight float64
	BendAngle  float64
}

// Table is the layer table: layer index → LayerRecord, ordered by index.
// It is filled by Analyze and Schedule during the analysis pass and is
// read-only thereafter.
type Table struct {
	records     *treemap.Map // int → LayerRecord
	layerHeight float64
}

// Analyze builds the layer table in a single sequential scan. Each
// layer-boundary marker records the maximum Z height observed so far as that
// layer's base height.
//
// The layer height is derived from the difference between the first two
// recorded base heights and assumed uniform across all layers. This is an
// approximation: with non-uniform layer heights the later angle scheduling
// is only approximate.
func Analyze(lines []gcode.Line) (*Table, error) {
	t := &Table{records: treemap.NewWithIntComparator()}
	maxZ := 0.0
	for _, line := range lines {
		if line.Marker {
			t.records.Put(line.Layer, LayerRecord{Index: line.Layer, BaseHeight: maxZ})
			continue
		}
		if line.Cmd.Kind != gcode.Other && line.Cmd.Axes.Has(gcode.AxisZ) && line.Cmd.Axes.Z > maxZ {
			maxZ = line.Cmd.Axes.Z
		}
	}
	if t.records.Size() < 2 {
		return nil, fmt.Errorf("%w: found %d layer markers, need at least 2",
			ErrInsufficientLayers, t.records.Size())
	}
	it := t.records.Iterator()
	it.Next()
	first := it.Value().(LayerRecord).BaseHeight
	it.Next()
	second := it.Value().(LayerRecord).BaseHeight
	t.layerHeight = second - first
	tracer().Debugf("layer table with %d layers, uniform layer height %g", t.records.Size(), t.layerHeight)
	return t, nil
}

// N returns the number of recorded layers.
func (t *Table) N() int {
	return t.records.Size()
}

// LayerHeight returns the uniform layer height approximation.
func (t *Table) LayerHeight() float64 {
	return t.layerHeight
}

// TotalHeight returns layer count × uniform layer height.
func (t *Table) TotalHeight() float64 {
	return float64(t.records.Size()) * t.layerHeight
}

// Record returns the record for a layer index.
func (t *Table) Record(index int) (LayerRecord, bool) {
	v, ok := t.records.Get(index)
	if !ok {
		return LayerRecord{}, false
	}
	return v.(LayerRecord), true
}

// Each calls f for every layer record in index order.
func (t *Table) Each(f func(LayerRecord)) {
	it := t.records.Iterator()
	for it.Next() {
		f(it.Value().(LayerRecord))
	}
}
