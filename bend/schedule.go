package bend

import (
	"fmt"

	"github.com/npillmayer/pipewarp"
)

// Schedule assigns each layer a bend angle proportional to its height
// fraction:
//
//	angle = (baseHeight / totalHeight) × totalBendAngle
//
// with totalHeight = layer count × uniform layer height. Schedule completes
// the analysis pass started by Analyze; the table is frozen afterwards.
//
// A zero total height would turn the proportion into NaN/Inf, so Schedule
// fails with ErrDegenerateGeometry instead.
func Schedule(t *Table, totalBendAngle float64) error {
	total := t.TotalHeight()
	if pipewarp.Is0(total) {
		tracer().Errorf("total height %g cannot distribute bend angle", total)
		return fmt.Errorf("%w: total height is zero", pipewarp.ErrDegenerateGeometry)
	}
	it := t.records.Iterator()
	for it.Next() {
		rec := it.Value().(LayerRecord)
		rec.BendAngle = rec.BaseHeight / total * totalBendAngle
		t.records.Put(rec.Index, rec)
	}
	tracer().Debugf("scheduled %g rad across %d layers of total height %g",
		totalBendAngle, t.N(), total)
	return nil
}
