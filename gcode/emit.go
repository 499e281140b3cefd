package gcode

import (
	"strconv"
	"strings"
)

// Output precision is a compatibility contract with downstream slicer and
// firmware consumers: coordinates carry 3 decimal places, extrusion flow 5.
const (
	coordPrecision = 3
	flowPrecision  = 5
)

// FormatAxis renders one axis word. Coordinates and flow use the fixed
// precisions of the output dialect; feed rate keeps the shortest exact form.
func FormatAxis(bit AxisMask, value float64) string {
	var letter string
	precision := coordPrecision
	switch bit {
	case AxisX:
		letter = "X"
	case AxisY:
		letter = "Y"
	case AxisZ:
		letter = "Z"
	case AxisE:
		letter = "E"
		precision = flowPrecision
	case AxisF:
		letter = "F"
		precision = -1
	default:
		return ""
	}
	return letter + strconv.FormatFloat(value, 'f', precision, 64)
}

// Rewrite re-emits a motion line with the axis words selected by upd.Present
// replaced by their new values. Every other token (axes the transform did
// not touch, trailing comments, words this dialect does not interpret)
// survives verbatim, in source order.
func Rewrite(raw string, upd Axes) string {
	fields := strings.Fields(raw)
	comment := false
	for i, field := range fields {
		if field[0] == ';' {
			comment = true
		}
		if comment || i == 0 {
			continue
		}
		bit := axisBit(field[0])
		if bit == 0 || !upd.Has(bit) {
			continue
		}
		var value float64
		switch bit {
		case AxisX:
			value = upd.X
		case AxisY:
			value = upd.Y
		case AxisZ:
			value = upd.Z
		case AxisE:
			value = upd.E
		case AxisF:
			value = upd.F
		}
		fields[i] = FormatAxis(bit, value)
	}
	return strings.Join(fields, " ")
}
