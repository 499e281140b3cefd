package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const layerMarkerPrefix = ";LAYER:"

// axisBit maps an axis letter to its mask bit, or 0 for any other letter.
func axisBit(letter byte) AxisMask {
	switch letter {
	case 'X':
		return AxisX
	case 'Y':
		return AxisY
	case 'Z':
		return AxisZ
	case 'E':
		return AxisE
	case 'F':
		return AxisF
	}
	return 0
}

// ParseLine tokenizes one toolpath line into a Command. Motion lines start
// with G0 or G1; axis letters are immediately followed by a signed decimal
// number. A trailing comment ends axis scanning.
//
// A malformed axis word degrades the whole line to Kind Other, so it will
// pass through a transform verbatim, and is reported via ErrMalformedCommand.
// All other unrecognized lines are Kind Other with a nil error.
func ParseLine(line string) (Command, error) {
	cmd := Command{Kind: Other, Raw: line}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return cmd, nil
	}
	var kind Kind
	switch fields[0] {
	case "G0":
		kind = Rapid
	case "G1":
		kind = Linear
	default:
		return cmd, nil
	}
	axes := Axes{}
	for _, field := range fields[1:] {
		if field[0] == ';' {
			break
		}
		bit := axisBit(field[0])
		if bit == 0 {
			continue
		}
		value, err := strconv.ParseFloat(field[1:], 64)
		if err != nil {
			tracer().Debugf("unparseable axis word %q, passing line through", field)
			return cmd, fmt.Errorf("%w: axis word %q", ErrMalformedCommand, field)
		}
		axes.Set(bit, value)
	}
	cmd.Kind = kind
	cmd.Axes = axes
	return cmd, nil
}

// LayerMarker recognizes layer-boundary comments of the form ;LAYER:<int>.
func LayerMarker(line string) (int, bool) {
	if !strings.HasPrefix(line, layerMarkerPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[len(layerMarkerPrefix):]))
	if err != nil {
		tracer().Debugf("unparseable layer marker %q, passing line through", line)
		return 0, false
	}
	return n, true
}

// ReadAll buffers a complete toolpath. Transforms are two-pass: global
// quantities (total height, pipe diameter, joint rotation) must be known
// before the first transformed line can be written, so the input is read
// fully before any analysis begins.
func ReadAll(r io.Reader) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := scanner.Text()
		line := Line{Raw: raw}
		if n, ok := LayerMarker(raw); ok {
			line.Layer = n
			line.Marker = true
		} else {
			cmd, err := ParseLine(raw)
			if err != nil {
				tracer().Debugf("tolerating line-local parse issue: %v", err)
			}
			line.Cmd = cmd
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading toolpath: %w", err)
	}
	return lines, nil
}
