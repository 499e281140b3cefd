// Package stack implements the stacking-merge variant: several toolpath
// sections are concatenated, each prefixed by a position/rotation reset for
// a downstream rotary-axis controller. No coordinates are transformed; the
// rotary axis itself realizes the tilt between sections.
package stack

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/npillmayer/pipewarp/gcode"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'stack'
func tracer() tracing.Trace {
	return tracing.Select("stack")
}

// Section is one input toolpath with the tilt, in degrees, at which the
// rotary axis presents it.
type Section struct {
	Input       io.Reader
	TiltDegrees float64
}

// section after the read pass: its lines plus its maximum Z height.
type section struct {
	lines []gcode.Line
	tilt  float64
	maxZ  float64
}

// Header renders the reset command prefixed to a section. Argument layout
// and literal token order are a compatibility contract with the rotary-axis
// controller and reproduce verbatim:
//
//	G87 X0 Y0 Z<boundary-height> A0 B<tilt-degrees> C0
func Header(boundaryHeight, tiltDegrees float64) string {
	return fmt.Sprintf("G87 X0 Y0 Z%s A0 B%s C0",
		formatHeight(boundaryHeight), strconv.FormatFloat(tiltDegrees, 'f', -1, 64))
}

// The controller expects integral boundary heights with a trailing ".0"
// (5 prints as 5.0) but a bare 0 for the base section.
func formatHeight(h float64) string {
	if h == 0 {
		return "0"
	}
	if h == float64(int64(h)) {
		return strconv.FormatFloat(h, 'f', 1, 64)
	}
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// maxHeight folds a section's motion commands into its maximum Z height.
// Sections without any Z word fold to 0.
func maxHeight(lines []gcode.Line) float64 {
	maxZ := 0.0
	for _, line := range lines {
		if line.Marker || line.Cmd.Kind == gcode.Other {
			continue
		}
		if line.Cmd.Axes.Has(gcode.AxisZ) && line.Cmd.Axes.Z > maxZ {
			maxZ = line.Cmd.Axes.Z
		}
	}
	return maxZ
}

// Merge concatenates the sections into one toolpath. Section i is prefixed
// by a Header carrying the previous section's maximum Z as boundary height
// (the first section starts at 0) and its own tilt; the section's lines
// follow byte-for-byte.
//
// The boundary heights are an explicit fold over all sections, completed
// before the first output line is written.
func Merge(w io.Writer, sections ...Section) error {
	read := make([]section, 0, len(sections))
	for i, s := range sections {
		lines, err := gcode.ReadAll(s.Input)
		if err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		read = append(read, section{lines: lines, tilt: s.TiltDegrees, maxZ: maxHeight(lines)})
	}
	boundaries := make([]float64, len(read))
	for i := 1; i < len(read); i++ {
		boundaries[i] = read[i-1].maxZ
	}
	tracer().Debugf("merging %d sections, boundary heights %v", len(read), boundaries)

	out := bufio.NewWriter(w)
	for i, s := range read {
		if _, err := out.WriteString(Header(boundaries[i], s.tilt) + "\n"); err != nil {
			return fmt.Errorf("writing toolpath: %w", err)
		}
		for _, line := range s.lines {
			if _, err := out.WriteString(line.Raw + "\n"); err != nil {
				return fmt.Errorf("writing toolpath: %w", err)
			}
		}
	}
	return out.Flush()
}
