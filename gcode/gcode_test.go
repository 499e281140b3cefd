package gcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func TestParseMotionLine(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	cmd, err := ParseLine("G1 X10.5 Y-2 Z0.2 E0.0412 F1500")
	assert.NoError(t, err)
	assert.Equal(t, Linear, cmd.Kind)
	assert.True(t, cmd.Axes.Has(AxisX|AxisY|AxisZ|AxisE|AxisF))
	assert.InDelta(t, 10.5, cmd.Axes.X, 1e-9)
	assert.InDelta(t, -2.0, cmd.Axes.Y, 1e-9)
	assert.InDelta(t, 0.0412, cmd.Axes.E, 1e-9)
}

func TestParsePartialAxes(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	cmd, err := ParseLine("G0 Z5")
	assert.NoError(t, err)
	assert.Equal(t, Rapid, cmd.Kind)
	if cmd.Axes.Has(AxisX) || cmd.Axes.Has(AxisY) {
		t.Errorf("absent axes must not be reported present")
	}
	assert.True(t, cmd.Axes.Has(AxisZ))
}

func TestParseMalformedAxisWord(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	line := "G1 X10 Yoops Z0.2"
	cmd, err := ParseLine(line)
	if !errors.Is(err, ErrMalformedCommand) {
		t.Fatalf("expected ErrMalformedCommand, got %v", err)
	}
	// The line degrades to an uninterpreted command and passes through.
	assert.Equal(t, Other, cmd.Kind)
	assert.Equal(t, line, cmd.Raw)
}

func TestParseOpaqueLines(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	for _, line := range []string{"", "M104 S200", "; just a comment", "G92 E0"} {
		cmd, err := ParseLine(line)
		assert.NoError(t, err)
		assert.Equal(t, Other, cmd.Kind)
	}
}

func TestLayerMarker(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	n, ok := LayerMarker(";LAYER:17")
	if !ok || n != 17 {
		t.Errorf("expected layer 17, got %d (ok=%v)", n, ok)
	}
	if _, ok := LayerMarker(";LAYER_COUNT:20"); ok {
		t.Errorf("layer count comment must not be a boundary marker")
	}
	if _, ok := LayerMarker("G1 X0"); ok {
		t.Errorf("motion line must not be a boundary marker")
	}
}

func TestRewritePrecision(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	upd := Axes{}
	upd.Set(AxisX, 1.23456)
	upd.Set(AxisZ, 7.0)
	upd.Set(AxisE, 0.5)
	got := Rewrite("G1 X10 Y2 Z0.2 E0.1 F1500 ; infill", upd)
	want := "G1 X1.235 Y2 Z7.000 E0.50000 F1500 ; infill"
	if got != want {
		t.Errorf("rewrite mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestRewriteLeavesUntouchedAxes(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	upd := Axes{}
	upd.Set(AxisZ, 12.5)
	got := Rewrite("G0 X1.5 Z5", upd)
	if got != "G0 X1.5 Z12.500" {
		t.Errorf("unexpected rewrite: %s", got)
	}
}

func TestReadAll(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	input := strings.Join([]string{
		"M104 S200",
		";LAYER:0",
		"G1 X0 Y0 Z0.2 E0.1",
		";LAYER:1",
		"G1 X1 Y0 Z0.4 E0.2",
	}, "\n")
	lines, err := ReadAll(strings.NewReader(input))
	assert.NoError(t, err)
	assert.Len(t, lines, 5)
	assert.True(t, lines[1].Marker)
	assert.Equal(t, 0, lines[1].Layer)
	assert.Equal(t, Linear, lines[2].Cmd.Kind)
	assert.Equal(t, Other, lines[0].Cmd.Kind)
}

func TestScanBounds(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	input := strings.Join([]string{
		"G1 X-5 Y2 Z0.2",
		"G1 X15 Y10 Z0.4",
		"G0 X3 Y-4",
		"G1 X0 Y0 Z8.0",
	}, "\n")
	lines, err := ReadAll(strings.NewReader(input))
	assert.NoError(t, err)
	b, ok := ScanBounds(lines)
	if !ok {
		t.Fatal("expected bounds from motion commands")
	}
	cx, cy := b.Center()
	assert.InDelta(t, 5.0, cx, 1e-9)
	assert.InDelta(t, 3.0, cy, 1e-9)
	assert.InDelta(t, 20.0, b.LargerSpan(), 1e-9)
	assert.InDelta(t, 0.2, b.MinZ, 1e-9)
	assert.InDelta(t, 8.0, b.MaxZ, 1e-9)
}

func TestScanBoundsModalAxes(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	input := strings.Join([]string{
		"G1 X0 Y0 Z0.2",
		"G1 X10",
		"G0 Y20",
		"G1 X-3",
	}, "\n")
	lines, err := ReadAll(strings.NewReader(input))
	assert.NoError(t, err)
	b, ok := ScanBounds(lines)
	if !ok {
		t.Fatal("expected bounds from motion commands")
	}
	// Single-axis moves carry the other coordinate and widen the box.
	cx, cy := b.Center()
	assert.InDelta(t, 3.5, cx, 1e-9)
	assert.InDelta(t, 10.0, cy, 1e-9)
	assert.InDelta(t, 20.0, b.LargerSpan(), 1e-9)
}

func TestScanBoundsZRangeWithoutContour(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	lines, err := ReadAll(strings.NewReader("G0 Z0.5\nG0 Z2.5\nG1 X1\n"))
	assert.NoError(t, err)
	b, ok := ScanBounds(lines)
	if ok {
		t.Errorf("expected no XY bounds without a complete XY point")
	}
	assert.InDelta(t, 0.5, b.MinZ, 1e-9)
	assert.InDelta(t, 2.5, b.MaxZ, 1e-9)
}

func TestScanBoundsEmpty(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	lines, err := ReadAll(strings.NewReader("M104 S200\n;LAYER:0"))
	assert.NoError(t, err)
	if _, ok := ScanBounds(lines); ok {
		t.Errorf("expected no bounds without motion commands")
	}
}
