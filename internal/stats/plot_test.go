package stats

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

const blankCell = '\u2800'

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Daily Questions", []Series{
		{Name: "Questions", Values: []float64{10, 20, 30, 20, 10}},
		{Name: "Correct", Values: []float64{5, 10, 20, 15, 8}},
	}, Axis{Start: "01/03/2024", End: "05/03/2024"}, 30, 4, false)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no escape codes without color:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// title, 4 plot rows, x axis, legend
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines of output, got %d:\n%s", len(lines), out)
	}
	if lines[0] != "Daily Questions" {
		t.Fatalf("expected title, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "    30 │ ") {
		t.Fatalf("expected data max label on top row, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "    15 │ ") {
		t.Fatalf("expected midpoint label, got %q", lines[3])
	}
	if !strings.HasPrefix(lines[4], "     0 │ ") {
		t.Fatalf("expected zero baseline on bottom row, got %q", lines[4])
	}
	// The busiest day sits on column round(2*29/4) = 15.
	top := []rune(strings.TrimPrefix(lines[1], "    30 │ "))
	if len(top) != 30 || top[15] == blankCell {
		t.Fatalf("expected the peak drawn on the top row at column 15, got %q", string(top))
	}
	if !strings.HasPrefix(lines[5], strings.Repeat(" ", 9)+"01/03/2024") || !strings.HasSuffix(lines[5], "05/03/2024") {
		t.Fatalf("expected date axis, got %q", lines[5])
	}
	if lines[6] != "Legend: ⠁ Questions (solid)  ⠁ Correct (dashed)" {
		t.Fatalf("unexpected legend %q", lines[6])
	}
}

func TestPlotSeriesKeepsPeakWhenShrinking(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 1
	}
	values[17] = 50
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "", []Series{{Name: "Questions", Values: values}}, Axis{}, 10, 4, false); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[0], "    50 │ ") {
		t.Fatalf("expected peak label on top row, got %q", lines[0])
	}
	top := []rune(strings.TrimPrefix(lines[0], "    50 │ "))
	if top[4] == blankCell {
		t.Fatalf("expected the peak bucket drawn on the top row, got %q", string(top))
	}
}

func TestPlotPoints(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		width  int
		want   []plotPoint
	}{
		{
			name:   "stretch keeps every point",
			values: []float64{10, 20, 30, 20, 10},
			width:  30,
			want:   []plotPoint{{0, 10}, {7, 20}, {15, 30}, {22, 20}, {29, 10}},
		},
		{
			name:   "shrink keeps bucket low and high in order",
			values: []float64{1, 9, 2, 3, 3, 3},
			width:  2,
			want:   []plotPoint{{0, 1}, {0, 9}, {1, 3}},
		},
		{
			name:   "single value spans the width",
			values: []float64{5},
			width:  10,
			want:   []plotPoint{{0, 5}, {9, 5}},
		},
		{
			name:   "same length",
			values: []float64{1, 2},
			width:  2,
			want:   []plotPoint{{0, 1}, {1, 2}},
		},
	}
	for _, tc := range cases {
		if got := plotPoints(tc.values, tc.width); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Empty", []Series{{Name: "Questions"}}, Axis{}, 20, 4, false); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotSeriesHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "", []Series{{Name: "Questions", Values: []float64{1, 2, 3}}}, Axis{}, 12, 2, true); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected NO_COLOR to disable color:\n%s", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	cases := map[int]int{
		120: 111,
		80:  71,
		12:  minPlotWidth,
		0:   minPlotWidth,
	}
	for total, want := range cases {
		if got := PlotWidthFor(total); got != want {
			t.Fatalf("PlotWidthFor(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestFormatAxisValue(t *testing.T) {
	cases := map[float64]string{
		0:    "0",
		15:   "15",
		7.5:  "7.5",
		1500: "1.5k",
	}
	for in, want := range cases {
		if got := formatAxisValue(in); got != want {
			t.Fatalf("formatAxisValue(%v) = %q, want %q", in, got, want)
		}
	}
}
