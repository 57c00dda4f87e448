package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

// Axis carries the labels printed under the first and last plot column.
type Axis struct {
	Start string
	End   string
}

type lineStyle struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 6
	axisSeparator       = " │ "
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

// plotPoint is one value pinned to a plot column.
type plotPoint struct {
	col   int
	value float64
}

// PlotSeries renders a braille line plot. All series share one value axis
// anchored at zero, so counts such as questions and correct answers compare
// directly. Colour is used when useColor is set and NO_COLOR is not.
func PlotSeries(w io.Writer, title string, series []Series, axis Axis, width, height int, useColor bool) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	minVal, maxVal := sharedRange(series)

	seriesCells := make([][][]uint8, len(series))
	for si, s := range series {
		seriesCells[si] = makeCells(height, width)
		style := lineStyles[si%len(lineStyles)]
		prevX, prevY := -1, -1
		for _, p := range plotPoints(s.Values, width) {
			px := p.col * 2
			py := valueToRow(p.value, minVal, maxVal, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(seriesCells[si], dx, dy)
					}
				})
			} else {
				setBrailleDot(seriesCells[si], px, py)
			}
			prevX, prevY = px, py
		}
	}

	useColor = useColor && os.Getenv("NO_COLOR") == ""
	axisLabels := makeAxisLabels(height, minVal, maxVal)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(axisLabels[y], axisLabelWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, colorIdx := composeCell(seriesCells, x, y)
			ch := string(brailleFromMask(mask))
			if colorIdx >= 0 {
				ch = paint(ch, colorIdx, useColor)
			}
			row.WriteString(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if axis.Start != "" || axis.End != "" {
		if _, err := fmt.Fprintln(w, renderXAxis(axis, width)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(series, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// sharedRange spans every series, floors at zero for non-negative data and
// widens a flat range so a constant series sits mid-plot.
func sharedRange(series []Series) (float64, float64) {
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if math.IsInf(minVal, 1) {
		return 0, 1
	}
	if minVal > 0 {
		minVal = 0
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		maxVal = minVal + 1
	}
	return minVal, maxVal
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func makeAxisLabels(height int, minVal, maxVal float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = formatAxisValue(maxVal)
	if height > 2 {
		labels[height/2] = formatAxisValue((minVal + maxVal) / 2)
	}
	if height > 1 {
		labels[height-1] = formatAxisValue(minVal)
	}
	return labels
}

func formatAxisValue(v float64) string {
	switch {
	case math.Abs(v) >= 1000:
		return fmt.Sprintf("%.1fk", v/1000)
	case v == math.Trunc(v):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

func renderXAxis(axis Axis, width int) string {
	pad := strings.Repeat(" ", axisLabelWidth+runewidth.StringWidth(axisSeparator))
	gap := width - runewidth.StringWidth(axis.Start) - runewidth.StringWidth(axis.End)
	if gap < 1 {
		return pad + axis.Start
	}
	return pad + axis.Start + strings.Repeat(" ", gap) + axis.End
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// composeCell merges the dots of every series; the first series owning a
// dot picks the color.
func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, cells := range seriesCells {
		if y < 0 || y >= len(cells) || x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cellMask
	}
	return mask, colorIdx
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

// plotPoints pins values to columns. Shorter series keep every value, point
// i landing on column round(i*(width-1)/(n-1)). Longer series are bucketed
// per column, keeping each bucket's low and high in the order they occur, so
// peaks are drawn in both cases.
func plotPoints(values []float64, width int) []plotPoint {
	n := len(values)
	if n == 0 || width <= 0 {
		return nil
	}
	switch {
	case n > width:
		out := make([]plotPoint, 0, 2*width)
		for col := 0; col < width; col++ {
			start := col * n / width
			end := max((col+1)*n/width, start+1)
			low, high := start, start
			for i := start; i < end; i++ {
				if values[i] < values[low] {
					low = i
				}
				if values[i] > values[high] {
					high = i
				}
			}
			first, second := min(low, high), max(low, high)
			out = append(out, plotPoint{col: col, value: values[first]})
			if second != first {
				out = append(out, plotPoint{col: col, value: values[second]})
			}
		}
		return out
	case n == 1 || width == 1:
		return []plotPoint{{col: 0, value: values[0]}, {col: width - 1, value: values[0]}}
	default:
		out := make([]plotPoint, n)
		for i, v := range values {
			col := int(math.Round(float64(i) * float64(width-1) / float64(n-1)))
			out[i] = plotPoint{col: col, value: v}
		}
		return out
	}
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		return 0
	}
	if row >= height {
		return height - 1
	}
	return row
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, lineStyles[i%len(lineStyles)].name)
		parts = append(parts, paint(label, i, useColor))
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// drawLine walks a Bresenham line between two dot coordinates.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY, cellX := y/4, x/2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask maps a dot inside a 2x4 braille cell to its bit.
func brailleDotMask(x, y int) uint8 {
	masks := [2][4]uint8{
		{0x01, 0x02, 0x04, 0x40},
		{0x08, 0x10, 0x20, 0x80},
	}
	if x < 0 || x > 1 || y < 0 || y > 3 {
		return 0
	}
	return masks[x][y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
