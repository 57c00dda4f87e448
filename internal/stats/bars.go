package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Bar is one labelled horizontal bar.
type Bar struct {
	Label string
	Value float64
	Note  string
}

// StackedBar splits one bar into consecutive parts, e.g. correct then errors.
type StackedBar struct {
	Label string
	Parts []float64
}

const (
	maxBarLabelWidth = 24
	minBarWidth      = 4
)

var eighthBlocks = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

// RenderBars prints one bar per entry, scaled to the largest value.
func RenderBars(w io.Writer, title string, bars []Bar, totalWidth int, useColor bool) error {
	if len(bars) == 0 {
		return nil
	}
	labelWidth := barLabelWidth(len(bars), func(i int) string { return bars[i].Label })
	noteWidth := 0
	for _, b := range bars {
		noteWidth = max(noteWidth, displayWidth(b.Note))
	}
	width := barWidth(totalWidth, labelWidth, noteWidth)
	maxVal := 0.0
	for _, b := range bars {
		maxVal = math.Max(maxVal, b.Value)
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, b := range bars {
		blocks := blockBar(b.Value, maxVal, width)
		bar := paint(blocks, 0, useColor) + strings.Repeat(" ", width-runewidth.StringWidth(blocks))
		line := padCell(truncateLabel(b.Label, labelWidth), labelWidth, false) + " " + bar
		if b.Note != "" {
			line += " " + b.Note
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderStackedBars prints bars whose parts are drawn with distinct glyphs
// (and colors when enabled), all scaled to the largest total.
func RenderStackedBars(w io.Writer, title string, names []string, bars []StackedBar, totalWidth int, useColor bool) error {
	if len(bars) == 0 {
		return nil
	}
	labelWidth := barLabelWidth(len(bars), func(i int) string { return bars[i].Label })
	width := barWidth(totalWidth, labelWidth, 0)
	maxTotal := 0.0
	for _, b := range bars {
		maxTotal = math.Max(maxTotal, sumParts(b.Parts))
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, b := range bars {
		var row strings.Builder
		row.WriteString(padCell(truncateLabel(b.Label, labelWidth), labelWidth, false))
		row.WriteString(" ")
		for i, cells := range stackCells(b.Parts, maxTotal, width) {
			if cells == 0 {
				continue
			}
			row.WriteString(paint(strings.Repeat(string(stackGlyph(i)), cells), i, useColor))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(row.String(), " ")); err != nil {
			return err
		}
	}
	if len(names) > 0 {
		parts := make([]string, 0, len(names))
		for i, name := range names {
			parts = append(parts, paint(fmt.Sprintf("%c %s", stackGlyph(i), name), i, useColor))
		}
		if _, err := fmt.Fprintln(w, "Legend: "+strings.Join(parts, "  ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func barLabelWidth(n int, label func(int) string) int {
	width := 0
	for i := 0; i < n; i++ {
		width = max(width, displayWidth(label(i)))
	}
	return min(width, maxBarLabelWidth)
}

func barWidth(totalWidth, labelWidth, noteWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	width := totalWidth - labelWidth - 1
	if noteWidth > 0 {
		width -= noteWidth + 1
	}
	return max(width, minBarWidth)
}

// blockBar draws value/maxVal of width cells with eighth-block precision.
func blockBar(value, maxVal float64, width int) string {
	if maxVal <= 0 || value <= 0 || width <= 0 {
		return ""
	}
	eighths := int(math.Round(value / maxVal * float64(width*8)))
	eighths = min(eighths, width*8)
	full, rest := eighths/8, eighths%8
	bar := strings.Repeat(string(eighthBlocks[8]), full)
	if rest > 0 {
		bar += string(eighthBlocks[rest])
	}
	return bar
}

// stackCells allocates whole cells to each part. Cumulative rounding keeps
// the bar length equal to the rounded total.
func stackCells(parts []float64, maxTotal float64, width int) []int {
	cells := make([]int, len(parts))
	if maxTotal <= 0 || width <= 0 {
		return cells
	}
	scale := float64(width) / maxTotal
	var acc float64
	prev := 0
	for i, p := range parts {
		if p > 0 {
			acc += p
		}
		end := int(math.Round(acc * scale))
		cells[i] = max(end-prev, 0)
		prev += cells[i]
	}
	return cells
}

func stackGlyph(i int) rune {
	glyphs := []rune{'█', '▒', '░'}
	return glyphs[i%len(glyphs)]
}

func sumParts(parts []float64) float64 {
	var total float64
	for _, p := range parts {
		if p > 0 {
			total += p
		}
	}
	return total
}
