package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/samber/lo"

	"github.com/verte-zerg/studyboard/internal/model"
)

// WaitingMessage is shown in place of metrics while no rows are available.
const WaitingMessage = "Waiting for data…"

const dateLayout = "02/01/2006"

// RenderSummary prints the KPI block.
func RenderSummary(w io.Writer, snap model.Snapshot) error {
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	for _, kpi := range KPIs(snap) {
		if _, err := fmt.Fprintf(w, "%s: %s\n", kpi.Label, kpi.Value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// KPI is one headline metric, already formatted.
type KPI struct {
	Label string
	Value string
}

// KPIs formats the headline metrics of a snapshot.
func KPIs(snap model.Snapshot) []KPI {
	return []KPI{
		{Label: "Questions", Value: strconv.Itoa(snap.TotalQuestions)},
		{Label: "Correct", Value: strconv.Itoa(snap.TotalCorrect)},
		{Label: "Pass rate", Value: fmt.Sprintf("%.1f%%", snap.PassRate)},
		{Label: "Study time", Value: fmt.Sprintf("%.1fh", snap.TotalHours)},
	}
}

// RenderAreas prints the per-area table, the question share and the
// correct-versus-errors bars.
func RenderAreas(w io.Writer, snap model.Snapshot, totalWidth int, useColor bool) error {
	if len(snap.ByArea) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "By Area"); err != nil {
		return err
	}
	headers := []string{"Area", "Questions", "Correct", "Errors", "Pass", "Share"}
	rows := make([][]string, 0, len(snap.ByArea))
	for _, a := range snap.ByArea {
		rows = append(rows, []string{
			a.Area,
			strconv.Itoa(a.Questions),
			strconv.Itoa(a.Correct),
			strconv.Itoa(a.Errors),
			fmt.Sprintf("%.1f%%", PassRate(a.Correct, a.Questions)),
			fmt.Sprintf("%.1f%%", share(a.Questions, snap.TotalQuestions)),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if err := RenderBars(w, "Question Share", AreaShareBars(snap), totalWidth, useColor); err != nil {
		return err
	}
	return RenderStackedBars(w, "Correct vs Errors", []string{"Correct", "Errors"}, AreaOutcomeBars(snap), totalWidth, useColor)
}

// AreaShareBars turns each area's questions into a share-of-total bar.
func AreaShareBars(snap model.Snapshot) []Bar {
	return lo.Map(snap.ByArea, func(a model.AreaTotals, _ int) Bar {
		pct := share(a.Questions, snap.TotalQuestions)
		return Bar{Label: a.Area, Value: pct, Note: fmt.Sprintf("%5.1f%%", pct)}
	})
}

// AreaOutcomeBars splits each area into correct answers and errors.
func AreaOutcomeBars(snap model.Snapshot) []StackedBar {
	return lo.Map(snap.ByArea, func(a model.AreaTotals, _ int) StackedBar {
		return StackedBar{Label: a.Area, Parts: []float64{float64(a.Correct), float64(a.Errors)}}
	})
}

// RenderTopics prints the topics with the highest error rate.
func RenderTopics(w io.Writer, snap model.Snapshot, totalWidth int, useColor bool) error {
	if len(snap.TopErrorTopics) == 0 {
		return nil
	}
	return RenderBars(w, fmt.Sprintf("Top %d Topics by Error Rate", TopErrorTopicsLimit), TopicBars(snap), totalWidth, useColor)
}

// TopicBars maps ranked topics to bars labelled with their error rate.
func TopicBars(snap model.Snapshot) []Bar {
	return lo.Map(snap.TopErrorTopics, func(t model.TopicErrorRate, _ int) Bar {
		return Bar{
			Label: t.Topic,
			Value: t.ErrorRate,
			Note:  fmt.Sprintf("%5.1f%% (%d/%d)", t.ErrorRate*100, t.Errors, t.Questions),
		}
	})
}

// RenderDaily prints the per-day totals.
func RenderDaily(w io.Writer, snap model.Snapshot) error {
	if len(snap.DailySeries) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Daily"); err != nil {
		return err
	}
	headers := []string{"Date", "Questions", "Correct", "Pass"}
	rows := make([][]string, 0, len(snap.DailySeries))
	for _, p := range snap.DailySeries {
		rows = append(rows, []string{
			p.Date.Format(dateLayout),
			strconv.Itoa(p.Questions),
			strconv.Itoa(p.Correct),
			fmt.Sprintf("%.1f%%", PassRate(p.Correct, p.Questions)),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderDailyCurves plots questions and correct answers per calendar day,
// smoothed over window days. Days without study count as zero.
func RenderDailyCurves(w io.Writer, snap model.Snapshot, window, totalWidth, height int, useColor bool) error {
	if len(snap.DailySeries) == 0 {
		return nil
	}
	days := FillCalendarDays(snap.DailySeries)
	questions := make([]float64, len(days))
	correct := make([]float64, len(days))
	for i, p := range days {
		questions[i] = float64(p.Questions)
		correct[i] = float64(p.Correct)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	title := "Daily Questions"
	if window > 1 {
		title = fmt.Sprintf("Daily Questions (%d-day average)", window)
	}
	return PlotSeries(w, title, []Series{
		{Name: "Questions", Values: MovingAverage(questions, window)},
		{Name: "Correct", Values: MovingAverage(correct, window)},
	}, DailyAxis(snap), width, height, useColor)
}

// DailyAxis labels the first and last day of the series.
func DailyAxis(snap model.Snapshot) Axis {
	if len(snap.DailySeries) == 0 {
		return Axis{}
	}
	first := snap.DailySeries[0].Date.Format(dateLayout)
	last := snap.DailySeries[len(snap.DailySeries)-1].Date.Format(dateLayout)
	if first == last {
		return Axis{Start: first}
	}
	return Axis{Start: first, End: last}
}

// RenderReport prints every section of a report, or the waiting message
// with the load status when there is nothing to show.
func RenderReport(w io.Writer, report Report, window, totalWidth int, useColor bool) error {
	if !report.Load.Ready() {
		if _, err := fmt.Fprintln(w, WaitingMessage); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Status: %s\n", report.Load.Describe())
		return err
	}
	if len(report.Records) == 0 {
		_, err := fmt.Fprintln(w, "No records match the selected activities.")
		return err
	}
	if err := RenderSummary(w, report.Snapshot); err != nil {
		return err
	}
	if err := RenderAreas(w, report.Snapshot, totalWidth, useColor); err != nil {
		return err
	}
	if err := RenderTopics(w, report.Snapshot, totalWidth, useColor); err != nil {
		return err
	}
	if err := RenderDaily(w, report.Snapshot); err != nil {
		return err
	}
	return RenderDailyCurves(w, report.Snapshot, window, totalWidth, defaultPlotHeight, useColor)
}

func share(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
