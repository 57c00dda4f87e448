// Package stats contains the metrics aggregation and text reporting.
package stats

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/verte-zerg/studyboard/internal/model"
)

// TopErrorTopicsLimit bounds the error-topic ranking.
const TopErrorTopicsLimit = 5

// Aggregate filters the table by activity and summarizes what remains.
func Aggregate(table model.Table, filter model.Filter) (model.Table, model.Snapshot) {
	filtered := ApplyFilter(table, filter)
	return filtered, Summarize(filtered)
}

// ApplyFilter keeps rows whose activity type is in the filter. An empty
// filter or one containing model.AllActivities passes the table through.
func ApplyFilter(table model.Table, filter model.Filter) model.Table {
	if SelectsAll(filter) {
		return table
	}
	return model.Table(lo.Filter(table, func(r model.StudyRecord, _ int) bool {
		return lo.Contains(filter.Activities, r.ActivityType)
	}))
}

// ParseActivities splits a comma-separated activity list, dropping blanks
// and duplicates. A blank list yields nil, which selects every activity.
func ParseActivities(input string) []string {
	parts := lo.FilterMap(strings.Split(input, ","), func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
	if len(parts) == 0 {
		return nil
	}
	return lo.Uniq(parts)
}

// SelectsAll reports whether the filter lets every row through.
func SelectsAll(filter model.Filter) bool {
	return len(filter.Activities) == 0 || lo.Contains(filter.Activities, model.AllActivities)
}

// Summarize computes the metrics snapshot of an already filtered table.
// An empty table yields zero scalars and empty, non-nil collections.
func Summarize(table model.Table) model.Snapshot {
	questions := lo.SumBy(table, func(r model.StudyRecord) int { return r.QuestionsAttempted })
	correct := lo.SumBy(table, func(r model.StudyRecord) int { return r.CorrectAnswers })
	minutes := lo.SumBy(table, func(r model.StudyRecord) float64 { return r.StudyMinutes })
	return model.Snapshot{
		TotalQuestions: questions,
		TotalCorrect:   correct,
		PassRate:       PassRate(correct, questions),
		TotalHours:     minutes / 60,
		ByArea:         ByArea(table),
		TopErrorTopics: TopErrorTopics(table, TopErrorTopicsLimit),
		DailySeries:    DailySeries(table),
	}
}

// PassRate returns correct/questions as a percentage, 0 without questions.
func PassRate(correct, questions int) float64 {
	if questions <= 0 {
		return 0
	}
	return float64(correct) * 100 / float64(questions)
}

// ByArea sums questions, correct answers and errors per broad area,
// ordered by area name. Rows without an area count as model.Unspecified.
func ByArea(table model.Table) []model.AreaTotals {
	index := map[string]int{}
	out := []model.AreaTotals{}
	for _, r := range table {
		area := model.OrUnspecified(r.BroadArea)
		i, ok := index[area]
		if !ok {
			i = len(out)
			index[area] = i
			out = append(out, model.AreaTotals{Area: area})
		}
		out[i].Questions += r.QuestionsAttempted
		out[i].Correct += r.CorrectAnswers
		out[i].Errors += r.Errors
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Area < out[j].Area
	})
	return out
}

// DailySeries sums questions and correct answers per calendar day, oldest first.
func DailySeries(table model.Table) []model.DailyPoint {
	index := map[int64]int{}
	out := []model.DailyPoint{}
	for _, r := range table {
		key := r.Date.Unix()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, model.DailyPoint{Date: r.Date})
		}
		out[i].Questions += r.QuestionsAttempted
		out[i].Correct += r.CorrectAnswers
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// FillCalendarDays expands an ascending daily series to every calendar day
// between its first and last point. Days without study are zero.
func FillCalendarDays(points []model.DailyPoint) []model.DailyPoint {
	if len(points) == 0 {
		return []model.DailyPoint{}
	}
	first, last := points[0].Date, points[len(points)-1].Date
	out := make([]model.DailyPoint, 0, len(points))
	next := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		p := model.DailyPoint{Date: day}
		for next < len(points) && !points[next].Date.After(day) {
			if points[next].Date.Equal(day) {
				p.Questions += points[next].Questions
				p.Correct += points[next].Correct
			}
			next++
		}
		out = append(out, p)
	}
	return out
}

// ActivityOptions lists the filter choices: model.AllActivities followed by
// the distinct activity types in sorted order.
func ActivityOptions(table model.Table) []string {
	activities := lo.Uniq(lo.Map(table, func(r model.StudyRecord, _ int) string {
		return r.ActivityType
	}))
	sort.Strings(activities)
	return append([]string{model.AllActivities}, activities...)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}
