package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/studyboard/internal/model"
	"github.com/verte-zerg/studyboard/internal/schema"
)

// Day-first layouts, most specific first. Single-digit layout elements also
// accept two digits, so "2/1/2006" covers "01/03/2024" as well.
var dateLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Normalize parses raw CSV into a normalized table. Incomplete rows are
// dropped and counted; malformed values fail the whole table.
func Normalize(data []byte, rules []schema.Rule) (model.Table, int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: source has no header row", ErrSchemaMismatch)
		}
		return nil, 0, fmt.Errorf("%w: failed to read header: %v", ErrSchemaMismatch, err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	mapping, err := schema.Resolve(headers, rules)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	cols := resolveColumns(mapping)

	var table model.Table
	dropped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dropped, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		line, _ := reader.FieldPos(0)

		rec, ok, err := normalizeRow(row, cols)
		if err != nil {
			return nil, dropped, fmt.Errorf("%w: line %d: %v", ErrSchemaMismatch, line, err)
		}
		if !ok {
			dropped++
			continue
		}
		table = append(table, rec)
	}
	return table, dropped, nil
}

type columns struct {
	date      int
	activity  int
	area      int
	questions int
	correct   int
	minutes   int
	topics    []int
}

func resolveColumns(m schema.Mapping) columns {
	col := func(f schema.Field) int {
		if idx, ok := m.Column(f); ok {
			return idx
		}
		return -1
	}
	return columns{
		date:      col(schema.FieldDate),
		activity:  col(schema.FieldActivity),
		area:      col(schema.FieldArea),
		questions: col(schema.FieldQuestions),
		correct:   col(schema.FieldCorrect),
		minutes:   col(schema.FieldMinutes),
		topics:    m.Columns(schema.FieldTopic),
	}
}

// normalizeRow returns ok=false for rows missing a required value.
func normalizeRow(row []string, cols columns) (model.StudyRecord, bool, error) {
	activity := cell(row, cols.activity)
	questionsRaw := cell(row, cols.questions)
	dateRaw := cell(row, cols.date)
	if activity == "" || questionsRaw == "" || dateRaw == "" {
		return model.StudyRecord{}, false, nil
	}

	date, err := ParseDayFirst(dateRaw)
	if err != nil {
		return model.StudyRecord{}, false, err
	}
	questions, err := parseCount(questionsRaw)
	if err != nil {
		return model.StudyRecord{}, false, fmt.Errorf("questions: %w", err)
	}
	correct, err := parseCount(cell(row, cols.correct))
	if err != nil {
		return model.StudyRecord{}, false, fmt.Errorf("correct answers: %w", err)
	}
	minutes, err := parseAmount(cell(row, cols.minutes))
	if err != nil {
		return model.StudyRecord{}, false, fmt.Errorf("study minutes: %w", err)
	}

	rec := model.StudyRecord{
		Date:               date,
		ActivityType:       activity,
		BroadArea:          cell(row, cols.area),
		Topic:              ReconcileTopic(row, cols.topics),
		QuestionsAttempted: questions,
		CorrectAnswers:     correct,
		StudyMinutes:       minutes,
	}
	rec.Errors = rec.QuestionsAttempted - rec.CorrectAnswers
	if rec.QuestionsAttempted > 0 {
		rec.ErrorRate = float64(rec.Errors) / float64(rec.QuestionsAttempted)
	}
	return rec, true, nil
}

// ReconcileTopic returns the first non-empty value across the topic columns.
func ReconcileTopic(row []string, topicCols []int) string {
	for _, idx := range topicCols {
		if v := cell(row, idx); v != "" {
			return v
		}
	}
	return ""
}

// ParseDayFirst parses a day-first date and truncates it to the calendar day.
func ParseDayFirst(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// maxCount bounds count cells; larger values are treated as corrupt input.
const maxCount = math.MaxInt32

var (
	plainNumber   = regexp.MustCompile(`^\d+(\.\d+)?$`)
	groupedNumber = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d+)?$`)
	wholeFraction = regexp.MustCompile(`\.0+$`)
)

// parseCount parses a non-negative whole number. Empty means zero.
func parseCount(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	digits := wholeFraction.ReplaceAllString(canonicalNumber(value), "")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("not a whole number: %q", value)
	}
	if n > maxCount {
		return 0, fmt.Errorf("count out of range: %q", value)
	}
	return n, nil
}

// parseAmount parses a non-negative decimal number. Empty means zero.
func parseAmount(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	if strings.HasPrefix(value, "-") {
		return 0, fmt.Errorf("negative value: %q", value)
	}
	f, err := strconv.ParseFloat(canonicalNumber(value), 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	return f, nil
}

// canonicalNumber rewrites pt-BR grouping ("1.234,5") and decimal commas
// ("30,5") to plain dotted decimals. Anything else that is not a plain
// decimal, exponents included, is returned as "" so parsing fails.
func canonicalNumber(value string) string {
	switch {
	case groupedNumber.MatchString(value):
		value = strings.ReplaceAll(value, ".", "")
		value = strings.Replace(value, ",", ".", 1)
	case strings.Count(value, ",") == 1 && !strings.Contains(value, "."):
		value = strings.Replace(value, ",", ".", 1)
	}
	if !plainNumber.MatchString(value) {
		return ""
	}
	return value
}
