// Package schema reconciles drifting CSV headers into canonical study-log fields.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingColumn is returned when a required field has no matching header.
var ErrMissingColumn = errors.New("missing required column")

// Field names a canonical column of the normalized table.
type Field string

// Canonical fields.
const (
	FieldDate      Field = "date"
	FieldActivity  Field = "activity_type"
	FieldArea      Field = "broad_area"
	FieldTopic     Field = "topic"
	FieldQuestions Field = "questions_attempted"
	FieldCorrect   Field = "correct_answers"
	FieldMinutes   Field = "study_minutes"
)

// Rule maps a canonical field to the raw labels accepted for it.
// Patterns are matched against folded labels (see FoldLabel) and tried in order.
// A Multi rule collects every matching column in header order instead of the first.
type Rule struct {
	Field    Field
	Patterns []*regexp.Regexp
	Multi    bool
	Required bool
}

// DefaultRules covers the form revisions seen so far, Portuguese and English.
var DefaultRules = []Rule{
	{
		Field: FieldDate,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(data|date|dia|day)$`),
			regexp.MustCompile(`^(carimbo de data/hora|timestamp)$`),
		},
		Required: true,
	},
	{
		Field: FieldActivity,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^tipo de atividade$`),
			regexp.MustCompile(`^(activity type|activity|atividade)$`),
		},
		Required: true,
	},
	{
		Field: FieldArea,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^grande area$`),
			regexp.MustCompile(`^(broad area|area|subject)$`),
		},
	},
	{
		Field: FieldQuestions,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^questoes resolvidas$`),
			regexp.MustCompile(`^(questoes|questions)( resolved| attempted)?$`),
		},
		Required: true,
	},
	{
		Field: FieldCorrect,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^acertos$`),
			regexp.MustCompile(`^(correct|correct answers)$`),
		},
		Required: true,
	},
	{
		Field: FieldMinutes,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^tempo de estudo( em minutos)?$`),
			regexp.MustCompile(`^(minutos|minutes|study minutes|minutes studied)$`),
		},
	},
	{
		Field: FieldTopic,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(tema|topico|topic|assunto)s?([^a-z]|$)`),
		},
		Multi: true,
	},
}

// Mapping holds the header positions resolved for each field.
type Mapping struct {
	columns map[Field][]int
}

// Column returns the position of a single-valued field.
func (m Mapping) Column(f Field) (int, bool) {
	cols := m.columns[f]
	if len(cols) == 0 {
		return 0, false
	}
	return cols[0], true
}

// Columns returns every position bound to a field, in header order.
func (m Mapping) Columns(f Field) []int {
	return m.columns[f]
}

// Resolve binds headers to fields. Each header is claimed by at most one
// field; rules are applied in slice order.
func Resolve(headers []string, rules []Rule) (Mapping, error) {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = FoldLabel(h)
	}
	claimed := make([]bool, len(headers))
	m := Mapping{columns: make(map[Field][]int, len(rules))}

	for _, rule := range rules {
		if rule.Multi {
			for i, label := range folded {
				if claimed[i] || !matchesAny(label, rule.Patterns) {
					continue
				}
				claimed[i] = true
				m.columns[rule.Field] = append(m.columns[rule.Field], i)
			}
		} else {
			if idx, ok := firstMatch(folded, claimed, rule.Patterns); ok {
				claimed[idx] = true
				m.columns[rule.Field] = []int{idx}
			}
		}
		if rule.Required && len(m.columns[rule.Field]) == 0 {
			return Mapping{}, fmt.Errorf("%w: %s", ErrMissingColumn, rule.Field)
		}
	}
	return m, nil
}

func firstMatch(labels []string, claimed []bool, patterns []*regexp.Regexp) (int, bool) {
	for _, re := range patterns {
		for i, label := range labels {
			if claimed[i] {
				continue
			}
			if re.MatchString(label) {
				return i, true
			}
		}
	}
	return 0, false
}

func matchesAny(label string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(label) {
			return true
		}
	}
	return false
}

// FoldLabel lowercases a label, strips accents and collapses whitespace,
// so "  Questões   Resolvidas " becomes "questoes resolvidas".
func FoldLabel(label string) string {
	label = strings.TrimPrefix(label, "\ufeff")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, label)
	if err != nil {
		stripped = label
	}
	return strings.ToLower(strings.Join(strings.Fields(stripped), " "))
}
