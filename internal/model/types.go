// Package model defines shared data structures.
package model

import "time"

// AllActivities is the filter value that selects every activity type.
const AllActivities = "All activities"

// Unspecified labels records grouped under an empty area or topic.
const Unspecified = "(unspecified)"

// OrUnspecified returns label, or Unspecified when it is empty.
func OrUnspecified(label string) string {
	if label == "" {
		return Unspecified
	}
	return label
}

// StudyRecord is one normalized study-log row.
type StudyRecord struct {
	Date               time.Time
	ActivityType       string
	BroadArea          string
	Topic              string
	QuestionsAttempted int
	CorrectAnswers     int
	StudyMinutes       float64
	Errors             int
	ErrorRate          float64
}

// Table is an ordered set of normalized records.
type Table []StudyRecord

// Empty reports whether the table holds no records.
func (t Table) Empty() bool {
	return len(t) == 0
}

// AreaTotals sums a broad area.
type AreaTotals struct {
	Area      string `json:"area"`
	Questions int    `json:"questions"`
	Correct   int    `json:"correct"`
	Errors    int    `json:"errors"`
}

// TopicErrorRate ranks a topic by its share of wrong answers.
type TopicErrorRate struct {
	Topic     string  `json:"topic"`
	ErrorRate float64 `json:"error_rate"`
	Questions int     `json:"questions"`
	Errors    int     `json:"errors"`
}

// DailyPoint sums one calendar day.
type DailyPoint struct {
	Date      time.Time `json:"date"`
	Questions int       `json:"questions"`
	Correct   int       `json:"correct"`
}

// Snapshot holds the metrics computed for one filter selection.
type Snapshot struct {
	TotalQuestions int              `json:"total_questions"`
	TotalCorrect   int              `json:"total_correct"`
	PassRate       float64          `json:"pass_rate"`
	TotalHours     float64          `json:"total_hours"`
	ByArea         []AreaTotals     `json:"by_area"`
	TopErrorTopics []TopicErrorRate `json:"top_error_topics"`
	DailySeries    []DailyPoint     `json:"daily_series"`
}

// Filter restricts a table to a set of activity types.
// An empty filter, or one containing AllActivities, selects everything.
type Filter struct {
	Activities []string
}

// SourceConfig locates the remote CSV and bounds how often it is fetched.
type SourceConfig struct {
	URL      string
	CacheTTL time.Duration
	Timeout  time.Duration
}
