package stats

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/studyboard/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func record(date time.Time, activity, area, topic string, questions, correct int, minutes float64) model.StudyRecord {
	r := model.StudyRecord{
		Date:               date,
		ActivityType:       activity,
		BroadArea:          area,
		Topic:              topic,
		QuestionsAttempted: questions,
		CorrectAnswers:     correct,
		StudyMinutes:       minutes,
		Errors:             questions - correct,
	}
	if questions > 0 {
		r.ErrorRate = float64(r.Errors) / float64(questions)
	}
	return r
}

func exampleTable() model.Table {
	return model.Table{
		record(day(1), "Questions", "Cardiology", "Arrhythmia", 10, 7, 30),
		record(day(2), "Review", "Cardiology", "Arrhythmia", 5, 5, 15),
	}
}

func mixedTable() model.Table {
	return model.Table{
		record(day(1), "Questions", "Surgery", "Hernia", 20, 10, 40),
		record(day(1), "Questions", "Cardiology", "Arrhythmia", 10, 7, 30),
		record(day(2), "Review", "Cardiology", "Heart failure", 8, 8, 20),
		record(day(3), "Simulation", "", "", 12, 6, 60),
		record(day(3), "Review", "Pediatrics", "Bronchiolitis", 6, 3, 10),
		record(day(4), "Questions", "Surgery", "Appendicitis", 9, 8, 25),
		record(day(5), "Questions", "Pediatrics", "Neonatal jaundice", 4, 1, 5),
	}
}

func TestAggregateExample(t *testing.T) {
	records, snap := Aggregate(exampleTable(), model.Filter{Activities: []string{model.AllActivities}})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if snap.TotalQuestions != 15 || snap.TotalCorrect != 12 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
	if snap.PassRate != 80 {
		t.Fatalf("expected pass rate 80, got %v", snap.PassRate)
	}
	if snap.TotalHours != 0.75 {
		t.Fatalf("expected 0.75 hours, got %v", snap.TotalHours)
	}
	wantArea := []model.AreaTotals{{Area: "Cardiology", Questions: 15, Correct: 12, Errors: 3}}
	if !reflect.DeepEqual(snap.ByArea, wantArea) {
		t.Fatalf("unexpected areas: %+v", snap.ByArea)
	}
	if len(snap.TopErrorTopics) != 1 || snap.TopErrorTopics[0].Topic != "Arrhythmia" || snap.TopErrorTopics[0].ErrorRate != 0.2 {
		t.Fatalf("unexpected topics: %+v", snap.TopErrorTopics)
	}
	if len(snap.DailySeries) != 2 {
		t.Fatalf("expected 2 daily points, got %d", len(snap.DailySeries))
	}
	if snap.DailySeries[0].Questions != 10 || snap.DailySeries[0].Correct != 7 || !snap.DailySeries[0].Date.Equal(day(1)) {
		t.Fatalf("unexpected first day: %+v", snap.DailySeries[0])
	}
	if snap.DailySeries[1].Questions != 5 || snap.DailySeries[1].Correct != 5 {
		t.Fatalf("unexpected second day: %+v", snap.DailySeries[1])
	}
}

func TestAggregateFilterByActivity(t *testing.T) {
	records, snap := Aggregate(exampleTable(), model.Filter{Activities: []string{"Review"}})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if snap.TotalQuestions != 5 || snap.TotalCorrect != 5 || snap.PassRate != 100 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestAggregateUnknownActivityIsZero(t *testing.T) {
	records, snap := Aggregate(exampleTable(), model.Filter{Activities: []string{"Flashcards"}})
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if snap.TotalQuestions != 0 || snap.TotalCorrect != 0 || snap.PassRate != 0 || snap.TotalHours != 0 {
		t.Fatalf("expected zero scalars, got %+v", snap)
	}
	if snap.ByArea == nil || snap.TopErrorTopics == nil || snap.DailySeries == nil {
		t.Fatalf("expected empty, non-nil collections: %+v", snap)
	}
}

func TestSummarizeEmptyTable(t *testing.T) {
	snap := Summarize(nil)
	if snap.PassRate != 0 || math.IsNaN(snap.PassRate) {
		t.Fatalf("expected guarded pass rate, got %v", snap.PassRate)
	}
	if len(snap.ByArea) != 0 || len(snap.TopErrorTopics) != 0 || len(snap.DailySeries) != 0 {
		t.Fatalf("expected empty collections, got %+v", snap)
	}
}

func TestAreaTotalsConserveQuestions(t *testing.T) {
	snap := Summarize(mixedTable())
	var questions, correct, errs int
	for _, a := range snap.ByArea {
		questions += a.Questions
		correct += a.Correct
		errs += a.Errors
	}
	if questions != snap.TotalQuestions || correct != snap.TotalCorrect {
		t.Fatalf("area totals %d/%d differ from snapshot %d/%d", questions, correct, snap.TotalQuestions, snap.TotalCorrect)
	}
	if errs != snap.TotalQuestions-snap.TotalCorrect {
		t.Fatalf("expected errors %d, got %d", snap.TotalQuestions-snap.TotalCorrect, errs)
	}
	var daily int
	for _, p := range snap.DailySeries {
		daily += p.Questions
	}
	if daily != snap.TotalQuestions {
		t.Fatalf("daily totals %d differ from snapshot %d", daily, snap.TotalQuestions)
	}
}

func TestByAreaGroupsMissingArea(t *testing.T) {
	snap := Summarize(mixedTable())
	want := []string{"(unspecified)", "Cardiology", "Pediatrics", "Surgery"}
	got := make([]string, 0, len(snap.ByArea))
	for _, a := range snap.ByArea {
		got = append(got, a.Area)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected areas %v, got %v", want, got)
	}
}

func TestFilterPartitionsTable(t *testing.T) {
	table := mixedTable()
	all := Summarize(table)
	var questions, correct int
	for _, activity := range ActivityOptions(table)[1:] {
		_, snap := Aggregate(table, model.Filter{Activities: []string{activity}})
		questions += snap.TotalQuestions
		correct += snap.TotalCorrect
	}
	if questions != all.TotalQuestions || correct != all.TotalCorrect {
		t.Fatalf("per-activity totals %d/%d differ from %d/%d", questions, correct, all.TotalQuestions, all.TotalCorrect)
	}

	everything := model.Filter{Activities: []string{"Questions", "Review", "Simulation"}}
	records, _ := Aggregate(table, everything)
	if len(records) != len(table) {
		t.Fatalf("expected all %d records, got %d", len(table), len(records))
	}
}

func TestTopErrorTopicsBoundedAndOrdered(t *testing.T) {
	top := TopErrorTopics(mixedTable(), TopErrorTopicsLimit)
	if len(top) != TopErrorTopicsLimit {
		t.Fatalf("expected %d topics, got %d", TopErrorTopicsLimit, len(top))
	}
	for i := 1; i < len(top); i++ {
		if top[i].ErrorRate > top[i-1].ErrorRate {
			t.Fatalf("ranking not descending at %d: %+v", i, top)
		}
	}
	if top[0].Topic != "Neonatal jaundice" || top[0].ErrorRate != 0.75 {
		t.Fatalf("unexpected leader: %+v", top[0])
	}
	// Hernia, Bronchiolitis and the unspecified topic all sit at 0.5.
	wantTies := []string{"(unspecified)", "Bronchiolitis", "Hernia"}
	for i, topic := range wantTies {
		if top[i+1].Topic != topic {
			t.Fatalf("expected tie %d to be %q, got %+v", i, topic, top)
		}
	}
}

func TestTopErrorTopicsUsesPooledRate(t *testing.T) {
	table := model.Table{
		record(day(1), "Questions", "Cardiology", "Arrhythmia", 1, 0, 0),
		record(day(2), "Questions", "Cardiology", "Arrhythmia", 99, 99, 0),
	}
	top := TopErrorTopics(table, 5)
	if len(top) != 1 || top[0].ErrorRate != 0.01 {
		t.Fatalf("expected pooled rate 0.01, got %+v", top)
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	filter := model.Filter{Activities: []string{"Questions"}}
	records, first := Aggregate(mixedTable(), filter)
	again, second := Aggregate(records, filter)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected repeated aggregation to match:\n%+v\n%+v", first, second)
	}
	if len(again) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(again))
	}
}

func TestFillCalendarDays(t *testing.T) {
	points := DailySeries(mixedTable())
	got := FillCalendarDays(points)
	if len(got) != 5 {
		t.Fatalf("expected 5 calendar days, got %d: %+v", len(got), got)
	}
	for i, p := range got {
		if !p.Date.Equal(day(i + 1)) {
			t.Fatalf("day %d: expected %s, got %s", i, day(i+1), p.Date)
		}
	}
	want := []int{30, 8, 18, 9, 4}
	for i, q := range want {
		if got[i].Questions != q {
			t.Fatalf("day %d: expected %d questions, got %d", i+1, q, got[i].Questions)
		}
	}

	gappy := FillCalendarDays([]model.DailyPoint{
		{Date: day(1), Questions: 10, Correct: 7},
		{Date: day(4), Questions: 5, Correct: 5},
	})
	if len(gappy) != 4 || gappy[1].Questions != 0 || gappy[2].Correct != 0 || gappy[3].Questions != 5 {
		t.Fatalf("expected zero-filled gap days, got %+v", gappy)
	}
	if got := FillCalendarDays(nil); len(got) != 0 {
		t.Fatalf("expected no days, got %+v", got)
	}
}

func TestActivityOptions(t *testing.T) {
	got := ActivityOptions(mixedTable())
	want := []string{model.AllActivities, "Questions", "Review", "Simulation"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := ActivityOptions(nil); !reflect.DeepEqual(got, []string{model.AllActivities}) {
		t.Fatalf("expected only the all option, got %v", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseActivities(t *testing.T) {
	cases := map[string][]string{
		"":                       nil,
		" , ":                    nil,
		"Questions":              {"Questions"},
		"Questions ,Review,  ":   {"Questions", "Review"},
		"Review, Review, Review": {"Review"},
	}
	for in, want := range cases {
		if got := ParseActivities(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("ParseActivities(%q) = %v, want %v", in, got, want)
		}
	}
}
