package stats

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/studyboard/internal/cache"
	"github.com/verte-zerg/studyboard/internal/loader"
	"github.com/verte-zerg/studyboard/internal/model"
)

type stubSource struct {
	res loader.Result
}

func (s stubSource) Load(context.Context) loader.Result {
	return s.res
}

type csvSource struct {
	data  string
	calls int
}

func (s *csvSource) Fetch(context.Context) ([]byte, error) {
	s.calls++
	return []byte(s.data), nil
}

const studyCSV = `Data,Tipo de Atividade,Grande Área,Tema,Questões Resolvidas,Acertos,Tempo de Estudo em Minutos
01/03/2024,Questions,Surgery,Hernia,20,10,40
01/03/2024,Questions,Cardiology,Arrhythmia,10,7,30
02/03/2024,Review,Cardiology,Heart failure,8,8,20
03/03/2024,Simulation,,,12,6,60
05/03/2024,Questions,Pediatrics,Neonatal jaundice,4,1,5
`

func TestAggregateOfCachedLoadIsIdempotent(t *testing.T) {
	src := &csvSource{data: studyCSV}
	l := loader.New(src, cache.New[loader.Result](nil), time.Minute, nil)
	ctx := context.Background()

	for _, filter := range []model.Filter{{}, {Activities: []string{"Questions"}}, {Activities: []string{"Flashcards"}}} {
		firstRecords, first := Aggregate(l.Load(ctx).Table, filter)
		secondRecords, second := Aggregate(l.Load(ctx).Table, filter)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("filter %v: snapshots differ:\n%+v\n%+v", filter.Activities, first, second)
		}
		if !reflect.DeepEqual(firstRecords, secondRecords) {
			t.Fatalf("filter %v: filtered tables differ", filter.Activities)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one fetch within the TTL, got %d", src.calls)
	}
	_, snap := Aggregate(l.Load(ctx).Table, model.Filter{})
	if snap.TotalQuestions != 54 || snap.TotalCorrect != 32 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
}

func TestBuildReport(t *testing.T) {
	src := stubSource{res: loader.Result{Table: mixedTable(), Status: loader.StatusOK}}
	report := BuildReport(context.Background(), src, model.Filter{Activities: []string{"Review"}})
	if len(report.Records) != 2 {
		t.Fatalf("expected 2 review records, got %d", len(report.Records))
	}
	if report.Snapshot.TotalQuestions != 14 || report.Snapshot.TotalCorrect != 11 {
		t.Fatalf("unexpected snapshot: %+v", report.Snapshot)
	}
	if len(report.Options) != 4 || report.Options[0] != model.AllActivities {
		t.Fatalf("expected options from the whole table, got %v", report.Options)
	}
}

func TestBuildReportFailedLoad(t *testing.T) {
	err := fmt.Errorf("%w: dial tcp: timeout", loader.ErrSourceUnavailable)
	src := stubSource{res: loader.Result{Status: loader.StatusSourceUnavailable, Err: err}}
	report := BuildReport(context.Background(), src, model.Filter{})
	if report.Snapshot.TotalQuestions != 0 || report.Snapshot.PassRate != 0 {
		t.Fatalf("expected zero snapshot, got %+v", report.Snapshot)
	}
	if !errors.Is(report.Load.Err, loader.ErrSourceUnavailable) {
		t.Fatalf("expected load error to be kept, got %v", report.Load.Err)
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, report, 1, 80, false); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}
	want := WaitingMessage + "\nStatus: source unavailable: dial tcp: timeout\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestRenderReportSections(t *testing.T) {
	report := NewReport(loader.Result{Table: exampleTable(), Status: loader.StatusOK}, model.Filter{})
	var buf bytes.Buffer
	if err := RenderReport(&buf, report, 1, 80, false); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Questions: 15",
		"Correct: 12",
		"Pass rate: 80.0%",
		"Study time: 0.8h",
		"By Area",
		"Question Share",
		"Correct vs Errors",
		"Top 5 Topics by Error Rate",
		"Arrhythmia",
		"20.0% (3/15)",
		"01/03/2024",
		"02/03/2024",
		"Daily Questions",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}

func TestRenderReportNoMatches(t *testing.T) {
	report := NewReport(loader.Result{Table: exampleTable(), Status: loader.StatusOK}, model.Filter{Activities: []string{"Flashcards"}})
	var buf bytes.Buffer
	if err := RenderReport(&buf, report, 1, 80, false); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No records match") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestKPIs(t *testing.T) {
	snap := model.Snapshot{TotalQuestions: 15, TotalCorrect: 12, PassRate: 80, TotalHours: 0.75}
	got := KPIs(snap)
	want := []KPI{
		{Label: "Questions", Value: "15"},
		{Label: "Correct", Value: "12"},
		{Label: "Pass rate", Value: "80.0%"},
		{Label: "Study time", Value: "0.8h"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kpi %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
