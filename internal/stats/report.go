package stats

import (
	"context"

	"github.com/verte-zerg/studyboard/internal/loader"
	"github.com/verte-zerg/studyboard/internal/model"
)

// Source yields the current study log.
type Source interface {
	Load(ctx context.Context) loader.Result
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Load     loader.Result
	Filter   model.Filter
	Records  model.Table
	Snapshot model.Snapshot
	Options  []string
}

// BuildReport loads the study log and aggregates it for the filter. A failed
// load still yields a report: Snapshot is the zero-guarded summary of no rows.
func BuildReport(ctx context.Context, src Source, filter model.Filter) Report {
	res := src.Load(ctx)
	return NewReport(res, filter)
}

// NewReport aggregates an already loaded result.
func NewReport(res loader.Result, filter model.Filter) Report {
	records, snap := Aggregate(res.Table, filter)
	return Report{
		Load:     res,
		Filter:   filter,
		Records:  records,
		Snapshot: snap,
		Options:  ActivityOptions(res.Table),
	}
}
