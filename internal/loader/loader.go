// Package loader fetches the study log and normalizes it into a typed table.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/studyboard/internal/cache"
	"github.com/verte-zerg/studyboard/internal/model"
	"github.com/verte-zerg/studyboard/internal/schema"
	"github.com/verte-zerg/studyboard/internal/source"
)

// Load failure reasons, wrapped into Result.Err.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSchemaMismatch    = errors.New("schema mismatch")
)

const cacheKey = "study-log"

// Status tags the outcome of a load.
type Status int

// Load outcomes.
const (
	StatusOK Status = iota
	StatusNoData
	StatusSourceUnavailable
	StatusSchemaMismatch
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoData:
		return "no data"
	case StatusSourceUnavailable:
		return "source unavailable"
	case StatusSchemaMismatch:
		return "schema mismatch"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of one load. Table is empty unless Status is StatusOK.
type Result struct {
	Table    model.Table
	Status   Status
	Err      error
	Dropped  int
	LoadedAt time.Time
}

// Ready reports whether the result carries rows to aggregate.
func (r Result) Ready() bool {
	return r.Status == StatusOK && !r.Table.Empty()
}

// Describe is a one-line reason for the status, suitable for a footer.
func (r Result) Describe() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Status.String()
}

// Loader pulls the study log through an optional TTL cache.
type Loader struct {
	src   source.Source
	rules []schema.Rule
	cache *cache.Cache[Result]
	ttl   time.Duration
	clock cache.Clock
	log   logrus.FieldLogger
}

// New builds a Loader. A nil cache disables caching; a nil logger discards logs.
func New(src source.Source, c *cache.Cache[Result], ttl time.Duration, log logrus.FieldLogger) *Loader {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Loader{
		src:   src,
		rules: schema.DefaultRules,
		cache: c,
		ttl:   ttl,
		clock: cache.SystemClock{},
		log:   log,
	}
}

// Load returns the normalized table. It never fails: problems surface as an
// empty table with a non-OK Status.
func (l *Loader) Load(ctx context.Context) Result {
	if l.cache == nil {
		return l.load(ctx)
	}
	if age, ok := l.cache.Age(cacheKey); ok && age < l.ttl {
		l.log.WithField("age", age).Debug("study log served from cache")
	}
	return l.cache.GetOrRefresh(cacheKey, l.ttl, func() Result {
		return l.load(ctx)
	})
}

func (l *Loader) load(ctx context.Context) Result {
	started := l.clock.Now()
	res := Result{LoadedAt: started}

	data, err := l.src.Fetch(ctx)
	if err != nil {
		res.Status = StatusSourceUnavailable
		res.Err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		l.log.WithError(err).Warn("study log fetch failed")
		return res
	}

	table, dropped, err := Normalize(data, l.rules)
	res.Dropped = dropped
	if err != nil {
		res.Status = StatusSchemaMismatch
		res.Err = err
		l.log.WithError(err).WithField("bytes", len(data)).Warn("study log rejected")
		return res
	}
	if table.Empty() {
		res.Status = StatusNoData
		l.log.WithField("dropped", dropped).Info("study log has no usable rows")
		return res
	}

	res.Status = StatusOK
	res.Table = table
	l.log.WithFields(logrus.Fields{
		"rows":     len(table),
		"dropped":  dropped,
		"duration": l.clock.Now().Sub(started),
	}).Info("study log loaded")
	return res
}
