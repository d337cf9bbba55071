package orchestrators

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"juventud/internal/adapters/api"
	"juventud/internal/domain/actividad"
	"juventud/internal/domain/form"
)

// WeekActividades lists the activities around a date.
type WeekActividades interface {
	GetActividadesSemana(ctx context.Context, filter api.SemanaFilter) ([]actividad.Actividad, error)
}

// ResolveTodayInput carries the local calendar date to resolve.
type ResolveTodayInput struct {
	Date string // YYYY-MM-DD
}

// ResolveTodayDeps holds dependencies for ResolveToday.
type ResolveTodayDeps struct {
	Actividades WeekActividades
}

// ExecuteResolveToday finds the activity for input.Date.
// Results dated another day are ignored; undated results are kept.
// PRE: input.Date is YYYY-MM-DD
// POST: found is false when no activity matches; ties resolve to the first in response order
func ExecuteResolveToday(ctx context.Context, input ResolveTodayInput, deps ResolveTodayDeps) (today actividad.Actividad, found bool, err error) {
	list, err := deps.Actividades.GetActividadesSemana(ctx, api.SemanaFilter{Fecha: input.Date})
	if err != nil {
		return actividad.Actividad{}, false, err
	}

	var candidates []actividad.Actividad
	for _, a := range list {
		if a.Fecha == "" || a.Fecha == input.Date {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return actividad.Actividad{}, false, nil
	}
	if len(candidates) > 1 {
		slog.Warn("today_event", "event", "multiple_actividades", "date", input.Date, "count", len(candidates), "chosen", candidates[0].ID)
	}
	return candidates[0], true, nil
}

// resolveTimeout bounds one shared lookup of today's activity.
const resolveTimeout = 30 * time.Second

// DayResolver holds today's activity, resolving it at most once per local calendar date.
// A failed lookup is not remembered, so the next call retries.
// It is safe for concurrent use. Concurrent callers share one backend lookup, and each
// caller waits only as long as its own context allows.
type DayResolver struct {
	deps  ResolveTodayDeps
	now   func() time.Time
	loc   *time.Location
	group singleflight.Group

	mu       sync.Mutex
	date     string
	today    actividad.Actividad
	found    bool
	resolved bool
	gen      uint64 // bumped by Forget
}

type todayResult struct {
	today actividad.Actividad
	found bool
}

// NewDayResolver creates a resolver for dates in loc.
// PRE: now and loc are non-nil
func NewDayResolver(deps ResolveTodayDeps, now func() time.Time, loc *time.Location) *DayResolver {
	return &DayResolver{deps: deps, now: now, loc: loc}
}

// Now returns the current time in the resolver's zone.
func (r *DayResolver) Now() time.Time {
	return r.now().In(r.loc)
}

func (r *DayResolver) cached(date string) (todayResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved && r.date == date {
		return todayResult{r.today, r.found}, true
	}
	return todayResult{}, false
}

// Today returns the activity for the current local date.
// PRE: ctx is valid
// POST: Within one date every successful call returns the same value; returns ctx.Err()
// if ctx ends while the shared lookup is still running
func (r *DayResolver) Today(ctx context.Context) (actividad.Actividad, bool, error) {
	date := r.Now().Format(form.DateLayout)
	if res, ok := r.cached(date); ok {
		return res.today, res.found, nil
	}

	ch := r.group.DoChan(date, func() (any, error) {
		if res, ok := r.cached(date); ok {
			return res, nil
		}
		r.mu.Lock()
		gen := r.gen
		r.mu.Unlock()

		// The lookup outlives any single caller; resolveTimeout ends it.
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
		defer cancel()
		today, found, err := ExecuteResolveToday(lookupCtx, ResolveTodayInput{Date: date}, r.deps)
		if err != nil {
			slog.Warn("today_event", "event", "resolve_failed", "date", date, "error", err)
			return nil, err
		}

		r.mu.Lock()
		// A Forget during the lookup may have made a missing result stale.
		if found || r.gen == gen {
			r.date, r.today, r.found, r.resolved = date, today, found, true
		}
		r.mu.Unlock()
		slog.Info("today_event", "event", "resolved", "date", date, "found", found, "actividad_id", today.ID)
		return todayResult{today, found}, nil
	})

	select {
	case <-ctx.Done():
		return actividad.Actividad{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return actividad.Actividad{}, false, res.Err
		}
		v := res.Val.(todayResult)
		return v.today, v.found, nil
	}
}

// Forget drops the remembered result when a new activity is created for date.
// PRE: date is YYYY-MM-DD
// POST: The next Today call for date queries the backend again
func (r *DayResolver) Forget(date string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.date == date && !r.found {
		r.resolved = false
	}
	r.group.Forget(date)
}
