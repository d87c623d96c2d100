package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/distribution"
	"github.com/dukerupert/fairshare/internal/errvalues"
	"github.com/dukerupert/fairshare/internal/model"
)

type fakeHouseholds struct {
	ids []int64
	err error
}

func (f fakeHouseholds) List(context.Context) ([]model.Household, error) {
	var out []model.Household
	for _, id := range f.ids {
		out = append(out, model.Household{ID: id})
	}
	return out, f.err
}

type recorder struct {
	mu       sync.Mutex
	runs     []int64
	expired  []int64
	archived []string
	runErr   map[int64]error
}

func (r *recorder) Run(_ context.Context, householdID int64, date time.Time) (*distribution.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, householdID)
	if err := r.runErr[householdID]; err != nil {
		return nil, err
	}
	return &distribution.Result{Status: distribution.StatusDistributed, Day: clock.DayKey(date)}, nil
}

func (r *recorder) ExpireStale(_ context.Context, householdID int64, _ time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, householdID)
	return 0, nil
}

func (r *recorder) ArchiveOnce(_ context.Context, _ int64, period string, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archived = append(r.archived, period)
	return true, nil
}

func (r *recorder) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTickVisitsEveryHousehold(t *testing.T) {
	rec := &recorder{runErr: map[int64]error{2: errvalues.ErrNoChores}}
	clk := clock.Fixed{T: time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)}
	s := New(fakeHouseholds{ids: []int64{1, 2}}, rec, rec, rec, clk, time.Hour, quietLogger())

	s.tick(context.Background())

	if len(rec.runs) != 2 {
		t.Fatalf("runs = %v, want 2 households", rec.runs)
	}
	// A household with nothing to distribute still gets its housekeeping.
	if len(rec.expired) != 2 {
		t.Errorf("expired = %v, want both households", rec.expired)
	}
	for _, p := range rec.archived {
		if p != "2026-02" {
			t.Errorf("archived period = %q, want 2026-02", p)
		}
	}
	if len(rec.archived) != 2 {
		t.Errorf("archived = %v, want 2 entries", rec.archived)
	}
}

func TestTickStopsOnListError(t *testing.T) {
	rec := &recorder{}
	s := New(fakeHouseholds{err: errors.New("db gone")}, rec, rec, rec, clock.System{}, time.Hour, quietLogger())

	s.tick(context.Background())

	if len(rec.runs) != 0 || len(rec.expired) != 0 {
		t.Errorf("expected no work, got runs=%v expired=%v", rec.runs, rec.expired)
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	rec := &recorder{}
	s := New(fakeHouseholds{ids: []int64{7}}, rec, rec, rec, clock.System{}, time.Hour, quietLogger())

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for rec.runCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()

	if got := rec.runCount(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestStopWithoutStart(t *testing.T) {
	s := New(fakeHouseholds{}, &recorder{}, &recorder{}, &recorder{}, clock.System{}, 0, quietLogger())
	s.Stop()
	if s.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", s.interval, DefaultInterval)
	}
}
