// Package mirror contains the refresh-decision engine and the bounded
// concurrent fetch dispatcher that keep the local climate archive in sync
// with the upstream source.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climate-mirror/internal/domain"
	"github.com/couchcryptid/climate-mirror/internal/observability"
)

// Fetcher downloads the daily CSV for one station-year.
type Fetcher interface {
	FetchYear(ctx context.Context, stationID, year int) ([]byte, error)
}

// FetcherFactory builds one transport handle per worker. Workers own their
// handle exclusively, so connection reuse inside it never needs locking.
type FetcherFactory func() Fetcher

// Sink persists fetched payloads under the mirror root.
type Sink interface {
	// Prepare creates the partition directory for relPath.
	Prepare(relPath string) error
	// Store writes data at relPath.
	Store(data []byte, relPath string) error
}

// StalenessStore records when each unit was last fetched successfully.
type StalenessStore interface {
	Get(key string) (time.Time, error)
	Set(key string, t time.Time) error
}

// Announcer publishes fetch provenance to downstream consumers.
type Announcer interface {
	Announce(ctx context.Context, rec domain.FetchRecord) error
}

// StationSource streams station descriptors, one callback per station.
type StationSource interface {
	Stations(ctx context.Context, fn func(domain.Station) error) error
}

// Options tunes a Mirror.
type Options struct {
	// Workers bounds the number of concurrent in-flight fetches.
	Workers int
	// Force dispatches every enumerated unit, bypassing the refresh policy.
	Force bool
	// Announcer, when non-nil, receives a FetchRecord after each successful
	// store update. Publishing is best effort and never fails a unit.
	Announcer Announcer
	// Clock supplies "now" for policy decisions and staleness timestamps.
	// Defaults to the real clock.
	Clock clockwork.Clock
}

// Report summarizes one mirror pass.
type Report struct {
	Fetched     int
	Skipped     int
	Failed      int
	FailedUnits []string
	Duration    time.Duration
}

// Mirror enumerates fetch units, filters them through the refresh policy,
// and dispatches the due ones across a bounded worker pool.
type Mirror struct {
	newFetcher FetcherFactory
	sink       Sink
	store      StalenessStore
	announcer  Announcer
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	workers    int
	force      bool
	ready      atomic.Bool

	// runMu serializes passes: a second Run blocks until the active pass
	// finishes, so in-flight fetches never exceed the worker bound even
	// when callers overlap.
	runMu sync.Mutex

	lastMu     sync.Mutex
	lastReport *Report
}

// New creates a Mirror. The factory is invoked once per worker at the start
// of each pass.
func New(newFetcher FetcherFactory, sink Sink, store StalenessStore, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Mirror {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Mirror{
		newFetcher: newFetcher,
		sink:       sink,
		store:      store,
		announcer:  opts.Announcer,
		logger:     logger,
		metrics:    metrics,
		clock:      opts.Clock,
		workers:    opts.Workers,
		force:      opts.Force,
	}
}

// LastReport returns the report of the most recently finished pass, or nil
// before the first one.
func (m *Mirror) LastReport() *Report {
	m.lastMu.Lock()
	defer m.lastMu.Unlock()
	return m.lastReport
}

func (m *Mirror) setLastReport(r *Report) {
	m.lastMu.Lock()
	m.lastReport = r
	m.lastMu.Unlock()
}

// CheckReadiness returns nil once at least one pass has completed.
func (m *Mirror) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("no mirror pass has completed yet")
	}
	return nil
}

// runState accumulates per-pass counters shared between workers.
type runState struct {
	fetched atomic.Int64
	failed  atomic.Int64
	skipped int64 // submission path only, no sharing

	mu          sync.Mutex
	failedUnits []string
}

func (rs *runState) recordFailure(path string) {
	rs.failed.Add(1)
	rs.mu.Lock()
	rs.failedUnits = append(rs.failedUnits, path)
	rs.mu.Unlock()
}

// Run executes one mirror pass: enumerate every station's units, submit the
// due ones to the worker pool, and wait for all outstanding fetches before
// returning. The barrier sits at the end of the whole inventory, not per
// station, so the pool stays saturated across stations. Per-unit failures
// are recorded in the report and never abort siblings; the returned error is
// non-nil only when the station source itself fails. Passes never overlap:
// a concurrent Run blocks until the current pass completes.
func (m *Mirror) Run(ctx context.Context, source StationSource) (*Report, error) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	start := time.Now()
	m.logger.Info("mirror pass started", "workers", m.workers, "force", m.force)
	m.metrics.MirrorRunning.Set(1)
	defer m.metrics.MirrorRunning.Set(0)

	rs := &runState{}

	// Unbuffered: submission blocks while all workers are busy, so pending
	// work stays bounded no matter how large the inventory is.
	jobs := make(chan domain.FetchUnit)

	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetcher := m.newFetcher()
			for unit := range jobs {
				m.fetchOne(ctx, fetcher, unit, rs)
			}
		}()
	}

	srcErr := source.Stations(ctx, func(st domain.Station) error {
		for _, unit := range st.Units() {
			if !m.force && !m.isDue(unit) {
				rs.skipped++
				m.metrics.UnitsSkipped.Inc()
				continue
			}
			select {
			case jobs <- unit:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	close(jobs)
	wg.Wait()

	report := &Report{
		Fetched:     int(rs.fetched.Load()),
		Skipped:     int(rs.skipped),
		Failed:      int(rs.failed.Load()),
		FailedUnits: rs.failedUnits,
		Duration:    time.Since(start),
	}
	m.metrics.PassDuration.Observe(report.Duration.Seconds())
	m.setLastReport(report)

	if srcErr != nil && !errors.Is(srcErr, context.Canceled) && !errors.Is(srcErr, context.DeadlineExceeded) {
		m.logger.Error("station enumeration failed", "error", srcErr)
		return report, fmt.Errorf("enumerate stations: %w", srcErr)
	}
	if ctx.Err() != nil {
		m.logger.Info("mirror pass aborted",
			"reason", ctx.Err(), "fetched", report.Fetched, "failed", report.Failed)
		return report, nil
	}

	m.ready.Store(true)
	m.logger.Info("mirror pass complete",
		"fetched", report.Fetched,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report, nil
}

// isDue consults the staleness store and the refresh policy. A store read
// error is logged and treated as never-fetched: staleness is a liveness
// hint, and the worst case is one redundant download.
func (m *Mirror) isDue(unit domain.FetchUnit) bool {
	lastRefresh, err := m.store.Get(unit.LocalPath())
	if err != nil {
		m.logger.Warn("staleness lookup failed, treating unit as due",
			"unit", unit.LocalPath(), "error", err)
		lastRefresh = time.Time{}
	}
	return domain.IsDue(unit.Year, m.clock.Now(), lastRefresh)
}

// fetchOne runs the full cycle for a unit: partition dir, fetch, sink write,
// staleness update, optional announce. The staleness store is updated last,
// so a unit that fails or is cancelled anywhere earlier leaves no record and
// stays due for the next pass.
func (m *Mirror) fetchOne(ctx context.Context, fetcher Fetcher, unit domain.FetchUnit, rs *runState) {
	path := unit.LocalPath()
	m.metrics.InflightFetches.Inc()
	defer m.metrics.InflightFetches.Dec()
	start := time.Now()

	if err := m.sink.Prepare(path); err != nil {
		m.logger.Warn("prepare partition failed", "unit", path, "error", err)
		rs.recordFailure(path)
		m.metrics.UnitsFailed.Inc()
		return
	}

	data, err := fetcher.FetchYear(ctx, unit.StationID, unit.Year)
	if err != nil {
		m.logger.Warn("fetch failed", "unit", path, "error", err)
		rs.recordFailure(path)
		m.metrics.UnitsFailed.Inc()
		return
	}

	if err := m.sink.Store(data, path); err != nil {
		m.logger.Warn("sink write failed", "unit", path, "error", err)
		rs.recordFailure(path)
		m.metrics.UnitsFailed.Inc()
		return
	}

	refreshedAt := m.clock.Now()
	if err := m.store.Set(path, refreshedAt); err != nil {
		// The payload is on disk but unrecorded: the unit stays due and the
		// next pass overwrites it.
		m.logger.Error("staleness update failed", "unit", path, "error", err)
		rs.recordFailure(path)
		m.metrics.UnitsFailed.Inc()
		return
	}

	rs.fetched.Add(1)
	m.metrics.UnitsFetched.Inc()
	m.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	m.metrics.FetchBytes.Observe(float64(len(data)))
	m.logger.Debug("unit mirrored", "unit", path, "bytes", len(data))

	if m.announcer != nil {
		rec := domain.FetchRecord{
			Path:        path,
			StationID:   unit.StationID,
			Year:        unit.Year,
			Bytes:       len(data),
			RefreshedAt: refreshedAt,
		}
		if err := m.announcer.Announce(ctx, rec); err != nil {
			m.logger.Warn("announce failed", "unit", path, "error", err)
			m.metrics.AnnounceErrors.Inc()
		}
	}
}
