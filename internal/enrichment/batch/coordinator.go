// Package batch drives the enrichment backfill: it pages through eligible
// records, fetches and extracts each one, merges the result and persists it
// before moving on.
package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/enrichment/merge"
	"github.com/octobees/business-directory/api/internal/entity"
)

const (
	DefaultPageSize      = 100
	DefaultRecordDelay   = time.Second
	DefaultBatchPause    = 5 * time.Second
	DefaultRecordTimeout = 90 * time.Second
	DefaultLockTTL       = 2 * time.Minute

	storageTimeout = 15 * time.Second
)

// Store is the record storage the coordinator reads and writes.
// FindByID and UpdateByID return an error matching enrichment.ErrNotFound
// when the record is gone; UpdateByID returns one matching
// enrichment.ErrConflict when a unique value belongs to another record.
type Store interface {
	FindEligible(ctx context.Context, q enrichment.EligibleQuery) ([]entity.Business, error)
	CountEligible(ctx context.Context, f enrichment.Filter) (int, error)
	FindByID(ctx context.Context, id uuid.UUID) (entity.Business, error)
	UpdateByID(ctx context.Context, business entity.Business) (entity.Business, error)
}

// Cleaner normalises extracted fields before they are merged.
type Cleaner interface {
	Clean(ctx context.Context, partial enrichment.Partial) enrichment.Partial
}

// Config bounds a run.
type Config struct {
	Filter        enrichment.Filter
	PageSize      int
	RecordDelay   time.Duration
	BatchPause    time.Duration
	RecordTimeout time.Duration
	LockTTL       time.Duration
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.RecordDelay < 0 {
		c.RecordDelay = 0
	}
	if c.BatchPause < 0 {
		c.BatchPause = 0
	}
	if c.RecordTimeout <= 0 {
		c.RecordTimeout = DefaultRecordTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = DefaultLockTTL
	}
	if c.Filter.Target == "" {
		c.Filter.Target = entity.TargetDetails
	}
	return c
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Coordinator runs enrichment one record at a time.
type Coordinator struct {
	store     Store
	fetcher   enrichment.Fetcher
	extractor enrichment.Extractor
	cleaner   Cleaner
	locker    Locker
	cfg       Config
	log       *logrus.Logger
	now       func() time.Time
	sleep     Sleeper

	// fetchMu holds one mutex per target so at most one fetch per target
	// class is outstanding, whether it came from Run or EnrichOne.
	fetchMu map[entity.EnrichmentTarget]*sync.Mutex
}

// Option customises a Coordinator.
type Option func(*Coordinator)

func WithCleaner(c Cleaner) Option {
	return func(co *Coordinator) { co.cleaner = c }
}

// WithLocker makes runs exclusive per target.
func WithLocker(l Locker) Option {
	return func(co *Coordinator) { co.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(co *Coordinator) { co.now = now }
}

func WithSleeper(s Sleeper) Option {
	return func(co *Coordinator) { co.sleep = s }
}

// New builds a coordinator.
func New(store Store, fetcher enrichment.Fetcher, extractor enrichment.Extractor, cfg Config, log *logrus.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Coordinator{
		store:     store,
		fetcher:   fetcher,
		extractor: extractor,
		cfg:       cfg.withDefaults(),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		sleep:     sleepContext,
		fetchMu: map[entity.EnrichmentTarget]*sync.Mutex{
			entity.TargetDetails:  {},
			entity.TargetPresence: {},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective run configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Run processes eligible records until none are left, ctx is cancelled or
// storage fails. Cancellation is observed between records; the record in
// flight is always finished and persisted. The returned error is the
// cancellation cause or the fatal storage error.
func (c *Coordinator) Run(ctx context.Context) (Stats, error) {
	target := c.cfg.Filter.Target
	stats := Stats{RunID: uuid.New(), Target: target, State: StateIdle, StartedAt: c.now()}
	log := c.log.WithFields(logrus.Fields{"run_id": stats.RunID, "target": target})

	finish := func(state State, err error) (Stats, error) {
		stats.State = state
		stats.FinishedAt = c.now()
		entry := log.WithFields(logrus.Fields{
			"state":     state,
			"total":     stats.Total,
			"processed": stats.Processed,
			"succeeded": stats.Succeeded,
			"failed":    stats.Failed,
			"skipped":   stats.Skipped,
			"changed":   stats.Changed,
			"duration":  stats.Duration().String(),
		})
		switch state {
		case StateAborted:
			entry.WithError(err).Error("enrichment run aborted")
		case StateCancelled:
			entry.Warn("enrichment run cancelled")
		default:
			entry.Info("enrichment run drained")
		}
		return stats, err
	}

	var lock Lock
	if c.locker != nil {
		var err error
		lock, err = c.locker.Acquire(ctx, lockKey(string(target)), c.cfg.LockTTL)
		if err != nil {
			stats.FinishedAt = c.now()
			return stats, err
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
			defer cancel()
			if err := lock.Release(releaseCtx); err != nil {
				log.WithError(err).Warn("release run lock")
			}
		}()
	}

	total, err := c.count(ctx)
	if err != nil {
		return finish(StateAborted, err)
	}
	stats.Total = total
	log.WithField("eligible", total).Info("enrichment run started")

	var cursor int64
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return finish(StateCancelled, err)
		}

		stats.State = StateSelecting
		page, err := c.selectPage(ctx, cursor)
		if err != nil {
			return finish(StateAborted, err)
		}
		if len(page) == 0 {
			return finish(StateDrained, nil)
		}
		stats.Pages++

		for _, rec := range page {
			if !first {
				if err := c.sleep(ctx, c.cfg.RecordDelay); err != nil {
					return finish(StateCancelled, err)
				}
			}
			if err := ctx.Err(); err != nil {
				return finish(StateCancelled, err)
			}
			first = false

			stats.State = StateProcessing
			res, err := c.process(ctx, rec, target)
			if err != nil {
				return finish(StateAborted, err)
			}
			stats.record(res, target)
			cursor = rec.Seq
			c.logRecord(log, res)

			if lock != nil {
				if err := lock.Refresh(ctx); err != nil && ctx.Err() == nil {
					log.WithError(err).Warn("refresh run lock")
				}
			}
		}

		if len(page) == c.cfg.PageSize {
			log.WithField("pause", c.cfg.BatchPause.String()).Debug("page done, pausing")
			if err := c.sleep(ctx, c.cfg.BatchPause); err != nil {
				return finish(StateCancelled, err)
			}
		}
	}
}

// RecordResult is the outcome of one record.
type RecordResult struct {
	Business entity.Business
	Result   Result
	Changed  bool
	// Err is the classified failure or skip reason.
	Err error
}

// EnrichOne runs a single record through the pipeline regardless of its
// current status. A missing record yields an error matching
// enrichment.ErrNotFound.
func (c *Coordinator) EnrichOne(ctx context.Context, id uuid.UUID, target entity.EnrichmentTarget) (RecordResult, error) {
	readCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	rec, err := c.store.FindByID(readCtx, id)
	if err != nil {
		if errors.Is(err, enrichment.ErrNotFound) {
			return RecordResult{}, err
		}
		return RecordResult{}, &enrichment.StorageError{Op: "find", Err: err}
	}
	res, err := c.process(ctx, rec, target)
	if err != nil {
		return res, err
	}
	c.logRecord(c.log.WithFields(logrus.Fields{"target": target, "trigger": "api"}), res)
	return res, nil
}

// process drives fetch, extract, clean, merge and save for one record. Only
// storage failures are returned as errors.
func (c *Coordinator) process(ctx context.Context, rec entity.Business, target entity.EnrichmentTarget) (RecordResult, error) {
	req, err := buildRequest(rec, target)
	if err != nil {
		return RecordResult{Business: rec, Result: ResultSkipped, Err: err}, nil
	}

	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RecordTimeout)
	defer cancel()

	partial, attemptErr := c.attempt(workCtx, req, target)

	storeCtx, cancelStore := context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
	defer cancelStore()

	// Merge onto the latest stored copy so edits made while fetching survive.
	current, err := c.store.FindByID(storeCtx, rec.ID)
	if errors.Is(err, enrichment.ErrNotFound) {
		return RecordResult{Business: rec, Result: ResultSkipped, Err: &enrichment.ValidationError{Reason: "record no longer exists"}}, nil
	}
	if err != nil {
		return RecordResult{Business: rec}, &enrichment.StorageError{Op: "find", Err: err}
	}

	merged, changed := merge.Merge(current, partial, enrichment.Outcome{Target: target, Err: attemptErr, At: c.now()})
	saved, err := c.store.UpdateByID(storeCtx, merged)
	if errors.Is(err, enrichment.ErrConflict) {
		// The scraped member id belongs to another record. Keep the rest of
		// the page and record the attempt as failed.
		memberID, _ := partial.MemberID.Get()
		conflict := &enrichment.ValidationError{Reason: "member id " + memberID + " already belongs to another record"}
		partial.MemberID = entity.Field{}
		if attemptErr == nil {
			attemptErr = conflict
		}
		merged, changed = merge.Merge(current, partial, enrichment.Outcome{Target: target, Err: attemptErr, At: c.now()})
		saved, err = c.store.UpdateByID(storeCtx, merged)
		if errors.Is(err, enrichment.ErrConflict) {
			return RecordResult{Business: current, Result: ResultFailed, Err: conflict}, nil
		}
	}
	if errors.Is(err, enrichment.ErrNotFound) {
		return RecordResult{Business: merged, Result: ResultSkipped, Err: &enrichment.ValidationError{Reason: "record no longer exists"}}, nil
	}
	if err != nil {
		return RecordResult{Business: merged}, &enrichment.StorageError{Op: "update", Err: err}
	}

	res := RecordResult{Business: saved, Changed: changed, Result: ResultSucceeded}
	if attemptErr != nil {
		res.Result = ResultFailed
		res.Err = attemptErr
	}
	return res, nil
}

// attempt fetches, extracts and cleans one request. The returned partial is
// empty whenever the error is set.
func (c *Coordinator) attempt(ctx context.Context, req enrichment.Request, target entity.EnrichmentTarget) (enrichment.Partial, error) {
	if mu := c.fetchMu[target]; mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}

	raw, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		return enrichment.Partial{}, err
	}
	partial, err := c.extractor.Extract(raw)
	if err != nil {
		return enrichment.Partial{}, err
	}
	if c.cleaner != nil {
		partial = c.cleaner.Clean(ctx, partial)
	}
	return partial, nil
}

func (c *Coordinator) count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
	defer cancel()
	n, err := c.store.CountEligible(ctx, c.cfg.Filter)
	if err != nil {
		return 0, &enrichment.StorageError{Op: "count", Err: err}
	}
	return n, nil
}

func (c *Coordinator) selectPage(ctx context.Context, cursor int64) ([]entity.Business, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
	defer cancel()
	page, err := c.store.FindEligible(ctx, enrichment.EligibleQuery{
		Filter:   c.cfg.Filter,
		AfterSeq: cursor,
		Limit:    c.cfg.PageSize,
	})
	if err != nil {
		return nil, &enrichment.StorageError{Op: "select", Err: err}
	}
	return page, nil
}

func (c *Coordinator) logRecord(log *logrus.Entry, res RecordResult) {
	entry := log.WithFields(logrus.Fields{
		"business_id": res.Business.ID,
		"name":        res.Business.Name,
		"outcome":     res.Result,
		"changed":     res.Changed,
	})
	if res.Err == nil {
		entry.Info("record enriched")
		return
	}
	entry = entry.WithField("error_class", enrichment.Classify(res.Err)).WithError(res.Err)
	if res.Result == ResultSkipped {
		entry.Warn("record skipped")
		return
	}
	entry.Warn("record enrichment failed")
}

// buildRequest derives what to fetch for a record.
func buildRequest(rec entity.Business, target entity.EnrichmentTarget) (enrichment.Request, error) {
	switch target {
	case entity.TargetDetails:
		website, ok := rec.Website.Get()
		if !ok {
			return enrichment.Request{}, &enrichment.ValidationError{Reason: "no website to fetch"}
		}
		return enrichment.Request{BusinessID: rec.ID, Kind: enrichment.KindPage, URL: website}, nil
	case entity.TargetPresence:
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			return enrichment.Request{}, &enrichment.ValidationError{Reason: "no name to search for"}
		}
		return enrichment.Request{BusinessID: rec.ID, Kind: enrichment.KindSearch, Query: presenceQuery(rec)}, nil
	default:
		return enrichment.Request{}, &enrichment.ValidationError{Reason: "unknown target " + string(target)}
	}
}

func presenceQuery(rec entity.Business) string {
	query := strings.TrimSpace(rec.Name)
	if city := rec.Address.City(); city != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(city)) {
		query += " " + city
	}
	return query
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
