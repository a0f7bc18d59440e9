package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/casedesk/casedesk/internal/cache"
	"github.com/casedesk/casedesk/internal/models"
	"github.com/casedesk/casedesk/pkg/logger"
)

const (
	defaultSweepSpec    = "@every 1m"
	defaultRecordSpec   = "@daily"
	defaultRecordMaxAge = 720 * time.Hour
)

// Sweeper coordinates background maintenance: reclaiming memory held by
// expired cache entries and pruning old invalidation audit records. Expiry
// semantics do not depend on it; reads already treat stale entries as misses.
type Sweeper struct {
	db    *gorm.DB
	cache *cache.PermissionCache
	cron  *cron.Cron
	now   func() time.Time
	log   *zap.Logger

	sweepSchedule  string
	recordSchedule string
	recordMaxAge   time.Duration
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for record age comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepSchedule overrides the cron specification for cache sweeps.
func WithSweepSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.sweepSchedule = spec
		}
	}
}

// WithRecordSchedule overrides the cron specification for invalidation record pruning.
func WithRecordSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.recordSchedule = spec
		}
	}
}

// WithRecordMaxAge adjusts how long invalidation records are retained.
func WithRecordMaxAge(age time.Duration) Option {
	return func(s *Sweeper) {
		if age > 0 {
			s.recordMaxAge = age
		}
	}
}

// NewSweeper constructs a Sweeper with sensible defaults. A nil db skips
// record pruning; a nil cache skips cache sweeps.
func NewSweeper(db *gorm.DB, c *cache.PermissionCache, opts ...Option) *Sweeper {
	s := &Sweeper{
		db:             db,
		cache:          c,
		now:            time.Now,
		log:            logger.WithModule("maintenance"),
		sweepSchedule:  defaultSweepSpec,
		recordSchedule: defaultRecordSpec,
		recordMaxAge:   defaultRecordMaxAge,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s
}

// Start registers the maintenance jobs and launches the scheduler.
func (s *Sweeper) Start() error {
	if s.cache != nil {
		if _, err := s.cron.AddFunc(s.sweepSchedule, func() {
			if purged := s.cache.PurgeExpired(); purged > 0 {
				s.log.Debug("purged expired cache entries", zap.Int("purged", purged))
			}
		}); err != nil {
			return err
		}
	}

	if s.db != nil && s.recordMaxAge > 0 {
		if _, err := s.cron.AddFunc(s.recordSchedule, func() {
			if _, err := PruneInvalidationRecords(context.Background(), s.db, s.now().Add(-s.recordMaxAge)); err != nil {
				s.log.Warn("invalidation record pruning failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Sweeper) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes all maintenance routines sequentially. Primarily used in
// tests and during graceful shutdown.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if s.cache != nil {
		s.cache.PurgeExpired()
	}

	if s.db != nil && s.recordMaxAge > 0 {
		if _, err := PruneInvalidationRecords(ctx, s.db, s.now().Add(-s.recordMaxAge)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// PruneInvalidationRecords deletes invalidation audit rows older than cutoff
// and reports how many were removed.
func PruneInvalidationRecords(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("prune invalidation records: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("invalidated_at < ?", cutoff).
		Delete(&models.InvalidationRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune invalidation records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
