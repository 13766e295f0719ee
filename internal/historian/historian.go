// internal/historian/historian.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/cache"
	"github.com/jason-s-yu/picturepoker/internal/models"
)

// Store persists a batch of activity records atomically.
type Store interface {
	SaveActivity(ctx context.Context, records []models.ActivityRecord) error
}

// Options tunes batching. Zero values fall back to defaults.
type Options struct {
	Queue       string
	BatchSize   int
	FlushDelay  time.Duration
	PollTimeout time.Duration
}

// Service pops activity records from the Redis queue the lobby server
// publishes to and writes them to the store in batches.
type Service struct {
	rdb    *redis.Client
	store  Store
	opts   Options
	logger *logrus.Entry

	batchMu   sync.Mutex
	batch     []models.ActivityRecord
	lastFlush time.Time
}

func New(rdb *redis.Client, store Store, opts Options, logger *logrus.Logger) *Service {
	if opts.Queue == "" {
		opts.Queue = cache.DefaultQueueName
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.PollTimeout < time.Second {
		opts.PollTimeout = time.Second // BLPOP resolution
	}
	return &Service{
		rdb:       rdb,
		store:     store,
		opts:      opts,
		logger:    logger.WithField("component", "historian"),
		batch:     make([]models.ActivityRecord, 0, opts.BatchSize),
		lastFlush: time.Now(),
	}
}

// Run consumes the queue until ctx is done, then flushes the pending batch.
func (s *Service) Run(ctx context.Context) {
	s.logger.WithField("queue", s.opts.Queue).Info("historian started")
	defer s.logger.Info("historian stopped")
	defer s.Flush(context.Background())

	for ctx.Err() == nil {
		res, err := s.rdb.BLPop(ctx, s.opts.PollTimeout, s.opts.Queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			if ctx.Err() == nil {
				s.logger.Warnf("BLPop: %v", err)
				time.Sleep(s.opts.PollTimeout)
			}
		case len(res) == 2:
			s.append(res[1])
		}

		if s.due() {
			s.Flush(ctx)
		}
	}
}

func (s *Service) append(payload string) {
	var rec models.ActivityRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		s.logger.Warnf("invalid activity record: %v", err)
		return
	}
	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	s.batchMu.Unlock()
}

func (s *Service) due() bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch) >= s.opts.BatchSize ||
		(len(s.batch) > 0 && time.Since(s.lastFlush) >= s.opts.FlushDelay)
}

// Flush writes the pending batch. A failed batch is logged and dropped.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	pending := s.batch
	s.batch = make([]models.ActivityRecord, 0, s.opts.BatchSize)
	s.lastFlush = time.Now()
	s.batchMu.Unlock()

	if len(pending) == 0 {
		return
	}
	if err := s.store.SaveActivity(ctx, pending); err != nil {
		s.logger.Errorf("failed to flush %d records: %v", len(pending), err)
		return
	}
	s.logger.Debugf("flushed %d records", len(pending))
}
