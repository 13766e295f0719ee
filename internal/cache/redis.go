// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/lobby"
	"github.com/jason-s-yu/picturepoker/internal/models"
)

// DefaultQueueName is the Redis list (queue) name for lobby activity records.
const DefaultQueueName = "picturepoker_activity"

// DefaultBuffer is how many records may wait for the pusher before new ones are dropped.
const DefaultBuffer = 256

// Connect creates a Redis client and checks it answers.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher pushes activity records onto a Redis list for an external consumer.
// Publish only enqueues; Run does the network work on its own goroutine.
type Publisher struct {
	rdb    *redis.Client
	queue  string
	ch     chan models.ActivityRecord
	logger *logrus.Entry
}

var _ lobby.ActivitySink = (*Publisher)(nil)

// NewPublisher creates a publisher writing to the named list.
func NewPublisher(rdb *redis.Client, queue string, logger *logrus.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{
		rdb:    rdb,
		queue:  queue,
		ch:     make(chan models.ActivityRecord, DefaultBuffer),
		logger: logger.WithField("component", "activity"),
	}
}

// Publish enqueues rec, dropping it when the buffer is full.
func (p *Publisher) Publish(rec models.ActivityRecord) {
	select {
	case p.ch <- rec:
	default:
		p.logger.WithField("kind", rec.Kind).Warn("activity buffer full, dropping record")
	}
}

// Run drains the buffer into Redis until ctx is done, then flushes what is left.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case rec := <-p.ch:
			p.push(rec)
		case <-ctx.Done():
			p.flush()
			return
		}
	}
}

func (p *Publisher) flush() {
	for {
		select {
		case rec := <-p.ch:
			p.push(rec)
		default:
			return
		}
	}
}

func (p *Publisher) push(rec models.ActivityRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		p.logger.Warnf("failed to marshal activity record: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		p.logger.Warnf("failed to RPush to Redis list '%s': %v", p.queue, err)
	}
}
