package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/galatadergisi/galata-backend/internal/notifications"
	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/db/models"
	"github.com/galatadergisi/galata-backend/pkg/logger"
)

const (
	publishTimeout = 15 * time.Second
	jitterWindow   = 250 * time.Millisecond
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) ackWaiter
}

type ackWaiter interface {
	Get(ctx context.Context) (string, error)
}

type RelayParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Queue     notifications.Repository
	Publisher publisher
	Config    config.RelayConfig
}

// Relay moves queued notification rows to Pub/Sub. Each batch runs in one
// transaction: rows are fetched with SKIP LOCKED, published together, and
// marked published or failed before commit. A row whose attempts reach
// MaxAttempts is no longer fetched.
type Relay struct {
	logg      *logger.Logger
	db        txRunner
	queue     notifications.Repository
	publisher publisher
	cfg       config.RelayConfig
	now       func() time.Time
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("relay: logger required")
	case p.DB == nil:
		return nil, errors.New("relay: database required")
	case p.Queue == nil:
		return nil, errors.New("relay: notification queue required")
	case p.Publisher == nil:
		return nil, errors.New("relay: publisher required")
	}
	cfg := p.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.MaxBackoff < cfg.PollInterval {
		cfg.MaxBackoff = cfg.PollInterval
	}
	return &Relay{
		logg:      p.Logger,
		db:        p.DB,
		queue:     p.Queue,
		publisher: p.Publisher,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

// Run drains the queue until ctx is canceled. A full batch is followed by the
// next one at once; otherwise the relay sleeps PollInterval. Batch errors
// double the wait up to MaxBackoff.
func (r *Relay) Run(ctx context.Context) error {
	wait := r.cfg.PollInterval
	for {
		n, err := r.relayBatch(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "relay.batch_failed", err)
			wait = min(wait*2, r.cfg.MaxBackoff)
		case n == r.cfg.BatchSize:
			wait = r.cfg.PollInterval
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		default:
			wait = r.cfg.PollInterval
		}
		if err := sleep(ctx, wait+rand.N(jitterWindow)); err != nil {
			return err
		}
	}
}

// relayBatch returns how many rows it handled.
func (r *Relay) relayBatch(ctx context.Context) (int, error) {
	var handled int
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		queue := r.queue.WithTx(tx)
		rows, err := queue.FetchUnpublished(ctx, r.cfg.BatchSize, r.cfg.MaxAttempts)
		if err != nil {
			return fmt.Errorf("fetch unpublished: %w", err)
		}
		handled = len(rows)
		if handled == 0 {
			return nil
		}

		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		acks := make([]ackWaiter, len(rows))
		for i, row := range rows {
			acks[i] = r.publisher.Publish(pubCtx, message(row))
		}

		for i, row := range rows {
			rowCtx := r.logg.WithFields(ctx, map[string]any{
				"notification_id": row.ID.String(),
				"kind":            row.Kind,
				"attempt":         row.AttemptCount + 1,
			})
			if err := await(pubCtx, acks[i]); err != nil {
				if row.AttemptCount+1 >= r.cfg.MaxAttempts {
					r.logg.Error(rowCtx, "relay.gave_up", err)
				} else {
					r.logg.Warn(r.logg.WithField(rowCtx, "error", err.Error()), "relay.publish_failed")
				}
				if err := queue.MarkFailed(ctx, row.ID, err); err != nil {
					return fmt.Errorf("mark %s failed: %w", row.ID, err)
				}
				continue
			}
			if err := queue.MarkPublished(ctx, row.ID, r.now().UTC()); err != nil {
				return fmt.Errorf("mark %s published: %w", row.ID, err)
			}
			r.logg.Debug(rowCtx, "relay.published")
		}
		return nil
	})
	return handled, err
}

func message(row models.Notification) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"notification_id": row.ID.String(),
			"kind":            string(row.Kind),
			"recipient":       row.Recipient,
			"created_at":      row.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func await(ctx context.Context, ack ackWaiter) error {
	if ack == nil {
		return errors.New("publisher returned no result")
	}
	_, err := ack.Get(ctx)
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// topicPublisher adapts *pubsub.Publisher, whose Publish returns a concrete
// *PublishResult.
type topicPublisher struct {
	p *gcppubsub.Publisher
}

func (t topicPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) ackWaiter {
	return t.p.Publish(ctx, msg)
}
