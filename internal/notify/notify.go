package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/yourname/aquaguide/internal"
)

const (
	EventBatchStarted   = "batch.started"
	EventBatchCompleted = "batch.completed"
	EventBatchCleared   = "batch.cleared"
)

type Event struct {
	Type    string    `json:"type"`
	UserID  string    `json:"user_id"`
	Species string    `json:"species,omitempty"`
	Date    string    `json:"date,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier delivers lifecycle events to whoever sends user-facing notifications.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, Event) error { return nil }
func (NopNotifier) Close() error                         { return nil }

// RedisNotifier publishes events as JSON on a pub/sub channel.
type RedisNotifier struct {
	rdb     *goredis.Client
	channel string
	logger  internal.Logger
}

func NewRedisNotifier(ctx context.Context, addr, channel string, logger internal.Logger) (*RedisNotifier, error) {
	if addr == "" {
		return nil, fmt.Errorf("notify: missing redis address")
	}
	if channel == "" {
		channel = "aquaguide.events"
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("notify: redis ping: %w", err)
	}
	return NewRedisNotifierWithClient(rdb, channel, logger), nil
}

func NewRedisNotifierWithClient(rdb *goredis.Client, channel string, logger internal.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel, logger: logger}
}

func (n *RedisNotifier) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.logger.Warnf("notify: publish %s for user %s failed: %v", ev.Type, ev.UserID, err)
		return err
	}
	return nil
}

func (n *RedisNotifier) Close() error {
	return n.rdb.Close()
}

var (
	_ Notifier = NopNotifier{}
	_ Notifier = (*RedisNotifier)(nil)
)
