package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/aquaguide/internal"
)

func TestNewRedisNotifier_RequiresAddress(t *testing.T) {
	_, err := NewRedisNotifier(context.Background(), "", "", internal.NopLogger())
	assert.Error(t, err)
}

func TestNewRedisNotifier_UnreachableFailsPing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisNotifier(ctx, "127.0.0.1:1", "events", internal.NopLogger())
	assert.Error(t, err)
}

func TestRedisNotifier_PublishErrorIsReturned(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	n := NewRedisNotifierWithClient(rdb, "events", internal.NopLogger())
	defer n.Close()
	err := n.Publish(context.Background(), Event{Type: EventBatchStarted, UserID: "u1"})
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), Event{Type: EventBatchCompleted, UserID: "u1", Species: "Koi"}))
	assert.Len(t, r.Events(), 1)

	r.Err = errors.New("down")
	assert.Error(t, r.Publish(context.Background(), Event{Type: EventBatchCleared}))
	assert.Len(t, r.Events(), 1)
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}
	assert.NoError(t, n.Publish(context.Background(), Event{}))
	assert.NoError(t, n.Close())
}
