package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue is the subset of the Redis client used to buffer CDP calls.
type Queue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// QueueClient enqueues calls on a Redis list for the delivery worker.
// The request path never waits on the CDP itself.
type QueueClient struct {
	queue Queue
	key   string
	now   func() time.Time
}

// NewQueueClient builds a queued client writing to key.
func NewQueueClient(queue Queue, key string) *QueueClient {
	return &QueueClient{queue: queue, key: key, now: time.Now}
}

// SetConsent implements Client.
func (q *QueueClient) SetConsent(ctx context.Context, visitorID string, flag int) error {
	return q.push(ctx, Call{Kind: CallSetConsent, VisitorID: visitorID, Consent: flag, At: q.now()})
}

// SetPersona implements Client.
func (q *QueueClient) SetPersona(ctx context.Context, visitorID, source string, persona *string) error {
	return q.push(ctx, Call{Kind: CallSetPersona, VisitorID: visitorID, Source: source, Persona: persona, At: q.now()})
}

func (q *QueueClient) push(ctx context.Context, call Call) error {
	payload, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("cdp: encode call: %w", err)
	}
	if err := q.queue.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("cdp: enqueue %s: %w", call.Kind, err)
	}
	return nil
}

// Pop blocks up to wait for the next queued call. It returns redis.Nil when
// the wait elapses with nothing queued.
func Pop(ctx context.Context, queue Queue, key string, wait time.Duration) (Call, error) {
	result, err := queue.BRPop(ctx, wait, key).Result()
	if err != nil {
		return Call{}, err
	}
	if len(result) != 2 {
		return Call{}, fmt.Errorf("cdp: unexpected BRPOP reply of %d items", len(result))
	}
	var call Call
	if err := json.Unmarshal([]byte(result[1]), &call); err != nil {
		return Call{}, fmt.Errorf("cdp: decode call: %w", err)
	}
	return call, nil
}
