package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultStreamMaxLen caps a stream so unconsumed entries cannot grow forever
const DefaultStreamMaxLen = 10000

// StreamPublisher appends entries to a single Redis stream
type StreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewStreamPublisher creates a StreamPublisher; maxLen <= 0 uses DefaultStreamMaxLen
func NewStreamPublisher(client redis.Cmdable, stream string, maxLen int64) *StreamPublisher {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Stream returns the stream key
func (p *StreamPublisher) Stream() string {
	return p.stream
}

// Publish appends values and returns the entry id
func (p *StreamPublisher) Publish(ctx context.Context, values map[string]interface{}) (string, error) {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return id, nil
}
