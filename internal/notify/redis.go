package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tocafy/tocafy-server/internal/model"
)

const channelPrefix = "tocafy:show:"

// ShowChannel returns the Redis pub/sub channel carrying a show's events.
func ShowChannel(showID string) string {
	return channelPrefix + showID
}

// RedisPublisher publishes each event as JSON on the show's channel so other
// processes can follow a show without polling the database.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps client.  It returns nil for a nil client so the
// result can be handed straight to NewFanout.
func NewRedisPublisher(client *redis.Client) Publisher {
	if client == nil {
		return nil
	}
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev model.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, ShowChannel(ev.ShowID), data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
