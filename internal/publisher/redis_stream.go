package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream names consumed by downstream scoreboards.
const (
	LiveStream     = "matches.live.cricket"
	DeliveryStream = "matches.deliveries.cricket"
	ResultStream   = "matches.results.cricket"
)

// Event types carried on the per-match channel.
const (
	EventMatchUpdate = "match_update"
	EventDelivery    = "delivery"
	EventResult      = "result"
)

// Event is the envelope sent to per-match subscribers.
type Event struct {
	Type    string          `json:"type"`
	MatchID string          `json:"matchId"`
	Data    json.RawMessage `json:"data"`
}

// Channel returns the pub/sub channel for a match.
func Channel(matchID string) string {
	return fmt.Sprintf("match:%s", matchID)
}

// RedisStreamPublisher publishes match events to Redis streams and to the
// per-match pub/sub channel.
type RedisStreamPublisher struct {
	client *redis.Client
	owned  bool
}

// NewRedisStreamPublisher creates a publisher from an existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// NewRedisPublisher creates a publisher with its own connection
func NewRedisPublisher(redisURL string) (*RedisStreamPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStreamPublisher{
		client: client,
		owned:  true,
	}, nil
}

// Close closes the Redis connection if the publisher opened it
func (p *RedisStreamPublisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.client.Close()
}

// PublishMatchUpdate appends the full match document to the live stream and
// notifies the match channel.
func (p *RedisStreamPublisher) PublishMatchUpdate(ctx context.Context, matchID string, match interface{}) error {
	return p.publish(ctx, LiveStream, EventMatchUpdate, matchID, match)
}

// PublishDelivery appends one delivery record to the delivery stream.
func (p *RedisStreamPublisher) PublishDelivery(ctx context.Context, matchID string, delivery interface{}) error {
	return p.publish(ctx, DeliveryStream, EventDelivery, matchID, delivery)
}

// PublishMatchResult appends the final result and awards to the results stream.
func (p *RedisStreamPublisher) PublishMatchResult(ctx context.Context, matchID string, result interface{}) error {
	return p.publish(ctx, ResultStream, EventResult, matchID, result)
}

func (p *RedisStreamPublisher) publish(ctx context.Context, stream, eventType, matchID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", eventType, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"match_id":  matchID,
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("adding to %s: %w", stream, err)
	}

	event, err := json.Marshal(Event{Type: eventType, MatchID: matchID, Data: data})
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, Channel(matchID), event).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", Channel(matchID), err)
	}
	return nil
}

// Subscribe calls onChange with every event published for the match until
// ctx is cancelled. onReady, if set, runs once Redis has confirmed the
// subscription.
func (p *RedisStreamPublisher) Subscribe(ctx context.Context, matchID string, onReady func(), onChange func(Event)) error {
	sub := p.client.Subscribe(ctx, Channel(matchID))
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", Channel(matchID), err)
	}
	if onReady != nil {
		onReady()
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			onChange(event)
		}
	}
}
