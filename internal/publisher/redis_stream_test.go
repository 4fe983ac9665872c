package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(t *testing.T) (*RedisStreamPublisher, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStreamPublisher(client), client
}

func TestPublishMatchUpdate_AppendsToStream(t *testing.T) {
	ctx := context.Background()
	p, client := newTestPublisher(t)

	require.NoError(t, p.PublishMatchUpdate(ctx, "m1", map[string]int{"score": 42}))

	entries, err := client.XRange(ctx, LiveStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].Values["match_id"])
	assert.JSONEq(t, `{"score":42}`, entries[0].Values["data"].(string))
}

func TestPublishDeliveryAndResult_UseSeparateStreams(t *testing.T) {
	ctx := context.Background()
	p, client := newTestPublisher(t)

	require.NoError(t, p.PublishDelivery(ctx, "m1", map[string]string{"ballId": "b1"}))
	require.NoError(t, p.PublishMatchResult(ctx, "m1", map[string]string{"summary": "Match tied"}))

	n, err := client.XLen(ctx, DeliveryStream).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = client.XLen(ctx, ResultStream).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSubscribe_ReceivesMatchEvents(t *testing.T) {
	p, _ := newTestPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 4)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- p.Subscribe(ctx, "m1", func() { close(ready) }, func(e Event) { events <- e })
	}()

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("subscription never confirmed")
	}
	n, err := p.client.PubSubNumSub(ctx, Channel("m1")).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n[Channel("m1")])

	require.NoError(t, p.PublishMatchUpdate(ctx, "m2", map[string]int{"score": 1}))
	require.NoError(t, p.PublishMatchUpdate(ctx, "m1", map[string]int{"score": 7}))

	select {
	case e := <-events:
		assert.Equal(t, EventMatchUpdate, e.Type)
		assert.Equal(t, "m1", e.MatchID)
		var body map[string]int
		require.NoError(t, json.Unmarshal(e.Data, &body))
		assert.Equal(t, 7, body["score"])
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	cancel()
	assert.NoError(t, <-done)
}
