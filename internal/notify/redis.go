package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisChannel = "hookd:notifications"

// RedisBroker bridges notifications over Redis Pub/Sub so observer processes
// outside this one can consume the feed. Same Broker contract as Hub.
type RedisBroker struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs map[chan Notification]*redis.PubSub
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil { return nil, err }
	return &RedisBroker{rdb: redis.NewClient(opt), subs: map[chan Notification]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Subscribe(kinds ...Kind) chan Notification {
	ch := make(chan Notification, 16)
	var filter map[Kind]struct{}
	if len(kinds) > 0 {
		filter = map[Kind]struct{}{}
		for _, k := range kinds {
			filter[k] = struct{}{}
		}
	}
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, redisChannel)
	// initial consume to ensure subscription
	_, _ = ps.Receive(ctx)
	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var n Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil { continue }
			if filter != nil {
				if _, ok := filter[n.Kind]; !ok { continue }
			}
			select { case ch <- n: default: }
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(ch chan Notification) {
	b.mu.Lock()
	ps := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	// closing the PubSub ends the reader goroutine, which closes ch
	if ps != nil { _ = ps.Close() }
}

func (b *RedisBroker) Publish(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(n)
	if err != nil { return }
	_ = b.rdb.Publish(ctx, redisChannel, data).Err()
}

// Ping reports whether the Redis backend is reachable.
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
