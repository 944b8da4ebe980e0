package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

// appendScript appends an event to the list and trims the list to
// the most recent entries
const appendScript = `
redis.call('RPUSH', KEYS[1], ARGV[1])
redis.call('LTRIM', KEYS[1], -tonumber(ARGV[2]), -1)
return 'OK'
`

const defaultCapacity = 1000

// Client is the subset of the redis client used by RedisRecorder
type Client interface {
	Eval(script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisProps are the properties used to create a RedisRecorder
type RedisProps struct {
	// Key of the list the events are appended to
	Key string

	// Capacity is the maximum number of events kept in the list
	Capacity int64
}

// RedisRecorder appends events to a capped redis list
type RedisRecorder struct {
	client   Client
	key      string
	capacity int64
}

// NewRedisRecorder creates a RedisRecorder on top of an existing client
func NewRedisRecorder(client Client, props RedisProps) *RedisRecorder {
	if client == nil {
		panic("client must be set")
	}

	if len(props.Key) == 0 {
		panic("key must be set")
	}

	capacity := props.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &RedisRecorder{client: client, key: props.Key, capacity: capacity}
}

// NewSingleRedisRecorder creates a RedisRecorder connected to a single
// redis instance
func NewSingleRedisRecorder(addr string, props RedisProps) *RedisRecorder {
	return NewRedisRecorder(redis.NewClient(&redis.Options{Addr: addr}), props)
}

// NewClusterRedisRecorder creates a RedisRecorder connected to a redis
// cluster
func NewClusterRedisRecorder(addrs []string, props RedisProps) *RedisRecorder {
	return NewRedisRecorder(redis.NewClusterClient(&redis.ClusterOptions{Addrs: addrs}), props)
}

// Record is the implementation of Recorder for RedisRecorder
func (r *RedisRecorder) Record(ctx context.Context, event Event) error {
	serialized, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to serialize event")
	}

	v, err := r.client.Eval(appendScript, []string{r.key}, string(serialized), r.capacity).Result()
	if err != nil {
		return errors.Wrap(err, "failed to append event")
	}

	if s, ok := v.(string); !ok || s != "OK" {
		return fmt.Errorf("unexpected redis response %v", v)
	}

	return nil
}
