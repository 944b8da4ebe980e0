package eventlog

import (
	"github.com/garagehub/dispatch/log"
)

type Services struct {
	Logger log.Logger
}

// NewRecorder creates the recorder for the configured backend. The
// returned recorder is wrapped with Safe
func NewRecorder(services Services, config *Config) Recorder {
	props := RedisProps{Key: config.Key, Capacity: config.Capacity}

	var recorder Recorder
	switch config.Backend {
	case BackendRedisSingle:
		recorder = NewSingleRedisRecorder(config.RedisSingleConfig.Addr, props)
	case BackendRedisCluster:
		recorder = NewClusterRedisRecorder(config.RedisClusterConfig.Addrs, props)
	default:
		recorder = NewLogRecorder(services.Logger)
	}

	return Safe(recorder, services.Logger)
}
