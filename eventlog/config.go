package eventlog

import (
	"strings"

	"github.com/garagehub/dispatch/config"
	"github.com/garagehub/dispatch/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Backend string

const (
	BackendLog          Backend = "log"
	BackendRedisSingle  Backend = "redis-single"
	BackendRedisCluster Backend = "redis-cluster"
)

func (b Backend) String() string {
	return string(b)
}

// Config for the event log
type Config struct {
	Backend  Backend
	Key      string
	Capacity int64

	RedisSingleConfig  RedisSingleConfig
	RedisClusterConfig RedisClusterConfig
}

func (c *Config) Log(fields log.Fields) {
	fields.Add("eventlog.backend", c.Backend)

	switch c.Backend {
	case BackendRedisSingle:
		fields.Add("eventlog.key", c.Key)
		fields.Add("eventlog.capacity", c.Capacity)
		c.RedisSingleConfig.Log(fields)
	case BackendRedisCluster:
		fields.Add("eventlog.key", c.Key)
		fields.Add("eventlog.capacity", c.Capacity)
		c.RedisClusterConfig.Log(fields)
	}
}

func (c *Config) Configure(v *viper.Viper) error {
	c.Backend = Backend(v.GetString("eventlog.backend"))
	if len(c.Backend) == 0 {
		return config.ErrKeyNotSet{Key: "eventlog.backend"}
	}

	c.Key = v.GetString("eventlog.key")
	c.Capacity = v.GetInt64("eventlog.capacity")

	switch c.Backend {
	case BackendLog:
		return nil
	case BackendRedisSingle:
		return c.RedisSingleConfig.Configure(v)
	case BackendRedisCluster:
		return c.RedisClusterConfig.Configure(v)
	default:
		return config.ErrInvalidValue{
			Key:          "eventlog.backend",
			InvalidValue: c.Backend.String(),
			Values: []string{
				BackendLog.String(),
				BackendRedisSingle.String(),
				BackendRedisCluster.String(),
			},
		}
	}
}

func (c *Config) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("eventlog.backend", BackendLog.String(),
		"backend for the event log. "+
			"Options are "+BackendLog.String()+
			", "+BackendRedisSingle.String()+
			", "+BackendRedisCluster.String()+".")
	cmd.PersistentFlags().String("eventlog.key", "dispatch:events",
		"redis key of the list that holds the events")
	cmd.PersistentFlags().Int64("eventlog.capacity", defaultCapacity,
		"maximum number of events kept in redis")

	if err := c.RedisSingleConfig.Bind(v, cmd); err != nil {
		return err
	}

	return c.RedisClusterConfig.Bind(v, cmd)
}

type RedisSingleConfig struct {
	Addr string
}

func (c *RedisSingleConfig) Log(fields log.Fields) {
	fields.Add("eventlog.redis_single.addr", c.Addr)
}

func (c *RedisSingleConfig) Configure(v *viper.Viper) error {
	c.Addr = v.GetString("eventlog.redis_single.addr")
	if len(c.Addr) == 0 {
		return config.ErrKeyNotSet{Key: "eventlog.redis_single.addr"}
	}

	return nil
}

func (c *RedisSingleConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("eventlog.redis_single.addr", "127.0.0.1:6379", "redis instance address")
	return nil
}

type RedisClusterConfig struct {
	Addrs []string
}

func (c *RedisClusterConfig) Log(fields log.Fields) {
	fields.Add("eventlog.redis_cluster.addrs", strings.Join(c.Addrs, ","))
}

func (c *RedisClusterConfig) Configure(v *viper.Viper) error {
	c.Addrs = v.GetStringSlice("eventlog.redis_cluster.addrs")
	if len(c.Addrs) == 0 {
		return config.ErrKeyNotSet{Key: "eventlog.redis_cluster.addrs"}
	}

	return nil
}

func (c *RedisClusterConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().StringSlice(
		"eventlog.redis_cluster.addrs",
		[]string{"127.0.0.1:6379"},
		"addresses of the bootstrap redis instances in the cluster")
	return nil
}
