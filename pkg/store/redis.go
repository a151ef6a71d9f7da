package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/lightdesk/pkg/buildinfo"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	// Key holds the config document.
	Key string `toml:"key"`
	// Channel, if set, carries change notifications between daemons
	// sharing the key.
	Channel string `toml:"channel"`
}

func (o *RedisOptions) setDefaults() {
	if o.Addr == "" {
		o.Addr = "localhost:6379"
	}
	if o.Key == "" {
		o.Key = "lightdesk:config"
	}
}

// Redis stores the config under a key and announces saves on a channel.
type Redis struct {
	client  *redis.Client
	key     string
	channel string
	origin  string
	logger  *log.Logger
}

type redisNotice struct {
	Origin string          `json:"origin"`
	Config json.RawMessage `json:"config"`
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions, logger *log.Logger) (*Redis, error) {
	opts.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password:   opts.Password,
		DB:         opts.DB,
		ClientName: redisClientName(),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return &Redis{
		client:  client,
		key:     opts.Key,
		channel: opts.Channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}, nil
}

// redisClientName names the connection in CLIENT LIST.
func redisClientName() string {
	return strings.ReplaceAll(buildinfo.UserAgent(), " ", "_")
}

func (r *Redis) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, Retryable(fmt.Errorf("redis get: %w", err))
	}
	return data, nil
}

func (r *Redis) Save(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return Retryable(fmt.Errorf("redis set: %w", err))
	}
	if r.channel == "" {
		return nil
	}
	notice, err := json.Marshal(redisNotice{Origin: r.origin, Config: data})
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, notice).Err(); err != nil {
		r.logger.Warn("publish config change", "channel", r.channel, "err", err)
	}
	return nil
}

// Watch reports configs saved by other daemons on the channel.
func (r *Redis) Watch(ctx context.Context, fn func([]byte)) error {
	if r.channel == "" {
		return ErrWatchUnsupported
	}
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n redisNotice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				r.logger.Warn("malformed config notice", "channel", r.channel, "err", err)
				continue
			}
			if n.Origin == r.origin {
				continue
			}
			fn(n.Config)
		}
	}
}

func (r *Redis) Close() error { return r.client.Close() }

var (
	_ Store   = (*Redis)(nil)
	_ Watcher = (*Redis)(nil)
)
