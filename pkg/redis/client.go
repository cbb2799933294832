package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "galata"

var errNotConnected = errors.New("redis: client not connected")

// delIfValue removes KEYS[1] only while it still holds ARGV[1].
var delIfValue = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// commands is the part of redis.UniversalClient the backend needs.
type commands interface {
	redis.Scripter
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireNX(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
}

// Client holds the submission rate-limit counters and the sync worker locks.
type Client struct {
	cmd   commands
	close func() error
}

// New connects using GALATA_REDIS_URL, which may list several comma
// separated URLs or host:port pairs for a cluster, or GALATA_REDIS_ADDR.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := universalOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout+time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_addrs", opts.Addrs), "redis.connected")
	}
	return &Client{cmd: rdb, close: rdb.Close}, nil
}

func universalOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	source := cfg.URL
	if source == "" {
		source = cfg.Address
	}
	opts := &redis.UniversalOptions{
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	for _, part := range strings.Split(source, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}
		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if parsed.Password != "" {
			opts.Password = parsed.Password
		}
		if parsed.DB != 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
	}
	if len(opts.Addrs) == 0 {
		return nil, errors.New("redis url or address is required")
	}
	// Cluster mode has a single database.
	if len(opts.Addrs) > 1 {
		opts.DB = 0
	}
	return opts, nil
}

// Key joins parts under the galata namespace, e.g. Key("lock", "drive-sync").
func Key(parts ...string) string {
	key := keyNamespace
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			key += ":" + p
		}
	}
	return key
}

// LockKey names the lock of a scheduled job.
func (c *Client) LockKey(job string) string {
	return Key("lock", job)
}

// IncrWithTTL bumps a fixed-window counter and returns the new count. The
// window starts at the first increment; a counter left without a TTL by an
// earlier failure gets one on the next call.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c == nil || c.cmd == nil {
		return 0, errNotConnected
	}
	key = Key("rate_limit", key)
	n, err := c.cmd.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if ttl > 0 {
		if err := c.cmd.ExpireNX(ctx, key, ttl).Err(); err != nil {
			return n, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return n, nil
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c == nil || c.cmd == nil {
		return false, errNotConnected
	}
	return c.cmd.SetNX(ctx, key, value, ttl).Result()
}

// Get returns redis.Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c == nil || c.cmd == nil {
		return "", errNotConnected
	}
	return c.cmd.Get(ctx, key).Result()
}

// DelIfValue deletes key when its value still equals value and reports
// whether it did. The compare and the delete run as one script.
func (c *Client) DelIfValue(ctx context.Context, key, value string) (bool, error) {
	if c == nil || c.cmd == nil {
		return false, errNotConnected
	}
	n, err := delIfValue.Run(ctx, c.cmd, []string{key}, value).Int64()
	if err != nil {
		return false, fmt.Errorf("del %s if value matches: %w", key, err)
	}
	return n == 1, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.cmd == nil {
		return errNotConnected
	}
	return c.cmd.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.close == nil {
		return nil
	}
	return c.close()
}
