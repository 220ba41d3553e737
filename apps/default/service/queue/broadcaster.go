package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/config"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/go-redis/redis/v8"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

const redisPingTimeout = 5 * time.Second

// Broadcaster pushes holder changes to whoever serves live mailbox updates.
type Broadcaster interface {
	Broadcast(ctx context.Context, event *types.FileHolderChanged) error
	Close() error
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisBroadcaster publishes each change on the new holder's channel.
type RedisBroadcaster struct {
	client redisPublisher
	prefix string
}

func NewRedisBroadcaster(ctx context.Context, cfg *config.MovementConfig) (*RedisBroadcaster, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connect to redis at %s", cfg.RedisAddress)
	}

	return newRedisBroadcaster(client, cfg.RedisChannelPrefix), nil
}

func newRedisBroadcaster(client redisPublisher, prefix string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, prefix: prefix}
}

// Channel names the channel a holder's gateway subscribes to.
func (rb *RedisBroadcaster) Channel(holderID string) string {
	return rb.prefix + holderID
}

func (rb *RedisBroadcaster) Broadcast(ctx context.Context, event *types.FileHolderChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return rb.client.Publish(ctx, rb.Channel(event.NewHolderID), payload).Err()
}

func (rb *RedisBroadcaster) Close() error {
	return rb.client.Close()
}

type logBroadcaster struct{}

// NewLogBroadcaster only logs changes, for deployments without redis.
func NewLogBroadcaster() Broadcaster {
	return logBroadcaster{}
}

func (logBroadcaster) Broadcast(ctx context.Context, event *types.FileHolderChanged) error {
	util.Log(ctx).
		WithField("file_id", event.FileID).
		WithField("holder_id", event.NewHolderID).
		Debug("holder change not broadcast, redis is not configured")
	return nil
}

func (logBroadcaster) Close() error {
	return nil
}
