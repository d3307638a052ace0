package staging

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"matchmaker/internal/domain"
)

// Bus difunde cambios de estado entre instancias del servicio.
type Bus interface {
	Publish(ctx context.Context, state domain.SessionState) error
	StartForwarder(ctx context.Context, onMsg func(domain.SessionState)) error
}

type redisPubSub interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type redisBus struct {
	rdb     redisPubSub
	channel string
	logger  *zap.Logger
}

func NewRedisBus(rdb redisPubSub, channel string, logger *zap.Logger) Bus {
	if channel == "" {
		channel = "matchmaker:sessions"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisBus{rdb: rdb, channel: channel, logger: logger}
}

func (b *redisBus) Publish(ctx context.Context, state domain.SessionState) error {
	if b == nil || b.rdb == nil {
		return errors.New("redis bus not initialized")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder se suscribe al canal y llama onMsg por cada estado recibido hasta que ctx termine.
func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(domain.SessionState)) error {
	if b == nil || b.rdb == nil {
		return errors.New("redis bus not initialized")
	}
	if onMsg == nil {
		return errors.New("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var state domain.SessionState
				if err := json.Unmarshal([]byte(m.Payload), &state); err != nil {
					b.logger.Warn("bad session broadcast payload", zap.Error(err))
					continue
				}
				onMsg(state)
			}
		}
	}()
	return nil
}
