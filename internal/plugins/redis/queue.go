package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisMessageQueue backs the per-conversation ingest pipeline with one
// Redis Stream per conversation and a consumer group per deployment.
type RedisMessageQueue struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisMessageQueue(log *slog.Logger, rdb *redis.Client) *RedisMessageQueue {
	return &RedisMessageQueue{rdb: rdb, log: log}
}

func (q *RedisMessageQueue) streamKey(convID string) string {
	return "stream:" + convID
}

func (q *RedisMessageQueue) PublishToStream(ctx context.Context, convID string, payload []byte) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey(convID),
		MaxLen: 1000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": payload},
	}).Err()
}

// SubscribeToStream blocks until ctx is cancelled, invoking handler for
// every new entry in arrival order.
func (q *RedisMessageQueue) SubscribeToStream(
	ctx context.Context,
	convID string,
	conGroup string,
	handler func(ctx context.Context, messageID string, data []byte) error,
) error {
	topic := q.streamKey(convID)
	err := q.rdb.XGroupCreateMkStream(ctx, topic, conGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	consumerName := uuid.NewString()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			res, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    conGroup,
				Consumer: consumerName,
				Streams:  []string{topic, ">"},
				Count:    1,
				Block:    2 * time.Second,
			}).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					q.log.Error("queue - subscribe - stream read error", "topic", topic, "err", err)
				}
				continue
			}
			for _, stream := range res {
				for _, msg := range stream.Messages {
					raw, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}
					if err := handler(ctx, msg.ID, []byte(raw)); err != nil {
						q.log.Error("queue - subscribe - handler error", "topic", topic, "message_id", msg.ID, "err", err)
					}
				}
			}
		}
	}
}

func (q *RedisMessageQueue) AcknowledgeMessage(ctx context.Context, convID, conGroup, mesgID string) error {
	return q.rdb.XAck(ctx, q.streamKey(convID), conGroup, mesgID).Err()
}

func (q *RedisMessageQueue) DeleteMessage(ctx context.Context, convID, mesgID string) error {
	return q.rdb.XDel(ctx, q.streamKey(convID), mesgID).Err()
}

func (q *RedisMessageQueue) DeleteStream(ctx context.Context, convID string) error {
	return q.rdb.Del(ctx, q.streamKey(convID)).Err()
}
