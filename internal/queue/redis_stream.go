package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisStreamQueue struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewRedisStreamQueue(client *redis.Client, stream string, logger *zap.Logger) *RedisStreamQueue {
	return &RedisStreamQueue{client: client, stream: stream, logger: logger}
}

// Enqueue appends an examine job to the stream with XADD.
func (q *RedisStreamQueue) Enqueue(ctx context.Context, withdrawalID int64) error {
	payload, job, err := newExamineJob(withdrawalID)
	if err != nil {
		return err
	}

	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			"job_id":  job.JobID,
			"payload": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd %s: %w", q.stream, err)
	}

	q.logger.Debug("examine job enqueued",
		zap.String("job_id", job.JobID),
		zap.Int64("withdrawal_id", withdrawalID),
		zap.String("stream", q.stream),
	)
	return nil
}
