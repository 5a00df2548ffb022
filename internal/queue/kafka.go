package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaQueue struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaQueue(brokers []string, topic string, logger *zap.Logger) *KafkaQueue {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // one partition per withdrawal id
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &KafkaQueue{writer: writer, logger: logger}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, withdrawalID int64) error {
	payload, job, err := newExamineJob(withdrawalID)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(withdrawalID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "job_id", Value: []byte(job.JobID)},
		},
	}
	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}

	q.logger.Debug("examine job enqueued",
		zap.String("job_id", job.JobID),
		zap.Int64("withdrawal_id", withdrawalID),
	)
	return nil
}

func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}
