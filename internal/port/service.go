package port

import (
	"context"
	"payout/internal/domain"
	"time"
)

type WithdrawalService interface {
	CreateWithdrawal(ctx context.Context, req *domain.WithdrawalReq) (*domain.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error)
	Transition(ctx context.Context, id int64, req *domain.TransitionReq) (*domain.Withdrawal, error)
	Examine(ctx context.Context, id int64) error
	PositionInQueue(ctx context.Context, id int64) (int64, error)
	InvalidateCompletionCache(ctx context.Context, channel domain.ChannelType) error
}

// ExamineQueue hands withdrawals waiting for review to the external worker.
// Duplicate enqueues are harmless.
type ExamineQueue interface {
	Enqueue(ctx context.Context, withdrawalID int64) error
}

type Cache interface {
	// Get decodes the cached value into target or returns cache.ErrMiss.
	Get(ctx context.Context, key string, target interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
