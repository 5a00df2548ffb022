package service

import (
	"context"
	"errors"
	"fmt"

	"payout/internal/cache"
	"payout/internal/domain"

	"go.uber.org/zap"
)

func completionCacheKey(channel domain.ChannelType) string {
	return "last_completed_withdraw_id_for_" + string(channel)
}

// PositionInQueue counts the withdrawals of the same channel with an id in
// (last completed id, id], this one included. Completed withdrawals are not
// queued and report 0.
func (s *withdrawalService) PositionInQueue(ctx context.Context, id int64) (int64, error) {
	w, err := s.GetWithdrawal(ctx, id)
	if err != nil {
		return 0, err
	}
	if w.State.IsCompleted() {
		return 0, nil
	}

	lastDone, err := s.lastCompletedID(ctx, w.AddressType)
	if err != nil {
		return 0, err
	}
	if lastDone >= w.ID {
		return 0, nil
	}
	return s.withdrawalRepo.CountInWindow(ctx, w.AddressType, lastDone, w.ID)
}

// lastCompletedID reads the cached max completed id, recomputing it from the
// store on a miss. The store stays authoritative: a failing cache only costs
// the recomputation.
func (s *withdrawalService) lastCompletedID(ctx context.Context, channel domain.ChannelType) (int64, error) {
	key := completionCacheKey(channel)

	var id int64
	err := s.cache.Get(ctx, key, &id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("completion cache read failed", zap.String("key", key), zap.Error(err))
	}

	id, err = s.withdrawalRepo.MaxCompletedID(ctx, channel)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, key, id, s.cacheTTL); err != nil {
		s.logger.Warn("completion cache write failed", zap.String("key", key), zap.Error(err))
	}
	return id, nil
}

// InvalidateCompletionCache deletes the channel's entry; the next reader
// repopulates it. Safe to repeat.
func (s *withdrawalService) InvalidateCompletionCache(ctx context.Context, channel domain.ChannelType) error {
	if err := s.cache.Delete(ctx, completionCacheKey(channel)); err != nil {
		return &domain.TransientError{
			Op:  "invalidate completion cache",
			Err: fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err),
		}
	}
	return nil
}
