package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"payout/internal/domain"

	"go.uber.org/zap"
)

// Transition moves a withdrawal to *req.To on behalf of req.Actor.
//
// The row is locked and the state compared-and-swapped, so two transitions
// of one withdrawal never both apply. Completed states settle the locked
// funds in the same transaction. After commit, entering a completed state
// drops the channel's completion cache entry and entering wait enqueues the
// withdrawal for examination; failures there are returned as
// *domain.TransientError together with the committed withdrawal.
func (s *withdrawalService) Transition(ctx context.Context, id int64, req *domain.TransitionReq) (*domain.Withdrawal, error) {
	verr := &domain.ValidationError{}
	if err := s.validate.StructCtx(ctx, req); err != nil {
		if err := collectValidation(err, verr); err != nil {
			return nil, err
		}
		return nil, verr
	}

	to := *req.To
	txID := normalizeTxID(req.TxID)

	var w *domain.Withdrawal
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		cur, err := s.withdrawalRepo.GetForUpdate(txCtx, id)
		if errors.Is(err, domain.ErrWithdrawalNotFound) {
			return &domain.NotFoundError{Resource: "withdrawal", ID: id, Err: err}
		}
		if err != nil {
			return err
		}

		if err := domain.CheckTransition(cur, to, req.Actor); err != nil {
			return &domain.ConflictError{WithdrawalID: id, Err: err}
		}
		if txID != nil && cur.TxID != nil && *cur.TxID != *txID {
			return &domain.ConflictError{WithdrawalID: id, Err: domain.ErrTxIDAlreadySet}
		}
		if to.RequiresTxID() && txID == nil && cur.TxID == nil {
			return &domain.ValidationError{Fields: []domain.FieldError{
				{Field: "tx_id", Rule: "required", Err: domain.ErrInvalidField},
			}}
		}

		from := cur.State
		at := s.now()
		err = s.withdrawalRepo.UpdateState(txCtx, id, from, to, txID, at)
		if errors.Is(err, domain.ErrDuplicateTxID) || errors.Is(err, domain.ErrStateChanged) {
			return &domain.ConflictError{WithdrawalID: id, Err: err}
		}
		if err != nil {
			return err
		}

		cur.State = to
		cur.UpdatedAt = at
		if txID != nil {
			cur.TxID = txID
		}

		if err := s.settle(txCtx, cur); err != nil {
			return err
		}
		w = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal state changed",
		zap.Int64("id", w.ID),
		zap.Stringer("state", w.State),
		zap.String("actor", string(req.Actor)),
	)

	if w.State.IsCompleted() {
		if err := s.InvalidateCompletionCache(ctx, w.AddressType); err != nil {
			return w, err
		}
	}
	if w.State == domain.StateWait {
		if err := s.enqueue(ctx, w.ID); err != nil {
			return w, err
		}
	}
	return w, nil
}

// settle applies the balance movement of entering a completed state.
func (s *withdrawalService) settle(ctx context.Context, w *domain.Withdrawal) error {
	sum := w.Sum()

	var entry *domain.LedgerEntry
	switch w.State {
	case domain.StateDone:
		entry = &domain.LedgerEntry{Reason: domain.ReasonWithdrawDone, LockedDelta: sum.Neg()}
	case domain.StateReject, domain.StateCancel:
		entry = &domain.LedgerEntry{Reason: domain.ReasonWithdrawUnlock, BalanceDelta: sum, LockedDelta: sum.Neg()}
	default:
		return nil
	}
	entry.AccountID = w.AccountID
	entry.WithdrawalID = w.ID
	entry.CreatedAt = w.UpdatedAt

	return s.accountRepo.WithLock(ctx, w.AccountID, func(txCtx context.Context) error {
		var err error
		if w.State == domain.StateDone {
			err = s.accountRepo.Settle(txCtx, w.AccountID, sum)
		} else {
			err = s.accountRepo.Release(txCtx, w.AccountID, sum)
		}
		if err != nil {
			return fmt.Errorf("settle withdrawal %d: %w", w.ID, err)
		}
		return s.accountRepo.AddLedgerEntry(txCtx, entry)
	})
}

// Examine asks the review worker to look at a waiting withdrawal again.
// Outside wait it does nothing.
func (s *withdrawalService) Examine(ctx context.Context, id int64) error {
	w, err := s.GetWithdrawal(ctx, id)
	if err != nil {
		return err
	}
	if w.State != domain.StateWait {
		s.logger.Debug("examine skipped", zap.Int64("id", id), zap.Stringer("state", w.State))
		return nil
	}
	return s.enqueue(ctx, id)
}

func (s *withdrawalService) enqueue(ctx context.Context, id int64) error {
	if err := s.queue.Enqueue(ctx, id); err != nil {
		return &domain.TransientError{Op: "enqueue examine", Err: err}
	}
	return nil
}

func normalizeTxID(txID *string) *string {
	if txID == nil {
		return nil
	}
	v := strings.TrimSpace(*txID)
	if v == "" {
		return nil
	}
	return &v
}
