package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"payout/internal/domain"
	"payout/internal/fee"
	"payout/internal/port"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Deps struct {
	Withdrawals  port.WithdrawalRepository
	Accounts     port.AccountRepository
	Destinations port.DestinationRepository
	Members      port.MemberRepository
	Tx           port.Transactor
	Fees         *fee.Registry
	Queue        port.ExamineQueue
	Cache        port.Cache
	CacheTTL     time.Duration
	Logger       *zap.Logger
}

type withdrawalService struct {
	withdrawalRepo  port.WithdrawalRepository
	accountRepo     port.AccountRepository
	destinationRepo port.DestinationRepository
	memberRepo      port.MemberRepository
	tx              port.Transactor
	fees            *fee.Registry
	queue           port.ExamineQueue
	cache           port.Cache
	cacheTTL        time.Duration
	validate        *validator.Validate
	logger          *zap.Logger
	now             func() time.Time
}

func NewWithdrawalService(d Deps) port.WithdrawalService {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &withdrawalService{
		withdrawalRepo:  d.Withdrawals,
		accountRepo:     d.Accounts,
		destinationRepo: d.Destinations,
		memberRepo:      d.Members,
		tx:              d.Tx,
		fees:            d.Fees,
		queue:           d.Queue,
		cache:           d.Cache,
		cacheTTL:        d.CacheTTL,
		validate:        newValidator(),
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func collectValidation(err error, verr *domain.ValidationError) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		verr.Add(domain.FieldError{Field: fe.Field(), Rule: fe.Tag(), Err: domain.ErrInvalidField})
	}
	return nil
}

// CreateWithdrawal admits a withdrawal request. All request problems are
// reported together, except a wrong password which is reported alone.
// Funds are moved from the available balance into locked funds in the same
// transaction that persists the record.
func (s *withdrawalService) CreateWithdrawal(ctx context.Context, req *domain.WithdrawalReq) (*domain.Withdrawal, error) {
	verr := &domain.ValidationError{}
	if err := s.validate.StructCtx(ctx, req); err != nil {
		if err := collectValidation(err, verr); err != nil {
			return nil, err
		}
		return nil, verr
	}

	dest, account, err := s.resolveDestination(ctx, req)
	if err != nil {
		return nil, err
	}

	quote, err := s.fees.Resolve(dest.Category, req.RequestedSum)
	var policyErr *domain.ValidationError
	switch {
	case errors.As(err, &policyErr):
		verr.Fields = append(verr.Fields, policyErr.Fields...)
	case err != nil:
		return nil, err
	}

	if req.RequestedSum.IsPositive() {
		if err := s.ensureSufficientBalance(ctx, account.ID, req.RequestedSum); err != nil {
			if !errors.Is(err, domain.ErrInsufficientFunds) {
				return nil, err
			}
			verr.Add(insufficientFunds())
		}
	}

	ok, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		verr.Clear()
		verr.Add(domain.FieldError{Field: "password", Rule: "mismatch", Err: domain.ErrPasswordMismatch})
		return nil, verr
	}
	if !verr.Empty() {
		return nil, verr
	}

	now := s.now()
	w := &domain.Withdrawal{
		MemberID:     req.MemberID,
		AccountID:    account.ID,
		Currency:     account.Currency,
		Amount:       quote.Amount,
		Fee:          quote.Fee,
		AddressType:  dest.Category,
		Address:      dest.Address,
		AddressLabel: dest.Label,
		State:        domain.StateApply,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.accountRepo.WithLock(ctx, account.ID, func(txCtx context.Context) error {
		if err := s.ensureSufficientBalance(txCtx, account.ID, w.Sum()); err != nil {
			return err
		}
		if err := s.accountRepo.Reserve(txCtx, account.ID, w.Sum()); err != nil {
			return err
		}
		if err := s.withdrawalRepo.Create(txCtx, w); err != nil {
			return err
		}
		if err := s.accountRepo.AddLedgerEntry(txCtx, &domain.LedgerEntry{
			AccountID:    account.ID,
			WithdrawalID: w.ID,
			Reason:       domain.ReasonWithdrawLock,
			BalanceDelta: w.Sum().Neg(),
			LockedDelta:  w.Sum(),
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		sn := domain.GenerateSN(w.CreatedAt, w.ID)
		if err := s.withdrawalRepo.AssignSN(txCtx, w.ID, sn); err != nil {
			return err
		}
		w.SN = sn
		return nil
	})
	if errors.Is(err, domain.ErrInsufficientFunds) {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{insufficientFunds()}}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal created",
		zap.Int64("id", w.ID),
		zap.String("sn", w.SN),
		zap.Int64("account_id", w.AccountID),
		zap.String("channel", string(w.AddressType)),
		zap.String("sum", w.Sum().String()),
		zap.String("fee", w.Fee.String()),
	)

	wait := domain.StateWait
	queued, err := s.Transition(ctx, w.ID, &domain.TransitionReq{To: &wait, Actor: domain.ActorSystem})
	if queued != nil {
		w = queued
	}
	if err != nil {
		s.logger.Error("withdrawal not queued for examination", zap.Int64("id", w.ID), zap.Error(err))
	}
	return w, nil
}

func (s *withdrawalService) resolveDestination(ctx context.Context, req *domain.WithdrawalReq) (*domain.Destination, *domain.Account, error) {
	dest, err := s.destinationRepo.GetByID(ctx, req.WithdrawAddressID)
	if errors.Is(err, domain.ErrDestinationNotFound) {
		return nil, nil, &domain.NotFoundError{Resource: "withdraw address", ID: req.WithdrawAddressID, Err: err}
	}
	if err != nil {
		return nil, nil, err
	}
	if !dest.Category.Valid() {
		return nil, nil, fmt.Errorf("withdraw address %d has unknown category %q", dest.ID, dest.Category)
	}

	account, err := s.accountRepo.GetByID(ctx, dest.AccountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, nil, &domain.NotFoundError{Resource: "account", ID: dest.AccountID, Err: err}
	}
	if err != nil {
		return nil, nil, err
	}
	// another member's address is reported exactly like a missing one
	if account.MemberID != req.MemberID {
		return nil, nil, &domain.NotFoundError{Resource: "withdraw address", ID: req.WithdrawAddressID, Err: domain.ErrDestinationNotFound}
	}
	return dest, account, nil
}

// ensureSufficientBalance fails with domain.ErrInsufficientFunds when sum
// exceeds the available balance. Inside WithLock the read is serialized with
// every other debit of the account.
func (s *withdrawalService) ensureSufficientBalance(ctx context.Context, accountID int64, sum decimal.Decimal) error {
	available, err := s.accountRepo.GetAvailableBalance(ctx, accountID)
	if err != nil {
		return err
	}
	if sum.GreaterThan(available) {
		return domain.ErrInsufficientFunds
	}
	return nil
}

func (s *withdrawalService) authenticate(ctx context.Context, req *domain.WithdrawalReq) (bool, error) {
	if req.Password == "" {
		return false, nil
	}
	return s.memberRepo.Authenticate(ctx, req.MemberID, req.Password)
}

func insufficientFunds() domain.FieldError {
	return domain.FieldError{Field: "sum", Rule: "insufficient_funds", Err: domain.ErrInsufficientFunds}
}

func (s *withdrawalService) GetWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrWithdrawalNotFound) {
		return nil, &domain.NotFoundError{Resource: "withdrawal", ID: id, Err: err}
	}
	return w, err
}
