package port

import (
	"context"
	"payout/internal/domain"
	"time"

	"github.com/shopspring/decimal"
)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type WithdrawalRepository interface {
	Create(ctx context.Context, w *domain.Withdrawal) error
	AssignSN(ctx context.Context, id int64, sn string) error
	GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Withdrawal, error)
	UpdateState(ctx context.Context, id int64, from, to domain.State, txID *string, at time.Time) error
	MaxCompletedID(ctx context.Context, channel domain.ChannelType) (int64, error)
	CountInWindow(ctx context.Context, channel domain.ChannelType, afterID, uptoID int64) (int64, error)
}

type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetAvailableBalance(ctx context.Context, id int64) (decimal.Decimal, error)
	// WithLock runs fn in a transaction holding the account row lock.
	WithLock(ctx context.Context, accountID int64, fn func(ctx context.Context) error) error
	Reserve(ctx context.Context, accountID int64, sum decimal.Decimal) error
	Release(ctx context.Context, accountID int64, sum decimal.Decimal) error
	Settle(ctx context.Context, accountID int64, sum decimal.Decimal) error
	AddLedgerEntry(ctx context.Context, e *domain.LedgerEntry) error
}

type DestinationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Destination, error)
}

type MemberRepository interface {
	Authenticate(ctx context.Context, memberID int64, password string) (bool, error)
}
