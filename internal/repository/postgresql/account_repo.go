package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payout/internal/domain"
	"payout/internal/port"

	"github.com/shopspring/decimal"
)

type accountRepository struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func NewAccountRepository(db *sql.DB, lockTimeout time.Duration) port.AccountRepository {
	return &accountRepository{db: db, lockTimeout: lockTimeout}
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	const query = `SELECT id, member_id, currency, balance, locked FROM accounts WHERE id = $1`

	var a domain.Account
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&a.ID, &a.MemberID, &a.Currency, &a.Balance, &a.Locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

func (r *accountRepository) GetAvailableBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	const query = `SELECT balance FROM accounts WHERE id = $1`

	var balance decimal.Decimal
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// WithLock holds SELECT ... FOR UPDATE on the account row while fn runs.
// Waiting longer than the configured lock timeout yields a TransientError.
func (r *accountRepository) WithLock(ctx context.Context, accountID int64, fn func(ctx context.Context) error) error {
	locked := func(txCtx context.Context) error {
		tr, _ := getTr(txCtx)

		if r.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
			if _, err := tr.ExecContext(txCtx, stmt); err != nil {
				return fmt.Errorf("set lock_timeout: %w", err)
			}
		}

		var id int64
		err := tr.QueryRowContext(txCtx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAccountNotFound
		}
		if err != nil {
			return mapTxError("lock account", err)
		}

		return fn(txCtx)
	}

	if _, ok := getTr(ctx); ok {
		return locked(ctx)
	}
	return withTx(ctx, r.db, locked)
}

// Reserve moves sum from the available balance into locked funds.
func (r *accountRepository) Reserve(ctx context.Context, accountID int64, sum decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = balance - $1, locked = locked + $1, updated_at = now()
	WHERE id = $2 AND balance >= $1`

	return r.move(ctx, query, sum, accountID, domain.ErrInsufficientFunds)
}

// Release returns locked funds to the available balance.
func (r *accountRepository) Release(ctx context.Context, accountID int64, sum decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = balance + $1, locked = locked - $1, updated_at = now()
	WHERE id = $2 AND locked >= $1`

	return r.move(ctx, query, sum, accountID, fmt.Errorf("account %d: locked funds below %s", accountID, sum))
}

// Settle removes locked funds once the transfer has left the platform.
func (r *accountRepository) Settle(ctx context.Context, accountID int64, sum decimal.Decimal) error {
	const query = `UPDATE accounts SET locked = locked - $1, updated_at = now()
	WHERE id = $2 AND locked >= $1`

	return r.move(ctx, query, sum, accountID, fmt.Errorf("account %d: locked funds below %s", accountID, sum))
}

func (r *accountRepository) move(ctx context.Context, query string, sum decimal.Decimal, accountID int64, shortfall error) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, query, sum, accountID)
	if err != nil {
		return mapTxError("update account", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return shortfall
	}
	return nil
}

func (r *accountRepository) AddLedgerEntry(ctx context.Context, e *domain.LedgerEntry) error {
	const query = `INSERT INTO account_ledger_entries (account_id, withdraw_id, reason, balance_delta, locked_delta, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		e.AccountID, e.WithdrawalID, e.Reason, e.BalanceDelta, e.LockedDelta, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}
