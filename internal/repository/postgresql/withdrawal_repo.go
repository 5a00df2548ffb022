package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payout/internal/domain"
	"payout/internal/port"

	"github.com/lib/pq"
)

const withdrawalColumns = `id, sn, member_id, account_id, currency, amount, fee,
	address_type, address, address_label, state, tx_id, created_at, updated_at`

type withdrawalRepository struct {
	db *sql.DB
}

func NewWithdrawalRepository(db *sql.DB) port.WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWithdrawal(row rowScanner) (*domain.Withdrawal, error) {
	var (
		w    domain.Withdrawal
		sn   sql.NullString
		txID sql.NullString
	)
	err := row.Scan(
		&w.ID, &sn, &w.MemberID, &w.AccountID, &w.Currency, &w.Amount, &w.Fee,
		&w.AddressType, &w.Address, &w.AddressLabel, &w.State, &txID, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.SN = sn.String
	if txID.Valid {
		w.TxID = &txID.String
	}
	return &w, nil
}

func (r *withdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	const query = `INSERT INTO withdraws (member_id, account_id, currency, amount, fee, address_type, address, address_label, state, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		w.MemberID, w.AccountID, w.Currency, w.Amount, w.Fee, w.AddressType, w.Address, w.AddressLabel, w.State, w.CreatedAt, w.UpdatedAt,
	).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("insert withdraw: %w", err)
	}
	return nil
}

// AssignSN writes the serial number once; a second call is a no-op.
func (r *withdrawalRepository) AssignSN(ctx context.Context, id int64, sn string) error {
	const query = `UPDATE withdraws SET sn = $1 WHERE id = $2 AND sn IS NULL`

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, sn, id); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueConstraint {
			return fmt.Errorf("serial number %s already taken: %w", sn, err)
		}
		return fmt.Errorf("assign sn: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	const query = `SELECT ` + withdrawalColumns + ` FROM withdraws WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetForUpdate must run inside a transaction; it holds the row until commit.
func (r *withdrawalRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	const query = `SELECT ` + withdrawalColumns + ` FROM withdraws WHERE id = $1 FOR UPDATE`
	w, err := r.get(ctx, query, id)
	if err != nil && !errors.Is(err, domain.ErrWithdrawalNotFound) {
		return nil, mapTxError("lock withdraw", err)
	}
	return w, err
}

func (r *withdrawalRepository) get(ctx context.Context, query string, id int64) (*domain.Withdrawal, error) {
	w, err := scanWithdrawal(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrWithdrawalNotFound
	}
	return w, err
}

// UpdateState moves id from state from to state to. It affects nothing and
// returns domain.ErrStateChanged when the stored state is no longer from.
func (r *withdrawalRepository) UpdateState(ctx context.Context, id int64, from, to domain.State, txID *string, at time.Time) error {
	const query = `UPDATE withdraws SET state = $1, tx_id = COALESCE($2, tx_id), updated_at = $3
	WHERE id = $4 AND state = $5`

	var tx sql.NullString
	if txID != nil {
		tx = sql.NullString{String: *txID, Valid: true}
	}

	result, err := conn(ctx, r.db).ExecContext(ctx, query, to, tx, at, id, from)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueConstraint && pqErr.Constraint == "withdraws_tx_id_key" {
			return domain.ErrDuplicateTxID
		}
		return mapTxError("update withdraw state", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

func (r *withdrawalRepository) MaxCompletedID(ctx context.Context, channel domain.ChannelType) (int64, error) {
	const query = `SELECT COALESCE(MAX(id), 0) FROM withdraws WHERE address_type = $1 AND state = ANY($2)`

	states := make([]int64, 0, len(domain.CompletedStates))
	for _, s := range domain.CompletedStates {
		states = append(states, int64(s))
	}

	var id int64
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, channel, pq.Array(states)).Scan(&id); err != nil {
		return 0, fmt.Errorf("max completed id: %w", err)
	}
	return id, nil
}

func (r *withdrawalRepository) CountInWindow(ctx context.Context, channel domain.ChannelType, afterID, uptoID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM withdraws WHERE address_type = $1 AND id > $2 AND id <= $3`

	var n int64
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, channel, afterID, uptoID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count queue window: %w", err)
	}
	return n, nil
}
