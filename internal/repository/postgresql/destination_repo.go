package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"payout/internal/domain"
	"payout/internal/port"
)

type destinationRepository struct {
	db *sql.DB
}

func NewDestinationRepository(db *sql.DB) port.DestinationRepository {
	return &destinationRepository{db: db}
}

func (r *destinationRepository) GetByID(ctx context.Context, id int64) (*domain.Destination, error) {
	const query = `SELECT id, account_id, category, address, label FROM withdraw_addresses WHERE id = $1`

	var d domain.Destination
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&d.ID, &d.AccountID, &d.Category, &d.Address, &d.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDestinationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get withdraw address: %w", err)
	}
	return &d, nil
}
