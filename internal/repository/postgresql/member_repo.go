package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"payout/internal/port"

	"golang.org/x/crypto/bcrypt"
)

type memberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) port.MemberRepository {
	return &memberRepository{db: db}
}

// Authenticate reports whether password matches the member's bcrypt digest.
// An unknown member is a mismatch, not an error.
func (r *memberRepository) Authenticate(ctx context.Context, memberID int64, password string) (bool, error) {
	const query = `SELECT password_digest FROM members WHERE id = $1`

	var digest string
	err := conn(ctx, r.db).QueryRowContext(ctx, query, memberID).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get member: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return true, nil
}
