package postgres

import (
	"context"
	"errors"
	"fmt"

	"wager-escrow/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// GetByID fetches an account without locking.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT id, encrypted_balance, created_at, updated_at FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id), "get account by id")
}

// GetByIDForUpdate fetches an account with pessimistic locking.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Account, error) {
	query := `SELECT id, encrypted_balance, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(tx.QueryRow(ctx, query, id), "get account for update")
}

// Ensure creates the account if it is missing and leaves an existing row untouched.
func (r *AccountRepo) Ensure(ctx context.Context, tx pgx.Tx, id string, encryptedBalance string) error {
	query := `INSERT INTO accounts (id, encrypted_balance) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`

	if _, err := tx.Exec(ctx, query, id, encryptedBalance); err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

// UpdateBalance replaces an account's encrypted balance within a transaction.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id string, encryptedBalance string) error {
	query := `UPDATE accounts SET encrypted_balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, encryptedBalance, id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

func scanAccount(row pgx.Row, op string) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(&a.ID, &a.EncryptedBalance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}
