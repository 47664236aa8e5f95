package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"wager-escrow/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WagerRepository defines persistence operations for wager records.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WagerRepository interface {
	// Create fails with domain.ErrWagerExists when the escrow id is already bound.
	Create(ctx context.Context, wager *domain.Wager) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wager, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wager, error)
	GetByEscrowID(ctx context.Context, escrowID string) (*domain.Wager, error)
	List(ctx context.Context, params WagerListParams) ([]domain.Wager, int64, error)
	MarkTerminal(ctx context.Context, tx pgx.Tx, id uuid.UUID, outcome domain.WagerOutcome, at time.Time) error
}

// WagerListParams holds filter + pagination for listing wagers.
type WagerListParams struct {
	PlayerID string
	Outcome  *domain.WagerOutcome
	Page     int
	PageSize int
}

// AccountRepository defines persistence operations for fund-holding accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Account, error)
	// Ensure inserts the account with the given initial balance if it does not exist yet.
	Ensure(ctx context.Context, tx pgx.Tx, id string, encryptedBalance string) error
	UpdateBalance(ctx context.Context, tx pgx.Tx, id string, encryptedBalance string) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
