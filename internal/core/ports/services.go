package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"wager-escrow/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenService issues and validates actor tokens.
type TokenService interface {
	Generate(actor domain.Actor) (string, time.Time, error)
	Validate(tokenString string) (*domain.Actor, error)
}

// NonceStore manages nonce uniqueness for replay attack prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, actorID string, nonce string, ttl time.Duration) (bool, error)
}

// WagerCache is a read-through snapshot cache for wager lookups.
type WagerCache interface {
	Get(ctx context.Context, id uuid.UUID) ([]byte, error) // Returns cached JSON or nil
	Set(ctx context.Context, id uuid.UUID, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher ships committed ledger events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
}

// MetricsRecorder observes escrow operations.
type MetricsRecorder interface {
	ObserveOperation(op string, outcome string, elapsed time.Duration)
	AddVolume(kind string, amount uint64)
}

// FundCustody moves balances between accounts of record. Every method runs
// inside the caller's transaction and locks the rows it touches.
type FundCustody interface {
	// Lock creates any missing holders, locks them all in id order and
	// returns their balances. Call it before moving funds between them.
	Lock(ctx context.Context, tx pgx.Tx, holders ...string) (map[string]uint64, error)
	// Transfer moves amount from one account to another, failing on insufficient funds.
	Transfer(ctx context.Context, tx pgx.Tx, from, to string, amount uint64) error
	// ZeroOut sets holder's balance to 0 and returns what it held.
	ZeroOut(ctx context.Context, tx pgx.Tx, holder string) (uint64, error)
	// Credit adds externally deposited funds and returns the new balance.
	Credit(ctx context.Context, tx pgx.Tx, holder string, amount uint64) (uint64, error)
	// BalanceOf reads a balance without locking.
	BalanceOf(ctx context.Context, holder string) (uint64, error)
}

// HealthChecker checks external dependency health.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g., "postgresql", "redis").
	Name() string
}

// --- Service Ports (Business Logic) ---

// EscrowService is the wager lifecycle state machine: Open, then exactly one of Settle or Cancel.
type EscrowService interface {
	Open(ctx context.Context, actor domain.Actor, req OpenRequest) (*domain.Wager, error)
	Settle(ctx context.Context, actor domain.Actor, req SettleRequest) (*SettleResult, error)
	Cancel(ctx context.Context, actor domain.Actor, req CancelRequest) (*CancelResult, error)
	GetWager(ctx context.Context, id uuid.UUID) (*domain.Wager, error)
	ListWagers(ctx context.Context, params WagerListParams) ([]domain.Wager, int64, error)
}

// OpenRequest holds validated input for opening a wager.
type OpenRequest struct {
	PlayerID    string
	EscrowID    string // empty = derive from PlayerID and Nonce
	Nonce       uint8
	WagerAmount uint64
}

// SettleRequest holds validated input for settling a wager.
type SettleRequest struct {
	WagerID      uuid.UUID
	EscrowID     string
	Winner       string
	Admin        string // empty = configured default admin
	WinnerAmount uint64
	AdminAmount  uint64
}

// SettleResult reports a completed settlement.
type SettleResult struct {
	Wager        *domain.Wager
	Winner       string
	Admin        string
	WinnerAmount uint64
	AdminAmount  uint64
	Residual     uint64 // left in custody, unreachable by any later operation
}

// CancelRequest holds validated input for cancelling a wager.
type CancelRequest struct {
	WagerID  uuid.UUID
	EscrowID string
	Player   string // refund destination, taken as given
}

// CancelResult reports a completed refund.
type CancelResult struct {
	Wager     *domain.Wager
	Recipient string
	Refunded  uint64
}

// CustodyService funds custody holders and reports their balances.
type CustodyService interface {
	Deposit(ctx context.Context, actor domain.Actor, holder string, amount uint64) (uint64, error)
	Balance(ctx context.Context, holder string) (uint64, error)
}
