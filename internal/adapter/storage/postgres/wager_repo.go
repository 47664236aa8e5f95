package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wager-escrow/internal/core/domain"
	"wager-escrow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const wagerColumns = `id, player_id, wager_amount::text, escrow_id, settled, nonce, outcome, created_at, settled_at`

// WagerRepo implements ports.WagerRepository.
type WagerRepo struct {
	pool Pool
}

// NewWagerRepo creates a new WagerRepo.
func NewWagerRepo(pool Pool) *WagerRepo {
	return &WagerRepo{pool: pool}
}

// Create inserts a new wager. The unique key on escrow_id makes a second
// wager on the same custody holder fail with domain.ErrWagerExists.
func (r *WagerRepo) Create(ctx context.Context, w *domain.Wager) error {
	query := `INSERT INTO wagers (id, player_id, wager_amount, escrow_id, settled, nonce, outcome, created_at, settled_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.PlayerID, strconv.FormatUint(w.WagerAmount, 10), w.EscrowID,
		w.Settled, int16(w.Nonce), string(w.Outcome), w.CreatedAt, w.SettledAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrWagerExists
		}
		return fmt.Errorf("insert wager: %w", err)
	}
	return nil
}

// GetByID fetches a wager by id without locking.
func (r *WagerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`
	return scanWager(r.pool.QueryRow(ctx, query, id), "get wager by id")
}

// GetByIDForUpdate fetches a wager and holds its row lock until tx ends.
func (r *WagerRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1 FOR UPDATE`
	return scanWager(tx.QueryRow(ctx, query, id), "get wager for update")
}

// GetByEscrowID fetches the wager bound to a custody holder.
func (r *WagerRepo) GetByEscrowID(ctx context.Context, escrowID string) (*domain.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE escrow_id = $1`
	return scanWager(r.pool.QueryRow(ctx, query, escrowID), "get wager by escrow id")
}

// List fetches wagers newest first with optional player and outcome filters.
func (r *WagerRepo) List(ctx context.Context, params ports.WagerListParams) ([]domain.Wager, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.PlayerID != "" {
		conditions = append(conditions, fmt.Sprintf("player_id = $%d", argIdx))
		args = append(args, params.PlayerID)
		argIdx++
	}
	if params.Outcome != nil {
		conditions = append(conditions, fmt.Sprintf("outcome = $%d", argIdx))
		args = append(args, string(*params.Outcome))
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM wagers %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wagers: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM wagers %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		wagerColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list wagers: %w", err)
	}
	defer rows.Close()

	var wagers []domain.Wager
	for rows.Next() {
		w, err := scanWager(rows, "scan wager row")
		if err != nil {
			return nil, 0, err
		}
		wagers = append(wagers, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wager rows: %w", err)
	}
	return wagers, total, nil
}

// MarkTerminal flips settled to true exactly once. It fails if the wager is
// missing or already terminal.
func (r *WagerRepo) MarkTerminal(ctx context.Context, tx pgx.Tx, id uuid.UUID, outcome domain.WagerOutcome, at time.Time) error {
	query := `UPDATE wagers SET settled = TRUE, outcome = $1, settled_at = $2 WHERE id = $3 AND settled = FALSE`

	tag, err := tx.Exec(ctx, query, string(outcome), at, id)
	if err != nil {
		return fmt.Errorf("mark wager terminal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wager not open: %s", id)
	}
	return nil
}

func scanWager(row pgx.Row, op string) (*domain.Wager, error) {
	var (
		w       domain.Wager
		amount  string
		nonce   int16
		outcome string
	)
	err := row.Scan(&w.ID, &w.PlayerID, &amount, &w.EscrowID, &w.Settled, &nonce, &outcome, &w.CreatedAt, &w.SettledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w.WagerAmount, err = strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: parse wager_amount %q: %w", op, amount, err)
	}
	w.Nonce = uint8(nonce)
	w.Outcome = domain.WagerOutcome(outcome)
	return &w, nil
}
