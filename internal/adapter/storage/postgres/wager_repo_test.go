package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"wager-escrow/internal/core/domain"
	"wager-escrow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWager() *domain.Wager {
	return &domain.Wager{
		ID:          uuid.New(),
		PlayerID:    "player-1",
		WagerAmount: 18446744073709551615,
		EscrowID:    "escrow-A",
		Nonce:       255,
		Outcome:     domain.WagerOutcomeOpen,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func wagerRowColumns() []string {
	return []string{"id", "player_id", "wager_amount", "escrow_id", "settled", "nonce", "outcome", "created_at", "settled_at"}
}

func wagerRow(w *domain.Wager, amount string) *pgxmock.Rows {
	return pgxmock.NewRows(wagerRowColumns()).AddRow(
		w.ID, w.PlayerID, amount, w.EscrowID, w.Settled,
		int16(w.Nonce), string(w.Outcome), w.CreatedAt, w.SettledAt,
	)
}

// insertArgs matches the nine bound parameters of the wager INSERT.
func insertArgs() []any {
	args := make([]any, 9)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestWagerRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)
	w := newTestWager()

	mock.ExpectExec("INSERT INTO wagers").
		WithArgs(w.ID, w.PlayerID, "18446744073709551615", w.EscrowID,
			false, int16(255), "OPEN", w.CreatedAt, w.SettledAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), w))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWagerRepo_Create_DuplicateEscrow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)

	mock.ExpectExec("INSERT INTO wagers").
		WithArgs(insertArgs()...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "wagers_escrow_id_key"})

	err = repo.Create(context.Background(), newTestWager())
	assert.ErrorIs(t, err, domain.ErrWagerExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWagerRepo_Create_OtherError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)

	mock.ExpectExec("INSERT INTO wagers").
		WithArgs(insertArgs()...).
		WillReturnError(errors.New("connection reset"))

	err = repo.Create(context.Background(), newTestWager())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrWagerExists)
	assert.Contains(t, err.Error(), "insert wager")
}

func TestWagerRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)
	w := newTestWager()

	mock.ExpectQuery("SELECT .+ FROM wagers WHERE id").
		WithArgs(w.ID).
		WillReturnRows(wagerRow(w, "18446744073709551615"))

	got, err := repo.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, w, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWagerRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wagers WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(wagerRowColumns()))

	got, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestWagerRepo_GetByID_CorruptAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)
	w := newTestWager()

	mock.ExpectQuery("SELECT .+ FROM wagers WHERE id").
		WithArgs(w.ID).
		WillReturnRows(wagerRow(w, "18446744073709551616"))

	_, err = repo.GetByID(context.Background(), w.ID)
	assert.ErrorContains(t, err, "parse wager_amount")
}

func TestWagerRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)
	w := newTestWager()
	w.WagerAmount = 1000

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wagers WHERE id .+ FOR UPDATE").
		WithArgs(w.ID).
		WillReturnRows(wagerRow(w, "1000"))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	got, err := repo.GetByIDForUpdate(context.Background(), tx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(1000), got.WagerAmount)
	assert.Equal(t, uint8(255), got.Nonce)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWagerRepo_GetByEscrowID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)
	w := newTestWager()

	mock.ExpectQuery("SELECT .+ FROM wagers WHERE escrow_id").
		WithArgs("escrow-A").
		WillReturnRows(wagerRow(w, "5"))

	got, err := repo.GetByEscrowID(context.Background(), "escrow-A")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, w.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWagerRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)
	w1, w2 := newTestWager(), newTestWager()
	outcome := domain.WagerOutcomeOpen

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("player-1", "OPEN").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery("SELECT .+ FROM wagers WHERE player_id .+ ORDER BY created_at DESC LIMIT").
		WithArgs("player-1", "OPEN", 10, 10).
		WillReturnRows(pgxmock.NewRows(wagerRowColumns()).
			AddRow(w1.ID, w1.PlayerID, "1", w1.EscrowID, false, int16(1), "OPEN", w1.CreatedAt, w1.SettledAt).
			AddRow(w2.ID, w2.PlayerID, "2", w2.EscrowID, false, int16(2), "OPEN", w2.CreatedAt, w2.SettledAt))

	wagers, total, err := repo.List(context.Background(), ports.WagerListParams{
		PlayerID: "player-1", Outcome: &outcome, Page: 2, PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, wagers, 2)
	assert.Equal(t, uint64(2), wagers[1].WagerAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWagerRepo_List_Unfiltered(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM wagers$").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery("SELECT .+ FROM wagers +ORDER BY").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(wagerRowColumns()))

	wagers, total, err := repo.List(context.Background(), ports.WagerListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, wagers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWagerRepo_MarkTerminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)
	id := uuid.New()
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wagers SET settled = TRUE").
		WithArgs("SETTLED", at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.MarkTerminal(context.Background(), tx, id, domain.WagerOutcomeSettled, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWagerRepo_MarkTerminal_AlreadyTerminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWagerRepo(mock)
	id := uuid.New()
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wagers SET settled = TRUE.+WHERE id = \\$3 AND settled = FALSE").
		WithArgs("CANCELLED", at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.MarkTerminal(context.Background(), tx, id, domain.WagerOutcomeCancelled, at)
	assert.ErrorContains(t, err, "wager not open")
	assert.NoError(t, mock.ExpectationsWereMet())
}
