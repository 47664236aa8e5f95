package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"wager-escrow/internal/core/domain"
	"wager-escrow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// memStore is a transactional in-memory stand-in for the postgres adapters.
// Transactions are serialized; Rollback restores the snapshot taken at Begin.
type memStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex

	wagers   map[uuid.UUID]domain.Wager
	accounts map[string]domain.Account
}

func newMemStore() *memStore {
	return &memStore{
		wagers:   make(map[uuid.UUID]domain.Wager),
		accounts: make(map[string]domain.Account),
	}
}

type memTx struct {
	pgx.Tx
	store    *memStore
	wagers   map[uuid.UUID]domain.Wager
	accounts map[string]domain.Account
	done     bool
}

func (s *memStore) Begin(_ context.Context) (pgx.Tx, error) {
	s.txMu.Lock()
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	tx := &memTx{
		store:    s,
		wagers:   make(map[uuid.UUID]domain.Wager, len(s.wagers)),
		accounts: make(map[string]domain.Account, len(s.accounts)),
	}
	for k, v := range s.wagers {
		tx.wagers[k] = v
	}
	for k, v := range s.accounts {
		tx.accounts[k] = v
	}
	return tx, nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.store.dataMu.Lock()
	t.store.wagers = t.wagers
	t.store.accounts = t.accounts
	t.store.dataMu.Unlock()
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

// memWagers implements ports.WagerRepository.
type memWagers struct{ s *memStore }

func (r memWagers) Create(_ context.Context, w *domain.Wager) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for _, existing := range r.s.wagers {
		if existing.EscrowID == w.EscrowID {
			return domain.ErrWagerExists
		}
	}
	r.s.wagers[w.ID] = *w
	return nil
}

func (r memWagers) get(id uuid.UUID) (*domain.Wager, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	w, ok := r.s.wagers[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r memWagers) GetByID(_ context.Context, id uuid.UUID) (*domain.Wager, error) {
	return r.get(id)
}

func (r memWagers) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Wager, error) {
	return r.get(id)
}

func (r memWagers) GetByEscrowID(_ context.Context, escrowID string) (*domain.Wager, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for _, w := range r.s.wagers {
		if w.EscrowID == escrowID {
			return &w, nil
		}
	}
	return nil, nil
}

func (r memWagers) List(_ context.Context, p ports.WagerListParams) ([]domain.Wager, int64, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var out []domain.Wager
	for _, w := range r.s.wagers {
		if p.PlayerID == "" || w.PlayerID == p.PlayerID {
			out = append(out, w)
		}
	}
	return out, int64(len(out)), nil
}

func (r memWagers) MarkTerminal(_ context.Context, _ pgx.Tx, id uuid.UUID, outcome domain.WagerOutcome, at time.Time) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	w := r.s.wagers[id]
	w.Settled = true
	w.Outcome = outcome
	w.SettledAt = &at
	r.s.wagers[id] = w
	return nil
}

// memAccounts implements ports.AccountRepository.
type memAccounts struct{ s *memStore }

func (r memAccounts) get(id string) (*domain.Account, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r memAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	return r.get(id)
}

func (r memAccounts) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id string) (*domain.Account, error) {
	return r.get(id)
}

func (r memAccounts) Ensure(_ context.Context, _ pgx.Tx, id string, encryptedBalance string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	if _, ok := r.s.accounts[id]; !ok {
		r.s.accounts[id] = domain.Account{ID: id, EncryptedBalance: encryptedBalance}
	}
	return nil
}

func (r memAccounts) UpdateBalance(_ context.Context, _ pgx.Tx, id string, encryptedBalance string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	a := r.s.accounts[id]
	a.ID = id
	a.EncryptedBalance = encryptedBalance
	r.s.accounts[id] = a
	return nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, uuid.UUID) ([]byte, error)              { return nil, nil }
func (nopCache) Set(context.Context, uuid.UUID, []byte, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, uuid.UUID) error                     { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, string, time.Duration) {}
func (nopMetrics) AddVolume(string, uint64)                       {}

// ledgerHarness runs the real services over the in-memory store and real AES.
type ledgerHarness struct {
	store     *memStore
	ledger    *CustodyLedger
	escrow    *EscrowServiceImpl
	custody   *CustodyServiceImpl
	published *recordingPublisher
}

func newLedgerHarness(t *testing.T) *ledgerHarness {
	t.Helper()
	enc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	store := newMemStore()
	wagers := memWagers{store}
	ledger := NewCustodyLedger(memAccounts{store}, enc)
	pub := &recordingPublisher{}

	return &ledgerHarness{
		store:     store,
		ledger:    ledger,
		published: pub,
		escrow: NewEscrowService(wagers, ledger, store, nopCache{}, pub, nopMetrics{},
			EscrowOptions{DefaultAdmin: "house-treasury"}, zerolog.Nop()),
		custody: NewCustodyService(wagers, ledger, store, pub, nopMetrics{}, zerolog.Nop()),
	}
}

// fund opens a wager for player on escrowID and deposits amount into it.
func (h *ledgerHarness) fund(t *testing.T, player, escrowID string, amount uint64) *domain.Wager {
	t.Helper()
	ctx := context.Background()
	w, err := h.escrow.Open(ctx, domain.Actor{ID: player, Role: domain.RolePlayer}, ports.OpenRequest{
		PlayerID: player, EscrowID: escrowID, WagerAmount: amount,
	})
	require.NoError(t, err)
	if amount > 0 {
		_, err = h.custody.Deposit(ctx, domain.Actor{ID: player, Role: domain.RolePlayer}, escrowID, amount)
		require.NoError(t, err)
	}
	return w
}

// seed credits an arbitrary account directly, bypassing the deposit rules.
func (h *ledgerHarness) seed(t *testing.T, holder string, amount uint64) {
	t.Helper()
	ctx := context.Background()
	tx, err := h.store.Begin(ctx)
	require.NoError(t, err)
	_, err = h.ledger.Credit(ctx, tx, holder, amount)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
}

func (h *ledgerHarness) balance(t *testing.T, holder string) uint64 {
	t.Helper()
	bal, err := h.ledger.BalanceOf(context.Background(), holder)
	require.NoError(t, err)
	return bal
}
