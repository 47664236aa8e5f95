package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"wager-escrow/internal/core/domain"
	"wager-escrow/internal/core/ports"
	"wager-escrow/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultWagerCacheTTL = 5 * time.Minute
	defaultPageSize      = 20
	maxPageSize          = 100
)

// EscrowOptions carries settlement policy.
type EscrowOptions struct {
	DefaultAdmin string
	CacheTTL     time.Duration
}

// EscrowServiceImpl implements ports.EscrowService.
type EscrowServiceImpl struct {
	wagerRepo  ports.WagerRepository
	custody    ports.FundCustody
	transactor ports.DBTransactor
	cache      ports.WagerCache
	publisher  ports.EventPublisher
	metrics    ports.MetricsRecorder
	opts       EscrowOptions
	log        zerolog.Logger
}

// NewEscrowService creates a new EscrowServiceImpl.
func NewEscrowService(
	wagerRepo ports.WagerRepository,
	custody ports.FundCustody,
	transactor ports.DBTransactor,
	cache ports.WagerCache,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	opts EscrowOptions,
	log zerolog.Logger,
) *EscrowServiceImpl {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultWagerCacheTTL
	}
	return &EscrowServiceImpl{
		wagerRepo:  wagerRepo,
		custody:    custody,
		transactor: transactor,
		cache:      cache,
		publisher:  publisher,
		metrics:    metrics,
		opts:       opts,
		log:        log,
	}
}

// Open records a new wager for the authenticated player. No funds move.
func (s *EscrowServiceImpl) Open(ctx context.Context, actor domain.Actor, req ports.OpenRequest) (*domain.Wager, error) {
	start := time.Now()
	wager, err := s.open(ctx, actor, req)
	observe(s.metrics, "open", start, err)
	return wager, err
}

func (s *EscrowServiceImpl) open(ctx context.Context, actor domain.Actor, req ports.OpenRequest) (*domain.Wager, error) {
	if req.PlayerID == "" {
		return nil, apperror.Validation("player_id is required")
	}
	if actor.ID != req.PlayerID {
		return nil, apperror.ErrForbiddenActor()
	}

	escrowID := req.EscrowID
	if escrowID == "" {
		escrowID = domain.DeriveCustodyID(req.PlayerID, req.Nonce)
	}

	wager := &domain.Wager{
		ID:          uuid.New(),
		PlayerID:    req.PlayerID,
		WagerAmount: req.WagerAmount,
		EscrowID:    escrowID,
		Nonce:       req.Nonce,
		Outcome:     domain.WagerOutcomeOpen,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.wagerRepo.Create(ctx, wager); err != nil {
		if errors.Is(err, domain.ErrWagerExists) {
			return nil, apperror.ErrDuplicateRecord()
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wager: %w", err))
	}

	s.cacheWager(ctx, wager)
	s.emit(ctx, domain.NewOpenedEvent(wager, actor.ID))

	s.log.Info().
		Str("wager_id", wager.ID.String()).
		Str("player_id", wager.PlayerID).
		Str("escrow_id", wager.EscrowID).
		Uint64("wager_amount", wager.WagerAmount).
		Msg("wager opened")

	return wager, nil
}

// Settle pays winner and admin out of the wager's custody holder and closes the wager.
func (s *EscrowServiceImpl) Settle(ctx context.Context, actor domain.Actor, req ports.SettleRequest) (*ports.SettleResult, error) {
	start := time.Now()
	res, err := s.settle(ctx, actor, req)
	observe(s.metrics, "settle", start, err)
	return res, err
}

func (s *EscrowServiceImpl) settle(ctx context.Context, actor domain.Actor, req ports.SettleRequest) (*ports.SettleResult, error) {
	if !actor.IsAuthority() {
		return nil, apperror.ErrForbiddenActor()
	}
	if req.Winner == "" {
		return nil, apperror.Validation("winner is required")
	}
	admin := req.Admin
	if admin == "" {
		admin = s.opts.DefaultAdmin
	}
	if admin == "" {
		return nil, apperror.Validation("admin is required when no default admin is configured")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wager, err := s.wagerRepo.GetByIDForUpdate(ctx, dbTx, req.WagerID)
	if err != nil {
		return nil, lockFailure("lock wager", err)
	}
	if wager == nil {
		return nil, apperror.ErrNotFound("wager")
	}
	if !wager.BoundTo(req.EscrowID) {
		return nil, apperror.ErrEscrowMismatch()
	}
	if wager.IsTerminal() {
		return nil, apperror.ErrAlreadySettled()
	}

	expected, carry := bits.Add64(req.WinnerAmount, req.AdminAmount, 0)
	if carry != 0 {
		return nil, apperror.ErrMathOverflow()
	}

	balances, err := s.custody.Lock(ctx, dbTx, wager.EscrowID, req.Winner, admin)
	if err != nil {
		return nil, err
	}
	held := balances[wager.EscrowID]
	if expected > held {
		return nil, apperror.ErrInsufficientEscrow()
	}

	if err := s.custody.Transfer(ctx, dbTx, wager.EscrowID, req.Winner, req.WinnerAmount); err != nil {
		return nil, err
	}
	if err := s.custody.Transfer(ctx, dbTx, wager.EscrowID, admin, req.AdminAmount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.wagerRepo.MarkTerminal(ctx, dbTx, wager.ID, domain.WagerOutcomeSettled, now); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mark settled: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	wager.Settled = true
	wager.Outcome = domain.WagerOutcomeSettled
	wager.SettledAt = &now

	res := &ports.SettleResult{
		Wager:        wager,
		Winner:       req.Winner,
		Admin:        admin,
		WinnerAmount: req.WinnerAmount,
		AdminAmount:  req.AdminAmount,
		Residual:     held - expected,
	}

	s.invalidate(ctx, wager.ID)
	s.emit(ctx, domain.NewSettledEvent(wager, actor.ID, res.Winner, res.WinnerAmount, res.Admin, res.AdminAmount, res.Residual))
	s.metrics.AddVolume("settled", expected)

	evt := s.log.Info()
	if res.Residual > 0 {
		evt = s.log.Warn()
	}
	evt.Str("wager_id", wager.ID.String()).
		Str("winner", res.Winner).
		Uint64("winner_amount", res.WinnerAmount).
		Str("admin", res.Admin).
		Uint64("admin_amount", res.AdminAmount).
		Uint64("residual", res.Residual).
		Msg("wager settled")

	return res, nil
}

// Cancel refunds the entire custody balance to req.Player and closes the wager.
func (s *EscrowServiceImpl) Cancel(ctx context.Context, actor domain.Actor, req ports.CancelRequest) (*ports.CancelResult, error) {
	start := time.Now()
	res, err := s.cancel(ctx, actor, req)
	observe(s.metrics, "cancel", start, err)
	return res, err
}

func (s *EscrowServiceImpl) cancel(ctx context.Context, actor domain.Actor, req ports.CancelRequest) (*ports.CancelResult, error) {
	if !actor.IsAuthority() {
		return nil, apperror.ErrForbiddenActor()
	}
	if req.Player == "" {
		return nil, apperror.Validation("player is required")
	}
	if req.Player == req.EscrowID {
		return nil, apperror.Validation("refund destination must differ from the custody holder")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wager, err := s.wagerRepo.GetByIDForUpdate(ctx, dbTx, req.WagerID)
	if err != nil {
		return nil, lockFailure("lock wager", err)
	}
	if wager == nil {
		return nil, apperror.ErrNotFound("wager")
	}
	if !wager.BoundTo(req.EscrowID) {
		return nil, apperror.ErrEscrowMismatch()
	}
	if wager.IsTerminal() {
		return nil, apperror.ErrAlreadySettled()
	}

	if _, err := s.custody.Lock(ctx, dbTx, wager.EscrowID, req.Player); err != nil {
		return nil, err
	}
	refunded, err := s.custody.ZeroOut(ctx, dbTx, wager.EscrowID)
	if err != nil {
		return nil, err
	}
	if _, err := s.custody.Credit(ctx, dbTx, req.Player, refunded); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.wagerRepo.MarkTerminal(ctx, dbTx, wager.ID, domain.WagerOutcomeCancelled, now); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mark cancelled: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	wager.Settled = true
	wager.Outcome = domain.WagerOutcomeCancelled
	wager.SettledAt = &now

	s.invalidate(ctx, wager.ID)
	s.emit(ctx, domain.NewCancelledEvent(wager, actor.ID, req.Player, refunded))
	s.metrics.AddVolume("refunded", refunded)

	if req.Player != wager.PlayerID {
		s.log.Warn().
			Str("wager_id", wager.ID.String()).
			Str("player_id", wager.PlayerID).
			Str("recipient", req.Player).
			Msg("refund sent to account other than the wager's player")
	}
	s.log.Info().
		Str("wager_id", wager.ID.String()).
		Str("recipient", req.Player).
		Uint64("refunded", refunded).
		Msg("wager cancelled")

	return &ports.CancelResult{Wager: wager, Recipient: req.Player, Refunded: refunded}, nil
}

// GetWager serves a wager from cache when possible.
func (s *EscrowServiceImpl) GetWager(ctx context.Context, id uuid.UUID) (*domain.Wager, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("wager_id", id.String()).Msg("wager cache read failed, falling through to DB")
	}
	if cached != nil {
		var w domain.Wager
		if err := json.Unmarshal(cached, &w); err == nil {
			return &w, nil
		}
		s.log.Warn().Str("wager_id", id.String()).Msg("discarding undecodable cached wager")
	}

	wager, err := s.wagerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wager: %w", err))
	}
	if wager == nil {
		return nil, apperror.ErrNotFound("wager")
	}

	s.cacheWager(ctx, wager)
	return wager, nil
}

// ListWagers returns one page of wagers plus the total match count.
func (s *EscrowServiceImpl) ListWagers(ctx context.Context, params ports.WagerListParams) ([]domain.Wager, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	wagers, total, err := s.wagerRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list wagers: %w", err))
	}
	return wagers, total, nil
}

func (s *EscrowServiceImpl) cacheWager(ctx context.Context, w *domain.Wager) {
	data, err := json.Marshal(w)
	if err != nil {
		s.log.Warn().Err(err).Str("wager_id", w.ID.String()).Msg("failed to marshal wager for cache")
		return
	}
	if err := s.cache.Set(ctx, w.ID, data, s.opts.CacheTTL); err != nil {
		s.log.Warn().Err(err).Str("wager_id", w.ID.String()).Msg("failed to cache wager in redis")
	}
}

func (s *EscrowServiceImpl) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("wager_id", id.String()).Msg("failed to evict cached wager")
	}
}

func (s *EscrowServiceImpl) emit(ctx context.Context, event domain.LedgerEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("event", string(event.Type)).
			Str("escrow_id", event.EscrowID).
			Msg("failed to publish ledger event")
	}
}

// observe records an operation's latency under "ok" or the failing error code.
func observe(m ports.MetricsRecorder, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			outcome = appErr.Code
		} else {
			outcome = "error"
		}
	}
	m.ObserveOperation(op, outcome, time.Since(start))
}
