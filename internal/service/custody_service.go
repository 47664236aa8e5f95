package service

import (
	"context"
	"fmt"
	"time"

	"wager-escrow/internal/core/domain"
	"wager-escrow/internal/core/ports"
	"wager-escrow/pkg/apperror"

	"github.com/rs/zerolog"
)

// CustodyServiceImpl implements ports.CustodyService.
type CustodyServiceImpl struct {
	wagerRepo  ports.WagerRepository
	custody    ports.FundCustody
	transactor ports.DBTransactor
	publisher  ports.EventPublisher
	metrics    ports.MetricsRecorder
	log        zerolog.Logger
}

// NewCustodyService creates a new CustodyServiceImpl.
func NewCustodyService(
	wagerRepo ports.WagerRepository,
	custody ports.FundCustody,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	log zerolog.Logger,
) *CustodyServiceImpl {
	return &CustodyServiceImpl{
		wagerRepo:  wagerRepo,
		custody:    custody,
		transactor: transactor,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
	}
}

// Deposit credits amount to holder and returns the new balance.
//
// The authority may fund any account. A player may only fund the custody
// holder of their own wager. Holders of settled or cancelled wagers accept no
// further funds.
func (s *CustodyServiceImpl) Deposit(ctx context.Context, actor domain.Actor, holder string, amount uint64) (uint64, error) {
	start := time.Now()
	bal, err := s.deposit(ctx, actor, holder, amount)
	observe(s.metrics, "deposit", start, err)
	return bal, err
}

func (s *CustodyServiceImpl) deposit(ctx context.Context, actor domain.Actor, holder string, amount uint64) (uint64, error) {
	if holder == "" {
		return 0, apperror.Validation("custody holder is required")
	}
	if amount == 0 {
		return 0, apperror.ErrInvalidAmount()
	}

	bound, err := s.wagerRepo.GetByEscrowID(ctx, holder)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("find wager by custody holder: %w", err))
	}
	if !actor.IsAuthority() && (bound == nil || bound.PlayerID != actor.ID) {
		return 0, apperror.ErrForbiddenActor()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if bound != nil {
		// Re-read under lock so a concurrent settle cannot slip in between.
		locked, err := s.wagerRepo.GetByIDForUpdate(ctx, dbTx, bound.ID)
		if err != nil {
			return 0, lockFailure("lock wager", err)
		}
		if locked != nil && locked.IsTerminal() {
			return 0, apperror.ErrAlreadySettled()
		}
	}

	balance, err := s.custody.Credit(ctx, dbTx, holder, amount)
	if err != nil {
		return 0, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	now := time.Now().UTC()
	if err := s.publisher.Publish(ctx, domain.NewDepositedEvent(holder, actor.ID, amount, now)); err != nil {
		s.log.Warn().Err(err).Str("escrow_id", holder).Msg("failed to publish deposit event")
	}
	s.metrics.AddVolume("deposited", amount)

	s.log.Info().
		Str("escrow_id", holder).
		Str("actor", actor.ID).
		Uint64("amount", amount).
		Uint64("balance", balance).
		Msg("custody funded")

	return balance, nil
}

// Balance reports holder's current balance.
func (s *CustodyServiceImpl) Balance(ctx context.Context, holder string) (uint64, error) {
	if holder == "" {
		return 0, apperror.Validation("custody holder is required")
	}
	return s.custody.BalanceOf(ctx, holder)
}
