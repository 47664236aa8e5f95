package service

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strconv"

	"wager-escrow/internal/core/ports"
	"wager-escrow/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CustodyLedger implements ports.FundCustody over encrypted account rows.
// All errors it returns are *apperror.AppError.
type CustodyLedger struct {
	accounts ports.AccountRepository
	encSvc   ports.EncryptionService
}

// NewCustodyLedger creates a new CustodyLedger.
func NewCustodyLedger(accounts ports.AccountRepository, encSvc ports.EncryptionService) *CustodyLedger {
	return &CustodyLedger{accounts: accounts, encSvc: encSvc}
}

// Lock ensures and locks holders in ascending id order. Operations that move
// funds between several accounts take all their row locks here first.
func (l *CustodyLedger) Lock(ctx context.Context, tx pgx.Tx, holders ...string) (map[string]uint64, error) {
	ids := make([]string, 0, len(holders))
	seen := make(map[string]bool, len(holders))
	for _, h := range holders {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		ids = append(ids, h)
	}
	sort.Strings(ids)

	balances := make(map[string]uint64, len(ids))
	for _, id := range ids {
		if err := l.ensure(ctx, tx, id); err != nil {
			return nil, err
		}
		bal, _, err := l.lock(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		balances[id] = bal
	}
	return balances, nil
}

// Transfer moves amount from one account to another, locking the pair in id
// order. Rows already held through Lock are re-read under the same lock.
func (l *CustodyLedger) Transfer(ctx context.Context, tx pgx.Tx, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		bal, _, err := l.lock(ctx, tx, from)
		if err != nil {
			return err
		}
		if bal < amount {
			return apperror.ErrInsufficientEscrow()
		}
		return nil
	}

	if err := l.ensure(ctx, tx, to); err != nil {
		return err
	}

	ids := []string{from, to}
	sort.Strings(ids)
	balances := make(map[string]uint64, 2)
	for _, id := range ids {
		bal, _, err := l.lock(ctx, tx, id)
		if err != nil {
			return err
		}
		balances[id] = bal
	}

	if balances[from] < amount {
		return apperror.ErrInsufficientEscrow()
	}
	credited, carry := bits.Add64(balances[to], amount, 0)
	if carry != 0 {
		return apperror.ErrMathOverflow()
	}

	if err := l.store(ctx, tx, from, balances[from]-amount); err != nil {
		return err
	}
	return l.store(ctx, tx, to, credited)
}

// ZeroOut empties holder and returns what it held.
func (l *CustodyLedger) ZeroOut(ctx context.Context, tx pgx.Tx, holder string) (uint64, error) {
	bal, exists, err := l.lock(ctx, tx, holder)
	if err != nil {
		return 0, err
	}
	if !exists || bal == 0 {
		return 0, nil
	}
	if err := l.store(ctx, tx, holder, 0); err != nil {
		return 0, err
	}
	return bal, nil
}

// Credit adds amount to holder, creating the account on first use.
func (l *CustodyLedger) Credit(ctx context.Context, tx pgx.Tx, holder string, amount uint64) (uint64, error) {
	if err := l.ensure(ctx, tx, holder); err != nil {
		return 0, err
	}
	bal, _, err := l.lock(ctx, tx, holder)
	if err != nil {
		return 0, err
	}
	next, carry := bits.Add64(bal, amount, 0)
	if carry != 0 {
		return 0, apperror.ErrMathOverflow()
	}
	if err := l.store(ctx, tx, holder, next); err != nil {
		return 0, err
	}
	return next, nil
}

// BalanceOf reads holder's balance without taking a lock.
func (l *CustodyLedger) BalanceOf(ctx context.Context, holder string) (uint64, error) {
	acc, err := l.accounts.GetByID(ctx, holder)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	if acc == nil {
		return 0, nil
	}
	return l.decode(acc.EncryptedBalance)
}

func (l *CustodyLedger) ensure(ctx context.Context, tx pgx.Tx, id string) error {
	zero, err := l.encSvc.Encrypt("0")
	if err != nil {
		return apperror.ErrEncryptionFailure(fmt.Errorf("encrypt opening balance: %w", err))
	}
	if err := l.accounts.Ensure(ctx, tx, id, zero); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("ensure account: %w", err))
	}
	return nil
}

func (l *CustodyLedger) lock(ctx context.Context, tx pgx.Tx, id string) (uint64, bool, error) {
	acc, err := l.accounts.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return 0, false, lockFailure("lock account", err)
	}
	if acc == nil {
		return 0, false, nil
	}
	bal, err := l.decode(acc.EncryptedBalance)
	if err != nil {
		return 0, true, err
	}
	return bal, true, nil
}

func (l *CustodyLedger) store(ctx context.Context, tx pgx.Tx, id string, balance uint64) error {
	enc, err := l.encSvc.Encrypt(strconv.FormatUint(balance, 10))
	if err != nil {
		return apperror.ErrEncryptionFailure(fmt.Errorf("encrypt balance: %w", err))
	}
	if err := l.accounts.UpdateBalance(ctx, tx, id, enc); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update balance: %w", err))
	}
	return nil
}

func (l *CustodyLedger) decode(encrypted string) (uint64, error) {
	plain, err := l.encSvc.Decrypt(encrypted)
	if err != nil {
		return 0, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt balance: %w", err))
	}
	bal, err := strconv.ParseUint(plain, 10, 64)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("parse balance: %w", err))
	}
	return bal, nil
}

// lockFailure maps a failed SELECT ... FOR UPDATE. Postgres reports an
// expired lock_timeout as SQLSTATE 55P03.
func lockFailure(op string, err error) *apperror.AppError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return apperror.ErrLockTimeout(fmt.Errorf("%s: %w", op, err))
	}
	return apperror.ErrDatabaseError(fmt.Errorf("%s: %w", op, err))
}
