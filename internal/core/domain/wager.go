package domain

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// WagerOutcome records how (and whether) a wager reached its terminal state.
type WagerOutcome string

const (
	WagerOutcomeOpen      WagerOutcome = "OPEN"
	WagerOutcomeSettled   WagerOutcome = "SETTLED"
	WagerOutcomeCancelled WagerOutcome = "CANCELLED"
)

// ErrWagerExists is returned by storage when a custody holder is already bound to a wager.
var ErrWagerExists = errors.New("wager already exists for custody holder")

// custodyNamespace scopes custody ids derived from player+nonce.
var custodyNamespace = uuid.MustParse("6f1c8a8e-4a36-4d0f-9a51-2b9f3c7d5e10")

// Wager is one escrowed stake between a player and the settlement authority.
// PlayerID, EscrowID, WagerAmount and Nonce never change after creation.
type Wager struct {
	ID          uuid.UUID    `json:"id"`
	PlayerID    string       `json:"player_id"`
	WagerAmount uint64       `json:"wager_amount"` // bookkeeping only, never enforced against balances
	EscrowID    string       `json:"escrow_id"`
	Settled     bool         `json:"settled"`
	Nonce       uint8        `json:"nonce"`
	Outcome     WagerOutcome `json:"outcome"`
	CreatedAt   time.Time    `json:"created_at"`
	SettledAt   *time.Time   `json:"settled_at,omitempty"`
}

// IsTerminal reports whether the wager has already been settled or cancelled.
func (w *Wager) IsTerminal() bool {
	return w.Settled
}

// BoundTo reports whether custodyID is the holder recorded at creation.
func (w *Wager) BoundTo(custodyID string) bool {
	return w.EscrowID == custodyID
}

// DeriveCustodyID returns the deterministic custody holder id for a player and nonce.
// Different nonces give the same player independent holders.
func DeriveCustodyID(playerID string, nonce uint8) string {
	seed := playerID + ":" + strconv.FormatUint(uint64(nonce), 10)
	return uuid.NewSHA1(custodyNamespace, []byte(seed)).String()
}
