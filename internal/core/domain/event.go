package domain

import "time"

// EventType names a ledger lifecycle event.
type EventType string

const (
	EventWagerOpened      EventType = "wager.opened"
	EventWagerSettled     EventType = "wager.settled"
	EventWagerCancelled   EventType = "wager.cancelled"
	EventCustodyDeposited EventType = "custody.deposited"
)

// LedgerEvent is published after a committed state change.
type LedgerEvent struct {
	Type         EventType `json:"type"`
	WagerID      string    `json:"wager_id,omitempty"`
	EscrowID     string    `json:"escrow_id"`
	PlayerID     string    `json:"player_id,omitempty"`
	Actor        string    `json:"actor"`
	Amount       uint64    `json:"amount"`
	Winner       string    `json:"winner,omitempty"`
	WinnerAmount uint64    `json:"winner_amount,omitempty"`
	Admin        string    `json:"admin,omitempty"`
	AdminAmount  uint64    `json:"admin_amount,omitempty"`
	Residual     uint64    `json:"residual,omitempty"`
	OccurredAt   int64     `json:"occurred_at_ms"`
}

// Key partitions events by custody holder so one wager's events stay ordered.
func (e LedgerEvent) Key() string {
	return e.EscrowID
}

// NewOpenedEvent describes a newly opened wager. Amount carries the stake.
func NewOpenedEvent(w *Wager, actor string) LedgerEvent {
	return LedgerEvent{
		Type:       EventWagerOpened,
		WagerID:    w.ID.String(),
		EscrowID:   w.EscrowID,
		PlayerID:   w.PlayerID,
		Actor:      actor,
		Amount:     w.WagerAmount,
		OccurredAt: w.CreatedAt.UnixMilli(),
	}
}

// NewSettledEvent describes a settlement split. Amount is the total disbursed.
func NewSettledEvent(w *Wager, actor, winner string, winnerAmount uint64, admin string, adminAmount, residual uint64) LedgerEvent {
	return LedgerEvent{
		Type:         EventWagerSettled,
		WagerID:      w.ID.String(),
		EscrowID:     w.EscrowID,
		PlayerID:     w.PlayerID,
		Actor:        actor,
		Amount:       winnerAmount + adminAmount,
		Winner:       winner,
		WinnerAmount: winnerAmount,
		Admin:        admin,
		AdminAmount:  adminAmount,
		Residual:     residual,
		OccurredAt:   terminalMillis(w),
	}
}

// NewCancelledEvent describes a full refund to recipient.
func NewCancelledEvent(w *Wager, actor, recipient string, refunded uint64) LedgerEvent {
	return LedgerEvent{
		Type:         EventWagerCancelled,
		WagerID:      w.ID.String(),
		EscrowID:     w.EscrowID,
		PlayerID:     w.PlayerID,
		Actor:        actor,
		Amount:       refunded,
		Winner:       recipient,
		WinnerAmount: refunded,
		OccurredAt:   terminalMillis(w),
	}
}

// NewDepositedEvent describes funds arriving at a custody holder.
func NewDepositedEvent(escrowID, actor string, amount uint64, at time.Time) LedgerEvent {
	return LedgerEvent{
		Type:       EventCustodyDeposited,
		EscrowID:   escrowID,
		Actor:      actor,
		Amount:     amount,
		OccurredAt: at.UnixMilli(),
	}
}

func terminalMillis(w *Wager) int64 {
	if w.SettledAt != nil {
		return w.SettledAt.UnixMilli()
	}
	return time.Now().UnixMilli()
}
