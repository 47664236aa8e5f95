package domain

import "time"

// Account is a fund-holding account of record: a custody holder, a player,
// a winner or an admin fee recipient. Balances are uint64 in the smallest unit.
type Account struct {
	ID               string    `json:"id"`
	EncryptedBalance string    `json:"-"` // AES-256 encrypted decimal string
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
