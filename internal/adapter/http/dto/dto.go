package dto

// OpenWagerRequest is the request body for opening a wager. The player is
// the authenticated actor.
type OpenWagerRequest struct {
	EscrowID    string `json:"escrow_id" binding:"omitempty,max=100,safe_id"`
	Nonce       uint8  `json:"nonce"`
	WagerAmount uint64 `json:"wager_amount"`
}

// SettleWagerRequest is the request body for settling a wager.
type SettleWagerRequest struct {
	EscrowID     string `json:"escrow_id" binding:"required,max=100,safe_id"`
	Winner       string `json:"winner" binding:"required,max=100,safe_id"`
	Admin        string `json:"admin" binding:"omitempty,max=100,safe_id"`
	WinnerAmount uint64 `json:"winner_amount"`
	AdminAmount  uint64 `json:"admin_amount"`
}

// CancelWagerRequest is the request body for cancelling a wager.
type CancelWagerRequest struct {
	EscrowID string `json:"escrow_id" binding:"required,max=100,safe_id"`
	Player   string `json:"player" binding:"required,max=100,safe_id"`
}

// DepositRequest is the request body for funding a custody holder.
type DepositRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}

// WagerResponse is the response body for a single wager.
type WagerResponse struct {
	ID          string  `json:"id"`
	PlayerID    string  `json:"player_id"`
	EscrowID    string  `json:"escrow_id"`
	WagerAmount uint64  `json:"wager_amount"`
	Nonce       uint8   `json:"nonce"`
	Settled     bool    `json:"settled"`
	Outcome     string  `json:"outcome"`
	CreatedAt   string  `json:"created_at"`
	SettledAt   *string `json:"settled_at,omitempty"`
}

// WagerListResponse wraps a paginated wager list.
type WagerListResponse struct {
	Items      []WagerResponse `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// SettleResponse reports a completed settlement.
type SettleResponse struct {
	Wager        WagerResponse `json:"wager"`
	Winner       string        `json:"winner"`
	WinnerAmount uint64        `json:"winner_amount"`
	Admin        string        `json:"admin"`
	AdminAmount  uint64        `json:"admin_amount"`
	Residual     uint64        `json:"residual"`
}

// CancelResponse reports a completed refund.
type CancelResponse struct {
	Wager     WagerResponse `json:"wager"`
	Recipient string        `json:"recipient"`
	Refunded  uint64        `json:"refunded"`
}

// BalanceResponse is the response for custody balance queries and deposits.
type BalanceResponse struct {
	Holder  string `json:"holder"`
	Balance uint64 `json:"balance"`
}
