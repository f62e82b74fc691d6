package handler

import (
	"time"

	"bet_wallet/internal/bonus"
	"bet_wallet/internal/ledger"

	"github.com/shopspring/decimal"
)

type registerRequest struct {
	Username       string          `json:"username" binding:"required,min=3,max=50"`
	Email          string          `json:"email" binding:"required,email"`
	Password       string          `json:"password" binding:"required,min=8,max=72"`
	InitialBalance decimal.Decimal `json:"initial_balance" binding:"required,money"`
	Currency       string          `json:"currency" binding:"required,currency"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type placeBetRequest struct {
	PlayerID    string          `json:"player_id" binding:"required,uuid"`
	Stake       decimal.Decimal `json:"stake" binding:"required,money"`
	Description string          `json:"description" binding:"required,max=200"`
}

type depositRequest struct {
	PlayerID    string          `json:"player_id" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" binding:"required,money"`
	Description string          `json:"description" binding:"max=200"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type playerResponse struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

func newPlayerResponse(p *ledger.Player, w *ledger.Wallet) playerResponse {
	return playerResponse{
		ID:       p.ID,
		Username: p.Username,
		Email:    p.Email,
		Balance:  w.Balance.Amount,
		Currency: w.Balance.Currency,
	}
}

type authResponse struct {
	Player          playerResponse `json:"player"`
	Token           string         `json:"token"`
	TokenExpiration time.Time      `json:"token_expiration"`
}

type balanceResponse struct {
	PlayerID  string          `json:"player_id"`
	WalletID  string          `json:"wallet_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type betResponse struct {
	ID                  string           `json:"id"`
	PlayerID            string           `json:"player_id"`
	Stake               decimal.Decimal  `json:"stake"`
	Currency            string           `json:"currency"`
	Description         string           `json:"description"`
	Status              ledger.BetStatus `json:"status"`
	Prize               *decimal.Decimal `json:"prize,omitempty"`
	BetTransactionID    string           `json:"bet_transaction_id,omitempty"`
	PrizeTransactionID  *string          `json:"prize_transaction_id,omitempty"`
	RefundTransactionID *string          `json:"refund_transaction_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

func newBetResponse(b *ledger.Bet) betResponse {
	resp := betResponse{
		ID:                  b.ID,
		PlayerID:            b.PlayerID,
		Stake:               b.Stake.Amount,
		Currency:            b.Stake.Currency,
		Description:         b.Description,
		Status:              b.Status,
		BetTransactionID:    b.BetTransactionID,
		PrizeTransactionID:  b.PrizeTransactionID,
		RefundTransactionID: b.RefundTransactionID,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
	if b.PrizeAmount.Valid {
		prize := b.PrizeAmount.Decimal
		resp.Prize = &prize
	}
	return resp
}

type transactionResponse struct {
	ID             string                 `json:"id"`
	WalletID       string                 `json:"wallet_id"`
	Amount         decimal.Decimal        `json:"amount"`
	Currency       string                 `json:"currency"`
	Type           ledger.TransactionType `json:"type"`
	Description    string                 `json:"description"`
	ReferenceBetID *string                `json:"reference_bet_id,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

func newTransactionResponse(t *ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:             t.ID,
		WalletID:       t.WalletID,
		Amount:         t.Amount.Amount,
		Currency:       t.Amount.Currency,
		Type:           t.Type,
		Description:    t.Description,
		ReferenceBetID: t.ReferenceBetID,
		CreatedAt:      t.CreatedAt,
	}
}

type bonusResponse struct {
	ID            string          `json:"id"`
	BetID         string          `json:"bet_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	StakeSum      decimal.Decimal `json:"stake_sum"`
	LossStreak    int             `json:"loss_streak"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newBonusResponse(a *bonus.Award) bonusResponse {
	return bonusResponse{
		ID:            a.ID,
		BetID:         a.BetID,
		TransactionID: a.TransactionID,
		Amount:        a.Amount.Amount,
		Currency:      a.Amount.Currency,
		StakeSum:      a.StakeSum,
		LossStreak:    a.LossStreak,
		CreatedAt:     a.CreatedAt,
	}
}

type pageResponse[T any] struct {
	Items       []T   `json:"items"`
	PageNumber  int   `json:"page_number"`
	PageSize    int   `json:"page_size"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
	HasPrevious bool  `json:"has_previous_page"`
	HasNext     bool  `json:"has_next_page"`
}

func newPageResponse[S, T any](p ledger.Page[S], convert func(S) T) pageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, convert(item))
	}
	return pageResponse[T]{
		Items:       items,
		PageNumber:  p.Page,
		PageSize:    p.PageSize,
		TotalCount:  p.TotalCount,
		TotalPages:  p.TotalPages(),
		HasPrevious: p.HasPrevious(),
		HasNext:     p.HasNext(),
	}
}
