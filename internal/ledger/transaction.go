package ledger

import (
	"fmt"
	"strings"
	"time"

	"bet_wallet/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionBetPlacement TransactionType = "bet_placement"
	TransactionBetWinnings  TransactionType = "bet_winnings"
	TransactionBetRefund    TransactionType = "bet_refund"
	TransactionBonus        TransactionType = "bonus"
	TransactionDeposit      TransactionType = "deposit"
)

// IsCredit reports whether the type increases the wallet balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionBetWinnings, TransactionBetRefund, TransactionBonus, TransactionDeposit:
		return true
	}
	return false
}

func (t TransactionType) IsDebit() bool {
	return t == TransactionBetPlacement
}

func (t TransactionType) Valid() bool {
	return t.IsCredit() || t.IsDebit()
}

// Transaction is an immutable ledger entry. Amount is always positive; the
// direction is carried by Type.
type Transaction struct {
	ID             string          `gorm:"column:id;primaryKey;type:uuid"`
	WalletID       string          `gorm:"column:wallet_id;type:uuid;not null;index"`
	Amount         money.Money     `gorm:"embedded"`
	Type           TransactionType `gorm:"column:type;type:varchar(20);not null"`
	Description    string          `gorm:"column:description;type:varchar(200);not null"`
	ReferenceBetID *string         `gorm:"column:reference_bet_id;type:uuid;index"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null"`
}

func newTransaction(walletID string, amount money.Money, txType TransactionType, description string, betRef *string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: transaction amount must be positive, got %s", ErrInvalidAmount, amount)
	}
	description = strings.TrimSpace(description)
	if description == "" || len([]rune(description)) > MaxDescriptionLength {
		return nil, fmt.Errorf("%w: transaction description must be 1-%d characters", ErrInvalidDescription, MaxDescriptionLength)
	}
	if betRef != nil && *betRef == "" {
		return nil, fmt.Errorf("%w: empty bet reference", ErrInvalidReference)
	}
	return &Transaction{
		ID:             uuid.NewString(),
		WalletID:       walletID,
		Amount:         amount,
		Type:           txType,
		Description:    description,
		ReferenceBetID: betRef,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// SetReferenceBet attaches the originating bet once.
func (t *Transaction) SetReferenceBet(betID string) error {
	if betID == "" {
		return fmt.Errorf("%w: empty bet id", ErrInvalidReference)
	}
	if t.ReferenceBetID != nil {
		return fmt.Errorf("%w: transaction %s already references bet %s", ErrAlreadySet, t.ID, *t.ReferenceBetID)
	}
	t.ReferenceBetID = &betID
	return nil
}

// SignedAmount is the contribution of the entry to its wallet balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type.IsDebit() {
		return t.Amount.Amount.Neg()
	}
	return t.Amount.Amount
}
