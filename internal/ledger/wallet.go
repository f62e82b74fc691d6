package ledger

import (
	"fmt"
	"time"

	"bet_wallet/internal/money"

	"github.com/google/uuid"
)

// Wallet is the balance root of one player. Credit and Debit are the only
// balance mutators; each appends a Transaction that is written together with
// the wallet row by WalletRepository.Save.
type Wallet struct {
	ID        string      `gorm:"column:id;primaryKey;type:uuid"`
	PlayerID  string      `gorm:"column:player_id;type:uuid;not null;uniqueIndex"`
	Balance   money.Money `gorm:"embedded;embeddedPrefix:balance_"`
	Version   int         `gorm:"column:version;not null;default:1"`
	CreatedAt time.Time   `gorm:"column:created_at;not null"`
	UpdatedAt time.Time   `gorm:"column:updated_at;not null"`

	pending []*Transaction
}

// NewWallet opens an empty wallet in currency.
func NewWallet(playerID string, currency string) (*Wallet, error) {
	zero, err := money.Zero(currency)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Balance:   zero,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanAfford reports whether a debit of amount would leave a non-negative balance.
func (w *Wallet) CanAfford(amount money.Money) (bool, error) {
	cmp, err := w.Balance.Compare(amount)
	if err != nil {
		return false, err
	}
	return amount.IsPositive() && cmp >= 0, nil
}

func (w *Wallet) Credit(amount money.Money, txType TransactionType, description string, betRef *string) (*Transaction, error) {
	if !txType.IsCredit() {
		return nil, fmt.Errorf("%w: %s is not a credit", ErrInvalidTransactionType, txType)
	}
	if amount.Currency != w.Balance.Currency {
		return nil, fmt.Errorf("%w: wallet is %s, credit is %s", money.ErrCurrencyMismatch, w.Balance.Currency, amount.Currency)
	}
	tx, err := newTransaction(w.ID, amount, txType, description, betRef)
	if err != nil {
		return nil, err
	}
	balance, err := w.Balance.Add(amount)
	if err != nil {
		return nil, err
	}
	w.apply(balance, tx)
	return tx, nil
}

func (w *Wallet) Debit(amount money.Money, txType TransactionType, description string, betRef *string) (*Transaction, error) {
	if !txType.IsDebit() {
		return nil, fmt.Errorf("%w: %s is not a debit", ErrInvalidTransactionType, txType)
	}
	if amount.Currency != w.Balance.Currency {
		return nil, fmt.Errorf("%w: wallet is %s, debit is %s", money.ErrCurrencyMismatch, w.Balance.Currency, amount.Currency)
	}
	tx, err := newTransaction(w.ID, amount, txType, description, betRef)
	if err != nil {
		return nil, err
	}
	ok, err := w.CanAfford(amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, w.Balance, amount)
	}
	balance, err := w.Balance.Subtract(amount)
	if err != nil {
		return nil, err
	}
	w.apply(balance, tx)
	return tx, nil
}

func (w *Wallet) RecordDeposit(amount money.Money, description string) (*Transaction, error) {
	if description == "" {
		description = "Account deposit"
	}
	return w.Credit(amount, TransactionDeposit, description, nil)
}

func (w *Wallet) RecordBonus(amount money.Money, description string, betID string) (*Transaction, error) {
	return w.Credit(amount, TransactionBonus, description, &betID)
}

func (w *Wallet) RecordRefund(amount money.Money, description string, betID string) (*Transaction, error) {
	return w.Credit(amount, TransactionBetRefund, description, &betID)
}

func (w *Wallet) RecordWinnings(amount money.Money, description string, betID string) (*Transaction, error) {
	return w.Credit(amount, TransactionBetWinnings, description, &betID)
}

// PendingTransactions returns the entries appended since the wallet was loaded,
// in insertion order.
func (w *Wallet) PendingTransactions() []*Transaction {
	return w.pending
}

func (w *Wallet) clearPending() {
	w.pending = nil
}

func (w *Wallet) apply(balance money.Money, tx *Transaction) {
	w.Balance = balance
	w.pending = append(w.pending, tx)
	w.UpdatedAt = time.Now().UTC()
}
