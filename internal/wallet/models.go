package wallet

import (
	"time"

	"bet_wallet/internal/money"

	"github.com/shopspring/decimal"
)

type DepositRequest struct {
	PlayerID    string
	Amount      decimal.Decimal
	Description string
}

type Balance struct {
	PlayerID  string
	WalletID  string
	Balance   money.Money
	UpdatedAt time.Time
}

// Reconciliation compares a stored balance with the sum of its entries.
type Reconciliation struct {
	WalletID         string
	Balance          decimal.Decimal
	TransactionSum   decimal.Decimal
	TransactionCount int
}

func (r Reconciliation) Balanced() bool {
	return r.Balance.Equal(r.TransactionSum)
}
