package ledger

import (
	"fmt"
	"strings"
	"time"

	"bet_wallet/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const MaxDescriptionLength = 200

// MinStake is exclusive: a stake must be strictly greater than one unit.
var MinStake = decimal.NewFromInt(1)

type BetStatus string

const (
	BetPending   BetStatus = "pending"
	BetWon       BetStatus = "won"
	BetLost      BetStatus = "lost"
	BetCancelled BetStatus = "cancelled"
)

type Bet struct {
	ID                  string              `gorm:"column:id;primaryKey;type:uuid"`
	PlayerID            string              `gorm:"column:player_id;type:uuid;not null;index:idx_bets_player_created,priority:1"`
	Stake               money.Money         `gorm:"embedded;embeddedPrefix:stake_"`
	Description         string              `gorm:"column:description;type:varchar(200);not null"`
	Status              BetStatus           `gorm:"column:status;type:varchar(20);not null"`
	PrizeAmount         decimal.NullDecimal `gorm:"column:prize_amount;type:numeric(20,2)"`
	BetTransactionID    string              `gorm:"column:bet_transaction_id;type:uuid"`
	PrizeTransactionID  *string             `gorm:"column:prize_transaction_id;type:uuid"`
	RefundTransactionID *string             `gorm:"column:refund_transaction_id;type:uuid"`
	CreatedAt           time.Time           `gorm:"column:created_at;not null;index:idx_bets_player_created,priority:2"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;not null"`
}

func NewBet(playerID string, stake money.Money, description string) (*Bet, error) {
	if !stake.IsPositive() || stake.Amount.LessThanOrEqual(MinStake) {
		return nil, fmt.Errorf("%w: stake must be greater than %s", ErrInvalidStake, money.Money{Amount: MinStake, Currency: stake.Currency})
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description cannot be empty", ErrInvalidDescription)
	}
	if len([]rune(description)) > MaxDescriptionLength {
		return nil, fmt.Errorf("%w: description longer than %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}
	now := time.Now().UTC()
	return &Bet{
		ID:          uuid.NewString(),
		PlayerID:    playerID,
		Stake:       stake,
		Description: description,
		Status:      BetPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SetPlacementTransaction attaches the stake debit once.
func (b *Bet) SetPlacementTransaction(txID string) error {
	if txID == "" {
		return fmt.Errorf("%w: empty placement transaction id", ErrInvalidReference)
	}
	if b.BetTransactionID != "" {
		return fmt.Errorf("%w: bet %s already has placement transaction %s", ErrAlreadySet, b.ID, b.BetTransactionID)
	}
	b.BetTransactionID = txID
	b.touch()
	return nil
}

func (b *Bet) SettleAsWon(prizeTxID string, prize money.Money) error {
	if err := b.requirePending("settle as won"); err != nil {
		return err
	}
	if prizeTxID == "" {
		return fmt.Errorf("%w: empty prize transaction id", ErrInvalidReference)
	}
	if prize.Currency != b.Stake.Currency {
		return fmt.Errorf("%w: stake is %s, prize is %s", money.ErrCurrencyMismatch, b.Stake.Currency, prize.Currency)
	}
	if !prize.IsPositive() {
		return fmt.Errorf("%w: prize must be positive", ErrInvalidAmount)
	}
	b.Status = BetWon
	b.PrizeTransactionID = &prizeTxID
	b.PrizeAmount = decimal.NewNullDecimal(prize.Amount)
	b.touch()
	return nil
}

func (b *Bet) SettleAsLost() error {
	if err := b.requirePending("settle as lost"); err != nil {
		return err
	}
	b.Status = BetLost
	b.touch()
	return nil
}

func (b *Bet) Cancel(refundTxID string) error {
	if err := b.requirePending("cancel"); err != nil {
		return err
	}
	if refundTxID == "" {
		return fmt.Errorf("%w: empty refund transaction id", ErrInvalidReference)
	}
	b.Status = BetCancelled
	b.RefundTransactionID = &refundTxID
	b.touch()
	return nil
}

// Prize returns the credited prize of a won bet.
func (b *Bet) Prize() (money.Money, bool) {
	if !b.PrizeAmount.Valid {
		return money.Money{}, false
	}
	return money.Money{Amount: b.PrizeAmount.Decimal, Currency: b.Stake.Currency}, true
}

func (b *Bet) IsSettled() bool      { return b.Status != BetPending }
func (b *Bet) CanBeCancelled() bool { return b.Status == BetPending }

func (b *Bet) requirePending(action string) error {
	if b.Status != BetPending {
		return fmt.Errorf("%w: cannot %s bet %s, current status %s", ErrInvalidBetStatus, action, b.ID, b.Status)
	}
	return nil
}

func (b *Bet) touch() {
	b.UpdatedAt = time.Now().UTC()
}
