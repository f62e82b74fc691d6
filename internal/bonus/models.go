package bonus

import (
	"time"

	"bet_wallet/internal/config"
	"bet_wallet/internal/ledger"
	"bet_wallet/internal/money"

	"github.com/shopspring/decimal"
)

// Award records one loss-streak bonus credited to a player's wallet.
type Award struct {
	ID            string          `gorm:"column:id;primaryKey;type:uuid"`
	PlayerID      string          `gorm:"column:player_id;type:uuid;not null;index"`
	BetID         string          `gorm:"column:bet_id;type:uuid;not null;uniqueIndex"`
	TransactionID string          `gorm:"column:transaction_id;type:uuid;not null"`
	Amount        money.Money     `gorm:"embedded"`
	StakeSum      decimal.Decimal `gorm:"column:stake_sum;type:numeric(20,2);not null"`
	LossStreak    int             `gorm:"column:loss_streak;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null"`
}

func (Award) TableName() string {
	return "bonus_awards"
}

// Policy decides who gets a loss-streak bonus and how much.
type Policy struct {
	Threshold int             // consecutive losses needed
	Window    int             // number of most recent stakes summed
	Rate      decimal.Decimal // share of the summed stakes paid out
	Reset     config.ResetPolicy
}

func DefaultPolicy() Policy {
	return Policy{
		Threshold: 5,
		Window:    5,
		Rate:      decimal.NewFromFloat(0.10),
		Reset:     config.ResetNever,
	}
}

func NewPolicy(cfg config.BonusConfig) Policy {
	return Policy{
		Threshold: cfg.LossThreshold,
		Window:    cfg.StakeWindow,
		Rate:      cfg.Rate,
		Reset:     cfg.ResetPolicy,
	}
}

func (p Policy) Eligible(player *ledger.Player) bool {
	return player.IsEligibleForBonus(p.Threshold)
}

// Compute returns the bonus for a sum of stakes, rounded to cents.
func (p Policy) Compute(stakeSum money.Money) money.Money {
	return stakeSum.Multiply(p.Rate).Round()
}
