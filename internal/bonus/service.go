package bonus

import (
	"context"
	"fmt"
	"time"

	"bet_wallet/internal/config"
	"bet_wallet/internal/ledger"
	"bet_wallet/internal/logger"
	"bet_wallet/internal/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StakeHistory is the part of the bet store the policy reads.
type StakeHistory interface {
	SumRecentStakes(ctx context.Context, tx *gorm.DB, playerID string, n int, currency string) (money.Money, error)
}

type Service struct {
	repo   Repository
	stakes StakeHistory
	policy Policy
}

func NewService(repo Repository, stakes StakeHistory, policy Policy) *Service {
	return &Service{repo: repo, stakes: stakes, policy: policy}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// Apply runs after a loss has been counted on player. When the streak reaches
// the threshold it credits the bonus to wallet and returns the unsaved award;
// otherwise it returns nil. The caller saves wallet, then records the award
// with Record, all inside tx.
func (s *Service) Apply(ctx context.Context, tx *gorm.DB, player *ledger.Player, wallet *ledger.Wallet, bet *ledger.Bet) (*Award, error) {
	if !s.policy.Eligible(player) {
		return nil, nil
	}

	stakeSum, err := s.stakes.SumRecentStakes(ctx, tx, player.ID, s.policy.Window, wallet.Balance.Currency)
	if err != nil {
		return nil, err
	}
	amount := s.policy.Compute(stakeSum)
	if !amount.IsPositive() {
		logger.Warn(ctx).
			Str("player_id", player.ID).
			Str("bet_id", bet.ID).
			Str("stake_sum", stakeSum.String()).
			Msg("bonus rounds to zero, skipping")
		return nil, nil
	}

	streak := player.ConsecutiveLosses
	credit, err := wallet.RecordBonus(amount, fmt.Sprintf("Bonus for %d loss streak: %s", streak, bet.ID), bet.ID)
	if err != nil {
		return nil, err
	}
	if s.policy.Reset == config.ResetOnAward {
		player.ResetConsecutiveLosses()
	}

	logger.Info(ctx).
		Str("player_id", player.ID).
		Str("bet_id", bet.ID).
		Str("amount", amount.String()).
		Int("loss_streak", streak).
		Msg("loss streak bonus awarded")

	return &Award{
		ID:            uuid.NewString(),
		PlayerID:      player.ID,
		BetID:         bet.ID,
		TransactionID: credit.ID,
		Amount:        amount,
		StakeSum:      stakeSum.Amount,
		LossStreak:    streak,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, award *Award) error {
	return s.repo.CreateAward(ctx, tx, award)
}

func (s *Service) ListAwards(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*Award], error) {
	return s.repo.ListByPlayer(ctx, playerID, page, pageSize)
}
