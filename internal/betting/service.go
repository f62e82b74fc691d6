package betting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bet_wallet/internal/bonus"
	"bet_wallet/internal/config"
	"bet_wallet/internal/ledger"
	"bet_wallet/internal/logger"
	"bet_wallet/internal/money"
	"bet_wallet/internal/notify"
	"bet_wallet/internal/store"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PrizeMultiplier is the fixed payout of a won bet.
var PrizeMultiplier = decimal.NewFromInt(2)

type PlaceBetRequest struct {
	PlayerID    string
	Stake       decimal.Decimal
	Description string
}

type Service interface {
	PlaceBet(ctx context.Context, req PlaceBetRequest) (*ledger.Bet, error)
	GetBet(ctx context.Context, betID string) (*ledger.Bet, error)
	ListBetsByPlayer(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*ledger.Bet], error)
	SettleAsWon(ctx context.Context, betID string) (*ledger.Bet, error)
	SettleAsLost(ctx context.Context, betID string) (*ledger.Bet, error)
	CancelBet(ctx context.Context, betID string) (*ledger.Bet, error)
}

// BetService runs every bet mutation as one unit of work. Rows are locked in
// the order bet, player, wallet.
type BetService struct {
	uow       *store.UnitOfWork
	players   ledger.PlayerRepository
	wallets   ledger.WalletRepository
	bets      ledger.BetRepository
	bonus     *bonus.Service
	publisher notify.Publisher
}

func NewBetService(
	uow *store.UnitOfWork,
	players ledger.PlayerRepository,
	wallets ledger.WalletRepository,
	bets ledger.BetRepository,
	bonusSvc *bonus.Service,
	publisher notify.Publisher,
) *BetService {
	if publisher == nil {
		publisher = notify.Discard{}
	}
	return &BetService{
		uow:       uow,
		players:   players,
		wallets:   wallets,
		bets:      bets,
		bonus:     bonusSvc,
		publisher: publisher,
	}
}

func (s *BetService) PlaceBet(ctx context.Context, req PlaceBetRequest) (*ledger.Bet, error) {
	logger.Info(ctx).
		Str("player_id", req.PlayerID).
		Str("stake", req.Stake.String()).
		Str("description", req.Description).
		Msg("placing bet")

	var (
		bet    *ledger.Bet
		wallet *ledger.Wallet
	)
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		player, err := s.players.Get(ctx, tx, req.PlayerID)
		if err != nil {
			return err
		}
		wallet, err = s.wallets.GetByPlayerIDForUpdate(ctx, tx, player.ID)
		if err != nil {
			return err
		}

		stake, err := money.New(req.Stake, wallet.Balance.Currency)
		if err != nil {
			return fmt.Errorf("%w: %w", ledger.ErrInvalidStake, err)
		}
		if ok, err := wallet.Balance.LessThan(stake); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: requested %s, available %s", ledger.ErrInsufficientFunds, stake, wallet.Balance)
		}

		bet, err = ledger.NewBet(player.ID, stake, req.Description)
		if err != nil {
			return err
		}
		debit, err := wallet.Debit(stake, ledger.TransactionBetPlacement, "Bet placement: "+bet.ID, nil)
		if err != nil {
			return err
		}
		if err := debit.SetReferenceBet(bet.ID); err != nil {
			return err
		}
		if err := bet.SetPlacementTransaction(debit.ID); err != nil {
			return err
		}

		if err := s.bets.Create(ctx, tx, bet); err != nil {
			return err
		}
		return s.wallets.Save(ctx, tx, wallet)
	})
	if err != nil {
		s.logFailure(ctx, err, "place bet", "player_id", req.PlayerID)
		return nil, err
	}

	logger.Info(ctx).
		Str("bet_id", bet.ID).
		Str("player_id", bet.PlayerID).
		Str("balance", wallet.Balance.String()).
		Msg("bet placed")
	s.publish(ctx, betEvent(notify.BetPlaced, bet, bet.BetTransactionID, bet.Stake, wallet))
	return bet, nil
}

func (s *BetService) GetBet(ctx context.Context, betID string) (*ledger.Bet, error) {
	bet, err := s.bets.Get(ctx, nil, betID)
	if err != nil {
		s.logFailure(ctx, err, "get bet", "bet_id", betID)
		return nil, err
	}
	return bet, nil
}

func (s *BetService) ListBetsByPlayer(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*ledger.Bet], error) {
	if _, err := s.players.Get(ctx, nil, playerID); err != nil {
		s.logFailure(ctx, err, "list bets", "player_id", playerID)
		return ledger.Page[*ledger.Bet]{}, err
	}

	result, err := s.bets.ListByPlayer(ctx, playerID, page, pageSize)
	if err != nil {
		return ledger.Page[*ledger.Bet]{}, err
	}
	logger.Debug(ctx).
		Str("player_id", playerID).
		Int("count", len(result.Items)).
		Int64("total", result.TotalCount).
		Msg("bets listed")
	return result, nil
}

func (s *BetService) SettleAsWon(ctx context.Context, betID string) (*ledger.Bet, error) {
	logger.Info(ctx).Str("bet_id", betID).Msg("settling bet as won")

	var (
		bet    *ledger.Bet
		wallet *ledger.Wallet
		prize  money.Money
	)
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var err error
		bet, err = s.lockPendingBet(ctx, tx, betID, "settle as won")
		if err != nil {
			return err
		}

		if s.bonus.Policy().Reset == config.ResetOnWin {
			player, err := s.players.GetForUpdate(ctx, tx, bet.PlayerID)
			if err != nil {
				return s.integrityError(ctx, err, bet)
			}
			if player.ConsecutiveLosses > 0 {
				player.ResetConsecutiveLosses()
				if err := s.players.UpdateLossStreak(ctx, tx, player); err != nil {
					return err
				}
			}
		}

		wallet, err = s.wallets.GetByPlayerIDForUpdate(ctx, tx, bet.PlayerID)
		if err != nil {
			return s.integrityError(ctx, err, bet)
		}

		prize = bet.Stake.Multiply(PrizeMultiplier)
		credit, err := wallet.RecordWinnings(prize, "Winnings for bet: "+bet.ID, bet.ID)
		if err != nil {
			return err
		}
		if err := bet.SettleAsWon(credit.ID, prize); err != nil {
			return err
		}

		if err := s.bets.SaveTransition(ctx, tx, bet); err != nil {
			return err
		}
		return s.wallets.Save(ctx, tx, wallet)
	})
	if err != nil {
		s.logFailure(ctx, err, "settle bet as won", "bet_id", betID)
		return nil, err
	}

	logger.Info(ctx).
		Str("bet_id", bet.ID).
		Str("player_id", bet.PlayerID).
		Str("prize", prize.String()).
		Msg("bet settled as won")
	s.publish(ctx, betEvent(notify.BetWon, bet, *bet.PrizeTransactionID, prize, wallet))
	return bet, nil
}

func (s *BetService) SettleAsLost(ctx context.Context, betID string) (*ledger.Bet, error) {
	logger.Info(ctx).Str("bet_id", betID).Msg("settling bet as lost")

	var (
		bet    *ledger.Bet
		wallet *ledger.Wallet
		award  *bonus.Award
	)
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var err error
		award = nil
		bet, err = s.lockPendingBet(ctx, tx, betID, "settle as lost")
		if err != nil {
			return err
		}

		player, err := s.players.GetForUpdate(ctx, tx, bet.PlayerID)
		if err != nil {
			return s.integrityError(ctx, err, bet)
		}
		wallet, err = s.wallets.GetByPlayerIDForUpdate(ctx, tx, bet.PlayerID)
		if err != nil {
			return s.integrityError(ctx, err, bet)
		}

		if err := bet.SettleAsLost(); err != nil {
			return err
		}
		if err := s.bets.SaveTransition(ctx, tx, bet); err != nil {
			return err
		}

		player.IncrementConsecutiveLosses()
		award, err = s.bonus.Apply(ctx, tx, player, wallet, bet)
		if err != nil {
			return err
		}
		if err := s.players.UpdateLossStreak(ctx, tx, player); err != nil {
			return err
		}
		if award == nil {
			return nil
		}
		if err := s.wallets.Save(ctx, tx, wallet); err != nil {
			return err
		}
		return s.bonus.Record(ctx, tx, award)
	})
	if err != nil {
		s.logFailure(ctx, err, "settle bet as lost", "bet_id", betID)
		return nil, err
	}

	logger.Info(ctx).
		Str("bet_id", bet.ID).
		Str("player_id", bet.PlayerID).
		Bool("bonus", award != nil).
		Msg("bet settled as lost")
	s.publish(ctx, betEvent(notify.BetLost, bet, "", bet.Stake, wallet))
	if award != nil {
		s.publish(ctx, betEvent(notify.BonusAwarded, bet, award.TransactionID, award.Amount, wallet))
	}
	return bet, nil
}

func (s *BetService) CancelBet(ctx context.Context, betID string) (*ledger.Bet, error) {
	logger.Info(ctx).Str("bet_id", betID).Msg("cancelling bet")

	var (
		bet    *ledger.Bet
		wallet *ledger.Wallet
	)
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var err error
		bet, err = s.lockPendingBet(ctx, tx, betID, "cancel")
		if err != nil {
			return err
		}
		wallet, err = s.wallets.GetByPlayerIDForUpdate(ctx, tx, bet.PlayerID)
		if err != nil {
			return s.integrityError(ctx, err, bet)
		}

		refund, err := wallet.RecordRefund(bet.Stake, "Refund for cancelled bet: "+bet.ID, bet.ID)
		if err != nil {
			return err
		}
		if err := bet.Cancel(refund.ID); err != nil {
			return err
		}

		if err := s.bets.SaveTransition(ctx, tx, bet); err != nil {
			return err
		}
		return s.wallets.Save(ctx, tx, wallet)
	})
	if err != nil {
		s.logFailure(ctx, err, "cancel bet", "bet_id", betID)
		return nil, err
	}

	logger.Info(ctx).
		Str("bet_id", bet.ID).
		Str("player_id", bet.PlayerID).
		Msg("bet cancelled")
	s.publish(ctx, betEvent(notify.BetCancelled, bet, *bet.RefundTransactionID, bet.Stake, wallet))
	return bet, nil
}

func (s *BetService) lockPendingBet(ctx context.Context, tx *gorm.DB, betID string, action string) (*ledger.Bet, error) {
	bet, err := s.bets.GetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if bet.IsSettled() {
		return nil, fmt.Errorf("%w: cannot %s bet %s, current status %s, expected %s",
			ledger.ErrInvalidBetStatus, action, bet.ID, bet.Status, ledger.BetPending)
	}
	return bet, nil
}

// integrityError flags a bet whose player or wallet has vanished.
func (s *BetService) integrityError(ctx context.Context, err error, bet *ledger.Bet) error {
	if errors.Is(err, ledger.ErrNotFound) {
		logger.Error(ctx).
			Err(err).
			Str("bet_id", bet.ID).
			Str("player_id", bet.PlayerID).
			Msg("data integrity: bet references a missing player or wallet")
	}
	return err
}

func (s *BetService) logFailure(ctx context.Context, err error, op string, key, value string) {
	ev := logger.Error(ctx)
	switch {
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrConflict),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrConcurrentUpdate),
		ledger.IsInvalidInput(err):
		ev = logger.Warn(ctx)
	}
	ev.Err(err).Str(key, value).Msgf("failed to %s", op)
}

func (s *BetService) publish(ctx context.Context, event notify.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).Str("event", string(event.Type)).Msg("failed to publish event")
	}
}

func betEvent(typ notify.EventType, bet *ledger.Bet, txID string, amount money.Money, wallet *ledger.Wallet) notify.Event {
	return notify.Event{
		Type:          typ,
		PlayerID:      bet.PlayerID,
		BetID:         bet.ID,
		TransactionID: txID,
		Amount:        amount.Amount.StringFixed(money.Scale),
		Currency:      amount.Currency,
		Balance:       wallet.Balance.Amount.StringFixed(money.Scale),
		Timestamp:     time.Now().UTC(),
	}
}
