package wallet

import (
	"context"
	"fmt"
	"time"

	"bet_wallet/internal/ledger"
	"bet_wallet/internal/logger"
	"bet_wallet/internal/money"
	"bet_wallet/internal/notify"
	"bet_wallet/internal/store"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	CreateDeposit(ctx context.Context, req DepositRequest) (*ledger.Transaction, error)
	ListTransactionsByPlayer(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*ledger.Transaction], error)
	GetBalance(ctx context.Context, playerID string) (*Balance, error)
	Reconcile(ctx context.Context, playerID string) (*Reconciliation, error)
}

type WalletService struct {
	uow          *store.UnitOfWork
	players      ledger.PlayerRepository
	wallets      ledger.WalletRepository
	transactions ledger.TransactionRepository
	publisher    notify.Publisher
}

func NewWalletService(
	uow *store.UnitOfWork,
	players ledger.PlayerRepository,
	wallets ledger.WalletRepository,
	transactions ledger.TransactionRepository,
	publisher notify.Publisher,
) *WalletService {
	if publisher == nil {
		publisher = notify.Discard{}
	}
	return &WalletService{
		uow:          uow,
		players:      players,
		wallets:      wallets,
		transactions: transactions,
		publisher:    publisher,
	}
}

// CreateDeposit credits amount, in the wallet's currency, to the player's wallet.
func (s *WalletService) CreateDeposit(ctx context.Context, req DepositRequest) (*ledger.Transaction, error) {
	logger.Info(ctx).
		Str("player_id", req.PlayerID).
		Str("amount", req.Amount.String()).
		Msg("creating deposit")

	var (
		deposit *ledger.Transaction
		wallet  *ledger.Wallet
	)
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		player, err := s.players.Get(ctx, tx, req.PlayerID)
		if err != nil {
			return err
		}
		wallet, err = s.wallets.GetByPlayerIDForUpdate(ctx, tx, player.ID)
		if err != nil {
			if ledger.IsNotFound(err) {
				logger.Error(ctx).Str("player_id", player.ID).Msg("data integrity: player has no wallet")
			}
			return err
		}

		amount, err := money.New(req.Amount, wallet.Balance.Currency)
		if err != nil {
			return fmt.Errorf("%w: %w", ledger.ErrInvalidAmount, err)
		}
		deposit, err = wallet.RecordDeposit(amount, req.Description)
		if err != nil {
			return err
		}
		return s.wallets.Save(ctx, tx, wallet)
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Str("player_id", req.PlayerID).Msg("failed to create deposit")
		return nil, err
	}

	logger.Info(ctx).
		Str("player_id", req.PlayerID).
		Str("transaction_id", deposit.ID).
		Str("balance", wallet.Balance.String()).
		Msg("deposit created")

	event := notify.Event{
		Type:          notify.DepositCreated,
		PlayerID:      req.PlayerID,
		TransactionID: deposit.ID,
		Amount:        deposit.Amount.Amount.StringFixed(money.Scale),
		Currency:      deposit.Amount.Currency,
		Balance:       wallet.Balance.Amount.StringFixed(money.Scale),
		Timestamp:     time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).Str("event", string(event.Type)).Msg("failed to publish event")
	}
	return deposit, nil
}

// ListTransactionsByPlayer returns one page of the player's ledger entries,
// newest first.
func (s *WalletService) ListTransactionsByPlayer(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*ledger.Transaction], error) {
	w, err := s.walletOf(ctx, playerID)
	if err != nil {
		return ledger.Page[*ledger.Transaction]{}, err
	}

	result, err := s.transactions.ListByWallet(ctx, w.ID, page, pageSize)
	if err != nil {
		return ledger.Page[*ledger.Transaction]{}, err
	}
	logger.Debug(ctx).
		Str("player_id", playerID).
		Str("wallet_id", w.ID).
		Int("count", len(result.Items)).
		Msg("transactions listed")
	return result, nil
}

func (s *WalletService) GetBalance(ctx context.Context, playerID string) (*Balance, error) {
	w, err := s.walletOf(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		PlayerID:  w.PlayerID,
		WalletID:  w.ID,
		Balance:   w.Balance,
		UpdatedAt: w.UpdatedAt,
	}, nil
}

// Reconcile recomputes the balance from the wallet's entries. Both are read in
// one transaction so the comparison sees a single snapshot.
func (s *WalletService) Reconcile(ctx context.Context, playerID string) (*Reconciliation, error) {
	var result *Reconciliation
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		w, err := s.wallets.GetByPlayerID(ctx, tx, playerID)
		if err != nil {
			return err
		}
		txs, err := s.transactions.ListAllByWallet(ctx, tx, w.ID)
		if err != nil {
			return err
		}

		sum := decimal.Zero
		for _, t := range txs {
			sum = sum.Add(t.SignedAmount())
		}
		result = &Reconciliation{
			WalletID:         w.ID,
			Balance:          w.Balance.Amount,
			TransactionSum:   sum,
			TransactionCount: len(txs),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Balanced() {
		logger.Error(ctx).
			Str("player_id", playerID).
			Str("wallet_id", result.WalletID).
			Str("balance", result.Balance.String()).
			Str("transaction_sum", result.TransactionSum.String()).
			Msg("data integrity: wallet balance does not match its transactions")
	}
	return result, nil
}

func (s *WalletService) walletOf(ctx context.Context, playerID string) (*ledger.Wallet, error) {
	if _, err := s.players.Get(ctx, nil, playerID); err != nil {
		logger.Warn(ctx).Err(err).Str("player_id", playerID).Msg("player lookup failed")
		return nil, err
	}
	w, err := s.wallets.GetByPlayerID(ctx, nil, playerID)
	if err != nil {
		if ledger.IsNotFound(err) {
			logger.Error(ctx).Str("player_id", playerID).Msg("data integrity: player has no wallet")
		}
		return nil, err
	}
	return w, nil
}
