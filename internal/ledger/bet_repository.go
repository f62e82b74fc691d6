package ledger

import (
	"context"
	"errors"
	"fmt"

	"bet_wallet/internal/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BetRepository interface {
	Create(ctx context.Context, tx *gorm.DB, bet *Bet) error
	Get(ctx context.Context, tx *gorm.DB, betID string) (*Bet, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, betID string) (*Bet, error)
	SaveTransition(ctx context.Context, tx *gorm.DB, bet *Bet) error
	ListByPlayer(ctx context.Context, playerID string, page, pageSize int) (Page[*Bet], error)
	SumRecentStakes(ctx context.Context, tx *gorm.DB, playerID string, n int, currency string) (money.Money, error)
}

type TransactionRepository interface {
	ListByWallet(ctx context.Context, walletID string, page, pageSize int) (Page[*Transaction], error)
	ListAllByWallet(ctx context.Context, tx *gorm.DB, walletID string) ([]*Transaction, error)
}

type BetRepositoryImpl struct {
	db *gorm.DB
}

func NewBetRepository(db *gorm.DB) *BetRepositoryImpl {
	return &BetRepositoryImpl{db: db}
}

func (r *BetRepositoryImpl) Create(ctx context.Context, tx *gorm.DB, bet *Bet) error {
	if err := conn(r.db, tx).WithContext(ctx).Create(bet).Error; err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}
	return nil
}

func (r *BetRepositoryImpl) Get(ctx context.Context, tx *gorm.DB, betID string) (*Bet, error) {
	return r.find(conn(r.db, tx).WithContext(ctx), betID)
}

func (r *BetRepositoryImpl) GetForUpdate(ctx context.Context, tx *gorm.DB, betID string) (*Bet, error) {
	return r.find(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), betID)
}

func (r *BetRepositoryImpl) find(q *gorm.DB, betID string) (*Bet, error) {
	if !isUUID(betID) {
		return nil, ErrBetNotFound
	}
	var b Bet
	if err := q.Where("id = ?", betID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBetNotFound
		}
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	return &b, nil
}

// SaveTransition persists a settlement or cancellation. The update only
// matches a row that is still pending; if another unit settled the bet first
// it fails with ErrConcurrentUpdate.
func (r *BetRepositoryImpl) SaveTransition(ctx context.Context, tx *gorm.DB, bet *Bet) error {
	result := tx.WithContext(ctx).
		Model(&Bet{}).
		Where("id = ? AND status = ?", bet.ID, BetPending).
		Updates(map[string]interface{}{
			"status":                bet.Status,
			"prize_amount":          bet.PrizeAmount,
			"prize_transaction_id":  bet.PrizeTransactionID,
			"refund_transaction_id": bet.RefundTransactionID,
			"updated_at":            bet.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update bet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("bet %s is no longer pending: %w", bet.ID, ErrConcurrentUpdate)
	}
	return nil
}

// ListByPlayer returns one page of the player's bets, newest first.
func (r *BetRepositoryImpl) ListByPlayer(ctx context.Context, playerID string, page, pageSize int) (Page[*Bet], error) {
	if err := validatePage(page, pageSize); err != nil {
		return Page[*Bet]{}, err
	}

	q := r.db.WithContext(ctx).Model(&Bet{}).Where("player_id = ?", playerID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return Page[*Bet]{}, fmt.Errorf("failed to count bets: %w", err)
	}

	var bets []*Bet
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset(page, pageSize)).
		Limit(pageSize).
		Find(&bets).Error
	if err != nil {
		return Page[*Bet]{}, fmt.Errorf("failed to list bets: %w", err)
	}
	return NewPage(bets, total, page, pageSize), nil
}

// SumRecentStakes adds up the stakes of the player's n most recent bets,
// whatever their status.
func (r *BetRepositoryImpl) SumRecentStakes(ctx context.Context, tx *gorm.DB, playerID string, n int, currency string) (money.Money, error) {
	var amounts []decimal.Decimal
	err := conn(r.db, tx).WithContext(ctx).
		Model(&Bet{}).
		Where("player_id = ?", playerID).
		Order("created_at DESC").Order("id DESC").
		Limit(n).
		Pluck("stake_amount", &amounts).Error
	if err != nil {
		return money.Money{}, fmt.Errorf("failed to sum recent stakes: %w", err)
	}

	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return money.New(sum, currency)
}

type TransactionRepositoryImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepositoryImpl {
	return &TransactionRepositoryImpl{db: db}
}

// ListByWallet returns one page of the wallet's entries, newest first.
func (r *TransactionRepositoryImpl) ListByWallet(ctx context.Context, walletID string, page, pageSize int) (Page[*Transaction], error) {
	if err := validatePage(page, pageSize); err != nil {
		return Page[*Transaction]{}, err
	}

	q := r.db.WithContext(ctx).Model(&Transaction{}).Where("wallet_id = ?", walletID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return Page[*Transaction]{}, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txs []*Transaction
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset(page, pageSize)).
		Limit(pageSize).
		Find(&txs).Error
	if err != nil {
		return Page[*Transaction]{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	return NewPage(txs, total, page, pageSize), nil
}

// ListAllByWallet returns every entry of the wallet in booking order.
func (r *TransactionRepositoryImpl) ListAllByWallet(ctx context.Context, tx *gorm.DB, walletID string) ([]*Transaction, error) {
	var txs []*Transaction
	err := conn(r.db, tx).WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at ASC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}
