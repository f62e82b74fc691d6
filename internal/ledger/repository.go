package ledger

import (
	"context"
	"errors"
	"fmt"

	"bet_wallet/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists the persisted entities for schema migration.
func Models() []interface{} {
	return []interface{}{&Player{}, &Wallet{}, &Bet{}, &Transaction{}}
}

// Methods that take a tx run inside the caller's unit of work. Passing a nil
// tx runs them on the repository's own connection pool.

type PlayerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, player *Player) error
	Get(ctx context.Context, tx *gorm.DB, playerID string) (*Player, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, playerID string) (*Player, error)
	GetByEmail(ctx context.Context, email string) (*Player, error)
	UpdateLossStreak(ctx context.Context, tx *gorm.DB, player *Player) error
}

type WalletRepository interface {
	Create(ctx context.Context, tx *gorm.DB, wallet *Wallet) error
	GetByPlayerID(ctx context.Context, tx *gorm.DB, playerID string) (*Wallet, error)
	GetByPlayerIDForUpdate(ctx context.Context, tx *gorm.DB, playerID string) (*Wallet, error)
	Save(ctx context.Context, tx *gorm.DB, wallet *Wallet) error
}

type PlayerRepositoryImpl struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *PlayerRepositoryImpl {
	return &PlayerRepositoryImpl{db: db}
}

func (r *PlayerRepositoryImpl) Create(ctx context.Context, tx *gorm.DB, player *Player) error {
	err := conn(r.db, tx).WithContext(ctx).Create(player).Error
	if err != nil {
		if errors.Is(store.Classify(err), store.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrEmailAlreadyExists, player.Email)
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *PlayerRepositoryImpl) Get(ctx context.Context, tx *gorm.DB, playerID string) (*Player, error) {
	return r.find(conn(r.db, tx).WithContext(ctx), playerID)
}

func (r *PlayerRepositoryImpl) GetForUpdate(ctx context.Context, tx *gorm.DB, playerID string) (*Player, error) {
	return r.find(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), playerID)
}

func (r *PlayerRepositoryImpl) find(q *gorm.DB, playerID string) (*Player, error) {
	if !isUUID(playerID) {
		return nil, ErrPlayerNotFound
	}
	var p Player
	if err := q.Where("id = ?", playerID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepositoryImpl) GetByEmail(ctx context.Context, email string) (*Player, error) {
	var p Player
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player by email: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepositoryImpl) UpdateLossStreak(ctx context.Context, tx *gorm.DB, player *Player) error {
	result := tx.WithContext(ctx).
		Model(&Player{}).
		Where("id = ?", player.ID).
		Updates(map[string]interface{}{
			"consecutive_losses": player.ConsecutiveLosses,
			"updated_at":         player.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update player: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

type WalletRepositoryImpl struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepositoryImpl {
	return &WalletRepositoryImpl{db: db}
}

// Create inserts the wallet and any entries booked on it before it was stored.
func (r *WalletRepositoryImpl) Create(ctx context.Context, tx *gorm.DB, w *Wallet) error {
	q := conn(r.db, tx).WithContext(ctx)
	if err := q.Create(w).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return r.insertPending(q, w)
}

func (r *WalletRepositoryImpl) GetByPlayerID(ctx context.Context, tx *gorm.DB, playerID string) (*Wallet, error) {
	return r.find(conn(r.db, tx).WithContext(ctx), playerID)
}

func (r *WalletRepositoryImpl) GetByPlayerIDForUpdate(ctx context.Context, tx *gorm.DB, playerID string) (*Wallet, error) {
	return r.find(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), playerID)
}

func (r *WalletRepositoryImpl) find(q *gorm.DB, playerID string) (*Wallet, error) {
	if !isUUID(playerID) {
		return nil, ErrWalletNotFound
	}
	var w Wallet
	if err := q.Where("player_id = ?", playerID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// Save writes the balance under an optimistic version check and appends the
// pending entries. A stale version fails with ErrConcurrentUpdate.
func (r *WalletRepositoryImpl) Save(ctx context.Context, tx *gorm.DB, w *Wallet) error {
	q := tx.WithContext(ctx)
	result := q.Model(&Wallet{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]interface{}{
			"balance_amount": w.Balance.Amount,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     w.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("wallet %s version %d: %w", w.ID, w.Version, ErrConcurrentUpdate)
	}
	w.Version++
	return r.insertPending(q, w)
}

func (r *WalletRepositoryImpl) insertPending(q *gorm.DB, w *Wallet) error {
	pending := w.PendingTransactions()
	if len(pending) == 0 {
		return nil
	}
	if err := q.Create(&pending).Error; err != nil {
		return fmt.Errorf("failed to insert transactions: %w", err)
	}
	w.clearPending()
	return nil
}

func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
