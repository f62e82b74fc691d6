package bonus

import (
	"context"
	"errors"
	"fmt"

	"bet_wallet/internal/ledger"
	"bet_wallet/internal/store"

	"gorm.io/gorm"
)

var (
	ErrAwardNotFound = fmt.Errorf("bonus award %w", ledger.ErrNotFound)
	ErrAwardExists   = fmt.Errorf("%w: bonus already awarded for this bet", ledger.ErrConflict)
)

type Repository interface {
	CreateAward(ctx context.Context, tx *gorm.DB, award *Award) error
	GetByBetID(ctx context.Context, betID string) (*Award, error)
	ListByPlayer(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*Award], error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) CreateAward(ctx context.Context, tx *gorm.DB, award *Award) error {
	err := tx.WithContext(ctx).Create(award).Error
	if err != nil {
		if errors.Is(store.Classify(err), store.ErrDuplicateKey) {
			return ErrAwardExists
		}
		return fmt.Errorf("failed to create bonus award: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetByBetID(ctx context.Context, betID string) (*Award, error) {
	var award Award
	err := r.db.WithContext(ctx).
		Where("bet_id = ?", betID).
		First(&award).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAwardNotFound
		}
		return nil, fmt.Errorf("failed to get bonus award: %w", err)
	}

	return &award, nil
}

// ListByPlayer returns one page of the player's awards, newest first.
func (r *RepositoryImpl) ListByPlayer(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*Award], error) {
	if page <= 0 || pageSize <= 0 {
		return ledger.Page[*Award]{}, fmt.Errorf("%w: page and page size must be greater than zero", ledger.ErrInvalidPage)
	}

	q := r.db.WithContext(ctx).Model(&Award{}).Where("player_id = ?", playerID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ledger.Page[*Award]{}, fmt.Errorf("failed to count bonus awards: %w", err)
	}

	var awards []*Award
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&awards).Error
	if err != nil {
		return ledger.Page[*Award]{}, fmt.Errorf("failed to list bonus awards: %w", err)
	}
	return ledger.NewPage(awards, total, page, pageSize), nil
}
