package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bet_wallet/internal/ledger"
	"bet_wallet/internal/logger"
	"bet_wallet/internal/money"
	"bet_wallet/internal/store"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidPassword    = fmt.Errorf("%w: password must be %d-%d characters", ledger.ErrInvalidInput, MinPasswordLength, MaxPasswordLength)
)

type RegisterRequest struct {
	Username       string
	Email          string
	Password       string
	InitialBalance decimal.Decimal
	Currency       string
}

type LoginResult struct {
	Player    *ledger.Player
	Wallet    *ledger.Wallet
	Token     string
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(player *ledger.Player) (string, time.Time, error)
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*ledger.Player, *ledger.Wallet, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GetPlayer(ctx context.Context, playerID string) (*ledger.Player, *ledger.Wallet, error)
}

type PlayerService struct {
	uow        *store.UnitOfWork
	players    ledger.PlayerRepository
	wallets    ledger.WalletRepository
	tokens     TokenIssuer
	bcryptCost int
}

func NewPlayerService(uow *store.UnitOfWork, players ledger.PlayerRepository, wallets ledger.WalletRepository, tokens TokenIssuer) *PlayerService {
	return &PlayerService{
		uow:        uow,
		players:    players,
		wallets:    wallets,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register creates the player and its wallet in one unit of work.
func (s *PlayerService) Register(ctx context.Context, req RegisterRequest) (*ledger.Player, *ledger.Wallet, error) {
	logger.Info(ctx).Str("email", req.Email).Msg("registering player")

	if n := len(req.Password); n < MinPasswordLength || n > MaxPasswordLength {
		return nil, nil, ErrInvalidPassword
	}
	balance, err := money.New(req.InitialBalance, req.Currency)
	if err != nil {
		return nil, nil, err
	}
	if !balance.IsPositive() {
		return nil, nil, fmt.Errorf("%w: initial balance must be positive", ledger.ErrInvalidAmount)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}
	player, wallet, err := ledger.NewPlayer(req.Username, req.Email, string(hash), balance)
	if err != nil {
		return nil, nil, err
	}

	err = s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := s.players.Create(ctx, tx, player); err != nil {
			return err
		}
		return s.wallets.Create(ctx, tx, wallet)
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Str("email", player.Email).Msg("failed to register player")
		return nil, nil, err
	}

	logger.Info(ctx).
		Str("player_id", player.ID).
		Str("username", player.Username).
		Msg("player registered")
	return player, wallet, nil
}

func (s *PlayerService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	normalized, err := ledger.NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	player, err := s.players.GetByEmail(ctx, normalized)
	if err != nil {
		if ledger.IsNotFound(err) {
			logger.Warn(ctx).Str("email", normalized).Msg("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(password)); err != nil {
		logger.Warn(ctx).Str("player_id", player.ID).Msg("login with wrong password")
		return nil, ErrInvalidCredentials
	}

	wallet, err := s.wallets.GetByPlayerID(ctx, nil, player.ID)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.Issue(player)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Str("player_id", player.ID).Msg("player authenticated")
	return &LoginResult{Player: player, Wallet: wallet, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, playerID string) (*ledger.Player, *ledger.Wallet, error) {
	player, err := s.players.Get(ctx, nil, playerID)
	if err != nil {
		return nil, nil, err
	}
	wallet, err := s.wallets.GetByPlayerID(ctx, nil, playerID)
	if err != nil {
		if ledger.IsNotFound(err) {
			logger.Error(ctx).Str("player_id", playerID).Msg("data integrity: player has no wallet")
		}
		return nil, nil, err
	}
	return player, wallet, nil
}
