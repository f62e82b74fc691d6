package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"bet_wallet/internal/money"

	"github.com/google/uuid"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type Player struct {
	ID                string    `gorm:"column:id;primaryKey;type:uuid"`
	Username          string    `gorm:"column:username;type:varchar(50);not null"`
	Email             string    `gorm:"column:email;type:varchar(254);not null;uniqueIndex"`
	PasswordHash      string    `gorm:"column:password_hash;type:varchar(100);not null"`
	ConsecutiveLosses int       `gorm:"column:consecutive_losses;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time `gorm:"column:updated_at;not null"`
}

// NormalizeEmail validates value and lower-cases it.
func NormalizeEmail(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: email cannot be empty", ErrInvalidEmail)
	}
	if !emailRegex.MatchString(value) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, value)
	}
	return strings.ToLower(value), nil
}

// NewPlayer creates a player together with its wallet. A positive initial
// balance is booked as a deposit so the wallet's entries add up to its balance
// from the start.
func NewPlayer(username, email, passwordHash string, initialBalance money.Money) (*Player, *Wallet, error) {
	username = strings.TrimSpace(username)
	if n := len([]rune(username)); n < MinUsernameLength || n > MaxUsernameLength {
		return nil, nil, fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidUsername, MinUsernameLength, MaxUsernameLength)
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if passwordHash == "" {
		return nil, nil, fmt.Errorf("%w: password hash is required", ErrInvalidInput)
	}
	if initialBalance.IsNegative() {
		return nil, nil, fmt.Errorf("%w: initial balance cannot be negative", ErrInvalidAmount)
	}

	now := time.Now().UTC()
	player := &Player{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	wallet, err := NewWallet(player.ID, initialBalance.Currency)
	if err != nil {
		return nil, nil, err
	}
	if initialBalance.IsPositive() {
		if _, err := wallet.RecordDeposit(initialBalance, "Initial deposit"); err != nil {
			return nil, nil, err
		}
	}
	return player, wallet, nil
}

func (p *Player) IncrementConsecutiveLosses() {
	p.ConsecutiveLosses++
	p.UpdatedAt = time.Now().UTC()
}

func (p *Player) ResetConsecutiveLosses() {
	p.ConsecutiveLosses = 0
	p.UpdatedAt = time.Now().UTC()
}

// IsEligibleForBonus reports whether the current loss streak reaches threshold.
func (p *Player) IsEligibleForBonus(threshold int) bool {
	return p.ConsecutiveLosses >= threshold
}
