// Package auth issues and verifies the HS256 bearer tokens used by the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"bet_wallet/internal/config"
	"bet_wallet/internal/ledger"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

const MinSecretLength = 32

var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified identity carried by a token.
type Claims struct {
	PlayerID  string
	Username  string
	Email     string
	ExpiresAt time.Time
}

type privateClaims struct {
	UniqueName string `json:"unique_name"`
	Email      string `json:"email"`
}

type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
	signer   jose.Signer
	now      func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters long", MinSecretLength)
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("jwt issuer and audience are required")
	}
	if cfg.Expiry <= 0 {
		return nil, errors.New("jwt expiry must be greater than zero")
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(cfg.Secret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create jwt signer: %w", err)
	}

	return &TokenManager{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		expiry:   cfg.Expiry,
		signer:   signer,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs a token for player and returns it with its expiry.
func (m *TokenManager) Issue(player *ledger.Player) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.expiry)

	std := jwt.Claims{
		Subject:   player.ID,
		Issuer:    m.issuer,
		Audience:  jwt.Audience{m.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(expiresAt),
	}
	private := privateClaims{UniqueName: player.Username, Email: player.Email}

	raw, err := jwt.Signed(m.signer).Claims(std).Claims(private).Serialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return raw, expiresAt, nil
}

func (m *TokenManager) Verify(raw string) (*Claims, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var (
		std     jwt.Claims
		private privateClaims
	)
	if err := tok.Claims(m.secret, &std, &private); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	err = std.ValidateWithLeeway(jwt.Expected{
		Issuer:      m.issuer,
		AnyAudience: jwt.Audience{m.audience},
		Time:        m.now(),
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if std.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Claims{
		PlayerID:  std.Subject,
		Username:  private.UniqueName,
		Email:     private.Email,
		ExpiresAt: std.Expiry.Time(),
	}, nil
}
