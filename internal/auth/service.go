package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hservice/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 24 * time.Hour

var (
	ErrAuthDisabled = errors.New("auth secret not configured")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims identifies the chat client a token was minted for.
type Claims struct {
	jwt.RegisteredClaims
	Client string `json:"client"`
}

// Service signs and checks HS256 bearer tokens. With an empty secret it is
// disabled and its middleware lets every request through.
type Service struct {
	secret     []byte
	issuer     string
	ttl        time.Duration
	headerName string
	now        func() time.Time
}

func NewService(cfg config.AuthConfig, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "hservice"
	}
	return &Service{
		secret:     []byte(cfg.Secret),
		issuer:     issuer,
		ttl:        ttl,
		headerName: "Authorization",
		now:        time.Now,
	}
}

func (s *Service) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// IssueToken mints a token for the named client.
func (s *Service) IssueToken(client string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	client = strings.TrimSpace(client)
	if client == "" {
		return "", errors.New("client name required")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   client,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Client: client,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken returns the client name carried by a valid token.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Client == "" {
		return "", ErrInvalidToken
	}
	return claims.Client, nil
}
