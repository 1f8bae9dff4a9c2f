package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cartly/api/internal/apperr"
	"cartly/api/internal/models"
)

type TokenPurpose string

const (
	PurposeAccess  TokenPurpose = "access"
	PurposeRefresh TokenPurpose = "refresh"
)

type Claims struct {
	Email   string        `json:"email"`
	Roles   []models.Role `json:"roles"`
	Purpose TokenPurpose  `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer mints and verifies the dual-token pair. Both tokens are
// signed with the same HMAC secret; the typ claim tells them apart so
// a refresh token can never be replayed as an access token.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs an access token and a refresh token carrying
// {sub, email, roles} for the given user.
func (i *TokenIssuer) IssuePair(user models.User) (TokenPair, error) {
	access, err := i.sign(user, PurposeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(user, PurposeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *TokenIssuer) sign(user models.User, purpose TokenPurpose, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Email:   user.Email,
		Roles:   user.Roles,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify validates signature and expiry and checks the typ claim
// against purpose. Expired tokens fail with KindTokenExpired, every
// other defect with KindTokenInvalid. No clock-skew leeway.
func (i *TokenIssuer) Verify(tokenStr string, purpose TokenPurpose) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.New(apperr.KindTokenExpired, "token expired")
		}
		return nil, apperr.New(apperr.KindTokenInvalid, "invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperr.New(apperr.KindTokenInvalid, "invalid token")
	}
	if claims.Purpose != purpose {
		return nil, apperr.New(apperr.KindTokenInvalid, "invalid token")
	}
	return claims, nil
}
