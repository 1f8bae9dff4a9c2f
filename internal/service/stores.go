package service

import (
	"context"
	"time"

	"cartly/api/internal/models"
)

// UserStore is the credential store contract. The pgx implementation
// lives in internal/repository; absence is reported with
// repository.ErrUserNotFound.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateRegistration(ctx context.Context, id string, name string, passwordHash string, code string, expiresAt time.Time) error
	SetVerificationCode(ctx context.Context, id string, code string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}

// SessionStore persists one row per live refresh token. Token is the
// join key; rotation goes through UpdateToken so the row identity and
// device metadata survive.
type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	FindByToken(ctx context.Context, token string) (models.Session, error)
	FindByID(ctx context.Context, id string) (models.Session, error)
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
	UpdateToken(ctx context.Context, id string, token string, ip string, userAgent string) error
	Delete(ctx context.Context, id string) error
	DeleteAllByUser(ctx context.Context, userID string) error
	DeleteAllExcept(ctx context.Context, userID string, token string) (int64, error)
}

// DeviceContext carries the device metadata the transport layer read
// from the inbound request. Absence is valid.
type DeviceContext struct {
	IPAddress string
	UserAgent string
}

func (d DeviceContext) normalized() DeviceContext {
	if d.IPAddress == "" {
		d.IPAddress = "unknown"
	}
	if d.UserAgent == "" {
		d.UserAgent = "unknown"
	}
	return d
}
