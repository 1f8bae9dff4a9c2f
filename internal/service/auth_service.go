package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cartly/api/internal/apperr"
	"cartly/api/internal/config"
	"cartly/api/internal/ids"
	"cartly/api/internal/mail"
	"cartly/api/internal/models"
	"cartly/api/internal/provider"
	"cartly/api/internal/ratelimit"
	"cartly/api/internal/repository"
	"cartly/api/internal/security"
)

// AuthService orchestrates the account lifecycle: registration with
// one-time-code verification, credential login, refresh rotation,
// federated login, and password reset. It holds no mutable state of
// its own; every instance behind a load balancer sees the same world
// through the stores.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	notifier mail.Notifier
	issuer   *security.TokenIssuer
	limiter  *ratelimit.Limiter
	cfg      *config.AppConfig
	log      zerolog.Logger

	// injectable for tests
	now         func() time.Time
	generateOTP func(digits int) (string, error)
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	notifier mail.Notifier,
	issuer *security.TokenIssuer,
	limiter *ratelimit.Limiter,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		notifier:    notifier,
		issuer:      issuer,
		limiter:     limiter,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
		generateOTP: security.GenerateOTP,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates a pending account and emails its verification code.
// Re-registering an unverified email overwrites name, password and
// code; created tells the transport layer whether to answer 201 or 200.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, bool, error) {
	email := normalizeEmail(input.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	exists := err == nil
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, false, internal(err)
	}
	if exists && existing.Verified {
		return models.User{}, false, apperr.New(apperr.KindAlreadyExists, "account already exists with this email")
	}

	if !s.allowOTP(ctx, "verify", email) {
		return models.User{}, false, apperr.New(apperr.KindRateLimited, "too many verification codes requested")
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, false, internal(err)
	}

	code, expiresAt, err := s.newOTP()
	if err != nil {
		return models.User{}, false, internal(err)
	}

	var user models.User
	if exists {
		if err := s.users.UpdateRegistration(ctx, existing.ID, input.Name, passwordHash, code, expiresAt); err != nil {
			return models.User{}, false, internal(err)
		}
		user = existing
		user.Name = input.Name
		user.PasswordHash = passwordHash
		user.VerificationCode = &code
		user.VerificationCodeExpiresAt = &expiresAt
	} else {
		user = models.User{
			ID:                        ids.New(),
			Email:                     email,
			Name:                      input.Name,
			PasswordHash:              passwordHash,
			Verified:                  false,
			VerificationCode:          &code,
			VerificationCodeExpiresAt: &expiresAt,
			Roles:                     models.DefaultRoles(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return models.User{}, false, internal(err)
		}
	}

	if err := s.notifier.SendVerificationEmail(user.Email, user.Name, code); err != nil {
		return models.User{}, false, internal(err)
	}

	s.log.Info().Str("user_id", user.ID).Bool("reissued", exists).Msg("registration code issued")
	return user, !exists, nil
}

// Verify confirms code ownership, marks the account verified, and
// auto-authenticates: it is the only path besides login and federated
// login that yields a session.
func (s *AuthService) Verify(ctx context.Context, email string, code string, device DeviceContext) (models.User, security.TokenPair, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return models.User{}, security.TokenPair{}, err
	}

	if err := s.checkCode(user, code, true); err != nil {
		return models.User{}, security.TokenPair{}, err
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return models.User{}, security.TokenPair{}, internal(err)
	}
	user.Verified = true
	user.VerificationCode = nil
	user.VerificationCodeExpiresAt = nil

	pair, err := s.authenticate(ctx, user, device)
	if err != nil {
		return models.User{}, security.TokenPair{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("account verified")
	return user, pair, nil
}

// CheckVerificationCode runs the Verify validations without mutating
// anything; used for pre-flight checks from the UI.
func (s *AuthService) CheckVerificationCode(ctx context.Context, email string, code string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.checkCode(user, code, true)
}

// ResendVerificationCode reissues the code for a pending account. The
// previous code stops matching immediately.
func (s *AuthService) ResendVerificationCode(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return apperr.New(apperr.KindConflict, "account is already verified")
	}

	if !s.allowOTP(ctx, "verify", user.Email) {
		return apperr.New(apperr.KindRateLimited, "too many verification codes requested")
	}

	code, expiresAt, err := s.newOTP()
	if err != nil {
		return internal(err)
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code, expiresAt); err != nil {
		return internal(err)
	}

	if err := s.notifier.SendVerificationEmail(user.Email, user.Name, code); err != nil {
		return internal(err)
	}
	return nil
}

// Login conflates unknown email and wrong password into one error so
// responses cannot be used to enumerate accounts. Unverified accounts
// get a distinct error; that narrower leak is part of the contract.
func (s *AuthService) Login(ctx context.Context, email string, password string, device DeviceContext) (models.User, security.TokenPair, error) {
	invalid := apperr.New(apperr.KindInvalidCredentials, "invalid credentials")

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, security.TokenPair{}, invalid
		}
		return models.User{}, security.TokenPair{}, internal(err)
	}

	if !user.Verified {
		return models.User{}, security.TokenPair{}, apperr.New(apperr.KindNotVerified, "please verify your account before logging in")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return models.User{}, security.TokenPair{}, invalid
	}

	pair, err := s.authenticate(ctx, user, device)
	if err != nil {
		return models.User{}, security.TokenPair{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("login")
	return user, pair, nil
}

// RefreshTokens rotates the refresh token bound to one session. The
// session row, not the signature, is the source of truth for
// liveness: a cryptographically valid token that has been rotated
// away fails here. The transport layer clears auth cookies on any
// error from this method.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string, device DeviceContext) (models.User, security.TokenPair, error) {
	unauthorized := apperr.New(apperr.KindUnauthorized, "invalid refresh token")

	if refreshToken == "" {
		return models.User{}, security.TokenPair{}, apperr.New(apperr.KindUnauthorized, "refresh token not provided")
	}

	claims, err := s.issuer.Verify(refreshToken, security.PurposeRefresh)
	if err != nil {
		return models.User{}, security.TokenPair{}, unauthorized
	}

	session, err := s.sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, security.TokenPair{}, unauthorized
		}
		return models.User{}, security.TokenPair{}, internal(err)
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, security.TokenPair{}, unauthorized
		}
		return models.User{}, security.TokenPair{}, internal(err)
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return models.User{}, security.TokenPair{}, internal(err)
	}

	// Atomic per session id. When two refreshes race on the same
	// token, the store decides the winner; the loser's old token no
	// longer maps to a row and fails the FindByToken above next time.
	// Empty device fields keep the stored metadata.
	if err := s.sessions.UpdateToken(ctx, session.ID, pair.RefreshToken, device.IPAddress, device.UserAgent); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, security.TokenPair{}, unauthorized
		}
		return models.User{}, security.TokenPair{}, internal(err)
	}

	return user, pair, nil
}

// SocialLogin finds or creates an account for an externally verified
// identity. Created accounts are verified from the start and hold a
// random placeholder hash, so the password path stays closed until a
// reset.
func (s *AuthService) SocialLogin(ctx context.Context, identity provider.Identity, device DeviceContext) (models.User, security.TokenPair, error) {
	email := normalizeEmail(identity.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, security.TokenPair{}, internal(err)
		}

		placeholder, err := unusablePassword()
		if err != nil {
			return models.User{}, security.TokenPair{}, internal(err)
		}

		user = models.User{
			ID:           ids.New(),
			Email:        email,
			Name:         identity.Name,
			PasswordHash: placeholder,
			Verified:     true,
			Roles:        models.DefaultRoles(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return models.User{}, security.TokenPair{}, internal(err)
		}
		s.log.Info().Str("user_id", user.ID).Str("provider", identity.Provider).Msg("account created from federated login")
	}

	pair, err := s.authenticate(ctx, user, device)
	if err != nil {
		return models.User{}, security.TokenPair{}, err
	}
	return user, pair, nil
}

// ForgotPassword emails a reset code. Identity must have been proven
// once already: unverified accounts are refused.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !user.Verified {
		return apperr.New(apperr.KindNotVerified, "account is not verified")
	}

	if !s.allowOTP(ctx, "reset", user.Email) {
		return apperr.New(apperr.KindRateLimited, "too many reset codes requested")
	}

	code, expiresAt, err := s.newOTP()
	if err != nil {
		return internal(err)
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code, expiresAt); err != nil {
		return internal(err)
	}

	if err := s.notifier.SendPasswordResetEmail(user.Email, user.Name, code); err != nil {
		return internal(err)
	}
	return nil
}

// ResetPassword sets a new password and purges every session for the
// account. A compromised credential must not keep stale devices
// logged in.
func (s *AuthService) ResetPassword(ctx context.Context, email string, code string, newPassword string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !user.Verified {
		return apperr.New(apperr.KindNotVerified, "account is not verified")
	}

	if err := s.checkCode(user, code, false); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return internal(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return internal(err)
	}
	if err := s.sessions.DeleteAllByUser(ctx, user.ID); err != nil {
		return internal(err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset, all sessions revoked")
	return nil
}

// Logout deletes the session behind the presented refresh token.
// A missing or unknown token is not an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	session, err := s.sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return internal(err)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return internal(err)
	}
	return nil
}

// authenticate issues a token pair and records the refresh token as a
// new session with the caller's device metadata.
func (s *AuthService) authenticate(ctx context.Context, user models.User, device DeviceContext) (security.TokenPair, error) {
	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return security.TokenPair{}, internal(err)
	}

	device = device.normalized()
	session := models.Session{
		ID:        ids.New(),
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		IPAddress: device.IPAddress,
		UserAgent: device.UserAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return security.TokenPair{}, internal(err)
	}

	return pair, nil
}

// checkCode validates the stored one-time code. Mismatch is reported
// before expiry, so a re-registration that replaced the code turns an
// in-flight attempt into BadCode rather than CodeExpired.
func (s *AuthService) checkCode(user models.User, code string, rejectVerified bool) error {
	if rejectVerified && user.Verified {
		return apperr.New(apperr.KindConflict, "account is already verified")
	}
	if user.VerificationCode == nil || *user.VerificationCode != code {
		return apperr.New(apperr.KindBadCode, "invalid verification code")
	}
	if user.VerificationCodeExpiresAt == nil || !security.OTPValid(*user.VerificationCodeExpiresAt, s.now()) {
		return apperr.New(apperr.KindCodeExpired, "verification code has expired")
	}
	return nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.User{}, internal(err)
	}
	return user, nil
}

func (s *AuthService) newOTP() (string, time.Time, error) {
	code, err := s.generateOTP(s.cfg.Security.OTPDigits)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, security.OTPExpiry(s.now(), s.cfg.Security.OTPTTL), nil
}

func (s *AuthService) allowOTP(ctx context.Context, purpose string, email string) bool {
	key := fmt.Sprintf("otp:%s:%s", purpose, email)
	return s.limiter.Allow(ctx, key, s.cfg.RateLimit.OTPSends, s.cfg.RateLimit.OTPWindow)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func internal(err error) error {
	return apperr.New(apperr.KindInternal, "unexpected error: "+err.Error())
}

// unusablePassword hashes random bytes nobody knows, for accounts that
// only authenticate through a federated provider.
func unusablePassword() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return security.HashPassword(base64.RawURLEncoding.EncodeToString(buf))
}
