package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"cartly/api/internal/apperr"
	"cartly/api/internal/repository"
)

// SessionService enumerates and revokes a user's device sessions. It
// never exposes raw refresh tokens; callers see only device metadata
// and an isCurrent marker.
type SessionService struct {
	sessions SessionStore
	log      zerolog.Logger
}

func NewSessionService(sessions SessionStore, log zerolog.Logger) *SessionService {
	return &SessionService{sessions: sessions, log: log}
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsCurrent bool      `json:"isCurrent"`
}

// List returns the user's sessions newest first, marking the one whose
// token matches currentToken.
func (s *SessionService) List(ctx context.Context, userID string, currentToken string) ([]SessionInfo, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}

	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, SessionInfo{
			ID:        session.ID,
			UserID:    session.UserID,
			IPAddress: session.IPAddress,
			UserAgent: session.UserAgent,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
			IsCurrent: session.Token == currentToken,
		})
	}
	return infos, nil
}

// RevokeOthers deletes every session except the caller's current one
// and returns how many went away. The current token must map to a
// session owned by the caller.
func (s *SessionService) RevokeOthers(ctx context.Context, userID string, currentToken string) (int64, error) {
	current, err := s.sessions.FindByToken(ctx, currentToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return 0, apperr.New(apperr.KindUnauthorized, "current session not found")
		}
		return 0, internal(err)
	}
	if current.UserID != userID {
		return 0, apperr.New(apperr.KindForbidden, "not authorized to delete these sessions")
	}

	count, err := s.sessions.DeleteAllExcept(ctx, userID, currentToken)
	if err != nil {
		return 0, internal(err)
	}

	s.log.Info().Str("user_id", userID).Int64("revoked", count).Msg("other sessions revoked")
	return count, nil
}

// Revoke deletes one session by id. The caller's own current session
// is refused; ending it goes through logout, which also clears the
// cookies, so the "other devices" UI cannot lock the caller out.
func (s *SessionService) Revoke(ctx context.Context, userID string, sessionID string, currentToken string) error {
	target, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return apperr.New(apperr.KindNotFound, "session not found")
		}
		return internal(err)
	}

	if target.UserID != userID {
		return apperr.New(apperr.KindForbidden, "not authorized to delete this session")
	}

	if current, err := s.sessions.FindByToken(ctx, currentToken); err == nil && current.ID == target.ID {
		return apperr.New(apperr.KindForbidden, "cannot delete your current session, use logout instead")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return internal(err)
	}
	return nil
}
