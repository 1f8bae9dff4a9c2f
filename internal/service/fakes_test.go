package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"cartly/api/internal/models"
	"cartly/api/internal/repository"
)

// fakeUserStore is an in-memory UserStore with the same error
// contract as the pgx repository.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UpdateRegistration(_ context.Context, id string, name string, passwordHash string, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Name = name
	user.PasswordHash = passwordHash
	user.VerificationCode = &code
	user.VerificationCodeExpiresAt = &expiresAt
	user.UpdatedAt = time.Now()
	f.users[id] = user
	return nil
}

func (f *fakeUserStore) SetVerificationCode(_ context.Context, id string, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.VerificationCode = &code
	user.VerificationCodeExpiresAt = &expiresAt
	f.users[id] = user
	return nil
}

func (f *fakeUserStore) MarkVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Verified = true
	user.VerificationCode = nil
	user.VerificationCodeExpiresAt = nil
	f.users[id] = user
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.VerificationCode = nil
	user.VerificationCodeExpiresAt = nil
	f.users[id] = user
	return nil
}

// fakeSessionStore mirrors the pgx session repository, including the
// merge-not-replace semantics of UpdateToken.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	seq      int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (f *fakeSessionStore) Create(_ context.Context, session models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	session.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	session.UpdatedAt = session.CreatedAt
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) FindByToken(_ context.Context, token string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, session := range f.sessions {
		if session.Token == token {
			return session, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (f *fakeSessionStore) FindByID(_ context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) ListByUser(_ context.Context, userID string) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, session := range f.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeSessionStore) UpdateToken(_ context.Context, id string, token string, ip string, userAgent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.Token = token
	if ip != "" {
		session.IPAddress = ip
	}
	if userAgent != "" {
		session.UserAgent = userAgent
	}
	session.UpdatedAt = time.Now()
	f.sessions[id] = session
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) DeleteAllByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, session := range f.sessions {
		if session.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionStore) DeleteAllExcept(_ context.Context, userID string, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for id, session := range f.sessions {
		if session.UserID == userID && session.Token != token {
			delete(f.sessions, id)
			count++
		}
	}
	return count, nil
}

// fakeNotifier records sent emails instead of delivering them.
type fakeNotifier struct {
	mu            sync.Mutex
	verifications []sentEmail
	resets        []sentEmail
}

type sentEmail struct {
	To   string
	Name string
	Code string
}

func (f *fakeNotifier) SendVerificationEmail(to string, name string, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications = append(f.verifications, sentEmail{To: to, Name: name, Code: code})
	return nil
}

func (f *fakeNotifier) SendPasswordResetEmail(to string, name string, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sentEmail{To: to, Name: name, Code: code})
	return nil
}
