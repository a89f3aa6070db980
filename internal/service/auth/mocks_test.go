package auth

import (
	"context"
	"io"
	"sync"
	"time"

	"log/slog"

	"github.com/contactshub/api/internal/domain"
	"github.com/contactshub/api/internal/repository"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type userRepoMock struct {
	createFunc         func(ctx context.Context, user *domain.User) error
	getByEmailFunc     func(ctx context.Context, email string) (*domain.User, error)
	getByIDFunc        func(ctx context.Context, id string) (*domain.User, error)
	markVerifiedFunc   func(ctx context.Context, id string) error
	updatePasswordFunc func(ctx context.Context, id string, hash []byte) error
	updateAvatarFunc   func(ctx context.Context, id, avatarURL string) error
}

func (m *userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, user)
}

func (m *userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getByEmailFunc(ctx, email)
}

func (m *userRepoMock) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getByIDFunc(ctx, id)
}

func (m *userRepoMock) MarkVerified(ctx context.Context, id string) error {
	if m.markVerifiedFunc == nil {
		return nil
	}
	return m.markVerifiedFunc(ctx, id)
}

func (m *userRepoMock) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	if m.updatePasswordFunc == nil {
		return nil
	}
	return m.updatePasswordFunc(ctx, id, hash)
}

func (m *userRepoMock) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	if m.updateAvatarFunc == nil {
		return nil
	}
	return m.updateAvatarFunc(ctx, id, avatarURL)
}

// cacheMock is an in-memory UserCache recording the operation order.
type cacheMock struct {
	mu      sync.Mutex
	entries map[string]*domain.UserSnapshot
	ttls    map[string]time.Duration
	ops     []string
}

func newCacheMock() *cacheMock {
	return &cacheMock{
		entries: make(map[string]*domain.UserSnapshot),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *cacheMock) Get(_ context.Context, email string) (*domain.UserSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "get:"+email)
	snapshot, ok := m.entries[email]
	return snapshot, ok
}

func (m *cacheMock) Put(_ context.Context, email string, snapshot *domain.UserSnapshot, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "put:"+email)
	m.entries[email] = snapshot
	m.ttls[email] = ttl
}

func (m *cacheMock) Invalidate(_ context.Context, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "invalidate:"+email)
	delete(m.entries, email)
	delete(m.ttls, email)
}

type notifierMock struct {
	sendFunc func(ctx context.Context, subject, recipient, body string) error
	sent     []sentMail
}

type sentMail struct {
	subject   string
	recipient string
	body      string
}

func (m *notifierMock) Send(ctx context.Context, subject, recipient, body string) error {
	m.sent = append(m.sent, sentMail{subject: subject, recipient: recipient, body: body})
	if m.sendFunc == nil {
		return nil
	}
	return m.sendFunc(ctx, subject, recipient, body)
}

type blobStoreMock struct {
	uploadFunc func(ctx context.Context, key, contentType string, body io.Reader) error
	uploads    []string
}

func (m *blobStoreMock) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	m.uploads = append(m.uploads, key)
	if m.uploadFunc == nil {
		return nil
	}
	return m.uploadFunc(ctx, key, contentType, body)
}

func (m *blobStoreMock) URL(key string) string {
	return "https://blobs.test/avatars/" + key
}
