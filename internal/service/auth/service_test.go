package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactshub/api/internal/domain"
	"github.com/contactshub/api/internal/repository"
	"github.com/contactshub/api/pkg/config"
	"github.com/contactshub/api/pkg/crypto"
	jwtpkg "github.com/contactshub/api/pkg/jwt"
)

func testConfig() config.APIConfig {
	return config.APIConfig{
		PublicBaseURL:  "http://127.0.0.1:8000",
		JWTSecret:      "test-secret",
		AccessTokenTTL: 30 * time.Minute,
		ResetTokenTTL:  10 * time.Minute,
	}
}

func newService(users *userRepoMock, cache *cacheMock, notifier *notifierMock, blobs *blobStoreMock) Service {
	if users == nil {
		users = &userRepoMock{}
	}
	if cache == nil {
		cache = newCacheMock()
	}
	if notifier == nil {
		notifier = &notifierMock{}
	}
	if blobs == nil {
		blobs = &blobStoreMock{}
	}
	return New(users, cache, notifier, blobs, newLogger(), testConfig())
}

func storedUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)
	return &domain.User{
		ID:           "user-1",
		Email:        email,
		PasswordHash: hash,
		FullName:     "A User",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestRegisterCreatesUnverifiedUser(t *testing.T) {
	t.Parallel()

	var created *domain.User
	users := &userRepoMock{
		createFunc: func(_ context.Context, user *domain.User) error {
			created = user
			return nil
		},
	}
	notifier := &notifierMock{}
	svc := newService(users, nil, notifier, nil)

	user, err := svc.Register(context.Background(), "a@x.com", "pw", "A")
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "A", user.FullName)
	assert.False(t, user.IsVerified)
	assert.True(t, crypto.VerifyPassword(user.PasswordHash, "pw"))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "a@x.com", notifier.sent[0].recipient)
	assert.Contains(t, notifier.sent[0].body, "/auth/verify-email?email=a%40x.com")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	existing := storedUser(t, "a@x.com", "pw")
	createCalled := false
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return existing, nil
		},
		createFunc: func(_ context.Context, _ *domain.User) error {
			createCalled = true
			return nil
		},
	}
	svc := newService(users, nil, nil, nil)

	_, err := svc.Register(context.Background(), "a@x.com", "other", "B")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.False(t, createCalled)
}

func TestRegisterNotifierFailureIsFatal(t *testing.T) {
	t.Parallel()

	notifier := &notifierMock{
		sendFunc: func(_ context.Context, _, _, _ string) error {
			return errors.New("relay down")
		},
	}
	svc := newService(nil, nil, notifier, nil)

	_, err := svc.Register(context.Background(), "a@x.com", "pw", "A")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailTaken)
}

func TestLoginIssuesTokenAndPopulatesCache(t *testing.T) {
	t.Parallel()

	user := storedUser(t, "a@x.com", "pw")
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
	}
	cache := newCacheMock()
	svc := newService(users, cache, nil, nil)

	token, err := svc.Login(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)

	claims, err := jwtpkg.Parse(token, testConfig().JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.False(t, claims.Expired(time.Now()))

	snapshot, ok := cache.entries["a@x.com"]
	require.True(t, ok, "login must write through to the cache")
	assert.Equal(t, user.ID, snapshot.ID)
	assert.Equal(t, 30*time.Minute, cache.ttls["a@x.com"])
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	user := storedUser(t, "a@x.com", "pw")
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
	}
	svc := newService(users, nil, nil, nil)

	_, err := svc.Login(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil, nil, nil)

	_, err := svc.Login(context.Background(), "nobody@x.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveCacheHitSkipsDatabase(t *testing.T) {
	t.Parallel()

	dbQueried := false
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			dbQueried = true
			return nil, repository.ErrNotFound
		},
	}
	cache := newCacheMock()
	cache.entries["a@x.com"] = &domain.UserSnapshot{ID: "user-1", Email: "a@x.com", FullName: "A User", IsVerified: true}
	svc := newService(users, cache, nil, nil)

	token, err := jwtpkg.Generate("a@x.com", testConfig().JWTSecret, time.Minute)
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", resolved.Email)
	assert.True(t, resolved.IsVerified)
	assert.False(t, dbQueried, "cache hit must not touch the database")
}

func TestResolveCacheMissFallsBackAndRepopulates(t *testing.T) {
	t.Parallel()

	user := storedUser(t, "a@x.com", "pw")
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
	}
	cache := newCacheMock()
	svc := newService(users, cache, nil, nil)

	token, err := jwtpkg.Generate("a@x.com", testConfig().JWTSecret, time.Minute)
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	snapshot, ok := cache.entries["a@x.com"]
	require.True(t, ok, "miss must repopulate the cache")
	assert.Equal(t, user.Snapshot(), snapshot)
	assert.Equal(t, 30*time.Minute, cache.ttls["a@x.com"])
}

func TestResolveExpiredToken(t *testing.T) {
	t.Parallel()

	user := storedUser(t, "a@x.com", "pw")
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
	}
	svc := newService(users, nil, nil, nil)

	token, err := jwtpkg.Generate("a@x.com", testConfig().JWTSecret, -time.Minute)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveGarbageToken(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil, nil, nil)

	_, err := svc.Resolve(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveForgedToken(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil, nil, nil)

	token, err := jwtpkg.Generate("a@x.com", "attacker-secret", time.Minute)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveUnknownSubject(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil, nil, nil)

	token, err := jwtpkg.Generate("ghost@x.com", testConfig().JWTSecret, time.Minute)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyEmailIsIdempotent(t *testing.T) {
	t.Parallel()

	user := storedUser(t, "a@x.com", "pw")
	marks := 0
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
		markVerifiedFunc: func(_ context.Context, id string) error {
			marks++
			user.IsVerified = true
			return nil
		},
	}
	svc := newService(users, nil, nil, nil)

	already, err := svc.VerifyEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, 1, marks)

	already, err = svc.VerifyEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, 1, marks, "second verification must not write")
}

func TestVerifyEmailUnknownUser(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil, nil, nil)

	_, err := svc.VerifyEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestForgotPasswordSendsResetLink(t *testing.T) {
	t.Parallel()

	user := storedUser(t, "a@x.com", "pw")
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
	}
	notifier := &notifierMock{}
	svc := newService(users, nil, notifier, nil)

	require.NoError(t, svc.ForgotPassword(context.Background(), "a@x.com"))
	require.Len(t, notifier.sent, 1)

	body := notifier.sent[0].body
	idx := strings.Index(body, "reset-password?token=")
	require.GreaterOrEqual(t, idx, 0, "mail must embed a reset link")
	token := body[idx+len("reset-password?token="):]
	token = token[:strings.IndexAny(token, "\"")]

	claims, err := jwtpkg.Parse(token, testConfig().JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil, nil, nil)

	err := svc.ForgotPassword(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestForgotPasswordNotifierFailureAbsorbed(t *testing.T) {
	t.Parallel()

	user := storedUser(t, "a@x.com", "pw")
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
	}
	notifier := &notifierMock{
		sendFunc: func(_ context.Context, _, _, _ string) error {
			return errors.New("relay down")
		},
	}
	svc := newService(users, nil, notifier, nil)

	assert.NoError(t, svc.ForgotPassword(context.Background(), "a@x.com"))
}

func TestResetPasswordRotatesAndInvalidates(t *testing.T) {
	t.Parallel()

	user := storedUser(t, "a@x.com", "old-pw")
	var newHash []byte
	users := &userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
		updatePasswordFunc: func(_ context.Context, id string, hash []byte) error {
			newHash = hash
			return nil
		},
	}
	cache := newCacheMock()
	cache.entries["a@x.com"] = user.Snapshot()
	svc := newService(users, cache, nil, nil)

	token, err := jwtpkg.Generate("a@x.com", testConfig().JWTSecret, 10*time.Minute)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(context.Background(), token, "new-pw"))

	assert.True(t, crypto.VerifyPassword(newHash, "new-pw"))
	_, ok := cache.entries["a@x.com"]
	assert.False(t, ok, "reset must invalidate the cached snapshot")
	assert.Equal(t, "invalidate:a@x.com", cache.ops[len(cache.ops)-1])
}

func TestResetPasswordMalformedToken(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil, nil, nil)

	err := svc.ResetPassword(context.Background(), "garbage", "new-pw")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil, nil, nil)

	token, err := jwtpkg.Generate("a@x.com", testConfig().JWTSecret, -time.Minute)
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), token, "new-pw")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPasswordUnknownSubject(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil, nil, nil)

	token, err := jwtpkg.Generate("ghost@x.com", testConfig().JWTSecret, 10*time.Minute)
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), token, "new-pw")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUploadAvatarRejectsContentTypeBeforeUpload(t *testing.T) {
	t.Parallel()

	blobs := &blobStoreMock{}
	svc := newService(nil, nil, nil, blobs)
	user := storedUser(t, "a@x.com", "pw")

	_, err := svc.UploadAvatar(context.Background(), user, "text/html", strings.NewReader("<html>"))
	assert.ErrorIs(t, err, ErrUnsupportedAvatarType)
	assert.Empty(t, blobs.uploads, "blob store must not be invoked for rejected types")
}

func TestUploadAvatarStoresAndRecaches(t *testing.T) {
	t.Parallel()

	user := storedUser(t, "a@x.com", "pw")
	var storedURL string
	users := &userRepoMock{
		updateAvatarFunc: func(_ context.Context, id, avatarURL string) error {
			storedURL = avatarURL
			return nil
		},
	}
	cache := newCacheMock()
	blobs := &blobStoreMock{}
	svc := newService(users, cache, nil, blobs)

	avatarURL, err := svc.UploadAvatar(context.Background(), user, "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	require.Len(t, blobs.uploads, 1)
	assert.Equal(t, "user_avatars/avatar_"+user.ID, blobs.uploads[0])
	assert.Equal(t, storedURL, avatarURL)
	assert.Contains(t, avatarURL, "user_avatars/avatar_")

	_, ok := cache.entries["a@x.com"]
	assert.True(t, ok, "upload must refresh the cached snapshot")
}

func TestUploadAvatarBlobFailure(t *testing.T) {
	t.Parallel()

	updateCalled := false
	users := &userRepoMock{
		updateAvatarFunc: func(_ context.Context, _, _ string) error {
			updateCalled = true
			return nil
		},
	}
	blobs := &blobStoreMock{
		uploadFunc: func(_ context.Context, _, _ string, _ io.Reader) error {
			return errors.New("storage down")
		},
	}
	svc := newService(users, nil, nil, blobs)
	user := storedUser(t, "a@x.com", "pw")

	_, err := svc.UploadAvatar(context.Background(), user, "image/png", strings.NewReader("png-bytes"))
	require.Error(t, err)
	assert.False(t, updateCalled, "a failed upload must not persist a url")
}
