package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/contactshub/api/internal/domain"
	"github.com/contactshub/api/internal/mail"
	"github.com/contactshub/api/internal/repository"
	"github.com/contactshub/api/internal/storage"
	"github.com/contactshub/api/pkg/config"
	"github.com/contactshub/api/pkg/crypto"
	jwtpkg "github.com/contactshub/api/pkg/jwt"
)

// TokenType is the scheme reported alongside issued access tokens.
const TokenType = "bearer"

// avatarKeyPrefix mirrors the blob layout: one key per user,
// overwritten on each re-upload.
const avatarKeyPrefix = "user_avatars/avatar_"

var allowedAvatarTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// UserCache shadows the user table with TTL-bounded snapshots.
// Implementations fail open: Get degrades to a miss on backend
// errors, Put and Invalidate swallow them.
type UserCache interface {
	Get(ctx context.Context, email string) (*domain.UserSnapshot, bool)
	Put(ctx context.Context, email string, snapshot *domain.UserSnapshot, ttl time.Duration)
	Invalidate(ctx context.Context, email string)
}

// Service handles authentication workflows and session resolution.
type Service struct {
	users    repository.UserRepository
	cache    UserCache
	notifier mail.Notifier
	blobs    storage.BlobStore
	logger   *slog.Logger
	cfg      config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, cache UserCache, notifier mail.Notifier, blobs storage.BlobStore, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, cache: cache, notifier: notifier, blobs: blobs, logger: logger, cfg: cfg}
}

// Register creates an unverified user and mails a verification link.
// The notification attempt is part of the flow: registration fails if
// the notifier rejects the send, though delivery is never confirmed.
func (s Service) Register(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		IsVerified:   false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	link := fmt.Sprintf("%s/auth/verify-email?email=%s", s.cfg.PublicBaseURL, url.QueryEscape(user.Email))
	body := fmt.Sprintf(`<h1>Email verification</h1>
<p>Follow the link to confirm your account:</p>
<a href=%q>Verify email</a>`, link)
	if err := s.notifier.Send(ctx, "Verify your email", user.Email, body); err != nil {
		return nil, fmt.Errorf("send verification mail: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates credentials, issues an access token, and
// write-through populates the user cache.
func (s Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !crypto.VerifyPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := jwtpkg.Generate(user.Email, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	s.cache.Put(ctx, user.Email, user.Snapshot(), s.cfg.AccessTokenTTL)

	s.logger.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// Resolve turns a bearer token into the authenticated user.
//
// The token must carry a valid signature, a subject, and an unexpired
// exp claim; expiry is enforced here even though the codec also
// carries it. The cache answers first; on a miss (including a cache
// backend failure) the database is queried and the cache repopulated.
// Concurrent resolutions may race on the repopulating write; last
// writer wins and both results are individually correct.
func (s Service) Resolve(ctx context.Context, token string) (*domain.User, error) {
	claims, err := jwtpkg.Parse(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	email := claims.RegisteredClaims.Subject
	if email == "" {
		return nil, ErrUnauthenticated
	}
	if claims.Expired(time.Now()) {
		return nil, ErrUnauthenticated
	}

	if snapshot, ok := s.cache.Get(ctx, email); ok {
		return snapshot.User(), nil
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	s.cache.Put(ctx, email, user.Snapshot(), s.cfg.AccessTokenTTL)
	return user, nil
}

// VerifyEmail flips the verification flag once. Re-verifying an
// already-verified user is a no-op reported via the return value.
func (s Service) VerifyEmail(ctx context.Context, email string) (alreadyVerified bool, err error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("lookup user: %w", err)
	}
	if user.IsVerified {
		return true, nil
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return false, fmt.Errorf("mark verified: %w", err)
	}
	s.logger.Info("email verified", "user_id", user.ID)
	return false, nil
}

// ForgotPassword mails a reset link for a known email. Notifier
// failures are absorbed: the link simply never arrives and the caller
// may retry.
func (s Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := jwtpkg.Generate(user.Email, s.cfg.JWTSecret, s.cfg.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	link := fmt.Sprintf("%s/auth/reset-password?token=%s", s.cfg.PublicBaseURL, url.QueryEscape(token))
	body := fmt.Sprintf(`<h1>Password reset</h1>
<p>Follow the link to reset your password:</p>
<a href=%q>Reset password</a>`, link)
	if err := s.notifier.Send(ctx, "Reset your password", user.Email, body); err != nil {
		s.logger.Warn("reset mail failed", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword validates a reset token, rotates the credential, and
// invalidates the cached snapshot after the commit so no pre-reset
// copy survives. The token is not single-use: any replay within its
// ttl is accepted.
func (s Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := jwtpkg.Parse(token, s.cfg.JWTSecret)
	if err != nil {
		return ErrInvalidResetToken
	}
	email := claims.RegisteredClaims.Subject
	if email == "" {
		return ErrInvalidResetToken
	}
	if claims.Expired(time.Now()) {
		return ErrInvalidResetToken
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	// Invalidation must follow the commit; the reverse order lets a
	// concurrent resolver repopulate the pre-reset snapshot.
	s.cache.Invalidate(ctx, email)

	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// UploadAvatar stores avatar bytes for the authenticated user and
// returns the canonical URL. The content type is checked before the
// blob store is touched.
func (s Service) UploadAvatar(ctx context.Context, user *domain.User, contentType string, body io.Reader) (string, error) {
	if _, ok := allowedAvatarTypes[contentType]; !ok {
		return "", ErrUnsupportedAvatarType
	}

	key := avatarKeyPrefix + user.ID
	if err := s.blobs.Upload(ctx, key, contentType, body); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	avatarURL := s.blobs.URL(key)
	if err := s.users.UpdateAvatar(ctx, user.ID, avatarURL); err != nil {
		return "", fmt.Errorf("store avatar url: %w", err)
	}
	user.AvatarURL = avatarURL
	s.cache.Put(ctx, user.Email, user.Snapshot(), s.cfg.AccessTokenTTL)

	s.logger.Info("avatar updated", "user_id", user.ID)
	return avatarURL, nil
}
