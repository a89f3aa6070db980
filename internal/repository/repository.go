package repository

import (
	"context"

	"github.com/contactshub/api/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	MarkVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
}

// ContactRepository persists per-user contacts.
type ContactRepository interface {
	CreateContact(ctx context.Context, contact *domain.Contact) error
	ListContactsByUser(ctx context.Context, userID string) ([]domain.Contact, error)
	GetContactByID(ctx context.Context, userID, id string) (*domain.Contact, error)
	UpdateContact(ctx context.Context, contact *domain.Contact) error
	DeleteContact(ctx context.Context, userID, id string) error
}
