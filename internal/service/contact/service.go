package contact

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/contactshub/api/internal/domain"
	"github.com/contactshub/api/internal/repository"
)

var errMissingName = errors.New("contact: first name is required")

// Input carries the mutable contact fields.
type Input struct {
	FirstName      string     `json:"first_name" validate:"required"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          string     `json:"phone" validate:"required"`
	Birthday       *time.Time `json:"birthday,omitempty"`
	AdditionalInfo string     `json:"additional_info,omitempty"`
}

// Service handles per-user contact workflows. Every operation is
// scoped to the owning user; a contact belonging to someone else is
// indistinguishable from a missing one.
type Service struct {
	contacts repository.ContactRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(contacts repository.ContactRepository, logger *slog.Logger) Service {
	return Service{contacts: contacts, logger: logger}
}

// Create stores a contact for the user.
func (s Service) Create(ctx context.Context, userID string, in Input) (*domain.Contact, error) {
	if in.FirstName == "" {
		return nil, errMissingName
	}
	contact := &domain.Contact{
		ID:             uuid.NewString(),
		UserID:         userID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Birthday:       in.Birthday,
		AdditionalInfo: in.AdditionalInfo,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.contacts.CreateContact(ctx, contact); err != nil {
		return nil, err
	}
	s.logger.Info("contact created", "contact_id", contact.ID, "user_id", userID)
	return contact, nil
}

// List returns the user's contacts.
func (s Service) List(ctx context.Context, userID string) ([]domain.Contact, error) {
	return s.contacts.ListContactsByUser(ctx, userID)
}

// Get returns one contact owned by the user.
func (s Service) Get(ctx context.Context, userID, contactID string) (*domain.Contact, error) {
	return s.contacts.GetContactByID(ctx, userID, contactID)
}

// Update rewrites a contact's fields.
func (s Service) Update(ctx context.Context, userID, contactID string, in Input) (*domain.Contact, error) {
	if in.FirstName == "" {
		return nil, errMissingName
	}
	contact := &domain.Contact{
		ID:             contactID,
		UserID:         userID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Birthday:       in.Birthday,
		AdditionalInfo: in.AdditionalInfo,
	}
	if err := s.contacts.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}
	return s.contacts.GetContactByID(ctx, userID, contactID)
}

// Delete removes a contact.
func (s Service) Delete(ctx context.Context, userID, contactID string) error {
	if err := s.contacts.DeleteContact(ctx, userID, contactID); err != nil {
		return err
	}
	s.logger.Info("contact deleted", "contact_id", contactID, "user_id", userID)
	return nil
}
