package domain

import "time"

// User is the durable identity record.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FullName     string
	IsVerified   bool
	AvatarURL    string
	CreatedAt    time.Time
}

// UserSnapshot is the cache-resident copy of a user, holding exactly
// the fields needed to answer "who is this" without the database.
// The schema is fixed; nothing else is ever deserialized from cache.
type UserSnapshot struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	IsVerified bool   `json:"is_verified"`
}

// Snapshot projects the user into its cacheable form.
func (u *User) Snapshot() *UserSnapshot {
	return &UserSnapshot{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		IsVerified: u.IsVerified,
	}
}

// User rehydrates a snapshot into a user value. The credential hash
// is absent; callers needing it must hit the repository.
func (s *UserSnapshot) User() *User {
	return &User{
		ID:         s.ID,
		Email:      s.Email,
		FullName:   s.FullName,
		IsVerified: s.IsVerified,
	}
}
