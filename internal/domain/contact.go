package domain

import "time"

// Contact is an address-book entry owned by a single user.
type Contact struct {
	ID             string     `json:"id"`
	UserID         string     `json:"-"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Birthday       *time.Time `json:"birthday,omitempty"`
	AdditionalInfo string     `json:"additional_info,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
