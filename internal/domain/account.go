package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a user allowed to send SMS. PasswordHash is never serialised.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewAccount creates an active Account with a generated ID.
func NewAccount(email, passwordHash, fullName string) Account {
	now := time.Now().UTC()
	return Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Contact is an entry in an account's address book. PhoneNumber is unique per owner.
type Contact struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewContact creates a Contact for ownerID with a generated ID.
func NewContact(ownerID uuid.UUID, name, phoneNumber, notes string) Contact {
	now := time.Now().UTC()
	return Contact{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		PhoneNumber: phoneNumber,
		Notes:       notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
