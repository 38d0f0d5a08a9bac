package ports

import (
	"context"

	"sms-dispatch/internal/domain"

	"github.com/google/uuid"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// CreateMessage persists a new Message.
	CreateMessage(ctx context.Context, msg *domain.Message) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error)

	// UpdateMessage writes the status and gateway id of msg and refreshes UpdatedAt.
	UpdateMessage(ctx context.Context, msg *domain.Message) error

	// ListMessagesBySender returns the sender's messages, newest first.
	ListMessagesBySender(ctx context.Context, senderID uuid.UUID, offset, limit int) ([]domain.Message, error)
}

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	CreateAccount(ctx context.Context, acc *domain.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// ContactRepository defines persistence operations for contacts. All lookups are scoped to an owner.
type ContactRepository interface {
	CreateContact(ctx context.Context, c *domain.Contact) error
	GetContact(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error)
	FindContactByPhone(ctx context.Context, ownerID uuid.UUID, phoneNumber string) (*domain.Contact, error)
	ListContacts(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.Contact, error)
	UpdateContact(ctx context.Context, c *domain.Contact) error
	DeleteContact(ctx context.Context, ownerID, id uuid.UUID) error
}
