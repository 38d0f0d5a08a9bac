package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"sms-dispatch/internal/domain"
	"sms-dispatch/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockMessageRepository) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) UpdateMessage(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockMessageRepository) ListMessagesBySender(ctx context.Context, senderID uuid.UUID, offset, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, senderID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) SubmitMessage(ctx context.Context, phoneNumber, body string) (ports.SubmitResult, error) {
	args := m.Called(ctx, phoneNumber, body)
	return args.Get(0).(ports.SubmitResult), args.Error(1)
}

func (m *MockGateway) FetchDeliveryStatus(ctx context.Context, gatewayMessageID string) (ports.DeliveryInfo, error) {
	args := m.Called(ctx, gatewayMessageID)
	return args.Get(0).(ports.DeliveryInfo), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishStatusChanged(ctx context.Context, evt ports.StatusChanged) error {
	return m.Called(ctx, evt).Error(0)
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, acc *domain.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *MockAccountRepository) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// memContacts is an in-memory ports.ContactRepository.
type memContacts struct {
	byID map[uuid.UUID]domain.Contact
}

func newMemContacts() *memContacts {
	return &memContacts{byID: map[uuid.UUID]domain.Contact{}}
}

func (r *memContacts) CreateContact(_ context.Context, c *domain.Contact) error {
	for _, existing := range r.byID {
		if existing.OwnerID == c.OwnerID && existing.PhoneNumber == c.PhoneNumber {
			return domain.ErrDuplicateContact
		}
	}
	r.byID[c.ID] = *c
	return nil
}

func (r *memContacts) GetContact(_ context.Context, ownerID, id uuid.UUID) (*domain.Contact, error) {
	c, ok := r.byID[id]
	if !ok || c.OwnerID != ownerID {
		return nil, domain.ErrContactNotFound
	}
	return &c, nil
}

func (r *memContacts) FindContactByPhone(_ context.Context, ownerID uuid.UUID, phoneNumber string) (*domain.Contact, error) {
	for _, c := range r.byID {
		if c.OwnerID == ownerID && c.PhoneNumber == phoneNumber {
			return &c, nil
		}
	}
	return nil, domain.ErrContactNotFound
}

func (r *memContacts) ListContacts(_ context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.Contact, error) {
	var out []domain.Contact
	for _, c := range r.byID {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memContacts) UpdateContact(_ context.Context, c *domain.Contact) error {
	for id, existing := range r.byID {
		if id != c.ID && existing.OwnerID == c.OwnerID && existing.PhoneNumber == c.PhoneNumber {
			return domain.ErrDuplicateContact
		}
	}
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrContactNotFound
	}
	r.byID[c.ID] = *c
	return nil
}

func (r *memContacts) DeleteContact(_ context.Context, ownerID, id uuid.UUID) error {
	c, ok := r.byID[id]
	if !ok || c.OwnerID != ownerID {
		return domain.ErrContactNotFound
	}
	delete(r.byID, id)
	return nil
}
