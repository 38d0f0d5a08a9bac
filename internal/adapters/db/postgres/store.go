package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sms-dispatch/internal/domain"
)

// CreateMessage inserts a new message row.
func (s *Store) CreateMessage(ctx context.Context, msg *domain.Message) error {
	rec := toMessageRecord(msg)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage loads a message by internal ID.
func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var rec messageRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return rec.toDomain(), nil
}

// UpdateMessage writes status and gateway id and refreshes updated_at.
func (s *Store) UpdateMessage(ctx context.Context, msg *domain.Message) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&messageRecord{}).
		Where("id = ?", msg.ID).
		Updates(map[string]any{
			"status":             string(msg.Status),
			"gateway_message_id": msg.GatewayMessageID,
			"updated_at":         now,
		})
	if res.Error != nil {
		return fmt.Errorf("update message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	msg.UpdatedAt = now
	return nil
}

// ListMessagesBySender returns a page of the sender's messages, newest first.
func (s *Store) ListMessagesBySender(ctx context.Context, senderID uuid.UUID, offset, limit int) ([]domain.Message, error) {
	var recs []messageRecord
	err := s.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	msgs := make([]domain.Message, 0, len(recs))
	for _, r := range recs {
		msgs = append(msgs, *r.toDomain())
	}
	return msgs, nil
}

// CreateAccount inserts a new account. A taken email yields domain.ErrEmailTaken.
func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	rec := toAccountRecord(acc)
	err := s.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.findAccount(ctx, "id = ?", id)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.findAccount(ctx, "email = ?", email)
}

func (s *Store) findAccount(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var rec accountRecord
	err := s.db.WithContext(ctx).First(&rec, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return rec.toDomain(), nil
}

// CreateContact inserts a contact. A phone number already used by the owner
// yields domain.ErrDuplicateContact.
func (s *Store) CreateContact(ctx context.Context, c *domain.Contact) error {
	rec := toContactRecord(c)
	err := s.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateContact
	}
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (s *Store) GetContact(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error) {
	return s.findContact(ctx, "owner_id = ? AND id = ?", ownerID, id)
}

func (s *Store) FindContactByPhone(ctx context.Context, ownerID uuid.UUID, phoneNumber string) (*domain.Contact, error) {
	return s.findContact(ctx, "owner_id = ? AND phone_number = ?", ownerID, phoneNumber)
}

func (s *Store) findContact(ctx context.Context, query string, args ...any) (*domain.Contact, error) {
	var rec contactRecord
	err := s.db.WithContext(ctx).Where(query, args...).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return rec.toDomain(), nil
}

// ListContacts returns a page of the owner's contacts ordered by name.
func (s *Store) ListContacts(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.Contact, error) {
	var recs []contactRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	contacts := make([]domain.Contact, 0, len(recs))
	for _, r := range recs {
		contacts = append(contacts, *r.toDomain())
	}
	return contacts, nil
}

// UpdateContact overwrites name, phone and notes of an owned contact.
func (s *Store) UpdateContact(ctx context.Context, c *domain.Contact) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&contactRecord{}).
		Where("owner_id = ? AND id = ?", c.OwnerID, c.ID).
		Updates(map[string]any{
			"name":         c.Name,
			"phone_number": c.PhoneNumber,
			"notes":        c.Notes,
			"updated_at":   now,
		})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateContact
	}
	if res.Error != nil {
		return fmt.Errorf("update contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrContactNotFound
	}
	c.UpdatedAt = now
	return nil
}

func (s *Store) DeleteContact(ctx context.Context, ownerID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).Delete(&contactRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}
