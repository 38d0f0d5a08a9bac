package postgres

import (
	"time"

	"github.com/google/uuid"

	"sms-dispatch/internal/domain"
)

type accountRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	FullName     string    `gorm:"size:255"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (accountRecord) TableName() string { return "accounts" }

func toAccountRecord(a *domain.Account) accountRecord {
	return accountRecord{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		FullName:     a.FullName,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (r accountRecord) toDomain() *domain.Account {
	return &domain.Account{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		FullName:     r.FullName,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type contactRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_contact_owner_phone;index"`
	Name        string    `gorm:"size:255;not null"`
	PhoneNumber string    `gorm:"size:32;not null;uniqueIndex:idx_contact_owner_phone"`
	Notes       string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (contactRecord) TableName() string { return "contacts" }

func toContactRecord(c *domain.Contact) contactRecord {
	return contactRecord{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (r contactRecord) toDomain() *domain.Contact {
	return &domain.Contact{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type messageRecord struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Content            string     `gorm:"type:text;not null"`
	RecipientNumber    string     `gorm:"size:32;not null"`
	SenderID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_message_sender_created"`
	RecipientContactID *uuid.UUID `gorm:"type:uuid"`
	Status             string     `gorm:"size:16;not null;index"`
	GatewayMessageID   string     `gorm:"size:128;index"`
	CreatedAt          time.Time  `gorm:"not null;index:idx_message_sender_created"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

func (messageRecord) TableName() string { return "sms_messages" }

func toMessageRecord(m *domain.Message) messageRecord {
	return messageRecord{
		ID:                 m.ID,
		Content:            m.Content,
		RecipientNumber:    m.RecipientNumber,
		SenderID:           m.SenderID,
		RecipientContactID: m.RecipientContactID,
		Status:             string(m.Status),
		GatewayMessageID:   m.GatewayMessageID,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func (r messageRecord) toDomain() *domain.Message {
	return &domain.Message{
		ID:                 r.ID,
		Content:            r.Content,
		RecipientNumber:    r.RecipientNumber,
		SenderID:           r.SenderID,
		RecipientContactID: r.RecipientContactID,
		Status:             domain.Status(r.Status),
		GatewayMessageID:   r.GatewayMessageID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
