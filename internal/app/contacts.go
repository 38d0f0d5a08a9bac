package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"sms-dispatch/internal/domain"
	"sms-dispatch/internal/phone"
	"sms-dispatch/internal/ports"
)

// ContactInput carries the editable fields of a contact.
type ContactInput struct {
	Name        string
	PhoneNumber string
	Notes       string
}

// ContactService manages an owner's address book. Phone numbers are stored normalized.
type ContactService struct {
	repo ports.ContactRepository
}

func NewContactService(repo ports.ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

func (s *ContactService) Create(ctx context.Context, ownerID uuid.UUID, in ContactInput) (*domain.Contact, error) {
	name, number, err := validateContact(in)
	if err != nil {
		return nil, err
	}

	c := domain.NewContact(ownerID, name, number, in.Notes)
	if err := s.repo.CreateContact(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ContactService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error) {
	return s.repo.GetContact(ctx, ownerID, id)
}

// List returns the owner's contacts sorted by name.
func (s *ContactService) List(ctx context.Context, ownerID uuid.UUID, page Page) ([]domain.Contact, error) {
	page = page.normalize()
	return s.repo.ListContacts(ctx, ownerID, page.Skip, page.Limit)
}

// Update replaces the contact's fields. Empty fields keep their current value.
func (s *ContactService) Update(ctx context.Context, ownerID, id uuid.UUID, in ContactInput) (*domain.Contact, error) {
	c, err := s.repo.GetContact(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	if in.PhoneNumber != "" {
		ok, number := phone.Normalize(in.PhoneNumber)
		if !ok {
			return nil, domain.NewValidationError("invalid phone number %q", in.PhoneNumber)
		}
		c.PhoneNumber = number
	}
	if in.Notes != "" {
		c.Notes = in.Notes
	}

	if err := s.repo.UpdateContact(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the contact and returns it as it was before deletion.
func (s *ContactService) Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error) {
	c, err := s.repo.GetContact(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteContact(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return c, nil
}

func validateContact(in ContactInput) (string, string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", domain.NewValidationError("contact name is required")
	}
	ok, number := phone.Normalize(in.PhoneNumber)
	if !ok {
		return "", "", domain.NewValidationError("invalid phone number %q", in.PhoneNumber)
	}
	return name, number, nil
}
