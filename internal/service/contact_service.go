package service

import (
	"context"
	"strings"

	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/pkg/phone"
)

type contactStore interface {
	Create(ctx context.Context, c domain.Contact) (domain.Contact, error)
	Get(ctx context.Context, id string) (domain.Contact, error)
}

type ContactService struct {
	store       contactStore
	countryCode string
}

func NewContactService(store contactStore, countryCode string) *ContactService {
	return &ContactService{store: store, countryCode: countryCode}
}

func (s *ContactService) Create(ctx context.Context, name, rawPhone string, notes *string) (domain.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Contact{}, &domain.ValidationError{Field: "name", Reason: "is required"}
	}

	number, err := phone.Normalize(rawPhone, s.countryCode)
	if err != nil {
		return domain.Contact{}, &domain.ValidationError{Field: "phone", Reason: err.Error()}
	}

	return s.store.Create(ctx, domain.Contact{Name: name, Phone: number, Notes: notes})
}

func (s *ContactService) Get(ctx context.Context, id string) (domain.Contact, error) {
	return s.store.Get(ctx, id)
}
