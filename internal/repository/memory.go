package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/practicedesk/secretary/internal/domain"
)

// MemoryAppointmentStore keeps appointments in process memory, in insertion order.
// One RWMutex guards every read-modify-write sequence. Records are cloned on the way
// in and out so callers never hold pointers into the store.
type MemoryAppointmentStore struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Appointment
}

func NewMemoryAppointmentStore() *MemoryAppointmentStore {
	return &MemoryAppointmentStore{items: make(map[string]domain.Appointment)}
}

func (s *MemoryAppointmentStore) Schedule(_ context.Context, a domain.Appointment) (domain.Appointment, error) {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a = a.Clone()
	a.ReminderSentAt = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		a.ID = uuid.NewString()
		if _, taken := s.items[a.ID]; !taken {
			break
		}
	}

	s.items[a.ID] = a
	s.order = append(s.order, a.ID)

	return a.Clone(), nil
}

func (s *MemoryAppointmentStore) Get(_ context.Context, id string) (domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	if !ok {
		return domain.Appointment{}, &domain.NotFoundError{Resource: "appointment", ID: id}
	}
	return a.Clone(), nil
}

func (s *MemoryAppointmentStore) Update(
	_ context.Context,
	id string,
	patch domain.AppointmentPatch,
) (domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[id]
	if !ok {
		return domain.Appointment{}, &domain.NotFoundError{Resource: "appointment", ID: id}
	}

	a = a.Clone()
	patch.Apply(&a)
	a.UpdatedAt = time.Now().UTC()
	s.items[id] = a

	return a.Clone(), nil
}

func (s *MemoryAppointmentStore) Cancel(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, &domain.NotFoundError{Resource: "appointment", ID: id}
	}

	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return true, nil
}

// List returns a snapshot; callers may range over it while the store changes.
func (s *MemoryAppointmentStore) List(_ context.Context) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Appointment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out, nil
}

func (s *MemoryAppointmentStore) MarkReminded(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[id]
	if !ok {
		return &domain.NotFoundError{Resource: "appointment", ID: id}
	}

	at = at.UTC()
	a.ReminderSentAt = &at
	s.items[id] = a

	return nil
}

type MemoryContactStore struct {
	mu    sync.RWMutex
	items map[string]domain.Contact
}

func NewMemoryContactStore() *MemoryContactStore {
	return &MemoryContactStore{items: make(map[string]domain.Contact)}
}

func (s *MemoryContactStore) Create(_ context.Context, c domain.Contact) (domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c = c.Clone()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	s.items[c.ID] = c

	return c.Clone(), nil
}

func (s *MemoryContactStore) Get(_ context.Context, id string) (domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.items[id]
	if !ok {
		return domain.Contact{}, &domain.NotFoundError{Resource: "contact", ID: id}
	}
	return c.Clone(), nil
}

// MemoryMessageStore is the in-process outbound message log.
type MemoryMessageStore struct {
	mu      sync.RWMutex
	records []domain.MessageRecord
	index   map[string]int
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{index: make(map[string]int)}
}

func (s *MemoryMessageStore) Create(_ context.Context, recipient, body, variant string) (domain.MessageRecord, error) {
	now := time.Now().UTC()
	rec := domain.MessageRecord{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Body:      body,
		Status:    domain.StatusPending,
		Variant:   variant,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)

	return rec, nil
}

func (s *MemoryMessageStore) GetByID(_ context.Context, id string) (domain.MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return domain.MessageRecord{}, &domain.NotFoundError{Resource: "message", ID: id}
	}
	return s.records[i].Clone(), nil
}

func (s *MemoryMessageStore) MarkAsSent(_ context.Context, id, gatewayMessageID string) error {
	return s.update(id, func(rec *domain.MessageRecord) {
		rec.Status = domain.StatusSent
		rec.Error = nil
		if gatewayMessageID != "" {
			rec.GatewayMessageID = &gatewayMessageID
		}
	})
}

func (s *MemoryMessageStore) MarkAsFailed(_ context.Context, id, reason string) error {
	return s.update(id, func(rec *domain.MessageRecord) {
		rec.Status = domain.StatusFailed
		rec.Error = &reason
	})
}

func (s *MemoryMessageStore) MarkAsPending(_ context.Context, id string) error {
	return s.update(id, func(rec *domain.MessageRecord) {
		rec.Status = domain.StatusPending
		rec.Error = nil
		rec.GatewayMessageID = nil
	})
}

func (s *MemoryMessageStore) update(id string, fn func(*domain.MessageRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return &domain.NotFoundError{Resource: "message", ID: id}
	}

	fn(&s.records[i])
	s.records[i].UpdatedAt = time.Now().UTC()

	return nil
}

// GetAll pages newest first, like the MySQL store.
func (s *MemoryMessageStore) GetAll(
	_ context.Context,
	status *domain.MessageStatus,
	page, pageSize int,
) ([]domain.MessageRecord, int64, error) {
	s.mu.RLock()
	filtered := make([]domain.MessageRecord, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		if status == nil || s.records[i].Status == *status {
			filtered = append(filtered, s.records[i].Clone())
		}
	}
	s.mu.RUnlock()

	total := int64(len(filtered))
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	if offset >= len(filtered) {
		return []domain.MessageRecord{}, total, nil
	}

	end := offset + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[offset:end], total, nil
}

func (s *MemoryMessageStore) GetStats(_ context.Context) (domain.MessageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.MessageStats
	for _, rec := range s.records {
		switch rec.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusSent:
			stats.Sent++
		case domain.StatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}
