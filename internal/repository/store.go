package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/practicedesk/secretary/internal/domain"
)

// AppointmentStore keeps appointments in scheduling order. IDs are assigned by the store.
type AppointmentStore interface {
	Schedule(ctx context.Context, a domain.Appointment) (domain.Appointment, error)
	Get(ctx context.Context, id string) (domain.Appointment, error)
	Update(ctx context.Context, id string, patch domain.AppointmentPatch) (domain.Appointment, error)
	Cancel(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]domain.Appointment, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
}

type ContactStore interface {
	Create(ctx context.Context, c domain.Contact) (domain.Contact, error)
	Get(ctx context.Context, id string) (domain.Contact, error)
}

// MessageStore is the outbound message log.
type MessageStore interface {
	Create(ctx context.Context, recipient, body, variant string) (domain.MessageRecord, error)
	GetByID(ctx context.Context, id string) (domain.MessageRecord, error)
	MarkAsSent(ctx context.Context, id, gatewayMessageID string) error
	MarkAsFailed(ctx context.Context, id, reason string) error
	MarkAsPending(ctx context.Context, id string) error
	GetAll(ctx context.Context, status *domain.MessageStatus, page, pageSize int) ([]domain.MessageRecord, int64, error)
	GetStats(ctx context.Context) (domain.MessageStats, error)
}

var (
	_ AppointmentStore = (*MemoryAppointmentStore)(nil)
	_ AppointmentStore = (*AppointmentRepository)(nil)
	_ ContactStore     = (*MemoryContactStore)(nil)
	_ ContactStore     = (*ContactRepository)(nil)
	_ MessageStore     = (*MemoryMessageStore)(nil)
	_ MessageStore     = (*MessageRepository)(nil)
)

// Stores bundles the three stores of one storage driver.
type Stores struct {
	Appointments AppointmentStore
	Contacts     ContactStore
	Messages     MessageStore
}

func NewMemoryStores() Stores {
	return Stores{
		Appointments: NewMemoryAppointmentStore(),
		Contacts:     NewMemoryContactStore(),
		Messages:     NewMemoryMessageStore(),
	}
}

func NewMySQLStores(db *sqlx.DB) Stores {
	return Stores{
		Appointments: NewAppointmentRepository(db),
		Contacts:     NewContactRepository(db),
		Messages:     NewMessageRepository(db),
	}
}
