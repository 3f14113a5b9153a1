package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/pkg/logger"
	"github.com/practicedesk/secretary/pkg/phone"
)

type appointmentStore interface {
	Schedule(ctx context.Context, a domain.Appointment) (domain.Appointment, error)
	Get(ctx context.Context, id string) (domain.Appointment, error)
	Update(ctx context.Context, id string, patch domain.AppointmentPatch) (domain.Appointment, error)
	Cancel(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]domain.Appointment, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
}

type reminderSender interface {
	Send(ctx context.Context, to, message string) (*domain.MessageRecord, domain.GatewayResponse)
}

type AppointmentInput struct {
	ClientName string
	Phone      string
	Date       string
	Time       string
	Notes      *string
}

type AppointmentService struct {
	store       appointmentStore
	sender      reminderSender
	countryCode string
	reminder    environments.ReminderConfig
	location    *time.Location
	now         func() time.Time
}

func NewAppointmentService(
	store appointmentStore,
	sender reminderSender,
	countryCode string,
	reminder environments.ReminderConfig,
) *AppointmentService {
	loc, err := time.LoadLocation(reminder.Timezone)
	if err != nil {
		logger.Warnf("Unknown REMINDER_TIMEZONE %q, using UTC: %v", reminder.Timezone, err)
		loc = time.UTC
	}

	return &AppointmentService{
		store:       store,
		sender:      sender,
		countryCode: countryCode,
		reminder:    reminder,
		location:    loc,
		now:         time.Now,
	}
}

func (s *AppointmentService) Schedule(ctx context.Context, in AppointmentInput) (domain.Appointment, error) {
	name := strings.TrimSpace(in.ClientName)
	if name == "" {
		return domain.Appointment{}, &domain.ValidationError{Field: "clientName", Reason: "is required"}
	}

	date, err := NormalizeDate(in.Date)
	if err != nil {
		return domain.Appointment{}, err
	}

	clock, err := NormalizeTime(in.Time)
	if err != nil {
		return domain.Appointment{}, err
	}

	number, err := s.normalizePhone(in.Phone)
	if err != nil {
		return domain.Appointment{}, err
	}

	a, err := s.store.Schedule(ctx, domain.Appointment{
		ClientName: name,
		Phone:      number,
		Date:       date,
		Time:       clock,
		Notes:      in.Notes,
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	logger.Infof("Scheduled appointment %s for %s on %s at %s", a.ID, a.ClientName, a.Date, a.Time)

	return a, nil
}

func (s *AppointmentService) Get(ctx context.Context, id string) (domain.Appointment, error) {
	return s.store.Get(ctx, id)
}

// Update validates the supplied fields and merges them into the stored appointment.
func (s *AppointmentService) Update(
	ctx context.Context,
	id string,
	patch domain.AppointmentPatch,
) (domain.Appointment, error) {
	if patch.ClientName != nil {
		name := strings.TrimSpace(*patch.ClientName)
		if name == "" {
			return domain.Appointment{}, &domain.ValidationError{Field: "clientName", Reason: "must not be empty"}
		}
		patch.ClientName = &name
	}

	if patch.Date != nil {
		date, err := NormalizeDate(*patch.Date)
		if err != nil {
			return domain.Appointment{}, err
		}
		patch.Date = &date
	}

	if patch.Time != nil {
		clock, err := NormalizeTime(*patch.Time)
		if err != nil {
			return domain.Appointment{}, err
		}
		patch.Time = &clock
	}

	if patch.Phone != nil {
		number, err := s.normalizePhone(*patch.Phone)
		if err != nil {
			return domain.Appointment{}, err
		}
		patch.Phone = &number
	}

	return s.store.Update(ctx, id, patch)
}

func (s *AppointmentService) Cancel(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.Cancel(ctx, id)
	if err == nil && ok {
		logger.Infof("Cancelled appointment %s", id)
	}
	return ok, err
}

func (s *AppointmentService) List(ctx context.Context) ([]domain.Appointment, error) {
	return s.store.List(ctx)
}

// SendDueReminders messages every appointment with a phone that starts within the
// configured lead time and has not been reminded yet.
func (s *AppointmentService) SendDueReminders(ctx context.Context) ([]domain.SendResult, error) {
	appointments, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	now := s.now().In(s.location)
	var results []domain.SendResult

	for _, a := range appointments {
		if a.Phone == "" || a.ReminderSentAt != nil {
			continue
		}

		startsAt, err := a.StartsAt(s.location)
		if err != nil {
			logger.Warnf("Skipping appointment %s with unparseable date/time: %v", a.ID, err)
			continue
		}
		if !startsAt.After(now) || startsAt.Sub(now) > s.reminder.Lead {
			continue
		}

		results = append(results, s.remind(ctx, a))
	}

	return results, nil
}

func (s *AppointmentService) remind(ctx context.Context, a domain.Appointment) domain.SendResult {
	result := domain.SendResult{AppointmentID: a.ID, SentAt: s.now()}

	rec, resp := s.sender.Send(ctx, a.Phone, s.renderReminder(a))
	if rec != nil {
		result.MessageID = rec.ID
	}

	if !resp.Success {
		result.Error = fmt.Errorf("reminder for appointment %s failed: %s", a.ID, resp.ErrorMessage)
		logger.Warnf("%v", result.Error)
		return result
	}

	result.Success = true
	if err := s.store.MarkReminded(ctx, a.ID, result.SentAt); err != nil {
		logger.Errorf("Failed to mark appointment %s reminded: %v", a.ID, err)
	}

	return result
}

func (s *AppointmentService) renderReminder(a domain.Appointment) string {
	date := a.Date
	if t, err := time.Parse(isoDate, a.Date); err == nil {
		date = t.Format("02/01/2006")
	}

	return strings.NewReplacer(
		"{name}", a.ClientName,
		"{date}", date,
		"{time}", a.Time,
	).Replace(s.reminder.Template)
}

func (s *AppointmentService) normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	number, err := phone.Normalize(raw, s.countryCode)
	if err != nil {
		return "", &domain.ValidationError{Field: "phone", Reason: err.Error()}
	}
	return number, nil
}

const isoDate = "2006-01-02"

var dateLayouts = []string{isoDate, "02/01/2006", "02-01-2006", "2/1/2006"}

// NormalizeDate accepts YYYY-MM-DD, DD/MM/YYYY or DD-MM-YYYY and returns YYYY-MM-DD.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(isoDate), nil
		}
	}
	return "", &domain.ValidationError{Field: "date", Reason: fmt.Sprintf("unrecognized date %q", raw)}
}

// NormalizeTime accepts H:MM or HH:MM (24h) and returns HH:MM.
func NormalizeTime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15h04", "15h"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", &domain.ValidationError{Field: "time", Reason: fmt.Sprintf("unrecognized time %q", raw)}
}
