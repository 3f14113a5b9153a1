package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/internal/repository"
)

type fakeReminderSender struct {
	sent    []string
	phones  []string
	success bool
}

func (f *fakeReminderSender) Send(_ context.Context, to, message string) (*domain.MessageRecord, domain.GatewayResponse) {
	f.phones = append(f.phones, to)
	f.sent = append(f.sent, message)
	if !f.success {
		return &domain.MessageRecord{ID: "rec"}, domain.GatewayResponse{Success: false, ErrorMessage: "gateway down"}
	}
	return &domain.MessageRecord{ID: "rec"}, domain.GatewayResponse{Success: true}
}

func newTestAppointmentService(sender reminderSender) (*AppointmentService, *repository.MemoryAppointmentStore) {
	store := repository.NewMemoryAppointmentStore()
	svc := NewAppointmentService(store, sender, "55", environments.ReminderConfig{
		Lead:     24 * time.Hour,
		Timezone: "UTC",
		Template: "Olá {name}! Consulta em {date} às {time}.",
	})
	return svc, store
}

func strPtr(s string) *string { return &s }

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"2024-01-05": "2024-01-05",
		"05/01/2024": "2024-01-05",
		"05-01-2024": "2024-01-05",
		"5/1/2024":   "2024-01-05",
	}
	for in, want := range tests {
		got, err := NormalizeDate(in)
		if err != nil || got != want {
			t.Errorf("NormalizeDate(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	for _, in := range []string{"", "tomorrow", "2024-13-01", "31/02/2024"} {
		if _, err := NormalizeDate(in); err == nil {
			t.Errorf("NormalizeDate(%q) expected error", in)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := map[string]string{"10:00": "10:00", "9:30": "09:30", "14h": "14:00", "14h30": "14:30"}
	for in, want := range tests {
		got, err := NormalizeTime(in)
		if err != nil || got != want {
			t.Errorf("NormalizeTime(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	for _, in := range []string{"", "25:00", "10:75", "noon"} {
		if _, err := NormalizeTime(in); err == nil {
			t.Errorf("NormalizeTime(%q) expected error", in)
		}
	}
}

func TestAppointmentService_ScheduleNormalizes(t *testing.T) {
	svc, _ := newTestAppointmentService(&fakeReminderSender{})

	a, err := svc.Schedule(context.Background(), AppointmentInput{
		ClientName: "  Ana ",
		Phone:      "(11) 99999-9999",
		Date:       "05/01/2024",
		Time:       "9:30",
	})
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	if a.ID == "" {
		t.Errorf("expected an assigned id")
	}
	if a.ClientName != "Ana" || a.Date != "2024-01-05" || a.Time != "09:30" || a.Phone != "5511999999999" {
		t.Errorf("unexpected appointment %+v", a)
	}
}

func TestAppointmentService_ScheduleValidation(t *testing.T) {
	svc, store := newTestAppointmentService(&fakeReminderSender{})

	inputs := []AppointmentInput{
		{ClientName: "", Date: "2024-01-01", Time: "10:00"},
		{ClientName: "A", Date: "bad", Time: "10:00"},
		{ClientName: "A", Date: "2024-01-01", Time: "bad"},
		{ClientName: "A", Date: "2024-01-01", Time: "10:00", Phone: "12"},
	}

	for _, in := range inputs {
		_, err := svc.Schedule(context.Background(), in)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("input %+v: expected ValidationError, got %v", in, err)
		}
	}

	list, _ := store.List(context.Background())
	if len(list) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(list))
	}
}

func TestAppointmentService_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAppointmentService(&fakeReminderSender{})

	a, err := svc.Schedule(ctx, AppointmentInput{ClientName: "A", Date: "2024-01-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	updated, err := svc.Update(ctx, a.ID, domain.AppointmentPatch{Time: strPtr("11:00")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.ClientName != "A" || updated.Date != "2024-01-01" || updated.Time != "11:00" {
		t.Fatalf("unexpected merge result %+v", updated)
	}

	if _, err := svc.Update(ctx, a.ID, domain.AppointmentPatch{Date: strPtr("nope")}); err == nil {
		t.Fatalf("expected validation error for bad date")
	}

	_, err = svc.Update(ctx, "missing", domain.AppointmentPatch{Time: strPtr("11:00")})
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestAppointmentService_CancelRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAppointmentService(&fakeReminderSender{})

	a, _ := svc.Schedule(ctx, AppointmentInput{ClientName: "A", Date: "2024-01-01", Time: "10:00"})

	list, _ := svc.List(ctx)
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("expected the new appointment in the list, got %+v", list)
	}

	ok, err := svc.Cancel(ctx, a.ID)
	if err != nil || !ok {
		t.Fatalf("Cancel = %v, %v", ok, err)
	}

	list, _ = svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("expected empty list after cancel, got %d", len(list))
	}

	ok, err = svc.Cancel(ctx, a.ID)
	var notFound *domain.NotFoundError
	if ok || !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError on second cancel, got %v, %v", ok, err)
	}
}

func TestAppointmentService_SendDueReminders(t *testing.T) {
	ctx := context.Background()
	sender := &fakeReminderSender{success: true}
	svc, store := newTestAppointmentService(sender)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	due, _ := svc.Schedule(ctx, AppointmentInput{ClientName: "Ana", Phone: "5511999999999", Date: "2024-01-02", Time: "09:00"})
	_, _ = svc.Schedule(ctx, AppointmentInput{ClientName: "Far", Phone: "5511999999998", Date: "2024-01-05", Time: "09:00"})
	_, _ = svc.Schedule(ctx, AppointmentInput{ClientName: "Past", Phone: "5511999999997", Date: "2023-12-31", Time: "09:00"})
	_, _ = svc.Schedule(ctx, AppointmentInput{ClientName: "NoPhone", Date: "2024-01-02", Time: "09:00"})

	results, err := svc.SendDueReminders(ctx)
	if err != nil {
		t.Fatalf("SendDueReminders returned error: %v", err)
	}

	if len(results) != 1 || results[0].AppointmentID != due.ID || !results[0].Success {
		t.Fatalf("expected one successful reminder for %s, got %+v", due.ID, results)
	}
	if sender.sent[0] != "Olá Ana! Consulta em 02/01/2024 às 09:00." {
		t.Errorf("unexpected reminder text %q", sender.sent[0])
	}

	stored, _ := store.Get(ctx, due.ID)
	if stored.ReminderSentAt == nil {
		t.Fatalf("expected appointment to be marked reminded")
	}

	results, _ = svc.SendDueReminders(ctx)
	if len(results) != 0 {
		t.Fatalf("expected no second reminder, got %d", len(results))
	}
}

func TestAppointmentService_FailedReminderRetriedNextRun(t *testing.T) {
	ctx := context.Background()
	sender := &fakeReminderSender{success: false}
	svc, _ := newTestAppointmentService(sender)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, _ = svc.Schedule(ctx, AppointmentInput{ClientName: "Ana", Phone: "5511999999999", Date: "2024-01-01", Time: "18:00"})

	results, _ := svc.SendDueReminders(ctx)
	if len(results) != 1 || results[0].Success || results[0].Error == nil {
		t.Fatalf("expected one failed result, got %+v", results)
	}

	results, _ = svc.SendDueReminders(ctx)
	if len(results) != 1 {
		t.Fatalf("expected the reminder to be attempted again, got %d", len(results))
	}
}
