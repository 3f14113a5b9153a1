package service

import (
	"context"
	"errors"
	"testing"

	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/internal/repository"
)

type failingCreateRepo struct {
	*repository.MemoryMessageStore
}

func (failingCreateRepo) Create(context.Context, string, string, string) (domain.MessageRecord, error) {
	return domain.MessageRecord{}, errors.New("disk full")
}

func TestMessageService_SendRecordsSuccess(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{response: domain.GatewayResponse{Success: true, MessageID: "zaap-9"}}
	repo := repository.NewMemoryMessageStore()
	svc := NewMessageService(repo, newTestRelay(sender))

	rec, resp := svc.Send(ctx, "11999999999", " hello ")
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if rec == nil {
		t.Fatalf("expected a message record")
	}

	stored, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.Status != domain.StatusSent {
		t.Errorf("expected status sent, got %s", stored.Status)
	}
	if stored.Recipient != "5511999999999" || stored.Body != "hello" {
		t.Errorf("unexpected stored record %+v", stored)
	}
	if stored.GatewayMessageID == nil || *stored.GatewayMessageID != "zaap-9" {
		t.Errorf("expected gateway message id zaap-9, got %v", stored.GatewayMessageID)
	}
	if stored.Variant != defaultVariant.Label() {
		t.Errorf("expected variant %q, got %q", defaultVariant.Label(), stored.Variant)
	}
}

func TestMessageService_SendRecordsFailure(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{response: domain.GatewayResponse{Success: false, StatusCode: 401, ErrorMessage: "invalid token"}}
	repo := repository.NewMemoryMessageStore()
	svc := NewMessageService(repo, newTestRelay(sender))

	rec, resp := svc.Send(ctx, "5511999999999", "hello")
	if resp.Success {
		t.Fatalf("expected failure")
	}
	if rec == nil || rec.Status != domain.StatusFailed {
		t.Fatalf("expected failed record, got %+v", rec)
	}
	if rec.Error == nil || *rec.Error != "invalid token" {
		t.Errorf("expected error reason to be stored, got %v", rec.Error)
	}
}

func TestMessageService_InvalidInputNotLogged(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	repo := repository.NewMemoryMessageStore()
	svc := NewMessageService(repo, newTestRelay(sender))

	rec, resp := svc.Send(ctx, "5511999999999", "   ")
	if rec != nil {
		t.Fatalf("expected no record for invalid input")
	}
	if resp.ErrorMessage != "invalid input" {
		t.Errorf("expected invalid input, got %q", resp.ErrorMessage)
	}

	stats, _ := repo.GetStats(ctx)
	if stats != (domain.MessageStats{}) {
		t.Errorf("expected empty log, got %+v", stats)
	}
	if len(sender.calls) != 0 {
		t.Errorf("expected no gateway call")
	}
}

func TestMessageService_SendsEvenWhenLogFails(t *testing.T) {
	sender := &fakeSender{response: domain.GatewayResponse{Success: true}}
	repo := failingCreateRepo{repository.NewMemoryMessageStore()}
	svc := NewMessageService(repo, newTestRelay(sender))

	rec, resp := svc.Send(context.Background(), "5511999999999", "hello")
	if rec != nil || !resp.Success {
		t.Fatalf("expected unrecorded success, got rec=%v resp=%+v", rec, resp)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("expected exactly one gateway call, got %d", len(sender.calls))
	}
}

func TestMessageService_ResendFailedMessage(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{response: domain.GatewayResponse{Success: false, ErrorMessage: "timeout"}}
	repo := repository.NewMemoryMessageStore()
	svc := NewMessageService(repo, newTestRelay(sender))

	rec, _ := svc.Send(ctx, "5511999999999", "hello")

	sender.response = domain.GatewayResponse{Success: true, MessageID: "zaap-2"}
	resent, resp, err := svc.Resend(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Resend returned error: %v", err)
	}
	if !resp.Success || resent.Status != domain.StatusSent {
		t.Fatalf("expected resent message to be sent, got %+v", resent)
	}
	if len(sender.calls) != 2 {
		t.Fatalf("expected 2 gateway calls, got %d", len(sender.calls))
	}
	if sender.calls[1].payload.Message != "hello" || sender.calls[1].payload.Phone != "5511999999999" {
		t.Errorf("unexpected resend payload %+v", sender.calls[1].payload)
	}
}

func TestMessageService_ResendRejectsNonFailed(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{response: domain.GatewayResponse{Success: true}}
	repo := repository.NewMemoryMessageStore()
	svc := NewMessageService(repo, newTestRelay(sender))

	rec, _ := svc.Send(ctx, "5511999999999", "hello")

	_, _, err := svc.Resend(ctx, rec.ID)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, _, err = svc.Resend(ctx, "missing")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
