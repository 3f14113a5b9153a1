package service

import (
	"context"
	"fmt"

	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/pkg/gateway"
	"github.com/practicedesk/secretary/pkg/logger"
)

// Small internal interfaces so we can test without touching a real DB or gateway.
type messageRepository interface {
	Create(ctx context.Context, recipient, body, variant string) (domain.MessageRecord, error)
	GetByID(ctx context.Context, id string) (domain.MessageRecord, error)
	MarkAsSent(ctx context.Context, id, gatewayMessageID string) error
	MarkAsFailed(ctx context.Context, id, reason string) error
	MarkAsPending(ctx context.Context, id string) error
	GetAll(ctx context.Context, status *domain.MessageStatus, page, pageSize int) ([]domain.MessageRecord, int64, error)
	GetStats(ctx context.Context) (domain.MessageStats, error)
}

type outboundRelay interface {
	Prepare(to, message string) (domain.OutboundMessage, error)
	Deliver(ctx context.Context, out domain.OutboundMessage) domain.GatewayResponse
	Variant() gateway.Variant
}

// MessageService sends through the relay and keeps the outbound message log.
type MessageService struct {
	repo  messageRepository
	relay outboundRelay
}

func NewMessageService(repo messageRepository, relay outboundRelay) *MessageService {
	return &MessageService{
		repo:  repo,
		relay: relay,
	}
}

// Send records and delivers one message. The record is nil only when the input was
// rejected or the log could not be written; the gateway response is always set.
func (s *MessageService) Send(ctx context.Context, to, message string) (*domain.MessageRecord, domain.GatewayResponse) {
	out, err := s.relay.Prepare(to, message)
	if err != nil {
		return nil, domain.GatewayResponse{Success: false, ErrorMessage: invalidInput, Err: err}
	}

	rec, err := s.repo.Create(ctx, out.Recipient, out.Body, s.relay.Variant().Label())
	if err != nil {
		logger.Errorf("Failed to log outbound message to %s: %v", out.Recipient, err)
		return nil, s.relay.Deliver(ctx, out)
	}

	resp := s.relay.Deliver(ctx, out)
	s.record(ctx, &rec, resp)

	return &rec, resp
}

// Resend delivers a failed message again.
func (s *MessageService) Resend(ctx context.Context, id string) (*domain.MessageRecord, domain.GatewayResponse, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.GatewayResponse{}, err
	}

	if rec.Status != domain.StatusFailed {
		return nil, domain.GatewayResponse{}, &domain.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("only failed messages can be resent (message is %s)", rec.Status),
		}
	}

	if err := s.repo.MarkAsPending(ctx, id); err != nil {
		return nil, domain.GatewayResponse{}, fmt.Errorf("failed to reset message %s: %w", id, err)
	}
	rec.Status = domain.StatusPending

	logger.Infof("Resending message %s to %s", id, rec.Recipient)

	resp := s.relay.Deliver(ctx, domain.OutboundMessage{Recipient: rec.Recipient, Body: rec.Body})
	s.record(ctx, &rec, resp)

	return &rec, resp, nil
}

func (s *MessageService) record(ctx context.Context, rec *domain.MessageRecord, resp domain.GatewayResponse) {
	if resp.Success {
		if err := s.repo.MarkAsSent(ctx, rec.ID, resp.MessageID); err != nil {
			logger.Errorf("Failed to mark message %s as sent: %v", rec.ID, err)
			return
		}
		rec.Status = domain.StatusSent
		rec.Error = nil
		if resp.MessageID != "" {
			gatewayID := resp.MessageID
			rec.GatewayMessageID = &gatewayID
		}
		logger.Infof("Successfully sent message %s (gatewayMessageId: %s)", rec.ID, resp.MessageID)
		return
	}

	reason := resp.ErrorMessage
	if err := s.repo.MarkAsFailed(ctx, rec.ID, reason); err != nil {
		logger.Errorf("Failed to mark message %s as failed: %v", rec.ID, err)
		return
	}
	rec.Status = domain.StatusFailed
	rec.Error = &reason
	logger.Warnf("Message %s to %s failed: %s", rec.ID, rec.Recipient, reason)
}

func (s *MessageService) GetMessage(ctx context.Context, id string) (domain.MessageRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *MessageService) GetAllMessages(
	ctx context.Context,
	status *domain.MessageStatus,
	page,
	pageSize int,
) ([]domain.MessageRecord, int64, error) {
	return s.repo.GetAll(ctx, status, page, pageSize)
}

func (s *MessageService) GetStats(ctx context.Context) (domain.MessageStats, error) {
	return s.repo.GetStats(ctx)
}
