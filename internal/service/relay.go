package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/pkg/broker"
	"github.com/practicedesk/secretary/pkg/gateway"
	"github.com/practicedesk/secretary/pkg/logger"
	"github.com/practicedesk/secretary/pkg/phone"
)

const invalidInput = "invalid input"

type gatewaySender interface {
	Send(ctx context.Context, op gateway.Operation, v gateway.Variant, p gateway.Payload) domain.GatewayResponse
}

type inboundGuard interface {
	MarkInboundSeen(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
	RememberOutbound(ctx context.Context, phone, text string, ttl time.Duration) error
	IsOutboundEcho(ctx context.Context, phone, text string) (bool, error)
}

type inboundForwarder interface {
	Forward(ctx context.Context, env broker.Envelope) error
}

// MessageRelay turns send/receive intents into gateway calls. Failures come back as data.
type MessageRelay struct {
	sender      gatewaySender
	variant     gateway.Variant
	countryCode string
	config      environments.RelayConfig

	guard     inboundGuard
	forwarder inboundForwarder
}

func NewMessageRelay(
	sender gatewaySender,
	variant gateway.Variant,
	countryCode string,
	config environments.RelayConfig,
) *MessageRelay {
	return &MessageRelay{
		sender:      sender,
		variant:     variant,
		countryCode: countryCode,
		config:      config,
	}
}

// WithGuard enables inbound dedup and echo suppression.
func (r *MessageRelay) WithGuard(guard inboundGuard) *MessageRelay {
	r.guard = guard
	return r
}

// WithForwarder publishes accepted inbound messages.
func (r *MessageRelay) WithForwarder(forwarder inboundForwarder) *MessageRelay {
	r.forwarder = forwarder
	return r
}

func (r *MessageRelay) Variant() gateway.Variant {
	return r.variant
}

// SendText validates and sends one text message. Invalid input makes no gateway call.
func (r *MessageRelay) SendText(ctx context.Context, to, message string) domain.GatewayResponse {
	out, err := r.Prepare(to, message)
	if err != nil {
		logger.Warnf("Rejected outbound message: %v", err)
		return domain.GatewayResponse{Success: false, ErrorMessage: invalidInput, Err: err}
	}

	return r.Deliver(ctx, out)
}

// Deliver sends an already prepared message with the default variant.
func (r *MessageRelay) Deliver(ctx context.Context, out domain.OutboundMessage) domain.GatewayResponse {
	resp := r.sender.Send(ctx, gateway.OpSendText, r.variant, gateway.Payload{Phone: out.Recipient, Message: out.Body})

	if resp.Success && r.guard != nil {
		if err := r.guard.RememberOutbound(ctx, out.Recipient, out.Body, r.config.EchoSuppressTTL); err != nil {
			logger.Warnf("Failed to remember outbound text for %s: %v", out.Recipient, err)
		}
	}

	return resp
}

// GetMessages fetches the chat history for a phone from the gateway.
func (r *MessageRelay) GetMessages(ctx context.Context, to string) domain.GatewayResponse {
	recipient, err := phone.Normalize(strings.TrimSpace(to), r.countryCode)
	if err != nil {
		verr := &domain.ValidationError{Field: "phone", Reason: err.Error()}
		return domain.GatewayResponse{Success: false, ErrorMessage: invalidInput, Err: verr}
	}

	return r.sender.Send(ctx, gateway.OpGetMessages, r.variant, gateway.Payload{Phone: recipient})
}

// Prepare trims the body and normalizes the recipient. Errors are *domain.ValidationError.
func (r *MessageRelay) Prepare(to, message string) (domain.OutboundMessage, error) {
	body := strings.TrimSpace(message)
	if body == "" {
		return domain.OutboundMessage{}, &domain.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if limit := r.config.MaxContentLength; limit > 0 && utf8.RuneCountInString(body) > limit {
		return domain.OutboundMessage{}, &domain.ValidationError{
			Field:  "message",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters", limit),
		}
	}

	recipient, err := phone.Normalize(strings.TrimSpace(to), r.countryCode)
	if err != nil {
		return domain.OutboundMessage{}, &domain.ValidationError{Field: "to", Reason: err.Error()}
	}

	return domain.OutboundMessage{Recipient: recipient, Body: body}, nil
}

type inboundEvent struct {
	MessageID string                       `json:"messageId,omitempty"`
	Phone     string                       `json:"phone,omitempty"`
	Text      string                       `json:"text,omitempty"`
	Payload   domain.InboundWebhookPayload `json:"payload"`
}

// HandleInboundWebhook logs and forwards a gateway callback. It never returns an error
// and never panics; the caller always acknowledges the delivery.
func (r *MessageRelay) HandleInboundWebhook(ctx context.Context, payload domain.InboundWebhookPayload) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("Inbound webhook handling panicked: %v", rec)
		}
	}()

	msg := ExtractInbound(payload)

	if msg.FromMe && r.config.IgnoreFromMe {
		logger.Debugf("Ignoring inbound %s: sent by this instance", msg.MessageID)
		return
	}

	if msg.Phone == "" && msg.Text == "" {
		logger.Debugf("Ignoring inbound callback without sender or text")
		return
	}

	if r.guard != nil && r.isRepeat(ctx, msg) {
		return
	}

	logger.Infof("Inbound message %s from %s: %q", msg.MessageID, msg.Phone, msg.Text)

	if r.forwarder == nil {
		return
	}

	env := broker.NewEnvelope(broker.EventInboundWhatsApp, inboundEvent{
		MessageID: msg.MessageID,
		Phone:     msg.Phone,
		Text:      msg.Text,
		Payload:   payload,
	})
	if err := r.forwarder.Forward(ctx, env); err != nil {
		logger.Errorf("Failed to forward inbound message %s: %v", msg.MessageID, err)
	}
}

// isRepeat reports duplicates by message id and echoes of our last outbound text.
// Guard errors are logged and the message is treated as new.
func (r *MessageRelay) isRepeat(ctx context.Context, msg domain.InboundMessage) bool {
	if msg.MessageID != "" {
		fresh, err := r.guard.MarkInboundSeen(ctx, msg.MessageID, r.config.DedupTTL)
		if err != nil {
			logger.Warnf("Inbound dedup unavailable: %v", err)
		} else if !fresh {
			logger.Debugf("Ignoring duplicate inbound %s", msg.MessageID)
			return true
		}
	}

	if msg.Phone != "" && msg.Text != "" {
		echo, err := r.guard.IsOutboundEcho(ctx, msg.Phone, msg.Text)
		if err != nil {
			logger.Warnf("Echo check unavailable: %v", err)
		} else if echo {
			logger.Debugf("Ignoring echo of outbound text to %s", msg.Phone)
			return true
		}
	}

	return false
}

// ExtractInbound reads the common gateway payload shapes. Missing fields stay empty.
func ExtractInbound(payload domain.InboundWebhookPayload) domain.InboundMessage {
	var msg domain.InboundMessage

	nested, _ := payload["message"].(map[string]any)
	if nested != nil {
		msg.Phone = firstString(nested, "from", "sender", "author", "phone")
		msg.Text = firstString(nested, "text", "body", "content")
		msg.MessageID = firstString(nested, "messageId", "id")
		msg.FromMe, _ = nested["fromMe"].(bool)
	}

	if msg.Phone == "" {
		msg.Phone = firstString(payload, "phone", "from", "sender")
	}
	if msg.Text == "" {
		// Z-API nests the body as {"text": {"message": "..."}}.
		if text, ok := payload["text"].(map[string]any); ok {
			msg.Text = firstString(text, "message", "body")
		}
	}
	if msg.Text == "" {
		msg.Text = firstString(payload, "text", "message", "body", "content")
	}
	if msg.MessageID == "" {
		msg.MessageID = firstString(payload, "messageId", "id")
	}
	if fromMe, ok := payload["fromMe"].(bool); ok {
		msg.FromMe = msg.FromMe || fromMe
	}

	msg.Phone = phone.Digits(strings.TrimSuffix(strings.TrimSpace(msg.Phone), "@c.us"))
	msg.Text = strings.TrimSpace(msg.Text)

	return msg
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
