package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/pkg/broker"
	"github.com/practicedesk/secretary/pkg/gateway"
)

//
// Test fakes – shared by the service tests.
//

type sendCall struct {
	op      gateway.Operation
	variant gateway.Variant
	payload gateway.Payload
}

type fakeSender struct {
	calls    []sendCall
	response domain.GatewayResponse
}

func (f *fakeSender) Send(_ context.Context, op gateway.Operation, v gateway.Variant, p gateway.Payload) domain.GatewayResponse {
	f.calls = append(f.calls, sendCall{op: op, variant: v, payload: p})
	return f.response
}

type fakeGuard struct {
	seen      map[string]bool
	outbound  map[string]string
	failSeen  bool
	remembers int
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{seen: map[string]bool{}, outbound: map[string]string{}}
}

func (g *fakeGuard) MarkInboundSeen(_ context.Context, id string, _ time.Duration) (bool, error) {
	if g.failSeen {
		return false, errors.New("valkey down")
	}
	if g.seen[id] {
		return false, nil
	}
	g.seen[id] = true
	return true, nil
}

func (g *fakeGuard) RememberOutbound(_ context.Context, phone, text string, _ time.Duration) error {
	g.remembers++
	g.outbound[phone] = text
	return nil
}

func (g *fakeGuard) IsOutboundEcho(_ context.Context, phone, text string) (bool, error) {
	return g.outbound[phone] == text, nil
}

type fakeForwarder struct {
	envelopes []broker.Envelope
	err       error
}

func (f *fakeForwarder) Forward(_ context.Context, env broker.Envelope) error {
	f.envelopes = append(f.envelopes, env)
	return f.err
}

var defaultVariant = gateway.Variant{URL: gateway.URLTokenPath, Header: gateway.HeaderClientToken, Body: gateway.BodyPhoneMessage}

func newTestRelay(sender *fakeSender) *MessageRelay {
	return NewMessageRelay(sender, defaultVariant, "55", environments.RelayConfig{
		IgnoreFromMe:     true,
		DedupTTL:         time.Hour,
		EchoSuppressTTL:  time.Minute,
		MaxContentLength: 100,
	})
}

//
// Tests
//

func TestSendText_ValidInputMakesExactlyOneCall(t *testing.T) {
	sender := &fakeSender{response: domain.GatewayResponse{Success: true, MessageID: "zaap-1"}}
	relay := newTestRelay(sender)

	resp := relay.SendText(context.Background(), " (11) 99999-9999 ", "  hello there \n")

	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("expected exactly 1 gateway call, got %d", len(sender.calls))
	}

	call := sender.calls[0]
	if call.op != gateway.OpSendText {
		t.Errorf("expected op %q, got %q", gateway.OpSendText, call.op)
	}
	if call.payload.Phone != "5511999999999" {
		t.Errorf("expected normalized phone 5511999999999, got %q", call.payload.Phone)
	}
	if call.payload.Message != "hello there" {
		t.Errorf("expected trimmed message, got %q", call.payload.Message)
	}
	if call.variant != defaultVariant {
		t.Errorf("expected default variant, got %v", call.variant)
	}
}

func TestSendText_WhitespaceMessageMakesNoCall(t *testing.T) {
	sender := &fakeSender{}
	relay := newTestRelay(sender)

	resp := relay.SendText(context.Background(), "5511999999999", "   \t\n ")

	if resp.Success {
		t.Fatalf("expected failure for whitespace message")
	}
	if resp.ErrorMessage != "invalid input" {
		t.Errorf("expected errorMessage %q, got %q", "invalid input", resp.ErrorMessage)
	}

	var verr *domain.ValidationError
	if !errors.As(resp.Err, &verr) {
		t.Fatalf("expected ValidationError, got %T", resp.Err)
	}
	if len(sender.calls) != 0 {
		t.Fatalf("expected no gateway call, got %d", len(sender.calls))
	}
}

func TestSendText_InvalidRecipientMakesNoCall(t *testing.T) {
	for _, to := range []string{"", "abc", "1234", "+1234567890123456"} {
		sender := &fakeSender{}
		resp := newTestRelay(sender).SendText(context.Background(), to, "hello")

		if resp.Success || resp.ErrorMessage != "invalid input" {
			t.Errorf("to=%q: expected invalid input, got %+v", to, resp)
		}
		if len(sender.calls) != 0 {
			t.Errorf("to=%q: expected no gateway call, got %d", to, len(sender.calls))
		}
	}
}

func TestSendText_TooLongMessageRejected(t *testing.T) {
	sender := &fakeSender{}
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}

	resp := newTestRelay(sender).SendText(context.Background(), "5511999999999", string(long))

	if resp.Success || len(sender.calls) != 0 {
		t.Fatalf("expected rejection without a call, got %+v (%d calls)", resp, len(sender.calls))
	}
}

func TestSendText_LimitCountsCharactersNotBytes(t *testing.T) {
	sender := &fakeSender{response: domain.GatewayResponse{Success: true}}

	// 100 characters, 200 bytes.
	accented := strings.Repeat("ã", 100)

	resp := newTestRelay(sender).SendText(context.Background(), "5511999999999", accented)

	if !resp.Success || len(sender.calls) != 1 {
		t.Fatalf("expected a 100-character message to be sent, got %+v (%d calls)", resp, len(sender.calls))
	}
	if sender.calls[0].payload.Message != accented {
		t.Fatalf("expected message unchanged, got %q", sender.calls[0].payload.Message)
	}

	resp = newTestRelay(sender).SendText(context.Background(), "5511999999999", accented+"é")
	if resp.Success || len(sender.calls) != 1 {
		t.Fatalf("expected 101 characters to be rejected, got %+v", resp)
	}
}

func TestSendText_NoDedupAcrossCalls(t *testing.T) {
	sender := &fakeSender{response: domain.GatewayResponse{Success: true}}
	relay := newTestRelay(sender)

	relay.SendText(context.Background(), "5511999999999", "same")
	relay.SendText(context.Background(), "5511999999999", "same")

	if len(sender.calls) != 2 {
		t.Fatalf("expected 2 gateway calls, got %d", len(sender.calls))
	}
}

func TestSendText_GatewayFailureReturnedUnchanged(t *testing.T) {
	failure := domain.GatewayResponse{
		Success:      false,
		StatusCode:   401,
		ErrorMessage: "invalid token",
		Err:          &domain.GatewayError{StatusCode: 401, Message: "invalid token"},
	}
	sender := &fakeSender{response: failure}
	guard := newFakeGuard()
	relay := newTestRelay(sender).WithGuard(guard)

	resp := relay.SendText(context.Background(), "5511999999999", "hi")

	if resp.ErrorMessage != "invalid token" || resp.StatusCode != 401 {
		t.Fatalf("expected gateway failure to pass through, got %+v", resp)
	}
	if guard.remembers != 0 {
		t.Errorf("failed sends must not be remembered for echo suppression")
	}
}

func TestSendText_RemembersSuccessfulOutbound(t *testing.T) {
	sender := &fakeSender{response: domain.GatewayResponse{Success: true}}
	guard := newFakeGuard()
	relay := newTestRelay(sender).WithGuard(guard)

	relay.SendText(context.Background(), "5511999999999", "see you tomorrow")

	if guard.outbound["5511999999999"] != "see you tomorrow" {
		t.Fatalf("expected outbound text to be remembered, got %v", guard.outbound)
	}
}

func TestGetMessages_UsesGetOperation(t *testing.T) {
	sender := &fakeSender{response: domain.GatewayResponse{Success: true}}

	newTestRelay(sender).GetMessages(context.Background(), "11999999999")

	if len(sender.calls) != 1 || sender.calls[0].op != gateway.OpGetMessages {
		t.Fatalf("expected one getMessages call, got %+v", sender.calls)
	}
	if sender.calls[0].payload.Phone != "5511999999999" {
		t.Errorf("expected normalized phone, got %q", sender.calls[0].payload.Phone)
	}
}

func TestHandleInboundWebhook_ForwardsPayload(t *testing.T) {
	forwarder := &fakeForwarder{}
	relay := newTestRelay(&fakeSender{}).WithForwarder(forwarder)

	payload := domain.InboundWebhookPayload{
		"phone":     "5511999999999",
		"messageId": "m1",
		"text":      map[string]any{"message": "Oi"},
	}
	relay.HandleInboundWebhook(context.Background(), payload)

	if len(forwarder.envelopes) != 1 {
		t.Fatalf("expected 1 forwarded envelope, got %d", len(forwarder.envelopes))
	}

	env := forwarder.envelopes[0]
	if env.Meta.EventType != broker.EventInboundWhatsApp {
		t.Errorf("unexpected event type %q", env.Meta.EventType)
	}
	event, ok := env.Data.(inboundEvent)
	if !ok {
		t.Fatalf("expected inboundEvent data, got %T", env.Data)
	}
	if event.Text != "Oi" || event.Phone != "5511999999999" || event.MessageID != "m1" {
		t.Errorf("unexpected event %+v", event)
	}
	if _, ok := payload["text"].(map[string]any); !ok {
		t.Errorf("payload must not be mutated")
	}
}

func TestHandleInboundWebhook_IgnoresFromMe(t *testing.T) {
	forwarder := &fakeForwarder{}
	relay := newTestRelay(&fakeSender{}).WithForwarder(forwarder)

	relay.HandleInboundWebhook(context.Background(), domain.InboundWebhookPayload{
		"phone": "5511999999999", "text": "Oi", "fromMe": true,
	})

	if len(forwarder.envelopes) != 0 {
		t.Fatalf("expected fromMe message to be ignored")
	}
}

func TestHandleInboundWebhook_DuplicateIDIgnored(t *testing.T) {
	forwarder := &fakeForwarder{}
	relay := newTestRelay(&fakeSender{}).WithGuard(newFakeGuard()).WithForwarder(forwarder)

	payload := domain.InboundWebhookPayload{"message": map[string]any{"from": "5511999999999", "text": "Oi", "id": "abc123"}}
	relay.HandleInboundWebhook(context.Background(), payload)
	relay.HandleInboundWebhook(context.Background(), payload)

	if len(forwarder.envelopes) != 1 {
		t.Fatalf("expected duplicate to be dropped, got %d forwards", len(forwarder.envelopes))
	}
}

func TestHandleInboundWebhook_EchoOfOutboundIgnored(t *testing.T) {
	sender := &fakeSender{response: domain.GatewayResponse{Success: true}}
	forwarder := &fakeForwarder{}
	relay := newTestRelay(sender).WithGuard(newFakeGuard()).WithForwarder(forwarder)

	relay.SendText(context.Background(), "5511888888888", "Qual seu nome completo?")
	relay.HandleInboundWebhook(context.Background(), domain.InboundWebhookPayload{
		"message": map[string]any{"from": "5511888888888@c.us", "text": "Qual seu nome completo?", "id": "m2"},
	})

	if len(forwarder.envelopes) != 0 {
		t.Fatalf("expected echo to be ignored, got %d forwards", len(forwarder.envelopes))
	}
}

func TestHandleInboundWebhook_GuardErrorStillForwards(t *testing.T) {
	guard := newFakeGuard()
	guard.failSeen = true
	forwarder := &fakeForwarder{}
	relay := newTestRelay(&fakeSender{}).WithGuard(guard).WithForwarder(forwarder)

	relay.HandleInboundWebhook(context.Background(), domain.InboundWebhookPayload{"phone": "5511999999999", "text": "Oi", "id": "x"})

	if len(forwarder.envelopes) != 1 {
		t.Fatalf("expected message to be forwarded when the guard fails")
	}
}

func TestHandleInboundWebhook_NeverPanicsOrFails(t *testing.T) {
	forwarder := &fakeForwarder{err: errors.New("broker down")}
	relay := newTestRelay(&fakeSender{}).WithForwarder(forwarder)

	payloads := []domain.InboundWebhookPayload{
		nil,
		{},
		{"message": "plain string"},
		{"message": map[string]any{"from": 42, "text": []any{"x"}}},
		{"text": map[string]any{"message": 7}},
		{"phone": "5511999999999", "text": "Oi"},
	}

	for _, p := range payloads {
		relay.HandleInboundWebhook(context.Background(), p)
	}
}

func TestExtractInbound(t *testing.T) {
	tests := []struct {
		name    string
		payload domain.InboundWebhookPayload
		want    domain.InboundMessage
	}{
		{
			name:    "nested message",
			payload: domain.InboundWebhookPayload{"message": map[string]any{"sender": "5511777777777", "body": " oi ", "id": "x1"}},
			want:    domain.InboundMessage{MessageID: "x1", Phone: "5511777777777", Text: "oi"},
		},
		{
			name: "z-api received callback",
			payload: domain.InboundWebhookPayload{
				"phone": "5511999999999", "messageId": "3EB0", "fromMe": false,
				"text": map[string]any{"message": "Quero marcar"},
			},
			want: domain.InboundMessage{MessageID: "3EB0", Phone: "5511999999999", Text: "Quero marcar"},
		},
		{
			name:    "flat fields",
			payload: domain.InboundWebhookPayload{"from": "+55 11 96666-6666", "content": "hello", "fromMe": true},
			want:    domain.InboundMessage{Phone: "5511966666666", Text: "hello", FromMe: true},
		},
		{
			name:    "empty",
			payload: domain.InboundWebhookPayload{},
			want:    domain.InboundMessage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractInbound(tt.payload); got != tt.want {
				t.Errorf("ExtractInbound() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
