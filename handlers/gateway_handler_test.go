package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/practicedesk/secretary/pkg/broker"
)

type recordingForwarder struct {
	mu     sync.Mutex
	events []broker.Envelope
}

func (f *recordingForwarder) Forward(_ context.Context, env broker.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, env)
	return nil
}

func (f *recordingForwarder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestInboundWebhook_AlwaysAcknowledged(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		forwarded int
	}{
		{
			name:      "nested message",
			body:      `{"message":{"from":"5511999998888@c.us","text":"Oi","id":"m-1"}}`,
			forwarded: 1,
		},
		{
			name:      "flat payload",
			body:      `{"phone":"5511999998888","text":{"message":"Quero marcar"},"messageId":"m-2"}`,
			forwarded: 1,
		},
		{
			name:      "own message ignored",
			body:      `{"phone":"5511999998888","text":{"message":"eco"},"messageId":"m-3","fromMe":true}`,
			forwarded: 0,
		},
		{
			name:      "unreadable body",
			body:      `{"phone":`,
			forwarded: 0,
		},
		{
			name:      "empty object",
			body:      `{}`,
			forwarded: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			forwarder := &recordingForwarder{}
			handler := NewGatewayHandler(newStubRelay().WithForwarder(forwarder))

			c, rec := postJSON(e, "/webhook", tt.body)

			if err := handler.InboundWebhook(c); err != nil {
				t.Fatalf("InboundWebhook returned error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
			}

			var ack map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
				t.Fatalf("failed to unmarshal response body: %v", err)
			}
			if ack["ok"] != true {
				t.Fatalf("expected ok=true, got %v", ack)
			}

			if got := forwarder.count(); got != tt.forwarded {
				t.Fatalf("expected %d forwarded events, got %d", tt.forwarded, got)
			}
		})
	}
}

func TestGetChatMessages(t *testing.T) {
	e := echo.New()
	handler := NewGatewayHandler(newStubRelay())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gateway/messages/11999998888", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("phone")
	c.SetParamValues("11999998888")

	if err := handler.GetChatMessages(c); err != nil {
		t.Fatalf("GetChatMessages returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestGetChatMessages_InvalidPhone(t *testing.T) {
	e := echo.New()
	handler := NewGatewayHandler(newStubRelay())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gateway/messages/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("phone")
	c.SetParamValues("abc")

	if err := handler.GetChatMessages(c); err != nil {
		t.Fatalf("GetChatMessages returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
