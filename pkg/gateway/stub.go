package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/pkg/logger"
)

// StubClient replaces the gateway in local development (GATEWAY_MODE=stub).
// It never touches the network and always reports success.
type StubClient struct{}

func NewStubClient() *StubClient {
	return &StubClient{}
}

func (s *StubClient) Send(_ context.Context, op Operation, v Variant, p Payload) domain.GatewayResponse {
	id := "stub-" + uuid.NewString()
	logger.Infof("[stub] %s via %s to %s: %q", op, v.Label(), p.Phone, p.Message)

	requestsTotal.WithLabelValues(string(op), v.Label(), outcomeSuccess).Inc()

	return domain.GatewayResponse{
		Success: true,
		Raw: map[string]any{
			"to":        p.Phone,
			"message":   p.Message,
			"status":    "sent (stub)",
			"messageId": id,
		},
		StatusCode: 200,
		MessageID:  id,
	}
}
