package domain

import "time"

type MessageStatus string

const (
	StatusPending MessageStatus = "pending"
	StatusSent    MessageStatus = "sent"
	StatusFailed  MessageStatus = "failed"
)

// MessageRecord is the outbound message log entry kept for GET /messages/:id.
type MessageRecord struct {
	ID               string        `db:"id" json:"id"`
	Recipient        string        `db:"recipient" json:"recipient"`
	Body             string        `db:"body" json:"body"`
	Status           MessageStatus `db:"status" json:"status"`
	GatewayMessageID *string       `db:"gateway_message_id" json:"gatewayMessageId,omitempty"`
	Error            *string       `db:"error" json:"error,omitempty"`
	Variant          string        `db:"variant" json:"variant"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// OutboundMessage is a validated send intent.
type OutboundMessage struct {
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

// GatewayResponse is what the relay hands back for every send, whatever variant was used.
type GatewayResponse struct {
	Success      bool   `json:"success"`
	Raw          any    `json:"raw,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	StatusCode   int    `json:"statusCode,omitempty"`
	MessageID    string `json:"messageId,omitempty"`

	// Err classifies a failure for the HTTP layer (*ValidationError, *GatewayError, config errors).
	Err error `json:"-"`
}

// InboundWebhookPayload is the raw body posted by the gateway. It is never mutated.
type InboundWebhookPayload map[string]any

// InboundMessage is a best-effort view extracted from an inbound payload.
type InboundMessage struct {
	MessageID string
	Phone     string
	Text      string
	FromMe    bool
}

type SendResult struct {
	AppointmentID string
	MessageID     string
	Success       bool
	Error         error
	SentAt        time.Time
}

type MessageStats struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
}

// Clone returns a copy that shares no pointers with r.
func (r MessageRecord) Clone() MessageRecord {
	r.GatewayMessageID = clonePtr(r.GatewayMessageID)
	r.Error = clonePtr(r.Error)
	return r
}
