package gateway

import (
	"fmt"
	"strings"
)

type Operation string

const (
	OpSendText    Operation = "sendText"
	OpGetMessages Operation = "getMessages"
)

// URLShape selects where the instance id and token go in the request URL.
type URLShape string

const (
	// {base}/instances/{id}/token/{token}/{op}
	URLTokenPath URLShape = "token-path"
	// {base}/instances/{id}/{op}
	URLInstancePath URLShape = "instance-path"
	// {base}/instances/{id}/{op}?token={token}
	URLQueryToken URLShape = "query-token"
	// {base}/{op}, for base URLs that already carry the instance path
	URLBase URLShape = "base"
)

// HeaderShape selects the credential headers.
type HeaderShape string

const (
	HeaderNone        HeaderShape = "none"
	HeaderBearer      HeaderShape = "bearer"
	HeaderClientToken HeaderShape = "client-token"
	HeaderBoth        HeaderShape = "both"
)

// BodyShape selects the JSON field names of a sendText body.
type BodyShape string

const (
	BodyPhoneMessage  BodyShape = "phone-message"
	BodyNumberMessage BodyShape = "number-message"
	BodyToMessage     BodyShape = "to-message"
	BodyChatIDBody    BodyShape = "chatid-body"
	BodyToTextBody    BodyShape = "to-text-body"
)

const (
	headerAuthorization = "Authorization"
	headerClientToken   = "Client-Token"
)

// Variant is one (URL shape, header shape, body shape) combination accepted by the gateway.
type Variant struct {
	Name   string      `yaml:"name"`
	URL    URLShape    `yaml:"url"`
	Header HeaderShape `yaml:"header"`
	Body   BodyShape   `yaml:"body"`
}

// Payload is the logical content of a gateway call.
type Payload struct {
	Phone   string
	Message string
}

// ParseVariant reads the "<url>/<header>/<body>" form used in configuration.
func ParseVariant(s string) (Variant, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Variant{}, fmt.Errorf("variant %q: expected <url>/<header>/<body>", s)
	}

	v := Variant{
		URL:    URLShape(parts[0]),
		Header: HeaderShape(parts[1]),
		Body:   BodyShape(parts[2]),
	}
	if err := v.Validate(); err != nil {
		return Variant{}, err
	}
	return v, nil
}

func (v Variant) String() string {
	return string(v.URL) + "/" + string(v.Header) + "/" + string(v.Body)
}

// Label is the catalog name when present, otherwise the triple.
func (v Variant) Label() string {
	if v.Name != "" {
		return v.Name
	}
	return v.String()
}

func (v Variant) Validate() error {
	switch v.URL {
	case URLTokenPath, URLInstancePath, URLQueryToken, URLBase:
	default:
		return fmt.Errorf("unknown url shape %q", v.URL)
	}

	switch v.Header {
	case HeaderNone, HeaderBearer, HeaderClientToken, HeaderBoth:
	default:
		return fmt.Errorf("unknown header shape %q", v.Header)
	}

	switch v.Body {
	case BodyPhoneMessage, BodyNumberMessage, BodyToMessage, BodyChatIDBody, BodyToTextBody:
	default:
		return fmt.Errorf("unknown body shape %q", v.Body)
	}

	return nil
}

func (v Variant) needsInstanceID() bool {
	return v.URL != URLBase
}

// credentialHeaders returns exactly the headers the variant declares.
// Client-Token carries the client token when configured, the instance token otherwise.
func (v Variant) credentialHeaders(token, clientToken string) map[string]string {
	if clientToken == "" {
		clientToken = token
	}

	headers := make(map[string]string, 2)
	switch v.Header {
	case HeaderBearer:
		headers[headerAuthorization] = "Bearer " + token
	case HeaderClientToken:
		headers[headerClientToken] = clientToken
	case HeaderBoth:
		headers[headerAuthorization] = "Bearer " + token
		headers[headerClientToken] = clientToken
	}
	return headers
}

// body builds the sendText JSON body for the variant.
func (v Variant) body(p Payload) map[string]any {
	switch v.Body {
	case BodyNumberMessage:
		return map[string]any{"number": p.Phone, "message": p.Message}
	case BodyToMessage:
		return map[string]any{"to": p.Phone, "message": p.Message}
	case BodyChatIDBody:
		return map[string]any{"chatId": p.Phone + "@c.us", "body": p.Message}
	case BodyToTextBody:
		return map[string]any{
			"to":   p.Phone,
			"type": "text",
			"text": map[string]any{"body": p.Message},
		}
	default:
		return map[string]any{"phone": p.Phone, "message": p.Message}
	}
}
