package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/pkg/logger"
)

// Sender is implemented by the live client and the stub.
type Sender interface {
	Send(ctx context.Context, op Operation, v Variant, p Payload) domain.GatewayResponse
}

var (
	_ Sender = (*Client)(nil)
	_ Sender = (*StubClient)(nil)
)

// Client issues exactly one HTTP call per Send against the messaging gateway.
// Every failure comes back as an unsuccessful domain.GatewayResponse.
type Client struct {
	httpClient *resty.Client
	cfg        environments.GatewayConfig
	diag       *zap.SugaredLogger
}

func NewClient(cfg environments.GatewayConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")

	c := &Client{
		httpClient: client,
		cfg:        cfg,
	}
	if cfg.Diagnostics {
		c.diag = logger.Named("gateway.diagnostics")
	}

	return c
}

func (c *Client) Send(ctx context.Context, op Operation, v Variant, p Payload) (result domain.GatewayResponse) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Gateway %s panicked: %v", op, r)
			result = failure(outcomeTransport, op, v, 0, fmt.Sprintf("internal error: %v", r), nil)
		}
	}()

	if err := c.checkConfig(v); err != nil {
		requestsTotal.WithLabelValues(string(op), v.Label(), outcomeConfigError).Inc()
		return domain.GatewayResponse{Success: false, ErrorMessage: err.Error(), Err: err}
	}

	target, err := c.buildURL(op, v, p)
	if err != nil {
		requestsTotal.WithLabelValues(string(op), v.Label(), outcomeConfigError).Inc()
		return domain.GatewayResponse{Success: false, ErrorMessage: err.Error(), Err: err}
	}

	headers := v.credentialHeaders(c.cfg.Token, c.cfg.ClientToken)

	req := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(headers)

	method := http.MethodGet
	var body map[string]any
	if op == OpSendText {
		method = http.MethodPost
		body = v.body(p)
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	c.logRequest(method, target, headers, body)

	startTime := time.Now()
	resp, err := req.Execute(method, target)
	duration := time.Since(startTime)
	requestDuration.WithLabelValues(string(op)).Observe(duration.Seconds())

	if err != nil {
		message := c.transportMessage(err)
		logger.Warnf("Gateway %s via %s failed after %v: %s", op, v.Label(), duration, message)
		return failure(outcomeTransport, op, v, 0, message, nil)
	}

	raw := decodeBody(resp.Body())
	c.logResponse(resp.StatusCode(), resp.String())

	logger.Infof("Gateway %s via %s completed in %v (status: %d)", op, v.Label(), duration, resp.StatusCode())

	if !resp.IsSuccess() {
		message := c.maskURL(errorMessage(resp.StatusCode(), resp.Body()))
		if strings.Contains(message, "Instance not found") {
			logger.Warnf("Gateway reported an unknown instance: check GATEWAY_BASE_URL, GATEWAY_INSTANCE_ID, " +
				"GATEWAY_TOKEN and GATEWAY_CLIENT_TOKEN")
		}
		return failure(outcomeHTTPError, op, v, resp.StatusCode(), message, raw)
	}

	requestsTotal.WithLabelValues(string(op), v.Label(), outcomeSuccess).Inc()

	return domain.GatewayResponse{
		Success:    true,
		Raw:        raw,
		StatusCode: resp.StatusCode(),
		MessageID:  messageID(raw),
	}
}

// MaskedTarget returns the request URL a variant resolves to, with the token masked.
func (c *Client) MaskedTarget(op Operation, v Variant, p Payload) (string, error) {
	target, err := c.buildURL(op, v, p)
	if err != nil {
		return "", err
	}
	return c.maskURL(target), nil
}

func (c *Client) checkConfig(v Variant) error {
	if err := v.Validate(); err != nil {
		return &environments.ConfigError{Key: "GATEWAY_VARIANT", Reason: err.Error()}
	}
	if strings.TrimSpace(c.cfg.BaseURL) == "" {
		return &environments.ConfigError{Key: "GATEWAY_BASE_URL"}
	}
	if strings.TrimSpace(c.cfg.Token) == "" {
		return &environments.ConfigError{Key: "GATEWAY_TOKEN"}
	}
	if v.needsInstanceID() && strings.TrimSpace(c.cfg.InstanceID) == "" {
		return &environments.ConfigError{Key: "GATEWAY_INSTANCE_ID"}
	}
	return nil
}

func (c *Client) operationPath(op Operation) string {
	switch op {
	case OpGetMessages:
		return strings.Trim(c.cfg.GetMessagesPath, "/")
	default:
		return strings.Trim(c.cfg.SendTextPath, "/")
	}
}

func (c *Client) buildURL(op Operation, v Variant, p Payload) (string, error) {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	instance := url.PathEscape(c.cfg.InstanceID)
	opPath := c.operationPath(op)

	if op == OpGetMessages && p.Phone != "" {
		opPath += "/" + url.PathEscape(p.Phone)
	}

	var target string
	switch v.URL {
	case URLTokenPath:
		target = fmt.Sprintf("%s/instances/%s/token/%s/%s", base, instance, url.PathEscape(c.cfg.Token), opPath)
	case URLInstancePath:
		target = fmt.Sprintf("%s/instances/%s/%s", base, instance, opPath)
	case URLQueryToken:
		target = fmt.Sprintf("%s/instances/%s/%s?%s", base, instance, opPath, url.Values{"token": {c.cfg.Token}}.Encode())
	case URLBase:
		target = base + "/" + opPath
	default:
		return "", &environments.ConfigError{Key: "GATEWAY_VARIANT", Reason: fmt.Sprintf("unknown url shape %q", v.URL)}
	}

	if _, err := url.Parse(target); err != nil {
		return "", &environments.ConfigError{Key: "GATEWAY_BASE_URL", Reason: "not a valid URL"}
	}
	return target, nil
}

func (c *Client) logRequest(method, target string, headers map[string]string, body map[string]any) {
	if c.diag == nil {
		return
	}

	masked := make(map[string]string, len(headers))
	for name, value := range headers {
		masked[name] = environments.Masked(value)
	}

	c.diag.Infow("gateway request",
		"method", method,
		"url", c.maskURL(target),
		"headers", masked,
		"payload", body,
	)
}

func (c *Client) logResponse(status int, body string) {
	if c.diag == nil {
		return
	}
	c.diag.Infow("gateway response", "status", status, "body", body)
}

// maskURL hides the token in its raw, path-escaped and query-escaped forms.
func (c *Client) maskURL(target string) string {
	token := c.cfg.Token
	if token == "" {
		return target
	}

	masked := environments.Masked(token)
	for _, form := range []string{url.QueryEscape(token), url.PathEscape(token), token} {
		target = strings.ReplaceAll(target, form, masked)
	}
	return target
}

// transportMessage drops the request URL that *url.Error carries and masks whatever remains.
func (c *Client) transportMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return c.maskURL(uerr.Err.Error())
	}
	return c.maskURL(err.Error())
}

func failure(outcome string, op Operation, v Variant, status int, message string, raw any) domain.GatewayResponse {
	requestsTotal.WithLabelValues(string(op), v.Label(), outcome).Inc()

	return domain.GatewayResponse{
		Success:      false,
		Raw:          raw,
		StatusCode:   status,
		ErrorMessage: message,
		Err:          &domain.GatewayError{StatusCode: status, Message: message},
	}
}

// errorMessage prefers the vendor's JSON error field, then the raw text.
func errorMessage(status int, body []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, key := range []string{"error", "message", "errorMessage"} {
			if s, ok := parsed[key].(string); ok && s != "" {
				return s
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status code: %d", status)
}

func decodeBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}
	return parsed
}

func messageID(raw any) string {
	m, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"messageId", "zaapId", "id"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
