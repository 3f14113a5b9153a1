package environments

import (
	"fmt"
	"strings"
	"time"
)

const (
	GatewayModeLive = "live"
	GatewayModeStub = "stub"
)

// GatewayConfig holds everything needed to reach the messaging gateway.
type GatewayConfig struct {
	BaseURL         string
	InstanceID      string
	Token           string
	ClientToken     string
	Timeout         time.Duration
	RetryCount      int
	SendTextPath    string
	GetMessagesPath string
	// Variant is "<url-shape>/<header-shape>/<body-shape>"; empty picks a default in Resolve.
	Variant      string
	VariantsFile string
	Diagnostics  bool
	CountryCode  string
	Mode         string
}

// ConfigError names a missing or inconsistent configuration key. It never carries secret values.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing required configuration %s", e.Key)
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

func loadGateway() GatewayConfig {
	return GatewayConfig{
		BaseURL:         FirstEnv("GATEWAY_BASE_URL", "ZAPI_URL"),
		InstanceID:      FirstEnv("GATEWAY_INSTANCE_ID", "ZAPI_INSTANCE_ID"),
		Token:           FirstEnv("GATEWAY_TOKEN", "ZAP_TOKEN", "ZAPI_TOKEN"),
		ClientToken:     FirstEnv("GATEWAY_CLIENT_TOKEN", "CLIENT_TOKEN", "CLIENTTOKEN", "CLIENT_TOKEN_ID"),
		Timeout:         time.Duration(GetEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 15)) * time.Second,
		RetryCount:      GetEnvAsInt("GATEWAY_RETRY_COUNT", 0),
		SendTextPath:    GetEnv("GATEWAY_SEND_TEXT_PATH", "send-text"),
		GetMessagesPath: GetEnv("GATEWAY_GET_MESSAGES_PATH", "chat-messages"),
		Variant:         GetEnv("GATEWAY_VARIANT", ""),
		VariantsFile:    GetEnv("GATEWAY_VARIANTS_FILE", ""),
		Diagnostics:     GetEnvAsBool("GATEWAY_DIAGNOSTICS", GetEnv("DEBUG_ZAPI", "") == "1"),
		CountryCode:     GetEnv("DEFAULT_COUNTRY_CODE", "55"),
		Mode:            strings.ToLower(GetEnv("GATEWAY_MODE", GatewayModeLive)),
	}
}

// Resolve validates the gateway settings and returns a normalized copy.
// Base URL and token are required; a token embedded in the base URL must match the configured one.
func (c GatewayConfig) Resolve() (GatewayConfig, error) {
	out := c
	out.BaseURL = trimOperationSuffix(strings.TrimSpace(c.BaseURL))
	out.Token = strings.TrimSpace(c.Token)
	out.ClientToken = strings.TrimSpace(c.ClientToken)
	out.InstanceID = strings.TrimSpace(c.InstanceID)

	if out.BaseURL == "" {
		return GatewayConfig{}, &ConfigError{Key: "GATEWAY_BASE_URL"}
	}
	if out.Token == "" {
		return GatewayConfig{}, &ConfigError{Key: "GATEWAY_TOKEN"}
	}

	if embedded := tokenInURL(out.BaseURL); embedded != "" && embedded != out.Token {
		return GatewayConfig{}, &ConfigError{
			Key:    "GATEWAY_BASE_URL",
			Reason: "token embedded in the URL does not match GATEWAY_TOKEN",
		}
	}

	if out.Timeout <= 0 {
		out.Timeout = 15 * time.Second
	}
	if out.RetryCount < 0 {
		out.RetryCount = 0
	}
	if out.SendTextPath == "" {
		out.SendTextPath = "send-text"
	}
	if out.GetMessagesPath == "" {
		out.GetMessagesPath = "chat-messages"
	}
	if out.Variant == "" {
		out.Variant = out.defaultVariant()
	}

	return out, nil
}

// defaultVariant prefers the Client-Token header when a client token exists, Bearer otherwise.
// A base URL that already carries the instance path is used as is.
func (c GatewayConfig) defaultVariant() string {
	urlShape := "token-path"
	if strings.Contains(c.BaseURL, "/instances/") {
		urlShape = "base"
	}

	headerShape := "bearer"
	if c.ClientToken != "" {
		headerShape = "client-token"
	}

	return urlShape + "/" + headerShape + "/phone-message"
}

// Masked renders a secret as its last four characters.
func Masked(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// trimOperationSuffix accepts legacy full send URLs such as .../send-text.
// Only a whole trailing path segment is removed.
func trimOperationSuffix(u string) string {
	u = strings.TrimRight(u, "/")
	for _, suffix := range []string{"/send-text", "/send-message"} {
		u = strings.TrimSuffix(u, suffix)
	}
	return strings.TrimRight(u, "/")
}

// MaskedURL hides a token embedded as /token/<x>/ as well as any occurrence of token.
func MaskedURL(u, token string) string {
	if embedded := tokenInURL(u); embedded != "" {
		u = strings.Replace(u, "/token/"+embedded, "/token/"+Masked(embedded), 1)
	}
	if token != "" {
		u = strings.ReplaceAll(u, token, Masked(token))
	}
	return u
}

func tokenInURL(u string) string {
	_, rest, ok := strings.Cut(u, "/token/")
	if !ok {
		return ""
	}
	token, _, _ := strings.Cut(rest, "/")
	return token
}
