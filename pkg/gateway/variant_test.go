package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("query-token/both/to-text-body")
	require.NoError(t, err)

	assert.Equal(t, URLQueryToken, v.URL)
	assert.Equal(t, HeaderBoth, v.Header)
	assert.Equal(t, BodyToTextBody, v.Body)
	assert.Equal(t, "query-token/both/to-text-body", v.String())
}

func TestParseVariant_Invalid(t *testing.T) {
	for _, s := range []string{"", "token-path/bearer", "token-path/x-header/phone-message", "ftp/bearer/phone-message"} {
		_, err := ParseVariant(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestBuiltinCatalog_AllValidAndUnique(t *testing.T) {
	catalog := BuiltinCatalog()
	require.NotEmpty(t, catalog)

	seen := make(map[string]bool)
	for _, v := range catalog {
		require.NoError(t, v.Validate())
		assert.False(t, seen[v.String()], "duplicate variant %s", v)
		seen[v.String()] = true
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	content := `variants:
  - name: zapi-send-text
    url: token-path
    header: client-token
    body: phone-message
  - name: legacy-send-message
    url: base
    header: bearer
    body: to-message
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog, 2)

	v, err := ResolveVariant(catalog, "legacy-send-message")
	require.NoError(t, err)
	assert.Equal(t, URLBase, v.URL)
	assert.Equal(t, "legacy-send-message", v.Label())

	v, err = ResolveVariant(catalog, "instance-path/none/number-message")
	require.NoError(t, err)
	assert.Equal(t, BodyNumberMessage, v.Body)
}

func TestLoadCatalog_RejectsUnknownShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	content := `variants:
  - name: broken
    url: token-path
    header: api-key
    body: phone-message
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadCatalog(path)
	assert.ErrorContains(t, err, "broken")
}

func TestStubClient_NeverFails(t *testing.T) {
	resp := NewStubClient().Send(context.Background(), OpSendText,
		Variant{URL: URLTokenPath, Header: HeaderBearer, Body: BodyPhoneMessage},
		Payload{Phone: "5511999999999", Message: "hi"})

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.MessageID)
}
