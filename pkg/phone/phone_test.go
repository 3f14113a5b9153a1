package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		cc   string
		want string
	}{
		{"already international digits", "5511999999999", "55", "5511999999999"},
		{"plus prefix keeps number as is", "+55 (11) 99999-9999", "55", "5511999999999"},
		{"national number gets country code", "11 99999-9999", "55", "5511999999999"},
		{"empty country code falls back to default", "(22) 98804-5181", "", "5522988045181"},
		{"explicit plus on short number", "+4915112345", "55", "4915112345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.cc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_RejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "1234", "abc5511999999", "55119999999999999", "55+11999999999"} {
		_, err := Normalize(raw, "55")
		assert.ErrorIs(t, err, ErrInvalid, "raw=%q", raw)
	}
}

func TestNormalize_CountryCodeOverflow(t *testing.T) {
	// 11 national digits plus a 5-digit code exceeds the 15 digit ceiling.
	_, err := Normalize("11999999999", "12345")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("+55 11 99999-9999"))
	assert.True(t, Valid("12345678"))
	assert.False(t, Valid("1234567"))
	assert.False(t, Valid("phone: 5511999999999"))
}
