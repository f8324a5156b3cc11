package logging

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "abc", want: "****"},
		{in: "gho_1234567890", want: "**********7890"},
		{in: "  tok_1  ", want: "*ok_1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskIdentifier(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeURLMasksCallbackParameters(t *testing.T) {
	u, err := url.Parse("http://127.0.0.1:17653/callback?code=abc123456&state=deadbeefcafe&other=kept")
	require.NoError(t, err)

	out := SanitizeURL(u)
	assert.NotContains(t, out, "abc123456")
	assert.NotContains(t, out, "deadbeefcafe")
	assert.Contains(t, out, "other=kept")
	assert.Contains(t, out, "3456")
}

func TestSanitizeFormMasksClientSecret(t *testing.T) {
	body := []byte("client_id=Iv1.public&client_secret=supersecretvalue&code=abc123456&redirect_uri=http%3A%2F%2F127.0.0.1%2Fcallback")

	out := string(sanitizeForm("application/x-www-form-urlencoded", body))
	assert.Contains(t, out, "client_id=Iv1.public")
	assert.NotContains(t, out, "supersecretvalue")
	assert.NotContains(t, out, "abc123456")

	// Non-form payloads pass through untouched.
	assert.Equal(t, body, sanitizeForm("application/json", body))
}

func TestSanitizeJSONMasksTokens(t *testing.T) {
	body := []byte(`{"access_token":"gho_verysecret","token_type":"bearer","scope":"repo"}`)

	out := string(sanitizeJSON(body))
	assert.False(t, strings.Contains(out, "gho_verysecret"))
	assert.Contains(t, out, `"scope":"repo"`)

	garbage := []byte("not json")
	assert.Equal(t, garbage, sanitizeJSON(garbage))
}
