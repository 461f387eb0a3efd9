package email

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCodeMessage(t *testing.T) {
	m := verifyCodeMessage("noreply@breezechat.dev", "alice@example.com", "042517")

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "To: alice@example.com")
	assert.Contains(t, raw, "From: noreply@breezechat.dev")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "042517", "the code must appear in the body")
}

func TestNewSenderDefaultsPort(t *testing.T) {
	s := NewSender(Config{From: "noreply@breezechat.dev", SMTPHost: "smtp.example.com"})
	assert.Equal(t, 25, s.dialer.Port)
}
