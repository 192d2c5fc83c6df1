package worker_service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailer_DisabledWithoutHost(t *testing.T) {
	assert.Nil(t, NewSMTPMailer(SMTPConfig{}))
	assert.NotNil(t, NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587}))
}

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage("chat@example.com", "bob@example.com", "New message from alice", "hi bob")

	assert.Equal(t, []string{"bob@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"New message from alice"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hi bob")
}
