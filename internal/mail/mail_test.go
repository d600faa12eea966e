package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

func TestConsoleMailer(t *testing.T) {
	m := NewConsoleMailer(logger.NewNop())

	err := m.Send(context.Background(), &Message{
		From:    "webmaster@localhost",
		To:      []string{"friend@example.com"},
		ReplyTo: "me@example.com",
		Subject: "hello",
		Body:    "body",
	})
	assert.NoError(t, err)

	err = m.Send(context.Background(), &Message{From: "webmaster@localhost"})
	assert.ErrorIs(t, err, domain.ErrEmailDelivery)

	err = m.Send(context.Background(), &Message{From: "webmaster@localhost", To: []string{"not an address"}})
	assert.ErrorIs(t, err, domain.ErrEmailDelivery)
}

func TestSMTPMailer_UnreachableHostWrapsDeliveryError(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1}, logger.NewNop())

	err := m.Send(context.Background(), &Message{
		From:    "webmaster@localhost",
		To:      []string{"friend@example.com"},
		Subject: "s",
		Body:    "b",
	})
	assert.ErrorIs(t, err, domain.ErrEmailDelivery)
}
