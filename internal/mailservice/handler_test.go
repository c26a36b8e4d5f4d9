package mailservice

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSendWelcomeEmail(t *testing.T) {
	mockMC := new(MockMessageConsumer)
	mockMailer := new(MockMailer)
	mockLogger := new(MockLogger)

	expectedArgs := []interface{}{slog.String("email", "test@example.com")}
	mockLogger.On("Info", "welcome email sent", expectedArgs).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())

	s := &MailService{
		mb:     mockMC,
		m:      mockMailer,
		logger: mockLogger,
		ctx:    ctx,
		cancel: cancel,
	}

	s.SendWelcomeEmail()

	time.Sleep(1 * time.Second)

	assert.True(t, mockMailer.IsCalled(), "expected the mailer to be called")
	assert.Equal(t, "test@example.com", mockMailer.GetEmail(), "expected email to be sent to the recipient")

	// verify that the logger.Info method was called
	mockLogger.AssertExpectations(t)

	t.Cleanup(func() {
		s.Close()
	})
}
