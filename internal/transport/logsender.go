package transport

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/emailpro/internal/pkg/logger"
)

// LogSender is a no-op sender for environments without SES credentials.
// Every send is logged and reported as delivered.
type LogSender struct{}

// NewLogSender creates a sender that logs instead of delivering.
func NewLogSender() *LogSender { return &LogSender{} }

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, msg *Message) (*Result, error) {
	logger.Info("log sender: would deliver email",
		"to", msg.To,
		"subject", msg.Subject,
		"campaign_id", msg.CampaignID,
	)
	return &Result{
		Delivered: true,
		MessageID: "log-" + uuid.New().String(),
		SentAt:    time.Now(),
	}, nil
}
