package mail

import (
	"context"
	"log/slog"

	"github.com/vssamaj/server/internal/logging"
)

// LogMailer logs OTP deliveries instead of sending them. Used when no email
// provider is configured; the code is only written in dev mode.
type LogMailer struct {
	logger  *slog.Logger
	devMode bool
}

// NewLogMailer creates a mailer that writes to logger
func NewLogMailer(logger *slog.Logger, devMode bool) *LogMailer {
	return &LogMailer{logger: logger, devMode: devMode}
}

// SendOTP logs the delivery
func (m *LogMailer) SendOTP(ctx context.Context, to, code string) error {
	attrs := []any{"to", logging.MaskEmail(to)}
	if m.devMode {
		attrs = append(attrs, "otp", code)
	}
	m.logger.InfoContext(ctx, "otp email not sent, no provider configured", attrs...)
	return nil
}
