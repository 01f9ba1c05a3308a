// Package logging configures the process-wide slog logger and masks contact
// details before they reach a log line.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Setup installs a JSON slog handler as the default logger and returns it
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	return l
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// MaskPhone masks a phone number for logging (e.g., +49******89)
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}

// MaskEmail keeps the first character of the local part and the domain (e.g., a***@x.com)
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "****"
	}
	return email[:1] + "***" + email[at:]
}

// MaskIdentifier masks a login identifier that is either an email or a phone number
func MaskIdentifier(identifier string) string {
	if strings.Contains(identifier, "@") {
		return MaskEmail(identifier)
	}
	return MaskPhone(identifier)
}
