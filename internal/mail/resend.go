package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultResendBaseURL = "https://api.resend.com"

// ErrMissingAPIKey is returned when the Resend mailer is built without a key
var ErrMissingAPIKey = errors.New("RESEND_API_KEY not set")

// ResendMailer delivers OTP emails through the Resend HTTP API
type ResendMailer struct {
	apiKey  string
	from    string
	client  *http.Client
	baseURL string
}

// NewResendMailer creates a mailer sending from the given address
func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &ResendMailer{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: defaultResendBaseURL,
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendOTP emails the verification code to the given address
func (m *ResendMailer) SendOTP(ctx context.Context, to, code string) error {
	html, err := renderOTPEmail(code, time.Now())
	if err != nil {
		return err
	}

	b, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: otpSubject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("encode resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("send otp email: resend returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
