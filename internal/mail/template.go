// Package mail sends OTP verification emails.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const otpSubject = "Your OTP Verification - VS Samaj App"

var otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; background-color: #f9f9f9; padding: 30px; border-radius: 12px; border: 1px solid #e0e0e0;">
  <h2 style="text-align: center; color: #000; margin-bottom: 10px;">VS Samaj App</h2>
  <p style="text-align: center; color: #555; margin: 0 0 30px;">OTP Verification</p>
  <p style="font-size: 15px; color: #333;">Hello,</p>
  <p style="font-size: 15px; color: #333;">Thank you for registering with <b>VS Samaj App</b>. Please use the following OTP to verify your email address:</p>
  <div style="background-color: #000; color: #fff; padding: 20px; text-align: center; margin: 25px 0; border-radius: 8px;">
    <h1 style="font-size: 34px; letter-spacing: 8px; margin: 0;">{{.Code}}</h1>
  </div>
  <p style="font-size: 14px; color: #555;">This OTP will expire in <b>{{.Minutes}} minutes</b>.</p>
  <p style="font-size: 14px; color: #555;">If you didn't request this verification, please ignore this email.</p>
  <hr style="border: none; border-top: 1px solid #ddd; margin: 30px 0;">
  <p style="font-size: 13px; color: #888; text-align: center;">&copy; {{.Year}} VS Samaj App. All rights reserved.</p>
</div>`))

// OTPValidity is the lifetime stated in the email body
const OTPValidity = 2 * time.Minute

func renderOTPEmail(code string, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Code    string
		Minutes int
		Year    int
	}{code, int(OTPValidity / time.Minute), now.Year()})
	if err != nil {
		return "", fmt.Errorf("render otp email: %w", err)
	}
	return buf.String(), nil
}
