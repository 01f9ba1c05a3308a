package auth

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
	// bcrypt only accepts up to 72 bytes
	maxPasswordLen = 72
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	otpPattern   = regexp.MustCompile(`^[0-9]{6}$`)
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips formatting characters from a phone number
func NormalizePhone(phone string) string {
	return phoneStrip.Replace(strings.TrimSpace(phone))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func validPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// RegisterInput is the registration request
type RegisterInput struct {
	Username     string
	Email        string
	Phone        string
	Password     string
	MembershipNo string
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
	in.Phone = NormalizePhone(in.Phone)
	in.MembershipNo = strings.TrimSpace(in.MembershipNo)
}

func (in *RegisterInput) validate() error {
	verr := &ValidationError{}
	if len(in.Username) < minUsernameLen {
		verr.add("username", "Username must be at least 3 characters")
	}
	if !validEmail(in.Email) {
		verr.add("email", "Please provide a valid email")
	}
	if !validPhone(in.Phone) {
		verr.add("phone", "Please provide a valid phone number")
	}
	switch {
	case len(in.Password) < minPasswordLen:
		verr.add("password", "Password must be at least 6 characters")
	case len(in.Password) > maxPasswordLen:
		verr.add("password", "Password must be at most 72 bytes")
	}
	if in.MembershipNo == "" {
		verr.add("membership_no", "Membership number is required")
	}
	return verr.errOrNil()
}

func validateEmailOnly(email string) error {
	verr := &ValidationError{}
	if !validEmail(email) {
		verr.add("email", "Please provide a valid email")
	}
	return verr.errOrNil()
}

func validateVerify(email, code string) error {
	verr := &ValidationError{}
	if !validEmail(email) {
		verr.add("email", "Please provide a valid email")
	}
	if !otpPattern.MatchString(code) {
		verr.add("otp", "OTP must be 6 digits")
	}
	return verr.errOrNil()
}

func validateLogin(identifier, password string) error {
	verr := &ValidationError{}
	if identifier == "" {
		verr.add("identifier", "Email or phone is required")
	}
	if password == "" {
		verr.add("password", "Password is required")
	}
	return verr.errOrNil()
}

// validateUpdate checks and normalizes the non-nil fields of a profile edit
func validateUpdate(username, email, phone, membershipNo *string) error {
	verr := &ValidationError{}
	if username != nil {
		*username = strings.TrimSpace(*username)
		if len(*username) < minUsernameLen {
			verr.add("username", "Username must be at least 3 characters")
		}
	}
	if email != nil {
		*email = NormalizeEmail(*email)
		if !validEmail(*email) {
			verr.add("email", "Please provide a valid email")
		}
	}
	if phone != nil {
		*phone = NormalizePhone(*phone)
		if !validPhone(*phone) {
			verr.add("phone", "Please provide a valid phone number")
		}
	}
	if membershipNo != nil {
		*membershipNo = strings.TrimSpace(*membershipNo)
		if *membershipNo == "" {
			verr.add("membership_no", "Membership number is required")
		}
	}
	return verr.errOrNil()
}
