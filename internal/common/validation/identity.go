package validation

import (
	"regexp"
	"strings"
	"time"
)

var (
	aadhaarPattern = regexp.MustCompile(`^\d{12}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	gstPattern     = regexp.MustCompile(`^[0-9A-Z]{15}$`)
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// NormalizeAadhaar trims surrounding whitespace. Inner spaces are not accepted.
func NormalizeAadhaar(s string) string {
	return strings.TrimSpace(s)
}

// NormalizePAN trims and upper-cases.
func NormalizePAN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeGST trims and upper-cases.
func NormalizeGST(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateAadhaar reports whether s is exactly 12 digits after trimming.
func ValidateAadhaar(s string) bool {
	return aadhaarPattern.MatchString(NormalizeAadhaar(s))
}

// ValidatePAN reports whether s is 5 letters, 4 digits, 1 letter, case-insensitive.
func ValidatePAN(s string) bool {
	return panPattern.MatchString(NormalizePAN(s))
}

// ValidateGST reports whether s is exactly 15 alphanumerics, case-insensitive.
func ValidateGST(s string) bool {
	return gstPattern.MatchString(NormalizeGST(s))
}

// NormalizePhone strips everything but digits and a leading plus.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhone requires at least 10 digits once separators are removed.
func ValidatePhone(phone string) bool {
	digits := strings.TrimPrefix(NormalizePhone(phone), "+")
	if len(digits) < 10 || len(digits) > 15 {
		return false
	}
	for _, r := range strings.TrimSpace(phone) {
		if !(r >= '0' && r <= '9') && !strings.ContainsRune("+ -()", r) {
			return false
		}
	}
	return true
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateDate checks the YYYY-MM-DD layout used by the invoice form.
// Calendar-impossible dates such as 2026-02-30 are rejected.
func ValidateDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsDigits reports whether s is non-empty and all ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
