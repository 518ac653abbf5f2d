package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR renders an amount with Indian digit grouping, e.g. ₹2,50,000 or
// ₹1,234.50. Whole amounts drop the paise.
func FormatINR(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	d = d.Round(2)
	whole := d.Truncate(0).String()
	frac := ""
	if !d.Equal(d.Truncate(0)) {
		frac = "." + strings.TrimPrefix(d.Sub(d.Truncate(0)).StringFixed(2), "0.")
	}

	return sign + "₹" + groupIndian(whole) + frac
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
