package otplogin

import "strings"

// OTPInput models a row of single-digit boxes with a focus cursor.
type OTPInput struct {
	boxes []rune
	focus int
}

func NewOTPInput(length int) *OTPInput {
	return &OTPInput{boxes: make([]rune, length)}
}

func (o *OTPInput) Len() int   { return len(o.boxes) }
func (o *OTPInput) Focus() int { return o.focus }

// SetFocus moves the cursor, clamped to the row.
func (o *OTPInput) SetFocus(i int) {
	switch {
	case i < 0:
		o.focus = 0
	case i >= len(o.boxes):
		o.focus = len(o.boxes) - 1
	default:
		o.focus = i
	}
}

// Type writes one character into the focused box and advances. Non-digits are
// ignored; a multi-character value is treated as a paste.
func (o *OTPInput) Type(value string) {
	if len([]rune(value)) > 1 {
		o.Paste(value)
		return
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return
		}
		o.boxes[o.focus] = r
		if o.focus < len(o.boxes)-1 {
			o.focus++
		}
	}
}

// Backspace clears the focused box, or retreats and clears the previous one
// when the focused box is already empty.
func (o *OTPInput) Backspace() {
	if o.boxes[o.focus] != 0 {
		o.boxes[o.focus] = 0
		return
	}
	if o.focus > 0 {
		o.focus--
		o.boxes[o.focus] = 0
	}
}

// Paste spreads the digits of value over the focused box and those after it.
func (o *OTPInput) Paste(value string) {
	i := o.focus
	for _, r := range value {
		if r < '0' || r > '9' {
			continue
		}
		if i >= len(o.boxes) {
			break
		}
		o.boxes[i] = r
		i++
	}
	o.SetFocus(i)
}

func (o *OTPInput) Clear() {
	for i := range o.boxes {
		o.boxes[i] = 0
	}
	o.focus = 0
}

// Value concatenates the filled boxes.
func (o *OTPInput) Value() string {
	var b strings.Builder
	for _, r := range o.boxes {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Complete reports whether every box holds a digit.
func (o *OTPInput) Complete() bool {
	for _, r := range o.boxes {
		if r == 0 {
			return false
		}
	}
	return true
}

// Boxes returns the box contents, blanks as "".
func (o *OTPInput) Boxes() []string {
	out := make([]string, len(o.boxes))
	for i, r := range o.boxes {
		if r != 0 {
			out[i] = string(r)
		}
	}
	return out
}
