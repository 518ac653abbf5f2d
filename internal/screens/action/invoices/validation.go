package invoices

import (
	"math"
	"strings"

	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/validation"
)

var requiredLabels = map[string]string{
	"invoice_number": "Invoice number",
	"amount":         "Amount",
	"due_date":       "Due date",
}

func addInvoiceSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"invoice_number": {Type: "string", MaxLength: validation.Int(64), Message: "Invoice number is too long"},
			"amount":         {Type: "number", Minimum: validation.Float(0.01), Message: "Amount must be greater than zero"},
			"due_date":       {Type: "string", Pattern: validation.String(`^\d{4}-\d{2}-\d{2}$`), Message: "Due date must be YYYY-MM-DD"},
			"delay_days":     {Type: "integer", Minimum: validation.Float(0), Message: "Delay days cannot be negative"},
		},
		Required: []string{"invoice_number", "amount", "due_date"},
	}
}

func validateAddInput(in AddInvoiceInput) error {
	// NaN compares false against any minimum
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return errors.NewValidationError("amount", "Amount must be a finite number")
	}
	result := validation.ValidateInput(map[string]interface{}{
		"invoice_number": strings.TrimSpace(in.InvoiceNumber),
		"amount":         in.Amount,
		"due_date":       strings.TrimSpace(in.DueDate),
		"delay_days":     in.DelayDays,
	}, addInvoiceSchema())

	if first := result.FirstError(); first != nil {
		msg := first.Message
		if label, ok := requiredLabels[first.Field]; ok && first.Code == "REQUIRED_FIELD_MISSING" {
			msg = label + " is required"
		}
		return errors.NewValidationError(first.Field, msg)
	}
	if !validation.ValidateDate(strings.TrimSpace(in.DueDate)) {
		return errors.NewValidationError("due_date", "Due date is not a valid calendar date")
	}
	return nil
}
