package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

// Canonical statuses. The backend has shipped two vocabularies; the second set
// is folded into the first by NormalizeInvoiceStatus.
const (
	InvoiceUnpaid         InvoiceStatus = "UNPAID"
	InvoiceOverdue        InvoiceStatus = "OVERDUE"
	InvoiceOfferGenerated InvoiceStatus = "OFFER_GENERATED"
	InvoiceFinanced       InvoiceStatus = "FINANCED"
	InvoiceRepaid         InvoiceStatus = "REPAID"
	InvoiceDefaulted      InvoiceStatus = "DEFAULTED"
)

var invoiceStatusAliases = map[string]InvoiceStatus{
	"PENDING":    InvoiceUnpaid,
	"DISCOUNTED": InvoiceFinanced,
	"PAID":       InvoiceRepaid,
}

// NormalizeInvoiceStatus maps any known spelling to the canonical status.
// Unknown values are upper-cased and passed through.
func NormalizeInvoiceStatus(s string) InvoiceStatus {
	up := strings.ToUpper(strings.TrimSpace(s))
	if canonical, ok := invoiceStatusAliases[up]; ok {
		return canonical
	}
	return InvoiceStatus(up)
}

// IsPending reports whether the invoice can still be financed.
func (s InvoiceStatus) IsPending() bool {
	switch s {
	case InvoiceUnpaid, InvoiceOverdue, InvoiceOfferGenerated:
		return true
	}
	return false
}

// IsDiscounted reports whether the invoice has been financed already.
func (s InvoiceStatus) IsDiscounted() bool {
	return s == InvoiceFinanced || s == InvoiceRepaid
}

// DefaultCounterparty is shown when the backend does not name the buyer.
const DefaultCounterparty = "B2B Partner"

type Invoice struct {
	ID            string          `json:"id"`
	BusinessID    string          `json:"business_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	Counterparty  string          `json:"counterparty_name"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       Timestamp       `json:"due_date"`
	DelayDays     int             `json:"delay_days"`
	Status        InvoiceStatus   `json:"status"`
	// RawStatus keeps the spelling the backend sent.
	RawStatus string    `json:"-"`
	CreatedAt Timestamp `json:"created_at"`
}

func (i *Invoice) UnmarshalJSON(data []byte) error {
	type invoiceAlias Invoice
	aux := struct {
		*invoiceAlias
		BuyerName string `json:"buyer_name"`
		Status    string `json:"status"`
	}{invoiceAlias: (*invoiceAlias)(i)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.BuyerName != "" {
		i.Counterparty = aux.BuyerName
	}
	if i.Counterparty == "" {
		i.Counterparty = DefaultCounterparty
	}
	i.RawStatus = aux.Status
	i.Status = NormalizeInvoiceStatus(aux.Status)
	return nil
}

// AddInvoiceRequest is the body of POST /invoices/add.
type AddInvoiceRequest struct {
	InvoiceNumber string  `json:"invoice_number"`
	Amount        float64 `json:"amount"`
	DueDate       string  `json:"due_date"`
	DelayDays     int     `json:"delay_days"`
}
