package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type LoanType string

const (
	LoanTypeSecured   LoanType = "SECURED"
	LoanTypeUnsecured LoanType = "UNSECURED"
)

type OfferStatus string

const (
	OfferGenerated OfferStatus = "GENERATED"
	OfferAccepted  OfferStatus = "ACCEPTED"
	OfferExpired   OfferStatus = "EXPIRED"
)

type LoanStatus string

const (
	LoanSanctioned LoanStatus = "SANCTIONED"
	LoanActive     LoanStatus = "ACTIVE"
	LoanClosed     LoanStatus = "CLOSED"
	LoanDefault    LoanStatus = "DEFAULT"
)

type EMIStatus string

const (
	EMIPending EMIStatus = "PENDING"
	EMIPaid    EMIStatus = "PAID"
	EMIBounced EMIStatus = "BOUNCED"
)

// Label is the user-facing name for the status.
func (s EMIStatus) Label() string {
	switch s {
	case EMIPending, "SCHEDULED":
		return "Scheduled"
	case EMIPaid:
		return "Paid"
	case EMIBounced:
		return "Bounced"
	}
	return string(s)
}

// IsPending reports whether the instalment is still to be collected.
func (s EMIStatus) IsPending() bool {
	return s == EMIPending || s == "SCHEDULED"
}

// Offer is a financing proposal against one invoice. The generate endpoint
// names the id offer_id while list endpoints use id.
type Offer struct {
	ID           string          `json:"id"`
	InvoiceID    string          `json:"invoice_id"`
	LoanType     LoanType        `json:"loan_type"`
	Amount       decimal.Decimal `json:"amount"`
	Percentage   decimal.Decimal `json:"percentage"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TenureDays   int             `json:"tenure_days"`
	TenureMonths int             `json:"tenure_months"`
	PlatformFee  decimal.Decimal `json:"platform_fee"`
	Status       OfferStatus     `json:"status"`
	ExpiresAt    Timestamp       `json:"expires_at"`
}

func (o *Offer) UnmarshalJSON(data []byte) error {
	type offerAlias Offer
	aux := struct {
		*offerAlias
		OfferID string `json:"offer_id"`
	}{offerAlias: (*offerAlias)(o)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = aux.OfferID
	}
	return nil
}

// IsActive reports whether the offer can still be accepted. A missing status
// counts as active because the generate endpoint omits it.
func (o Offer) IsActive() bool {
	return o.Status == "" || o.Status == OfferGenerated
}

// Tenure renders the tenure in whichever unit the backend supplied.
func (o Offer) Tenure() (int, string) {
	if o.TenureDays > 0 {
		return o.TenureDays, "days"
	}
	return o.TenureMonths, "months"
}

type Loan struct {
	ID                string          `json:"id"`
	OfferID           string          `json:"offer_id"`
	Principal         decimal.Decimal `json:"principal"`
	DisbursedAmount   decimal.Decimal `json:"disbursed_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	TenureMonths      int             `json:"tenure_months"`
	Status            LoanStatus      `json:"status"`
	CreatedAt         Timestamp       `json:"created_at"`
}

func (l *Loan) UnmarshalJSON(data []byte) error {
	type loanAlias Loan
	aux := struct {
		*loanAlias
		LoanID          string              `json:"loan_id"`
		PrincipalAmount decimal.NullDecimal `json:"principal_amount"`
		Amount          decimal.NullDecimal `json:"amount"`
	}{loanAlias: (*loanAlias)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = aux.LoanID
	}
	if l.Principal.IsZero() {
		switch {
		case aux.PrincipalAmount.Valid:
			l.Principal = aux.PrincipalAmount.Decimal
		case aux.Amount.Valid:
			l.Principal = aux.Amount.Decimal
		}
	}
	return nil
}

type EMI struct {
	ID         string          `json:"id"`
	LoanID     string          `json:"loan_id"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    Timestamp       `json:"due_date"`
	Status     EMIStatus       `json:"status"`
	RetryCount int             `json:"retry_count"`
}

func (e *EMI) UnmarshalJSON(data []byte) error {
	type emiAlias EMI
	aux := struct {
		*emiAlias
		EMIID string `json:"emi_id"`
	}{emiAlias: (*emiAlias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = aux.EMIID
	}
	return nil
}

type GenerateOfferRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// SanctionRequest carries collateral only for secured financing.
type SanctionRequest struct {
	OfferID          string   `json:"offer_id"`
	AssetDescription string   `json:"asset_description,omitempty"`
	AssetValue       *float64 `json:"asset_value,omitempty"`
}

type SanctionResponse struct {
	Message         string          `json:"message"`
	LoanID          string          `json:"loan_id"`
	ID              string          `json:"id"`
	Status          LoanStatus      `json:"status"`
	Principal       decimal.Decimal `json:"principal"`
	DisbursedAmount decimal.Decimal `json:"disbursed_amount"`
}

// SanctionedLoanID prefers loan_id and falls back to id.
func (r SanctionResponse) SanctionedLoanID() string {
	if r.LoanID != "" {
		return r.LoanID
	}
	return r.ID
}

type EMIActionResponse struct {
	Message    string    `json:"message"`
	EMIID      string    `json:"emi_id"`
	Status     EMIStatus `json:"status"`
	RetryCount int       `json:"retry_count"`
}
