package models

import "github.com/shopspring/decimal"

type RiskGrade string

const (
	RiskGradeA RiskGrade = "A"
	RiskGradeB RiskGrade = "B"
	RiskGradeC RiskGrade = "C"
)

// MaxCreditScore is the top of the scale the score is displayed against.
const MaxCreditScore = 900

// BusinessProfile is GET /businesses/me. DisplayName is filled in by the client.
type BusinessProfile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	GSTNumber   string    `json:"gst_number"`
	PANNumber   string    `json:"pan_number"`
	CreatedAt   Timestamp `json:"created_at"`
	DisplayName string    `json:"display_name,omitempty"`
}

type CreditScore struct {
	ID            string          `json:"id"`
	BusinessID    string          `json:"business_id"`
	ExternalScore decimal.Decimal `json:"external_score"`
	InternalScore decimal.Decimal `json:"internal_score"`
	FinalScore    decimal.Decimal `json:"final_score"`
	RiskGrade     RiskGrade       `json:"risk_grade"`
	CreatedAt     Timestamp       `json:"created_at"`
}

type ActivityItem struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Amount   decimal.Decimal `json:"amount"`
	Date     Timestamp       `json:"date"`
}

type Dashboard struct {
	AvailableLimit   decimal.Decimal     `json:"available_limit"`
	CreditScore      decimal.Decimal     `json:"credit_score"`
	RiskGrade        RiskGrade           `json:"risk_grade"`
	ActiveLoansTotal decimal.Decimal     `json:"active_loans_total"`
	NextEMIAmount    decimal.NullDecimal `json:"next_emi_amount"`
	NextEMIDate      *Timestamp          `json:"next_emi_date"`
	RecentActivity   []ActivityItem      `json:"recent_activity"`
}

type KYCRequest struct {
	AadhaarNumber string `json:"aadhaar_number"`
	PANNumber     string `json:"pan_number"`
	GSTNumber     string `json:"gst_number"`
}

type KYCResponse struct {
	Message     string                 `json:"message"`
	BusinessID  string                 `json:"business_id"`
	GSTNumber   string                 `json:"gst_number"`
	CreditScore map[string]interface{} `json:"credit_score,omitempty"`
}
