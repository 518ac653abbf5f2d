package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"borrower-client/internal/common/errors"
	"borrower-client/internal/models"
)

// Backend paths.
const (
	PathOTPSend      = "/auth/otp/send"
	PathOTPVerify    = "/auth/otp/verify"
	PathTokenRefresh = "/auth/token/refresh"

	PathKYCOnboard = "/kyc/onboard"

	PathBusinessMe       = "/businesses/me"
	PathDashboard        = "/businesses/me/dashboard"
	PathCreditScore      = "/businesses/me/credit-score"
	PathCreditRecalc     = "/businesses/me/credit-score/recalculate"
	PathInvoicesMine     = "/invoices/my"
	PathInvoiceAdd       = "/invoices/add"
	PathOffersGenerate   = "/offers/generate"
	PathOffersMine       = "/offers/user/my"
	PathLoanSanction     = "/loans/sanction"
	PathLoansMine        = "/loans/user/my"
	PathRepaymentsMine   = "/loans/user/repayments"
	pathInvoiceFmt       = "/invoices/%s"
	pathInvoiceOffersFmt = "/offers/invoice/%s"
	pathLoanFmt          = "/loans/%s"
	pathLoanEMIsFmt      = "/repayments/loan/%s/emis"
	pathEMIPayFmt        = "/repayments/emi/%s/pay"
	pathEMIBounceFmt     = "/repayments/emi/%s/bounce"
)

func get() RequestOptions {
	return RequestOptions{Method: http.MethodGet}
}

func post(body interface{}) RequestOptions {
	return RequestOptions{Method: http.MethodPost, Body: body}
}

// ==========================
// Auth
// ==========================

func (c *Client) SendOTP(ctx context.Context, phone string) (*models.SendOTPResponse, error) {
	var resp models.SendOTPResponse
	opts := post(models.SendOTPRequest{Phone: phone})
	opts.SkipAuth = true
	if err := c.Request(ctx, PathOTPSend, opts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyOTP exchanges the code for tokens and stores them in the session.
func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (*models.VerifyOTPResponse, error) {
	var resp models.VerifyOTPResponse
	opts := post(models.VerifyOTPRequest{Phone: phone, OTP: otp, Role: models.RoleBorrower})
	opts.SkipAuth = true
	if err := c.requestContract(ctx, PathOTPVerify, opts, contractVerify, &resp); err != nil {
		return nil, err
	}
	if err := c.tokens.SetTokens(ctx, models.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout drops the stored credentials. The backend keeps no server session.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.ClearTokens(ctx)
}

// ==========================
// Business
// ==========================

func (c *Client) SubmitKYC(ctx context.Context, req models.KYCRequest) (*models.KYCResponse, error) {
	var resp models.KYCResponse
	if err := c.Request(ctx, PathKYCOnboard, post(req), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetProfile(ctx context.Context) (*models.BusinessProfile, error) {
	var resp models.BusinessProfile
	if err := c.Request(ctx, PathBusinessMe, get(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	var resp models.Dashboard
	if err := c.Request(ctx, PathDashboard, get(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetCreditScore(ctx context.Context) (*models.CreditScore, error) {
	var resp models.CreditScore
	if err := c.Request(ctx, PathCreditScore, get(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RecalculateCreditScore(ctx context.Context) (*models.CreditScore, error) {
	var resp models.CreditScore
	if err := c.Request(ctx, PathCreditRecalc, post(nil), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ==========================
// Invoices
// ==========================

// ListInvoices returns the caller's invoices, optionally filtered server-side.
func (c *Client) ListInvoices(ctx context.Context, status string) ([]models.Invoice, error) {
	path := PathInvoicesMine
	if status != "" {
		path += "?" + url.Values{"status": {status}}.Encode()
	}
	var raw json.RawMessage
	if err := c.Request(ctx, path, get(), &raw); err != nil {
		return nil, err
	}
	return decodeList[models.Invoice](path, raw, "invoices")
}

func (c *Client) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	path := fmt.Sprintf(pathInvoiceFmt, url.PathEscape(id))
	var resp models.Invoice
	if err := c.Request(ctx, path, get(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AddInvoice(ctx context.Context, req models.AddInvoiceRequest) (*models.Invoice, error) {
	var resp models.Invoice
	if err := c.Request(ctx, PathInvoiceAdd, post(req), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ==========================
// Offers and Loans
// ==========================

// GenerateOffers asks the backend to price the invoice. A 409 means offers
// already exist and is returned as *errors.APIError for the caller to branch on.
func (c *Client) GenerateOffers(ctx context.Context, invoiceID string) ([]models.Offer, error) {
	var raw json.RawMessage
	if err := c.Request(ctx, PathOffersGenerate, post(models.GenerateOfferRequest{InvoiceID: invoiceID}), &raw); err != nil {
		return nil, err
	}
	offers, err := decodeList[models.Offer](PathOffersGenerate, raw, "offers")
	if err != nil {
		return nil, err
	}
	return withInvoice(offers, invoiceID), nil
}

func (c *Client) ListInvoiceOffers(ctx context.Context, invoiceID string) ([]models.Offer, error) {
	path := fmt.Sprintf(pathInvoiceOffersFmt, url.PathEscape(invoiceID))
	var raw json.RawMessage
	if err := c.Request(ctx, path, get(), &raw); err != nil {
		return nil, err
	}
	offers, err := decodeList[models.Offer](path, raw, "offers")
	if err != nil {
		return nil, err
	}
	return withInvoice(offers, invoiceID), nil
}

func (c *Client) ListMyOffers(ctx context.Context) ([]models.Offer, error) {
	var raw json.RawMessage
	if err := c.Request(ctx, PathOffersMine, get(), &raw); err != nil {
		return nil, err
	}
	return decodeList[models.Offer](PathOffersMine, raw, "offers")
}

func (c *Client) SanctionLoan(ctx context.Context, req models.SanctionRequest) (*models.SanctionResponse, error) {
	var resp models.SanctionResponse
	if err := c.requestContract(ctx, PathLoanSanction, post(req), contractSanction, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetLoan(ctx context.Context, id string) (*models.Loan, error) {
	path := fmt.Sprintf(pathLoanFmt, url.PathEscape(id))
	var resp models.Loan
	if err := c.Request(ctx, path, get(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListMyLoans(ctx context.Context) ([]models.Loan, error) {
	var raw json.RawMessage
	if err := c.Request(ctx, PathLoansMine, get(), &raw); err != nil {
		return nil, err
	}
	return decodeList[models.Loan](PathLoansMine, raw, "loans")
}

// ==========================
// Repayments
// ==========================

func (c *Client) ListMyRepayments(ctx context.Context) ([]models.EMI, error) {
	var raw json.RawMessage
	if err := c.Request(ctx, PathRepaymentsMine, get(), &raw); err != nil {
		return nil, err
	}
	return decodeList[models.EMI](PathRepaymentsMine, raw, "repayments")
}

// ListLoanEMIs returns the loan's schedule. The backend omits loan_id on each
// row, so it is filled in from the argument.
func (c *Client) ListLoanEMIs(ctx context.Context, loanID string) ([]models.EMI, error) {
	path := fmt.Sprintf(pathLoanEMIsFmt, url.PathEscape(loanID))
	var raw json.RawMessage
	if err := c.Request(ctx, path, get(), &raw); err != nil {
		return nil, err
	}
	emis, err := decodeList[models.EMI](path, raw, "emis")
	if err != nil {
		return nil, err
	}
	for i := range emis {
		if emis[i].LoanID == "" {
			emis[i].LoanID = loanID
		}
	}
	return emis, nil
}

func (c *Client) PayEMI(ctx context.Context, emiID string) (*models.EMIActionResponse, error) {
	return c.emiAction(ctx, fmt.Sprintf(pathEMIPayFmt, url.PathEscape(emiID)))
}

func (c *Client) BounceEMI(ctx context.Context, emiID string) (*models.EMIActionResponse, error) {
	return c.emiAction(ctx, fmt.Sprintf(pathEMIBounceFmt, url.PathEscape(emiID)))
}

func (c *Client) emiAction(ctx context.Context, path string) (*models.EMIActionResponse, error) {
	var resp models.EMIActionResponse
	if err := c.Request(ctx, path, post(nil), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ==========================
// Decoding helpers
// ==========================

// decodeList accepts either a bare JSON array or an object wrapping the array
// under key. null and a missing key both decode to an empty list.
func decodeList[T any](path string, raw json.RawMessage, key string) ([]T, error) {
	items := []T{}
	trimmed := firstNonSpace(raw)
	switch trimmed {
	case 0, 'n':
		return items, nil
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.NewContractError(path, err.Error())
		}
		return items, nil
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, errors.NewContractError(path, err.Error())
		}
		inner, ok := wrapper[key]
		if !ok || firstNonSpace(inner) == 'n' {
			return items, nil
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, errors.NewContractError(path, err.Error())
		}
		return items, nil
	default:
		return nil, errors.NewContractError(path, fmt.Sprintf("expected list under %q", key))
	}
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}

func withInvoice(offers []models.Offer, invoiceID string) []models.Offer {
	for i := range offers {
		if offers[i].InvoiceID == "" {
			offers[i].InvoiceID = invoiceID
		}
	}
	return offers
}
