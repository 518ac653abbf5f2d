package models

// Persisted client-side keys. Names match what the browser client stored so an
// exported session file stays readable by both.
const (
	KeyAccessToken       = "accessToken"
	KeyLegacyAccessToken = "access_token"
	KeyRefreshToken      = "refreshToken"

	KeySelectedInvoiceID = "selectedInvoiceId"
	KeySelectedOfferID   = "selectedOfferId"
	KeySelectedLoanID    = "selectedLoanId"

	KeyKYCAadhaar = "kyc_aadhaar"
	KeyKYCPAN     = "kyc_pan"
	KeyKYCGST     = "kyc_gst"
)

// TokenKeys lists every key cleared on logout or an irrecoverable 401.
var TokenKeys = []string{KeyAccessToken, KeyLegacyAccessToken, KeyRefreshToken}

// KYCDraftKeys lists the onboarding draft keys.
var KYCDraftKeys = []string{KeyKYCAadhaar, KeyKYCPAN, KeyKYCGST}

// TokenPair is the credential set held by the session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// IsEmpty reports whether there is no access token.
func (p TokenPair) IsEmpty() bool {
	return p.AccessToken == ""
}
