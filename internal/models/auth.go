package models

// Role sent with OTP verification.
type Role string

const (
	RoleBorrower Role = "BORROWER"
)

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

// SendOTPResponse is an acknowledgement; the backend may echo a message.
type SendOTPResponse struct {
	Message string `json:"message,omitempty"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
	Role  Role   `json:"role"`
}

type VerifyOTPResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Role         Role   `json:"role,omitempty"`
	IsOnboarded  bool   `json:"is_onboarded"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenResponse may omit refresh_token; the stored one is then kept.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// MessageResponse is the generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
