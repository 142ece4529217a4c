package safehaven

import (
	"fmt"
	"strings"
)

type IdentityType string

const (
	IdentityBVN IdentityType = "BVN"
	IdentityNIN IdentityType = "NIN"
)

// ParseIdentityType accepts bvn or nin in any letter case.
func ParseIdentityType(value string) (IdentityType, error) {
	switch IdentityType(strings.ToUpper(strings.TrimSpace(value))) {
	case IdentityBVN:
		return IdentityBVN, nil
	case IdentityNIN:
		return IdentityNIN, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentityType, value)
	}
}

type Token struct {
	AccessToken  string `json:"access_token"`
	ClientID     string `json:"client_id"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IBSClientID  string `json:"ibs_client_id"`
	IBSUserID    string `json:"ibs_user_id"`
}

type tokenRequest struct {
	GrantType           string `json:"grant_type"`
	ClientAssertionType string `json:"client_assertion_type"`
	ClientID            string `json:"client_id"`
	ClientAssertion     string `json:"client_assertion"`
}

type otpRequest struct {
	Type               IdentityType `json:"type"`
	Async              bool         `json:"async"`
	Number             string       `json:"number"`
	DebitAccountNumber string       `json:"debitAccountNumber"`
}

type validateRequest struct {
	Type       IdentityType `json:"type"`
	IdentityID string       `json:"identityId"`
	OTP        string       `json:"otp"`
}

type OTPResponse struct {
	StatusCode int     `json:"statusCode"`
	Message    string  `json:"message,omitempty"`
	Data       OTPData `json:"data"`
}

type OTPData struct {
	ID                 string  `json:"_id"`
	ClientID           string  `json:"clientId"`
	Type               string  `json:"type"`
	Amount             float64 `json:"amount"`
	Status             string  `json:"status"`
	DebitAccountNumber string  `json:"debitAccountNumber"`
	OTPVerified        bool    `json:"otpVerified"`
	OTPResendCount     int     `json:"otpResendCount"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

type VerifyResponse struct {
	StatusCode int        `json:"statusCode"`
	Message    string     `json:"message,omitempty"`
	Data       VerifyData `json:"data"`
}

type VerifyData struct {
	ID               string           `json:"_id"`
	ClientID         string           `json:"clientId"`
	Type             string           `json:"type"`
	Status           string           `json:"status"`
	OTPVerified      bool             `json:"otpVerified"`
	DebitMessage     string           `json:"debitMessage"`
	DebitSessionID   string           `json:"debitSessionId"`
	ProviderResponse ProviderIdentity `json:"providerResponse"`
	CreatedAt        string           `json:"createdAt"`
	UpdatedAt        string           `json:"updatedAt"`
}

type ProviderIdentity struct {
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	DOB           string  `json:"dob"`
	Phone         string  `json:"phone"`
	Gender        string  `json:"gender"`
	StateOfOrigin string  `json:"stateOfOrigin"`
	LgaOfOrigin   *string `json:"lgaOfOrigin"`
	Photo         string  `json:"photo,omitempty"`
	OtpID         string  `json:"otpId,omitempty"`
}

type SubAccountRequest struct {
	PhoneNumber       string       `json:"phoneNumber"`
	EmailAddress      string       `json:"emailAddress"`
	IdentityType      IdentityType `json:"identityType"`
	ExternalReference string       `json:"externalReference"`
	IdentityNumber    string       `json:"identityNumber"`
	IdentityID        string       `json:"identityId"`
	OTP               string       `json:"otp"`
	AutoSweep         bool         `json:"autoSweep"`
}

type SubAccountResponse struct {
	StatusCode int        `json:"statusCode"`
	Message    string     `json:"message,omitempty"`
	Data       SubAccount `json:"data"`
}

type SubAccount struct {
	ID                string `json:"_id"`
	AccountNumber     string `json:"accountNumber"`
	AccountName       string `json:"accountName"`
	PhoneNumber       string `json:"phoneNumber"`
	EmailAddress      string `json:"emailAddress"`
	IdentityType      string `json:"identityType"`
	ExternalReference string `json:"externalReference"`
	IdentityNumber    string `json:"identityNumber"`
	IdentityID        string `json:"identityId"`
	ClientID          string `json:"clientId"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}
