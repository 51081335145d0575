package dto

import "encoding/json"

// SendOTPRequest asks for a code to be mailed.
type SendOTPRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest submits a code. OTP is kept raw so clients may send it as a string or a number.
type VerifyOTPRequest struct {
	Email string          `json:"email"`
	OTP   json.RawMessage `json:"otp"`
}

// StatusResponse acknowledges an OTP operation.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
