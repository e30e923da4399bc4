// Package model - API types for user service requests/responses
package model

// MessageResponse is the generic body for success and error replies
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountResponse returns a single account, e.g. after registration or login
type AccountResponse struct {
	Message string  `json:"message"`
	User    Profile `json:"user"`
}

// UpdatedAccountResponse is returned by the profile update endpoint
type UpdatedAccountResponse struct {
	Message     string  `json:"message"`
	UpdatedUser Profile `json:"updatedUser"`
}

// AccountListResponse is returned by the admin listing endpoint
type AccountListResponse struct {
	AllUsers []Profile `json:"allUsers"`
}

// CheckAuthResponse reports the role of the session owner
type CheckAuthResponse struct {
	Message string `json:"message"`
	Role    Role   `json:"role"`
}

// ResetVerificationResponse carries the email bound to a valid reset token
type ResetVerificationResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}
