package model

import "github.com/google/uuid"

// Actor is the authenticated identity invoking a service operation. It is
// built server-side from validated token claims, never from request input.
// PatientID is set iff the role is PATIENT and a patient profile exists;
// DoctorID is set iff the role is DOCTOR and a doctor profile exists.
type Actor struct {
	UserID    uuid.UUID
	Role      Role
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries the issued access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
