package model

import (
	"time"

	"github.com/google/uuid"
)

// Role determines which dashboard a user sees and which appointment
// operations they may perform. It is fixed at registration.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	Base
	Email        string `json:"email" db:"email"`
	Name         string `json:"name" db:"name"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
}

// PatientProfile is the patient extension record, linked 1:1 to its user.
type PatientProfile struct {
	Base
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	DateOfBirth *time.Time `json:"date_of_birth" db:"date_of_birth"`
}

// DoctorProfile is the doctor extension record, linked 1:1 to its user.
type DoctorProfile struct {
	Base
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Specialty *string   `json:"specialty" db:"specialty"`
}

// RegisterRequest represents registration parameters. The profile fields
// apply only to the matching role.
type RegisterRequest struct {
	Email       string     `json:"email" binding:"required,email"`
	Password    string     `json:"password" binding:"required,min=8"`
	Name        string     `json:"name" binding:"required"`
	Role        Role       `json:"role" binding:"omitempty,oneof=PATIENT DOCTOR ADMIN"`
	Specialty   *string    `json:"specialty"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

// RegisteredUser is the registration response: the user with any profile
// that was created alongside it, password hash excluded.
type RegisteredUser struct {
	User
	PatientProfile *PatientProfile `json:"patient_profile,omitempty"`
	DoctorProfile  *DoctorProfile  `json:"doctor_profile,omitempty"`
}

// DoctorListing is the public directory entry for a doctor.
type DoctorListing struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Specialization *string   `json:"specialization" db:"specialization"`
}
