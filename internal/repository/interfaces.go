package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/booking-api/internal/model"
)

// Sentinel errors the postgres layer maps driver failures onto, so services
// can branch without knowing the driver.
var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
)

type (
	// UserRepository handles users and their role profiles
	UserRepository interface {
		// CreateWithProfile inserts the user and its role profile in one
		// transaction; either both rows exist afterwards or neither does.
		CreateWithProfile(ctx context.Context, user *model.User, patient *model.PatientProfile, doctor *model.DoctorProfile) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context) ([]*model.User, error)
		Delete(ctx context.Context, id uuid.UUID) error
		GetPatientProfile(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error)
		GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error)
		ListDoctors(ctx context.Context) ([]*model.DoctorListing, error)
		DoctorProfileExists(ctx context.Context, doctorID uuid.UUID) (bool, error)
		GetUserByPatientProfile(ctx context.Context, profileID uuid.UUID) (*model.User, error)
		GetUserByDoctorProfile(ctx context.Context, profileID uuid.UUID) (*model.User, error)
	}

	// AppointmentRepository handles appointment persistence
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AppointmentDetail, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AppointmentDetail, error)
		ListAll(ctx context.Context) ([]*model.AppointmentDetail, error)
		// UpdateStatus commits the transition only if the row still holds one
		// of the expected statuses. Returns false when a concurrent writer got
		// there first.
		UpdateStatus(ctx context.Context, id uuid.UUID, expected []model.AppointmentStatus, to model.AppointmentStatus) (bool, error)
	}

	// TokenRepository is the deny-list for revoked session tokens
	TokenRepository interface {
		Revoke(ctx context.Context, tokenID string, until time.Time) error
		IsRevoked(ctx context.Context, tokenID string) (bool, error)
	}
)
