package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carebook/booking-api/internal/model"
	"github.com/carebook/booking-api/internal/repository"
)

func (r *userRepository) CreateWithProfile(ctx context.Context, user *model.User, patient *model.PatientProfile, doctor *model.DoctorProfile) error {
	now := time.Now()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.ExecContext(ctx, query,
			user.ID, user.Email, user.Name, user.PasswordHash, user.Role,
			user.CreatedAt, user.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create user: %w", mapError(err))
		}

		if patient != nil {
			patient.ID = uuid.New()
			patient.UserID = user.ID
			patient.CreatedAt = now
			patient.UpdatedAt = now
			query := `
				INSERT INTO patient_profiles (id, user_id, date_of_birth, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5)
			`
			if _, err := tx.ExecContext(ctx, query,
				patient.ID, patient.UserID, patient.DateOfBirth,
				patient.CreatedAt, patient.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to create patient profile: %w", mapError(err))
			}
		}

		if doctor != nil {
			doctor.ID = uuid.New()
			doctor.UserID = user.ID
			doctor.CreatedAt = now
			doctor.UpdatedAt = now
			query := `
				INSERT INTO doctor_profiles (id, user_id, specialty, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5)
			`
			if _, err := tx.ExecContext(ctx, query,
				doctor.ID, doctor.UserID, doctor.Specialty,
				doctor.CreatedAt, doctor.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to create doctor profile: %w", mapError(err))
			}
		}

		return nil
	})
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`
	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", mapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	query := `
		SELECT id, user_id, date_of_birth, created_at, updated_at
		FROM patient_profiles
		WHERE user_id = $1
	`
	var profile model.PatientProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, mapError(err)
	}
	return &profile, nil
}

func (r *userRepository) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	query := `
		SELECT id, user_id, specialty, created_at, updated_at
		FROM doctor_profiles
		WHERE user_id = $1
	`
	var profile model.DoctorProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, mapError(err)
	}
	return &profile, nil
}

func (r *userRepository) ListDoctors(ctx context.Context) ([]*model.DoctorListing, error) {
	query := `
		SELECT dp.id, u.name, dp.specialty AS specialization
		FROM doctor_profiles dp
		JOIN users u ON u.id = dp.user_id
		WHERE u.role = 'DOCTOR'
		ORDER BY u.name ASC
	`
	var doctors []*model.DoctorListing
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *userRepository) GetUserByPatientProfile(ctx context.Context, profileID uuid.UUID) (*model.User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.password_hash, u.role, u.created_at, u.updated_at
		FROM users u
		JOIN patient_profiles pp ON pp.user_id = u.id
		WHERE pp.id = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, profileID); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByDoctorProfile(ctx context.Context, profileID uuid.UUID) (*model.User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.password_hash, u.role, u.created_at, u.updated_at
		FROM users u
		JOIN doctor_profiles dp ON dp.user_id = u.id
		WHERE dp.id = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, profileID); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *userRepository) DoctorProfileExists(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM doctor_profiles WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, doctorID); err != nil {
		return false, fmt.Errorf("failed to check doctor profile: %w", err)
	}
	return exists, nil
}
