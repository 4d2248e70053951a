package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/carebook/booking-api/internal/model"
)

const appointmentColumns = `
	id, patient_id, doctor_id, date, time, duration, status,
	notes, reason, created_at, updated_at
`

// detailRow flattens the participant join for sqlx scanning.
type detailRow struct {
	model.Appointment
	DoctorProfileID uuid.UUID `db:"d_id"`
	DoctorName      string    `db:"d_name"`
	DoctorSpecialty *string   `db:"d_specialty"`
	PatientRecordID uuid.UUID `db:"p_id"`
	PatientName     string    `db:"p_name"`
}

func (row *detailRow) toDetail() *model.AppointmentDetail {
	return &model.AppointmentDetail{
		Appointment: row.Appointment,
		Doctor: &model.AppointmentDoctor{
			ID:        row.DoctorProfileID,
			Name:      row.DoctorName,
			Specialty: row.DoctorSpecialty,
		},
		Patient: &model.AppointmentPatient{
			ID:   row.PatientRecordID,
			Name: row.PatientName,
		},
	}
}

const detailQuery = `
	SELECT a.id, a.patient_id, a.doctor_id, a.date, a.time, a.duration,
		   a.status, a.notes, a.reason, a.created_at, a.updated_at,
		   dp.id AS d_id, du.name AS d_name, dp.specialty AS d_specialty,
		   pp.id AS p_id, pu.name AS p_name
	FROM appointments a
	JOIN doctor_profiles dp ON dp.id = a.doctor_id
	JOIN users du ON du.id = dp.user_id
	JOIN patient_profiles pp ON pp.id = a.patient_id
	JOIN users pu ON pu.id = pp.user_id
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	now := time.Now()
	appointment.ID = uuid.New()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.Time,
		appointment.Duration,
		appointment.Status,
		appointment.Notes,
		appointment.Reason,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", mapError(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, mapError(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	var row detailRow
	if err := r.db.GetContext(ctx, &row, detailQuery+` WHERE a.id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return row.toDetail(), nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AppointmentDetail, error) {
	return r.listDetails(ctx, detailQuery+` WHERE a.patient_id = $1 ORDER BY a.date ASC`, patientID)
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AppointmentDetail, error) {
	return r.listDetails(ctx, detailQuery+` WHERE a.doctor_id = $1 ORDER BY a.date ASC`, doctorID)
}

func (r *appointmentRepository) ListAll(ctx context.Context) ([]*model.AppointmentDetail, error) {
	return r.listDetails(ctx, detailQuery+` ORDER BY a.date ASC`)
}

func (r *appointmentRepository) listDetails(ctx context.Context, query string, args ...interface{}) ([]*model.AppointmentDetail, error) {
	var rows []detailRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	details := make([]*model.AppointmentDetail, 0, len(rows))
	for i := range rows {
		details = append(details, rows[i].toDetail())
	}
	return details, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected []model.AppointmentStatus, to model.AppointmentStatus) (bool, error) {
	statuses := make([]string, 0, len(expected))
	for _, s := range expected {
		statuses = append(statuses, string(s))
	}

	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, pq.Array(statuses))
	if err != nil {
		return false, fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
