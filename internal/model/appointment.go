package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusApproved  AppointmentStatus = "APPROVED"
	AppointmentStatusRejected  AppointmentStatus = "REJECTED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"

	// AppointmentStatusScheduled is a legacy alias some stored rows still
	// carry. It is never written by this service and is treated as APPROVED
	// wherever cancellation eligibility is checked.
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusRejected, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// IsActive reports whether s represents an active, cancellable booking.
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusApproved || s == AppointmentStatusScheduled
}

// CancellableStatuses is the set of statuses a cancel may commit from.
// Used for the conditional update so two racing writers cannot both win.
func CancellableStatuses() []AppointmentStatus {
	return []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusApproved,
		AppointmentStatusScheduled,
	}
}

// Appointment is the record of a booking request. It is created PENDING by
// the owning patient and only ever mutated along the status state machine.
type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Date      time.Time         `db:"date" json:"date"`
	Time      string            `db:"time" json:"time"`
	Duration  int               `db:"duration" json:"duration"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Notes     *string           `db:"notes" json:"notes,omitempty"`
	Reason    *string           `db:"reason" json:"reason,omitempty"`
}

// CreateAppointmentRequest represents booking parameters. The patient id is
// never part of the request; it is taken from the actor.
type CreateAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Date     time.Time `json:"date" binding:"required"`
	Time     string    `json:"time" binding:"required,clocktime"`
	Duration int       `json:"duration" binding:"omitempty,min=1"`
	Notes    *string   `json:"notes"`
}

// TransitionAction is a doctor's decision on a pending appointment.
type TransitionAction string

const (
	TransitionApprove TransitionAction = "approve"
	TransitionReject  TransitionAction = "reject"
)

// TransitionRequest carries the approve/reject decision.
type TransitionRequest struct {
	Action TransitionAction `json:"action" binding:"required"`
}

// AppointmentDoctor is the denormalized doctor display info on a read.
type AppointmentDoctor struct {
	ID        uuid.UUID `json:"id" db:"doctor_id"`
	Name      string    `json:"name" db:"doctor_name"`
	Specialty *string   `json:"specialty" db:"doctor_specialty"`
}

// AppointmentPatient is the denormalized patient display info on a read.
type AppointmentPatient struct {
	ID   uuid.UUID `json:"id" db:"patient_id"`
	Name string    `json:"name" db:"patient_name"`
}

// AppointmentDetail is an appointment with its participant display names.
type AppointmentDetail struct {
	Appointment
	Doctor  *AppointmentDoctor  `json:"doctor,omitempty"`
	Patient *AppointmentPatient `json:"patient,omitempty"`
}
