package appointment

import (
	"github.com/carebook/booking-api/internal/model"
	"github.com/carebook/booking-api/pkg/apperror"
)

// Operation is an appointment capability checked against an actor.
type Operation string

const (
	OpCreate     Operation = "create"
	OpList       Operation = "list"
	OpTransition Operation = "transition"
	OpCancel     Operation = "cancel"
)

// canOperate decides whether the actor may perform op on the appointment.
// It checks identity and ownership only; status checks happen after, so a
// forbidden caller never learns the appointment state. The appointment is
// nil for create and list, which are not bound to an existing record.
func canOperate(actor model.Actor, op Operation, apt *model.Appointment) error {
	switch op {
	case OpCreate:
		if actor.Role != model.RolePatient {
			return apperror.Forbidden("only patients can create appointments")
		}
		if actor.PatientID == nil {
			return apperror.Validation("patient profile not found for this user")
		}
		return nil

	case OpList:
		switch actor.Role {
		case model.RolePatient:
			if actor.PatientID == nil {
				return apperror.Validation("patient profile not found for this user")
			}
			return nil
		case model.RoleDoctor:
			if actor.DoctorID == nil {
				return apperror.Validation("doctor profile not found for this user")
			}
			return nil
		default:
			return apperror.Forbidden("appointments view is not available for this role")
		}

	case OpTransition:
		if actor.Role != model.RoleDoctor {
			return apperror.Forbidden("only doctors can approve appointments")
		}
		if actor.DoctorID == nil {
			return apperror.Validation("doctor profile not found for this user")
		}
		if apt.DoctorID != *actor.DoctorID {
			return apperror.Forbidden("you can only approve your own appointments")
		}
		return nil

	case OpCancel:
		if actor.Role == model.RoleAdmin {
			return nil
		}
		if actor.Role == model.RolePatient && actor.PatientID != nil && apt.PatientID == *actor.PatientID {
			return nil
		}
		return apperror.Forbidden("you do not have permission to modify this appointment")
	}

	return apperror.Forbidden("unknown operation")
}
