package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/booking-api/internal/email"
	"github.com/carebook/booking-api/internal/model"
	"github.com/carebook/booking-api/internal/repository"
	"github.com/carebook/booking-api/pkg/apperror"
)

const defaultDurationMinutes = 30

type Service struct {
	repo     repository.AppointmentRepository
	userRepo repository.UserRepository
	notifier email.Notifier
	logger   zerolog.Logger
}

func NewService(repo repository.AppointmentRepository, userRepo repository.UserRepository, notifier email.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger,
	}
}

// Create books a new appointment for the acting patient. The patient id is
// always the actor's own; a booking is created PENDING without exception.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateAppointmentRequest) (*model.AppointmentDetail, error) {
	if err := canOperate(actor, OpCreate, nil); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.DoctorProfileExists(ctx, req.DoctorID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !exists {
		return nil, apperror.Constraint("doctor does not exist", nil)
	}

	duration := req.Duration
	if duration <= 0 {
		duration = defaultDurationMinutes
	}

	apt := &model.Appointment{
		PatientID: *actor.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Duration:  duration,
		Status:    model.AppointmentStatusPending,
		Notes:     req.Notes,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, apperror.Constraint("invalid doctor or patient reference", err)
		}
		return nil, apperror.Internal(err)
	}

	detail, err := s.repo.GetDetail(ctx, apt.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.notify(ctx, detail, "appointment_requested")
	return detail, nil
}

// List returns the actor's own appointments ordered by date ascending.
// Patients see their bookings, doctors their schedule; other roles are
// denied on this endpoint.
func (s *Service) List(ctx context.Context, actor model.Actor) ([]*model.AppointmentDetail, error) {
	if err := canOperate(actor, OpList, nil); err != nil {
		return nil, err
	}

	var (
		details []*model.AppointmentDetail
		err     error
	)
	switch actor.Role {
	case model.RolePatient:
		details, err = s.repo.ListByPatient(ctx, *actor.PatientID)
	case model.RoleDoctor:
		details, err = s.repo.ListByDoctor(ctx, *actor.DoctorID)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return details, nil
}

// ListAll returns every appointment. Admin surface only; the general listing
// endpoint stays closed to admins.
func (s *Service) ListAll(ctx context.Context, actor model.Actor) ([]*model.AppointmentDetail, error) {
	if actor.Role != model.RoleAdmin {
		return nil, apperror.Forbidden("admin access required")
	}

	details, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return details, nil
}

// Transition applies a doctor's approve/reject decision to a pending
// appointment. Checks run existence first, then ownership, then state, so
// error precedence is deterministic. The commit is conditional on the row
// still being PENDING; losing that race reads as an illegal transition.
func (s *Service) Transition(ctx context.Context, actor model.Actor, id string, action model.TransitionAction) (*model.AppointmentDetail, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := canOperate(actor, OpTransition, apt); err != nil {
		return nil, err
	}

	if apt.Status != model.AppointmentStatusPending {
		return nil, apperror.Validation("only pending appointments can be approved or rejected")
	}

	var target model.AppointmentStatus
	switch action {
	case model.TransitionApprove:
		target = model.AppointmentStatusApproved
	case model.TransitionReject:
		target = model.AppointmentStatusRejected
	default:
		return nil, apperror.Validation(`invalid action: must be either "approve" or "reject"`)
	}

	updated, err := s.repo.UpdateStatus(ctx, apt.ID,
		[]model.AppointmentStatus{model.AppointmentStatusPending}, target)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !updated {
		return nil, apperror.Validation("appointment is no longer pending")
	}

	detail, err := s.repo.GetDetail(ctx, apt.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.notify(ctx, detail, "appointment_"+string(target))
	return detail, nil
}

// Cancel moves a non-terminal appointment to CANCELLED. Allowed for the
// owning patient and for admins.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id string) (*model.AppointmentDetail, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := canOperate(actor, OpCancel, apt); err != nil {
		return nil, err
	}

	if apt.Status.IsTerminal() {
		switch apt.Status {
		case model.AppointmentStatusCancelled:
			return nil, apperror.Validation("appointment is already cancelled")
		case model.AppointmentStatusCompleted:
			return nil, apperror.Validation("appointment is already completed")
		default:
			return nil, apperror.Validation("appointment can no longer be cancelled")
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, apt.ID,
		model.CancellableStatuses(), model.AppointmentStatusCancelled)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !updated {
		return nil, apperror.Validation("appointment can no longer be cancelled")
	}

	detail, err := s.repo.GetDetail(ctx, apt.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.notify(ctx, detail, "appointment_cancelled")
	return detail, nil
}

func (s *Service) load(ctx context.Context, id string) (*model.Appointment, error) {
	aptID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	apt, err := s.repo.Get(ctx, aptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, apperror.Internal(err)
	}
	return apt, nil
}

func (s *Service) notify(ctx context.Context, detail *model.AppointmentDetail, event string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAppointment(ctx, detail, event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event", event).
			Str("appointment_id", detail.ID.String()).
			Msg("failed to send appointment notification")
	}
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid appointment id")
	}
	return parsed, nil
}
