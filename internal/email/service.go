package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/carebook/booking-api/internal/model"
	"github.com/carebook/booking-api/internal/repository"
)

// Notifier delivers best-effort appointment notifications. Failures are for
// the caller to log, never to surface.
type Notifier interface {
	NotifyAppointment(ctx context.Context, detail *model.AppointmentDetail, event string) error
}

// NoopNotifier is used when SMTP is not configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyAppointment(context.Context, *model.AppointmentDetail, string) error {
	return nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpNotifier struct {
	dialer   *gomail.Dialer
	from     string
	userRepo repository.UserRepository
}

func NewSMTPNotifier(cfg SMTPConfig, userRepo repository.UserRepository) Notifier {
	return &smtpNotifier{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		userRepo: userRepo,
	}
}

var subjects = map[string]string{
	"appointment_requested": "New appointment request",
	"appointment_APPROVED":  "Your appointment was approved",
	"appointment_REJECTED":  "Your appointment was declined",
	"appointment_cancelled": "Appointment cancelled",
}

func (n *smtpNotifier) NotifyAppointment(ctx context.Context, detail *model.AppointmentDetail, event string) error {
	subject, ok := subjects[event]
	if !ok {
		subject = "Appointment update"
	}

	recipients, err := n.recipients(ctx, detail, event)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Appointment with Dr. %s on %s at %s is now %s.",
		detail.Doctor.Name,
		detail.Date.Format("2006-01-02"),
		detail.Time,
		detail.Status,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}

// recipients picks who hears about the event: the doctor for new requests,
// the patient for decisions, both for cancellations.
func (n *smtpNotifier) recipients(ctx context.Context, detail *model.AppointmentDetail, event string) ([]string, error) {
	var addrs []string

	if event != "appointment_requested" {
		patient, err := n.userRepo.GetUserByPatientProfile(ctx, detail.PatientID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve patient contact: %w", err)
		}
		addrs = append(addrs, patient.Email)
	}

	if event == "appointment_requested" || event == "appointment_cancelled" {
		doctor, err := n.userRepo.GetUserByDoctorProfile(ctx, detail.DoctorID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve doctor contact: %w", err)
		}
		addrs = append(addrs, doctor.Email)
	}

	return addrs, nil
}
