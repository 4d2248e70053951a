package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/booking-api/internal/model"
	"github.com/carebook/booking-api/internal/repository"
	"github.com/carebook/booking-api/pkg/apperror"
)

// fakeAppointmentRepo is an in-memory AppointmentRepository. beforeUpdate,
// when set, runs between the caller's read and the conditional write so
// tests can interleave a competing writer.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
	names        map[uuid.UUID]string
	beforeUpdate func()
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: make(map[uuid.UUID]*model.Appointment),
		names:        make(map[uuid.UUID]string),
	}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	apt.ID = uuid.New()
	apt.CreatedAt = now
	apt.UpdatedAt = now
	stored := *apt
	f.appointments[apt.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *apt
	return &copied, nil
}

func (f *fakeAppointmentRepo) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	apt, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.detail(apt), nil
}

func (f *fakeAppointmentRepo) detail(apt *model.Appointment) *model.AppointmentDetail {
	return &model.AppointmentDetail{
		Appointment: *apt,
		Doctor:      &model.AppointmentDoctor{ID: apt.DoctorID, Name: f.names[apt.DoctorID]},
		Patient:     &model.AppointmentPatient{ID: apt.PatientID, Name: f.names[apt.PatientID]},
	}
}

func (f *fakeAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.AppointmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.AppointmentDetail
	for _, apt := range f.appointments {
		if apt.PatientID == patientID {
			out = append(out, f.detail(apt))
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.AppointmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.AppointmentDetail
	for _, apt := range f.appointments {
		if apt.DoctorID == doctorID {
			out = append(out, f.detail(apt))
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListAll(_ context.Context) ([]*model.AppointmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.AppointmentDetail
	for _, apt := range f.appointments {
		out = append(out, f.detail(apt))
	}
	return out, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, expected []model.AppointmentStatus, to model.AppointmentStatus) (bool, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return false, nil
	}
	for _, s := range expected {
		if apt.Status == s {
			apt.Status = to
			apt.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

// fakeUserRepo implements the slice of UserRepository the appointment
// service touches.
type fakeUserRepo struct {
	doctorProfiles map[uuid.UUID]bool
}

func (f *fakeUserRepo) DoctorProfileExists(_ context.Context, id uuid.UUID) (bool, error) {
	return f.doctorProfiles[id], nil
}

func (f *fakeUserRepo) CreateWithProfile(context.Context, *model.User, *model.PatientProfile, *model.DoctorProfile) error {
	return nil
}
func (f *fakeUserRepo) Get(context.Context, uuid.UUID) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) List(context.Context) ([]*model.User, error) { return nil, nil }
func (f *fakeUserRepo) Delete(context.Context, uuid.UUID) error     { return nil }
func (f *fakeUserRepo) GetPatientProfile(context.Context, uuid.UUID) (*model.PatientProfile, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) GetDoctorProfile(context.Context, uuid.UUID) (*model.DoctorProfile, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) ListDoctors(context.Context) ([]*model.DoctorListing, error) {
	return nil, nil
}
func (f *fakeUserRepo) GetUserByPatientProfile(context.Context, uuid.UUID) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) GetUserByDoctorProfile(context.Context, uuid.UUID) (*model.User, error) {
	return nil, repository.ErrNotFound
}

type testEnv struct {
	svc      *Service
	repo     *fakeAppointmentRepo
	doctorID uuid.UUID
	patient  model.Actor
	doctor   model.Actor
	admin    model.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeAppointmentRepo()
	doctorID := uuid.New()
	patientID := uuid.New()
	userRepo := &fakeUserRepo{doctorProfiles: map[uuid.UUID]bool{doctorID: true}}

	return &testEnv{
		svc:      NewService(repo, userRepo, nil, zerolog.Nop()),
		repo:     repo,
		doctorID: doctorID,
		patient:  model.Actor{UserID: uuid.New(), Role: model.RolePatient, PatientID: &patientID},
		doctor:   model.Actor{UserID: uuid.New(), Role: model.RoleDoctor, DoctorID: &doctorID},
		admin:    model.Actor{UserID: uuid.New(), Role: model.RoleAdmin},
	}
}

func (e *testEnv) book(t *testing.T) *model.AppointmentDetail {
	t.Helper()
	created, err := e.svc.Create(context.Background(), e.patient, &model.CreateAppointmentRequest{
		DoctorID: e.doctorID,
		Date:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Time:     "10:00",
	})
	require.NoError(t, err)
	return created
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, kind), "expected %s, got %v", kind, err)
}

func TestCreateAppointment(t *testing.T) {
	env := newTestEnv(t)

	created := env.book(t)
	assert.Equal(t, model.AppointmentStatusPending, created.Status)
	assert.Equal(t, *env.patient.PatientID, created.PatientID)
	assert.Equal(t, env.doctorID, created.DoctorID)
	assert.Equal(t, 30, created.Duration)
	assert.NotNil(t, created.Doctor)
	assert.NotNil(t, created.Patient)
}

func TestCreateAppointmentHonorsRequestedDuration(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(context.Background(), env.patient, &model.CreateAppointmentRequest{
		DoctorID: env.doctorID,
		Date:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Time:     "09:30",
		Duration: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, 45, created.Duration)
}

func TestCreateAppointmentDeniedForNonPatients(t *testing.T) {
	env := newTestEnv(t)
	req := &model.CreateAppointmentRequest{
		DoctorID: env.doctorID,
		Date:     time.Now(),
		Time:     "10:00",
	}

	_, err := env.svc.Create(context.Background(), env.doctor, req)
	assertKind(t, err, apperror.KindForbidden)

	_, err = env.svc.Create(context.Background(), env.admin, req)
	assertKind(t, err, apperror.KindForbidden)
}

func TestCreateAppointmentRequiresPatientProfile(t *testing.T) {
	env := newTestEnv(t)
	noProfile := model.Actor{UserID: uuid.New(), Role: model.RolePatient}

	_, err := env.svc.Create(context.Background(), noProfile, &model.CreateAppointmentRequest{
		DoctorID: env.doctorID,
		Date:     time.Now(),
		Time:     "10:00",
	})
	assertKind(t, err, apperror.KindValidation)
}

func TestCreateAppointmentUnknownDoctor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), env.patient, &model.CreateAppointmentRequest{
		DoctorID: uuid.New(),
		Date:     time.Now(),
		Time:     "10:00",
	})
	assertKind(t, err, apperror.KindConstraint)
}

func TestListScopedByRole(t *testing.T) {
	env := newTestEnv(t)
	mine := env.book(t)

	// A second patient with a different doctor
	otherPatientID := uuid.New()
	otherDoctorID := uuid.New()
	other := &model.Appointment{
		PatientID: otherPatientID,
		DoctorID:  otherDoctorID,
		Date:      time.Now(),
		Time:      "11:00",
		Duration:  30,
		Status:    model.AppointmentStatusPending,
	}
	require.NoError(t, env.repo.Create(context.Background(), other))

	patientView, err := env.svc.List(context.Background(), env.patient)
	require.NoError(t, err)
	require.Len(t, patientView, 1)
	assert.Equal(t, mine.ID, patientView[0].ID)
	for _, apt := range patientView {
		assert.Equal(t, *env.patient.PatientID, apt.PatientID)
	}

	doctorView, err := env.svc.List(context.Background(), env.doctor)
	require.NoError(t, err)
	require.Len(t, doctorView, 1)
	for _, apt := range doctorView {
		assert.Equal(t, *env.doctor.DoctorID, apt.DoctorID)
	}
}

func TestListDeniedForAdmin(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.List(context.Background(), env.admin)
	assertKind(t, err, apperror.KindForbidden)
}

func TestListAllAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.book(t)
	env.book(t)

	all, err := env.svc.ListAll(context.Background(), env.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.svc.ListAll(context.Background(), env.patient)
	assertKind(t, err, apperror.KindForbidden)

	_, err = env.svc.ListAll(context.Background(), env.doctor)
	assertKind(t, err, apperror.KindForbidden)
}

func TestApproveAppointment(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	updated, err := env.svc.Transition(context.Background(), env.doctor, created.ID.String(), model.TransitionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusApproved, updated.Status)
	assert.NotNil(t, updated.Patient)
}

func TestRejectAppointment(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	updated, err := env.svc.Transition(context.Background(), env.doctor, created.ID.String(), model.TransitionReject)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusRejected, updated.Status)
}

func TestTransitionDeniedForOtherDoctor(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	otherID := uuid.New()
	other := model.Actor{UserID: uuid.New(), Role: model.RoleDoctor, DoctorID: &otherID}

	_, err := env.svc.Transition(context.Background(), other, created.ID.String(), model.TransitionApprove)
	assertKind(t, err, apperror.KindForbidden)
}

func TestTransitionNotFoundBeforeForbidden(t *testing.T) {
	env := newTestEnv(t)

	otherID := uuid.New()
	other := model.Actor{UserID: uuid.New(), Role: model.RoleDoctor, DoctorID: &otherID}

	// A missing appointment reads NOT_FOUND even for a doctor who would
	// also have been forbidden.
	_, err := env.svc.Transition(context.Background(), other, uuid.New().String(), model.TransitionApprove)
	assertKind(t, err, apperror.KindNotFound)
}

func TestTransitionInvalidAction(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	_, err := env.svc.Transition(context.Background(), env.doctor, created.ID.String(), "postpone")
	assertKind(t, err, apperror.KindValidation)
}

func TestTransitionNonPending(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	_, err := env.svc.Transition(context.Background(), env.doctor, created.ID.String(), model.TransitionApprove)
	require.NoError(t, err)

	_, err = env.svc.Transition(context.Background(), env.doctor, created.ID.String(), model.TransitionApprove)
	assertKind(t, err, apperror.KindValidation)

	_, err = env.svc.Transition(context.Background(), env.doctor, created.ID.String(), model.TransitionReject)
	assertKind(t, err, apperror.KindValidation)
}

func TestTransitionLosesRace(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	// A competing writer cancels between the read and the conditional
	// update; the transition must fail rather than overwrite.
	env.repo.beforeUpdate = func() {
		env.repo.mu.Lock()
		env.repo.appointments[created.ID].Status = model.AppointmentStatusCancelled
		env.repo.mu.Unlock()
		env.repo.beforeUpdate = nil
	}

	_, err := env.svc.Transition(context.Background(), env.doctor, created.ID.String(), model.TransitionApprove)
	assertKind(t, err, apperror.KindValidation)

	apt, err := env.repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, apt.Status)
}

func TestCancelApprovedAppointment(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	_, err := env.svc.Transition(context.Background(), env.doctor, created.ID.String(), model.TransitionApprove)
	require.NoError(t, err)

	updated, err := env.svc.Cancel(context.Background(), env.patient, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, updated.Status)
}

func TestCancelPendingAppointment(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	updated, err := env.svc.Cancel(context.Background(), env.patient, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, updated.Status)
}

func TestCancelScheduledLegacyStatus(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	env.repo.mu.Lock()
	env.repo.appointments[created.ID].Status = model.AppointmentStatusScheduled
	env.repo.mu.Unlock()

	updated, err := env.svc.Cancel(context.Background(), env.patient, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, updated.Status)
}

func TestCancelAlreadyCancelled(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	_, err := env.svc.Cancel(context.Background(), env.patient, created.ID.String())
	require.NoError(t, err)

	_, err = env.svc.Cancel(context.Background(), env.patient, created.ID.String())
	assertKind(t, err, apperror.KindValidation)
	assert.Contains(t, err.Error(), "already cancelled")
}

func TestCancelTerminalStates(t *testing.T) {
	env := newTestEnv(t)

	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusCompleted,
		model.AppointmentStatusRejected,
	} {
		created := env.book(t)
		env.repo.mu.Lock()
		env.repo.appointments[created.ID].Status = status
		env.repo.mu.Unlock()

		_, err := env.svc.Cancel(context.Background(), env.patient, created.ID.String())
		assertKind(t, err, apperror.KindValidation)
	}
}

func TestCancelDeniedForOtherPatient(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	otherID := uuid.New()
	other := model.Actor{UserID: uuid.New(), Role: model.RolePatient, PatientID: &otherID}

	_, err := env.svc.Cancel(context.Background(), other, created.ID.String())
	assertKind(t, err, apperror.KindForbidden)
}

func TestCancelDeniedForDoctor(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	_, err := env.svc.Cancel(context.Background(), env.doctor, created.ID.String())
	assertKind(t, err, apperror.KindForbidden)
}

func TestCancelAdminOverride(t *testing.T) {
	env := newTestEnv(t)
	created := env.book(t)

	updated, err := env.svc.Cancel(context.Background(), env.admin, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, updated.Status)
}

func TestCancelNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Cancel(context.Background(), env.patient, uuid.New().String())
	assertKind(t, err, apperror.KindNotFound)
}

func TestCancelInvalidID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Cancel(context.Background(), env.patient, "not-a-uuid")
	assertKind(t, err, apperror.KindValidation)
}

func TestFullLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// Book, approve, attempt a foreign approve, cancel, cancel again.
	created := env.book(t)
	assert.Equal(t, model.AppointmentStatusPending, created.Status)

	approved, err := env.svc.Transition(context.Background(), env.doctor, created.ID.String(), model.TransitionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusApproved, approved.Status)

	otherID := uuid.New()
	other := model.Actor{UserID: uuid.New(), Role: model.RoleDoctor, DoctorID: &otherID}
	_, err = env.svc.Transition(context.Background(), other, created.ID.String(), model.TransitionApprove)
	assertKind(t, err, apperror.KindForbidden)

	cancelled, err := env.svc.Cancel(context.Background(), env.patient, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	_, err = env.svc.Cancel(context.Background(), env.patient, created.ID.String())
	assertKind(t, err, apperror.KindValidation)
}
