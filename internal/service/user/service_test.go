package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/booking-api/internal/model"
	"github.com/carebook/booking-api/internal/repository"
	"github.com/carebook/booking-api/pkg/apperror"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) add(role model.Role) *model.User {
	u := &model.User{Base: model.Base{ID: uuid.New()}, Role: role}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) List(context.Context) ([]*model.User, error) {
	out := make([]*model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
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
func (f *fakeUserRepo) GetPatientProfile(context.Context, uuid.UUID) (*model.PatientProfile, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) GetDoctorProfile(context.Context, uuid.UUID) (*model.DoctorProfile, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) ListDoctors(context.Context) ([]*model.DoctorListing, error) {
	return nil, nil
}
func (f *fakeUserRepo) DoctorProfileExists(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}
func (f *fakeUserRepo) GetUserByPatientProfile(context.Context, uuid.UUID) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) GetUserByDoctorProfile(context.Context, uuid.UUID) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func TestListRequiresAdmin(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(model.RolePatient)
	svc := NewService(repo, zerolog.Nop())

	admin := model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	users, err := svc.List(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	patient := model.Actor{UserID: uuid.New(), Role: model.RolePatient}
	_, err = svc.List(context.Background(), patient)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestDeleteUser(t *testing.T) {
	repo := newFakeUserRepo()
	target := repo.add(model.RolePatient)
	svc := NewService(repo, zerolog.Nop())

	admin := model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	require.NoError(t, svc.Delete(context.Background(), admin, target.ID))
	assert.Empty(t, repo.users)
}

func TestDeleteUnknownUser(t *testing.T) {
	svc := NewService(newFakeUserRepo(), zerolog.Nop())

	admin := model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	err := svc.Delete(context.Background(), admin, uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestDeleteRequiresAdmin(t *testing.T) {
	repo := newFakeUserRepo()
	target := repo.add(model.RolePatient)
	svc := NewService(repo, zerolog.Nop())

	doctor := model.Actor{UserID: uuid.New(), Role: model.RoleDoctor}
	err := svc.Delete(context.Background(), doctor, target.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
	assert.Len(t, repo.users, 1)
}
