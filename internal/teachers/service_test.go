package teachers

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardattend/internal/store"
	"cardattend/internal/validate"
)

type fakeStore struct {
	schools   map[string]School
	updated   []*string
	updateErr error
	createErr error
}

func (f *fakeStore) ByUserID(_ context.Context, userID string) (Teacher, error) {
	if userID == "u1" {
		return Teacher{ID: "t1", UserID: "u1"}, nil
	}
	return Teacher{}, store.ErrNotFound
}

func (f *fakeStore) UpdateSettings(_ context.Context, _ string, schoolID, scheduleURL *string) error {
	f.updated = []*string{schoolID, scheduleURL}
	return f.updateErr
}

func (f *fakeStore) ListSchools(context.Context) ([]School, error) {
	var out []School
	for _, s := range f.schools {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) GetSchool(_ context.Context, id string) (School, error) {
	if s, ok := f.schools[id]; ok {
		return s, nil
	}
	return School{}, store.ErrNotFound
}

func (f *fakeStore) CreateSchool(_ context.Context, name string) (School, error) {
	if f.createErr != nil {
		return School{}, f.createErr
	}
	return School{ID: "s-new", Name: name}, nil
}

const schoolID = "6f1c1c7e-2b7a-4d8e-9a53-0c9f3b1f2a10"

func TestUpdateSettings_SetsSchoolAndURL(t *testing.T) {
	fs := &fakeStore{schools: map[string]School{schoolID: {ID: schoolID, Name: "Norra"}}}
	svc := NewService(fs)

	got, err := svc.UpdateSettings(context.Background(), Teacher{ID: "t1"}, SettingsInput{
		SchoolID:    schoolID,
		ScheduleURL: " https://schedule.example/teacher/42 ",
	})
	require.NoError(t, err)
	require.NotNil(t, got.SchoolID)
	assert.Equal(t, schoolID, *got.SchoolID)
	require.NotNil(t, got.ScheduleURL)
	assert.Equal(t, "https://schedule.example/teacher/42", *got.ScheduleURL)
}

func TestUpdateSettings_EmptyClears(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs)

	got, err := svc.UpdateSettings(context.Background(), Teacher{ID: "t1"}, SettingsInput{})
	require.NoError(t, err)
	assert.Nil(t, got.SchoolID)
	assert.Nil(t, got.ScheduleURL)
	assert.Equal(t, []*string{nil, nil}, fs.updated)
}

func TestUpdateSettings_UnknownSchool(t *testing.T) {
	svc := NewService(&fakeStore{})
	_, err := svc.UpdateSettings(context.Background(), Teacher{ID: "t1"}, SettingsInput{SchoolID: schoolID})
	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "school_id", verr.Fields[0].Field)
}

func TestUpdateSettings_InvalidSchoolID(t *testing.T) {
	svc := NewService(&fakeStore{})
	_, err := svc.UpdateSettings(context.Background(), Teacher{ID: "t1"}, SettingsInput{SchoolID: "north"})
	assert.ErrorIs(t, err, validate.ErrValidation)
}

func TestCreateSchool_Duplicate(t *testing.T) {
	svc := NewService(&fakeStore{createErr: &pgconn.PgError{Code: "23505"}})
	_, err := svc.CreateSchool(context.Background(), SchoolInput{Name: "Norra"})
	assert.ErrorIs(t, err, validate.ErrValidation)
}

func TestCreateSchool_Blank(t *testing.T) {
	svc := NewService(&fakeStore{})
	_, err := svc.CreateSchool(context.Background(), SchoolInput{Name: "   "})
	assert.ErrorIs(t, err, validate.ErrValidation)
}

func TestByUserID(t *testing.T) {
	svc := NewService(&fakeStore{})
	got, err := svc.ByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	_, err = svc.ByUserID(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
