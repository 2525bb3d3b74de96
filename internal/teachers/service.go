package teachers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cardattend/internal/store"
	"cardattend/internal/validate"
)

// Store is what the service needs from persistence.
type Store interface {
	ByUserID(ctx context.Context, userID string) (Teacher, error)
	UpdateSettings(ctx context.Context, teacherID string, schoolID, scheduleURL *string) error
	ListSchools(ctx context.Context) ([]School, error)
	GetSchool(ctx context.Context, id string) (School, error)
	CreateSchool(ctx context.Context, name string) (School, error)
}

// SettingsInput is the settings form. Empty strings clear the value.
type SettingsInput struct {
	SchoolID    string `json:"school_id" validate:"omitempty,uuid"`
	ScheduleURL string `json:"schedule_url" validate:"max=2048"`
}

// SchoolInput creates a school.
type SchoolInput struct {
	Name string `json:"name" validate:"required,notblank,max=200"`
}

// Service manages teacher settings and the school list.
type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// ByUserID resolves the teacher behind an authenticated user.
func (s *Service) ByUserID(ctx context.Context, userID string) (Teacher, error) {
	return s.store.ByUserID(ctx, userID)
}

func (s *Service) Schools(ctx context.Context) ([]School, error) {
	return s.store.ListSchools(ctx)
}

func (s *Service) CreateSchool(ctx context.Context, in SchoolInput) (School, error) {
	if err := validate.Struct(in); err != nil {
		return School{}, err
	}
	school, err := s.store.CreateSchool(ctx, strings.TrimSpace(in.Name))
	if err != nil {
		if _, ok := store.UniqueViolation(err); ok {
			return School{}, validate.Field("name", "a school with this name already exists")
		}
		return School{}, fmt.Errorf("create school: %w", err)
	}
	return school, nil
}

// UpdateSettings stores the teacher's school and schedule-import URL. The URL
// is passed through untouched.
func (s *Service) UpdateSettings(ctx context.Context, t Teacher, in SettingsInput) (Teacher, error) {
	if err := validate.Struct(in); err != nil {
		return Teacher{}, err
	}
	schoolID := optional(in.SchoolID)
	if schoolID != nil {
		if _, err := s.store.GetSchool(ctx, *schoolID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Teacher{}, validate.Field("school_id", "unknown school")
			}
			return Teacher{}, fmt.Errorf("load school: %w", err)
		}
	}
	scheduleURL := optional(in.ScheduleURL)
	if err := s.store.UpdateSettings(ctx, t.ID, schoolID, scheduleURL); err != nil {
		return Teacher{}, fmt.Errorf("update settings: %w", err)
	}
	t.SchoolID = schoolID
	t.ScheduleURL = scheduleURL
	return t, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
