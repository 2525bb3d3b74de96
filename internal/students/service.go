package students

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
	Create(ctx context.Context, s Student) (Student, error)
	List(ctx context.Context, schoolID string) ([]Student, error)
	Get(ctx context.Context, schoolID, id string) (Student, error)
	ByCardReaderID(ctx context.Context, card string) (Student, error)
	Update(ctx context.Context, s Student) error
	Delete(ctx context.Context, schoolID, id string) error
	Count(ctx context.Context, schoolID string) (int, error)
}

// Input is the add/edit student form.
type Input struct {
	FirstName     string `json:"first_name" validate:"required,notblank,max=100"`
	LastName      string `json:"last_name" validate:"required,notblank,max=100"`
	StudentNumber string `json:"student_number" validate:"required,notblank,max=50"`
	CardReaderID  string `json:"card_reader_id" validate:"max=128"`
}

func (in Input) student() Student {
	s := Student{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		StudentNumber: strings.TrimSpace(in.StudentNumber),
	}
	if card := strings.TrimSpace(in.CardReaderID); card != "" {
		s.CardReaderID = &card
	}
	return s
}

var errNoSchool = validate.Field("school_id", "you must be linked to a school first")

// Service manages a school's roster.
type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// Create adds a student to the teacher's school.
func (s *Service) Create(ctx context.Context, schoolID *string, in Input) (Student, error) {
	if schoolID == nil {
		return Student{}, errNoSchool
	}
	if err := validate.Struct(in); err != nil {
		return Student{}, err
	}
	st := in.student()
	st.SchoolID = *schoolID
	created, err := s.store.Create(ctx, st)
	if err != nil {
		return Student{}, mapWriteErr("create student", err)
	}
	return created, nil
}

// List returns the school's students; no school means no students.
func (s *Service) List(ctx context.Context, schoolID *string) ([]Student, error) {
	if schoolID == nil {
		return []Student{}, nil
	}
	list, err := s.store.List(ctx, *schoolID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	if list == nil {
		list = []Student{}
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, schoolID *string, id string) (Student, error) {
	if schoolID == nil {
		return Student{}, store.ErrNotFound
	}
	return s.store.Get(ctx, *schoolID, id)
}

// ByCardReaderID resolves a card token by exact match.
func (s *Service) ByCardReaderID(ctx context.Context, card string) (Student, error) {
	return s.store.ByCardReaderID(ctx, card)
}

func (s *Service) Update(ctx context.Context, schoolID *string, id string, in Input) (Student, error) {
	if schoolID == nil {
		return Student{}, store.ErrNotFound
	}
	if err := validate.Struct(in); err != nil {
		return Student{}, err
	}
	current, err := s.store.Get(ctx, *schoolID, id)
	if err != nil {
		return Student{}, err
	}
	next := in.student()
	next.ID = current.ID
	next.SchoolID = current.SchoolID
	next.CreatedAt = current.CreatedAt
	if err := s.store.Update(ctx, next); err != nil {
		return Student{}, mapWriteErr("update student", err)
	}
	return next, nil
}

func (s *Service) Delete(ctx context.Context, schoolID *string, id string) error {
	if schoolID == nil {
		return store.ErrNotFound
	}
	return s.store.Delete(ctx, *schoolID, id)
}

func (s *Service) Count(ctx context.Context, schoolID *string) (int, error) {
	if schoolID == nil {
		return 0, nil
	}
	return s.store.Count(ctx, *schoolID)
}

func mapWriteErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	if _, ok := store.UniqueViolation(err); ok {
		return validate.Field("card_reader_id", "this card is already assigned to another student")
	}
	return fmt.Errorf("%s: %w", op, err)
}
