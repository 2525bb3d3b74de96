package students

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"cardattend/internal/store"
)

type memStore struct {
	byID map[string]Student
	seq  int
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]Student{}}
}

func (m *memStore) cardTaken(card *string, except string) bool {
	if card == nil {
		return false
	}
	for id, s := range m.byID {
		if id != except && s.CardReaderID != nil && *s.CardReaderID == *card {
			return true
		}
	}
	return false
}

func (m *memStore) Create(_ context.Context, s Student) (Student, error) {
	if m.cardTaken(s.CardReaderID, "") {
		return Student{}, &pgconn.PgError{Code: "23505", ConstraintName: "students_card_reader_id_key"}
	}
	m.seq++
	s.ID = fmt.Sprintf("st-%d", m.seq)
	s.CreatedAt = time.Now()
	m.byID[s.ID] = s
	return s, nil
}

func (m *memStore) List(_ context.Context, schoolID string) ([]Student, error) {
	var out []Student
	for _, s := range m.byID {
		if s.SchoolID == schoolID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (m *memStore) Get(_ context.Context, schoolID, id string) (Student, error) {
	s, ok := m.byID[id]
	if !ok || s.SchoolID != schoolID {
		return Student{}, store.ErrNotFound
	}
	return s, nil
}

func (m *memStore) ByCardReaderID(_ context.Context, card string) (Student, error) {
	for _, s := range m.byID {
		if s.CardReaderID != nil && *s.CardReaderID == card {
			return s, nil
		}
	}
	return Student{}, store.ErrNotFound
}

func (m *memStore) Update(_ context.Context, s Student) error {
	if _, ok := m.byID[s.ID]; !ok {
		return store.ErrNotFound
	}
	if m.cardTaken(s.CardReaderID, s.ID) {
		return &pgconn.PgError{Code: "23505"}
	}
	m.byID[s.ID] = s
	return nil
}

func (m *memStore) Delete(_ context.Context, schoolID, id string) error {
	if _, err := m.Get(context.Background(), schoolID, id); err != nil {
		return err
	}
	delete(m.byID, id)
	return nil
}

func (m *memStore) Count(_ context.Context, schoolID string) (int, error) {
	list, _ := m.List(context.Background(), schoolID)
	return len(list), nil
}
