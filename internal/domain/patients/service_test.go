package patients

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) Search(_ context.Context, params SearchParams, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, len(out), nil
}

func TestCreate_RequiresName(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.Create(context.Background(), &Patient{LastName: "Santos"}); err == nil {
		t.Error("expected error for missing first name")
	}
	if err := svc.Create(context.Background(), &Patient{FirstName: "Maria"}); err == nil {
		t.Error("expected error for missing last name")
	}
	if err := svc.Create(context.Background(), &Patient{FirstName: "Maria", LastName: "Santos"}); err != nil {
		t.Errorf("valid patient rejected: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Get(context.Background(), uuid.New()); err == nil {
		t.Error("expected not-found error")
	}
}
