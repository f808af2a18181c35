package encounters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chirohq/chiro/pkg/clock"
)

type mockRepo struct {
	encounters map[uuid.UUID]*Encounter
}

func newMockRepo() *mockRepo {
	return &mockRepo{encounters: make(map[uuid.UUID]*Encounter)}
}

func (m *mockRepo) Create(_ context.Context, e *Encounter) error {
	e.ID = uuid.New()
	cp := *e
	m.encounters[e.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Encounter, error) {
	e, ok := m.encounters[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, e *Encounter) error {
	cur, ok := m.encounters[e.ID]
	if !ok || cur.Signed {
		return pgx.ErrNoRows
	}
	cur.Subjective, cur.Objective, cur.Assessment, cur.Plan = e.Subjective, e.Objective, e.Assessment, e.Plan
	return nil
}

func (m *mockRepo) Sign(_ context.Context, id uuid.UUID, signedBy string, signedAt time.Time) error {
	cur, ok := m.encounters[id]
	if !ok || cur.Signed {
		return pgx.ErrNoRows
	}
	cur.Signed = true
	cur.SignedBy = &signedBy
	cur.SignedAt = &signedAt
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	var out []*Encounter
	for _, e := range m.encounters {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByProvider(_ context.Context, providerID uuid.UUID, from, to time.Time) ([]*Encounter, error) {
	var out []*Encounter
	for _, e := range m.encounters {
		if e.ProviderID == providerID {
			out = append(out, e)
		}
	}
	return out, nil
}

var testNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, clock.Fixed(testNow)), repo
}

func createTestEncounter(t *testing.T, svc *Service) *Encounter {
	t.Helper()
	e := &Encounter{
		PatientID:  uuid.New(),
		ProviderID: uuid.New(),
		Subjective: "Lower back pain, 3 weeks",
		Objective:  "Restricted lumbar ROM",
		Assessment: "Lumbar segmental dysfunction",
		Plan:       "Adjustment 2x/week for 4 weeks",
	}
	if err := svc.Create(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.Create(context.Background(), &Encounter{ProviderID: uuid.New()}); err == nil {
		t.Error("expected error for missing patient_id")
	}
	if err := svc.Create(context.Background(), &Encounter{PatientID: uuid.New()}); err == nil {
		t.Error("expected error for missing provider_id")
	}
}

func TestCreate_DefaultsDateFromClock(t *testing.T) {
	svc, repo := newTestService()
	e := createTestEncounter(t, svc)

	stored := repo.encounters[e.ID]
	if !stored.EncounterDate.Equal(testNow) {
		t.Errorf("expected encounter date from clock, got %v", stored.EncounterDate)
	}
}

func TestUpdate_UnsignedAllowed(t *testing.T) {
	svc, repo := newTestService()
	e := createTestEncounter(t, svc)

	e.Plan = "Adjustment 1x/week, re-evaluate"
	if err := svc.Update(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.encounters[e.ID].Plan != "Adjustment 1x/week, re-evaluate" {
		t.Error("update did not persist")
	}
}

func TestSign_FreezesEncounter(t *testing.T) {
	svc, repo := newTestService()
	e := createTestEncounter(t, svc)

	if err := svc.Sign(context.Background(), e.ID, "provider-1"); err != nil {
		t.Fatalf("sign: %v", err)
	}

	stored := repo.encounters[e.ID]
	if !stored.Signed || stored.SignedBy == nil || *stored.SignedBy != "provider-1" {
		t.Errorf("signature not recorded: %+v", stored)
	}
	if stored.SignedAt == nil || !stored.SignedAt.Equal(testNow) {
		t.Error("signature timestamp should come from the injected clock")
	}

	// Edits after signing are rejected.
	e.Plan = "changed"
	if err := svc.Update(context.Background(), e); !errors.Is(err, ErrSigned) {
		t.Errorf("expected ErrSigned, got %v", err)
	}

	// Double-signing is rejected.
	if err := svc.Sign(context.Background(), e.ID, "provider-2"); !errors.Is(err, ErrSigned) {
		t.Errorf("expected ErrSigned on re-sign, got %v", err)
	}
}

func TestSign_RequiresSigner(t *testing.T) {
	svc, _ := newTestService()
	e := createTestEncounter(t, svc)

	if err := svc.Sign(context.Background(), e.ID, ""); err == nil {
		t.Error("expected error for empty signer")
	}
}
