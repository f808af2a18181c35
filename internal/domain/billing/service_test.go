package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chirohq/chiro/pkg/clock"
)

type mockClaimRepo struct {
	claims map[uuid.UUID]*Claim
}

func newMockClaimRepo() *mockClaimRepo {
	return &mockClaimRepo{claims: make(map[uuid.UUID]*Claim)}
}

func (m *mockClaimRepo) Create(_ context.Context, c *Claim) error {
	c.ID = uuid.New()
	c.Status = ClaimDraft
	cp := *c
	cp.Lines = append([]ClaimLine(nil), c.Lines...)
	m.claims[c.ID] = &cp
	return nil
}

func (m *mockClaimRepo) GetByID(_ context.Context, id uuid.UUID) (*Claim, error) {
	c, ok := m.claims[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	cp.Lines = append([]ClaimLine(nil), c.Lines...)
	return &cp, nil
}

func (m *mockClaimRepo) AddLine(_ context.Context, line *ClaimLine) error {
	c, ok := m.claims[line.ClaimID]
	if !ok {
		return pgx.ErrNoRows
	}
	line.ID = uuid.New()
	c.Lines = append(c.Lines, *line)
	return nil
}

func (m *mockClaimRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to string, at time.Time, denialCode *string) error {
	c, ok := m.claims[id]
	if !ok || c.Status != from {
		return pgx.ErrNoRows
	}
	c.Status = to
	switch to {
	case ClaimSubmitted:
		c.SubmittedAt = &at
		c.DenialCode = nil
	default:
		c.ResolvedAt = &at
		c.DenialCode = denialCode
	}
	return nil
}

func (m *mockClaimRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	var out []*Claim
	for _, c := range m.claims {
		if c.PatientID == patientID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *mockClaimRepo) ListByStatus(_ context.Context, status string, limit, offset int) ([]*Claim, int, error) {
	var out []*Claim
	for _, c := range m.claims {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

type mockInvoiceRepo struct {
	invoices map[uuid.UUID]*Invoice
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: make(map[uuid.UUID]*Invoice)}
}

func (m *mockInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	inv.Status = InvoiceOpen
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *mockInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *inv
	return &cp, nil
}

func (m *mockInvoiceRepo) MarkPaid(_ context.Context, id uuid.UUID, at time.Time) error {
	inv, ok := m.invoices[id]
	if !ok || inv.Status != InvoiceOpen {
		return pgx.ErrNoRows
	}
	inv.Status = InvoicePaid
	inv.PaidAt = &at
	return nil
}

func (m *mockInvoiceRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var out []*Invoice
	for _, inv := range m.invoices {
		if inv.PatientID == patientID {
			out = append(out, inv)
		}
	}
	return out, len(out), nil
}

var testNow = time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockClaimRepo, *mockInvoiceRepo) {
	claims := newMockClaimRepo()
	invoices := newMockInvoiceRepo()
	return NewService(claims, invoices, clock.Fixed(testNow)), claims, invoices
}

func newDraftClaim(t *testing.T, svc *Service) *Claim {
	t.Helper()
	c := &Claim{
		PatientID:   uuid.New(),
		EncounterID: uuid.New(),
		PayerName:   "Acme Health",
		Lines: []ClaimLine{
			{CPTCode: "98940", Description: "Spinal adjustment, 1-2 regions", Units: 1, UnitPriceCents: 6500},
			{CPTCode: "97110", Description: "Therapeutic exercise", Units: 2, UnitPriceCents: 4000},
		},
	}
	if err := svc.CreateClaim(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCreateClaim_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		claim Claim
	}{
		{"missing patient", Claim{EncounterID: uuid.New(), Lines: []ClaimLine{{CPTCode: "98940", Units: 1}}}},
		{"missing encounter", Claim{PatientID: uuid.New(), Lines: []ClaimLine{{CPTCode: "98940", Units: 1}}}},
		{"no lines", Claim{PatientID: uuid.New(), EncounterID: uuid.New()}},
		{"line without code", Claim{PatientID: uuid.New(), EncounterID: uuid.New(), Lines: []ClaimLine{{Units: 1}}}},
		{"zero units", Claim{PatientID: uuid.New(), EncounterID: uuid.New(), Lines: []ClaimLine{{CPTCode: "98940"}}}},
		{"negative price", Claim{PatientID: uuid.New(), EncounterID: uuid.New(), Lines: []ClaimLine{{CPTCode: "98940", Units: 1, UnitPriceCents: -1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.CreateClaim(ctx, &tc.claim); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestClaim_TotalCents(t *testing.T) {
	svc, _, _ := newTestService()
	c := newDraftClaim(t, svc)

	if got := c.TotalCents(); got != 6500+2*4000 {
		t.Errorf("expected total 14500, got %d", got)
	}
}

func TestLifecycle_HappyPath(t *testing.T) {
	svc, claims, invoices := newTestService()
	ctx := context.Background()
	c := newDraftClaim(t, svc)

	if err := svc.Submit(ctx, c.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	stored := claims.claims[c.ID]
	if stored.Status != ClaimSubmitted || stored.SubmittedAt == nil {
		t.Fatalf("expected submitted with timestamp, got %+v", stored)
	}

	if err := svc.MarkPaid(ctx, c.ID, 2500); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if claims.claims[c.ID].Status != ClaimPaid {
		t.Error("claim should be paid")
	}

	// Patient responsibility opens an invoice.
	if len(invoices.invoices) != 1 {
		t.Fatalf("expected one invoice, got %d", len(invoices.invoices))
	}
	for _, inv := range invoices.invoices {
		if inv.AmountCents != 2500 || inv.ClaimID != c.ID || inv.Status != InvoiceOpen {
			t.Errorf("unexpected invoice: %+v", inv)
		}
	}
}

func TestLifecycle_NoInvoiceWhenFullyCovered(t *testing.T) {
	svc, _, invoices := newTestService()
	ctx := context.Background()
	c := newDraftClaim(t, svc)

	if err := svc.Submit(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkPaid(ctx, c.ID, 0); err != nil {
		t.Fatal(err)
	}
	if len(invoices.invoices) != 0 {
		t.Error("no invoice expected when payer covers the full amount")
	}
}

func TestLifecycle_IllegalTransitions(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	c := newDraftClaim(t, svc)

	// Draft cannot be paid or denied before submission.
	if err := svc.MarkPaid(ctx, c.ID, 0); !errors.Is(err, ErrBadTransition) {
		t.Errorf("expected ErrBadTransition paying a draft, got %v", err)
	}
	if err := svc.Deny(ctx, c.ID, "CO-16"); !errors.Is(err, ErrBadTransition) {
		t.Errorf("expected ErrBadTransition denying a draft, got %v", err)
	}

	if err := svc.Submit(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	// Submitted cannot be submitted again.
	if err := svc.Submit(ctx, c.ID); !errors.Is(err, ErrBadTransition) {
		t.Errorf("expected ErrBadTransition on double submit, got %v", err)
	}

	if err := svc.MarkPaid(ctx, c.ID, 0); err != nil {
		t.Fatal(err)
	}
	// Paid is terminal.
	if err := svc.Resubmit(ctx, c.ID); !errors.Is(err, ErrBadTransition) {
		t.Errorf("expected ErrBadTransition resubmitting a paid claim, got %v", err)
	}
}

func TestDeny_ThenResubmit(t *testing.T) {
	svc, claims, _ := newTestService()
	ctx := context.Background()
	c := newDraftClaim(t, svc)

	if err := svc.Submit(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Deny(ctx, c.ID, "CO-16"); err != nil {
		t.Fatal(err)
	}
	stored := claims.claims[c.ID]
	if stored.Status != ClaimDenied || stored.DenialCode == nil || *stored.DenialCode != "CO-16" {
		t.Fatalf("denial not recorded: %+v", stored)
	}

	if err := svc.Resubmit(ctx, c.ID); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	stored = claims.claims[c.ID]
	if stored.Status != ClaimSubmitted || stored.DenialCode != nil {
		t.Errorf("resubmit should clear the denial code: %+v", stored)
	}
}

func TestDeny_RequiresCode(t *testing.T) {
	svc, _, _ := newTestService()
	c := newDraftClaim(t, svc)
	if err := svc.Submit(context.Background(), c.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Deny(context.Background(), c.ID, ""); err == nil {
		t.Error("expected error for empty denial code")
	}
}

func TestAddLine_DraftOnly(t *testing.T) {
	svc, claims, _ := newTestService()
	ctx := context.Background()
	c := newDraftClaim(t, svc)

	line := &ClaimLine{CPTCode: "97140", Description: "Manual therapy", Units: 1, UnitPriceCents: 5000}
	if err := svc.AddLine(ctx, c.ID, line); err != nil {
		t.Fatalf("add line: %v", err)
	}
	if got := len(claims.claims[c.ID].Lines); got != 3 {
		t.Errorf("expected 3 lines, got %d", got)
	}

	if err := svc.Submit(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	err := svc.AddLine(ctx, c.ID, &ClaimLine{CPTCode: "97012", Units: 1})
	if !errors.Is(err, ErrBadTransition) {
		t.Errorf("expected ErrBadTransition adding a line post-submit, got %v", err)
	}
}

func TestPayInvoice(t *testing.T) {
	svc, _, invoices := newTestService()
	ctx := context.Background()
	c := newDraftClaim(t, svc)

	if err := svc.Submit(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkPaid(ctx, c.ID, 1500); err != nil {
		t.Fatal(err)
	}

	var invID uuid.UUID
	for id := range invoices.invoices {
		invID = id
	}
	if err := svc.PayInvoice(ctx, invID); err != nil {
		t.Fatalf("pay invoice: %v", err)
	}
	inv := invoices.invoices[invID]
	if inv.Status != InvoicePaid || inv.PaidAt == nil || !inv.PaidAt.Equal(testNow) {
		t.Errorf("invoice payment not recorded: %+v", inv)
	}

	// Second payment attempt is rejected.
	if err := svc.PayInvoice(ctx, invID); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("expected pgx.ErrNoRows paying a closed invoice, got %v", err)
	}
}
