package customer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinora/clinora/internal/platform/apperr"
	"github.com/clinora/clinora/internal/platform/tenant"
)

type mockRepo struct {
	customers map[uuid.UUID]*Customer
}

func newMockRepo() *mockRepo {
	return &mockRepo{customers: make(map[uuid.UUID]*Customer)}
}

func (m *mockRepo) Create(_ context.Context, c *Customer) error {
	c.ID = uuid.New()
	c.IsActive = true
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, companyID, id uuid.UUID) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok || c.CompanyID != companyID {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) GetByNationalID(_ context.Context, companyID uuid.UUID, nationalID string) (*Customer, error) {
	for _, c := range m.customers {
		if c.CompanyID == companyID && c.NationalID != nil && *c.NationalID == nationalID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) List(_ context.Context, companyID uuid.UUID, f ListFilter) ([]*Customer, int, error) {
	var items []*Customer
	for _, c := range m.customers {
		if c.CompanyID == companyID && c.IsActive == f.IsActive {
			cp := *c
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) Update(_ context.Context, c *Customer) error {
	stored, ok := m.customers[c.ID]
	if !ok || stored.CompanyID != c.CompanyID {
		return pgx.ErrNoRows
	}
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *mockRepo) SoftDelete(_ context.Context, companyID, id uuid.UUID) error {
	c, ok := m.customers[id]
	if !ok || c.CompanyID != companyID {
		return pgx.ErrNoRows
	}
	c.IsActive = false
	return nil
}

func (m *mockRepo) Exists(_ context.Context, companyID, id uuid.UUID) (bool, error) {
	c, ok := m.customers[id]
	return ok && c.CompanyID == companyID && c.IsActive, nil
}

func (m *mockRepo) Count(_ context.Context, companyID uuid.UUID) (int, error) {
	n := 0
	for _, c := range m.customers {
		if c.CompanyID == companyID && c.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) GenderStats(_ context.Context, companyID uuid.UUID) (map[string]int, error) {
	stats := make(map[string]int)
	for _, c := range m.customers {
		if c.CompanyID != companyID || !c.IsActive {
			continue
		}
		g := "unknown"
		if c.Gender != nil {
			g = *c.Gender
		}
		stats[g]++
	}
	return stats, nil
}

func (m *mockRepo) AdjustDebt(_ context.Context, companyID, id uuid.UUID, delta float64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok || c.CompanyID != companyID {
		return nil, pgx.ErrNoRows
	}
	c.TotalDebt += delta
	cp := *c
	return &cp, nil
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func testCtx() context.Context {
	return tenant.WithCompany(context.Background(), uuid.New())
}

func TestCreateCustomer_RequiresFullName(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Create(testCtx(), Input{FullName: strPtr("   ")})
	appErr := apperr.As(err)
	if appErr == nil || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateCustomer_CollectsFieldErrors(t *testing.T) {
	svc := NewService(newMockRepo())
	future := time.Now().AddDate(1, 0, 0)

	_, err := svc.Create(testCtx(), Input{
		FullName:   strPtr("Jane Doe"),
		NationalID: strPtr("123"),
		Phone:      strPtr("02121234567"),
		BirthDate:  &future,
		HeightCm:   intPtr(300),
		Gender:     strPtr("other"),
	})
	appErr := apperr.As(err)
	if appErr == nil {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(appErr.Details) != 5 {
		t.Errorf("expected 5 field errors, got %v", appErr.Details)
	}
}

func TestCreateCustomer_DuplicateNationalID(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := testCtx()

	in := Input{FullName: strPtr("Jane Doe"), NationalID: strPtr("10000000146")}
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.FullName = strPtr("John Doe")
	_, err := svc.Create(ctx, in)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateCustomer_ComputesAge(t *testing.T) {
	svc := NewService(newMockRepo())
	birth := time.Now().AddDate(-30, -1, 0)

	c, err := svc.Create(testCtx(), Input{FullName: strPtr("Jane Doe"), BirthDate: &birth})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Age == nil || *c.Age != 30 {
		t.Errorf("expected age 30, got %v", c.Age)
	}
}

func TestUpdateCustomer_KeepsUnspecifiedFields(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := testCtx()

	c, err := svc.Create(ctx, Input{
		FullName: strPtr("Jane Doe"),
		Phone:    strPtr("05321234567"),
		HeightCm: intPtr(170),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.Update(ctx, c.ID, Input{Notes: strPtr("VIP")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.FullName != "Jane Doe" || updated.Phone == nil || *updated.Phone != "05321234567" {
		t.Errorf("unspecified fields were lost: %+v", updated)
	}
	if updated.Notes == nil || *updated.Notes != "VIP" {
		t.Errorf("expected notes updated, got %v", updated.Notes)
	}
}

func TestUpdateCustomer_NationalIDTakenByOther(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := testCtx()

	if _, err := svc.Create(ctx, Input{FullName: strPtr("Jane"), NationalID: strPtr("10000000146")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, err := svc.Create(ctx, Input{FullName: strPtr("John")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Update(ctx, other.ID, Input{NationalID: strPtr("10000000146")})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteCustomer_SoftDeletes(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := testCtx()

	c, err := svc.Create(ctx, Input{FullName: strPtr("Jane Doe")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Row survives but is inactive.
	stored := repo.customers[c.ID]
	if stored == nil || stored.IsActive {
		t.Errorf("expected deactivated customer, got %+v", stored)
	}
}

func TestCustomerStats(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := testCtx()

	for _, g := range []string{"female", "female", "male"} {
		gender := g
		if _, err := svc.Create(ctx, Input{FullName: strPtr("X"), Gender: &gender}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 || stats.ByGender["female"] != 2 || stats.ByGender["male"] != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
