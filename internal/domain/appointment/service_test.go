package appointment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinora/clinora/internal/platform/apperr"
	"github.com/clinora/clinora/internal/platform/tenant"
)

// memStore is an in-memory Repository sharing the conflict semantics of the
// SQL implementation via the Overlaps predicate.
type memStore struct {
	devices   map[uuid.UUID]map[string]int // companyID → name → capacity
	appts     map[uuid.UUID]*Appointment
	customers map[uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		devices:   make(map[uuid.UUID]map[string]int),
		appts:     make(map[uuid.UUID]*Appointment),
		customers: make(map[uuid.UUID]bool),
	}
}

func (m *memStore) addDevice(companyID uuid.UUID, name string, capacity int) {
	if m.devices[companyID] == nil {
		m.devices[companyID] = make(map[string]int)
	}
	m.devices[companyID][name] = capacity
}

func (m *memStore) addCustomer() uuid.UUID {
	id := uuid.New()
	m.customers[id] = true
	return id
}

func (m *memStore) Exists(_ context.Context, companyID uuid.UUID, name string) (bool, error) {
	_, ok := m.devices[companyID][name]
	return ok, nil
}

type memCustomers struct{ store *memStore }

func (m memCustomers) Exists(_ context.Context, _, id uuid.UUID) (bool, error) {
	return m.store.customers[id], nil
}

func (m *memStore) GetByID(_ context.Context, companyID, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.CompanyID != companyID {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) List(_ context.Context, companyID uuid.UUID, f ListFilter) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appts {
		if a.CompanyID != companyID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.CustomerID != nil && a.CustomerID != *f.CustomerID {
			continue
		}
		items = append(items, a)
	}
	return items, len(items), nil
}

func (m *memStore) FindByDateRange(_ context.Context, companyID uuid.UUID, start, end time.Time) ([]*Appointment, error) {
	var items []*Appointment
	for _, a := range m.appts {
		if a.CompanyID != companyID || a.Status == StatusCancelled {
			continue
		}
		if !a.StartTime.Before(start) && !a.EndTime.After(end) {
			items = append(items, a)
		}
	}
	return items, nil
}

func (m *memStore) FindUpcoming(_ context.Context, companyID uuid.UUID, limit int) ([]*Appointment, error) {
	var items []*Appointment
	for _, a := range m.appts {
		if a.CompanyID == companyID && a.Status == StatusScheduled && len(items) < limit {
			items = append(items, a)
		}
	}
	return items, nil
}

func (m *memStore) CountByRange(_ context.Context, companyID uuid.UUID, start, end time.Time) (int, error) {
	n := 0
	for _, a := range m.appts {
		if a.CompanyID == companyID && a.Status != StatusCancelled &&
			!a.StartTime.Before(start) && a.StartTime.Before(end) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CheckDeviceConflicts(_ context.Context, companyID uuid.UUID, slots []SlotRequest, excludeAppointmentID *uuid.UUID) ([]Conflict, error) {
	var conflicts []Conflict
	for _, slot := range slots {
		capacity, ok := m.devices[companyID][slot.DeviceName]
		if !ok {
			conflicts = append(conflicts, Conflict{DeviceName: slot.DeviceName, Reason: ReasonDeviceNotFound})
			continue
		}

		bookings := 0
		var example *Conflict
		for _, a := range m.appts {
			if a.CompanyID != companyID || a.Status == StatusCancelled {
				continue
			}
			if excludeAppointmentID != nil && a.ID == *excludeAppointmentID {
				continue
			}
			for _, existing := range a.Devices {
				if existing.DeviceName != slot.DeviceName {
					continue
				}
				if Overlaps(existing.StartTime, existing.EndTime, slot.StartTime, slot.EndTime) {
					bookings++
					if example == nil {
						id := a.ID
						st, en := existing.StartTime, existing.EndTime
						example = &Conflict{
							DeviceName:               slot.DeviceName,
							Reason:                   ReasonCapacityExceeded,
							ConflictingAppointmentID: &id,
							CustomerName:             a.CustomerName,
							StartTime:                &st,
							EndTime:                  &en,
						}
					}
				}
			}
		}

		if bookings >= capacity {
			c := Conflict{DeviceName: slot.DeviceName, Reason: ReasonCapacityExceeded}
			if example != nil {
				c = *example
			}
			c.DeviceCapacity, c.CurrentBookings = &capacity, &bookings
			conflicts = append(conflicts, c)
		}
	}
	return conflicts, nil
}

func (m *memStore) CheckCustomerTimeConflict(_ context.Context, companyID, customerID uuid.UUID, start, end time.Time, excludeAppointmentID *uuid.UUID) (*Appointment, error) {
	for _, a := range m.appts {
		if a.CompanyID != companyID || a.CustomerID != customerID || a.Status == StatusCancelled {
			continue
		}
		if excludeAppointmentID != nil && a.ID == *excludeAppointmentID {
			continue
		}
		if Overlaps(a.StartTime, a.EndTime, start, end) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Create(_ context.Context, a *Appointment, slots []SlotRequest) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	for i, slot := range slots {
		a.Devices = append(a.Devices, DeviceSlot{
			ID:            uuid.New(),
			AppointmentID: a.ID,
			DeviceID:      uuid.New(),
			DeviceName:    slot.DeviceName,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			Sequence:      i + 1,
		})
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, a *Appointment, slots []SlotRequest) error {
	stored, ok := m.appts[a.ID]
	if !ok || stored.CompanyID != a.CompanyID {
		return pgx.ErrNoRows
	}
	if slots != nil {
		a.Devices = nil
		for i, slot := range slots {
			a.Devices = append(a.Devices, DeviceSlot{
				ID:            uuid.New(),
				AppointmentID: a.ID,
				DeviceID:      uuid.New(),
				DeviceName:    slot.DeviceName,
				StartTime:     slot.StartTime,
				EndTime:       slot.EndTime,
				Sequence:      i + 1,
			})
		}
	} else {
		a.Devices = stored.Devices
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, companyID, id uuid.UUID, status Status) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.CompanyID != companyID {
		return nil, pgx.ErrNoRows
	}
	a.Status = status
	cp := *a
	return &cp, nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	store     *memStore
	svc       *Service
	ctx       context.Context
	companyID uuid.UUID
	customer  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	companyID := uuid.New()
	return &fixture{
		store:     store,
		svc:       NewService(store, store, memCustomers{store}, passthroughTx),
		ctx:       tenant.WithCompany(context.Background(), companyID),
		companyID: companyID,
		customer:  store.addCustomer(),
	}
}

func slot(name string, start, end time.Time) SlotRequest {
	return SlotRequest{DeviceName: name, StartTime: start, EndTime: end}
}

func TestCreate_Succeeds(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	a, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("expected status scheduled, got %s", a.Status)
	}
	if len(a.Devices) != 1 || a.Devices[0].Sequence != 1 {
		t.Errorf("expected one slot with sequence 1, got %+v", a.Devices)
	}
}

func TestCreate_SlotSequenceFollowsInputOrder(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)
	f.store.addDevice(f.companyID, "Massage", 1)

	a, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(12, 0),
		Devices: []SlotRequest{
			slot("Massage", at(11, 0), at(12, 0)),
			slot("Laser", at(10, 0), at(11, 0)),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Devices[0].DeviceName != "Massage" || a.Devices[0].Sequence != 1 {
		t.Errorf("expected first slot Massage/1, got %s/%d", a.Devices[0].DeviceName, a.Devices[0].Sequence)
	}
	if a.Devices[1].DeviceName != "Laser" || a.Devices[1].Sequence != 2 {
		t.Errorf("expected second slot Laser/2, got %s/%d", a.Devices[1].DeviceName, a.Devices[1].Sequence)
	}
}

func TestCreate_CollectsValidationErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, CreateInput{})
	appErr := apperr.As(err)
	if appErr == nil || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(appErr.Details) < 4 {
		t.Errorf("expected all field errors collected, got %v", appErr.Details)
	}
}

func TestCreate_UnknownDeviceIsValidationError(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Ghost", at(10, 0), at(11, 0))},
	})
	appErr := apperr.As(err)
	if appErr == nil || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(appErr.Details) != 1 || !strings.Contains(appErr.Details[0], "Ghost") {
		t.Errorf("expected the unknown device named, got %v", appErr.Details)
	}
}

func TestCreate_UnknownCustomerIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	_, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: uuid.New(),
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreate_CapacityOneRejectsSecondOverlap(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	first := CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	}
	if _, err := f.svc.Create(f.ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := CreateInput{
		CustomerID: f.store.addCustomer(),
		StartTime:  at(10, 30),
		EndTime:    at(11, 30),
		Devices:    []SlotRequest{slot("Laser", at(10, 30), at(11, 30))},
	}
	_, err := f.svc.Create(f.ctx, second)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreate_CapacityAdmitsUpToCapacityThenRejects(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 2)

	window := []SlotRequest{slot("Laser", at(10, 0), at(11, 0))}
	for i := 0; i < 2; i++ {
		_, err := f.svc.Create(f.ctx, CreateInput{
			CustomerID: f.store.addCustomer(),
			StartTime:  at(10, 0),
			EndTime:    at(11, 0),
			Devices:    window,
		})
		if err != nil {
			t.Fatalf("booking %d unexpectedly failed: %v", i+1, err)
		}
	}

	_, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.store.addCustomer(),
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    window,
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict on booking capacity+1, got %v", err)
	}
}

func TestCreate_TouchingBoundariesDoNotConflict(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	if _, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.store.addCustomer(),
		StartTime:  at(11, 0),
		EndTime:    at(12, 0),
		Devices:    []SlotRequest{slot("Laser", at(11, 0), at(12, 0))},
	})
	if err != nil {
		t.Fatalf("back-to-back booking should not conflict, got %v", err)
	}
}

func TestCreate_CancelledAppointmentFreesCapacity(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	in := CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	}
	a, err := f.svc.Create(f.ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Cancel(f.ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.CustomerID = f.store.addCustomer()
	if _, err := f.svc.Create(f.ctx, in); err != nil {
		t.Fatalf("expected freed capacity after cancel, got %v", err)
	}
}

func TestUpdate_ExcludesSelfFromConflictCheck(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	a, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Shift by 30 minutes into its own old window.
	newStart, newEnd := at(10, 30), at(11, 30)
	updated, err := f.svc.Update(f.ctx, a.ID, UpdateInput{
		StartTime: &newStart,
		EndTime:   &newEnd,
		Devices:   []SlotRequest{slot("Laser", newStart, newEnd)},
	})
	if err != nil {
		t.Fatalf("reschedule into own window should not conflict, got %v", err)
	}
	if !updated.StartTime.Equal(newStart) {
		t.Errorf("expected start %v, got %v", newStart, updated.StartTime)
	}
}

func TestUpdate_ConflictAgainstOtherAppointments(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	if _, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(9, 0),
		EndTime:    at(10, 0),
		Devices:    []SlotRequest{slot("Laser", at(9, 0), at(10, 0))},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.store.addCustomer(),
		StartTime:  at(11, 0),
		EndTime:    at(12, 0),
		Devices:    []SlotRequest{slot("Laser", at(11, 0), at(12, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newStart, newEnd := at(9, 30), at(10, 30)
	_, err = f.svc.Update(f.ctx, b.ID, UpdateInput{
		StartTime: &newStart,
		EndTime:   &newEnd,
		Devices:   []SlotRequest{slot("Laser", newStart, newEnd)},
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict against the other booking, got %v", err)
	}
}

func TestUpdate_StatusFollowsLifecycle(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	a, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Complete(f.ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A reschedule body cannot move a terminal appointment back to
	// scheduled; PUT honors the same transitions as PATCH.
	revived := StatusScheduled
	_, err = f.svc.Update(f.ctx, a.ID, UpdateInput{Status: &revived})
	appErr := apperr.As(err)
	if appErr == nil || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error reviving a completed appointment, got %v", err)
	}

	// Restating the current status is a no-op, not an error.
	same := StatusCompleted
	notes := "post-visit notes"
	updated, err := f.svc.Update(f.ctx, a.ID, UpdateInput{Status: &same, Notes: &notes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("expected status to stay completed, got %s", updated.Status)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)
	notes := "x"
	_, err := f.svc.Update(f.ctx, uuid.New(), UpdateInput{Notes: &notes})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckAvailability_ReportsDeviceNotFoundAsConflict(t *testing.T) {
	f := newFixture(t)

	avail, err := f.svc.CheckAvailability(f.ctx, AvailabilityInput{
		Devices: []SlotRequest{slot("Ghost", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.IsAvailable {
		t.Error("expected unavailable for unknown device")
	}
	if len(avail.Conflicts) != 1 || avail.Conflicts[0].Reason != ReasonDeviceNotFound {
		t.Errorf("expected one device_not_found conflict, got %+v", avail.Conflicts)
	}
}

func TestCheckAvailability_CustomerEnvelopeConflict(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 5)
	f.store.addDevice(f.companyID, "Massage", 5)

	if _, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Plenty of device capacity, but the customer is already booked inside
	// the envelope of the requested slots.
	avail, err := f.svc.CheckAvailability(f.ctx, AvailabilityInput{
		CustomerID: &f.customer,
		Devices: []SlotRequest{
			slot("Massage", at(10, 30), at(11, 30)),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.IsAvailable {
		t.Error("expected unavailable for double-booked customer")
	}
	found := false
	for _, c := range avail.Conflicts {
		if c.Reason == ReasonCustomerOverlap {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a customer_overlap conflict, got %+v", avail.Conflicts)
	}
}

func TestCheckAvailability_AvailableWhenClear(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	avail, err := f.svc.CheckAvailability(f.ctx, AvailabilityInput{
		CustomerID: &f.customer,
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !avail.IsAvailable || len(avail.Conflicts) != 0 {
		t.Errorf("expected clean availability, got %+v", avail)
	}
}

func TestLifecycle_Transitions(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	a, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.UpdateStatus(f.ctx, a.ID, StatusInProgress); err != nil {
		t.Fatalf("scheduled→in_progress should be allowed, got %v", err)
	}
	done, err := f.svc.Complete(f.ctx, a.ID)
	if err != nil {
		t.Fatalf("in_progress→completed should be allowed, got %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", done.Status)
	}

	// Terminal state: nothing moves out of completed.
	if _, err := f.svc.UpdateStatus(f.ctx, a.ID, StatusScheduled); apperr.As(err) == nil {
		t.Errorf("expected validation error reviving a completed appointment, got %v", err)
	}
	if _, err := f.svc.Cancel(f.ctx, a.ID); apperr.As(err) == nil {
		t.Errorf("expected validation error cancelling a completed appointment, got %v", err)
	}
}

func TestLifecycle_CompleteGuards(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	a, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Complete(f.ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = f.svc.Complete(f.ctx, a.ID)
	appErr := apperr.As(err)
	if appErr == nil || !strings.Contains(appErr.Message, "already completed") {
		t.Fatalf("expected 'already completed' validation error, got %v", err)
	}
}

func TestLifecycle_CompleteCancelled(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	a, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Cancel(f.ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = f.svc.Complete(f.ctx, a.ID)
	appErr := apperr.As(err)
	if appErr == nil || !strings.Contains(appErr.Message, "cancelled") {
		t.Fatalf("expected cancelled guard, got %v", err)
	}
}

func TestLifecycle_CancelTwiceIsNoop(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	a, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Cancel(f.ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := f.svc.Cancel(f.ctx, a.ID)
	if err != nil {
		t.Fatalf("second cancel should be a no-op, got %v", err)
	}
	if again.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", again.Status)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateStatus(f.ctx, uuid.New(), Status("archived"))
	appErr := apperr.As(err)
	if appErr == nil || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGet_ScopedToCompany(t *testing.T) {
	f := newFixture(t)
	f.store.addDevice(f.companyID, "Laser", 1)

	a, err := f.svc.Create(f.ctx, CreateInput{
		CustomerID: f.customer,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Devices:    []SlotRequest{slot("Laser", at(10, 0), at(11, 0))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foreignCtx := tenant.WithCompany(context.Background(), uuid.New())
	if _, err := f.svc.Get(foreignCtx, a.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
}
