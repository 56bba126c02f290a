package device

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinora/clinora/internal/platform/apperr"
	"github.com/clinora/clinora/internal/platform/db"
	"github.com/clinora/clinora/internal/platform/tenant"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

// CreateInput carries the fields a client may set on a new device.
type CreateInput struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func (s *Service) List(ctx context.Context) ([]*Device, error) {
	return s.repo.List(ctx, tenant.FromContext(ctx))
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Device, error) {
	d, err := s.repo.GetByID(ctx, tenant.FromContext(ctx), id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("device")
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create registers a device. Names are unique per company and compared
// case-sensitively, so "Laser" and "laser" are distinct devices.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Device, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("device name is required")
	}
	capacity := in.Capacity
	if capacity == 0 {
		capacity = 1
	}
	if capacity < 1 {
		return nil, apperr.Validation("device capacity must be at least 1")
	}

	companyID := tenant.FromContext(ctx)
	existing, err := s.repo.GetByName(ctx, companyID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("device with this name already exists")
	}

	d := &Device{CompanyID: companyID, Name: name, Capacity: capacity}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateCapacity changes how many units of the device exist. The name is
// immutable; slot rows denormalize it and renames would strand them.
func (s *Service) UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int) (*Device, error) {
	if capacity < 1 {
		return nil, apperr.Validation("device capacity must be at least 1")
	}
	d, err := s.repo.UpdateCapacity(ctx, tenant.FromContext(ctx), id, capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("device")
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes the device and cascades through its bookings: slot rows go
// with the device, and appointments reduced to zero slots are removed too.
// The whole cascade commits or rolls back as one unit.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, tenant.FromContext(txCtx), id)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("device")
	}
	return err
}
