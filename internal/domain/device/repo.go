package device

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for devices.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*Device, error)
	// GetByName matches the exact name, case-sensitively. Returns nil, nil
	// when no device carries the name.
	GetByName(ctx context.Context, companyID uuid.UUID, name string) (*Device, error)
	// Exists reports whether a device with the exact name is registered.
	Exists(ctx context.Context, companyID uuid.UUID, name string) (bool, error)
	List(ctx context.Context, companyID uuid.UUID) ([]*Device, error)
	UpdateCapacity(ctx context.Context, companyID, id uuid.UUID, capacity int) (*Device, error)
	// Delete hard-deletes the device, its slot assignments, and any
	// appointment left with no slots at all. Callers run it inside a
	// transaction so a half-finished cascade never becomes visible.
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}
