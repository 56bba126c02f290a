package device

import (
	"time"

	"github.com/google/uuid"
)

// Device maps to the device table. Capacity is the number of physical units
// of this device the company owns; it bounds how many appointments may hold
// the device in overlapping time slots.
type Device struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CompanyID uuid.UUID `db:"company_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
