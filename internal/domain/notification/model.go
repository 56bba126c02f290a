package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a company-wide notice board entry. There is no per-user
// read state; clients track the newest created_at they have seen and ask
// for the count of entries after it.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"-"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
