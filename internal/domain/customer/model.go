package customer

import (
	"time"

	"github.com/google/uuid"
)

// Customer maps to the customer table. TotalDebt is maintained by the
// payments ledger; nothing else writes it directly.
type Customer struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	CompanyID  uuid.UUID  `db:"company_id" json:"-"`
	FullName   string     `db:"full_name" json:"full_name"`
	NationalID *string    `db:"national_id" json:"national_id,omitempty"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender     *string    `db:"gender" json:"gender,omitempty"`
	HeightCm   *int       `db:"height_cm" json:"height_cm,omitempty"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	TotalDebt  float64    `db:"total_debt" json:"total_debt"`
	Age        *int       `json:"age,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// fillAge derives the display age from the birth date.
func (c *Customer) fillAge(now time.Time) {
	if c.BirthDate == nil {
		return
	}
	years := int(now.Sub(*c.BirthDate).Hours() / 24 / 365.25)
	c.Age = &years
}

// Stats is the customer summary for the dashboard.
type Stats struct {
	Total    int            `json:"total"`
	ByGender map[string]int `json:"by_gender"`
}
