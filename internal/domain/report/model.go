package report

import (
	"time"

	"github.com/google/uuid"
)

// RevenueBucket aggregates a set of payments.
type RevenueBucket struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// RevenueByType splits a revenue figure by payment type.
type RevenueByType struct {
	Cash        RevenueBucket `json:"cash"`
	Installment RevenueBucket `json:"installment"`
}

// DailyRevenue is one day's takings.
type DailyRevenue struct {
	Date   string        `json:"date"`
	Total  float64       `json:"total"`
	Count  int           `json:"count"`
	ByType RevenueByType `json:"by_type"`
}

// DayRevenue is one day's slice of a monthly report.
type DayRevenue struct {
	Day   int     `json:"day"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// MonthlyRevenue is one month's takings with a per-day breakdown. The
// breakdown always has one entry per calendar day, zeroes included.
type MonthlyRevenue struct {
	Year           int           `json:"year"`
	Month          int           `json:"month"`
	Total          float64       `json:"total"`
	Count          int           `json:"count"`
	DailyBreakdown []DayRevenue  `json:"daily_breakdown"`
	ByType         RevenueByType `json:"by_type"`
}

// AppointmentBreakdown counts appointments per lifecycle state. Total
// excludes cancelled appointments.
type AppointmentBreakdown struct {
	Total     int `json:"total"`
	Breakdown struct {
		Scheduled  int `json:"scheduled"`
		Completed  int `json:"completed"`
		InProgress int `json:"in_progress"`
	} `json:"breakdown"`
}

// DeviceUsage ranks a device by bookings over a range.
type DeviceUsage struct {
	DeviceName       string `json:"device_name"`
	AppointmentCount int    `json:"appointment_count"`
}

// Debtor is one customer carrying an open balance.
type Debtor struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone"`
	TotalDebt float64   `json:"total_debt"`
}

// OutstandingDebts lists debtors above a floor, largest balance first.
type OutstandingDebts struct {
	Total     float64  `json:"total"`
	Count     int      `json:"count"`
	Customers []Debtor `json:"customers"`
}

// Period is the inclusive date range a summary covers.
type Period struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// SummaryRevenue is the revenue slice of a financial summary.
type SummaryRevenue struct {
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Summary is the combined financial report for a period.
type Summary struct {
	Period       Period         `json:"period"`
	Revenue      SummaryRevenue `json:"revenue"`
	Appointments struct {
		Total int `json:"total"`
	} `json:"appointments"`
	TopDevices       []DeviceUsage `json:"top_devices"`
	OutstandingDebts struct {
		Total float64 `json:"total"`
		Count int     `json:"count"`
	} `json:"outstanding_debts"`
}

// Dashboard is the landing page snapshot.
type Dashboard struct {
	Customers struct {
		Total    int            `json:"total"`
		ByGender map[string]int `json:"by_gender"`
	} `json:"customers"`
	Appointments struct {
		Today    int                   `json:"today"`
		Upcoming []UpcomingAppointment `json:"upcoming"`
	} `json:"appointments"`
	SystemStatus string `json:"system_status"`
}

// UpcomingAppointment is the trimmed appointment shape the dashboard shows.
type UpcomingAppointment struct {
	ID            uuid.UUID `json:"id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Devices       []string  `json:"devices"`
}
