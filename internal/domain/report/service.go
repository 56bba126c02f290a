package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinora/clinora/internal/domain/appointment"
	"github.com/clinora/clinora/internal/domain/customer"
	"github.com/clinora/clinora/internal/domain/payment"
	"github.com/clinora/clinora/internal/platform/apperr"
	"github.com/clinora/clinora/internal/platform/tenant"
)

// PaymentSource is the slice of the payment repository reports read from.
type PaymentSource interface {
	ListByDateRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*payment.Payment, error)
}

// AppointmentSource is the slice of the appointment repository reports read
// from.
type AppointmentSource interface {
	List(ctx context.Context, companyID uuid.UUID, f appointment.ListFilter) ([]*appointment.Appointment, int, error)
	FindByDateRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*appointment.Appointment, error)
	FindUpcoming(ctx context.Context, companyID uuid.UUID, limit int) ([]*appointment.Appointment, error)
	CountByRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) (int, error)
}

// CustomerSource is the slice of the customer repository reports read from.
type CustomerSource interface {
	List(ctx context.Context, companyID uuid.UUID, f customer.ListFilter) ([]*customer.Customer, int, error)
	Count(ctx context.Context, companyID uuid.UUID) (int, error)
	GenderStats(ctx context.Context, companyID uuid.UUID) (map[string]int, error)
}

// debtorPageSize bounds the customer scan behind the debt reports.
const debtorPageSize = 1000

type Service struct {
	payments     PaymentSource
	appointments AppointmentSource
	customers    CustomerSource
}

func NewService(payments PaymentSource, appointments AppointmentSource, customers CustomerSource) *Service {
	return &Service{payments: payments, appointments: appointments, customers: customers}
}

func splitByType(payments []*payment.Payment) RevenueByType {
	var by RevenueByType
	for _, p := range payments {
		switch p.PaymentType {
		case payment.TypeCash:
			by.Cash.Total += p.Amount
			by.Cash.Count++
		case payment.TypeInstallment:
			by.Installment.Total += p.Amount
			by.Installment.Count++
		}
	}
	return by
}

// DailyRevenue totals one calendar day's payments. Report days and months
// are anchored in server-local time, the zone the handlers parse dates in.
func (s *Service) DailyRevenue(ctx context.Context, date time.Time) (*DailyRevenue, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	payments, err := s.payments.ListByDateRange(ctx, tenant.FromContext(ctx), start, end)
	if err != nil {
		return nil, err
	}
	out := &DailyRevenue{
		Date:   start.Format("2006-01-02"),
		Count:  len(payments),
		ByType: splitByType(payments),
	}
	for _, p := range payments {
		out.Total += p.Amount
	}
	return out, nil
}

// MonthlyRevenue totals one calendar month with a per-day breakdown.
func (s *Service) MonthlyRevenue(ctx context.Context, year, month int) (*MonthlyRevenue, error) {
	if month < 1 || month > 12 {
		return nil, apperr.Validation("month must be between 1 and 12")
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	daysInMonth := end.Day()

	payments, err := s.payments.ListByDateRange(ctx, tenant.FromContext(ctx), start, end)
	if err != nil {
		return nil, err
	}

	out := &MonthlyRevenue{
		Year:           year,
		Month:          month,
		Count:          len(payments),
		DailyBreakdown: make([]DayRevenue, daysInMonth),
		ByType:         splitByType(payments),
	}
	for i := range out.DailyBreakdown {
		out.DailyBreakdown[i].Day = i + 1
	}
	for _, p := range payments {
		out.Total += p.Amount
		day := p.PaidAt.In(start.Location()).Day()
		out.DailyBreakdown[day-1].Total += p.Amount
		out.DailyBreakdown[day-1].Count++
	}
	return out, nil
}

// AppointmentStats counts appointments per lifecycle state across the whole
// history. Cancelled appointments are excluded from the total.
func (s *Service) AppointmentStats(ctx context.Context) (*AppointmentBreakdown, error) {
	companyID := tenant.FromContext(ctx)
	out := &AppointmentBreakdown{}
	for _, st := range []struct {
		status appointment.Status
		dest   *int
	}{
		{appointment.StatusScheduled, &out.Breakdown.Scheduled},
		{appointment.StatusInProgress, &out.Breakdown.InProgress},
		{appointment.StatusCompleted, &out.Breakdown.Completed},
	} {
		_, total, err := s.appointments.List(ctx, companyID, appointment.ListFilter{Status: st.status, Limit: 1})
		if err != nil {
			return nil, err
		}
		*st.dest = total
		out.Total += total
	}
	return out, nil
}

// TopDevices ranks devices by booking count over the range.
func (s *Service) TopDevices(ctx context.Context, start, end time.Time, limit int) ([]DeviceUsage, error) {
	if limit <= 0 {
		limit = 5
	}
	appts, err := s.appointments.FindByDateRange(ctx, tenant.FromContext(ctx), start, end)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, a := range appts {
		for _, slot := range a.Devices {
			counts[slot.DeviceName]++
		}
	}
	usage := make([]DeviceUsage, 0, len(counts))
	for name, n := range counts {
		usage = append(usage, DeviceUsage{DeviceName: name, AppointmentCount: n})
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].AppointmentCount != usage[j].AppointmentCount {
			return usage[i].AppointmentCount > usage[j].AppointmentCount
		}
		return usage[i].DeviceName < usage[j].DeviceName
	})
	if len(usage) > limit {
		usage = usage[:limit]
	}
	return usage, nil
}

// OutstandingDebts lists active customers whose balance exceeds minAmount,
// largest first.
func (s *Service) OutstandingDebts(ctx context.Context, minAmount float64) (*OutstandingDebts, error) {
	customers, _, err := s.customers.List(ctx, tenant.FromContext(ctx), customer.ListFilter{
		IsActive: true,
		Limit:    debtorPageSize,
	})
	if err != nil {
		return nil, err
	}
	out := &OutstandingDebts{Customers: []Debtor{}}
	for _, c := range customers {
		if c.TotalDebt <= minAmount {
			continue
		}
		out.Customers = append(out.Customers, Debtor{
			ID: c.ID, FullName: c.FullName, Phone: c.Phone, TotalDebt: c.TotalDebt,
		})
		out.Total += c.TotalDebt
	}
	sort.Slice(out.Customers, func(i, j int) bool {
		return out.Customers[i].TotalDebt > out.Customers[j].TotalDebt
	})
	out.Count = len(out.Customers)
	return out, nil
}

// Summary combines revenue, appointment volume, device ranking and open
// debts for the period.
func (s *Service) Summary(ctx context.Context, start, end time.Time) (*Summary, error) {
	companyID := tenant.FromContext(ctx)

	payments, err := s.payments.ListByDateRange(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}
	topDevices, err := s.TopDevices(ctx, start, end, 5)
	if err != nil {
		return nil, err
	}
	debts, err := s.OutstandingDebts(ctx, 0)
	if err != nil {
		return nil, err
	}
	apptCount, err := s.appointments.CountByRange(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	out := &Summary{
		Period:     Period{StartDate: start, EndDate: end},
		TopDevices: topDevices,
	}
	for _, p := range payments {
		out.Revenue.Total += p.Amount
	}
	out.Revenue.Count = len(payments)
	if len(payments) > 0 {
		out.Revenue.Average = out.Revenue.Total / float64(len(payments))
	}
	out.Appointments.Total = apptCount
	out.OutstandingDebts.Total = debts.Total
	out.OutstandingDebts.Count = debts.Count
	return out, nil
}

// Dashboard builds the landing page snapshot.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	companyID := tenant.FromContext(ctx)

	total, err := s.customers.Count(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byGender, err := s.customers.GenderStats(ctx, companyID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.appointments.CountByRange(ctx, companyID, dayStart, dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond))
	if err != nil {
		return nil, err
	}
	upcoming, err := s.appointments.FindUpcoming(ctx, companyID, 5)
	if err != nil {
		return nil, err
	}

	out := &Dashboard{SystemStatus: "operational"}
	out.Customers.Total = total
	out.Customers.ByGender = byGender
	out.Appointments.Today = today
	out.Appointments.Upcoming = make([]UpcomingAppointment, 0, len(upcoming))
	for _, a := range upcoming {
		u := UpcomingAppointment{
			ID:            a.ID,
			CustomerName:  a.CustomerName,
			CustomerPhone: a.CustomerPhone,
			StartTime:     a.StartTime,
			EndTime:       a.EndTime,
			Devices:       make([]string, 0, len(a.Devices)),
		}
		for _, slot := range a.Devices {
			u.Devices = append(u.Devices, slot.DeviceName)
		}
		out.Appointments.Upcoming = append(out.Appointments.Upcoming, u)
	}
	return out, nil
}
