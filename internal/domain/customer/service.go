package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinora/clinora/internal/platform/apperr"
	"github.com/clinora/clinora/internal/platform/tenant"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input carries the writable customer fields; on update, nil pointers keep
// the current value.
type Input struct {
	FullName   *string    `json:"full_name"`
	NationalID *string    `json:"national_id"`
	BirthDate  *time.Time `json:"birth_date"`
	Gender     *string    `json:"gender"`
	HeightCm   *int       `json:"height_cm"`
	Phone      *string    `json:"phone"`
	Notes      *string    `json:"notes"`
	TotalDebt  *float64   `json:"total_debt"`
}

func validateInput(in Input, isUpdate bool) error {
	var errs []string

	if !isUpdate && (in.FullName == nil || strings.TrimSpace(*in.FullName) == "") {
		errs = append(errs, "full name is required")
	}
	if in.NationalID != nil && *in.NationalID != "" && !ValidNationalID(*in.NationalID) {
		errs = append(errs, "invalid national identity number")
	}
	if in.Phone != nil && *in.Phone != "" && !ValidPhone(*in.Phone) {
		errs = append(errs, "invalid phone number format")
	}
	if in.BirthDate != nil && !ValidBirthDate(*in.BirthDate) {
		errs = append(errs, "birth date cannot be in the future")
	}
	if in.HeightCm != nil && (*in.HeightCm < 50 || *in.HeightCm > 250) {
		errs = append(errs, "height must be between 50 and 250 cm")
	}
	if in.Gender != nil && *in.Gender != "male" && *in.Gender != "female" {
		errs = append(errs, "gender must be male or female")
	}

	if len(errs) > 0 {
		return apperr.Validation("invalid customer data", errs...)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Customer, error) {
	if err := validateInput(in, false); err != nil {
		return nil, err
	}
	companyID := tenant.FromContext(ctx)

	if in.NationalID != nil && *in.NationalID != "" {
		existing, err := s.repo.GetByNationalID(ctx, companyID, *in.NationalID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.Conflict("national identity number already registered")
		}
	}

	c := &Customer{
		CompanyID:  companyID,
		FullName:   strings.TrimSpace(*in.FullName),
		NationalID: in.NationalID,
		BirthDate:  in.BirthDate,
		Gender:     in.Gender,
		HeightCm:   in.HeightCm,
		Phone:      in.Phone,
		Notes:      in.Notes,
	}
	if in.TotalDebt != nil {
		c.TotalDebt = *in.TotalDebt
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	c.fillAge(time.Now())
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, tenant.FromContext(ctx), id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("customer")
	}
	if err != nil {
		return nil, err
	}
	c.fillAge(time.Now())
	return c, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Customer, int, error) {
	items, total, err := s.repo.List(ctx, tenant.FromContext(ctx), f)
	if err != nil {
		return nil, 0, err
	}
	now := time.Now()
	for _, c := range items {
		c.fillAge(now)
	}
	return items, total, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Customer, error) {
	if err := validateInput(in, true); err != nil {
		return nil, err
	}
	companyID := tenant.FromContext(ctx)

	if in.NationalID != nil && *in.NationalID != "" {
		existing, err := s.repo.GetByNationalID(ctx, companyID, *in.NationalID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, apperr.Conflict("national identity number already registered to another customer")
		}
	}

	c, err := s.repo.GetByID(ctx, companyID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("customer")
	}
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		c.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.NationalID != nil {
		c.NationalID = in.NationalID
	}
	if in.BirthDate != nil {
		c.BirthDate = in.BirthDate
	}
	if in.Gender != nil {
		c.Gender = in.Gender
	}
	if in.HeightCm != nil {
		c.HeightCm = in.HeightCm
	}
	if in.Phone != nil {
		c.Phone = in.Phone
	}
	if in.Notes != nil {
		c.Notes = in.Notes
	}
	if in.TotalDebt != nil {
		c.TotalDebt = *in.TotalDebt
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	c.fillAge(time.Now())
	return c, nil
}

// Delete deactivates the customer; history (appointments, payments) stays
// intact and the row disappears from default listings.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.SoftDelete(ctx, tenant.FromContext(ctx), id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("customer")
	}
	return err
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	companyID := tenant.FromContext(ctx)
	total, err := s.repo.Count(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byGender, err := s.repo.GenderStats(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &Stats{Total: total, ByGender: byGender}, nil
}
