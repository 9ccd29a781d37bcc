package services

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/core/scope"
	"saccolink/internal/pkg/password"
)

// Tenancy errors
var (
	ErrRegionNotFound       = errors.New("region not found")
	ErrRegionAlreadyExists  = errors.New("region already exists")
	ErrDistrictNotFound     = errors.New("district not found")
	ErrSaccoNotFound        = errors.New("sacco not found")
	ErrSaccoAlreadyExists   = errors.New("sacco registration number already exists")
	ErrInvalidLoanBounds    = errors.New("loan minimum must not exceed loan maximum")
	ErrWeakPassword         = errors.New("password does not meet requirements")
	ErrRegionBindingMissing = errors.New("regional admin requires a region")
)

// TenancyService manages regions, districts, saccos and their admin accounts
type TenancyService struct {
	regionRepo repositories.RegionRepository
	saccoRepo  repositories.SaccoRepository
	userRepo   repositories.UserRepository
}

// NewTenancyService creates a new tenancy service
func NewTenancyService(
	regionRepo repositories.RegionRepository,
	saccoRepo repositories.SaccoRepository,
	userRepo repositories.UserRepository,
) *TenancyService {
	return &TenancyService{
		regionRepo: regionRepo,
		saccoRepo:  saccoRepo,
		userRepo:   userRepo,
	}
}

// RegionInput represents region create/update input
type RegionInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
}

// CreateRegion creates a region
func (s *TenancyService) CreateRegion(ctx context.Context, input *RegionInput) (*models.Region, error) {
	if _, err := s.regionRepo.GetRegionByName(ctx, input.Name); err == nil {
		return nil, ErrRegionAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	region := &models.Region{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.regionRepo.CreateRegion(ctx, region); err != nil {
		return nil, err
	}

	log.Printf("Region created: %s", region.Name)
	return region, nil
}

// ListRegions lists all regions
func (s *TenancyService) ListRegions(ctx context.Context) ([]*models.Region, error) {
	return s.regionRepo.ListRegions(ctx)
}

// DistrictInput represents district create input
type DistrictInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	RegionID uint   `json:"region_id" validate:"required"`
}

// CreateDistrict creates a district within a region
func (s *TenancyService) CreateDistrict(ctx context.Context, input *DistrictInput) (*models.District, error) {
	if _, err := s.regionRepo.GetRegionByID(ctx, input.RegionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegionNotFound
		}
		return nil, err
	}

	district := &models.District{
		Name:     input.Name,
		RegionID: input.RegionID,
		IsActive: true,
	}
	if err := s.regionRepo.CreateDistrict(ctx, district); err != nil {
		return nil, err
	}
	return district, nil
}

// ListDistricts lists districts, optionally limited to one region
func (s *TenancyService) ListDistricts(ctx context.Context, regionID uint) ([]*models.District, error) {
	return s.regionRepo.ListDistricts(ctx, regionID)
}

// SaccoInput represents sacco registration/update input
type SaccoInput struct {
	Name               string  `json:"name" validate:"required,max=200"`
	RegistrationNumber string  `json:"registration_number" validate:"required,max=100"`
	BranchName         string  `json:"branch_name"`
	Address            string  `json:"address"`
	Phone              string  `json:"phone"`
	Email              string  `json:"email"`
	RegionID           *uint   `json:"region_id"`
	DistrictID         *uint   `json:"district_id"`
	DefaultCurrency    string  `json:"default_currency"`
	LoanMinAmount      float64 `json:"loan_min_amount"`
	LoanMaxAmount      float64 `json:"loan_max_amount"`
}

// RegisterSacco registers a new sacco
func (s *TenancyService) RegisterSacco(ctx context.Context, p scope.Principal, input *SaccoInput) (*models.Sacco, error) {
	// Regional admins may only register saccos inside their own region
	if d := scope.Resolve(p); d.Kind == scope.RegionAccess {
		if input.RegionID == nil || *input.RegionID != d.RegionID {
			return nil, ErrSaccoScopeMismatch
		}
	}

	if input.LoanMaxAmount > 0 && input.LoanMinAmount > input.LoanMaxAmount {
		return nil, ErrInvalidLoanBounds
	}

	if _, err := s.saccoRepo.GetByRegistrationNumber(ctx, input.RegistrationNumber); err == nil {
		return nil, ErrSaccoAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if input.RegionID != nil {
		if _, err := s.regionRepo.GetRegionByID(ctx, *input.RegionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrRegionNotFound
			}
			return nil, err
		}
	}
	if input.DistrictID != nil {
		if _, err := s.regionRepo.GetDistrictByID(ctx, *input.DistrictID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDistrictNotFound
			}
			return nil, err
		}
	}

	currency := input.DefaultCurrency
	if currency == "" {
		currency = "UGX"
	}

	creatorID := p.UserID
	sacco := &models.Sacco{
		Name:               input.Name,
		RegistrationNumber: input.RegistrationNumber,
		BranchName:         input.BranchName,
		Address:            input.Address,
		Phone:              input.Phone,
		Email:              input.Email,
		RegionID:           input.RegionID,
		DistrictID:         input.DistrictID,
		DefaultCurrency:    currency,
		LoanMinAmount:      input.LoanMinAmount,
		LoanMaxAmount:      input.LoanMaxAmount,
		IsActive:           true,
		CreatedByID:        &creatorID,
	}
	if err := s.saccoRepo.Create(ctx, sacco); err != nil {
		return nil, err
	}

	log.Printf("✅ Sacco registered: %s (%s)", sacco.Name, sacco.RegistrationNumber)
	return sacco, nil
}

// GetSacco gets a sacco visible to the principal
func (s *TenancyService) GetSacco(ctx context.Context, p scope.Principal, id uint) (*models.Sacco, error) {
	sacco, err := s.saccoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaccoNotFound
		}
		return nil, err
	}
	if !s.canSeeSacco(scope.Resolve(p), sacco) {
		// Out-of-scope reads look like missing records
		return nil, ErrSaccoNotFound
	}
	return sacco, nil
}

// ListSaccos lists saccos visible to the principal
func (s *TenancyService) ListSaccos(ctx context.Context, p scope.Principal, offset, limit int) ([]*models.Sacco, int64, error) {
	return s.saccoRepo.List(ctx, scope.Resolve(p), offset, limit)
}

// UpdateSacco updates a sacco's profile
func (s *TenancyService) UpdateSacco(ctx context.Context, p scope.Principal, id uint, input *SaccoInput) (*models.Sacco, error) {
	sacco, err := s.GetSacco(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if input.LoanMaxAmount > 0 && input.LoanMinAmount > input.LoanMaxAmount {
		return nil, ErrInvalidLoanBounds
	}

	sacco.Name = input.Name
	sacco.BranchName = input.BranchName
	sacco.Address = input.Address
	sacco.Phone = input.Phone
	sacco.Email = input.Email
	sacco.RegionID = input.RegionID
	sacco.DistrictID = input.DistrictID
	if input.DefaultCurrency != "" {
		sacco.DefaultCurrency = input.DefaultCurrency
	}
	sacco.LoanMinAmount = input.LoanMinAmount
	sacco.LoanMaxAmount = input.LoanMaxAmount

	if err := s.saccoRepo.Update(ctx, sacco); err != nil {
		return nil, err
	}
	return sacco, nil
}

// SetSaccoActive activates or deactivates a sacco. Deactivation locks out
// the sacco's admins and members at login and mid-session.
func (s *TenancyService) SetSaccoActive(ctx context.Context, p scope.Principal, id uint, active bool) (*models.Sacco, error) {
	sacco, err := s.GetSacco(ctx, p, id)
	if err != nil {
		return nil, err
	}

	sacco.IsActive = active
	if err := s.saccoRepo.Update(ctx, sacco); err != nil {
		return nil, err
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	log.Printf("Sacco %s: %s", state, sacco.Name)
	return sacco, nil
}

// AdminUserInput represents admin account creation input
type AdminUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"`
	SaccoID  *uint  `json:"sacco_id"`
	RegionID *uint  `json:"region_id"`
	Regional bool   `json:"regional"`
}

// CreateAdminUser creates a sacco-admin or regional-admin account
func (s *TenancyService) CreateAdminUser(ctx context.Context, input *AdminUserInput) (*models.User, error) {
	if err := password.Validate(input.Password); err != nil {
		return nil, ErrWeakPassword
	}
	if input.Regional && input.RegionID == nil {
		return nil, ErrRegionBindingMissing
	}
	if !input.Regional {
		if input.SaccoID == nil {
			return nil, ErrSaccoNotFound
		}
		if _, err := s.saccoRepo.GetByID(ctx, *input.SaccoID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSaccoNotFound
			}
			return nil, err
		}
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:        input.Username,
		Email:           input.Email,
		Password:        hashed,
		Phone:           input.Phone,
		IsRegionalAdmin: input.Regional,
		IsSaccoAdmin:    !input.Regional,
		SaccoID:         input.SaccoID,
		RegionID:        input.RegionID,
		IsActive:        true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Admin account created: %s", user.Username)
	return user, nil
}

// canSeeSacco mirrors the sacco-list scoping for single reads
func (s *TenancyService) canSeeSacco(d scope.Descriptor, sacco *models.Sacco) bool {
	switch d.Kind {
	case scope.AllAccess:
		return true
	case scope.RegionAccess:
		return sacco.RegionID != nil && *sacco.RegionID == d.RegionID
	case scope.SaccoAccess:
		return sacco.ID == d.SaccoID
	case scope.OwnAccess:
		return sacco.ID == d.SaccoID
	}
	return false
}
