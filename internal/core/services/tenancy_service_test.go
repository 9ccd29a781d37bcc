package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/core/scope"
)

type registerSaccoRepo struct {
	repositories.SaccoRepository
}

func (r *registerSaccoRepo) GetByRegistrationNumber(_ context.Context, _ string) (*models.Sacco, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *registerSaccoRepo) Create(_ context.Context, _ *models.Sacco) error {
	return nil
}

type registerRegionRepo struct {
	repositories.RegionRepository
}

func (r *registerRegionRepo) GetRegionByID(_ context.Context, id uint) (*models.Region, error) {
	return &models.Region{ID: id, Name: "Central", IsActive: true}, nil
}

func TestRegisterSaccoRegionGuard(t *testing.T) {
	ctx := context.Background()
	svc := &TenancyService{
		regionRepo: &registerRegionRepo{},
		saccoRepo:  &registerSaccoRepo{},
	}
	regional := scope.Principal{UserID: 2, Role: scope.RoleRegionalAdmin, RegionID: 4, Authenticated: true}

	ownRegion := uint(4)
	otherRegion := uint(9)

	t.Run("own region allowed", func(t *testing.T) {
		sacco, err := svc.RegisterSacco(ctx, regional, &SaccoInput{
			Name:               "Wakiso Farmers",
			RegistrationNumber: "SC-2026-001",
			RegionID:           &ownRegion,
		})
		require.NoError(t, err)
		require.NotNil(t, sacco.RegionID)
		assert.Equal(t, ownRegion, *sacco.RegionID)
	})

	t.Run("foreign region denied", func(t *testing.T) {
		_, err := svc.RegisterSacco(ctx, regional, &SaccoInput{
			Name:               "Gulu Traders",
			RegistrationNumber: "SC-2026-002",
			RegionID:           &otherRegion,
		})
		assert.ErrorIs(t, err, ErrSaccoScopeMismatch)
	})

	t.Run("missing region denied", func(t *testing.T) {
		_, err := svc.RegisterSacco(ctx, regional, &SaccoInput{
			Name:               "Unbound",
			RegistrationNumber: "SC-2026-003",
		})
		assert.ErrorIs(t, err, ErrSaccoScopeMismatch)
	})

	t.Run("system admin unrestricted", func(t *testing.T) {
		system := scope.Principal{UserID: 1, Role: scope.RoleSystemAdmin, Authenticated: true}
		_, err := svc.RegisterSacco(ctx, system, &SaccoInput{
			Name:               "Anywhere",
			RegistrationNumber: "SC-2026-004",
			RegionID:           &otherRegion,
		})
		assert.NoError(t, err)
	})
}
