package repositories

import (
	"context"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
)

// regionRepository implements RegionRepository interface
type regionRepository struct {
	db *gorm.DB
}

// NewRegionRepository creates a new region repository
func NewRegionRepository(db *gorm.DB) RegionRepository {
	return &regionRepository{db: db}
}

// CreateRegion creates a new region
func (r *regionRepository) CreateRegion(ctx context.Context, region *models.Region) error {
	return r.db.WithContext(ctx).Create(region).Error
}

// GetRegionByID gets a region by ID
func (r *regionRepository) GetRegionByID(ctx context.Context, id uint) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&region).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}

// GetRegionByName gets a region by name
func (r *regionRepository) GetRegionByName(ctx context.Context, name string) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&region).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}

// UpdateRegion updates a region
func (r *regionRepository) UpdateRegion(ctx context.Context, region *models.Region) error {
	return r.db.WithContext(ctx).Save(region).Error
}

// ListRegions lists all regions
func (r *regionRepository) ListRegions(ctx context.Context) ([]*models.Region, error) {
	var regions []*models.Region
	err := r.db.WithContext(ctx).Order("name ASC").Find(&regions).Error
	if err != nil {
		return nil, err
	}
	return regions, nil
}

// CreateDistrict creates a new district
func (r *regionRepository) CreateDistrict(ctx context.Context, district *models.District) error {
	return r.db.WithContext(ctx).Create(district).Error
}

// GetDistrictByID gets a district by ID
func (r *regionRepository) GetDistrictByID(ctx context.Context, id uint) (*models.District, error) {
	var district models.District
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&district).Error
	if err != nil {
		return nil, err
	}
	return &district, nil
}

// UpdateDistrict updates a district
func (r *regionRepository) UpdateDistrict(ctx context.Context, district *models.District) error {
	return r.db.WithContext(ctx).Save(district).Error
}

// ListDistricts lists districts, optionally limited to one region
func (r *regionRepository) ListDistricts(ctx context.Context, regionID uint) ([]*models.District, error) {
	var districts []*models.District
	q := r.db.WithContext(ctx)
	if regionID != 0 {
		q = q.Where("region_id = ?", regionID)
	}
	err := q.Order("name ASC").Find(&districts).Error
	if err != nil {
		return nil, err
	}
	return districts, nil
}
