package repositories

import (
	"context"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/core/scope"
)

// saccoRepository implements SaccoRepository interface
type saccoRepository struct {
	db *gorm.DB
}

// NewSaccoRepository creates a new sacco repository
func NewSaccoRepository(db *gorm.DB) SaccoRepository {
	return &saccoRepository{db: db}
}

// Create creates a new sacco
func (r *saccoRepository) Create(ctx context.Context, sacco *models.Sacco) error {
	return r.db.WithContext(ctx).Create(sacco).Error
}

// GetByID gets a sacco by ID
func (r *saccoRepository) GetByID(ctx context.Context, id uint) (*models.Sacco, error) {
	var sacco models.Sacco
	err := r.db.WithContext(ctx).
		Preload("Region").
		Preload("District").
		Where("id = ?", id).
		First(&sacco).Error
	if err != nil {
		return nil, err
	}
	return &sacco, nil
}

// GetByRegistrationNumber gets a sacco by its registration number
func (r *saccoRepository) GetByRegistrationNumber(ctx context.Context, regNo string) (*models.Sacco, error) {
	var sacco models.Sacco
	err := r.db.WithContext(ctx).Where("registration_number = ?", regNo).First(&sacco).Error
	if err != nil {
		return nil, err
	}
	return &sacco, nil
}

// Update updates a sacco
func (r *saccoRepository) Update(ctx context.Context, sacco *models.Sacco) error {
	return r.db.WithContext(ctx).Save(sacco).Error
}

// List lists saccos visible under the descriptor with pagination
func (r *saccoRepository) List(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Sacco, int64, error) {
	var saccos []*models.Sacco
	var total int64

	base := d.ApplyToSaccos(r.db.WithContext(ctx).Model(&models.Sacco{}))
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := d.ApplyToSaccos(r.db.WithContext(ctx).Model(&models.Sacco{})).
		Preload("Region").
		Offset(offset).Limit(limit).
		Order("name ASC").
		Find(&saccos).Error
	if err != nil {
		return nil, 0, err
	}

	return saccos, total, nil
}

// CountActive counts active saccos visible under the descriptor
func (r *saccoRepository) CountActive(ctx context.Context, d scope.Descriptor) (int64, error) {
	var count int64
	err := d.ApplyToSaccos(r.db.WithContext(ctx).Model(&models.Sacco{})).
		Where("saccos.is_active = ?", true).
		Count(&count).Error
	return count, err
}
