package repositories

import (
	"context"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/core/scope"
)

// activityRepository implements ActivityRepository interface
type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Create appends an activity log entry
func (r *activityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListRecent lists the latest activity visible under the descriptor. The
// log carries its own sacco/region context columns, so scoping filters
// those directly instead of walking record join paths.
func (r *activityRepository) ListRecent(ctx context.Context, d scope.Descriptor, limit int) ([]*models.ActivityLog, error) {
	var entries []*models.ActivityLog

	q := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	switch d.Kind {
	case scope.AllAccess:
	case scope.RegionAccess:
		q = q.Where("region_id = ?", d.RegionID)
	case scope.SaccoAccess:
		q = q.Where("sacco_id = ?", d.SaccoID)
	case scope.OwnAccess:
		q = q.Where("user_id = ?", d.UserID)
	default:
		q = q.Where("1 = 0")
	}

	err := q.Order("timestamp DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
