package services

import (
	"context"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/core/scope"
)

// ActivityService appends audit log entries. Recording is best-effort:
// callers log the returned error and carry on, a failed audit write never
// aborts the operation it describes.
type ActivityService struct {
	activityRepo repositories.ActivityRepository
}

// NewActivityService creates a new activity service
func NewActivityService(activityRepo repositories.ActivityRepository) *ActivityService {
	return &ActivityService{activityRepo: activityRepo}
}

// RecordInput describes one audit entry
type RecordInput struct {
	Action      string
	ModelName   string
	ObjectID    *uint
	ObjectName  string
	Description string
	IPAddress   string
	SaccoID     *uint
	RegionID    *uint
}

// Record appends one audit entry attributed to the principal
func (s *ActivityService) Record(ctx context.Context, p scope.Principal, input RecordInput) error {
	entry := &models.ActivityLog{
		UserID:      p.UserID,
		Action:      input.Action,
		ModelName:   input.ModelName,
		ObjectID:    input.ObjectID,
		ObjectName:  input.ObjectName,
		Description: input.Description,
		IPAddress:   input.IPAddress,
		SaccoID:     input.SaccoID,
		RegionID:    input.RegionID,
	}
	if entry.SaccoID == nil && p.SaccoID != 0 {
		saccoID := p.SaccoID
		entry.SaccoID = &saccoID
	}
	if entry.RegionID == nil && p.RegionID != 0 {
		regionID := p.RegionID
		entry.RegionID = &regionID
	}
	return s.activityRepo.Create(ctx, entry)
}

// Recent lists the latest audit entries visible to the principal
func (s *ActivityService) Recent(ctx context.Context, p scope.Principal, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.activityRepo.ListRecent(ctx, scope.Resolve(p), limit)
}
