package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/core/scope"
)

// memberRepository implements MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// scoped returns a member query filtered down to the descriptor
func (r *memberRepository) scoped(ctx context.Context, d scope.Descriptor) *gorm.DB {
	return d.Apply(r.db.WithContext(ctx).Model(&models.Member{}), scope.RecordMember)
}

// Create creates a new member
func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// CreateNumbered creates a member with a generated per-sacco member number.
// The sequence read and the insert share one transaction, as does the linked
// user account when one is given; a duplicate-key collision from a concurrent
// registration retries with a fresh sequence.
func (r *memberRepository) CreateNumbered(ctx context.Context, member *models.Member, user *models.User) error {
	prefix := fmt.Sprintf("MBR%04d-", member.SaccoID)

	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		lastErr = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if user != nil {
				if err := tx.Create(user).Error; err != nil {
					return err
				}
				userID := user.ID
				member.UserAccountID = &userID
			}

			var last string
			err := tx.Model(&models.Member{}).
				Where("member_number LIKE ?", prefix+"%").
				Order("member_number DESC").
				Limit(1).
				Pluck("member_number", &last).Error
			if err != nil {
				return err
			}

			seq := 1
			if last != "" {
				if n, convErr := strconv.Atoi(strings.TrimPrefix(last, prefix)); convErr == nil {
					seq = n + 1
				}
			}
			member.MemberNumber = fmt.Sprintf("%s%05d", prefix, seq)
			return tx.Create(member).Error
		})
		if lastErr == nil {
			return nil
		}
		if !isDuplicateKey(lastErr) {
			return lastErr
		}
		member.ID = 0
		if user != nil {
			user.ID = 0
			member.UserAccountID = nil
		}
	}
	return lastErr
}

// NationalIDExists reports whether a member with the national ID exists
func (r *memberRepository) NationalIDExists(ctx context.Context, nationalID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("national_id = ?", nationalID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByID gets a member by ID with its sacco preloaded
func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Preload("Sacco").
		Where("id = ?", id).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByMemberNumber gets a member by member number
func (r *memberRepository) GetByMemberNumber(ctx context.Context, memberNumber string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Preload("Sacco").
		Where("member_number = ?", memberNumber).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByUserAccountID gets the member linked to a user account
func (r *memberRepository) GetByUserAccountID(ctx context.Context, userID uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Preload("Sacco").
		Where("user_account_id = ?", userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Update updates a member
func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// List lists members visible under the descriptor with pagination
func (r *memberRepository) List(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Member, int64, error) {
	var members []*models.Member
	var total int64

	if err := r.scoped(ctx, d).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.scoped(ctx, d).
		Preload("Sacco").
		Offset(offset).Limit(limit).
		Order("members.id DESC").
		Find(&members).Error
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

// Search finds members by name, member number or phone within the descriptor
func (r *memberRepository) Search(ctx context.Context, d scope.Descriptor, query string, limit int) ([]*models.Member, error) {
	var members []*models.Member
	like := "%" + strings.TrimSpace(query) + "%"
	err := r.scoped(ctx, d).
		Where("members.member_number LIKE ? OR members.first_name LIKE ? OR members.last_name LIKE ? OR members.phone LIKE ?",
			like, like, like, like).
		Limit(limit).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Count counts members visible under the descriptor
func (r *memberRepository) Count(ctx context.Context, d scope.Descriptor) (int64, error) {
	var count int64
	err := r.scoped(ctx, d).Count(&count).Error
	return count, err
}

// CountByStatus counts members with a given status under the descriptor
func (r *memberRepository) CountByStatus(ctx context.Context, d scope.Descriptor, status string) (int64, error) {
	var count int64
	err := r.scoped(ctx, d).Where("members.status = ?", status).Count(&count).Error
	return count, err
}


// CreateGroup creates a new member group
func (r *memberRepository) CreateGroup(ctx context.Context, group *models.MemberGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// ListGroups lists member groups visible under the descriptor
func (r *memberRepository) ListGroups(ctx context.Context, d scope.Descriptor) ([]*models.MemberGroup, error) {
	var groups []*models.MemberGroup
	err := d.Apply(r.db.WithContext(ctx).Model(&models.MemberGroup{}), scope.RecordMemberGroup).
		Order("member_groups.name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}
