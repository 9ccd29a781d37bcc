package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/core/scope"
	"saccolink/internal/pkg/password"
)

// Member errors
var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberNumberTaken   = errors.New("member number already exists")
	ErrNationalIDTaken     = errors.New("national id already registered")
	ErrInvalidMemberStatus = errors.New("invalid member status")
	ErrSaccoScopeMismatch  = errors.New("sacco outside principal scope")
)

// MemberService handles member registration and lifecycle
type MemberService struct {
	memberRepo      repositories.MemberRepository
	saccoRepo       repositories.SaccoRepository
	userRepo        repositories.UserRepository
	notificationSvc *NotificationService
	activitySvc     *ActivityService
}

// NewMemberService creates a new member service
func NewMemberService(
	memberRepo repositories.MemberRepository,
	saccoRepo repositories.SaccoRepository,
	userRepo repositories.UserRepository,
	notificationSvc *NotificationService,
	activitySvc *ActivityService,
) *MemberService {
	return &MemberService{
		memberRepo:      memberRepo,
		saccoRepo:       saccoRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		activitySvc:     activitySvc,
	}
}

// RegisterMemberInput represents member registration input
type RegisterMemberInput struct {
	SaccoID       uint       `json:"sacco_id" validate:"required"`
	FirstName     string     `json:"first_name" validate:"required,max=100"`
	LastName      string     `json:"last_name" validate:"required,max=100"`
	OtherNames    string     `json:"other_names"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	NationalID    *string    `json:"national_id"`
	Gender        string     `json:"gender"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	HomeAddress   string     `json:"home_address"`
	VillageTown   string     `json:"village_town"`
	District      string     `json:"district"`
	Occupation    string     `json:"occupation"`
	MonthlyIncome float64    `json:"monthly_income"`
	GroupID       *uint      `json:"group_id"`

	// Optional self-service login for the member
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterMember registers a member in a sacco, optionally with a linked
// user account for self-service access
func (s *MemberService) RegisterMember(ctx context.Context, p scope.Principal, input *RegisterMemberInput) (*models.Member, error) {
	if err := requireSaccoScope(ctx, s.saccoRepo, p, input.SaccoID); err != nil {
		return nil, err
	}
	if _, err := s.saccoRepo.GetByID(ctx, input.SaccoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaccoNotFound
		}
		return nil, err
	}

	var user *models.User
	if input.Username != "" {
		built, err := s.buildMemberAccount(ctx, input)
		if err != nil {
			return nil, err
		}
		user = built
	}

	now := time.Now()
	creatorID := p.UserID
	member := &models.Member{
		SaccoID:       input.SaccoID,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		OtherNames:    input.OtherNames,
		Email:         input.Email,
		Phone:         input.Phone,
		NationalID:    normalizeNationalID(input.NationalID),
		Gender:        input.Gender,
		DateOfBirth:   input.DateOfBirth,
		HomeAddress:   input.HomeAddress,
		VillageTown:   input.VillageTown,
		District:      input.District,
		Occupation:    input.Occupation,
		MonthlyIncome: input.MonthlyIncome,
		Status:        models.MemberStatusActive,
		GroupID:       input.GroupID,
		DateJoined:    &now,
		CreatedByID:   &creatorID,
	}

	// The login user, the member number allocation and the member insert
	// share one transaction; a failed registration leaves nothing behind.
	if err := s.memberRepo.CreateNumbered(ctx, member, user); err != nil {
		if isDuplicateEntry(err) {
			return nil, s.classifyRegisterConflict(ctx, input)
		}
		return nil, err
	}

	// Best-effort side channels
	if err := s.notificationSvc.NotifyMemberRegistered(ctx, member); err != nil {
		log.Printf("Warning: member registration notification failed: %v", err)
	}
	memberID := member.ID
	saccoID := member.SaccoID
	if err := s.activitySvc.Record(ctx, p, RecordInput{
		Action:      models.ActionCreate,
		ModelName:   "Member",
		ObjectID:    &memberID,
		ObjectName:  member.FullName(),
		Description: fmt.Sprintf("Registered member %s", member.MemberNumber),
		SaccoID:     &saccoID,
	}); err != nil {
		log.Printf("Warning: activity log failed: %v", err)
	}

	log.Printf("✅ Member registered: %s (%s)", member.FullName(), member.MemberNumber)
	return member, nil
}

// GetMember gets a member the principal may see
func (s *MemberService) GetMember(ctx context.Context, p scope.Principal, id uint) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if !scope.CanAccessMember(scope.Resolve(p), member) {
		// Out-of-scope reads look like missing records
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// GetOwnMember gets the member record linked to the principal's account
func (s *MemberService) GetOwnMember(ctx context.Context, p scope.Principal) (*models.Member, error) {
	member, err := s.memberRepo.GetByUserAccountID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// ListMembers lists members visible to the principal
func (s *MemberService) ListMembers(ctx context.Context, p scope.Principal, offset, limit int) ([]*models.Member, int64, error) {
	return s.memberRepo.List(ctx, scope.Resolve(p), offset, limit)
}

// SearchMembers searches members visible to the principal
func (s *MemberService) SearchMembers(ctx context.Context, p scope.Principal, query string, limit int) ([]*models.Member, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.memberRepo.Search(ctx, scope.Resolve(p), query, limit)
}

// UpdateMemberStatus sets a member's status. Status is admin-driven and may
// move between any two values.
func (s *MemberService) UpdateMemberStatus(ctx context.Context, p scope.Principal, id uint, status string) (*models.Member, error) {
	if !models.ValidMemberStatus(status) {
		return nil, ErrInvalidMemberStatus
	}

	member, err := s.GetMember(ctx, p, id)
	if err != nil {
		return nil, err
	}

	member.Status = status
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	memberID := member.ID
	saccoID := member.SaccoID
	if err := s.activitySvc.Record(ctx, p, RecordInput{
		Action:      models.ActionUpdate,
		ModelName:   "Member",
		ObjectID:    &memberID,
		ObjectName:  member.FullName(),
		Description: fmt.Sprintf("Status changed to %s", status),
		SaccoID:     &saccoID,
	}); err != nil {
		log.Printf("Warning: activity log failed: %v", err)
	}

	return member, nil
}

// CreateGroup creates a member group in the principal's sacco
func (s *MemberService) CreateGroup(ctx context.Context, p scope.Principal, saccoID uint, name, description string) (*models.MemberGroup, error) {
	if err := requireSaccoScope(ctx, s.saccoRepo, p, saccoID); err != nil {
		return nil, err
	}
	group := &models.MemberGroup{
		SaccoID:     saccoID,
		Name:        name,
		Description: description,
	}
	if err := s.memberRepo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups lists member groups visible to the principal
func (s *MemberService) ListGroups(ctx context.Context, p scope.Principal) ([]*models.MemberGroup, error) {
	return s.memberRepo.ListGroups(ctx, scope.Resolve(p))
}

// buildMemberAccount validates and assembles the member's self-service
// login. The user row is persisted together with the member.
func (s *MemberService) buildMemberAccount(ctx context.Context, input *RegisterMemberInput) (*models.User, error) {
	if err := password.Validate(input.Password); err != nil {
		return nil, ErrWeakPassword
	}
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
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

	saccoID := input.SaccoID
	return &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: hashed,
		Phone:    input.Phone,
		SaccoID:  &saccoID,
		IsActive: true,
	}, nil
}

// classifyRegisterConflict names the field behind a duplicate-key failure
// during registration instead of guessing from the input
func (s *MemberService) classifyRegisterConflict(ctx context.Context, input *RegisterMemberInput) error {
	if input.Username != "" {
		if taken, err := s.userRepo.ExistsByUsername(ctx, input.Username); err == nil && taken {
			return ErrUserAlreadyExists
		}
	}
	if id := normalizeNationalID(input.NationalID); id != nil {
		if taken, err := s.memberRepo.NationalIDExists(ctx, *id); err == nil && taken {
			return ErrNationalIDTaken
		}
	}
	return ErrMemberNumberTaken
}

func normalizeNationalID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}

// isDuplicateEntry reports whether an error is a unique-constraint violation
func isDuplicateEntry(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
