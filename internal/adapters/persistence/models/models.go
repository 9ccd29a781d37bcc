package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Tenant hierarchy: Region -> District -> Sacco
// ============================================================

// Region represents a top-level geographic partition
type Region struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Region) TableName() string {
	return "regions"
}

// District represents a district within a region; name is unique per region
type District struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:200;not null;uniqueIndex:idx_district_name_region" json:"name"`
	RegionID  uint           `gorm:"not null;uniqueIndex:idx_district_name_region;index" json:"region_id"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Region *Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
}

func (District) TableName() string {
	return "districts"
}

// Sacco is the tenant unit that owns all membership and financial data
type Sacco struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"size:200;not null" json:"name"`
	RegistrationNumber string         `gorm:"size:100;uniqueIndex;not null" json:"registration_number"`
	BranchName         string         `gorm:"size:100" json:"branch_name"`
	Address            string         `gorm:"type:text" json:"address"`
	Phone              string         `gorm:"size:20" json:"phone"`
	Email              string         `gorm:"size:100" json:"email"`
	RegionID           *uint          `gorm:"index" json:"region_id"`
	DistrictID         *uint          `gorm:"index" json:"district_id"`
	DefaultCurrency    string         `gorm:"size:3;default:'UGX'" json:"default_currency"`
	LoanMinAmount      float64        `gorm:"type:decimal(14,2);default:0" json:"loan_min_amount"`
	LoanMaxAmount      float64        `gorm:"type:decimal(14,2);default:1000000" json:"loan_max_amount"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedByID        *uint          `json:"created_by"`

	Region   *Region   `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	District *District `gorm:"foreignKey:DistrictID" json:"district,omitempty"`
}

func (Sacco) TableName() string {
	return "saccos"
}

// ============================================================
// Principals
// ============================================================

// User role flags. The legacy schema carries three independent booleans; the
// scope package normalizes them into a single role with fixed precedence.
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Username        string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email           string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password        string         `gorm:"size:255;not null" json:"-"`
	Phone           string         `gorm:"size:20" json:"phone"`
	IsSystemAdmin   bool           `gorm:"default:false" json:"is_system_admin"`
	IsRegionalAdmin bool           `gorm:"default:false" json:"is_regional_admin"`
	IsSaccoAdmin    bool           `gorm:"default:false" json:"is_sacco_admin"`
	SaccoID         *uint          `gorm:"index" json:"sacco_id"`
	RegionID        *uint          `gorm:"index" json:"region_id"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Sacco  *Sacco  `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
	Region *Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	SaccoID   *uint     `json:"sacco_id,omitempty"`
	RegionID  *uint     `json:"region_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse(role string) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      role,
		SaccoID:   u.SaccoID,
		RegionID:  u.RegionID,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Side channels
// ============================================================

// Activity action verbs
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionView       = "view"
	ActionLogin      = "login"
	ActionLogout     = "logout"
	ActionApprove    = "approve"
	ActionReject     = "reject"
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
)

// ActivityLog is an append-only audit entry. Every state-changing operation
// appends exactly one entry; a logging failure never aborts the operation.
type ActivityLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_activity_user_time" json:"user_id"`
	Action      string    `gorm:"size:20;not null;index" json:"action"`
	ModelName   string    `gorm:"size:100;not null" json:"model_name"`
	ObjectID    *uint     `json:"object_id"`
	ObjectName  string    `gorm:"size:200" json:"object_name"`
	Description string    `gorm:"type:text" json:"description"`
	IPAddress   string    `gorm:"size:50" json:"ip_address"`
	SaccoID     *uint     `gorm:"index:idx_activity_sacco_time" json:"sacco_id"`
	RegionID    *uint     `gorm:"index" json:"region_id"`
	Timestamp   time.Time `gorm:"autoCreateTime;index:idx_activity_user_time;index:idx_activity_sacco_time" json:"timestamp"`

	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Sacco *Sacco `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// Notification priorities
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// Notification action types
const (
	NotifyLoanApplication   = "loan_application"
	NotifyLoanApproval      = "loan_approval"
	NotifyLoanRejection     = "loan_rejection"
	NotifyLoanDisbursement  = "loan_disbursement"
	NotifyLoanFullyRepaid   = "loan_fully_repaid"
	NotifySavingsDeposit    = "savings_deposit"
	NotifySavingsWithdrawal = "savings_withdrawal"
	NotifyMemberRegistered  = "member_registration"
	NotifyPaymentReminder   = "payment_reminder"
	NotifySystemAlert       = "system_alert"
)

// Notification is an in-app notification record
type Notification struct {
	ID                uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID            uint       `gorm:"not null;index:idx_notification_user_read" json:"user_id"`
	Title             string     `gorm:"size:200;not null" json:"title"`
	Message           string     `gorm:"type:text" json:"message"`
	IsRead            bool       `gorm:"default:false;index:idx_notification_user_read" json:"is_read"`
	ReadAt            *time.Time `json:"read_at"`
	Priority          string     `gorm:"size:20;default:'Medium'" json:"priority"`
	Channel           string     `gorm:"size:20;default:'InApp'" json:"channel"`
	ActionType        string     `gorm:"size:30;index" json:"action_type"`
	RelatedObjectID   *uint      `json:"related_object_id"`
	RelatedObjectType string     `gorm:"size:50" json:"related_object_type"`
	SaccoID           *uint      `gorm:"index" json:"sacco_id"`
	SentAt            time.Time  `gorm:"autoCreateTime;index" json:"sent_at"`

	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	Sacco *Sacco `gorm:"foreignKey:SaccoID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns the notification ID
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// MarkAsRead marks the notification as read in memory
func (n *Notification) MarkAsRead() {
	if !n.IsRead {
		now := time.Now()
		n.IsRead = true
		n.ReadAt = &now
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Tenancy & principals
		&Region{},
		&District{},
		&Sacco{},
		&User{},
		&RefreshToken{},
		// Membership
		&MemberGroup{},
		&Member{},
		// Loans
		&LoanProduct{},
		&Loan{},
		&LoanRepayment{},
		// Savings
		&SavingProduct{},
		&SavingsAccount{},
		&SavingsTransaction{},
		// Finance
		&FundingSource{},
		&Funding{},
		&ExpenseCategory{},
		&Expense{},
		&Project{},
		// Side channels
		&ActivityLog{},
		&Notification{},
	)
}
