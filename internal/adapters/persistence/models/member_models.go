package models

import (
	"time"

	"gorm.io/gorm"
)

// Member statuses. Status changes are admin-driven; any status is reachable
// from any other.
const (
	MemberStatusActive    = "Active"
	MemberStatusInactive  = "Inactive"
	MemberStatusSuspended = "Suspended"
	MemberStatusProspect  = "Prospect"
)

// MemberGroup is a sacco-scoped grouping of members (e.g. a village
// association) used for group guarantees
type MemberGroup struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SaccoID     uint           `gorm:"not null;index" json:"sacco_id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Sacco *Sacco `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
}

func (MemberGroup) TableName() string {
	return "member_groups"
}

// Member belongs to exactly one sacco, with an optional one-to-one link to a
// User account for self-service login
type Member struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SaccoID       uint           `gorm:"not null;index" json:"sacco_id"`
	UserAccountID *uint          `gorm:"uniqueIndex" json:"user_account_id"`
	MemberNumber  string         `gorm:"size:50;uniqueIndex;not null" json:"member_number"`
	FirstName     string         `gorm:"size:100;not null" json:"first_name"`
	LastName      string         `gorm:"size:100;not null" json:"last_name"`
	OtherNames    string         `gorm:"size:100" json:"other_names"`
	Email         string         `gorm:"size:100" json:"email"`
	Phone         string         `gorm:"size:20" json:"phone"`
	NationalID    *string        `gorm:"size:20;uniqueIndex" json:"national_id"`
	Gender        string         `gorm:"size:10" json:"gender"`
	DateOfBirth   *time.Time     `gorm:"type:date" json:"date_of_birth"`
	HomeAddress   string         `gorm:"type:text" json:"home_address"`
	VillageTown   string         `gorm:"size:100" json:"village_town"`
	District      string         `gorm:"size:50" json:"district"`
	Occupation    string         `gorm:"size:100" json:"occupation"`
	MonthlyIncome float64        `gorm:"type:decimal(12,2);default:0" json:"monthly_income"`
	Status        string         `gorm:"size:20;default:'Active'" json:"status"`
	GroupID       *uint          `gorm:"index" json:"group_id"`
	DateJoined    *time.Time     `gorm:"type:date" json:"date_joined"`
	SharesBalance float64        `gorm:"type:decimal(14,2);default:0" json:"shares_balance"`
	SavingsTotal  float64        `gorm:"type:decimal(14,2);default:0" json:"savings_total"`
	Notes         string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedByID   *uint          `json:"created_by"`

	Sacco       *Sacco       `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
	UserAccount *User        `gorm:"foreignKey:UserAccountID" json:"user_account,omitempty"`
	Group       *MemberGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

// FullName returns the member's display name
func (m *Member) FullName() string {
	if m.OtherNames != "" {
		return m.FirstName + " " + m.OtherNames + " " + m.LastName
	}
	return m.FirstName + " " + m.LastName
}

// ValidMemberStatus reports whether s is a recognized member status
func ValidMemberStatus(s string) bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusSuspended, MemberStatusProspect:
		return true
	}
	return false
}
