package models

import (
	"time"

	"gorm.io/gorm"
)

// Funding statuses
const (
	FundingStatusPending   = "pending"
	FundingStatusReceived  = "received"
	FundingStatusAllocated = "allocated"
	FundingStatusSpent     = "spent"
)

// Project statuses
const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCancelled = "cancelled"
)

// FundingSource is a donor or lender a sacco receives funding from
type FundingSource struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SaccoID       uint           `gorm:"not null;index" json:"sacco_id"`
	Name          string         `gorm:"size:200;not null" json:"name"`
	ContactPerson string         `gorm:"size:100" json:"contact_person"`
	Email         string         `gorm:"size:100" json:"email"`
	Phone         string         `gorm:"size:20" json:"phone"`
	Address       string         `gorm:"type:text" json:"address"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Sacco *Sacco `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
}

func (FundingSource) TableName() string {
	return "funding_sources"
}

// Funding is a tenant-scoped funding record used by reporting rollups
type Funding struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SaccoID      uint           `gorm:"not null;index" json:"sacco_id"`
	SourceID     uint           `gorm:"not null;index" json:"source_id"`
	Amount       float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Purpose      string         `gorm:"type:text" json:"purpose"`
	Status       string         `gorm:"size:20;default:'pending'" json:"status"`
	ReceivedDate *time.Time     `json:"received_date"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedByID  *uint          `json:"created_by"`

	Sacco  *Sacco         `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
	Source *FundingSource `gorm:"foreignKey:SourceID" json:"source,omitempty"`
}

func (Funding) TableName() string {
	return "fundings"
}

// ExpenseCategory groups a sacco's expenses
type ExpenseCategory struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SaccoID     uint           `gorm:"not null;index" json:"sacco_id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Sacco *Sacco `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
}

func (ExpenseCategory) TableName() string {
	return "expense_categories"
}

// Expense is a tenant-scoped expense record
type Expense struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SaccoID       uint           `gorm:"not null;index" json:"sacco_id"`
	CategoryID    uint           `gorm:"not null;index" json:"category_id"`
	Amount        float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description   string         `gorm:"type:text" json:"description"`
	ExpenseDate   time.Time      `gorm:"type:date" json:"expense_date"`
	ReceiptNumber string         `gorm:"size:100" json:"receipt_number"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedByID   *uint          `json:"created_by"`

	Sacco    *Sacco           `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
	Category *ExpenseCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Expense) TableName() string {
	return "expenses"
}

// Project is a tenant-scoped project record
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SaccoID     uint           `gorm:"not null;index" json:"sacco_id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Budget      float64        `gorm:"type:decimal(12,2);not null" json:"budget"`
	StartDate   *time.Time     `gorm:"type:date" json:"start_date"`
	EndDate     *time.Time     `gorm:"type:date" json:"end_date"`
	Status      string         `gorm:"size:20;default:'planning'" json:"status"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedByID *uint          `json:"created_by"`

	Sacco *Sacco `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}
