package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Interest types
const (
	InterestTypeFlat     = "Flat"
	InterestTypeReducing = "Reducing"
)

// Loan statuses
const (
	LoanStatusPendingApproval = "pending_approval"
	LoanStatusApproved        = "approved"
	LoanStatusDisbursed       = "disbursed"
	LoanStatusActive          = "active"
	LoanStatusClosed          = "closed"
	LoanStatusDeclined        = "declined"
	LoanStatusWithdrawn       = "withdrawn"
	LoanStatusWrittenOff      = "written_off"
	LoanStatusDefaulted       = "defaulted"
)

// loanTransitions is the lifecycle guard table. Closed, declined, withdrawn
// and written_off are terminal.
var loanTransitions = map[string][]string{
	LoanStatusPendingApproval: {LoanStatusApproved, LoanStatusDeclined, LoanStatusWithdrawn},
	LoanStatusApproved:        {LoanStatusDisbursed},
	LoanStatusDisbursed:       {LoanStatusActive, LoanStatusClosed, LoanStatusWrittenOff, LoanStatusDefaulted},
	LoanStatusActive:          {LoanStatusClosed, LoanStatusWrittenOff, LoanStatusDefaulted},
}

// CanTransitionLoan reports whether a loan may move from one status to another
func CanTransitionLoan(from, to string) bool {
	for _, next := range loanTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LoanProduct belongs to a sacco and carries the lending terms a loan
// inherits at application time
type LoanProduct struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	SaccoID               uint           `gorm:"not null;index" json:"sacco_id"`
	Name                  string         `gorm:"size:100;not null" json:"name"`
	ProductCode           string         `gorm:"size:20;uniqueIndex;not null" json:"product_code"`
	Description           string         `gorm:"type:text" json:"description"`
	InterestRate          float64        `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	InterestType          string         `gorm:"size:20;default:'Reducing'" json:"interest_type"`
	ProcessingFeePercent  float64        `gorm:"type:decimal(5,2);default:0" json:"processing_fee_percent"`
	MinAmount             float64        `gorm:"type:decimal(14,2);not null" json:"min_amount"`
	MaxAmount             float64        `gorm:"type:decimal(14,2);not null" json:"max_amount"`
	MinDurationMonths     int            `gorm:"not null" json:"min_duration_months"`
	MaxDurationMonths     int            `gorm:"not null" json:"max_duration_months"`
	GracePeriodMonths     int            `gorm:"default:0" json:"grace_period_months"`
	AllowPartialDisbursal bool           `gorm:"default:false" json:"allow_partial_disbursement"`
	IsActive              bool           `gorm:"default:true" json:"is_active"`
	CreatedAt             time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	Sacco *Sacco `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
}

func (LoanProduct) TableName() string {
	return "loan_products"
}

// Loan belongs to a member and a product; the product's sacco transitively
// scopes the loan
type Loan struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	MemberID           uint           `gorm:"not null;index" json:"member_id"`
	ProductID          uint           `gorm:"not null;index" json:"product_id"`
	LoanNumber         string         `gorm:"size:50;uniqueIndex" json:"loan_number"`
	LoanRef            string         `gorm:"size:50;uniqueIndex" json:"loan_ref"`
	AmountRequested    float64        `gorm:"type:decimal(14,2);not null" json:"amount_requested"`
	AmountApproved     *float64       `gorm:"type:decimal(14,2)" json:"amount_approved"`
	AmountDisbursed    *float64       `gorm:"type:decimal(14,2)" json:"amount_disbursed"`
	InterestRate       float64        `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	InterestType       string         `gorm:"size:20;default:'Reducing'" json:"interest_type"`
	DurationMonths     int            `gorm:"not null" json:"duration_months"`
	Status             string         `gorm:"size:20;default:'pending_approval';index" json:"status"`
	Purpose            string         `gorm:"type:text" json:"purpose"`
	Collateral         string         `gorm:"type:text" json:"collateral"`
	RepayViaMobile     bool           `gorm:"default:false" json:"repay_via_mobile_money"`
	ApplicationDate    time.Time      `gorm:"autoCreateTime" json:"application_date"`
	ApprovalDate       *time.Time     `json:"approval_date"`
	ApprovedByID       *uint          `json:"approved_by"`
	DisbursementDate   *time.Time     `json:"disbursement_date"`
	DisbursedByID      *uint          `json:"disbursed_by"`
	MaturityDate       *time.Time     `json:"maturity_date"`
	ClosedAt           *time.Time     `json:"closed_at"`
	ClosedByID         *uint          `json:"closed_by"`
	WrittenOffAt       *time.Time     `json:"written_off_at"`
	WrittenOffByID     *uint          `json:"written_off_by"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedByID        *uint          `json:"created_by"`

	Member     *Member         `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Product    *LoanProduct    `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ApprovedBy *User           `gorm:"foreignKey:ApprovedByID" json:"-"`
	Repayments []LoanRepayment `gorm:"foreignKey:LoanID" json:"repayments,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// PrincipalAmount returns the approved amount, or the requested amount when
// approval has not set one
func (l *Loan) PrincipalAmount() float64 {
	if l.AmountApproved != nil && *l.AmountApproved > 0 {
		return *l.AmountApproved
	}
	return l.AmountRequested
}

// TotalInterest computes simple interest over the full duration. The
// calculation is flat-style regardless of InterestType; reducing-balance
// products are intentionally billed the same way.
func (l *Loan) TotalInterest() float64 {
	amount := l.PrincipalAmount()
	if amount <= 0 {
		return 0
	}
	return (amount * l.InterestRate * float64(l.DurationMonths)) / (12 * 100)
}

// TotalAmount is principal plus total interest
func (l *Loan) TotalAmount() float64 {
	amount := l.PrincipalAmount()
	if amount <= 0 {
		return 0
	}
	return amount + l.TotalInterest()
}

// RemainingBalance returns the amount still owed given the sum of repayments
func (l *Loan) RemainingBalance(totalRepaid float64) float64 {
	remaining := l.TotalAmount() - totalRepaid
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFullyRepaid reports whether the loan qualifies for auto-closure
func (l *Loan) IsFullyRepaid(totalRepaid float64) bool {
	if l.Status != LoanStatusActive && l.Status != LoanStatusDisbursed {
		return false
	}
	return l.RemainingBalance(totalRepaid) <= 0
}

// FormatLoanNumber builds a loan number for a sacco, year and sequence,
// e.g. "KAMPALA SACCO-2026-00042"
func FormatLoanNumber(saccoName string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%05d", strings.ToUpper(saccoName), year, seq)
}

// LoanNumberPrefix returns the per-sacco per-year prefix loan numbers are
// sequenced under
func LoanNumberPrefix(saccoName string, year int) string {
	return fmt.Sprintf("%s-%d-", strings.ToUpper(saccoName), year)
}

// ParseLoanNumberSeq extracts the trailing sequence from a loan number.
// Malformed numbers report ok=false; callers fall back to sequence 1 and the
// unique index catches any collision.
func ParseLoanNumberSeq(loanNumber string) (int, bool) {
	idx := strings.LastIndex(loanNumber, "-")
	if idx < 0 || idx == len(loanNumber)-1 {
		return 0, false
	}
	seq, err := strconv.Atoi(loanNumber[idx+1:])
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// LoanRepayment belongs to a loan; append-only after creation
type LoanRepayment struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	LoanID             uint      `gorm:"not null;index" json:"loan_id"`
	Amount             float64   `gorm:"type:decimal(14,2);not null" json:"amount"`
	AppliedToPrincipal float64   `gorm:"type:decimal(14,2);default:0" json:"applied_to_principal"`
	AppliedToInterest  float64   `gorm:"type:decimal(14,2);default:0" json:"applied_to_interest"`
	AppliedToFees      float64   `gorm:"type:decimal(14,2);default:0" json:"applied_to_fees"`
	PaymentDate        time.Time `gorm:"autoCreateTime" json:"payment_date"`
	PaymentMethod      string    `gorm:"size:50;default:'Cash'" json:"payment_method"`
	ReferenceNumber    string    `gorm:"size:100" json:"reference_number"`
	MobileMoneyTxID    *string   `gorm:"size:100;uniqueIndex" json:"mobile_money_tx_id"`
	ReceivedByID       *uint     `json:"received_by"`
	CreatedByID        *uint     `json:"created_by"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`

	Loan *Loan `gorm:"foreignKey:LoanID" json:"-"`
}

func (LoanRepayment) TableName() string {
	return "loan_repayments"
}
