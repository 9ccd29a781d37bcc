package models

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Savings account statuses
const (
	AccountStatusOpen   = "Open"
	AccountStatusClosed = "Closed"
	AccountStatusFrozen = "Frozen"
)

// Savings transaction types
const (
	TxnDeposit    = "Deposit"
	TxnWithdrawal = "Withdrawal"
	TxnInterest   = "Interest"
	TxnFee        = "Fee"
	TxnTransfer   = "Transfer"
)

// TxnDirection returns +1 for additive transaction types, -1 for subtractive
// ones, and 0 for unknown types.
func TxnDirection(txnType string) int {
	switch txnType {
	case TxnDeposit, TxnInterest, TxnTransfer:
		return 1
	case TxnWithdrawal, TxnFee:
		return -1
	}
	return 0
}

// SavingProduct belongs to a sacco
type SavingProduct struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SaccoID        uint           `gorm:"not null;index" json:"sacco_id"`
	Name           string         `gorm:"size:100;not null" json:"name"`
	ProductCode    string         `gorm:"size:20;uniqueIndex;not null" json:"product_code"`
	Description    string         `gorm:"type:text" json:"description"`
	MinimumBalance float64        `gorm:"type:decimal(14,2);default:0" json:"minimum_balance"`
	InterestRate   float64        `gorm:"type:decimal(5,2);default:0" json:"interest_rate"`
	IsTermProduct  bool           `gorm:"default:false" json:"is_term_product"`
	TermMonths     *int           `json:"term_months"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Sacco *Sacco `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
}

func (SavingProduct) TableName() string {
	return "saving_products"
}

// SavingsAccount holds the authoritative current balance, reconciled against
// the append-only transaction ledger
type SavingsAccount struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	MemberID         uint           `gorm:"not null;index" json:"member_id"`
	ProductID        uint           `gorm:"not null;index" json:"product_id"`
	AccountNumber    string         `gorm:"size:50;uniqueIndex;not null" json:"account_number"`
	Status           string         `gorm:"size:20;default:'Open'" json:"status"`
	Balance          float64        `gorm:"type:decimal(14,2);default:0" json:"balance"`
	InterestAccrued  float64        `gorm:"type:decimal(14,2);default:0" json:"interest_accrued"`
	ReceiveViaMobile bool           `gorm:"default:false" json:"receive_via_mobile_money"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedByID      *uint          `json:"created_by"`

	Member       *Member              `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Product      *SavingProduct       `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Transactions []SavingsTransaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}

func (SavingsAccount) TableName() string {
	return "savings_accounts"
}

// SavingsTransaction is one ledger entry; running_balance is the cumulative
// balance after this entry, stamped at insert time
type SavingsTransaction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AccountID       uint      `gorm:"not null;index" json:"account_id"`
	TxnType         string    `gorm:"size:20;not null" json:"txn_type"`
	Amount          float64   `gorm:"type:decimal(14,2);not null" json:"amount"`
	RunningBalance  float64   `gorm:"type:decimal(14,2);not null" json:"running_balance"`
	Reference       string    `gorm:"size:100" json:"reference"`
	Narration       string    `gorm:"type:text" json:"narration"`
	MobileMoneyTxID *string   `gorm:"size:100;uniqueIndex" json:"mobile_money_tx_id"`
	PerformedByID   *uint     `json:"performed_by"`
	PerformedAt     time.Time `gorm:"autoCreateTime" json:"performed_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	Account *SavingsAccount `gorm:"foreignKey:AccountID" json:"-"`
}

func (SavingsTransaction) TableName() string {
	return "savings_transactions"
}

// SignedAmount returns the transaction amount with the sign of its direction
func (t *SavingsTransaction) SignedAmount() float64 {
	return float64(TxnDirection(t.TxnType)) * t.Amount
}

// ReplayLedger folds the signed amounts of transactions in insertion order
// and verifies each stored running balance against the cumulative sum. It
// returns the final balance and whether every snapshot matched.
func ReplayLedger(txns []SavingsTransaction) (float64, bool) {
	var balance float64
	for i := range txns {
		balance += txns[i].SignedAmount()
		if txns[i].RunningBalance != balance {
			return balance, false
		}
	}
	return balance, true
}

// FormatAccountNumber renders a sequential six-digit account number
func FormatAccountNumber(seq int) string {
	return fmt.Sprintf("%06d", seq)
}

// ParseAccountNumberSeq extracts the sequence from an account number; ok is
// false for non-numeric account numbers
func ParseAccountNumberSeq(accountNumber string) (int, bool) {
	seq, err := strconv.Atoi(accountNumber)
	if err != nil {
		return 0, false
	}
	return seq, true
}
