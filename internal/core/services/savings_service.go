package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/core/scope"
)

// Savings errors
var (
	ErrSavingProductNotFound = errors.New("saving product not found")
	ErrSavingProductInactive = errors.New("saving product is not active")
	ErrAccountNotFound       = errors.New("savings account not found")
	ErrAccountNotOpen        = errors.New("savings account is not open")
	ErrInvalidTxnType        = errors.New("invalid transaction type")
	ErrInvalidAccountStatus  = errors.New("invalid account status")
	ErrInvalidTxnAmount      = errors.New("transaction amount must be positive")
	ErrInsufficientBalance   = errors.New("insufficient balance")
)

// SavingsService manages savings accounts and their append-only ledger
type SavingsService struct {
	savingsRepo     repositories.SavingsRepository
	memberRepo      repositories.MemberRepository
	saccoRepo       repositories.SaccoRepository
	notificationSvc *NotificationService
	activitySvc     *ActivityService
}

// NewSavingsService creates a new savings service
func NewSavingsService(
	savingsRepo repositories.SavingsRepository,
	memberRepo repositories.MemberRepository,
	saccoRepo repositories.SaccoRepository,
	notificationSvc *NotificationService,
	activitySvc *ActivityService,
) *SavingsService {
	return &SavingsService{
		savingsRepo:     savingsRepo,
		memberRepo:      memberRepo,
		saccoRepo:       saccoRepo,
		notificationSvc: notificationSvc,
		activitySvc:     activitySvc,
	}
}

// SavingProductInput represents saving product input
type SavingProductInput struct {
	SaccoID        uint    `json:"sacco_id" validate:"required"`
	Name           string  `json:"name" validate:"required,max=100"`
	ProductCode    string  `json:"product_code" validate:"required,max=20"`
	Description    string  `json:"description"`
	MinimumBalance float64 `json:"minimum_balance"`
	InterestRate   float64 `json:"interest_rate"`
	IsTermProduct  bool    `json:"is_term_product"`
	TermMonths     *int    `json:"term_months"`
}

// CreateProduct creates a saving product in the principal's sacco
func (s *SavingsService) CreateProduct(ctx context.Context, p scope.Principal, input *SavingProductInput) (*models.SavingProduct, error) {
	if err := requireSaccoScope(ctx, s.saccoRepo, p, input.SaccoID); err != nil {
		return nil, err
	}

	product := &models.SavingProduct{
		SaccoID:        input.SaccoID,
		Name:           input.Name,
		ProductCode:    strings.ToUpper(input.ProductCode),
		Description:    input.Description,
		MinimumBalance: input.MinimumBalance,
		InterestRate:   input.InterestRate,
		IsTermProduct:  input.IsTermProduct,
		TermMonths:     input.TermMonths,
		IsActive:       true,
	}
	if err := s.savingsRepo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ListProducts lists saving products visible to the principal
func (s *SavingsService) ListProducts(ctx context.Context, p scope.Principal) ([]*models.SavingProduct, error) {
	return s.savingsRepo.ListProducts(ctx, scope.Resolve(p))
}

// OpenAccountInput represents account opening input
type OpenAccountInput struct {
	MemberID         uint `json:"member_id" validate:"required"`
	ProductID        uint `json:"product_id" validate:"required"`
	ReceiveViaMobile bool `json:"receive_via_mobile_money"`
}

// OpenAccount opens a savings account for a member. The account number is
// assigned inside the create transaction.
func (s *SavingsService) OpenAccount(ctx context.Context, p scope.Principal, input *OpenAccountInput) (*models.SavingsAccount, error) {
	member, err := s.memberRepo.GetByID(ctx, input.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if !scope.CanAccessMember(scope.Resolve(p), member) {
		return nil, ErrMemberNotFound
	}

	product, err := s.savingsRepo.GetProductByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSavingProductNotFound
		}
		return nil, err
	}
	if !product.IsActive || product.SaccoID != member.SaccoID {
		return nil, ErrSavingProductInactive
	}

	creatorID := p.UserID
	account := &models.SavingsAccount{
		MemberID:         member.ID,
		ProductID:        product.ID,
		Status:           models.AccountStatusOpen,
		ReceiveViaMobile: input.ReceiveViaMobile,
		IsActive:         true,
		CreatedByID:      &creatorID,
	}
	if err := s.savingsRepo.CreateNumbered(ctx, account); err != nil {
		return nil, err
	}

	accountID := account.ID
	saccoID := member.SaccoID
	if err := s.activitySvc.Record(ctx, p, RecordInput{
		Action:      models.ActionCreate,
		ModelName:   "SavingsAccount",
		ObjectID:    &accountID,
		ObjectName:  account.AccountNumber,
		Description: fmt.Sprintf("Opened savings account %s for %s", account.AccountNumber, member.MemberNumber),
		SaccoID:     &saccoID,
	}); err != nil {
		log.Printf("Warning: activity log failed: %v", err)
	}

	log.Printf("✅ Savings account opened: %s (member %s)", account.AccountNumber, member.MemberNumber)
	return account, nil
}

// GetAccount gets a savings account the principal may see
func (s *SavingsService) GetAccount(ctx context.Context, p scope.Principal, id uint) (*models.SavingsAccount, error) {
	account, err := s.savingsRepo.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if !scope.CanAccessMember(scope.Resolve(p), account.Member) {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// ListAccounts lists savings accounts visible to the principal
func (s *SavingsService) ListAccounts(ctx context.Context, p scope.Principal, offset, limit int) ([]*models.SavingsAccount, int64, error) {
	return s.savingsRepo.ListAccounts(ctx, scope.Resolve(p), offset, limit)
}

// SetAccountStatus moves an account between Open, Frozen and Closed
func (s *SavingsService) SetAccountStatus(ctx context.Context, p scope.Principal, id uint, status string) (*models.SavingsAccount, error) {
	if status != models.AccountStatusOpen && status != models.AccountStatusFrozen && status != models.AccountStatusClosed {
		return nil, ErrInvalidAccountStatus
	}

	account, err := s.GetAccount(ctx, p, id)
	if err != nil {
		return nil, err
	}

	account.Status = status
	if err := s.savingsRepo.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// PostTransactionInput represents a ledger posting
type PostTransactionInput struct {
	TxnType         string  `json:"txn_type" validate:"required"`
	Amount          float64 `json:"amount" validate:"required"`
	Reference       string  `json:"reference"`
	Narration       string  `json:"narration"`
	MobileMoneyTxID *string `json:"mobile_money_tx_id"`
}

// PostTransaction appends one ledger entry and moves the account balance in
// the same transaction. The account row is locked for the duration so the
// stamped running balance can never interleave with a concurrent post.
func (s *SavingsService) PostTransaction(ctx context.Context, p scope.Principal, accountID uint, input *PostTransactionInput) (*models.SavingsTransaction, error) {
	direction := models.TxnDirection(input.TxnType)
	if direction == 0 {
		return nil, ErrInvalidTxnType
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidTxnAmount
	}

	// Visibility check outside the transaction; the locked re-read below is
	// what the balance math uses.
	account, err := s.GetAccount(ctx, p, accountID)
	if err != nil {
		return nil, err
	}
	member := account.Member

	performerID := p.UserID
	txn := &models.SavingsTransaction{
		AccountID:       accountID,
		TxnType:         input.TxnType,
		Amount:          input.Amount,
		Reference:       input.Reference,
		Narration:       input.Narration,
		MobileMoneyTxID: normalizeTxID(input.MobileMoneyTxID),
		PerformedByID:   &performerID,
	}

	err = s.savingsRepo.Transaction(ctx, func(tx *gorm.DB) error {
		var locked models.SavingsAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", accountID).
			First(&locked).Error; err != nil {
			return err
		}

		if locked.Status != models.AccountStatusOpen {
			return ErrAccountNotOpen
		}

		newBalance := locked.Balance + float64(direction)*input.Amount
		if newBalance < 0 {
			return ErrInsufficientBalance
		}

		txn.RunningBalance = newBalance
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		locked.Balance = newBalance
		if input.TxnType == models.TxnInterest {
			locked.InterestAccrued += input.Amount
		}
		if err := tx.Save(&locked).Error; err != nil {
			return err
		}

		account.Balance = locked.Balance
		account.InterestAccrued = locked.InterestAccrued
		return nil
	})
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, ErrDuplicateMobileTxID
		}
		return nil, err
	}

	// Best-effort side channels
	switch input.TxnType {
	case models.TxnDeposit:
		if err := s.notificationSvc.NotifySavingsEvent(ctx, member, account, models.NotifySavingsDeposit, input.Amount); err != nil {
			log.Printf("Warning: savings notification failed: %v", err)
		}
	case models.TxnWithdrawal:
		if err := s.notificationSvc.NotifySavingsEvent(ctx, member, account, models.NotifySavingsWithdrawal, input.Amount); err != nil {
			log.Printf("Warning: savings notification failed: %v", err)
		}
	}
	txnID := txn.ID
	saccoID := member.SaccoID
	if err := s.activitySvc.Record(ctx, p, RecordInput{
		Action:      models.ActionCreate,
		ModelName:   "SavingsTransaction",
		ObjectID:    &txnID,
		ObjectName:  account.AccountNumber,
		Description: fmt.Sprintf("%s of %.2f on account %s", input.TxnType, input.Amount, account.AccountNumber),
		SaccoID:     &saccoID,
	}); err != nil {
		log.Printf("Warning: activity log failed: %v", err)
	}

	return txn, nil
}

// ListTransactions lists ledger entries for an account the principal may see
func (s *SavingsService) ListTransactions(ctx context.Context, p scope.Principal, accountID uint, offset, limit int) ([]*models.SavingsTransaction, int64, error) {
	if _, err := s.GetAccount(ctx, p, accountID); err != nil {
		return nil, 0, err
	}
	return s.savingsRepo.ListTransactions(ctx, scope.Resolve(p), accountID, offset, limit)
}
