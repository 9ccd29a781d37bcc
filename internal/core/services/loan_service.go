package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/core/scope"
)

// Loan errors
var (
	ErrLoanNotFound          = errors.New("loan not found")
	ErrLoanProductNotFound   = errors.New("loan product not found")
	ErrLoanProductInactive   = errors.New("loan product is not active")
	ErrInvalidLoanTransition = errors.New("invalid loan state transition")
	ErrLoanClosed            = errors.New("loan is closed")
	ErrLoanNotRepayable      = errors.New("loan is not accepting repayments")
	ErrInvalidLoanAmount     = errors.New("amount outside product limits")
	ErrInvalidLoanDuration   = errors.New("duration outside product limits")
	ErrInvalidRepayment      = errors.New("invalid repayment amount")
	ErrRepaymentSplitExceeds = errors.New("principal and interest split exceeds repayment amount")
	ErrDuplicateMobileTxID   = errors.New("mobile money transaction already recorded")
)

// defaultPrincipalShare is the repayment split applied when the caller
// provides neither side of the principal/interest breakdown
const defaultPrincipalShare = 0.70

// LoanService drives the loan lifecycle: application, approval, disbursement,
// repayment and the terminal branches
type LoanService struct {
	loanRepo        repositories.LoanRepository
	memberRepo      repositories.MemberRepository
	saccoRepo       repositories.SaccoRepository
	notificationSvc *NotificationService
	activitySvc     *ActivityService
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repositories.LoanRepository,
	memberRepo repositories.MemberRepository,
	saccoRepo repositories.SaccoRepository,
	notificationSvc *NotificationService,
	activitySvc *ActivityService,
) *LoanService {
	return &LoanService{
		loanRepo:        loanRepo,
		memberRepo:      memberRepo,
		saccoRepo:       saccoRepo,
		notificationSvc: notificationSvc,
		activitySvc:     activitySvc,
	}
}

// LoanProductInput represents loan product input
type LoanProductInput struct {
	SaccoID           uint    `json:"sacco_id" validate:"required"`
	Name              string  `json:"name" validate:"required,max=100"`
	ProductCode       string  `json:"product_code" validate:"required,max=20"`
	Description       string  `json:"description"`
	InterestRate      float64 `json:"interest_rate" validate:"required"`
	InterestType      string  `json:"interest_type"`
	MinAmount         float64 `json:"min_amount" validate:"required"`
	MaxAmount         float64 `json:"max_amount" validate:"required"`
	MinDurationMonths int     `json:"min_duration_months" validate:"required"`
	MaxDurationMonths int     `json:"max_duration_months" validate:"required"`
	GracePeriodMonths int     `json:"grace_period_months"`
}

// CreateProduct creates a loan product in the principal's sacco
func (s *LoanService) CreateProduct(ctx context.Context, p scope.Principal, input *LoanProductInput) (*models.LoanProduct, error) {
	if err := requireSaccoScope(ctx, s.saccoRepo, p, input.SaccoID); err != nil {
		return nil, err
	}

	interestType := input.InterestType
	if interestType == "" {
		interestType = models.InterestTypeReducing
	}

	product := &models.LoanProduct{
		SaccoID:           input.SaccoID,
		Name:              input.Name,
		ProductCode:       strings.ToUpper(input.ProductCode),
		Description:       input.Description,
		InterestRate:      input.InterestRate,
		InterestType:      interestType,
		MinAmount:         input.MinAmount,
		MaxAmount:         input.MaxAmount,
		MinDurationMonths: input.MinDurationMonths,
		MaxDurationMonths: input.MaxDurationMonths,
		GracePeriodMonths: input.GracePeriodMonths,
		IsActive:          true,
	}
	if err := s.loanRepo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ListProducts lists loan products visible to the principal
func (s *LoanService) ListProducts(ctx context.Context, p scope.Principal) ([]*models.LoanProduct, error) {
	return s.loanRepo.ListProducts(ctx, scope.Resolve(p))
}

// ApplyInput represents a loan application
type ApplyInput struct {
	MemberID       uint    `json:"member_id" validate:"required"`
	ProductID      uint    `json:"product_id" validate:"required"`
	Amount         float64 `json:"amount" validate:"required"`
	DurationMonths int     `json:"duration_months" validate:"required"`
	Purpose        string  `json:"purpose"`
	Collateral     string  `json:"collateral"`
	RepayViaMobile bool    `json:"repay_via_mobile_money"`
}

// Apply submits a loan application. The loan number is assigned inside the
// create transaction; the application starts in pending_approval.
func (s *LoanService) Apply(ctx context.Context, p scope.Principal, input *ApplyInput) (*models.Loan, error) {
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

	product, err := s.loanRepo.GetProductByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanProductNotFound
		}
		return nil, err
	}
	if !product.IsActive || product.SaccoID != member.SaccoID {
		return nil, ErrLoanProductInactive
	}

	if input.Amount < product.MinAmount || input.Amount > product.MaxAmount {
		return nil, ErrInvalidLoanAmount
	}
	if input.DurationMonths < product.MinDurationMonths || input.DurationMonths > product.MaxDurationMonths {
		return nil, ErrInvalidLoanDuration
	}

	sacco := member.Sacco
	if sacco == nil {
		sacco, err = s.saccoRepo.GetByID(ctx, member.SaccoID)
		if err != nil {
			return nil, err
		}
	}
	if sacco.LoanMaxAmount > 0 && (input.Amount < sacco.LoanMinAmount || input.Amount > sacco.LoanMaxAmount) {
		return nil, ErrInvalidLoanAmount
	}

	creatorID := p.UserID
	loan := &models.Loan{
		MemberID:        member.ID,
		ProductID:       product.ID,
		LoanRef:         newLoanRef(member.MemberNumber),
		AmountRequested: input.Amount,
		InterestRate:    product.InterestRate,
		InterestType:    product.InterestType,
		DurationMonths:  input.DurationMonths,
		Status:          models.LoanStatusPendingApproval,
		Purpose:         input.Purpose,
		Collateral:      input.Collateral,
		RepayViaMobile:  input.RepayViaMobile,
		CreatedByID:     &creatorID,
	}

	if err := s.loanRepo.CreateNumbered(ctx, loan, sacco.Name); err != nil {
		return nil, err
	}

	s.notifyLoan(ctx, member, loan, models.NotifyLoanApplication, "Loan application received",
		fmt.Sprintf("Your application %s for %.2f is pending approval.", loan.LoanNumber, loan.AmountRequested))
	s.recordLoan(ctx, p, loan, member, models.ActionCreate, fmt.Sprintf("Applied for loan %s", loan.LoanNumber))

	log.Printf("✅ Loan application %s created for member %s", loan.LoanNumber, member.MemberNumber)
	return loan, nil
}

// GetLoan gets a loan the principal may see
func (s *LoanService) GetLoan(ctx context.Context, p scope.Principal, id uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	if !scope.CanAccessMember(scope.Resolve(p), loan.Member) {
		return nil, ErrLoanNotFound
	}
	return loan, nil
}

// ListLoans lists loans visible to the principal, optionally by status
func (s *LoanService) ListLoans(ctx context.Context, p scope.Principal, status string, offset, limit int) ([]*models.Loan, int64, error) {
	return s.loanRepo.List(ctx, scope.Resolve(p), status, offset, limit)
}

// ApproveInput represents approval input
type ApproveInput struct {
	AmountApproved *float64 `json:"amount_approved"`
	Notes          string   `json:"notes"`
}

// Approve moves a pending application to approved
func (s *LoanService) Approve(ctx context.Context, p scope.Principal, id uint, input *ApproveInput) (*models.Loan, error) {
	loan, err := s.GetLoan(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionLoan(loan.Status, models.LoanStatusApproved) {
		return nil, ErrInvalidLoanTransition
	}

	amount := loan.AmountRequested
	if input != nil && input.AmountApproved != nil && *input.AmountApproved > 0 {
		amount = *input.AmountApproved
	}

	now := time.Now()
	approverID := p.UserID
	loan.Status = models.LoanStatusApproved
	loan.AmountApproved = &amount
	loan.ApprovalDate = &now
	loan.ApprovedByID = &approverID

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.notifyLoan(ctx, loan.Member, loan, models.NotifyLoanApproval, "Loan approved",
		fmt.Sprintf("Loan %s approved for %.2f.", loan.LoanNumber, amount))
	s.recordLoan(ctx, p, loan, loan.Member, models.ActionApprove, fmt.Sprintf("Approved loan %s", loan.LoanNumber))

	log.Printf("✅ Loan approved: %s", loan.LoanNumber)
	return loan, nil
}

// Decline moves a pending application to declined
func (s *LoanService) Decline(ctx context.Context, p scope.Principal, id uint, reason string) (*models.Loan, error) {
	loan, err := s.transition(ctx, p, id, models.LoanStatusDeclined)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Loan application %s was declined.", loan.LoanNumber)
	if reason != "" {
		message = fmt.Sprintf("%s Reason: %s", message, reason)
	}
	s.notifyLoan(ctx, loan.Member, loan, models.NotifyLoanRejection, "Loan declined", message)
	s.recordLoan(ctx, p, loan, loan.Member, models.ActionReject, fmt.Sprintf("Declined loan %s", loan.LoanNumber))
	return loan, nil
}

// Withdraw withdraws a pending application
func (s *LoanService) Withdraw(ctx context.Context, p scope.Principal, id uint) (*models.Loan, error) {
	loan, err := s.transition(ctx, p, id, models.LoanStatusWithdrawn)
	if err != nil {
		return nil, err
	}
	s.recordLoan(ctx, p, loan, loan.Member, models.ActionUpdate, fmt.Sprintf("Withdrew loan %s", loan.LoanNumber))
	return loan, nil
}

// DisburseInput represents disbursement input
type DisburseInput struct {
	AmountDisbursed *float64 `json:"amount_disbursed"`
	Reference       string   `json:"reference"`
}

// Disburse pays out an approved loan and starts the repayment clock
func (s *LoanService) Disburse(ctx context.Context, p scope.Principal, id uint, input *DisburseInput) (*models.Loan, error) {
	loan, err := s.GetLoan(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionLoan(loan.Status, models.LoanStatusDisbursed) {
		return nil, ErrInvalidLoanTransition
	}

	amount := loan.PrincipalAmount()
	if input != nil && input.AmountDisbursed != nil && *input.AmountDisbursed > 0 {
		amount = *input.AmountDisbursed
	}

	now := time.Now()
	maturity := now.AddDate(0, loan.DurationMonths, 0)
	disburserID := p.UserID
	loan.Status = models.LoanStatusDisbursed
	loan.AmountDisbursed = &amount
	loan.DisbursementDate = &now
	loan.DisbursedByID = &disburserID
	loan.MaturityDate = &maturity

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.notifyLoan(ctx, loan.Member, loan, models.NotifyLoanDisbursement, "Loan disbursed",
		fmt.Sprintf("Loan %s disbursed: %.2f. Total payable: %.2f by %s.",
			loan.LoanNumber, amount, loan.TotalAmount(), maturity.Format("2006-01-02")))
	s.recordLoan(ctx, p, loan, loan.Member, models.ActionUpdate, fmt.Sprintf("Disbursed loan %s", loan.LoanNumber))

	log.Printf("✅ Loan disbursed: %s (%.2f)", loan.LoanNumber, amount)
	return loan, nil
}

// WriteOff writes off a disbursed or active loan
func (s *LoanService) WriteOff(ctx context.Context, p scope.Principal, id uint) (*models.Loan, error) {
	loan, err := s.GetLoan(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionLoan(loan.Status, models.LoanStatusWrittenOff) {
		return nil, ErrInvalidLoanTransition
	}

	now := time.Now()
	writerID := p.UserID
	loan.Status = models.LoanStatusWrittenOff
	loan.WrittenOffAt = &now
	loan.WrittenOffByID = &writerID

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.recordLoan(ctx, p, loan, loan.Member, models.ActionUpdate, fmt.Sprintf("Wrote off loan %s", loan.LoanNumber))
	log.Printf("Loan written off: %s", loan.LoanNumber)
	return loan, nil
}

// MarkDefaulted flags a disbursed or active loan as defaulted
func (s *LoanService) MarkDefaulted(ctx context.Context, p scope.Principal, id uint) (*models.Loan, error) {
	loan, err := s.transition(ctx, p, id, models.LoanStatusDefaulted)
	if err != nil {
		return nil, err
	}
	s.recordLoan(ctx, p, loan, loan.Member, models.ActionUpdate, fmt.Sprintf("Marked loan %s defaulted", loan.LoanNumber))
	return loan, nil
}

// RepaymentInput represents a repayment posting
type RepaymentInput struct {
	Amount             float64 `json:"amount" validate:"required"`
	AppliedToPrincipal float64 `json:"applied_to_principal"`
	AppliedToInterest  float64 `json:"applied_to_interest"`
	PaymentMethod      string  `json:"payment_method"`
	ReferenceNumber    string  `json:"reference_number"`
	MobileMoneyTxID    *string `json:"mobile_money_tx_id"`
}

// AddRepayment records a repayment against a loan. The principal/interest
// split defaults to 70/30 when neither side is given, and the missing side is
// derived when only one is. A repayment that settles the total payable closes
// the loan in the same transaction.
func (s *LoanService) AddRepayment(ctx context.Context, p scope.Principal, loanID uint, input *RepaymentInput) (*models.LoanRepayment, *models.Loan, error) {
	loan, err := s.GetLoan(ctx, p, loanID)
	if err != nil {
		return nil, nil, err
	}

	if err := repayableStatus(loan.Status); err != nil {
		return nil, nil, err
	}
	if input.Amount <= 0 {
		return nil, nil, ErrInvalidRepayment
	}

	principal, interest, err := splitRepayment(input.Amount, input.AppliedToPrincipal, input.AppliedToInterest)
	if err != nil {
		return nil, nil, err
	}

	method := input.PaymentMethod
	if method == "" {
		method = "Cash"
	}

	receiverID := p.UserID
	repayment := &models.LoanRepayment{
		LoanID:             loan.ID,
		Amount:             input.Amount,
		AppliedToPrincipal: principal,
		AppliedToInterest:  interest,
		AppliedToFees:      input.Amount - principal - interest,
		PaymentMethod:      method,
		ReferenceNumber:    input.ReferenceNumber,
		MobileMoneyTxID:    normalizeTxID(input.MobileMoneyTxID),
		ReceivedByID:       &receiverID,
		CreatedByID:        &receiverID,
	}

	var closed bool
	err = s.loanRepo.Transaction(ctx, func(tx *gorm.DB) error {
		// Status can change between the scoped read and this transaction;
		// re-check on the locked row so concurrent settlements cannot both
		// pass the guard.
		var current models.Loan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", loan.ID).
			First(&current).Error; err != nil {
			return err
		}
		if err := repayableStatus(current.Status); err != nil {
			return err
		}
		loan.Status = current.Status

		if err := tx.Create(repayment).Error; err != nil {
			return err
		}

		var totalRepaid float64
		if err := tx.Model(&models.LoanRepayment{}).
			Where("loan_id = ?", loan.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&totalRepaid).Error; err != nil {
			return err
		}

		if loan.Status == models.LoanStatusDisbursed {
			loan.Status = models.LoanStatusActive
		}
		if loan.IsFullyRepaid(totalRepaid) {
			now := time.Now()
			closerID := p.UserID
			loan.Status = models.LoanStatusClosed
			loan.ClosedAt = &now
			loan.ClosedByID = &closerID
			closed = true
		}
		return tx.Save(loan).Error
	})
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, nil, ErrDuplicateMobileTxID
		}
		return nil, nil, err
	}

	if closed {
		s.notifyLoan(ctx, loan.Member, loan, models.NotifyLoanFullyRepaid, "Loan fully repaid",
			fmt.Sprintf("Loan %s has been fully repaid and is now closed.", loan.LoanNumber))
		log.Printf("✅ Loan fully repaid and closed: %s", loan.LoanNumber)
	}
	s.recordLoan(ctx, p, loan, loan.Member, models.ActionCreate,
		fmt.Sprintf("Repayment of %.2f on loan %s", input.Amount, loan.LoanNumber))

	return repayment, loan, nil
}

// ListRepayments lists repayments visible to the principal for one loan
func (s *LoanService) ListRepayments(ctx context.Context, p scope.Principal, loanID uint) ([]*models.LoanRepayment, error) {
	if _, err := s.GetLoan(ctx, p, loanID); err != nil {
		return nil, err
	}
	return s.loanRepo.ListRepayments(ctx, scope.Resolve(p), loanID)
}

// LoanBalance returns the remaining balance on a loan
func (s *LoanService) LoanBalance(ctx context.Context, p scope.Principal, loanID uint) (*models.Loan, float64, error) {
	loan, err := s.GetLoan(ctx, p, loanID)
	if err != nil {
		return nil, 0, err
	}
	totalRepaid, err := s.loanRepo.TotalRepaid(ctx, loanID)
	if err != nil {
		return nil, 0, err
	}
	return loan, loan.RemainingBalance(totalRepaid), nil
}

// transition applies one guarded status change with no side effects
func (s *LoanService) transition(ctx context.Context, p scope.Principal, id uint, to string) (*models.Loan, error) {
	loan, err := s.GetLoan(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionLoan(loan.Status, to) {
		return nil, ErrInvalidLoanTransition
	}
	loan.Status = to
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *LoanService) notifyLoan(ctx context.Context, member *models.Member, loan *models.Loan, actionType, title, message string) {
	if err := s.notificationSvc.NotifyLoanEvent(ctx, member, loan, actionType, title, message, loanEventPriority(actionType)); err != nil {
		log.Printf("Warning: loan notification failed: %v", err)
	}
}

// loanEventPriority maps a loan event to its notification priority. Approval
// and disbursement are high priority; everything else is medium.
func loanEventPriority(actionType string) string {
	switch actionType {
	case models.NotifyLoanApproval, models.NotifyLoanDisbursement:
		return models.PriorityHigh
	}
	return models.PriorityMedium
}

func (s *LoanService) recordLoan(ctx context.Context, p scope.Principal, loan *models.Loan, member *models.Member, action, description string) {
	loanID := loan.ID
	entry := RecordInput{
		Action:      action,
		ModelName:   "Loan",
		ObjectID:    &loanID,
		ObjectName:  loan.LoanNumber,
		Description: description,
	}
	if member != nil {
		saccoID := member.SaccoID
		entry.SaccoID = &saccoID
	}
	if err := s.activitySvc.Record(ctx, p, entry); err != nil {
		log.Printf("Warning: activity log failed: %v", err)
	}
}

// splitRepayment resolves the principal/interest breakdown of a repayment
func splitRepayment(amount, principal, interest float64) (float64, float64, error) {
	if principal < 0 || interest < 0 {
		return 0, 0, ErrInvalidRepayment
	}

	switch {
	case principal == 0 && interest == 0:
		principal = amount * defaultPrincipalShare
		interest = amount - principal
	case principal == 0:
		if interest > amount {
			return 0, 0, ErrRepaymentSplitExceeds
		}
		principal = amount - interest
	case interest == 0:
		if principal > amount {
			return 0, 0, ErrRepaymentSplitExceeds
		}
		interest = amount - principal
	}

	if principal+interest > amount {
		return 0, 0, ErrRepaymentSplitExceeds
	}
	return principal, interest, nil
}

// newLoanRef builds a unique application reference
func newLoanRef(memberNumber string) string {
	return fmt.Sprintf("LOAN-%s-%d-%s", memberNumber, time.Now().Unix(), uuid.NewString()[:8])
}

// repayableStatus reports whether a loan in the given status accepts
// repayments
func repayableStatus(status string) error {
	switch status {
	case models.LoanStatusDisbursed, models.LoanStatusActive:
		return nil
	case models.LoanStatusClosed:
		return ErrLoanClosed
	}
	return ErrLoanNotRepayable
}

func normalizeTxID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}

// requireSaccoScope rejects writes to saccos outside the principal's scope.
// Regional admins are checked against the target sacco's region.
func requireSaccoScope(ctx context.Context, saccoRepo repositories.SaccoRepository, p scope.Principal, saccoID uint) error {
	d := scope.Resolve(p)
	switch d.Kind {
	case scope.AllAccess:
		return nil
	case scope.RegionAccess:
		sacco, err := saccoRepo.GetByID(ctx, saccoID)
		if err != nil {
			return ErrSaccoScopeMismatch
		}
		if sacco.RegionID != nil && *sacco.RegionID == d.RegionID {
			return nil
		}
	case scope.SaccoAccess:
		if d.SaccoID == saccoID {
			return nil
		}
	}
	return ErrSaccoScopeMismatch
}
