package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/core/scope"
)

// Finance errors
var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrInvalidFinanceAmount = errors.New("amount must be positive")
)

// FinanceService manages sacco-level funding, expenses and projects
type FinanceService struct {
	financeRepo repositories.FinanceRepository
	saccoRepo   repositories.SaccoRepository
	activitySvc *ActivityService
}

// NewFinanceService creates a new finance service
func NewFinanceService(financeRepo repositories.FinanceRepository, saccoRepo repositories.SaccoRepository, activitySvc *ActivityService) *FinanceService {
	return &FinanceService{
		financeRepo: financeRepo,
		saccoRepo:   saccoRepo,
		activitySvc: activitySvc,
	}
}

// FundingSourceInput represents funding source input
type FundingSourceInput struct {
	SaccoID       uint   `json:"sacco_id" validate:"required"`
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

// CreateFundingSource creates a funding source
func (s *FinanceService) CreateFundingSource(ctx context.Context, p scope.Principal, input *FundingSourceInput) (*models.FundingSource, error) {
	if err := requireSaccoScope(ctx, s.saccoRepo, p, input.SaccoID); err != nil {
		return nil, err
	}

	source := &models.FundingSource{
		SaccoID:       input.SaccoID,
		Name:          input.Name,
		ContactPerson: input.ContactPerson,
		Email:         input.Email,
		Phone:         input.Phone,
		Address:       input.Address,
		IsActive:      true,
	}
	if err := s.financeRepo.CreateFundingSource(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}

// ListFundingSources lists funding sources visible to the principal
func (s *FinanceService) ListFundingSources(ctx context.Context, p scope.Principal) ([]*models.FundingSource, error) {
	return s.financeRepo.ListFundingSources(ctx, scope.Resolve(p))
}

// FundingInput represents funding record input
type FundingInput struct {
	SaccoID      uint       `json:"sacco_id" validate:"required"`
	SourceID     uint       `json:"source_id" validate:"required"`
	Amount       float64    `json:"amount" validate:"required"`
	Status       string     `json:"status"`
	Purpose      string     `json:"purpose"`
	ReceivedDate *time.Time `json:"received_date"`
}

// RecordFunding records a funding receipt
func (s *FinanceService) RecordFunding(ctx context.Context, p scope.Principal, input *FundingInput) (*models.Funding, error) {
	if err := requireSaccoScope(ctx, s.saccoRepo, p, input.SaccoID); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidFinanceAmount
	}

	status := input.Status
	if status == "" {
		status = models.FundingStatusPending
	}

	creatorID := p.UserID
	funding := &models.Funding{
		SaccoID:      input.SaccoID,
		SourceID:     input.SourceID,
		Amount:       input.Amount,
		Status:       status,
		Purpose:      input.Purpose,
		ReceivedDate: input.ReceivedDate,
		CreatedByID:  &creatorID,
	}
	if err := s.financeRepo.CreateFunding(ctx, funding); err != nil {
		return nil, err
	}
	return funding, nil
}

// ListFundings lists funding records visible to the principal
func (s *FinanceService) ListFundings(ctx context.Context, p scope.Principal, offset, limit int) ([]*models.Funding, int64, error) {
	return s.financeRepo.ListFundings(ctx, scope.Resolve(p), offset, limit)
}

// ExpenseCategoryInput represents expense category input
type ExpenseCategoryInput struct {
	SaccoID     uint   `json:"sacco_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// CreateExpenseCategory creates an expense category
func (s *FinanceService) CreateExpenseCategory(ctx context.Context, p scope.Principal, input *ExpenseCategoryInput) (*models.ExpenseCategory, error) {
	if err := requireSaccoScope(ctx, s.saccoRepo, p, input.SaccoID); err != nil {
		return nil, err
	}

	category := &models.ExpenseCategory{
		SaccoID:     input.SaccoID,
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.financeRepo.CreateExpenseCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListExpenseCategories lists expense categories visible to the principal
func (s *FinanceService) ListExpenseCategories(ctx context.Context, p scope.Principal) ([]*models.ExpenseCategory, error) {
	return s.financeRepo.ListExpenseCategories(ctx, scope.Resolve(p))
}

// ExpenseInput represents expense input
type ExpenseInput struct {
	SaccoID       uint       `json:"sacco_id" validate:"required"`
	CategoryID    uint       `json:"category_id" validate:"required"`
	Amount        float64    `json:"amount" validate:"required"`
	Description   string     `json:"description"`
	ExpenseDate   *time.Time `json:"expense_date"`
	ReceiptNumber string     `json:"receipt_number"`
}

// RecordExpense records an expense
func (s *FinanceService) RecordExpense(ctx context.Context, p scope.Principal, input *ExpenseInput) (*models.Expense, error) {
	if err := requireSaccoScope(ctx, s.saccoRepo, p, input.SaccoID); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidFinanceAmount
	}

	creatorID := p.UserID
	expense := &models.Expense{
		SaccoID:       input.SaccoID,
		CategoryID:    input.CategoryID,
		Amount:        input.Amount,
		Description:   input.Description,
		ReceiptNumber: input.ReceiptNumber,
		CreatedByID:   &creatorID,
	}
	if input.ExpenseDate != nil {
		expense.ExpenseDate = *input.ExpenseDate
	} else {
		expense.ExpenseDate = time.Now()
	}
	if err := s.financeRepo.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses lists expenses visible to the principal
func (s *FinanceService) ListExpenses(ctx context.Context, p scope.Principal, offset, limit int) ([]*models.Expense, int64, error) {
	return s.financeRepo.ListExpenses(ctx, scope.Resolve(p), offset, limit)
}

// ProjectInput represents project input
type ProjectInput struct {
	SaccoID     uint       `json:"sacco_id" validate:"required"`
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description"`
	Budget      float64    `json:"budget"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// CreateProject creates a project
func (s *FinanceService) CreateProject(ctx context.Context, p scope.Principal, input *ProjectInput) (*models.Project, error) {
	if err := requireSaccoScope(ctx, s.saccoRepo, p, input.SaccoID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.ProjectStatusPlanning
	}

	creatorID := p.UserID
	project := &models.Project{
		SaccoID:     input.SaccoID,
		Name:        input.Name,
		Description: input.Description,
		Budget:      input.Budget,
		Status:      status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CreatedByID: &creatorID,
	}
	if err := s.financeRepo.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateProjectStatus moves a project between its statuses
func (s *FinanceService) UpdateProjectStatus(ctx context.Context, p scope.Principal, id uint, status string) (*models.Project, error) {
	project, err := s.financeRepo.GetProjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if err := requireSaccoScope(ctx, s.saccoRepo, p, project.SaccoID); err != nil {
		// Out-of-scope reads look like missing records
		return nil, ErrProjectNotFound
	}

	project.Status = status
	if err := s.financeRepo.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects lists projects visible to the principal
func (s *FinanceService) ListProjects(ctx context.Context, p scope.Principal, offset, limit int) ([]*models.Project, int64, error) {
	return s.financeRepo.ListProjects(ctx, scope.Resolve(p), offset, limit)
}
