package repositories

import (
	"context"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/core/scope"
)

// financeRepository implements FinanceRepository interface
type financeRepository struct {
	db *gorm.DB
}

// NewFinanceRepository creates a new finance repository
func NewFinanceRepository(db *gorm.DB) FinanceRepository {
	return &financeRepository{db: db}
}

// CreateFundingSource creates a new funding source
func (r *financeRepository) CreateFundingSource(ctx context.Context, source *models.FundingSource) error {
	return r.db.WithContext(ctx).Create(source).Error
}

// ListFundingSources lists funding sources visible under the descriptor
func (r *financeRepository) ListFundingSources(ctx context.Context, d scope.Descriptor) ([]*models.FundingSource, error) {
	var sources []*models.FundingSource
	err := d.Apply(r.db.WithContext(ctx).Model(&models.FundingSource{}), scope.RecordFundingSource).
		Order("funding_sources.name ASC").
		Find(&sources).Error
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// CreateFunding creates a new funding record
func (r *financeRepository) CreateFunding(ctx context.Context, funding *models.Funding) error {
	return r.db.WithContext(ctx).Create(funding).Error
}

// ListFundings lists funding records visible under the descriptor
func (r *financeRepository) ListFundings(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Funding, int64, error) {
	var fundings []*models.Funding
	var total int64

	scoped := func() *gorm.DB {
		return d.Apply(r.db.WithContext(ctx).Model(&models.Funding{}), scope.RecordFunding)
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := scoped().
		Offset(offset).Limit(limit).
		Order("fundings.id DESC").
		Find(&fundings).Error
	if err != nil {
		return nil, 0, err
	}

	return fundings, total, nil
}

// SumFunding sums funding amounts under the descriptor, optionally by status
func (r *financeRepository) SumFunding(ctx context.Context, d scope.Descriptor, statuses ...string) (float64, error) {
	var total float64
	q := d.Apply(r.db.WithContext(ctx).Model(&models.Funding{}), scope.RecordFunding)
	if len(statuses) > 0 {
		q = q.Where("fundings.status IN ?", statuses)
	}
	err := q.Select("COALESCE(SUM(fundings.amount), 0)").Scan(&total).Error
	return total, err
}

// CreateExpenseCategory creates a new expense category
func (r *financeRepository) CreateExpenseCategory(ctx context.Context, category *models.ExpenseCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// ListExpenseCategories lists expense categories visible under the descriptor
func (r *financeRepository) ListExpenseCategories(ctx context.Context, d scope.Descriptor) ([]*models.ExpenseCategory, error) {
	var categories []*models.ExpenseCategory
	err := d.Apply(r.db.WithContext(ctx).Model(&models.ExpenseCategory{}), scope.RecordExpenseCategory).
		Order("expense_categories.name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateExpense creates a new expense
func (r *financeRepository) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

// ListExpenses lists expenses visible under the descriptor
func (r *financeRepository) ListExpenses(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Expense, int64, error) {
	var expenses []*models.Expense
	var total int64

	scoped := func() *gorm.DB {
		return d.Apply(r.db.WithContext(ctx).Model(&models.Expense{}), scope.RecordExpense)
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := scoped().
		Offset(offset).Limit(limit).
		Order("expenses.id DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}

// SumExpenses sums expenses visible under the descriptor
func (r *financeRepository) SumExpenses(ctx context.Context, d scope.Descriptor) (float64, error) {
	var total float64
	err := d.Apply(r.db.WithContext(ctx).Model(&models.Expense{}), scope.RecordExpense).
		Select("COALESCE(SUM(expenses.amount), 0)").
		Scan(&total).Error
	return total, err
}

// CreateProject creates a new project
func (r *financeRepository) CreateProject(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetProjectByID gets a project by ID
func (r *financeRepository) GetProjectByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject updates a project
func (r *financeRepository) UpdateProject(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// ListProjects lists projects visible under the descriptor
func (r *financeRepository) ListProjects(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Project, int64, error) {
	var projects []*models.Project
	var total int64

	scoped := func() *gorm.DB {
		return d.Apply(r.db.WithContext(ctx).Model(&models.Project{}), scope.RecordProject)
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := scoped().
		Offset(offset).Limit(limit).
		Order("projects.id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// CountProjects counts projects under the descriptor, optionally by status
func (r *financeRepository) CountProjects(ctx context.Context, d scope.Descriptor, status string) (int64, error) {
	var count int64
	q := d.Apply(r.db.WithContext(ctx).Model(&models.Project{}), scope.RecordProject)
	if status != "" {
		q = q.Where("projects.status = ?", status)
	}
	err := q.Count(&count).Error
	return count, err
}
