package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/core/scope"
)

// maxNumberAttempts bounds the retry loop for generated unique numbers.
// Collisions only happen when two applications for the same sacco race the
// same sequence slot, so a couple of retries is plenty.
const maxNumberAttempts = 5

// isDuplicateKey reports whether an error is a unique-constraint violation
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) scoped(ctx context.Context, d scope.Descriptor) *gorm.DB {
	return d.Apply(r.db.WithContext(ctx).Model(&models.Loan{}), scope.RecordLoan)
}

// CreateProduct creates a new loan product
func (r *loanRepository) CreateProduct(ctx context.Context, product *models.LoanProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetProductByID gets a loan product by ID
func (r *loanRepository) GetProductByID(ctx context.Context, id uint) (*models.LoanProduct, error) {
	var product models.LoanProduct
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct updates a loan product
func (r *loanRepository) UpdateProduct(ctx context.Context, product *models.LoanProduct) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// ListProducts lists loan products visible under the descriptor
func (r *loanRepository) ListProducts(ctx context.Context, d scope.Descriptor) ([]*models.LoanProduct, error) {
	var products []*models.LoanProduct
	err := d.Apply(r.db.WithContext(ctx).Model(&models.LoanProduct{}), scope.RecordLoanProduct).
		Order("loan_products.name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID gets a loan by ID with member and product preloaded
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Member.Sacco").
		Preload("Product").
		Where("id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetByLoanNumber gets a loan by loan number
func (r *loanRepository) GetByLoanNumber(ctx context.Context, loanNumber string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Member.Sacco").
		Preload("Product").
		Where("loan_number = ?", loanNumber).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Update updates a loan
func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// List lists loans visible under the descriptor, optionally by status
func (r *loanRepository) List(ctx context.Context, d scope.Descriptor, status string, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	count := r.scoped(ctx, d)
	if status != "" {
		count = count.Where("loans.status = ?", status)
	}
	if err := count.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.scoped(ctx, d).
		Preload("Member").
		Preload("Product")
	if status != "" {
		q = q.Where("loans.status = ?", status)
	}
	err := q.Offset(offset).Limit(limit).
		Order("loans.id DESC").
		Find(&loans).Error
	if err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

// Count counts loans visible under the descriptor, optionally within statuses
func (r *loanRepository) Count(ctx context.Context, d scope.Descriptor, statuses ...string) (int64, error) {
	var count int64
	q := r.scoped(ctx, d)
	if len(statuses) > 0 {
		q = q.Where("loans.status IN ?", statuses)
	}
	err := q.Count(&count).Error
	return count, err
}

// SumPrincipal sums loan principal visible under the descriptor, preferring
// the approved amount over the requested one
func (r *loanRepository) SumPrincipal(ctx context.Context, d scope.Descriptor, statuses ...string) (float64, error) {
	var total float64
	q := r.scoped(ctx, d)
	if len(statuses) > 0 {
		q = q.Where("loans.status IN ?", statuses)
	}
	err := q.Select("COALESCE(SUM(COALESCE(loans.amount_approved, loans.amount_requested)), 0)").
		Scan(&total).Error
	return total, err
}

// ListMaturingBetween lists disbursed or active loans maturing in the window
func (r *loanRepository) ListMaturingBetween(ctx context.Context, from, to time.Time) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("status IN ?", []string{models.LoanStatusDisbursed, models.LoanStatusActive}).
		Where("maturity_date IS NOT NULL AND maturity_date BETWEEN ? AND ?", from, to).
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// CreateNumbered creates a loan with a generated per-sacco per-year number.
// The sequence read and the insert share one transaction; a duplicate-key
// collision from a concurrent application retries with a fresh sequence.
func (r *loanRepository) CreateNumbered(ctx context.Context, loan *models.Loan, saccoName string) error {
	year := time.Now().Year()
	prefix := models.LoanNumberPrefix(saccoName, year)

	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		lastErr = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var last string
			err := tx.Model(&models.Loan{}).
				Where("loan_number LIKE ?", prefix+"%").
				Order("loan_number DESC").
				Limit(1).
				Pluck("loan_number", &last).Error
			if err != nil {
				return err
			}

			seq := 1
			if last != "" {
				if n, ok := models.ParseLoanNumberSeq(last); ok {
					seq = n + 1
				}
			}
			loan.LoanNumber = models.FormatLoanNumber(saccoName, year, seq)
			return tx.Create(loan).Error
		})
		if lastErr == nil {
			return nil
		}
		if !isDuplicateKey(lastErr) {
			return lastErr
		}
		loan.ID = 0
	}
	return lastErr
}

// CreateRepayment appends a repayment entry
func (r *loanRepository) CreateRepayment(ctx context.Context, repayment *models.LoanRepayment) error {
	return r.db.WithContext(ctx).Create(repayment).Error
}

// ListRepayments lists repayments visible under the descriptor, optionally
// for one loan
func (r *loanRepository) ListRepayments(ctx context.Context, d scope.Descriptor, loanID uint) ([]*models.LoanRepayment, error) {
	var repayments []*models.LoanRepayment
	q := d.Apply(r.db.WithContext(ctx).Model(&models.LoanRepayment{}), scope.RecordLoanRepayment)
	if loanID != 0 {
		q = q.Where("loan_repayments.loan_id = ?", loanID)
	}
	err := q.Order("loan_repayments.id DESC").Find(&repayments).Error
	if err != nil {
		return nil, err
	}
	return repayments, nil
}

// TotalRepaid sums all repayments against one loan
func (r *loanRepository) TotalRepaid(ctx context.Context, loanID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.LoanRepayment{}).
		Where("loan_id = ?", loanID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// SumRepaid sums repayments visible under the descriptor
func (r *loanRepository) SumRepaid(ctx context.Context, d scope.Descriptor) (float64, error) {
	var total float64
	err := d.Apply(r.db.WithContext(ctx).Model(&models.LoanRepayment{}), scope.RecordLoanRepayment).
		Select("COALESCE(SUM(loan_repayments.amount), 0)").
		Scan(&total).Error
	return total, err
}

// Transaction runs fn inside a database transaction
func (r *loanRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
