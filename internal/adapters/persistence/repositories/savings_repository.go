package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/core/scope"
)

// savingsRepository implements SavingsRepository interface
type savingsRepository struct {
	db *gorm.DB
}

// NewSavingsRepository creates a new savings repository
func NewSavingsRepository(db *gorm.DB) SavingsRepository {
	return &savingsRepository{db: db}
}

// CreateProduct creates a new saving product
func (r *savingsRepository) CreateProduct(ctx context.Context, product *models.SavingProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetProductByID gets a saving product by ID
func (r *savingsRepository) GetProductByID(ctx context.Context, id uint) (*models.SavingProduct, error) {
	var product models.SavingProduct
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct updates a saving product
func (r *savingsRepository) UpdateProduct(ctx context.Context, product *models.SavingProduct) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// ListProducts lists saving products visible under the descriptor
func (r *savingsRepository) ListProducts(ctx context.Context, d scope.Descriptor) ([]*models.SavingProduct, error) {
	var products []*models.SavingProduct
	err := d.Apply(r.db.WithContext(ctx).Model(&models.SavingProduct{}), scope.RecordSavingProduct).
		Order("saving_products.name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetAccountByID gets a savings account by ID with member and product
func (r *savingsRepository) GetAccountByID(ctx context.Context, id uint) (*models.SavingsAccount, error) {
	var account models.SavingsAccount
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Member.Sacco").
		Preload("Product").
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByNumber gets a savings account by account number
func (r *savingsRepository) GetAccountByNumber(ctx context.Context, accountNumber string) (*models.SavingsAccount, error) {
	var account models.SavingsAccount
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Member.Sacco").
		Preload("Product").
		Where("account_number = ?", accountNumber).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount updates a savings account
func (r *savingsRepository) UpdateAccount(ctx context.Context, account *models.SavingsAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// ListAccounts lists savings accounts visible under the descriptor
func (r *savingsRepository) ListAccounts(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.SavingsAccount, int64, error) {
	var accounts []*models.SavingsAccount
	var total int64

	scoped := func() *gorm.DB {
		return d.Apply(r.db.WithContext(ctx).Model(&models.SavingsAccount{}), scope.RecordSavingsAccount)
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := scoped().
		Preload("Member").
		Preload("Product").
		Offset(offset).Limit(limit).
		Order("savings_accounts.id DESC").
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

// SumBalances sums account balances visible under the descriptor
func (r *savingsRepository) SumBalances(ctx context.Context, d scope.Descriptor) (float64, error) {
	var total float64
	err := d.Apply(r.db.WithContext(ctx).Model(&models.SavingsAccount{}), scope.RecordSavingsAccount).
		Select("COALESCE(SUM(savings_accounts.balance), 0)").
		Scan(&total).Error
	return total, err
}

// CreateNumbered creates an account with the next sequential account number.
// The sequence read and the insert share one transaction; a duplicate-key
// collision from a concurrent open retries with a fresh sequence.
func (r *savingsRepository) CreateNumbered(ctx context.Context, account *models.SavingsAccount) error {
	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		lastErr = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var last string
			err := tx.Model(&models.SavingsAccount{}).
				Order("account_number DESC").
				Limit(1).
				Pluck("account_number", &last).Error
			if err != nil {
				return err
			}

			seq := 1
			if last != "" {
				if n, ok := models.ParseAccountNumberSeq(last); ok {
					seq = n + 1
				}
			}
			account.AccountNumber = models.FormatAccountNumber(seq)
			return tx.Create(account).Error
		})
		if lastErr == nil {
			return nil
		}
		if !isDuplicateKey(lastErr) {
			return lastErr
		}
		account.ID = 0
	}
	return lastErr
}

// ListTransactions lists ledger entries visible under the descriptor,
// optionally for one account
func (r *savingsRepository) ListTransactions(ctx context.Context, d scope.Descriptor, accountID uint, offset, limit int) ([]*models.SavingsTransaction, int64, error) {
	var txns []*models.SavingsTransaction
	var total int64

	scoped := func() *gorm.DB {
		q := d.Apply(r.db.WithContext(ctx).Model(&models.SavingsTransaction{}), scope.RecordSavingsTransaction)
		if accountID != 0 {
			q = q.Where("savings_transactions.account_id = ?", accountID)
		}
		return q
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := scoped().
		Offset(offset).Limit(limit).
		Order("savings_transactions.id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

// SumTransactions sums ledger entries of one type under the descriptor,
// optionally since a point in time
func (r *savingsRepository) SumTransactions(ctx context.Context, d scope.Descriptor, txnType string, since *time.Time) (float64, error) {
	var total float64
	q := d.Apply(r.db.WithContext(ctx).Model(&models.SavingsTransaction{}), scope.RecordSavingsTransaction).
		Where("savings_transactions.txn_type = ?", txnType)
	if since != nil {
		q = q.Where("savings_transactions.performed_at >= ?", *since)
	}
	err := q.Select("COALESCE(SUM(savings_transactions.amount), 0)").Scan(&total).Error
	return total, err
}

// Transaction runs fn inside a database transaction
func (r *savingsRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
