package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/core/scope"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// RegionRepository defines region and district repository interface
type RegionRepository interface {
	CreateRegion(ctx context.Context, region *models.Region) error
	GetRegionByID(ctx context.Context, id uint) (*models.Region, error)
	GetRegionByName(ctx context.Context, name string) (*models.Region, error)
	UpdateRegion(ctx context.Context, region *models.Region) error
	ListRegions(ctx context.Context) ([]*models.Region, error)
	CreateDistrict(ctx context.Context, district *models.District) error
	GetDistrictByID(ctx context.Context, id uint) (*models.District, error)
	UpdateDistrict(ctx context.Context, district *models.District) error
	ListDistricts(ctx context.Context, regionID uint) ([]*models.District, error)
}

// SaccoRepository defines sacco repository interface
type SaccoRepository interface {
	Create(ctx context.Context, sacco *models.Sacco) error
	GetByID(ctx context.Context, id uint) (*models.Sacco, error)
	GetByRegistrationNumber(ctx context.Context, regNo string) (*models.Sacco, error)
	Update(ctx context.Context, sacco *models.Sacco) error
	List(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Sacco, int64, error)
	CountActive(ctx context.Context, d scope.Descriptor) (int64, error)
}

// MemberRepository defines member repository interface
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error

	// CreateNumbered assigns the next per-sacco member number inside a
	// transaction, retrying on duplicate-key collisions. A linked user
	// account, when given, is created in the same transaction.
	CreateNumbered(ctx context.Context, member *models.Member, user *models.User) error

	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetByMemberNumber(ctx context.Context, memberNumber string) (*models.Member, error)
	GetByUserAccountID(ctx context.Context, userID uint) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	List(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Member, int64, error)
	Search(ctx context.Context, d scope.Descriptor, query string, limit int) ([]*models.Member, error)
	Count(ctx context.Context, d scope.Descriptor) (int64, error)
	CountByStatus(ctx context.Context, d scope.Descriptor, status string) (int64, error)
	NationalIDExists(ctx context.Context, nationalID string) (bool, error)
	CreateGroup(ctx context.Context, group *models.MemberGroup) error
	ListGroups(ctx context.Context, d scope.Descriptor) ([]*models.MemberGroup, error)
}

// LoanRepository defines loan, loan product and repayment repository interface
type LoanRepository interface {
	CreateProduct(ctx context.Context, product *models.LoanProduct) error
	GetProductByID(ctx context.Context, id uint) (*models.LoanProduct, error)
	UpdateProduct(ctx context.Context, product *models.LoanProduct) error
	ListProducts(ctx context.Context, d scope.Descriptor) ([]*models.LoanProduct, error)

	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	GetByLoanNumber(ctx context.Context, loanNumber string) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	List(ctx context.Context, d scope.Descriptor, status string, offset, limit int) ([]*models.Loan, int64, error)
	Count(ctx context.Context, d scope.Descriptor, statuses ...string) (int64, error)
	SumPrincipal(ctx context.Context, d scope.Descriptor, statuses ...string) (float64, error)
	ListMaturingBetween(ctx context.Context, from, to time.Time) ([]*models.Loan, error)

	// CreateNumbered assigns the next per-sacco per-year loan number inside a
	// transaction, retrying on duplicate-key collisions.
	CreateNumbered(ctx context.Context, loan *models.Loan, saccoName string) error

	CreateRepayment(ctx context.Context, repayment *models.LoanRepayment) error
	ListRepayments(ctx context.Context, d scope.Descriptor, loanID uint) ([]*models.LoanRepayment, error)
	TotalRepaid(ctx context.Context, loanID uint) (float64, error)
	SumRepaid(ctx context.Context, d scope.Descriptor) (float64, error)

	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SavingsRepository defines savings product, account and ledger repository interface
type SavingsRepository interface {
	CreateProduct(ctx context.Context, product *models.SavingProduct) error
	GetProductByID(ctx context.Context, id uint) (*models.SavingProduct, error)
	UpdateProduct(ctx context.Context, product *models.SavingProduct) error
	ListProducts(ctx context.Context, d scope.Descriptor) ([]*models.SavingProduct, error)

	GetAccountByID(ctx context.Context, id uint) (*models.SavingsAccount, error)
	GetAccountByNumber(ctx context.Context, accountNumber string) (*models.SavingsAccount, error)
	UpdateAccount(ctx context.Context, account *models.SavingsAccount) error
	ListAccounts(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.SavingsAccount, int64, error)
	SumBalances(ctx context.Context, d scope.Descriptor) (float64, error)

	// CreateNumbered assigns the next account number inside a transaction,
	// retrying on duplicate-key collisions.
	CreateNumbered(ctx context.Context, account *models.SavingsAccount) error

	ListTransactions(ctx context.Context, d scope.Descriptor, accountID uint, offset, limit int) ([]*models.SavingsTransaction, int64, error)
	SumTransactions(ctx context.Context, d scope.Descriptor, txnType string, since *time.Time) (float64, error)

	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// FinanceRepository defines funding, expense and project repository interface
type FinanceRepository interface {
	CreateFundingSource(ctx context.Context, source *models.FundingSource) error
	ListFundingSources(ctx context.Context, d scope.Descriptor) ([]*models.FundingSource, error)
	CreateFunding(ctx context.Context, funding *models.Funding) error
	ListFundings(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Funding, int64, error)
	SumFunding(ctx context.Context, d scope.Descriptor, statuses ...string) (float64, error)

	CreateExpenseCategory(ctx context.Context, category *models.ExpenseCategory) error
	ListExpenseCategories(ctx context.Context, d scope.Descriptor) ([]*models.ExpenseCategory, error)
	CreateExpense(ctx context.Context, expense *models.Expense) error
	ListExpenses(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Expense, int64, error)
	SumExpenses(ctx context.Context, d scope.Descriptor) (float64, error)

	CreateProject(ctx context.Context, project *models.Project) error
	GetProjectByID(ctx context.Context, id uint) (*models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	ListProjects(ctx context.Context, d scope.Descriptor, offset, limit int) ([]*models.Project, int64, error)
	CountProjects(ctx context.Context, d scope.Descriptor, status string) (int64, error)
}

// ActivityRepository defines activity log repository interface
type ActivityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListRecent(ctx context.Context, d scope.Descriptor, limit int) ([]*models.ActivityLog, error)
}

// NotificationRepository defines notification repository interface
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uint, unreadOnly bool, offset, limit int) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
}
