package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/core/scope"
)

// stubSaccoRepo serves GetByID from a fixed map; the embedded interface
// covers the methods the guard never touches.
type stubSaccoRepo struct {
	repositories.SaccoRepository
	saccos map[uint]*models.Sacco
}

func (r *stubSaccoRepo) GetByID(_ context.Context, id uint) (*models.Sacco, error) {
	if s, ok := r.saccos[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestSplitRepaymentDefaults(t *testing.T) {
	principal, interest, err := splitRepayment(1000, 0, 0)
	require.NoError(t, err)

	// 70/30 default split
	assert.InDelta(t, 700.0, principal, 0.001)
	assert.InDelta(t, 300.0, interest, 0.001)
	assert.InDelta(t, 1000.0, principal+interest, 0.001)
}

func TestSplitRepaymentDerivesMissingSide(t *testing.T) {
	principal, interest, err := splitRepayment(1000, 800, 0)
	require.NoError(t, err)
	assert.Equal(t, 800.0, principal)
	assert.Equal(t, 200.0, interest)

	principal, interest, err = splitRepayment(1000, 0, 250)
	require.NoError(t, err)
	assert.Equal(t, 750.0, principal)
	assert.Equal(t, 250.0, interest)
}

func TestSplitRepaymentExplicitSplit(t *testing.T) {
	principal, interest, err := splitRepayment(1000, 600, 300)
	require.NoError(t, err)
	assert.Equal(t, 600.0, principal)
	assert.Equal(t, 300.0, interest)
}

func TestSplitRepaymentRejectsOverflow(t *testing.T) {
	_, _, err := splitRepayment(1000, 800, 300)
	assert.ErrorIs(t, err, ErrRepaymentSplitExceeds)

	_, _, err = splitRepayment(1000, 1100, 0)
	assert.ErrorIs(t, err, ErrRepaymentSplitExceeds)

	_, _, err = splitRepayment(1000, 0, 1100)
	assert.ErrorIs(t, err, ErrRepaymentSplitExceeds)
}

func TestSplitRepaymentRejectsNegatives(t *testing.T) {
	_, _, err := splitRepayment(1000, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidRepayment)

	_, _, err = splitRepayment(1000, 0, -1)
	assert.ErrorIs(t, err, ErrInvalidRepayment)
}

func TestRequireSaccoScope(t *testing.T) {
	ctx := context.Background()
	region4, region1 := uint(4), uint(1)
	saccos := &stubSaccoRepo{saccos: map[uint]*models.Sacco{
		7: {ID: 7, RegionID: &region4},
		9: {ID: 9, RegionID: &region1},
		8: {ID: 8}, // no region binding
	}}

	system := scope.Principal{UserID: 1, Role: scope.RoleSystemAdmin, Authenticated: true}
	regional := scope.Principal{UserID: 2, Role: scope.RoleRegionalAdmin, RegionID: 4, Authenticated: true}
	saccoAdmin := scope.Principal{UserID: 3, Role: scope.RoleSaccoAdmin, SaccoID: 7, Authenticated: true}
	member := scope.Principal{UserID: 4, Role: scope.RoleMember, SaccoID: 7, Authenticated: true}

	assert.NoError(t, requireSaccoScope(ctx, saccos, system, 7))
	assert.NoError(t, requireSaccoScope(ctx, saccos, saccoAdmin, 7))
	assert.ErrorIs(t, requireSaccoScope(ctx, saccos, saccoAdmin, 9), ErrSaccoScopeMismatch)
	assert.ErrorIs(t, requireSaccoScope(ctx, saccos, member, 7), ErrSaccoScopeMismatch)
	assert.ErrorIs(t, requireSaccoScope(ctx, saccos, scope.Principal{}, 7), ErrSaccoScopeMismatch)

	t.Run("regional admin is bound to their region", func(t *testing.T) {
		assert.NoError(t, requireSaccoScope(ctx, saccos, regional, 7))
		assert.ErrorIs(t, requireSaccoScope(ctx, saccos, regional, 9), ErrSaccoScopeMismatch)
		assert.ErrorIs(t, requireSaccoScope(ctx, saccos, regional, 8), ErrSaccoScopeMismatch)
		assert.ErrorIs(t, requireSaccoScope(ctx, saccos, regional, 999), ErrSaccoScopeMismatch)
	})
}

func TestRepayableStatus(t *testing.T) {
	assert.NoError(t, repayableStatus(models.LoanStatusDisbursed))
	assert.NoError(t, repayableStatus(models.LoanStatusActive))
	assert.ErrorIs(t, repayableStatus(models.LoanStatusClosed), ErrLoanClosed)
	assert.ErrorIs(t, repayableStatus(models.LoanStatusPendingApproval), ErrLoanNotRepayable)
	assert.ErrorIs(t, repayableStatus(models.LoanStatusWrittenOff), ErrLoanNotRepayable)
}

func TestLoanEventPriority(t *testing.T) {
	assert.Equal(t, models.PriorityHigh, loanEventPriority(models.NotifyLoanApproval))
	assert.Equal(t, models.PriorityHigh, loanEventPriority(models.NotifyLoanDisbursement))
	assert.Equal(t, models.PriorityMedium, loanEventPriority(models.NotifyLoanRejection))
	assert.Equal(t, models.PriorityMedium, loanEventPriority(models.NotifyLoanApplication))
	assert.Equal(t, models.PriorityMedium, loanEventPriority(models.NotifyLoanFullyRepaid))
}

func TestNewLoanRefIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ref := newLoanRef("MBR0007-00001")
		assert.Contains(t, ref, "LOAN-MBR0007-00001-")
		assert.False(t, seen[ref], "duplicate ref %s", ref)
		seen[ref] = true
	}
}

func TestNormalizeTxID(t *testing.T) {
	assert.Nil(t, normalizeTxID(nil))

	empty := ""
	assert.Nil(t, normalizeTxID(&empty))

	id := "MTN-12345"
	require.NotNil(t, normalizeTxID(&id))
	assert.Equal(t, "MTN-12345", *normalizeTxID(&id))
}
