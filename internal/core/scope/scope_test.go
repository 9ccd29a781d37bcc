package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/core/scope"
)

func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

func uintPtr(v uint) *uint { return &v }

func TestNormalizeRolePrecedence(t *testing.T) {
	cases := []struct {
		name                        string
		system, regional, saccoFlag bool
		want                        scope.Role
	}{
		{"member when no flags", false, false, false, scope.RoleMember},
		{"sacco admin", false, false, true, scope.RoleSaccoAdmin},
		{"regional admin", false, true, false, scope.RoleRegionalAdmin},
		{"system admin", true, false, false, scope.RoleSystemAdmin},
		{"system wins over sacco", true, false, true, scope.RoleSystemAdmin},
		{"system wins over all", true, true, true, scope.RoleSystemAdmin},
		{"regional wins over sacco", false, true, true, scope.RoleRegionalAdmin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, scope.NormalizeRole(tc.system, tc.regional, tc.saccoFlag))
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("unauthenticated resolves to no access", func(t *testing.T) {
		d := scope.Resolve(scope.Principal{})
		assert.Equal(t, scope.NoAccess, d.Kind)
	})

	t.Run("system admin resolves to all access", func(t *testing.T) {
		d := scope.Resolve(scope.Principal{UserID: 1, Role: scope.RoleSystemAdmin, Authenticated: true})
		assert.Equal(t, scope.AllAccess, d.Kind)
	})

	t.Run("regional admin carries its own region", func(t *testing.T) {
		d := scope.Resolve(scope.Principal{UserID: 2, Role: scope.RoleRegionalAdmin, RegionID: 7, Authenticated: true})
		assert.Equal(t, scope.RegionAccess, d.Kind)
		assert.Equal(t, uint(7), d.RegionID)
	})

	t.Run("regional admin without region degrades to no access", func(t *testing.T) {
		d := scope.Resolve(scope.Principal{UserID: 2, Role: scope.RoleRegionalAdmin, Authenticated: true})
		assert.Equal(t, scope.NoAccess, d.Kind)
	})

	t.Run("sacco admin carries its sacco", func(t *testing.T) {
		d := scope.Resolve(scope.Principal{UserID: 3, Role: scope.RoleSaccoAdmin, SaccoID: 11, Authenticated: true})
		assert.Equal(t, scope.SaccoAccess, d.Kind)
		assert.Equal(t, uint(11), d.SaccoID)
	})

	t.Run("sacco admin without sacco degrades to no access", func(t *testing.T) {
		d := scope.Resolve(scope.Principal{UserID: 3, Role: scope.RoleSaccoAdmin, Authenticated: true})
		assert.Equal(t, scope.NoAccess, d.Kind)
	})

	t.Run("plain member resolves to own access", func(t *testing.T) {
		d := scope.Resolve(scope.Principal{UserID: 4, Role: scope.RoleMember, SaccoID: 11, Authenticated: true})
		assert.Equal(t, scope.OwnAccess, d.Kind)
		assert.Equal(t, uint(4), d.UserID)
		assert.Equal(t, uint(11), d.SaccoID)
	})
}

func TestFromUserNormalizesFlagSoup(t *testing.T) {
	u := &models.User{
		ID:            9,
		Username:      "root",
		IsSystemAdmin: true,
		IsSaccoAdmin:  true,
		SaccoID:       uintPtr(3),
	}

	p := scope.FromUser(u)
	require.True(t, p.Authenticated)
	assert.Equal(t, scope.RoleSystemAdmin, p.Role)

	// Precedence survives through resolution: both flags set still yields
	// all access, not sacco access.
	assert.Equal(t, scope.AllAccess, scope.Resolve(p).Kind)
}

func applySQL(t *testing.T, d scope.Descriptor, record scope.Record, model interface{}) (string, []interface{}) {
	t.Helper()
	db := newDryRunDB(t)
	tx := d.Apply(db.Model(model), record).Session(&gorm.Session{DryRun: true}).Find(model)
	require.NoError(t, tx.Error)
	return tx.Statement.SQL.String(), tx.Statement.Vars
}

func TestApplyJoinPaths(t *testing.T) {
	saccoAdmin := scope.Descriptor{Kind: scope.SaccoAccess, SaccoID: 5}

	cases := []struct {
		name      string
		record    scope.Record
		model     interface{}
		wantJoins []string
		wantCond  string
	}{
		{
			name:     "member scopes directly by sacco",
			record:   scope.RecordMember,
			model:    &[]models.Member{},
			wantCond: "members.sacco_id = ?",
		},
		{
			name:      "loan joins through member",
			record:    scope.RecordLoan,
			model:     &[]models.Loan{},
			wantJoins: []string{"JOIN members ON members.id = loans.member_id"},
			wantCond:  "members.sacco_id = ?",
		},
		{
			name:      "savings transaction joins through account and member",
			record:    scope.RecordSavingsTransaction,
			model:     &[]models.SavingsTransaction{},
			wantJoins: []string{
				"JOIN savings_accounts ON savings_accounts.id = savings_transactions.account_id",
				"JOIN members ON members.id = savings_accounts.member_id",
			},
			wantCond: "members.sacco_id = ?",
		},
		{
			name:      "loan repayment joins through loan and member",
			record:    scope.RecordLoanRepayment,
			model:     &[]models.LoanRepayment{},
			wantJoins: []string{
				"JOIN loans ON loans.id = loan_repayments.loan_id",
				"JOIN members ON members.id = loans.member_id",
			},
			wantCond: "members.sacco_id = ?",
		},
		{
			name:     "loan product scopes directly by sacco",
			record:   scope.RecordLoanProduct,
			model:    &[]models.LoanProduct{},
			wantCond: "loan_products.sacco_id = ?",
		},
		{
			name:     "funding scopes directly by sacco",
			record:   scope.RecordFunding,
			model:    &[]models.Funding{},
			wantCond: "fundings.sacco_id = ?",
		},
		{
			name:     "member group scopes directly by sacco",
			record:   scope.RecordMemberGroup,
			model:    &[]models.MemberGroup{},
			wantCond: "member_groups.sacco_id = ?",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, vars := applySQL(t, saccoAdmin, tc.record, tc.model)
			for _, j := range tc.wantJoins {
				assert.Contains(t, sql, j)
			}
			assert.Contains(t, sql, tc.wantCond)
			assert.Contains(t, vars, interface{}(uint(5)))
		})
	}
}

func TestApplyRegionScopeJoinsSaccos(t *testing.T) {
	d := scope.Descriptor{Kind: scope.RegionAccess, RegionID: 9}

	sql, vars := applySQL(t, d, scope.RecordLoan, &[]models.Loan{})
	assert.Contains(t, sql, "JOIN members ON members.id = loans.member_id")
	assert.Contains(t, sql, "JOIN saccos ON saccos.id = members.sacco_id")
	assert.Contains(t, sql, "saccos.region_id = ?")
	assert.Contains(t, vars, interface{}(uint(9)))
}

func TestApplyOwnScope(t *testing.T) {
	d := scope.Descriptor{Kind: scope.OwnAccess, UserID: 42, SaccoID: 5}

	t.Run("member records filter by user account", func(t *testing.T) {
		sql, vars := applySQL(t, d, scope.RecordMember, &[]models.Member{})
		assert.Contains(t, sql, "members.user_account_id = ?")
		assert.Contains(t, vars, interface{}(uint(42)))
	})

	t.Run("loans filter through member ownership", func(t *testing.T) {
		sql, vars := applySQL(t, d, scope.RecordLoan, &[]models.Loan{})
		assert.Contains(t, sql, "members.user_account_id = ?")
		assert.Contains(t, vars, interface{}(uint(42)))
	})

	t.Run("products stay visible sacco-wide", func(t *testing.T) {
		sql, vars := applySQL(t, d, scope.RecordSavingProduct, &[]models.SavingProduct{})
		assert.Contains(t, sql, "saving_products.sacco_id = ?")
		assert.Contains(t, vars, interface{}(uint(5)))
	})

	t.Run("finance records are invisible", func(t *testing.T) {
		sql, _ := applySQL(t, d, scope.RecordExpense, &[]models.Expense{})
		assert.Contains(t, sql, "1 = 0")
	})
}

func TestApplyFailsClosed(t *testing.T) {
	t.Run("no access yields empty set", func(t *testing.T) {
		sql, _ := applySQL(t, scope.Descriptor{Kind: scope.NoAccess}, scope.RecordLoan, &[]models.Loan{})
		assert.Contains(t, sql, "1 = 0")
	})

	t.Run("unknown record type yields empty set", func(t *testing.T) {
		d := scope.Descriptor{Kind: scope.SaccoAccess, SaccoID: 5}
		sql, _ := applySQL(t, d, scope.Record("bogus"), &[]models.Loan{})
		assert.Contains(t, sql, "1 = 0")
	})
}

func TestApplyToSaccos(t *testing.T) {
	db := newDryRunDB(t)

	run := func(d scope.Descriptor) string {
		tx := d.ApplyToSaccos(db.Model(&models.Sacco{})).Session(&gorm.Session{DryRun: true}).Find(&[]models.Sacco{})
		require.NoError(t, tx.Error)
		return tx.Statement.SQL.String()
	}

	// Soft delete always contributes a WHERE clause; all access must add no
	// scoping condition beyond it.
	allSQL := run(scope.Descriptor{Kind: scope.AllAccess})
	assert.NotContains(t, allSQL, "region_id")
	assert.NotContains(t, allSQL, "saccos.id = ?")
	assert.NotContains(t, allSQL, "1 = 0")
	assert.Contains(t, run(scope.Descriptor{Kind: scope.RegionAccess, RegionID: 2}), "saccos.region_id = ?")
	assert.Contains(t, run(scope.Descriptor{Kind: scope.SaccoAccess, SaccoID: 3}), "saccos.id = ?")
	assert.Contains(t, run(scope.Descriptor{Kind: scope.OwnAccess, UserID: 4}), "1 = 0")
	assert.Contains(t, run(scope.Descriptor{Kind: scope.NoAccess}), "1 = 0")
}

func TestCanAccessMember(t *testing.T) {
	region := uint(7)
	member := &models.Member{
		ID:            1,
		SaccoID:       5,
		UserAccountID: uintPtr(42),
		Sacco:         &models.Sacco{ID: 5, RegionID: &region},
	}

	cases := []struct {
		name string
		d    scope.Descriptor
		want bool
	}{
		{"all access sees everyone", scope.Descriptor{Kind: scope.AllAccess}, true},
		{"matching region", scope.Descriptor{Kind: scope.RegionAccess, RegionID: 7}, true},
		{"other region", scope.Descriptor{Kind: scope.RegionAccess, RegionID: 8}, false},
		{"matching sacco", scope.Descriptor{Kind: scope.SaccoAccess, SaccoID: 5}, true},
		{"other sacco", scope.Descriptor{Kind: scope.SaccoAccess, SaccoID: 6}, false},
		{"own account", scope.Descriptor{Kind: scope.OwnAccess, UserID: 42}, true},
		{"someone else's account", scope.Descriptor{Kind: scope.OwnAccess, UserID: 43}, false},
		{"no access", scope.Descriptor{Kind: scope.NoAccess}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, scope.CanAccessMember(tc.d, member))
		})
	}

	t.Run("missing sacco preload fails closed for region scope", func(t *testing.T) {
		bare := &models.Member{ID: 1, SaccoID: 5}
		assert.False(t, scope.CanAccessMember(scope.Descriptor{Kind: scope.RegionAccess, RegionID: 7}, bare))
	})

	t.Run("nil member is never accessible", func(t *testing.T) {
		assert.False(t, scope.CanAccessMember(scope.Descriptor{Kind: scope.AllAccess}, nil))
	})
}
