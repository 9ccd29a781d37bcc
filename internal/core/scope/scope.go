// Package scope resolves a principal to its data-visibility boundary and
// applies that boundary to tenant-owned record queries. It answers "what is
// visible", never "what may be changed" — mutation authority is enforced by
// the request-level guards in the auth middleware.
package scope

import (
	"saccolink/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// Role is the normalized role of a principal
type Role string

const (
	RoleSystemAdmin   Role = "system_admin"
	RoleRegionalAdmin Role = "regional_admin"
	RoleSaccoAdmin    Role = "sacco_admin"
	RoleMember        Role = "member"
)

// NormalizeRole collapses the legacy role flag triple into a single role.
// Precedence is system > regional > sacco > member; multiple flags set is
// never an error, the highest one wins.
func NormalizeRole(isSystemAdmin, isRegionalAdmin, isSaccoAdmin bool) Role {
	switch {
	case isSystemAdmin:
		return RoleSystemAdmin
	case isRegionalAdmin:
		return RoleRegionalAdmin
	case isSaccoAdmin:
		return RoleSaccoAdmin
	}
	return RoleMember
}

// Principal is a snapshot of an authenticated user, passed explicitly into
// every scope and lifecycle function
type Principal struct {
	UserID        uint
	Username      string
	Role          Role
	SaccoID       uint // nonzero for sacco admins and members with a sacco
	RegionID      uint // nonzero for regional admins
	Authenticated bool
}

// FromUser builds a principal from a loaded user row
func FromUser(u *models.User) Principal {
	if u == nil {
		return Principal{}
	}
	p := Principal{
		UserID:        u.ID,
		Username:      u.Username,
		Role:          NormalizeRole(u.IsSystemAdmin, u.IsRegionalAdmin, u.IsSaccoAdmin),
		Authenticated: true,
	}
	if u.SaccoID != nil {
		p.SaccoID = *u.SaccoID
	}
	if u.RegionID != nil {
		p.RegionID = *u.RegionID
	}
	return p
}

// Kind identifies the visibility boundary of a descriptor
type Kind int

const (
	NoAccess Kind = iota
	AllAccess
	RegionAccess
	SaccoAccess
	OwnAccess
)

// Descriptor is a resolved visibility boundary
type Descriptor struct {
	Kind     Kind
	RegionID uint // set for RegionAccess
	SaccoID  uint // set for SaccoAccess; also carried for OwnAccess so members can see their sacco's products
	UserID   uint // set for OwnAccess
}

// Resolve maps a principal to its scope descriptor. Resolution never errors:
// missing sacco/region bindings degrade to NoAccess rather than leaking data
// or crashing a listing page.
func Resolve(p Principal) Descriptor {
	if !p.Authenticated {
		return Descriptor{Kind: NoAccess}
	}
	switch p.Role {
	case RoleSystemAdmin:
		return Descriptor{Kind: AllAccess}
	case RoleRegionalAdmin:
		if p.RegionID == 0 {
			return Descriptor{Kind: NoAccess}
		}
		return Descriptor{Kind: RegionAccess, RegionID: p.RegionID}
	case RoleSaccoAdmin:
		if p.SaccoID == 0 {
			return Descriptor{Kind: NoAccess}
		}
		return Descriptor{Kind: SaccoAccess, SaccoID: p.SaccoID}
	}
	return Descriptor{Kind: OwnAccess, UserID: p.UserID, SaccoID: p.SaccoID}
}

// Record identifies a scoped record type
type Record string

const (
	RecordMember             Record = "member"
	RecordLoan               Record = "loan"
	RecordSavingsAccount     Record = "savings_account"
	RecordSavingsTransaction Record = "savings_transaction"
	RecordSavingProduct      Record = "saving_product"
	RecordLoanProduct        Record = "loan_product"
	RecordLoanRepayment      Record = "loan_repayment"
	RecordFunding            Record = "funding"
	RecordFundingSource      Record = "funding_source"
	RecordExpenseCategory    Record = "expense_category"
	RecordProject            Record = "project"
	RecordExpense            Record = "expense"
	RecordMemberGroup        Record = "member_group"
)

// joinPath describes how a record type walks back to its owning sacco and,
// where applicable, to a member's self-service user account. This table is
// the single source of truth for tenant scoping; a wrong entry here leaks
// data across saccos.
type joinPath struct {
	joins       []string // joins from the record's table back to members, in order
	saccoColumn string   // column holding the owning sacco id after joins
	ownerColumn string   // column holding the member's user account id; empty if not member-owned
	saccoWide   bool     // members may see all of their own sacco's rows (catalog data)
}

var joinPaths = map[Record]joinPath{
	RecordMember: {
		saccoColumn: "members.sacco_id",
		ownerColumn: "members.user_account_id",
	},
	RecordLoan: {
		joins:       []string{"JOIN members ON members.id = loans.member_id"},
		saccoColumn: "members.sacco_id",
		ownerColumn: "members.user_account_id",
	},
	RecordSavingsAccount: {
		joins:       []string{"JOIN members ON members.id = savings_accounts.member_id"},
		saccoColumn: "members.sacco_id",
		ownerColumn: "members.user_account_id",
	},
	RecordSavingsTransaction: {
		joins: []string{
			"JOIN savings_accounts ON savings_accounts.id = savings_transactions.account_id",
			"JOIN members ON members.id = savings_accounts.member_id",
		},
		saccoColumn: "members.sacco_id",
		ownerColumn: "members.user_account_id",
	},
	RecordLoanRepayment: {
		joins: []string{
			"JOIN loans ON loans.id = loan_repayments.loan_id",
			"JOIN members ON members.id = loans.member_id",
		},
		saccoColumn: "members.sacco_id",
		ownerColumn: "members.user_account_id",
	},
	RecordSavingProduct: {
		saccoColumn: "saving_products.sacco_id",
		saccoWide:   true,
	},
	RecordLoanProduct: {
		saccoColumn: "loan_products.sacco_id",
		saccoWide:   true,
	},
	RecordFunding: {
		saccoColumn: "fundings.sacco_id",
	},
	RecordFundingSource: {
		saccoColumn: "funding_sources.sacco_id",
	},
	RecordExpenseCategory: {
		saccoColumn: "expense_categories.sacco_id",
	},
	RecordProject: {
		saccoColumn: "projects.sacco_id",
	},
	RecordExpense: {
		saccoColumn: "expenses.sacco_id",
	},
	RecordMemberGroup: {
		saccoColumn: "member_groups.sacco_id",
	},
}

// Apply filters a query down to the records visible under the descriptor.
// Unknown record types fail closed to an empty result.
func (d Descriptor) Apply(db *gorm.DB, record Record) *gorm.DB {
	if d.Kind == AllAccess {
		return db
	}

	path, ok := joinPaths[record]
	if !ok || d.Kind == NoAccess {
		return db.Where("1 = 0")
	}

	switch d.Kind {
	case RegionAccess:
		q := db
		for _, j := range path.joins {
			q = q.Joins(j)
		}
		q = q.Joins("JOIN saccos ON saccos.id = " + path.saccoColumn)
		return q.Where("saccos.region_id = ?", d.RegionID)

	case SaccoAccess:
		q := db
		for _, j := range path.joins {
			q = q.Joins(j)
		}
		return q.Where(path.saccoColumn+" = ?", d.SaccoID)

	case OwnAccess:
		if path.ownerColumn != "" {
			q := db
			for _, j := range path.joins {
				q = q.Joins(j)
			}
			return q.Where(path.ownerColumn+" = ?", d.UserID)
		}
		// Catalog records are visible sacco-wide to members
		if path.saccoWide && d.SaccoID != 0 {
			return db.Where(path.saccoColumn+" = ?", d.SaccoID)
		}
		return db.Where("1 = 0")
	}

	return db.Where("1 = 0")
}

// ApplyToSaccos filters a sacco query to the saccos reachable under the
// descriptor: all for AllAccess, the region's for RegionAccess, the single
// sacco for SaccoAccess, none otherwise.
func (d Descriptor) ApplyToSaccos(db *gorm.DB) *gorm.DB {
	switch d.Kind {
	case AllAccess:
		return db
	case RegionAccess:
		return db.Where("saccos.region_id = ?", d.RegionID)
	case SaccoAccess:
		return db.Where("saccos.id = ?", d.SaccoID)
	}
	return db.Where("1 = 0")
}

// CanAccessMember reports whether the descriptor covers a specific member.
// The member's Sacco must be preloaded for region checks; a missing preload
// fails closed.
func CanAccessMember(d Descriptor, member *models.Member) bool {
	if member == nil {
		return false
	}
	switch d.Kind {
	case AllAccess:
		return true
	case RegionAccess:
		return member.Sacco != nil && member.Sacco.RegionID != nil && *member.Sacco.RegionID == d.RegionID
	case SaccoAccess:
		return member.SaccoID == d.SaccoID
	case OwnAccess:
		return member.UserAccountID != nil && *member.UserAccountID == d.UserID
	}
	return false
}
