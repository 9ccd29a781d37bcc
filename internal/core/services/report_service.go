package services

import (
	"context"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/core/scope"
)

// ReportService produces scoped dashboard rollups. Every aggregate is routed
// through the scope resolver, so the same call serves system, regional,
// sacco and member dashboards.
type ReportService struct {
	memberRepo  repositories.MemberRepository
	loanRepo    repositories.LoanRepository
	savingsRepo repositories.SavingsRepository
	financeRepo repositories.FinanceRepository
	saccoRepo   repositories.SaccoRepository
}

// NewReportService creates a new report service
func NewReportService(
	memberRepo repositories.MemberRepository,
	loanRepo repositories.LoanRepository,
	savingsRepo repositories.SavingsRepository,
	financeRepo repositories.FinanceRepository,
	saccoRepo repositories.SaccoRepository,
) *ReportService {
	return &ReportService{
		memberRepo:  memberRepo,
		loanRepo:    loanRepo,
		savingsRepo: savingsRepo,
		financeRepo: financeRepo,
		saccoRepo:   saccoRepo,
	}
}

// DashboardStats is the rollup payload
type DashboardStats struct {
	ActiveSaccos    int64   `json:"active_saccos"`
	TotalMembers    int64   `json:"total_members"`
	ActiveMembers   int64   `json:"active_members"`
	PendingLoans    int64   `json:"pending_loans"`
	ActiveLoans     int64   `json:"active_loans"`
	ClosedLoans     int64   `json:"closed_loans"`
	LoanPortfolio   float64 `json:"loan_portfolio"`
	TotalRepaid     float64 `json:"total_repaid"`
	SavingsBalance  float64 `json:"savings_balance"`
	FundingReceived float64 `json:"funding_received"`
	TotalExpenses   float64 `json:"total_expenses"`
	ActiveProjects  int64   `json:"active_projects"`
}

// Dashboard computes the rollup visible to the principal
func (s *ReportService) Dashboard(ctx context.Context, p scope.Principal) (*DashboardStats, error) {
	d := scope.Resolve(p)
	stats := &DashboardStats{}
	var err error

	if stats.ActiveSaccos, err = s.saccoRepo.CountActive(ctx, d); err != nil {
		return nil, err
	}
	if stats.TotalMembers, err = s.memberRepo.Count(ctx, d); err != nil {
		return nil, err
	}
	if stats.ActiveMembers, err = s.memberRepo.CountByStatus(ctx, d, models.MemberStatusActive); err != nil {
		return nil, err
	}
	if stats.PendingLoans, err = s.loanRepo.Count(ctx, d, models.LoanStatusPendingApproval); err != nil {
		return nil, err
	}
	if stats.ActiveLoans, err = s.loanRepo.Count(ctx, d, models.LoanStatusDisbursed, models.LoanStatusActive); err != nil {
		return nil, err
	}
	if stats.ClosedLoans, err = s.loanRepo.Count(ctx, d, models.LoanStatusClosed); err != nil {
		return nil, err
	}
	if stats.LoanPortfolio, err = s.loanRepo.SumPrincipal(ctx, d, models.LoanStatusDisbursed, models.LoanStatusActive); err != nil {
		return nil, err
	}
	if stats.TotalRepaid, err = s.loanRepo.SumRepaid(ctx, d); err != nil {
		return nil, err
	}
	if stats.SavingsBalance, err = s.savingsRepo.SumBalances(ctx, d); err != nil {
		return nil, err
	}
	if stats.FundingReceived, err = s.financeRepo.SumFunding(ctx, d, models.FundingStatusReceived, models.FundingStatusAllocated, models.FundingStatusSpent); err != nil {
		return nil, err
	}
	if stats.TotalExpenses, err = s.financeRepo.SumExpenses(ctx, d); err != nil {
		return nil, err
	}
	if stats.ActiveProjects, err = s.financeRepo.CountProjects(ctx, d, models.ProjectStatusActive); err != nil {
		return nil, err
	}

	return stats, nil
}
