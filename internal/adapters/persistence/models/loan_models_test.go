package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"saccolink/internal/adapters/persistence/models"
)

func TestLoanInterestMath(t *testing.T) {
	approved := 1_000_000.0
	loan := &models.Loan{
		AmountRequested: 1_500_000,
		AmountApproved:  &approved,
		InterestRate:    10,
		InterestType:    models.InterestTypeReducing,
		DurationMonths:  12,
	}

	// 1,000,000 at 10% over 12 months = 100,000 interest
	assert.Equal(t, 1_000_000.0, loan.PrincipalAmount())
	assert.InDelta(t, 100_000.0, loan.TotalInterest(), 0.001)
	assert.InDelta(t, 1_100_000.0, loan.TotalAmount(), 0.001)
}

func TestLoanInterestIgnoresInterestType(t *testing.T) {
	// Billing is flat-style for both product types
	flat := &models.Loan{AmountRequested: 500_000, InterestRate: 12, InterestType: models.InterestTypeFlat, DurationMonths: 6}
	reducing := &models.Loan{AmountRequested: 500_000, InterestRate: 12, InterestType: models.InterestTypeReducing, DurationMonths: 6}

	assert.Equal(t, flat.TotalInterest(), reducing.TotalInterest())
	assert.InDelta(t, 30_000.0, flat.TotalInterest(), 0.001)
}

func TestLoanPrincipalFallsBackToRequested(t *testing.T) {
	loan := &models.Loan{AmountRequested: 250_000, InterestRate: 10, DurationMonths: 12}
	assert.Equal(t, 250_000.0, loan.PrincipalAmount())

	zero := 0.0
	loan.AmountApproved = &zero
	assert.Equal(t, 250_000.0, loan.PrincipalAmount())
}

func TestLoanRemainingBalance(t *testing.T) {
	loan := &models.Loan{AmountRequested: 1_000_000, InterestRate: 10, DurationMonths: 12, Status: models.LoanStatusActive}

	assert.InDelta(t, 1_100_000.0, loan.RemainingBalance(0), 0.001)
	assert.InDelta(t, 100_000.0, loan.RemainingBalance(1_000_000), 0.001)
	// Overpayment never goes negative
	assert.Equal(t, 0.0, loan.RemainingBalance(2_000_000))
}

func TestLoanIsFullyRepaid(t *testing.T) {
	loan := &models.Loan{AmountRequested: 100_000, InterestRate: 12, DurationMonths: 12, Status: models.LoanStatusActive}
	total := loan.TotalAmount()

	assert.False(t, loan.IsFullyRepaid(total-1))
	assert.True(t, loan.IsFullyRepaid(total))
	assert.True(t, loan.IsFullyRepaid(total+500))

	// Only disbursed/active loans auto-close
	loan.Status = models.LoanStatusClosed
	assert.False(t, loan.IsFullyRepaid(total))
	loan.Status = models.LoanStatusPendingApproval
	assert.False(t, loan.IsFullyRepaid(total))
}

func TestCanTransitionLoan(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{models.LoanStatusPendingApproval, models.LoanStatusApproved, true},
		{models.LoanStatusPendingApproval, models.LoanStatusDeclined, true},
		{models.LoanStatusPendingApproval, models.LoanStatusWithdrawn, true},
		{models.LoanStatusPendingApproval, models.LoanStatusDisbursed, false},
		{models.LoanStatusApproved, models.LoanStatusDisbursed, true},
		{models.LoanStatusApproved, models.LoanStatusActive, false},
		{models.LoanStatusDisbursed, models.LoanStatusActive, true},
		{models.LoanStatusDisbursed, models.LoanStatusClosed, true},
		{models.LoanStatusDisbursed, models.LoanStatusDefaulted, true},
		{models.LoanStatusActive, models.LoanStatusClosed, true},
		{models.LoanStatusActive, models.LoanStatusWrittenOff, true},
		{models.LoanStatusActive, models.LoanStatusApproved, false},
		// Terminal statuses go nowhere
		{models.LoanStatusClosed, models.LoanStatusActive, false},
		{models.LoanStatusDeclined, models.LoanStatusApproved, false},
		{models.LoanStatusWithdrawn, models.LoanStatusPendingApproval, false},
		{models.LoanStatusWrittenOff, models.LoanStatusActive, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, models.CanTransitionLoan(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestLoanNumberFormatting(t *testing.T) {
	assert.Equal(t, "KAMPALA SACCO-2026-00042", models.FormatLoanNumber("Kampala Sacco", 2026, 42))
	assert.Equal(t, "KAMPALA SACCO-2026-", models.LoanNumberPrefix("Kampala Sacco", 2026))
}

func TestParseLoanNumberSeq(t *testing.T) {
	cases := []struct {
		input string
		seq   int
		ok    bool
	}{
		{"KAMPALA SACCO-2026-00042", 42, true},
		{"GULU-2025-00001", 1, true},
		{"GULU-2025-", 0, false},
		{"no-trailing-seq-abc", 0, false},
		{"noseparator", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		seq, ok := models.ParseLoanNumberSeq(tc.input)
		assert.Equal(t, tc.ok, ok, "input %q", tc.input)
		if tc.ok {
			assert.Equal(t, tc.seq, seq, "input %q", tc.input)
		}
	}
}
