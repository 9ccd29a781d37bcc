package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"saccolink/internal/adapters/persistence/models"
)

func TestTxnDirection(t *testing.T) {
	assert.Equal(t, 1, models.TxnDirection(models.TxnDeposit))
	assert.Equal(t, 1, models.TxnDirection(models.TxnInterest))
	assert.Equal(t, 1, models.TxnDirection(models.TxnTransfer))
	assert.Equal(t, -1, models.TxnDirection(models.TxnWithdrawal))
	assert.Equal(t, -1, models.TxnDirection(models.TxnFee))
	assert.Equal(t, 0, models.TxnDirection("Adjustment"))
	assert.Equal(t, 0, models.TxnDirection(""))
}

func TestSignedAmount(t *testing.T) {
	deposit := &models.SavingsTransaction{TxnType: models.TxnDeposit, Amount: 5000}
	withdrawal := &models.SavingsTransaction{TxnType: models.TxnWithdrawal, Amount: 2000}

	assert.Equal(t, 5000.0, deposit.SignedAmount())
	assert.Equal(t, -2000.0, withdrawal.SignedAmount())
}

func TestReplayLedger(t *testing.T) {
	txns := []models.SavingsTransaction{
		{TxnType: models.TxnDeposit, Amount: 10000, RunningBalance: 10000},
		{TxnType: models.TxnWithdrawal, Amount: 3000, RunningBalance: 7000},
		{TxnType: models.TxnInterest, Amount: 500, RunningBalance: 7500},
		{TxnType: models.TxnFee, Amount: 100, RunningBalance: 7400},
	}

	balance, ok := models.ReplayLedger(txns)
	assert.True(t, ok)
	assert.Equal(t, 7400.0, balance)
}

func TestReplayLedgerDetectsBadSnapshot(t *testing.T) {
	txns := []models.SavingsTransaction{
		{TxnType: models.TxnDeposit, Amount: 10000, RunningBalance: 10000},
		{TxnType: models.TxnWithdrawal, Amount: 3000, RunningBalance: 8000},
	}

	_, ok := models.ReplayLedger(txns)
	assert.False(t, ok)
}

func TestReplayLedgerEmpty(t *testing.T) {
	balance, ok := models.ReplayLedger(nil)
	assert.True(t, ok)
	assert.Equal(t, 0.0, balance)
}

func TestFormatAccountNumber(t *testing.T) {
	assert.Equal(t, "000001", models.FormatAccountNumber(1))
	assert.Equal(t, "004217", models.FormatAccountNumber(4217))
	assert.Equal(t, "1000000", models.FormatAccountNumber(1000000))
}

func TestParseAccountNumberSeq(t *testing.T) {
	seq, ok := models.ParseAccountNumberSeq("000042")
	assert.True(t, ok)
	assert.Equal(t, 42, seq)

	_, ok = models.ParseAccountNumberSeq("ACC-42")
	assert.False(t, ok)

	_, ok = models.ParseAccountNumberSeq("")
	assert.False(t, ok)
}

func TestValidMemberStatus(t *testing.T) {
	assert.True(t, models.ValidMemberStatus(models.MemberStatusActive))
	assert.True(t, models.ValidMemberStatus(models.MemberStatusInactive))
	assert.True(t, models.ValidMemberStatus(models.MemberStatusSuspended))
	assert.False(t, models.ValidMemberStatus("retired"))
	assert.False(t, models.ValidMemberStatus(""))
}
