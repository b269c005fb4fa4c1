package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(KindDeposit))
	assert.True(t, ValidKind(KindSpend))
	assert.True(t, ValidKind(KindRefund))
	assert.True(t, ValidKind(KindAdminAdjustment))
	assert.False(t, ValidKind("chargeback"))
	assert.False(t, ValidKind(""))
}

func TestCreditTransactionDirection(t *testing.T) {
	deposit := CreditTransaction{Kind: KindDeposit, Amount: decimal.RequireFromString("100.00")}
	assert.True(t, deposit.Credit())
	assert.False(t, deposit.Debit())

	spend := CreditTransaction{Kind: KindSpend, Amount: decimal.RequireFromString("-60.00")}
	assert.False(t, spend.Credit())
	assert.True(t, spend.Debit())

	refund := CreditTransaction{Kind: KindRefund, Amount: decimal.RequireFromString("25.00")}
	assert.True(t, refund.Credit())
	assert.False(t, refund.Debit())

	positiveAdjust := CreditTransaction{Kind: KindAdminAdjustment, Amount: decimal.RequireFromString("10.00")}
	assert.True(t, positiveAdjust.Credit())
	assert.False(t, positiveAdjust.Debit())

	negativeAdjust := CreditTransaction{Kind: KindAdminAdjustment, Amount: decimal.RequireFromString("-10.00")}
	assert.False(t, negativeAdjust.Credit())
	assert.True(t, negativeAdjust.Debit())
}

func TestSignedAmount(t *testing.T) {
	deposit := CreditTransaction{Kind: KindDeposit, Amount: decimal.RequireFromString("100.5")}
	assert.Equal(t, "+100.5", deposit.SignedAmount())

	spend := CreditTransaction{Kind: KindSpend, Amount: decimal.RequireFromString("-60")}
	assert.Equal(t, "-60", spend.SignedAmount())

	negativeAdjust := CreditTransaction{Kind: KindAdminAdjustment, Amount: decimal.RequireFromString("-30")}
	assert.Equal(t, "-30", negativeAdjust.SignedAmount())
}
