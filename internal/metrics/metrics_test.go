package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/credits", "200", 0.5)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/credits", "200"))
	assert.Equal(t, float64(1), count)
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/credits/deposit", "200", 0.1)
	RecordHTTPRequest("POST", "/credits/deposit", "200", 0.2)
	RecordHTTPRequest("POST", "/credits/deposit", "402", 0.05)

	successCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/credits/deposit", "200"))
	failCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/credits/deposit", "402"))

	assert.Equal(t, float64(2), successCount)
	assert.Equal(t, float64(1), failCount)
}

func TestRecordDepositAndDebit(t *testing.T) {
	before := testutil.ToFloat64(DepositsTotal)
	RecordDeposit()
	assert.Equal(t, before+1, testutil.ToFloat64(DepositsTotal))

	beforeDebit := testutil.ToFloat64(DebitsTotal)
	RecordDebit()
	RecordDebit()
	assert.Equal(t, beforeDebit+2, testutil.ToFloat64(DebitsTotal))
}

func TestRecordRejectedDebit(t *testing.T) {
	before := testutil.ToFloat64(RejectedDebitsTotal)
	RecordRejectedDebit()
	assert.Equal(t, before+1, testutil.ToFloat64(RejectedDebitsTotal))
}

func TestRecordGateRejection(t *testing.T) {
	GateRejectionsTotal.Reset()

	RecordGateRejection("insufficient_credits")
	RecordGateRejection("insufficient_credits")
	RecordGateRejection("budget_too_low")

	assert.Equal(t, float64(2), testutil.ToFloat64(GateRejectionsTotal.WithLabelValues("insufficient_credits")))
	assert.Equal(t, float64(1), testutil.ToFloat64(GateRejectionsTotal.WithLabelValues("budget_too_low")))
}

func TestRecordCampaignActivation(t *testing.T) {
	CampaignActivationsTotal.Reset()

	RecordCampaignActivation("banner")
	RecordCampaignActivation("video")
	RecordCampaignActivation("banner")

	assert.Equal(t, float64(2), testutil.ToFloat64(CampaignActivationsTotal.WithLabelValues("banner")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CampaignActivationsTotal.WithLabelValues("video")))
}

func TestRecordBidderSync(t *testing.T) {
	BidderSyncTotal.Reset()

	RecordBidderSync("upsert", "ok")
	RecordBidderSync("upsert", "error")
	RecordBidderSync("delete", "ok")

	assert.Equal(t, float64(1), testutil.ToFloat64(BidderSyncTotal.WithLabelValues("upsert", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(BidderSyncTotal.WithLabelValues("upsert", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(BidderSyncTotal.WithLabelValues("delete", "ok")))
}

func TestRecordNotification(t *testing.T) {
	NotificationsSentTotal.Reset()

	RecordNotification("deposit_receipt", "sent")

	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsSentTotal.WithLabelValues("deposit_receipt", "sent")))
}
