package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adnexus_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adnexus_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	DepositsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adnexus_credit_deposits_total",
			Help: "Total number of credit deposits",
		},
	)

	DebitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adnexus_credit_debits_total",
			Help: "Total number of successful credit debits",
		},
	)

	RejectedDebitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adnexus_credit_rejected_debits_total",
			Help: "Total number of debits rejected for insufficient funds",
		},
	)

	GateRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adnexus_spend_gate_rejections_total",
			Help: "Total number of campaign saves rejected by the spend gate",
		},
		[]string{"reason"},
	)

	CampaignActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adnexus_campaign_activations_total",
			Help: "Total number of campaign activations",
		},
		[]string{"kind"},
	)

	BidderSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adnexus_bidder_sync_total",
			Help: "Total number of bidder sync attempts",
		},
		[]string{"op", "status"},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adnexus_notifications_sent_total",
			Help: "Total number of notification emails sent",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adnexus_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordDeposit() {
	DepositsTotal.Inc()
}

func RecordDebit() {
	DebitsTotal.Inc()
}

func RecordRejectedDebit() {
	RejectedDebitsTotal.Inc()
}

func RecordGateRejection(reason string) {
	GateRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordCampaignActivation(kind string) {
	CampaignActivationsTotal.WithLabelValues(kind).Inc()
}

func RecordBidderSync(op, status string) {
	BidderSyncTotal.WithLabelValues(op, status).Inc()
}

func RecordNotification(notifType, status string) {
	NotificationsSentTotal.WithLabelValues(notifType, status).Inc()
}
