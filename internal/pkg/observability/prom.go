package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "electionday"
)

var (
	ImportVerifyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "import", "verify_duration_seconds"),
		Help:    "Duration of import plausibility checks in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"verifier"})
	ImportParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "import", "parse_duration_seconds"),
		Help:    "Duration of parsing uploaded result files in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"format"})
	ImportConsumeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "import", "consume_duration_seconds"),
		Help:    "Duration of queued import consumption in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{})
	ImportConsumeMessagingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "import", "consume_messaging_latency_seconds"),
		Help:    "Messaging latency of queued imports in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{})
	ImportOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "import", "outcome_total"),
		Help: "Imports by format and outcome",
	}, []string{"format", "outcome"})
	MailDelivery = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "mail", "delivery_total"),
		Help: "Queued mails by transport and outcome",
	}, []string{"transport", "outcome"})
	WorkerMailRunDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "worker", "mail_run_duration_seconds"),
		Help: "Duration of the last mail queue run in seconds",
	}, []string{"transport"})
)
