// Package metrics holds the prometheus collectors for lead submissions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeDecodeFailed   = "decode_failed"
	OutcomeGenerateFailed = "generate_failed"
	OutcomeMailFailed     = "mail_failed"
)

var (
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadform_submissions_total",
			Help: "Total number of contact-form submissions by outcome",
		},
		[]string{"outcome"},
	)

	LedgerFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadform_ledger_failures_total",
			Help: "Total number of ledger appends that failed and were dropped",
		},
	)

	FallbackAcks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadform_fallback_acks_total",
			Help: "Total number of acknowledgements that used the fallback text",
		},
	)
)

// RecordSubmission counts one finished submission.
func RecordSubmission(outcome string) {
	Submissions.WithLabelValues(outcome).Inc()
}

// RecordLedgerFailure counts one dropped ledger append.
func RecordLedgerFailure() {
	LedgerFailures.Inc()
}

// RecordFallbackAck counts one use of the fallback acknowledgement.
func RecordFallbackAck() {
	FallbackAcks.Inc()
}
