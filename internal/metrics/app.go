package metrics

import "github.com/prometheus/client_golang/prometheus"

// Application Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pda",
			Name:      "search_requests_total",
			Help:      "Total number of searches",
		},
		[]string{"status"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pda",
			Name:      "search_results",
			Help:      "Persons returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 30, 60, 100, 300},
		},
	)

	NotifyMatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pda",
			Name:      "notify_matches_total",
			Help:      "Calendar events matched by the daily notifier",
		},
	)

	MailSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pda",
			Name:      "mail_sent_total",
			Help:      "Outbound mail attempts",
		},
		[]string{"kind", "status"}, // kind: reminder, summary, forward
	)

	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pda",
			Name:      "tasks_total",
			Help:      "Queue task executions",
		},
		[]string{"path", "status"}, // status: ok, retry, dropped
	)
)

func init() {
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(NotifyMatchesTotal)
	prometheus.MustRegister(MailSentTotal)
	prometheus.MustRegister(TasksTotal)
}

// Status labels.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusRetry   = "retry"
	StatusDropped = "dropped"
)
