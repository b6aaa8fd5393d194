package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UnresolvedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialmall_unresolved_records_total",
			Help: "Records dropped or degraded because an identifier could not be resolved.",
		},
		[]string{"surface"},
	)

	InboxDuplicates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "socialmall_inbox_duplicates_total",
			Help: "Conversation records discarded because an earlier record had the same id.",
		},
	)

	StaleResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialmall_stale_responses_total",
			Help: "Backend responses discarded because the view moved to another target.",
		},
		[]string{"surface"},
	)

	OptimisticEdits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialmall_optimistic_edits_total",
			Help: "Optimistic edits by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(UnresolvedRecords)
	prometheus.MustRegister(InboxDuplicates)
	prometheus.MustRegister(StaleResponses)
	prometheus.MustRegister(OptimisticEdits)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
