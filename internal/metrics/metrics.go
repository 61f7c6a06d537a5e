package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govhub_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "govhub_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	votesCastTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govhub_votes_cast_total",
			Help: "Consensus votes cast or overwritten, by vote type",
		},
		[]string{"vote_type"},
	)

	proposalVotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govhub_proposal_votes_total",
			Help: "Proposal votes cast or changed, by vote type",
		},
		[]string{"vote_type"},
	)

	roundsOpenedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "govhub_rounds_opened_total",
			Help: "Voting rounds opened",
		},
	)

	objectionsResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govhub_objections_resolved_total",
			Help: "Objections resolved, by resulting status",
		},
		[]string{"status"},
	)

	expiredRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govhub_expired_records_total",
			Help: "Records closed by the expiry job",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		votesCastTotal,
		proposalVotesTotal,
		roundsOpenedTotal,
		objectionsResolvedTotal,
		expiredRecordsTotal,
	)
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest path 应为路由模板（c.FullPath()），避免标签基数爆炸
func RecordAPIRequest(method, path string, status int, seconds float64) {
	apiRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func RecordVote(voteType string) {
	votesCastTotal.WithLabelValues(voteType).Inc()
}

func RecordProposalVote(voteType string) {
	proposalVotesTotal.WithLabelValues(voteType).Inc()
}

func RecordRoundOpened() {
	roundsOpenedTotal.Inc()
}

func RecordObjectionResolved(status string) {
	objectionsResolvedTotal.WithLabelValues(status).Inc()
}

func RecordExpired(kind string, n int64) {
	if n > 0 {
		expiredRecordsTotal.WithLabelValues(kind).Add(float64(n))
	}
}
