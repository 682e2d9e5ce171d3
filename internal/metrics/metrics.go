package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests       *prometheus.CounterVec
	LikesToggled   prometheus.Counter
	CommentsPosted prometheus.Counter
	MessagesSent   prometheus.Counter
	DreamsCreated  prometheus.Counter
}

func InitMetrics() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dreamshare_http_requests_total",
				Help: "Total number of HTTP requests by path and status",
			},
			[]string{"path", "status"},
		),
		LikesToggled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamshare_likes_toggled_total",
			Help: "Total number of like toggles",
		}),
		CommentsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamshare_comments_posted_total",
			Help: "Total number of comments posted",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamshare_messages_sent_total",
			Help: "Total number of conversation messages sent",
		}),
		DreamsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamshare_dreams_created_total",
			Help: "Total number of dreams created",
		}),
	}

	prometheus.MustRegister(m.Requests)
	prometheus.MustRegister(m.LikesToggled)
	prometheus.MustRegister(m.CommentsPosted)
	prometheus.MustRegister(m.MessagesSent)
	prometheus.MustRegister(m.DreamsCreated)

	return m
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument wraps the router and counts every request by matched route
// pattern and response status. Unmatched requests are labelled "unmatched" to
// keep label cardinality bounded.
func (m *Metrics) Instrument(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		if pattern == "" {
			pattern = "unmatched"
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)
		m.Requests.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
	})
}
