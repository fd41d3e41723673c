package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Общие HTTP-метрики
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets, // [0.005..10]
		},
		[]string{"method", "path", "status"},
	)

	// Метрики доставки видео
	streamBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stream_bytes_total",
		Help: "Total media bytes written to clients.",
	})

	streamsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "streams_in_flight",
		Help: "Concurrent media streams being served.",
	})

	streamDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_denials_total",
			Help: "Stream requests denied before any media byte was written.",
		},
		[]string{"reason"},
	)

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "Readiness probe result (1 ready, 0 not ready).",
	})
)

// Регистрация метрик в default-регистре.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		streamBytesTotal,
		streamsInFlight,
		streamDenialsTotal,
		ready,
	)
}

// Хэндлер Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady updates the readiness gauge.
func SetReady(ok bool) {
	if ok {
		ready.Set(1)
		return
	}
	ready.Set(0)
}

// AddStreamBytes accounts media bytes written to a client.
func AddStreamBytes(n int64) {
	if n > 0 {
		streamBytesTotal.Add(float64(n))
	}
}

// StreamStarted/StreamFinished track concurrent media streams.
func StreamStarted()  { streamsInFlight.Inc() }
func StreamFinished() { streamsInFlight.Dec() }

// RecordStreamDenial counts a rejected stream request by reason
// (token_expired, token_invalid, not_entitled, not_found, bad_range, ...).
func RecordStreamDenial(reason string) {
	streamDenialsTotal.WithLabelValues(reason).Inc()
}

// CanonicalPath collapses resource identifiers so metric label cardinality
// stays bounded. Playback tokens and row ids never become label values.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if strings.HasPrefix(path, "/stream/") {
		return "/stream/:token"
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 4 && parts[1] == "v1" && (parts[2] == "courses" || parts[2] == "videos") && parts[3] != "":
		return "/v1/" + parts[2] + "/:id"
	case len(parts) == 5 && parts[1] == "v1" && parts[2] == "courses" && (parts[4] == "videos" || parts[4] == "enroll"):
		return "/v1/courses/:id/" + parts[4]
	case len(parts) == 5 && parts[1] == "v1" && parts[2] == "videos" && parts[4] == "playback":
		return "/v1/videos/:id/playback"
	}
	return path
}

// Обёртка для измерения RPS/latency/в полёте.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter — локальная копия, чтобы знать код ответа.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
