package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"lexora.org/internal/auth"
	"lexora.org/internal/catalog"
	"lexora.org/internal/media"
	"lexora.org/internal/obs"
	"lexora.org/internal/playback"
)

// ReadyProbe — простая проверка готовности (ping БД).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API — HTTP слой.
type API struct {
	mux          *http.ServeMux
	readyProbe   ReadyProbe
	version      string
	auth         *auth.Service
	catalog      catalog.Store
	entitlements *catalog.EntitlementChecker
	playback     *playback.Codec
	streamer     *media.Streamer
	mediaRoot    string

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, authSvc *auth.Service, store catalog.Store, codec *playback.Codec, mediaRoot string) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   rp,
		version:      version,
		auth:         authSvc,
		catalog:      store,
		entitlements: catalog.NewEntitlementChecker(store),
		playback:     codec,
		streamer:     media.NewStreamer(),
		mediaRoot:    mediaRoot,
		rateBurst:    20,
		ratePerSec:   10,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// accounts and sessions
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/me", a.handleMe)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	// catalog
	a.mux.HandleFunc("/v1/courses", a.handleCoursesCollection)
	a.mux.HandleFunc("/v1/courses/", a.handleCourseResource)
	a.mux.HandleFunc("/v1/videos", a.handleVideosCollection)
	a.mux.HandleFunc("/v1/videos/", a.handleVideoResource)

	// media delivery; token-gated, no session required
	a.mux.HandleFunc("/stream/", a.handleStream)

	// корень — 404
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler возвращает http.Handler для сервера.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	// оборачиваем весь стек метриками
	return obs.Instrument(h)
}
