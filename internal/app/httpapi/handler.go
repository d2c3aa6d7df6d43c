package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/logistiker/saleor-app/internal/apl"
	"github.com/logistiker/saleor-app/internal/app/metrics"
	svcerrors "github.com/logistiker/saleor-app/internal/errors"
	"github.com/logistiker/saleor-app/internal/httputil"
	"github.com/logistiker/saleor-app/internal/logging"
	"github.com/logistiker/saleor-app/internal/middleware"
	"github.com/logistiker/saleor-app/internal/registration"
	"github.com/logistiker/saleor-app/manifest"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Manifest  manifest.Config
	Registrar *registration.Registrar
	Store     apl.Store
	Logger    *logging.Logger
	// RateLimiter throttles /api/register. Nil disables throttling.
	RateLimiter *middleware.RateLimiter
}

// handler bundles the HTTP endpoints of the app.
type handler struct {
	manifest  manifest.Config
	document  manifest.Manifest
	registrar *registration.Registrar
	store     apl.Store
	log       *logging.Logger
}

// NewHandler returns the app's router with the full middleware chain.
func NewHandler(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logging.Default()
	}
	h := &handler{
		manifest:  deps.Manifest,
		document:  manifest.Build(deps.Manifest),
		registrar: deps.Registrar,
		store:     deps.Store,
		log:       log,
	}

	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware())

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/manifest", handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)(http.HandlerFunc(h.manifestDoc))).Methods(http.MethodGet, http.MethodOptions)

	var register http.Handler = http.HandlerFunc(h.register)
	if deps.RateLimiter != nil {
		register = deps.RateLimiter.Handler(register)
	}
	api.Handle("/register", register).Methods(http.MethodPost)
	api.HandleFunc("/hello", h.hello).Methods(http.MethodGet)

	r.HandleFunc("/app/", h.index).Methods(http.MethodGet)
	r.Handle("/app", http.RedirectHandler("/app/", http.StatusMovedPermanently)).Methods(http.MethodGet)
	r.PathPrefix("/assets/").Handler(assetsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	var out http.Handler = r
	out = middleware.NewTracingMiddleware(log).Handler(out)
	out = handlers.RecoveryHandler(
		handlers.RecoveryLogger(log),
		handlers.PrintRecoveryStack(false),
	)(out)
	return out
}

func (h *handler) manifestDoc(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.document)
}

type registerResponse struct {
	Success bool `json:"success"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	req := registration.ParseRequest(r)

	if _, err := h.registrar.Register(r.Context(), req); err != nil {
		serviceErr := svcerrors.GetServiceError(err)
		if serviceErr == nil {
			serviceErr = svcerrors.Internal("registration failed", err)
		}
		httputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registerResponse{Success: true})
}

func (h *handler) hello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello from the API"))
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   h.manifest.ID,
		"version":   h.manifest.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
