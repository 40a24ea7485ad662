package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"invoice-system/internal/domain/auth"
	"invoice-system/internal/domain/invoice"
	"invoice-system/internal/domain/stats"
	"invoice-system/internal/events"
	"invoice-system/internal/platform/apperr"
	jwtpkg "invoice-system/internal/platform/jwt"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Auth     *auth.Service
	Invoices *invoice.Service
	Stats    *stats.Service
	Tokens   *jwtpkg.Manager
	Events   chan<- events.InvoiceEvent
	DB       Pinger
	Logger   *zap.Logger

	CORSOrigins       []string
	AuthRatePerMinute int
	AuthRateBurst     int
	// TrustProxy takes the client address from X-Forwarded-For and friends.
	// Leave it off unless a proxy in front overwrites those headers.
	TrustProxy bool
}

type Handler struct {
	authSvc    *auth.Service
	invoiceSvc *invoice.Service
	statsSvc   *stats.Service
	events     chan<- events.InvoiceEvent
	db         Pinger
	logger     *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		authSvc:    d.Auth,
		invoiceSvc: d.Invoices,
		statsSvc:   d.Stats,
		events:     d.Events,
		db:         d.DB,
		logger:     logger,
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, apperr.NotFound("not_found", "Not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, &apperr.AppError{Code: "method_not_allowed", Message: "Method not allowed"})
	})

	r.Get("/", h.handleIndex)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Group(func(r chi.Router) {
			if d.AuthRatePerMinute > 0 {
				r.Use(RateLimit(rate.Every(time.Minute/time.Duration(d.AuthRatePerMinute)), max(d.AuthRateBurst, 1)))
			}
			r.Post("/register", h.handleRegister)
			r.Post("/login", h.handleLogin)
		})
		r.Get("/current-user", h.handleCurrentUser)
		r.Post("/logout", h.handleLogout)

		r.Route("/invoices", func(r chi.Router) {
			r.Use(AuthMiddleware(d.Tokens))

			r.Get("/", h.handleListInvoices)
			r.Post("/", h.handleCreateInvoice)
			r.Get("/stats", h.handleInvoiceStats)
			r.Get("/{id:[0-9]+}", h.handleGetInvoice)
			r.Put("/{id:[0-9]+}", h.handleUpdateInvoice)
			r.Delete("/{id:[0-9]+}", h.handleDeleteInvoice)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON treats an empty body as an empty object so that field
// validation reports what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.BadRequest("validation_error", "Invalid JSON body", err)
	}
	return nil
}

// parseIDParam fails only on overflow; the route pattern admits digits only.
func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, apperr.NotFound("not_found", "Invoice not found", err)
	}
	return id, nil
}
