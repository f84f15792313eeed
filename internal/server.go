package internal

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/actions"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/auth"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/config"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/form"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/handlers"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/notify"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/proxy"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/store"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/validation"
)

type Server struct {
	Config     *config.Config
	Router     *chi.Mux
	Sessions   *auth.SessionManager
	Backend    *backend.Client
	Toasts     *notify.Center
	Drafts     *form.Drafts
	Actions    *actions.Dispatcher
	Imports    *handlers.ImportsHandler
	Dummy      *proxy.DummyData
	LoginLimit *auth.IPRateLimiter
	Metrics    *Metrics
	Logger     *zap.Logger

	validate *validator.Validate
	pages    map[string]*template.Template
}

// NewServer wires the frontend for cfg. The backend is not contacted until
// the first request.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionCookie, cfg.SessionTTL)
	sessions.SetSecure(cfg.IsProduction())
	if err := sessions.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("session configuration: %w", err)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	// Initialize metrics; the backend counter runs even when /metrics is off
	metrics := NewMetrics()

	client := backend.NewClient(cfg.BackendURL,
		backend.WithLogger(logger),
		backend.WithObserver(metrics),
	)
	toasts := notify.NewCenter(cfg.NotifySuccessTTL, cfg.NotifyErrorTTL)
	drafts := form.NewDrafts(cfg.DraftTTL)

	s := &Server{
		Config:     cfg,
		Router:     chi.NewRouter(),
		Sessions:   sessions,
		Backend:    client,
		Toasts:     toasts,
		Drafts:     drafts,
		Actions:    actions.New(client, toasts, drafts, logger),
		Imports:    handlers.NewImportsHandler(client, cfg.ImportMapping, logger),
		Dummy:      proxy.NewDummyData(cfg.DummyDataURL, nil, logger),
		LoginLimit: auth.NewIPRateLimiter(rate.Limit(cfg.LoginRatePerSec), cfg.LoginBurst),
		Metrics:    metrics,
		Logger:     logger,
		validate:   validation.New(),
		pages:      pages,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.Router
	r.Use(RequestID)
	r.Use(RequestLogger(s.Logger))

	// Mount metrics if enabled
	if s.Config.EnableMetrics {
		r.Use(s.Metrics.Middleware())
		r.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	r.Handle("/api/fetchdummydata", s.Dummy)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS()))))
	r.Get(auth.LoginPath, s.loginPage)
	r.With(auth.RateLimit(s.LoginLimit)).Post(auth.LoginPath, s.login)

	// Everything else needs a session
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(s.Sessions, s.Logger))

		r.Post("/logout", s.logout)
		r.Get("/", s.home)
		r.Get("/about", s.about)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.listDevices)
			r.Get("/new", s.newDevicePage)
			r.Post("/new", s.updateNewDevice)
			r.Post("/new/specs", s.addSpecDefinition)
			r.Post("/new/reset", s.resetNewDevice)
			r.Get("/import", s.importPage)
			r.Post("/import", s.importDevices)
			r.Get("/{id}/edit", s.editDevicePage)
			r.Post("/{id}", s.saveDevice)
			r.Post("/{id}/delete", s.deleteDevice)
			r.Get("/{id}/label.png", s.deviceLabel)
		})

		r.Route("/borrowedstatus", func(r chi.Router) {
			r.Get("/", s.listBorrowStatuses)
			r.Get("/{id}", s.borrowStatusDetail)
			r.Post("/{id}/{action}", s.borrowStatusAction)
		})
		r.Get("/borrowedrequest", s.borrowRequestPage)
		r.Post("/borrowedrequest", s.borrowRequest)

		r.Get("/api/views/devices", s.devicesView)
		r.Get("/api/views/borrowedstatus", s.borrowStatusesView)
		r.Post("/api/imports/devices", s.Imports.UploadExcel)
	})
}

// ServeHTTP lets the server be used as the http.Server handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// session returns the session RequireSession put into the request
func session(r *http.Request) models.Session {
	sess, _ := auth.SessionFromContext(r.Context())
	return sess
}

// deviceCollection is the device list of one request
func (s *Server) deviceCollection(sess models.Session) *store.Collection[models.Device] {
	return store.FromBackend[models.Device](s.Backend.ForSession(sess), backend.PathDevices, s.Logger)
}

// statusCollection is the borrow status list of one request
func (s *Server) statusCollection(sess models.Session) *store.Collection[models.BorrowStatus] {
	return store.FromBackend[models.BorrowStatus](s.Backend.ForSession(sess), backend.PathBorrowStatus, s.Logger)
}

// abandoned handles the errors that end a request without a page: an expired
// backend token sends the user to the login page, a client that went away
// gets nothing. It reports whether the request was handled.
func (s *Server) abandoned(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		s.Logger.Info("backend rejected session token", zap.String("path", r.URL.Path))
		s.Sessions.Unauthenticated(w, r, "BACKEND_UNAUTHORIZED")
		return true
	case errors.Is(err, context.Canceled):
		return true
	}
	return false
}

// loadStatus is the HTTP status of a page whose data could not be loaded
func loadStatus(err error) int {
	if errors.Is(err, backend.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// pathID parses the {id} route parameter
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
