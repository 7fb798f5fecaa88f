package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appchecks "github.com/bryanwahyu/aeo-tracker/internal/application/checks"
	appprojects "github.com/bryanwahyu/aeo-tracker/internal/application/projects"
	appstats "github.com/bryanwahyu/aeo-tracker/internal/application/stats"
	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	domai "github.com/bryanwahyu/aeo-tracker/internal/domain/ai"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/identity"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
	"github.com/bryanwahyu/aeo-tracker/internal/metrics"
	"github.com/bryanwahyu/aeo-tracker/internal/middleware"
)

// Deps is everything the HTTP layer needs. Limiter and Health are optional.
type Deps struct {
	Projects    *appprojects.Service
	Checks      *appchecks.Service
	Stats       *appstats.Service
	Verifier    identity.Verifier
	Identity    identity.Provider
	Limiter     middleware.Limiter
	Health      map[string]middleware.HealthChecker
	CORSOrigins []string
	Logger      *zap.Logger
}

type Router struct {
	projectsSvc *appprojects.Service
	checksSvc   *appchecks.Service
	statsSvc    *appstats.Service
	verifier    identity.Verifier
	identity    identity.Provider
	logger      *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		projectsSvc: d.Projects,
		checksSvc:   d.Checks,
		statsSvc:    d.Stats,
		verifier:    d.Verifier,
		identity:    d.Identity,
		logger:      logger,
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Recover(logger))
	mux.Use(middleware.Logging(logger))
	mux.Use(middleware.Metrics)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	mux.NotFound(notFound)
	mux.MethodNotAllowed(notFound)

	routes := func(rt chi.Router) {
		rt.Get("/health", middleware.HealthHandler(d.Health))
		rt.Get("/health/live", middleware.LivenessHandler)
		rt.Get("/health/ready", middleware.ReadinessHandler(d.Health))
		rt.Get("/metrics", metrics.Handler)

		rt.Post("/auth/login", r.wrap(r.handleLogin))
		rt.Post("/auth/logout", r.wrap(r.handleLogout))
		rt.Get("/auth/session", r.wrap(r.handleSession))
		rt.Post("/auth/session", r.wrap(r.handleSession))

		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.BearerAuth(d.Verifier))
			if d.Limiter != nil {
				pr.Use(middleware.RateLimit(d.Limiter, logger))
			}

			pr.Post("/projects", r.wrap(r.handleCreateProject))
			pr.Get("/projects", r.wrap(r.handleListProjects))
			pr.Get("/projects/{id}", r.wrap(r.handleGetProject))
			pr.Patch("/projects/{id}", r.wrap(r.handleUpdateProject))

			pr.Post("/checks/run", r.wrap(r.handleRunChecks))
			pr.Get("/checks/history", r.wrap(r.handleHistory))
			pr.Get("/checks/failures", r.wrap(r.handleFailures))

			pr.Get("/dashboard/stats", r.wrap(r.handleDashboard))
		})
	}

	routes(mux)
	mux.Route("/api", func(api chi.Router) {
		api.NotFound(notFound)
		api.MethodNotAllowed(notFound)
		routes(api)
	})

	return mux
}

const maxBodyBytes = 1 << 20

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap is the single place where errors become HTTP responses.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			body := map[string]any{"error": verr.Message}
			if verr.Details != nil {
				body["details"] = verr.Details
			}
			writeJSON(w, http.StatusBadRequest, body)
			return
		}

		var herr domain.HTTPError
		if errors.As(err, &herr) {
			writeJSON(w, herr.StatusCode(), map[string]string{"error": herr.Error()})
			return
		}

		if errors.Is(err, domai.ErrQuotaExceeded) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "ai quota exceeded"})
			return
		}

		r.logger.Error("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", chimw.GetReqID(req.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}

// POST /auth/login
// Body: {"email": "...", "redirectTo": "..."}
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email      string `json:"email"`
		RedirectTo string `json:"redirectTo"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	body.Email = strings.TrimSpace(body.Email)
	if err := middleware.ValidateEmail(body.Email); err != nil {
		return domain.NewValidation("valid email is required")
	}
	if err := middleware.ValidateRedirectURL(body.RedirectTo); err != nil {
		return domain.NewValidation(err.Error())
	}

	if err := r.identity.SendLoginLink(req.Context(), body.Email, body.RedirectTo); err != nil {
		// provider menolak (rate limit, email invalid) → 400 seperti sebelumnya
		r.logger.Warn("login link failed", zap.Error(err))
		return domain.NewValidation(err.Error())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Check your email for the magic link!",
		"success": true,
	})
	return nil
}

// POST /auth/logout
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	if token := middleware.BearerToken(req); token != "" {
		if err := r.identity.Logout(req.Context(), token); err != nil {
			return domain.NewValidation(err.Error())
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}

// GET|POST /auth/session
func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) error {
	var user *identity.User
	if token := middleware.BearerToken(req); token != "" {
		if u, err := r.verifier.ValidateToken(req.Context(), token); err == nil {
			user = u
		}
	}
	writeJSON(w, http.StatusOK, map[string]*identity.User{"user": user})
	return nil
}

// POST /projects
func (r *Router) handleCreateProject(w http.ResponseWriter, req *http.Request) error {
	var in appprojects.CreateProjectInput
	if err := decode(req, &in); err != nil {
		return err
	}
	p, err := r.projectsSvc.Create(req.Context(), userID(req), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, p)
	return nil
}

// GET /projects
func (r *Router) handleListProjects(w http.ResponseWriter, req *http.Request) error {
	list, err := r.projectsSvc.List(req.Context(), userID(req))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /projects/{id}
func (r *Router) handleGetProject(w http.ResponseWriter, req *http.Request) error {
	p, err := r.projectsSvc.Get(req.Context(), userID(req), visibility.ProjectID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, p)
	return nil
}

// PATCH /projects/{id}
func (r *Router) handleUpdateProject(w http.ResponseWriter, req *http.Request) error {
	var in appprojects.UpdateProjectInput
	if err := decode(req, &in); err != nil {
		return err
	}
	p, err := r.projectsSvc.Update(req.Context(), userID(req), visibility.ProjectID(chi.URLParam(req, "id")), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, p)
	return nil
}

// POST /checks/run
// Body: {"projectId": "<id>"}
// Runs synchronously; the response carries every stored check.
func (r *Router) handleRunChecks(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ProjectID string `json:"projectId"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	if strings.TrimSpace(body.ProjectID) == "" {
		return domain.NewValidation("projectId required")
	}
	if err := appprojects.ValidateID(visibility.ProjectID(body.ProjectID)); err != nil {
		return err
	}

	result, err := r.checksSvc.Run(req.Context(), userID(req), visibility.ProjectID(body.ProjectID))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}

// GET /checks/history?projectId=&days=30
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	list, err := r.statsSvc.History(req.Context(), userID(req),
		visibility.ProjectID(q.Get("projectId")), middleware.QueryInt(q, "days"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /checks/failures?projectId=&limit=20
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	list, err := r.statsSvc.Failures(req.Context(), userID(req),
		visibility.ProjectID(q.Get("projectId")), middleware.QueryInt(q, "limit"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /dashboard/stats?projectId=
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	d, err := r.statsSvc.Dashboard(req.Context(), userID(req), visibility.ProjectID(req.URL.Query().Get("projectId")))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, d)
	return nil
}

func userID(req *http.Request) string {
	if u := middleware.UserFromContext(req.Context()); u != nil {
		return u.ID
	}
	return ""
}

// decode reads a JSON body of at most 1 MiB. An empty body leaves v untouched.
func decode(req *http.Request, v any) error {
	if req.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidation("invalid JSON body")
	}
	return nil
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
