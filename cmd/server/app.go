package main

import (
	"net/http"

	"github.com/uclergnlts/tav-egitim/auth"
	"github.com/uclergnlts/tav-egitim/gate"
	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/handlers"
	"github.com/uclergnlts/tav-egitim/internal/logging"
	"github.com/uclergnlts/tav-egitim/internal/metrics"
	"github.com/uclergnlts/tav-egitim/internal/policy"
	"github.com/uclergnlts/tav-egitim/internal/ratelimit"
	"github.com/uclergnlts/tav-egitim/internal/services"
	"gorm.io/gorm"
)

// Deps are the long-lived collaborators the router is built from.
type Deps struct {
	DB         *gorm.DB
	Sessions   *auth.Manager
	AuthGate   *policy.AuthGate
	Limiter    *ratelimit.Limiter // nil disables rate limiting
	Audit      audit.Recorder
	AuditStore *audit.GormStore
}

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	deps    Deps
	handler http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(deps Deps) *App {
	if deps.Audit == nil {
		deps.Audit = audit.Discard{}
	}
	if deps.AuditStore == nil {
		deps.AuditStore = audit.NewGormStore(deps.DB)
	}
	app := &App{mux: http.NewServeMux(), deps: deps}
	app.setupRoutes()
	app.handler = httpx.Recover(logging.Middleware(app.route)(deps.Sessions.Middleware(app.mux)))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// route names the matched pattern for access logs and metrics.
func (a *App) route(r *http.Request) string {
	_, pattern := a.mux.Handler(r)
	return pattern
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	db, rec := a.deps.DB, a.deps.Audit

	ah := handlers.NewAuthHandler(db, a.deps.Sessions, rec)
	ph := handlers.NewPersonnelHandler(db, rec)
	th := handlers.NewTrainingHandler(db, rec)
	trh := handlers.NewTrainerHandler(db, rec)
	dh := handlers.NewDefinitionHandler(db, services.NewDefinitions(db, rec), rec)
	ath := handlers.NewAttendanceHandler(db, services.NewAttendanceService(db, rec), a.deps.AuthGate)
	ih := handlers.NewImportHandler(services.NewImporter(db, rec))
	rh := handlers.NewReportHandler(services.NewReports(db))
	uh := handlers.NewUserHandler(db, a.deps.AuthGate, rec)
	lh := handlers.NewAuditLogHandler(a.deps.AuditStore)

	// Public
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", metrics.Handler())
	a.mux.Handle("POST /api/auth/login", a.limit("login", ratelimit.Strict)(http.HandlerFunc(ah.Login)))

	// Session
	a.mux.Handle("POST /api/auth/logout", a.limit("auth", ratelimit.Standard)(http.HandlerFunc(ah.Logout)))
	a.mux.Handle("GET /api/auth/me", a.authed(http.HandlerFunc(ah.Me)))

	// Personnel
	a.mux.Handle("GET /api/personnel", a.can(policy.ResourcePersonnel, gate.ActionList, ph.List))
	a.mux.Handle("POST /api/personnel", a.can(policy.ResourcePersonnel, gate.ActionCreate, ph.Create))
	a.mux.Handle("GET /api/personnel/{id}", a.can(policy.ResourcePersonnel, gate.ActionView, ph.Get))
	a.mux.Handle("PUT /api/personnel/{id}", a.can(policy.ResourcePersonnel, gate.ActionUpdate, ph.Update))
	a.mux.Handle("DELETE /api/personnel/{id}", a.can(policy.ResourcePersonnel, gate.ActionDelete, ph.Delete))

	// Trainings and topics
	a.mux.Handle("GET /api/trainings", a.can(policy.ResourceTraining, gate.ActionList, th.List))
	a.mux.Handle("POST /api/trainings", a.can(policy.ResourceTraining, gate.ActionCreate, th.Create))
	a.mux.Handle("GET /api/trainings/{id}", a.can(policy.ResourceTraining, gate.ActionView, th.Get))
	a.mux.Handle("PUT /api/trainings/{id}", a.can(policy.ResourceTraining, gate.ActionUpdate, th.Update))
	a.mux.Handle("DELETE /api/trainings/{id}", a.can(policy.ResourceTraining, gate.ActionDelete, th.Delete))
	a.mux.Handle("GET /api/trainings/{id}/topics", a.can(policy.ResourceTraining, gate.ActionView, th.ListTopics))
	a.mux.Handle("POST /api/trainings/{id}/topics", a.can(policy.ResourceTraining, gate.ActionUpdate, th.CreateTopic))
	a.mux.Handle("DELETE /api/trainings/{id}/topics/{topicId}", a.can(policy.ResourceTraining, gate.ActionUpdate, th.DeleteTopic))

	// Trainers
	a.mux.Handle("GET /api/trainers", a.can(policy.ResourceTrainer, gate.ActionList, trh.List))
	a.mux.Handle("POST /api/trainers", a.can(policy.ResourceTrainer, gate.ActionCreate, trh.Create))
	a.mux.Handle("PUT /api/trainers/{id}", a.can(policy.ResourceTrainer, gate.ActionUpdate, trh.Update))
	a.mux.Handle("DELETE /api/trainers/{id}", a.can(policy.ResourceTrainer, gate.ActionDelete, trh.Delete))

	// Definitions
	a.mux.Handle("GET /api/definitions/{kind}", a.can(policy.ResourceDefinition, gate.ActionList, dh.List))
	a.mux.Handle("POST /api/definitions/{kind}", a.can(policy.ResourceDefinition, gate.ActionCreate, dh.Create))
	a.mux.Handle("PUT /api/definitions/{kind}/{id}", a.can(policy.ResourceDefinition, gate.ActionUpdate, dh.Update))
	a.mux.Handle("DELETE /api/definitions/{kind}/{id}", a.can(policy.ResourceDefinition, gate.ActionDelete, dh.Delete))

	// Attendance
	a.mux.Handle("GET /api/attendance", a.can(policy.ResourceAttendance, gate.ActionList, ath.List))
	a.mux.Handle("POST /api/attendance", a.can(policy.ResourceAttendance, gate.ActionCreate, ath.Create))
	a.mux.Handle("PUT /api/attendance/{id}", a.can(policy.ResourceAttendance, gate.ActionUpdate, ath.Update))
	a.mux.Handle("DELETE /api/attendance/{id}", a.can(policy.ResourceAttendance, gate.ActionDelete, ath.Delete))

	// Imports
	importLimit := a.limit("import", ratelimit.Generous)
	a.mux.Handle("POST /api/import/personnel", importLimit(a.allow(policy.ResourceImport, gate.ActionImport, ih.Personnel())))
	a.mux.Handle("POST /api/import/trainings", importLimit(a.allow(policy.ResourceImport, gate.ActionImport, ih.Trainings())))
	a.mux.Handle("POST /api/import/trainers", importLimit(a.allow(policy.ResourceImport, gate.ActionImport, ih.Trainers())))
	a.mux.Handle("POST /api/import/attendance", importLimit(a.allow(policy.ResourceImport, gate.ActionImport, ih.Attendance())))

	// Reports
	a.mux.Handle("GET /api/reports/monthly", a.can(policy.ResourceReport, gate.ActionView, rh.Monthly))
	a.mux.Handle("GET /api/reports/yearly", a.can(policy.ResourceReport, gate.ActionView, rh.Yearly))
	a.mux.Handle("GET /api/reports/detail", a.can(policy.ResourceReport, gate.ActionView, rh.Detail))
	a.mux.Handle("GET /api/reports/{report}/export",
		a.limit("export", ratelimit.Export)(a.allow(policy.ResourceReport, gate.ActionExport, rh.Export)))

	// Administration
	a.mux.Handle("GET /api/users", a.admin(uh.List))
	a.mux.Handle("POST /api/users", a.admin(uh.Create))
	a.mux.Handle("PUT /api/users/{id}", a.admin(uh.Update))
	a.mux.Handle("DELETE /api/users/{id}", a.admin(uh.Delete))
	a.mux.Handle("GET /api/audit-logs", a.admin(lh.List))
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// limit applies a rate limit preset, or nothing when the limiter is disabled.
func (a *App) limit(purpose string, cfg ratelimit.Config) func(http.Handler) http.Handler {
	if a.deps.Limiter == nil {
		return ratelimit.Passthrough
	}
	return a.deps.Limiter.Middleware(purpose, cfg)
}

// authed requires a valid session under the standard rate limit.
func (a *App) authed(next http.Handler) http.Handler {
	return a.limit("api", ratelimit.Standard)(auth.RequireAuth(next))
}

// allow requires a session and resource permission, without a rate limit.
func (a *App) allow(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.deps.AuthGate.RequirePermission(resource, action)(h))
}

// can is allow under the standard rate limit.
func (a *App) can(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
	return a.limit("api", ratelimit.Standard)(a.allow(resource, action, h))
}

// admin requires the super admin profile.
func (a *App) admin(h http.HandlerFunc) http.Handler {
	return a.authed(a.deps.AuthGate.RequireAdmin()(h))
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

func (a *App) healthz(w http.ResponseWriter, _ *http.Request) {
	httpx.OK(w, http.StatusOK, map[string]string{"status": "ok"})
}

// health also pings the database.
func (a *App) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.deps.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("health check: database unreachable")
		httpx.JSON(w, http.StatusServiceUnavailable, httpx.Envelope{
			Success: false,
			Code:    httpx.CodeInternal,
			Message: "Veritabanı bağlantısı yok",
			Data:    map[string]string{"status": "degraded", "database": "down"},
		})
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}
