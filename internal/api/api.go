package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/contabilidad-io/contabilidad/internal/auth"
	"github.com/contabilidad-io/contabilidad/internal/config"
	"github.com/contabilidad-io/contabilidad/internal/database"
	"github.com/contabilidad-io/contabilidad/internal/storage"
)

// Api wires storage, auth and the exporter behind the HTTP surface.
type Api struct {
	Config config.Config
	Router *chi.Mux

	db           *database.DB
	tokenManager *auth.TokenManager
	resetService *auth.ResetService
	exporter     *storage.S3Client
}

// NewApi builds the router. exporter may be nil when object storage is
// not configured; the export endpoints then answer 503.
func NewApi(cfg config.Config, db *database.DB, tokenManager *auth.TokenManager, resetService *auth.ResetService, exporter *storage.S3Client) (*Api, error) {
	api := &Api{
		Config:       cfg,
		Router:       chi.NewRouter(),
		db:           db,
		tokenManager: tokenManager,
		resetService: resetService,
		exporter:     exporter,
	}
	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/heartbeat", api.Heartbeat)

	// Public auth routes
	r.Post("/auth/register", api.RegisterHandler)
	r.Post("/auth/login", api.LoginHandler)
	r.Post("/auth/forgot-password", api.ForgotPasswordHandler)
	r.Post("/auth/reset-password", api.ResetPasswordHandler)

	// Accountability tracker, deliberately unauthenticated and kept on
	// its own /api prefix away from the bookkeeping surface.
	r.Route("/api", func(r chi.Router) {
		r.Get("/goals", api.ListGoalsHandler)
		r.Post("/goals", api.CreateGoalHandler)
		r.Get("/goals/{id}", api.GetGoalHandler)
		r.Put("/goals/{id}", api.UpdateGoalHandler)
		r.Delete("/goals/{id}", api.DeleteGoalHandler)
		r.Get("/goals/{id}/tasks", api.ListTasksHandler)
		r.Get("/goals/{id}/logs", api.ListLogsHandler)
		r.Post("/tasks", api.CreateTaskHandler)
		r.Put("/tasks/{id}/toggle", api.ToggleTaskHandler)
		r.Delete("/tasks/{id}", api.DeleteTaskHandler)
		r.Post("/logs", api.CreateLogHandler)
	})

	// Everything below requires a bearer token
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(api.tokenManager))

		r.Get("/facturas", api.ListFacturasHandler)
		r.Post("/facturas", api.CreateFacturaHandler)
		r.Get("/facturas/{id}", api.GetFacturaHandler)
		r.Put("/facturas/{id}", api.UpdateFacturaHandler)
		r.Delete("/facturas/{id}", api.DeleteFacturaHandler)

		r.Get("/servicios", api.ListServiciosHandler)
		r.Post("/servicios", api.CreateServicioHandler)
		r.Get("/servicios/{id}", api.GetServicioHandler)
		r.Put("/servicios/{id}", api.UpdateServicioHandler)
		r.Delete("/servicios/{id}", api.DeleteServicioHandler)

		r.Get("/empresas", api.GetEmpresaCIFHandler)
		r.Get("/empresas/search", api.SearchEmpresasHandler)
		r.Get("/empresas/all", api.ListEmpresasHandler)
		r.Post("/empresas", api.SaveEmpresaHandler)

		r.Get("/datosPersonales", api.GetDatosPersonalesHandler)
		r.Post("/datosPersonales", api.SaveDatosPersonalesHandler)

		r.Get("/reportes/facturas", api.ReporteFacturasHandler)
		r.Get("/reportes/servicios", api.ReporteServiciosHandler)
		r.Post("/reportes/facturas/export", api.ExportFacturasHandler)
		r.Post("/reportes/servicios/export", api.ExportServiciosHandler)
	})
}

func (api *Api) corsOrigins() []string {
	if len(api.Config.CORSOrigins) > 0 {
		return api.Config.CORSOrigins
	}
	return []string{"http://localhost:*", "http://127.0.0.1:*"}
}

func (api *Api) Heartbeat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Serve blocks listening on the configured port.
func (api *Api) Serve() {
	addr := fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort)
	log.Printf("Starting API server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, api.Router))
}
