package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/occupeye-cache/api/middleware"
	"github.com/itsatony/occupeye-cache/api/resources"
)

type Router struct {
	router    *mux.Router
	resources *resources.Resources
}

func NewRouter(res *resources.Resources) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: res,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.router.Use(middleware.RequestID)
	r.router.NotFoundHandler = middleware.RequestID(http.HandlerFunc(resources.NotFound))

	// API version prefix
	api := r.router.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)

	// Workspaces
	ws := api.PathPrefix("/workspaces").Subrouter()
	ws.HandleFunc("/surveys", r.resources.Workspaces.ListSurveys).Methods(http.MethodGet)
	ws.HandleFunc("/sensors", r.resources.Workspaces.GetSurveySensors).Methods(http.MethodGet)
	ws.HandleFunc("/images/{image_id}", r.resources.Workspaces.GetImage).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
