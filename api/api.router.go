// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/hydrohub/api/middleware"
	"github.com/itsatony/hydrohub/api/resources"
	"github.com/itsatony/hydrohub/docs"
	"github.com/itsatony/hydrohub/internal/hubservice"
)

// RouterOptions carries the handlers and limits the router needs beyond the service
type RouterOptions struct {
	CORSOrigins   []string
	MaxUploadSize int64
	Health        http.HandlerFunc
	Realtime      http.Handler
	MetricsPath   string
	Metrics       http.Handler
}

type Router struct {
	router    *mux.Router
	handler   http.Handler
	resources *resources.Resources
}

func NewRouter(svc *hubservice.HubService, opts RouterOptions) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: resources.NewResources(svc, opts.MaxUploadSize),
	}
	if opts.Health != nil {
		r.resources.SetHealthCheck(opts.Health)
	}

	r.setupRoutes(opts)
	r.handler = middleware.Chain(r.router, opts.CORSOrigins)
	return r
}

func (r *Router) setupRoutes(opts RouterOptions) {
	// Public routes
	if r.resources.HealthCheck != nil {
		r.router.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	}
	if opts.Metrics != nil && opts.MetricsPath != "" {
		r.router.Handle(opts.MetricsPath, opts.Metrics).Methods(http.MethodGet)
	}
	if opts.Realtime != nil {
		r.router.Handle("/ws", opts.Realtime)
	}
	r.router.HandleFunc("/swagger/doc.json", serveSwagger).Methods(http.MethodGet)

	// Units
	units := r.router.PathPrefix("/units").Subrouter()
	units.HandleFunc("", r.resources.Units.ListUnits).Methods(http.MethodGet)
	units.HandleFunc("/{unit}/sensors", r.resources.Units.GetSensors).Methods(http.MethodGet)
	units.HandleFunc("/{unit}/relays", r.resources.Units.GetRelays).Methods(http.MethodGet)
	units.HandleFunc("/{unit}/relay", r.resources.Units.SetRelay).Methods(http.MethodPost)
	units.HandleFunc("/{unit}/schedule", r.resources.Units.GetSchedule).Methods(http.MethodGet)
	units.HandleFunc("/{unit}/schedule", r.resources.Units.SetSchedule).Methods(http.MethodPost)
	units.HandleFunc("/{unit}/cameras/latest", r.resources.Units.LatestCameraGrid).Methods(http.MethodGet)

	// Rooms
	rooms := r.router.PathPrefix("/room").Subrouter()
	rooms.HandleFunc("/back/ac_schedule", r.resources.Rooms.GetACSchedule).Methods(http.MethodGet)
	rooms.HandleFunc("/back/ac_schedule", r.resources.Rooms.UpdateACSchedule).Methods(http.MethodPost)
	rooms.HandleFunc("/{room}/sensors", r.resources.Rooms.GetSensors).Methods(http.MethodGet)

	// Cameras; /status must win over /{unit}
	cameras := r.router.PathPrefix("/cameras").Subrouter()
	cameras.HandleFunc("/status", r.resources.Cameras.Status).Methods(http.MethodGet)
	cameras.HandleFunc("/{unit}", r.resources.Cameras.ListCameras).Methods(http.MethodGet)
	cameras.HandleFunc("/{camera}/images", r.resources.Cameras.ListImages).Methods(http.MethodGet)
	cameras.HandleFunc("/{camera}/upload", r.resources.Cameras.Upload).Methods(http.MethodPost)
	r.router.HandleFunc("/camera_images/{filename}", r.resources.Cameras.ServeImage).Methods(http.MethodGet)

	// Export
	export := r.router.PathPrefix("/export").Subrouter()
	export.HandleFunc("/sensors/csv", r.resources.Export.SensorsCSV).Methods(http.MethodGet)
	export.HandleFunc("/sensors/xlsx", r.resources.Export.SensorsXLSX).Methods(http.MethodGet)
	export.HandleFunc("/images/zip", r.resources.Export.ImagesZIP).Methods(http.MethodGet)
}

func serveSwagger(w http.ResponseWriter, r *http.Request) {
	doc := docs.SwaggerInfo.ReadDoc()
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
