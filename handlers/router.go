package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"poi-explorer/metrics"
	"poi-explorer/middleware"
)

type RouterConfig struct {
	AllowedOrigins []string
	JWTSecret      string
	Logger         *zap.Logger
}

// NewRouter registers every route of the service.
func NewRouter(cfg RouterConfig, auth *AuthHandler, users *UserHandler, pois *POIHandler, hoods *NeighborhoodHandler) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.RecoveryMiddleware(cfg.Logger))
	r.Use(middleware.AccessLogMiddleware(cfg.Logger))
	r.Use(metrics.Middleware())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", auth.RegisterUser).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", auth.LoginUser).Methods("POST", "OPTIONS")

	// Catalog routes
	r.HandleFunc("/categories", pois.ListCategories).Methods("GET", "OPTIONS")
	r.HandleFunc("/neighborhoods", hoods.ListNeighborhoods).Methods("GET", "OPTIONS")
	r.HandleFunc("/neighborhoods/nearest", hoods.GetNearestNeighborhood).Methods("GET", "OPTIONS")
	r.HandleFunc("/neighborhoods/{id}", hoods.GetNeighborhood).Methods("GET", "OPTIONS")

	// User routes
	userRouter := r.PathPrefix("/user").Subrouter()
	userRouter.Use(middleware.JWTMiddleware(cfg.JWTSecret))
	userRouter.HandleFunc("/me", users.Me).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/token", pois.SaveToken).Methods("PUT", "OPTIONS")
	userRouter.HandleFunc("/pois", pois.GetPOIs).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/markers", pois.GetMarkers).Methods("GET", "OPTIONS")

	return r
}
