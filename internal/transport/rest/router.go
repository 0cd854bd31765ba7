package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"liveroom/internal/service"
	"liveroom/internal/transport/rest/handler"
	"liveroom/internal/transport/rest/middleware"
	"liveroom/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	AuthService         *service.AuthService
	RoomService         *service.RoomService
	TeamService         *service.TeamService
	BuzzerService       *service.BuzzerService
	PresentationService *service.PresentationService
	ScoreService        *service.ScoreService
	Hub                 *ws.Hub
	Registry            *ws.Registry
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	roomHandler := handler.NewRoomHandler(c.RoomService, c.AuthService)
	scoreHandler := handler.NewScoreHandler(c.ScoreService)
	wsHandler := ws.NewHandler(
		c.Hub,
		c.Registry,
		c.AuthService,
		c.RoomService,
		c.TeamService,
		c.BuzzerService,
		c.PresentationService,
		c.ScoreService,
	)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	// Authenticated routes
	authed := v1.NewRoute().Subrouter()
	authed.Use(authMW.RequireAuth)
	authed.HandleFunc("/rooms/{id}", roomHandler.Get).Methods("GET")
	authed.HandleFunc("/rooms/{id}/validate", roomHandler.Validate).Methods("GET")
	authed.HandleFunc("/rooms/{id}/standings", scoreHandler.Standings).Methods("GET")

	// Host-only routes
	hosted := v1.NewRoute().Subrouter()
	hosted.Use(authMW.RequireHost)
	hosted.HandleFunc("/rooms", roomHandler.Create).Methods("POST")
	hosted.HandleFunc("/rooms/{id}/publish", roomHandler.Publish).Methods("POST")
	hosted.HandleFunc("/rooms/{id}/archive", roomHandler.Archive).Methods("POST")
	hosted.HandleFunc("/rooms/{id}/participants", roomHandler.AddParticipant).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return cors.AllowAll().Handler(r)
}
