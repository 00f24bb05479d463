package main

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"learnly/internal/auth"
	"learnly/internal/profile"
	"learnly/internal/quiz"
	"learnly/internal/realtime"
	"learnly/internal/studyset"
	"learnly/pkg/httpx"
	"learnly/pkg/websocket"
)

type app struct {
	router *mux.Router
	hub    *websocket.Hub
}

// newApp wires repositories, services and handlers onto one router. The
// hub must be started by the caller.
func newApp(db *gorm.DB, tokens *auth.TokenManager, sessions quiz.SessionStore, log *slog.Logger) *app {
	wsHub := websocket.NewHub(tokens, log)

	// Initialize repositories
	authRepo := auth.NewRepository(db)
	setRepo := studyset.NewRepository(db)
	quizRepo := quiz.NewRepository(db)

	// Initialize services
	authService := auth.NewService(authRepo, tokens, log)
	setService := studyset.NewService(setRepo, wsHub, log)
	quizService := quiz.NewService(quizRepo, setService, sessions, wsHub, log)
	profileService := profile.NewService(authRepo, quizRepo)
	wsHub.SetSource(realtime.NewSource(setService, quizService))

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Auth routes - no JWT required
	authHandler := auth.NewHandler(authService, log)
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/anonymous", authHandler.Anonymous).Methods("POST", "OPTIONS")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.JWTMiddleware(tokens))
	studyset.NewHandler(setService, log).Register(apiRouter)
	quiz.NewHandler(quizService, log).Register(apiRouter)
	profile.NewHandler(profileService, log).Register(apiRouter)

	// WebSocket endpoint; the token travels as a query parameter
	router.HandleFunc("/ws/{collection}", wsHub.HandleWebSocket)

	return &app{router: router, hub: wsHub}
}
