package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	adminauth "github.com/vicky05092005/statatics-quiz/internal/admin"
	"github.com/vicky05092005/statatics-quiz/internal/bank"
	"github.com/vicky05092005/statatics-quiz/internal/config"
	"github.com/vicky05092005/statatics-quiz/internal/quiz"
	"github.com/vicky05092005/statatics-quiz/internal/results"
	"github.com/vicky05092005/statatics-quiz/internal/settings"
)

// Deps collects the handler sets the server exposes.
type Deps struct {
	Auth     *adminauth.Auth
	Quiz     *quiz.Handlers
	Settings *settings.Handlers
	Bank     *bank.Handlers
	Results  *results.Handlers
}

// NewHTTPServer wires all routes. Admin routes sit behind the token
// middleware; the student flow is open.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Deps) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Student session flow.
	mux.HandleFunc("POST /v1/quiz/start", deps.Quiz.HandleStart)
	mux.HandleFunc("GET /v1/quiz/{id}/question", deps.Quiz.HandleQuestion)
	mux.HandleFunc("POST /v1/quiz/{id}/answer", deps.Quiz.HandleAnswer)
	mux.HandleFunc("POST /v1/quiz/{id}/next", deps.Quiz.HandleNext)
	mux.HandleFunc("POST /v1/quiz/{id}/abandon", deps.Quiz.HandleAbandon)

	// Admin panel.
	mux.HandleFunc("POST /v1/admin/login", deps.Auth.HandleLogin)
	guard := func(h http.HandlerFunc) http.Handler { return deps.Auth.Middleware(h) }
	mux.Handle("GET /v1/admin/settings", guard(deps.Settings.HandleGet))
	mux.Handle("PUT /v1/admin/settings", guard(deps.Settings.HandlePut))
	mux.Handle("GET /v1/admin/questions", guard(deps.Bank.HandleList))
	mux.Handle("POST /v1/admin/questions", guard(deps.Bank.HandleAdd))
	mux.Handle("PUT /v1/admin/questions/{id}", guard(deps.Bank.HandleUpdate))
	mux.Handle("DELETE /v1/admin/questions/{id}", guard(deps.Bank.HandleDelete))
	mux.Handle("POST /v1/admin/questions/push", guard(deps.Bank.HandlePush))
	mux.Handle("GET /v1/admin/results", guard(deps.Results.HandleList))
	mux.Handle("POST /v1/admin/results/clear", guard(deps.Results.HandleClear))
	mux.Handle("GET /v1/admin/results/export", guard(deps.Results.HandleExport))
	mux.Handle("GET /ws/results", guard(deps.Results.HandleFeed))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}
