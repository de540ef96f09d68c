package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/vicky05092005/statatics-quiz/internal/quiz"
	httperrors "github.com/vicky05092005/statatics-quiz/pkg/http/errors"
	"github.com/vicky05092005/statatics-quiz/pkg/http/ws"
)

var wsFeedClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "results_feed_clients",
	Help: "Connected admin results feed clients.",
})

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Admin feed is token-guarded by middleware; origin is not re-checked.
		return true
	},
}

// Handlers exposes the admin results endpoints and the live feed.
type Handlers struct {
	ledger *Ledger
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewHandlers wires the results endpoints.
func NewHandlers(ledger *Ledger, hub *ws.Hub, logger zerolog.Logger) *Handlers {
	return &Handlers{
		ledger: ledger,
		hub:    hub,
		logger: logger.With().Str("component", "results_http").Logger(),
	}
}

// HandleList returns the roster, optionally filtered by ?filter= against
// roll or name. With no live feed running the roster comes from local
// storage.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if len(h.ledger.Snapshot()) == 0 {
		h.ledger.LoadLocal()
		h.ledger.SortByRoll()
	}
	roster := h.ledger.Filter(r.URL.Query().Get("filter"))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"results": roster})
}

// HandleClear performs the guarded, irreversible bulk delete. The caller
// must pass ?confirm=true.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"
	err := h.ledger.ClearAll(r.Context(), confirmed)
	switch {
	case errors.Is(err, ErrNotConfirmed):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "Pass confirm=true to clear all results")
		return
	case err != nil:
		httperrors.RespondBadGateway(w, httperrors.ErrCodeRemoteFailed, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"cleared": true})
}

// HandleExport streams the roster as CSV.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	if len(h.ledger.Snapshot()) == 0 {
		h.ledger.LoadLocal()
		h.ledger.SortByRoll()
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="quiz_results_%s.csv"`, time.Now().Format("2006-01-02")))
	if err := h.ledger.ExportCSV(w); err != nil {
		h.logger.Error().Err(err).Msg("csv export failed")
	}
}

// HandleFeed upgrades to WebSocket and streams roster snapshots. The client
// gets the current roster immediately, then one message per ledger change.
func (h *Handlers) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := ws.NewConnection(conn, h.logger)
	id := h.hub.Register(client)
	wsFeedClients.Inc()

	if msg, err := SnapshotMessage(h.ledger.Snapshot()); err == nil {
		_ = client.Send(msg)
	}

	go client.WritePump()
	client.ReadPump()
	h.hub.Unregister(id)
	wsFeedClients.Dec()
}

// SnapshotMessage packs a roster into the feed's wire envelope.
func SnapshotMessage(roster []quiz.Result) (ws.Message, error) {
	payload, err := json.Marshal(map[string]any{"results": roster})
	if err != nil {
		return ws.Message{}, err
	}
	return ws.Message{Type: ws.TypeResultsSnapshot, Payload: payload}, nil
}
