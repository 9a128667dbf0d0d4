// Package httpapi wires the public HTTP surface: the ticket ordering
// endpoints (§6) and a minimal admin surface for venues, concerts, and
// zones so the core is runnable end-to-end without a separate CRUD
// collaborator service. Routing follows the gorilla/mux registration
// style used elsewhere in the pack.
package httpapi

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// NewRouter wires every route the api binary exposes, wrapped in an access
// log following the aggregator's and mape's handlers.LoggingHandler usage.
func NewRouter(h *Handlers, log *slog.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	r.HandleFunc("/tickets/", h.CreateTicket).Methods(http.MethodPost)
	r.HandleFunc("/tickets/{id}", h.GetTicket).Methods(http.MethodGet)
	r.HandleFunc("/tickets/concert/{concertId}", h.ListTicketsByConcert).Methods(http.MethodGet)
	r.HandleFunc("/tickets/zone/{zoneId}", h.ListTicketsByZone).Methods(http.MethodGet)

	r.HandleFunc("/venues", h.CreateVenue).Methods(http.MethodPost)
	r.HandleFunc("/concerts", h.CreateConcert).Methods(http.MethodPost)
	r.HandleFunc("/concerts/{concertId}/zones", h.CreateZone).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Warn("route_not_found", slog.String("path", r.URL.Path))
		http.Error(w, "not found", http.StatusNotFound)
	})

	return handlers.LoggingHandler(os.Stdout, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
