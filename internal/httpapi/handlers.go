package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/cache"
	"github.com/ticketline/reservation-core/internal/correlator"
	"github.com/ticketline/reservation-core/internal/domain"
	"github.com/ticketline/reservation-core/internal/events"
)

// OrderProducer is the subset of bus.Producer the HTTP layer needs.
type OrderProducer interface {
	ProduceOrder(ctx context.Context, topic string, partition int, evt events.TicketOrderEvent) (bool, error)
}

// TopicProvisioner is the subset of topic.Manager the admin surface needs.
type TopicProvisioner interface {
	Provision(ctx context.Context, concertID string, numZones int) error
}

// Handlers holds every dependency the HTTP surface needs to serve both the
// ticket-ordering endpoints (§6) and the minimal admin surface.
type Handlers struct {
	Store        domain.EntityStore
	Cache        *cache.Cache
	Correlator   *correlator.Correlator
	Producer     OrderProducer
	Topics       TopicProvisioner
	AwaitTimeout time.Duration
	Log          *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	log.Warn("request_failed", slog.Int("status", status), slog.Any("err", err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// partitionForZone resolves a zone's partition via the cache-then-store
// path, per §4.A's rule that partition assignment is never derived by
// parsing the zone id itself.
func (h *Handlers) partitionForZone(ctx context.Context, zoneID string) (*domain.Zone, error) {
	if z, ok := h.Cache.GetZone(ctx, zoneID); ok {
		return z, nil
	}
	z, err := h.Store.Zones().Get(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	h.Cache.SetZone(ctx, z)
	return z, nil
}
