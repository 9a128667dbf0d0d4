package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ticketline/reservation-core/internal/apperr"
	"github.com/ticketline/reservation-core/internal/domain"
)

// The admin surface below is a thin Entity Store adapter: enough to create
// Venues, Concerts, and Zones so the ordering core is exercisable
// end-to-end without the full out-of-scope venue/concert CRUD
// collaborator service. It is intentionally minimal — no update/delete,
// no pagination, no auth — those remain the collaborator's job.

type createVenueRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

func (h *Handlers) CreateVenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createVenueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	if req.Name == "" || req.Capacity <= 0 {
		writeError(w, h.Log, apperr.New(apperr.KindValidation, "name and a positive capacity are required"))
		return
	}
	venue, err := h.Store.Venues().Create(ctx, &domain.NewVenue{Name: req.Name, Location: req.Location, Capacity: req.Capacity})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, venue)
}

type createConcertRequest struct {
	VenueID     string `json:"venue_id"`
	Name        string `json:"name"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	NumZones    int    `json:"num_zones"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// CreateConcert creates the Concert row, then provisions its order and
// event topics, per §3's "Topics are logically owned by the Concert:
// created on concert creation." A provisioning failure is logged but does
// not fail the request; nothing in this binary retries it, and the topics
// can be provisioned afterwards with cmd/topicctl.
func (h *Handlers) CreateConcert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createConcertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	start, end, err := parseConcertWindow(req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, h.Log, apperr.Wrap(apperr.KindValidation, "invalid start_time/end_time", err))
		return
	}
	if req.NumZones < 1 {
		writeError(w, h.Log, apperr.New(apperr.KindValidation, "num_zones must be >= 1"))
		return
	}

	concert, err := h.Store.Concerts().Create(ctx, &domain.NewConcert{
		VenueID:     req.VenueID,
		Name:        req.Name,
		StartTime:   start,
		EndTime:     end,
		NumZones:    req.NumZones,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if err := h.Topics.Provision(ctx, concert.ID, concert.NumZones); err != nil {
		h.Log.Error("topic_provision_failed", slog.String("concertId", concert.ID), slog.Any("err", err))
	}

	writeJSON(w, http.StatusCreated, concert)
}

type createZoneRequest struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	ZoneCapacity int     `json:"zone_capacity"`
	ZoneNumber   int     `json:"zone_number"`
	Description  string  `json:"description"`
}

func (h *Handlers) CreateZone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	concertID := mux.Vars(r)["concertId"]

	var req createZoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	concert, err := h.Store.Concerts().Get(ctx, concertID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if len(concert.Zones) >= concert.NumZones {
		writeError(w, h.Log, apperr.New(apperr.KindValidation, "concert already has num_zones zones"))
		return
	}
	for _, existing := range concert.Zones {
		if existing.ZoneNumber == req.ZoneNumber {
			writeError(w, h.Log, apperr.New(apperr.KindValidation, "zone_number already used in this concert"))
			return
		}
	}

	// Validate against the would-be zone before writing anything, so an
	// invalid zone_number/zone_capacity never reaches the store as an
	// orphaned row. available_seats always starts equal to zone_capacity
	// on creation, matching zoneRepository.Create's own default.
	candidate := domain.Zone{ZoneNumber: req.ZoneNumber, ZoneCapacity: req.ZoneCapacity, AvailableSeats: req.ZoneCapacity}
	if err := candidate.Validate(concert.NumZones); err != nil {
		writeError(w, h.Log, apperr.Wrap(apperr.KindValidation, "zone invariant violated", err))
		return
	}

	zone, err := h.Store.Zones().Create(ctx, &domain.NewZone{
		ConcertID:    concertID,
		Name:         req.Name,
		Price:        req.Price,
		ZoneCapacity: req.ZoneCapacity,
		ZoneNumber:   req.ZoneNumber,
		Description:  req.Description,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if err := h.Cache.InvalidateZonesByConcert(ctx, concertID); err != nil {
		h.Log.Warn("cache_invalidate_failed", slog.String("concertId", concertID), slog.Any("err", err))
	}
	h.Cache.SetZone(ctx, zone)
	writeJSON(w, http.StatusCreated, zone)
}
