package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joto-foods/api/internal/store"
)

// LocationStore defines the database methods needed by base location
// handlers. Satisfied by *store.Store; narrow interface for testability.
type LocationStore interface {
	ListBaseLocations(ctx context.Context, activeOnly bool) ([]store.BaseLocation, error)
	CreateBaseLocation(ctx context.Context, arg store.CreateBaseLocationParams) (store.BaseLocation, error)
	UpdateBaseLocation(ctx context.Context, arg store.UpdateBaseLocationParams) (store.BaseLocation, error)
	SetBaseLocationActive(ctx context.Context, id uuid.UUID, active bool) (store.BaseLocation, error)
	DeleteBaseLocation(ctx context.Context, id uuid.UUID) error
}

// LocationHandler handles base location endpoints.
type LocationHandler struct {
	store LocationStore
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(store LocationStore) *LocationHandler {
	return &LocationHandler{store: store}
}

// --- Request / Response types ---

type baseLocationRequest struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	IsActive       *bool    `json:"is_active"`
	DeliveryRadius *float64 `json:"delivery_radius"`
}

type baseLocationResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	IsActive       bool      `json:"is_active"`
	DeliveryRadius float64   `json:"delivery_radius"`
	CreatedAt      time.Time `json:"created_at"`
}

// --- Handlers ---

// List handles GET /locations. Without auth context only active
// locations are returned; the admin router mounts the same handler
// behind ?all=true.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"

	locations, err := h.store.ListBaseLocations(r.Context(), activeOnly)
	if err != nil {
		log.Printf("ERROR: list base locations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]baseLocationResponse, len(locations))
	for i, loc := range locations {
		resp[i] = toBaseLocationResponse(loc)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /locations.
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req baseLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" || req.Latitude == nil || req.Longitude == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, latitude and longitude are required"})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	radius := 10.0
	if req.DeliveryRadius != nil {
		radius = *req.DeliveryRadius
	}
	if radius <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery radius must be > 0"})
		return
	}

	loc, err := h.store.CreateBaseLocation(r.Context(), store.CreateBaseLocationParams{
		Name:           req.Name,
		Address:        req.Address,
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		IsActive:       active,
		DeliveryRadius: radius,
	})
	if err != nil {
		log.Printf("ERROR: create base location: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toBaseLocationResponse(loc))
}

// Update handles PATCH /locations/{id}. A body containing only
// is_active toggles serviceability without touching coordinates.
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	var req baseLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.IsActive != nil && req.Name == "" && req.Latitude == nil && req.Longitude == nil && req.DeliveryRadius == nil {
		loc, err := h.store.SetBaseLocationActive(r.Context(), id, *req.IsActive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
				return
			}
			log.Printf("ERROR: set base location active: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		writeJSON(w, http.StatusOK, toBaseLocationResponse(loc))
		return
	}

	if req.Name == "" || req.Latitude == nil || req.Longitude == nil || req.DeliveryRadius == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, latitude, longitude and delivery_radius are required"})
		return
	}
	if *req.DeliveryRadius <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery radius must be > 0"})
		return
	}

	loc, err := h.store.UpdateBaseLocation(r.Context(), store.UpdateBaseLocationParams{
		ID:             id,
		Name:           req.Name,
		Address:        req.Address,
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		DeliveryRadius: *req.DeliveryRadius,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		log.Printf("ERROR: update base location: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toBaseLocationResponse(loc))
}

// Toggle handles PATCH /locations/{id}/toggle. Deactivation never
// touches existing orders; the delivery fee is a snapshot.
func (h *LocationHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "is_active is required"})
		return
	}

	loc, err := h.store.SetBaseLocationActive(r.Context(), id, *req.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		log.Printf("ERROR: set base location active: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toBaseLocationResponse(loc))
}

// Delete handles DELETE /locations/{id}.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location ID"})
		return
	}

	if err := h.store.DeleteBaseLocation(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		log.Printf("ERROR: delete base location: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toBaseLocationResponse(loc store.BaseLocation) baseLocationResponse {
	return baseLocationResponse{
		ID:             loc.ID,
		Name:           loc.Name,
		Address:        loc.Address,
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		IsActive:       loc.IsActive,
		DeliveryRadius: loc.DeliveryRadius,
		CreatedAt:      loc.CreatedAt,
	}
}
