package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joto-foods/api/internal/handler"
	"github.com/joto-foods/api/internal/store"
)

type mockDeliveryStore struct {
	getSettingsFn       func(ctx context.Context) (store.Settings, error)
	listBaseLocationsFn func(ctx context.Context, activeOnly bool) ([]store.BaseLocation, error)
}

func (m *mockDeliveryStore) GetSettings(ctx context.Context) (store.Settings, error) {
	if m.getSettingsFn != nil {
		return m.getSettingsFn(ctx)
	}
	return store.Settings{
		ID:              uuid.New(),
		HotelName:       "Joto Foods",
		BaseDeliveryFee: testNumeric("2000"),
		PerKmFee:        testNumeric("500"),
	}, nil
}

func (m *mockDeliveryStore) ListBaseLocations(ctx context.Context, activeOnly bool) ([]store.BaseLocation, error) {
	if m.listBaseLocationsFn != nil {
		return m.listBaseLocationsFn(ctx, activeOnly)
	}
	return []store.BaseLocation{}, nil
}

func setupDeliveryRouter(st *mockDeliveryStore) *chi.Mux {
	h := handler.NewDeliveryHandler(st)
	r := chi.NewRouter()
	r.Post("/delivery/quote", h.Quote)
	return r
}

// Msasani Peninsula base used across quote tests.
func msasaniBase() store.BaseLocation {
	return store.BaseLocation{
		ID:             uuid.New(),
		Name:           "Exceel One Hotel",
		Address:        "Msasani Peninsula, Dar es Salaam",
		Latitude:       -6.7924,
		Longitude:      39.2083,
		IsActive:       true,
		DeliveryRadius: 15,
	}
}

func TestDeliveryQuote_WithinBaseRange(t *testing.T) {
	base := msasaniBase()
	st := &mockDeliveryStore{
		listBaseLocationsFn: func(ctx context.Context, activeOnly bool) ([]store.BaseLocation, error) {
			if !activeOnly {
				t.Error("expected activeOnly=true for quotes")
			}
			return []store.BaseLocation{base}, nil
		},
	}

	router := setupDeliveryRouter(st)
	// ~1 km from the base, inside the base-fee band
	rr := doRequest(t, router, "POST", "/delivery/quote", map[string]interface{}{
		"latitude":  -6.7834,
		"longitude": 39.2083,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	if resp["fee"] != "2000.00" {
		t.Errorf("fee: got %v, want 2000.00", resp["fee"])
	}
	if resp["estimated_time"] != "25-35 minutes" {
		t.Errorf("estimated_time: got %v, want 25-35 minutes", resp["estimated_time"])
	}
	loc, ok := resp["base_location"].(map[string]interface{})
	if !ok {
		t.Fatal("base_location not present in response")
	}
	if loc["name"] != base.Name {
		t.Errorf("base name: got %v, want %v", loc["name"], base.Name)
	}
}

func TestDeliveryQuote_PerKmSurcharge(t *testing.T) {
	base := msasaniBase()
	st := &mockDeliveryStore{
		listBaseLocationsFn: func(ctx context.Context, activeOnly bool) ([]store.BaseLocation, error) {
			return []store.BaseLocation{base}, nil
		},
	}

	router := setupDeliveryRouter(st)
	// ~5 km south of the base: 3 started km beyond the 2 km band
	rr := doRequest(t, router, "POST", "/delivery/quote", map[string]interface{}{
		"latitude":  -6.8374,
		"longitude": 39.2083,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["fee"] != "3500.00" {
		t.Errorf("fee: got %v, want 3500.00", resp["fee"])
	}
}

func TestDeliveryQuote_OutsideServiceArea(t *testing.T) {
	base := msasaniBase()
	st := &mockDeliveryStore{
		listBaseLocationsFn: func(ctx context.Context, activeOnly bool) ([]store.BaseLocation, error) {
			return []store.BaseLocation{base}, nil
		},
	}

	router := setupDeliveryRouter(st)
	// Morogoro, far beyond the 15 km radius
	rr := doRequest(t, router, "POST", "/delivery/quote", map[string]interface{}{
		"latitude":  -6.8278,
		"longitude": 37.6591,
	})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
}

func TestDeliveryQuote_NoActiveBases(t *testing.T) {
	router := setupDeliveryRouter(&mockDeliveryStore{})
	rr := doRequest(t, router, "POST", "/delivery/quote", map[string]interface{}{
		"latitude":  -6.7834,
		"longitude": 39.2083,
	})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
}

func TestDeliveryQuote_MissingCoordinates(t *testing.T) {
	router := setupDeliveryRouter(&mockDeliveryStore{})
	rr := doRequest(t, router, "POST", "/delivery/quote", map[string]interface{}{
		"latitude": -6.7834,
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
