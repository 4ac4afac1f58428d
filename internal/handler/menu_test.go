package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joto-foods/api/internal/enum"
	"github.com/joto-foods/api/internal/handler"
	"github.com/joto-foods/api/internal/store"
	"github.com/shopspring/decimal"
)

type mockMenuStore struct {
	listMenuItemsFn           func(ctx context.Context, filter store.ListMenuItemsFilter) ([]store.MenuItem, error)
	getMenuItemFn             func(ctx context.Context, id uuid.UUID) (store.MenuItem, error)
	createMenuItemFn          func(ctx context.Context, arg store.CreateMenuItemParams) (store.MenuItem, error)
	updateMenuItemFn          func(ctx context.Context, arg store.UpdateMenuItemParams) (store.MenuItem, error)
	setMenuItemAvailabilityFn func(ctx context.Context, id uuid.UUID, available bool) (store.MenuItem, error)
	deleteMenuItemFn          func(ctx context.Context, id uuid.UUID) error
}

func (m *mockMenuStore) ListMenuItems(ctx context.Context, filter store.ListMenuItemsFilter) ([]store.MenuItem, error) {
	if m.listMenuItemsFn != nil {
		return m.listMenuItemsFn(ctx, filter)
	}
	return []store.MenuItem{}, nil
}

func (m *mockMenuStore) GetMenuItem(ctx context.Context, id uuid.UUID) (store.MenuItem, error) {
	if m.getMenuItemFn != nil {
		return m.getMenuItemFn(ctx, id)
	}
	return store.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) CreateMenuItem(ctx context.Context, arg store.CreateMenuItemParams) (store.MenuItem, error) {
	if m.createMenuItemFn != nil {
		return m.createMenuItemFn(ctx, arg)
	}
	return store.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) UpdateMenuItem(ctx context.Context, arg store.UpdateMenuItemParams) (store.MenuItem, error) {
	if m.updateMenuItemFn != nil {
		return m.updateMenuItemFn(ctx, arg)
	}
	return store.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) SetMenuItemAvailability(ctx context.Context, id uuid.UUID, available bool) (store.MenuItem, error) {
	if m.setMenuItemAvailabilityFn != nil {
		return m.setMenuItemAvailabilityFn(ctx, id, available)
	}
	return store.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	if m.deleteMenuItemFn != nil {
		return m.deleteMenuItemFn(ctx, id)
	}
	return pgx.ErrNoRows
}

func setupMenuRouter(st *mockMenuStore) *chi.Mux {
	h := handler.NewMenuHandler(st)
	r := chi.NewRouter()
	r.Get("/menu", h.List)
	r.Get("/menu/{id}", h.Get)
	r.Post("/menu", h.Create)
	r.Patch("/menu/{id}", h.Update)
	r.Delete("/menu/{id}", h.Delete)
	return r
}

func testMenuItem(name string) store.MenuItem {
	now := time.Now()
	return store.MenuItem{
		ID:          uuid.New(),
		Name:        name,
		Price:       testNumeric("8000"),
		Category:    "main",
		IsAvailable: true,
		Customizations: []store.Customization{
			{
				ID:       "size",
				Name:     "Size",
				Type:     enum.CustomizationTypeSingle,
				Required: true,
				Options: []store.CustomizationOption{
					{ID: "regular", Name: "Regular", Price: decimal.Zero},
					{ID: "large", Name: "Large", Price: decimal.NewFromInt(2000)},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMenuList_Filter(t *testing.T) {
	var captured store.ListMenuItemsFilter
	st := &mockMenuStore{
		listMenuItemsFn: func(ctx context.Context, filter store.ListMenuItemsFilter) ([]store.MenuItem, error) {
			captured = filter
			return []store.MenuItem{testMenuItem("Beef Burger")}, nil
		},
	}

	router := setupMenuRouter(st)
	rr := doRequest(t, router, "GET", "/menu?category=main&available=true", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if captured.Category != "main" || !captured.AvailableOnly {
		t.Errorf("filter: got %+v", captured)
	}

	var items []map[string]interface{}
	decodeList(t, rr, &items)
	if len(items) != 1 {
		t.Fatalf("items: got %d, want 1", len(items))
	}
	if items[0]["price"] != "8000.00" {
		t.Errorf("price: got %v, want 8000.00", items[0]["price"])
	}
	custs, ok := items[0]["customizations"].([]interface{})
	if !ok || len(custs) != 1 {
		t.Fatalf("customizations: got %v", items[0]["customizations"])
	}
}

func TestMenuGet_NotFound(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})
	rr := doRequest(t, router, "GET", "/menu/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestMenuCreate_HappyPath(t *testing.T) {
	st := &mockMenuStore{
		createMenuItemFn: func(ctx context.Context, arg store.CreateMenuItemParams) (store.MenuItem, error) {
			if arg.Name != "Beef Burger" {
				t.Errorf("name: got %v", arg.Name)
			}
			if !arg.IsAvailable {
				t.Error("expected default availability true")
			}
			item := testMenuItem(arg.Name)
			item.Price = arg.Price
			return item, nil
		},
	}

	router := setupMenuRouter(st)
	rr := doRequest(t, router, "POST", "/menu", map[string]interface{}{
		"name":     "Beef Burger",
		"price":    8000,
		"category": "main",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["price"] != "8000.00" {
		t.Errorf("price: got %v, want 8000.00", resp["price"])
	}
}

func TestMenuCreate_MissingFields(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})
	rr := doRequest(t, router, "POST", "/menu", map[string]interface{}{"name": "Nameless"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMenuCreate_NegativePrice(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})
	rr := doRequest(t, router, "POST", "/menu", map[string]interface{}{
		"name":     "Beef Burger",
		"price":    -100,
		"category": "main",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMenuUpdate_AvailabilityToggle(t *testing.T) {
	itemID := uuid.New()
	toggled := false
	st := &mockMenuStore{
		setMenuItemAvailabilityFn: func(ctx context.Context, id uuid.UUID, available bool) (store.MenuItem, error) {
			toggled = true
			if id != itemID {
				t.Errorf("id: got %v, want %v", id, itemID)
			}
			if available {
				t.Error("expected available=false")
			}
			item := testMenuItem("Beef Burger")
			item.ID = itemID
			item.IsAvailable = false
			return item, nil
		},
	}

	router := setupMenuRouter(st)
	rr := doRequest(t, router, "PATCH", "/menu/"+itemID.String(), map[string]interface{}{
		"is_available": false,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if !toggled {
		t.Error("expected availability toggle path")
	}
	resp := decodeBody(t, rr)
	if resp["is_available"] != false {
		t.Errorf("is_available: got %v, want false", resp["is_available"])
	}
}

func TestMenuUpdate_FullUpdate(t *testing.T) {
	existing := testMenuItem("Beef Burger")
	var captured store.UpdateMenuItemParams
	st := &mockMenuStore{
		getMenuItemFn: func(ctx context.Context, id uuid.UUID) (store.MenuItem, error) {
			return existing, nil
		},
		updateMenuItemFn: func(ctx context.Context, arg store.UpdateMenuItemParams) (store.MenuItem, error) {
			captured = arg
			item := existing
			item.Name = arg.Name
			item.Price = arg.Price
			return item, nil
		},
	}

	router := setupMenuRouter(st)
	rr := doRequest(t, router, "PATCH", "/menu/"+existing.ID.String(), map[string]interface{}{
		"name":  "Double Beef Burger",
		"price": 12000,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if captured.Name != "Double Beef Burger" {
		t.Errorf("name: got %v", captured.Name)
	}
	// untouched fields carried over from the existing row
	if captured.Category != "main" {
		t.Errorf("category: got %v, want main", captured.Category)
	}
	if len(captured.Customizations) != 1 {
		t.Errorf("customizations carried: got %d, want 1", len(captured.Customizations))
	}
}

func TestMenuDelete(t *testing.T) {
	itemID := uuid.New()
	st := &mockMenuStore{
		deleteMenuItemFn: func(ctx context.Context, id uuid.UUID) error {
			if id != itemID {
				t.Errorf("id: got %v, want %v", id, itemID)
			}
			return nil
		},
	}

	router := setupMenuRouter(st)
	rr := doRequest(t, router, "DELETE", "/menu/"+itemID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
}

func TestMenuDelete_NotFound(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})
	rr := doRequest(t, router, "DELETE", "/menu/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
