package handler

import (
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/service"
	"komagene-kasa/internal/store"
	"komagene-kasa/pkg/kv"
)

type memProducts struct {
	mu    sync.Mutex
	items map[uuid.UUID]model.Product
}

func (m *memProducts) Create(p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) FindAll(branchID string) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.items {
		if p.BranchID == branchID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) FindActive(branchID string) ([]model.Product, error) {
	all, _ := m.FindAll(branchID)
	var out []model.Product
	for _, p := range all {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) FindByID(id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (m *memProducts) FindByIDs(ids []uuid.UUID) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) Update(p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) Delete(id uuid.UUID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, id)
	return nil
}

func newCatalogEnv(t *testing.T) (*testEnv, *memProducts) {
	t.Helper()
	st := store.New(kv.NewMemory(), store.Options{Now: fixedNow})
	if err := st.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	repo := &memProducts{items: map[uuid.UUID]model.Product{}}
	products := NewProductHandler(service.NewProductService(repo, 0))
	pos := NewPosHandler(service.NewPosService(repo, st, fixedNow))

	app := fiber.New()
	app.Get("/api/v1/signage/menu", products.Menu)
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", "00000000-0000-0000-0000-000000000001")
		c.Locals("branch_id", "b1")
		return c.Next()
	})
	api.Get("/products", products.List)
	api.Post("/products", products.Create)
	api.Put("/products/:id", products.Update)
	api.Delete("/products/:id", products.Delete)
	api.Post("/pos/checkout", pos.Checkout)

	return &testEnv{app: app, store: st}, repo
}

func TestProductAndCheckoutRoutes(t *testing.T) {
	e, repo := newCatalogEnv(t)

	resp, body := e.do(t, "POST", "/api/v1/products", `{"name":"Tavuk Dürüm","price":"85,50","category":"Dürümler","is_active":true}`)
	if resp.StatusCode != 201 {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	id := body["data"].(map[string]interface{})["id"].(string)

	resp, _ = e.do(t, "POST", "/api/v1/products", `{"price":10}`)
	if resp.StatusCode != 400 {
		t.Errorf("nameless product status = %d, want 400", resp.StatusCode)
	}

	other := model.Product{Name: "Ayran", Price: 20, Category: "İçecekler", IsActive: true, BranchID: "b2"}
	_ = repo.Create(&other)

	resp, body = e.do(t, "POST", "/api/v1/pos/checkout",
		`{"payment_method":"card","lines":[{"product_id":"`+id+`","quantity":2}]}`)
	if resp.StatusCode != 201 {
		t.Fatalf("checkout status = %d, body %v", resp.StatusCode, body)
	}
	if total := body["sale"].(map[string]interface{})["total"].(float64); total != 171 {
		t.Errorf("sale total = %v, want 171", total)
	}
	rec, ok := e.store.RecordByDate("2024-03-10")
	if !ok || rec.Income.CreditCard != 171 {
		t.Errorf("today's record = %+v", rec)
	}

	resp, _ = e.do(t, "POST", "/api/v1/pos/checkout",
		`{"payment_method":"cash","lines":[{"product_id":"`+other.ID.String()+`","quantity":1}]}`)
	if resp.StatusCode != 400 {
		t.Errorf("other branch product status = %d, want 400", resp.StatusCode)
	}
	resp, _ = e.do(t, "POST", "/api/v1/pos/checkout", `{"payment_method":"cash","lines":[]}`)
	if resp.StatusCode != 400 {
		t.Errorf("empty basket status = %d, want 400", resp.StatusCode)
	}

	resp, body = e.do(t, "GET", "/api/v1/signage/menu?branch_id=b1", "")
	if resp.StatusCode != 200 {
		t.Fatalf("menu status = %d", resp.StatusCode)
	}
	if cats := body["categories"].([]interface{}); len(cats) != 1 {
		t.Errorf("menu categories = %v", cats)
	}
	resp, _ = e.do(t, "GET", "/api/v1/signage/menu", "")
	if resp.StatusCode != 400 {
		t.Errorf("menu without branch status = %d, want 400", resp.StatusCode)
	}

	resp, _ = e.do(t, "DELETE", "/api/v1/products/"+other.ID.String(), "")
	if resp.StatusCode != 404 {
		t.Errorf("deleting another branch's product status = %d, want 404", resp.StatusCode)
	}
	resp, _ = e.do(t, "DELETE", "/api/v1/products/not-a-uuid", "")
	if resp.StatusCode != 400 {
		t.Errorf("bad id status = %d, want 400", resp.StatusCode)
	}
	resp, _ = e.do(t, "DELETE", "/api/v1/products/"+id, "")
	if resp.StatusCode != 200 {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
}
