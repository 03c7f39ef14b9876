package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/service"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func (m *memUsers) FindByEmail(email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) FindByID(id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindAll(branchID string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.BranchID == branchID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) Create(u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) Update(u *model.User) error                 { return m.Create(u) }
func (m *memUsers) UpdatePassword(uuid.UUID, string) error     { return nil }
func (m *memUsers) UpdateTokenVersion(uuid.UUID, string) error { return nil }
func (m *memUsers) UpdateLastLogin(uuid.UUID) error            { return nil }

func (m *memUsers) Deactivate(branchID string, id uuid.UUID, by string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.BranchID != branchID {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = false
	u.UpdatedBy = by
	return nil
}

type memRoles struct{}

func (memRoles) FindAll() ([]model.Role, error) { return nil, nil }
func (memRoles) FindByCode(code string) (*model.Role, error) {
	switch code {
	case model.RoleOwner:
		return &model.Role{ID: 1, Code: code}, nil
	case model.RoleCashier:
		return &model.Role{ID: 2, Code: code}, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (memRoles) SeedDefaults() error                             { return nil }
func (memRoles) AssignDefaultPrivileges([]model.Privilege) error { return nil }

const ownerID = "00000000-0000-0000-0000-000000000001"

func newStaffEnv(t *testing.T) (*testEnv, *memUsers) {
	t.Helper()
	repo := &memUsers{users: map[uuid.UUID]*model.User{}}
	users := NewUserHandler(service.NewUserService(repo, memRoles{}))

	app := fiber.New()
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", ownerID)
		c.Locals("branch_id", "b1")
		role := c.Get("X-Test-Role")
		if role == "" {
			role = model.RoleOwner
		}
		c.Locals("role_code", role)
		return c.Next()
	})
	api.Get("/users", users.GetUsers)
	api.Post("/users", users.CreateUser)
	api.Delete("/users/:id", users.DeactivateUser)

	return &testEnv{app: app}, repo
}

func TestStaffRoutes(t *testing.T) {
	e, repo := newStaffEnv(t)

	resp, body := e.do(t, "POST", "/api/v1/users", `{"email":"kasa@b1.test","password":"secret1","full_name":"Ayşe"}`)
	if resp.StatusCode != 201 {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]interface{})
	if data["branch_id"] != "b1" {
		t.Errorf("created in branch %v", data["branch_id"])
	}
	id := data["id"].(string)

	resp, _ = e.do(t, "POST", "/api/v1/users", `{"email":"kasa@b1.test","password":"secret1","full_name":"Ayşe"}`)
	if resp.StatusCode != 409 {
		t.Errorf("duplicate email status = %d, want 409", resp.StatusCode)
	}
	resp, _ = e.do(t, "POST", "/api/v1/users", `{"email":"nope","password":"secret1","full_name":"X"}`)
	if resp.StatusCode != 400 {
		t.Errorf("bad email status = %d, want 400", resp.StatusCode)
	}

	other := &model.User{Email: "kasa@b2.test", BranchID: "b2", IsActive: true}
	_ = repo.Create(other)

	resp, _ = e.do(t, "GET", "/api/v1/users", "")
	raw, _ := io.ReadAll(resp.Body)
	var list []model.UserResponse
	if err := json.Unmarshal(raw, &list); err != nil || resp.StatusCode != 200 {
		t.Fatalf("list status = %d, err %v", resp.StatusCode, err)
	}
	if len(list) != 1 || list[0].Email != "kasa@b1.test" {
		t.Errorf("list = %+v", list)
	}

	resp, _ = e.do(t, "DELETE", "/api/v1/users/"+other.ID.String(), "")
	if resp.StatusCode != 404 {
		t.Errorf("deactivating another branch's user status = %d, want 404", resp.StatusCode)
	}
	resp, _ = e.do(t, "DELETE", "/api/v1/users/"+ownerID, "")
	if resp.StatusCode != 403 {
		t.Errorf("self deactivation status = %d, want 403", resp.StatusCode)
	}
	resp, _ = e.do(t, "DELETE", "/api/v1/users/not-a-uuid", "")
	if resp.StatusCode != 400 {
		t.Errorf("bad id status = %d, want 400", resp.StatusCode)
	}
	resp, _ = e.do(t, "DELETE", "/api/v1/users/"+id, "")
	if resp.StatusCode != 200 {
		t.Errorf("deactivate status = %d", resp.StatusCode)
	}
	if u, _ := repo.FindByEmail("kasa@b1.test"); u.IsActive {
		t.Error("user still active")
	}
}

func TestStaffRoutes_CashierIsForbidden(t *testing.T) {
	e, _ := newStaffEnv(t)

	for _, tc := range []struct{ method, path, body string }{
		{"GET", "/api/v1/users", ""},
		{"POST", "/api/v1/users", `{"email":"x@b1.test","password":"secret1","full_name":"X"}`},
		{"DELETE", "/api/v1/users/" + uuid.NewString(), ""},
	} {
		var body io.Reader
		if tc.body != "" {
			body = strings.NewReader(tc.body)
		}
		req := httptest.NewRequest(tc.method, tc.path, body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", model.RoleCashier)
		resp, err := e.app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.path, err)
		}
		if resp.StatusCode != 403 {
			t.Errorf("%s %s as cashier = %d, want 403", tc.method, tc.path, resp.StatusCode)
		}
	}
}
