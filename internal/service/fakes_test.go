package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/store"
	"komagene-kasa/pkg/kv"
)

// 2024-03-10 13:00 in Istanbul.
var fixedNow = func() time.Time { return time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC) }

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(kv.NewMemory(), store.Options{Now: fixedNow})
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

type fakeProducts struct {
	mu         sync.Mutex
	items      map[uuid.UUID]model.Product
	activeHits int
	err        error
}

func newFakeProducts(products ...model.Product) *fakeProducts {
	f := &fakeProducts{items: map[uuid.UUID]model.Product{}}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Create(p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) FindAll(branchID string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Product
	for _, p := range f.items {
		if p.BranchID == branchID {
			out = append(out, p)
		}
	}
	return out, f.err
}

func (f *fakeProducts) FindActive(branchID string) ([]model.Product, error) {
	f.mu.Lock()
	f.activeHits++
	f.mu.Unlock()
	all, err := f.FindAll(branchID)
	var out []model.Product
	for _, p := range all {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, err
}

func (f *fakeProducts) FindByID(id uuid.UUID) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (f *fakeProducts) FindByIDs(ids []uuid.UUID) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := f.items[id]; ok {
			out = append(out, p)
		}
	}
	return out, f.err
}

func (f *fakeProducts) Update(p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Delete(id uuid.UUID, deletedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeUsers struct {
	mu         sync.Mutex
	users      map[string]*model.User
	rotateErr  error
	rotated    int
	lastLogins int
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*model.User{}}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		f.users[u.Email] = u
	}
	return f
}

func (f *fakeUsers) FindByEmail(email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByID(id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Create(u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.Email] = u
	return nil
}

func (f *fakeUsers) Update(u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.Email] = &cp
	return nil
}

func (f *fakeUsers) byID(id uuid.UUID) *model.User {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) UpdatePassword(id uuid.UUID, hashed string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID(id)
	if u == nil {
		return gorm.ErrRecordNotFound
	}
	u.Password = hashed
	return nil
}

func (f *fakeUsers) UpdateTokenVersion(id uuid.UUID, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rotateErr != nil {
		return f.rotateErr
	}
	u := f.byID(id)
	if u == nil {
		return gorm.ErrRecordNotFound
	}
	u.TokenVersion = version
	f.rotated++
	return nil
}

func (f *fakeUsers) UpdateLastLogin(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID(id)
	if u == nil {
		return gorm.ErrRecordNotFound
	}
	now := fixedNow()
	u.LastLoginAt = &now
	f.lastLogins++
	return nil
}

func (f *fakeUsers) FindAll(branchID string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.users {
		if u.BranchID == branchID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Deactivate(branchID string, id uuid.UUID, updatedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID(id)
	if u == nil || u.BranchID != branchID {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = false
	u.TokenVersion = uuid.NewString()
	u.UpdatedBy = updatedBy
	return nil
}

type fakeRoles struct {
	roles map[string]*model.Role
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{roles: map[string]*model.Role{
		model.RoleOwner:   {ID: 1, Code: model.RoleOwner},
		model.RoleCashier: {ID: 2, Code: model.RoleCashier},
	}}
}

func (f *fakeRoles) FindAll() ([]model.Role, error) {
	var out []model.Role
	for _, r := range f.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRoles) FindByCode(code string) (*model.Role, error) {
	r, ok := f.roles[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoles) SeedDefaults() error                             { return nil }
func (f *fakeRoles) AssignDefaultPrivileges([]model.Privilege) error { return nil }

var errOffline = errors.New("dial tcp 10.0.0.5:6543: connect: connection refused")
