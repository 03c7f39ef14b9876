package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/repository"
	"komagene-kasa/pkg/validator"
)

var ErrProductNotFound = errors.New("product not found")

type ProductService interface {
	List(branchID string) ([]model.Product, error)
	Create(p *model.Product, userID, branchID string) error
	Update(id uuid.UUID, p *model.Product, userID, branchID string) (*model.Product, error)
	Delete(id uuid.UUID, userID, branchID string) error
	Menu(branchID string) ([]model.MenuCategory, error)
}

type productService struct {
	repo  repository.ProductRepository
	cache *menuCache
}

func NewProductService(repo repository.ProductRepository, menuTTL time.Duration) ProductService {
	return &productService{repo: repo, cache: newMenuCache(menuTTL, time.Now)}
}

func (s *productService) List(branchID string) ([]model.Product, error) {
	return s.repo.FindAll(branchID)
}

func (s *productService) Create(p *model.Product, userID, branchID string) error {
	if err := validator.FirstError(p); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	p.BranchID = branchID
	p.CreatedBy = userID
	p.UpdatedBy = userID
	if err := s.repo.Create(p); err != nil {
		return err
	}
	s.cache.invalidate(branchID)
	return nil
}

func (s *productService) find(id uuid.UUID, branchID string) (*model.Product, error) {
	existing, err := s.repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if existing.BranchID != branchID {
		return nil, ErrProductNotFound
	}
	return existing, nil
}

func (s *productService) Update(id uuid.UUID, p *model.Product, userID, branchID string) (*model.Product, error) {
	if err := validator.FirstError(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	existing, err := s.find(id, branchID)
	if err != nil {
		return nil, err
	}

	existing.Name = p.Name
	existing.Price = p.Price.Normalize()
	existing.Category = p.Category
	existing.Description = p.Description
	existing.ImageURL = p.ImageURL
	existing.IsActive = p.IsActive
	existing.SortOrder = p.SortOrder
	existing.UpdatedBy = userID

	if err := s.repo.Update(existing); err != nil {
		return nil, err
	}
	s.cache.invalidate(branchID)
	return existing, nil
}

func (s *productService) Delete(id uuid.UUID, userID, branchID string) error {
	if _, err := s.find(id, branchID); err != nil {
		return err
	}
	if err := s.repo.Delete(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	s.cache.invalidate(branchID)
	return nil
}

// Menu returns the active products grouped by category, in catalog order.
func (s *productService) Menu(branchID string) ([]model.MenuCategory, error) {
	if menu, ok := s.cache.get(branchID); ok {
		return menu, nil
	}
	products, err := s.repo.FindActive(branchID)
	if err != nil {
		return nil, err
	}
	menu := groupMenu(products)
	s.cache.put(branchID, menu)
	return menu, nil
}

func groupMenu(products []model.Product) []model.MenuCategory {
	menu := []model.MenuCategory{}
	index := map[string]int{}
	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			i = len(menu)
			index[p.Category] = i
			menu = append(menu, model.MenuCategory{Name: p.Category, Products: []model.Product{}})
		}
		menu[i].Products = append(menu[i].Products, p)
	}
	return menu
}

type menuEntry struct {
	menu    []model.MenuCategory
	expires time.Time
}

// menuCache keeps the signage menu per branch for ttl. A zero ttl disables it.
type menuCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]menuEntry
}

func newMenuCache(ttl time.Duration, now func() time.Time) *menuCache {
	return &menuCache{ttl: ttl, now: now, entries: map[string]menuEntry{}}
}

func (c *menuCache) get(branchID string) ([]model.MenuCategory, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[branchID]
	if !ok || !c.now().Before(e.expires) {
		delete(c.entries, branchID)
		return nil, false
	}
	return e.menu, true
}

func (c *menuCache) put(branchID string, menu []model.MenuCategory) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[branchID] = menuEntry{menu: menu, expires: c.now().Add(c.ttl)}
}

func (c *menuCache) invalidate(branchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, branchID)
}
