package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[string]models.Product
	bySlug   map[string]string // slug -> id
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
		bySlug:   make(map[string]string),
	}
}

// sorted returns the products accepted by keep, newest first. Callers hold the read lock.
func (r *MemoryProductRepository) sorted(keep func(models.Product) bool) []models.Product {
	list := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			list = append(list, clone(p))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list
}

// FindActive returns one page of active products and the total number of matches.
func (r *MemoryProductRepository) FindActive(_ context.Context, q ProductQuery) ([]models.Product, int64, error) {
	q = q.Normalize()
	needle := strings.ToLower(q.Text)

	r.mu.RLock()
	matches := r.sorted(func(p models.Product) bool {
		return p.Active && strings.Contains(strings.ToLower(p.Title), needle)
	})
	r.mu.RUnlock()

	total := int64(len(matches))
	start := q.Offset()
	if start < 0 || start >= len(matches) {
		return []models.Product{}, total, nil
	}
	end := min(start+q.PerPage, len(matches))
	return matches[start:end], total, nil
}

// FindBySlug returns the active product with the given slug, or nil if there is none.
func (r *MemoryProductRepository) FindBySlug(_ context.Context, slug string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySlug[slug]
	if !ok {
		return nil, nil
	}
	product := clone(r.products[id])
	if !product.Active {
		return nil, nil
	}
	return &product, nil
}

// FindByArtisanSlug returns the active products carrying the given artisan slug.
func (r *MemoryProductRepository) FindByArtisanSlug(_ context.Context, slug string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(p models.Product) bool {
		return p.Active && p.Artisan.Slug == slug
	}), nil
}

// FindAll returns every product, inactive ones included.
func (r *MemoryProductRepository) FindAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(models.Product) bool { return true }), nil
}

// Insert adds a new product. The slug check and the write happen under one lock.
func (r *MemoryProductRepository) Insert(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.bySlug[product.Slug]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateSlug, product.Slug)
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	r.products[product.ID] = clone(*product)
	r.bySlug[product.Slug] = product.ID
	return nil
}

// clone copies the slices and pointers of p so stored products never alias caller memory.
func clone(p models.Product) models.Product {
	p.Images = append([]string(nil), p.Images...)
	p.MakingProcess = append([]models.MakingStep(nil), p.MakingProcess...)
	p.Artisan.Images = append([]string(nil), p.Artisan.Images...)
	p.HeritageVideoURL = cloneString(p.HeritageVideoURL)
	p.Artisan.VideoURL = cloneString(p.Artisan.VideoURL)
	return p
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
