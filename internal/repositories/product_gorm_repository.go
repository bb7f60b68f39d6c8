package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const newestFirst = "created_at DESC, id DESC"

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func (r *GORMProductRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("active = ?", true)
}

// FindActive returns one page of active products and the total number of matches.
func (r *GORMProductRepository) FindActive(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	q = q.Normalize()

	query := r.active(ctx)
	if q.Text != "" {
		query = query.Where(`title_search LIKE ? ESCAPE '\'`, containsPattern(q.Text))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	products := make([]models.Product, 0, q.PerPage)
	err := query.Order(newestFirst).Offset(q.Offset()).Limit(q.PerPage).Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// FindBySlug returns the active product with the given slug, or nil if there is none.
func (r *GORMProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.active(ctx).Where("slug = ?", slug).Take(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return &product, nil
}

// FindByArtisanSlug returns the active products carrying the given artisan slug.
func (r *GORMProductRepository) FindByArtisanSlug(ctx context.Context, slug string) ([]models.Product, error) {
	var products []models.Product
	err := r.active(ctx).Where("artisan_slug = ?", slug).Order(newestFirst).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get products of artisan %s: %w", slug, err)
	}
	return products, nil
}

// FindAll returns every product, inactive ones included.
func (r *GORMProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order(newestFirst).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// Insert stores a new product. Slug uniqueness is enforced by the unique index.
func (r *GORMProductRepository) Insert(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateSlug, product.Slug)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}
