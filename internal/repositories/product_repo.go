package repositories

import (
	"context"
	"errors"
	"math"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"
)

// ErrDuplicateSlug is returned by Insert when another product already owns the slug.
var ErrDuplicateSlug = errors.New("product slug already exists")

const (
	// DefaultPerPage is used when the caller supplies no usable page size.
	DefaultPerPage = 24
	// MaxPerPage caps the page size of any listing.
	MaxPerPage = 100
)

// ProductQuery selects a page of active products.
type ProductQuery struct {
	Text    string // case-insensitive substring of the title; empty matches everything
	Page    int
	PerPage int
}

// Normalize clamps PerPage to [1, MaxPerPage] and Page to >= 1, substituting defaults for
// non-positive values. Page is also capped so that Offset never overflows.
func (q ProductQuery) Normalize() ProductQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	if maxPage := math.MaxInt / q.PerPage; q.Page > maxPage {
		q.Page = maxPage
	}
	return q
}

// Offset is the number of matching products skipped before the page starts.
func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// ProductRepository defines the interface for product data access.
// Every listing is ordered newest first; only FindAll returns inactive products.
type ProductRepository interface {
	FindActive(ctx context.Context, q ProductQuery) ([]models.Product, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByArtisanSlug(ctx context.Context, slug string) ([]models.Product, error)
	FindAll(ctx context.Context) ([]models.Product, error)
	Insert(ctx context.Context, product *models.Product) error
}
