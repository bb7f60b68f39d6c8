package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"
	"github.com/Eswarhead/handcrafted-marketplace/internal/repositories"
	"github.com/Eswarhead/handcrafted-marketplace/pkg/media"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// CatalogService handles listing, lookup and creation of products.
type CatalogService struct {
	repo     repositories.ProductRepository
	media    media.Store
	events   EventPublisher
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	suffix   func() string
}

// CatalogOption customizes a CatalogService.
type CatalogOption func(*CatalogService)

// WithEvents publishes catalog events through p.
func WithEvents(p EventPublisher) CatalogOption {
	return func(s *CatalogService) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) CatalogOption {
	return func(s *CatalogService) { s.logger = l }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) CatalogOption {
	return func(s *CatalogService) { s.now = now }
}

// WithSlugSuffix replaces the random slug disambiguator.
func WithSlugSuffix(f func() string) CatalogOption {
	return func(s *CatalogService) { s.suffix = f }
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.ProductRepository, store media.Store, opts ...CatalogOption) *CatalogService {
	s := &CatalogService{
		repo:     repo,
		media:    store,
		logger:   zap.NewNop(),
		validate: newFormValidator(),
		now:      time.Now,
		suffix:   randomSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("catalog")
	return s
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Total   int64
	Page    int
	PerPage int
	Items   []models.Product
}

// ListProducts returns active products, newest first, optionally filtered by title.
func (s *CatalogService) ListProducts(ctx context.Context, text string, page, perPage int) (*ProductPage, error) {
	q := repositories.ProductQuery{Text: strings.TrimSpace(text), Page: page, PerPage: perPage}.Normalize()

	items, total, err := s.repo.FindActive(ctx, q)
	if err != nil {
		s.logger.Error("failed to list products", zap.Error(err))
		return nil, newError(KindInternal, "could not retrieve products", err)
	}
	return &ProductPage{Total: total, Page: q.Page, PerPage: q.PerPage, Items: items}, nil
}

// GetProduct returns the active product with the given slug.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		s.logger.Error("failed to get product", zap.String("slug", slug), zap.Error(err))
		return nil, newError(KindInternal, "could not retrieve product", err)
	}
	if product == nil {
		return nil, newError(KindNotFound, "product not found", nil)
	}
	return product, nil
}

// ArtisanPage is an artisan profile together with their active products.
type ArtisanPage struct {
	Artisan  models.Artisan
	Products []models.Product
}

// GetArtisanPage returns the artisan snapshot of any of their products and all of the products.
func (s *CatalogService) GetArtisanPage(ctx context.Context, slug string) (*ArtisanPage, error) {
	products, err := s.repo.FindByArtisanSlug(ctx, slug)
	if err != nil {
		s.logger.Error("failed to get artisan products", zap.String("slug", slug), zap.Error(err))
		return nil, newError(KindInternal, "could not retrieve artisan", err)
	}
	if len(products) == 0 {
		return nil, newError(KindNotFound, "no artisan found", nil)
	}
	return &ArtisanPage{Artisan: products[0].Artisan, Products: products}, nil
}

// SellerProducts returns every product, inactive ones included, to sellers and admins.
func (s *CatalogService) SellerProducts(ctx context.Context, caller *models.Caller) ([]models.Product, error) {
	if err := authorize(caller, models.CapViewSellerCatalog); err != nil {
		return nil, err
	}
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("failed to list seller products", zap.Error(err))
		return nil, newError(KindInternal, "could not retrieve products", err)
	}
	return products, nil
}

// CreateProductInput is the create-product form. Numeric fields arrive as text and are parsed
// during validation.
type CreateProductInput struct {
	Title         string      `form:"title" validate:"required"`
	Description   string      `form:"description" validate:"required"`
	Price         string      `form:"price" validate:"required"`
	ArtisanName   string      `form:"artisan_name" validate:"required"`
	Stock         string      `form:"stock"`
	MakingProcess string      `form:"making_process"` // JSON array of steps
	Image         *media.Blob `form:"image" validate:"required"`
	HeritageVideo *media.Blob `form:"heritage_video"`
}

type parsedProductForm struct {
	price float64
	stock int
	steps []models.MakingStep
}

// CreateProduct runs the seller workflow: authorize, validate, store the video (if any) and the
// image, then insert the product. Media is not rolled back when the insert fails.
func (s *CatalogService) CreateProduct(ctx context.Context, caller *models.Caller, in CreateProductInput) (*models.Product, error) {
	if err := authorize(caller, models.CapCreateProduct); err != nil {
		return nil, err
	}

	form, err := s.validateCreate(&in)
	if err != nil {
		return nil, err
	}

	var videoURL *string
	if in.HeritageVideo != nil && in.HeritageVideo.Size > 0 {
		url, err := s.media.Store(ctx, *in.HeritageVideo, media.KindVideo)
		if err != nil {
			return nil, newError(KindUpload, "video upload failed", err)
		}
		videoURL = &url
	}

	imageURL, err := s.media.Store(ctx, *in.Image, media.KindImage)
	if err != nil {
		return nil, newError(KindUpload, "image upload failed", err)
	}

	product := &models.Product{
		Title:       in.Title,
		Slug:        Slugify(in.Title, "product") + "-" + s.suffix(),
		Description: in.Description,
		Artisan: models.Artisan{
			Name:   in.ArtisanName,
			Slug:   Slugify(in.ArtisanName, "artisan"),
			Images: []string{},
		},
		MakingProcess:    form.steps,
		Images:           []string{imageURL},
		HeritageVideoURL: videoURL,
		BasePrice:        form.price,
		Price:            form.price,
		Stock:            form.stock,
		Active:           true,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, product); err != nil {
		fields := []zap.Field{zap.String("slug", product.Slug), zap.Strings("orphaned_media", orphans(imageURL, videoURL)), zap.Error(err)}
		if errors.Is(err, repositories.ErrDuplicateSlug) {
			s.logger.Warn("duplicate product slug", fields...)
			return nil, newError(KindConflict, "a product with this slug already exists", nil)
		}
		s.logger.Error("failed to save product", fields...)
		return nil, newError(KindInternal, "could not save product", err)
	}

	s.logger.Info("product created", zap.String("id", product.ID), zap.String("slug", product.Slug), zap.String("seller_id", caller.ID))
	s.publishCreated(product, caller)
	return product, nil
}

func (s *CatalogService) validateCreate(in *CreateProductInput) (parsedProductForm, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Price = strings.TrimSpace(in.Price)
	in.ArtisanName = strings.TrimSpace(in.ArtisanName)
	in.Stock = strings.TrimSpace(in.Stock)
	if in.Image != nil && in.Image.Size <= 0 {
		in.Image = nil
	}

	var form parsedProductForm
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return form, newError(KindInternal, "could not validate product", err)
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		sort.Strings(missing)
		return form, validationError("missing required fields", missing...)
	}

	price, err := strconv.ParseFloat(in.Price, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return form, validationError("price must be a non-negative number", "price")
	}
	form.price = price

	if in.Stock != "" {
		stock, err := strconv.Atoi(in.Stock)
		if err != nil || stock < 0 {
			return form, validationError("stock must be a non-negative integer", "stock")
		}
		form.stock = stock
	}

	if strings.TrimSpace(in.MakingProcess) != "" {
		if err := json.Unmarshal([]byte(in.MakingProcess), &form.steps); err != nil {
			return form, validationError("making_process must be a JSON array of steps", "making_process")
		}
		for i := range form.steps {
			if form.steps[i].Step == 0 {
				form.steps[i].Step = i + 1
			}
		}
	}
	return form, nil
}

func (s *CatalogService) publishCreated(p *models.Product, caller *models.Caller) {
	if s.events == nil {
		return
	}
	event := ProductCreatedEvent{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		ArtisanSlug: p.Artisan.Slug,
		Price:       p.Price,
		SellerID:    caller.ID,
	}
	if err := s.events.PublishEvent(EventProductCreated, event); err != nil {
		s.logger.Warn("failed to publish product event", zap.String("id", p.ID), zap.Error(err))
	}
}

// authorize checks that an authenticated caller holds the capability.
func authorize(caller *models.Caller, capability models.Capability) error {
	if caller == nil {
		return newError(KindUnauthorized, "authentication required", nil)
	}
	if !caller.Role.Can(capability) {
		return newError(KindForbidden, "access forbidden for role "+string(caller.Role), nil)
	}
	return nil
}

func orphans(imageURL string, videoURL *string) []string {
	urls := []string{imageURL}
	if videoURL != nil {
		urls = append(urls, *videoURL)
	}
	return urls
}

// newFormValidator reports field errors by their form names.
func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
