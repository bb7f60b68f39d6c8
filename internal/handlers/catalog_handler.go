package handlers

import (
	"mime/multipart"

	"github.com/Eswarhead/handcrafted-marketplace/internal/middleware"
	"github.com/Eswarhead/handcrafted-marketplace/internal/repositories"
	"github.com/Eswarhead/handcrafted-marketplace/internal/services"
	"github.com/Eswarhead/handcrafted-marketplace/pkg/media"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CatalogHandler handles HTTP requests for the product catalog.
type CatalogHandler struct {
	service *services.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{service: service, logger: logger.Named("catalog_handler")}
}

// RegisterRoutes registers the catalog routes. auth guards the routes that need a caller.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	api := router.Group("/api")
	api.Get("/products", h.HandleListProducts)
	api.Get("/products/:slug", h.HandleGetProduct)
	api.Get("/artisan/:slug", h.HandleGetArtisan)
	api.Post("/products", auth, h.HandleCreateProduct)
	api.Get("/seller/products", auth, h.HandleSellerProducts)
}

// HandleListProducts lists active products. Query: q, page, per (capped at repositories.MaxPerPage).
func (h *CatalogHandler) HandleListProducts(c *fiber.Ctx) error {
	page, err := h.service.ListProducts(
		c.UserContext(),
		c.Query("q"),
		c.QueryInt("page", 1),
		c.QueryInt("per", repositories.DefaultPerPage),
	)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(ProductListResponse{
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
		Items:   presentProducts(page.Items),
	})
}

// HandleGetProduct returns one active product by slug.
func (h *CatalogHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("slug"))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(presentProduct(*product))
}

// HandleGetArtisan returns an artisan profile with their active products.
func (h *CatalogHandler) HandleGetArtisan(c *fiber.Ctx) error {
	page, err := h.service.GetArtisanPage(c.UserContext(), c.Params("slug"))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(ArtisanPageResponse{
		Artisan:  presentArtisan(page.Artisan),
		Products: presentProducts(page.Products),
	})
}

// HandleSellerProducts lists every product, inactive ones included.
func (h *CatalogHandler) HandleSellerProducts(c *fiber.Ctx) error {
	products, err := h.service.SellerProducts(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(presentProducts(products))
}

// HandleCreateProduct creates a product from a multipart form with an image and an optional
// heritage video.
func (h *CatalogHandler) HandleCreateProduct(c *fiber.Ctx) error {
	in := services.CreateProductInput{
		Title:         c.FormValue("title"),
		Description:   c.FormValue("description"),
		Price:         c.FormValue("price"),
		ArtisanName:   c.FormValue("artisan_name"),
		Stock:         c.FormValue("stock"),
		MakingProcess: c.FormValue("making_process"),
	}

	image, closeImage, err := formBlob(c, "image")
	if err != nil {
		h.logger.Warn("failed to open image upload", zap.Error(err))
		return RespondError(c, &services.Error{Kind: services.KindValidation, Message: "could not read uploaded file", Fields: []string{"image"}})
	}
	defer closeImage()
	in.Image = image

	video, closeVideo, err := formBlob(c, "heritage_video")
	if err != nil {
		h.logger.Warn("failed to open video upload", zap.Error(err))
		return RespondError(c, &services.Error{Kind: services.KindValidation, Message: "could not read uploaded file", Fields: []string{"heritage_video"}})
	}
	defer closeVideo()
	in.HeritageVideo = video

	product, err := h.service.CreateProduct(c.UserContext(), middleware.CallerFrom(c), in)
	if err != nil {
		return RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": presentProduct(*product),
	})
}

// formBlob opens the named multipart file. A missing file yields a nil blob and no error.
func formBlob(c *fiber.Ctx, field string) (*media.Blob, func(), error) {
	noop := func() {}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, nil
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, noop, nil
	}
	return openBlob(headers[0])
}

func openBlob(fh *multipart.FileHeader) (*media.Blob, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &media.Blob{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
