package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"
	"github.com/Eswarhead/handcrafted-marketplace/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func product(slug, title, artisan string, hoursAfterEpoch int, active bool) *models.Product {
	return &models.Product{
		Title:       title,
		Slug:        slug,
		Description: title + " description",
		Artisan: models.Artisan{
			Name:   artisan,
			Slug:   artisan,
			Images: []string{},
		},
		Images:    []string{"http://localhost:8080/static/uploads/" + slug + ".jpg"},
		BasePrice: 12.5,
		Price:     12.5,
		Stock:     2,
		Active:    active,
		CreatedAt: epoch.Add(time.Duration(hoursAfterEpoch) * time.Hour),
	}
}

func slugs(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Slug)
	}
	return out
}

// testProductRepository runs the behavior every ProductRepository must share. newRepo returns
// an empty repository.
func testProductRepository(t *testing.T, newRepo func(t *testing.T) repositories.ProductRepository) {
	ctx := context.Background()

	seed := func(t *testing.T, repo repositories.ProductRepository) {
		t.Helper()
		for _, p := range []*models.Product{
			product("oak-spoon", "Oak Spoon", "ravi", 1, true),
			product("clay-pot", "Clay Pot", "asha", 2, true),
			product("hidden-pot", "Hidden Pot", "asha", 3, false),
			product("reed-basket", "Reed Basket", "ravi", 4, true),
			product("sale-100", "100% Wool Scarf", "mina", 5, true),
			product("under-score", "Under_score Mat", "mina", 6, true),
		} {
			require.NoError(t, repo.Insert(ctx, p))
		}
	}

	t.Run("insert and find by slug", func(t *testing.T) {
		repo := newRepo(t)
		video := "http://localhost:8080/static/uploads/videos/v.mp4"
		p := product("oak-spoon", "Oak Spoon", "ravi", 1, true)
		p.HeritageVideoURL = &video
		p.MakingProcess = []models.MakingStep{{Step: 1, Text: "Carve"}, {Step: 2, Text: "Oil", Image: "oil.jpg"}}
		require.NoError(t, repo.Insert(ctx, p))
		assert.NotEmpty(t, p.ID)

		got, err := repo.FindBySlug(ctx, "oak-spoon")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, "Oak Spoon", got.Title)
		assert.Equal(t, "ravi", got.Artisan.Slug)
		assert.Equal(t, p.Images, got.Images)
		assert.Equal(t, p.MakingProcess, got.MakingProcess)
		require.NotNil(t, got.HeritageVideoURL)
		assert.Equal(t, video, *got.HeritageVideoURL)
		assert.Equal(t, 12.5, got.Price)
		assert.Equal(t, 2, got.Stock)
		assert.True(t, got.CreatedAt.Equal(p.CreatedAt), "created_at %v != %v", got.CreatedAt, p.CreatedAt)

		missing, err := repo.FindBySlug(ctx, "nothing-here")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, product("clay-pot", "Clay Pot", "asha", 1, true)))

		err := repo.Insert(ctx, product("clay-pot", "Another Clay Pot", "ravi", 2, true))
		assert.True(t, errors.Is(err, repositories.ErrDuplicateSlug), "got %v", err)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("find active pages newest first", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		items, total, err := repo.FindActive(ctx, repositories.ProductQuery{Page: 1, PerPage: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Equal(t, []string{"under-score", "sale-100"}, slugs(items))

		items, total, err = repo.FindActive(ctx, repositories.ProductQuery{Page: 3, PerPage: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Equal(t, []string{"oak-spoon"}, slugs(items))

		items, total, err = repo.FindActive(ctx, repositories.ProductQuery{Page: 9, PerPage: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Empty(t, items)
	})

	t.Run("far page is empty", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		items, total, err := repo.FindActive(ctx, repositories.ProductQuery{Page: math.MaxInt/100 + 2, PerPage: 100})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Empty(t, items)
	})

	t.Run("stored product is isolated from the caller", func(t *testing.T) {
		repo := newRepo(t)
		video, artisanVideo := "heritage.mp4", "artisan.mp4"
		p := product("oak-spoon", "Oak Spoon", "ravi", 1, true)
		p.HeritageVideoURL = &video
		p.Artisan.VideoURL = &artisanVideo
		require.NoError(t, repo.Insert(ctx, p))

		video, artisanVideo = "changed.mp4", "changed.mp4"
		p.Images[0] = "changed.jpg"

		got, err := repo.FindBySlug(ctx, "oak-spoon")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.HeritageVideoURL)
		require.NotNil(t, got.Artisan.VideoURL)
		assert.Equal(t, "heritage.mp4", *got.HeritageVideoURL)
		assert.Equal(t, "artisan.mp4", *got.Artisan.VideoURL)
		assert.NotEqual(t, "changed.jpg", got.Images[0])

		*got.HeritageVideoURL = "mutated.mp4"
		again, err := repo.FindBySlug(ctx, "oak-spoon")
		require.NoError(t, err)
		assert.Equal(t, "heritage.mp4", *again.HeritageVideoURL)
	})

	t.Run("find active text filter", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		items, total, err := repo.FindActive(ctx, repositories.ProductQuery{Text: "POT"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"clay-pot"}, slugs(items))

		// Wildcard characters match literally.
		items, _, err = repo.FindActive(ctx, repositories.ProductQuery{Text: "100%"})
		require.NoError(t, err)
		assert.Equal(t, []string{"sale-100"}, slugs(items))

		items, _, err = repo.FindActive(ctx, repositories.ProductQuery{Text: "r_"})
		require.NoError(t, err)
		assert.Equal(t, []string{"under-score"}, slugs(items))

		items, total, err = repo.FindActive(ctx, repositories.ProductQuery{Text: "teapot"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})

	t.Run("inactive products are hidden", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		got, err := repo.FindBySlug(ctx, "hidden-pot")
		assert.NoError(t, err)
		assert.Nil(t, got)

		byArtisan, err := repo.FindByArtisanSlug(ctx, "asha")
		require.NoError(t, err)
		assert.Equal(t, []string{"clay-pot"}, slugs(byArtisan))

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"under-score", "sale-100", "reed-basket", "hidden-pot", "clay-pot", "oak-spoon"}, slugs(all))
	})

	t.Run("find by artisan slug", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		products, err := repo.FindByArtisanSlug(ctx, "ravi")
		require.NoError(t, err)
		assert.Equal(t, []string{"reed-basket", "oak-spoon"}, slugs(products))

		products, err = repo.FindByArtisanSlug(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("same timestamp is ordered deterministically", func(t *testing.T) {
		repo := newRepo(t)
		for i := 0; i < 4; i++ {
			p := product(fmt.Sprintf("twin-%d", i), "Twin", "ravi", 1, true)
			p.ID = fmt.Sprintf("00000000-0000-0000-0000-00000000000%d", i)
			require.NoError(t, repo.Insert(ctx, p))
		}
		first, _, err := repo.FindActive(ctx, repositories.ProductQuery{Page: 1, PerPage: 2})
		require.NoError(t, err)
		second, _, err := repo.FindActive(ctx, repositories.ProductQuery{Page: 2, PerPage: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"twin-3", "twin-2", "twin-1", "twin-0"}, append(slugs(first), slugs(second)...))
	})
}

// testUserRepository runs the behavior every UserRepository must share.
func testUserRepository(t *testing.T, newRepo func(t *testing.T) repositories.UserRepository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		user := &models.User{Email: "maker@example.com", Name: "Maker", Password: "hash", Role: models.RoleSeller}
		require.NoError(t, repo.Create(ctx, user))
		assert.NotEmpty(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())

		byEmail, err := repo.GetByEmail(ctx, "maker@example.com")
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.Password)
		assert.Equal(t, models.RoleSeller, byEmail.Role)

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, "maker@example.com", byID.Email)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := newRepo(t)
		user, err := repo.GetByEmail(ctx, "ghost@example.com")
		assert.NoError(t, err)
		assert.Nil(t, user)

		user, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, &models.User{Email: "dup@example.com", Password: "a", Role: models.RoleBuyer}))
		err := repo.Create(ctx, &models.User{Email: "dup@example.com", Password: "b", Role: models.RoleSeller})
		assert.True(t, errors.Is(err, repositories.ErrDuplicateEmail), "got %v", err)
	})
}
