package repositories_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"
	"github.com/Eswarhead/handcrafted-marketplace/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLite opens a private in-memory database per test.
func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.User{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGORMProductRepository_SQLite(t *testing.T) {
	testProductRepository(t, func(t *testing.T) repositories.ProductRepository {
		return repositories.NewGORMProductRepository(newSQLite(t))
	})
}

func TestGORMUserRepository_SQLite(t *testing.T) {
	testUserRepository(t, func(t *testing.T) repositories.UserRepository {
		return repositories.NewGORMUserRepository(newSQLite(t))
	})
}

func TestMemoryProductRepository(t *testing.T) {
	testProductRepository(t, func(*testing.T) repositories.ProductRepository {
		return repositories.NewMemoryProductRepository()
	})
}

func TestMemoryUserRepository(t *testing.T) {
	testUserRepository(t, func(*testing.T) repositories.UserRepository {
		return repositories.NewMemoryUserRepository()
	})
}

func TestFindActiveFoldsNonASCIITitles(t *testing.T) {
	stores := map[string]func(t *testing.T) repositories.ProductRepository{
		"sqlite": func(t *testing.T) repositories.ProductRepository {
			return repositories.NewGORMProductRepository(newSQLite(t))
		},
		"memory": func(*testing.T) repositories.ProductRepository {
			return repositories.NewMemoryProductRepository()
		},
	}
	for name, newRepo := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			require.NoError(t, repo.Insert(ctx, product("ete-shawl", "ÉTÉ Shawl", "mira", 1, true)))
			require.NoError(t, repo.Insert(ctx, product("oak-spoon", "Oak Spoon", "ravi", 2, true)))

			items, total, err := repo.FindActive(ctx, repositories.ProductQuery{Text: "été"})
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
			assert.Equal(t, []string{"ete-shawl"}, slugs(items))
		})
	}
}
