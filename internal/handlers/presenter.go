package handlers

import (
	"time"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"
)

// ArtisanResponse is the public shape of an artisan snapshot.
type ArtisanResponse struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Location string   `json:"location"`
	Bio      string   `json:"bio"`
	Images   []string `json:"images"`
	VideoURL *string  `json:"video_url,omitempty"`
}

// ProductResponse is the public shape of a product. Absent lists render as [].
type ProductResponse struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Slug             string              `json:"slug"`
	Description      string              `json:"description"`
	Artisan          ArtisanResponse     `json:"artisan"`
	MakingProcess    []models.MakingStep `json:"making_process"`
	Images           []string            `json:"images"`
	HeritageVideoURL *string             `json:"heritage_video_url,omitempty"`
	BasePrice        float64             `json:"base_price"`
	Price            float64             `json:"price"`
	Stock            int                 `json:"stock"`
	Active           bool                `json:"active"`
	CreatedAt        time.Time           `json:"created_at"`
}

// ProductListResponse is a page of products.
type ProductListResponse struct {
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per"`
	Items   []ProductResponse `json:"items"`
}

// ArtisanPageResponse is an artisan together with their products.
type ArtisanPageResponse struct {
	Artisan  ArtisanResponse   `json:"artisan"`
	Products []ProductResponse `json:"products"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func presentArtisan(a models.Artisan) ArtisanResponse {
	return ArtisanResponse{
		Name:     a.Name,
		Slug:     a.Slug,
		Location: a.Location,
		Bio:      a.Bio,
		Images:   nonNil(a.Images),
		VideoURL: a.VideoURL,
	}
}

func presentProduct(p models.Product) ProductResponse {
	steps := p.MakingProcess
	if steps == nil {
		steps = []models.MakingStep{}
	}
	return ProductResponse{
		ID:               p.ID,
		Title:            p.Title,
		Slug:             p.Slug,
		Description:      p.Description,
		Artisan:          presentArtisan(p.Artisan),
		MakingProcess:    steps,
		Images:           nonNil(p.Images),
		HeritageVideoURL: p.HeritageVideoURL,
		BasePrice:        p.BasePrice,
		Price:            p.Price,
		Stock:            p.Stock,
		Active:           p.Active,
		CreatedAt:        p.CreatedAt,
	}
}

func presentProducts(products []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, presentProduct(p))
	}
	return out
}

func presentUser(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
