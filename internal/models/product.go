package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Artisan is the maker snapshot embedded in every product. It has no identity of its own:
// products of the same artisan each carry their own copy.
type Artisan struct {
	Name     string   `json:"name" bson:"name" gorm:"type:varchar(255)"`
	Slug     string   `json:"slug" bson:"slug" gorm:"type:varchar(255);index"`
	Location string   `json:"location" bson:"location,omitempty"`
	Bio      string   `json:"bio" bson:"bio,omitempty"`
	Images   []string `json:"images" bson:"images,omitempty" gorm:"serializer:json;type:text"`
	VideoURL *string  `json:"video_url,omitempty" bson:"video_url,omitempty"`
}

// MakingStep is one step of the making process shown on a product page.
type MakingStep struct {
	Step  int    `json:"step" bson:"step"`
	Text  string `json:"text" bson:"text"`
	Image string `json:"image,omitempty" bson:"image,omitempty"`
}

// Product represents a catalog listing.
type Product struct {
	ID               string       `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Title            string       `json:"title" bson:"title" gorm:"type:varchar(255);not null"`
	TitleSearch      string       `json:"-" bson:"-" gorm:"type:varchar(255);index"` // lowercased Title for dialects whose LOWER is ASCII-only
	Slug             string       `json:"slug" bson:"slug" gorm:"type:varchar(255);uniqueIndex;not null"`
	Description      string       `json:"description" bson:"description,omitempty" gorm:"type:text"`
	Artisan          Artisan      `json:"artisan" bson:"artisan" gorm:"embedded;embeddedPrefix:artisan_"`
	MakingProcess    []MakingStep `json:"making_process" bson:"making_process,omitempty" gorm:"serializer:json;type:text"`
	Images           []string     `json:"images" bson:"images,omitempty" gorm:"serializer:json;type:text"`
	HeritageVideoURL *string      `json:"heritage_video_url,omitempty" bson:"heritage_video_url,omitempty"`
	BasePrice        float64      `json:"base_price" bson:"base_price"`
	Price            float64      `json:"price" bson:"price"`
	Stock            int          `json:"stock" bson:"stock" gorm:"default:0"`
	Active           bool         `json:"active" bson:"active" gorm:"index"`
	CreatedAt        time.Time    `json:"created_at" bson:"created_at" gorm:"index;not null"`
}

// BeforeSave keeps TitleSearch in step with Title.
func (p *Product) BeforeSave(*gorm.DB) error {
	p.TitleSearch = strings.ToLower(p.Title)
	return nil
}
