package services

// Event types published by the catalog.
const EventProductCreated = "product.created"

// EventPublisher delivers domain events to other services. Publishing is best effort.
type EventPublisher interface {
	PublishEvent(eventType string, payload any) error
}

// ProductCreatedEvent is the payload of EventProductCreated.
type ProductCreatedEvent struct {
	ID          string  `json:"id"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	ArtisanSlug string  `json:"artisan_slug"`
	Price       float64 `json:"price"`
	SellerID    string  `json:"seller_id"`
}
