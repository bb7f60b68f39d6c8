package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductsCollection is the collection holding product documents.
const ProductsCollection = "products"

var newestFirstDoc = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// MongoProductRepository is a MongoDB implementation of ProductRepository.
// The artisan is stored as an embedded sub-document.
type MongoProductRepository struct {
	coll *mongo.Collection
}

// NewMongoProductRepository creates a new instance of MongoProductRepository.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		coll: db.Collection(ProductsCollection),
	}
}

// EnsureIndexes creates the unique slug index and the listing indexes. It is idempotent.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "artisan.slug", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

// FindActive returns one page of active products and the total number of matches.
func (r *MongoProductRepository) FindActive(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	q = q.Normalize()

	filter := bson.M{"active": true}
	if q.Text != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(q.Text), "$options": "i"}
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().
		SetSort(newestFirstDoc).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.PerPage))
	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// FindBySlug returns the active product with the given slug, or nil if there is none.
func (r *MongoProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.coll.FindOne(ctx, bson.M{"slug": slug, "active": true}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return &product, nil
}

// FindByArtisanSlug returns the active products carrying the given artisan slug.
func (r *MongoProductRepository) FindByArtisanSlug(ctx context.Context, slug string) ([]models.Product, error) {
	products, err := r.find(ctx, bson.M{"artisan.slug": slug, "active": true}, options.Find().SetSort(newestFirstDoc))
	if err != nil {
		return nil, fmt.Errorf("failed to get products of artisan %s: %w", slug, err)
	}
	return products, nil
}

// FindAll returns every product, inactive ones included.
func (r *MongoProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	products, err := r.find(ctx, bson.M{}, options.Find().SetSort(newestFirstDoc))
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// Insert stores a new product. Slug uniqueness is enforced by the unique index.
func (r *MongoProductRepository) Insert(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateSlug, product.Slug)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]models.Product, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}
