package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storefront/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter narrows and pages a catalog listing
type ProductFilter struct {
	Category  *domain.Category
	SellerID  string
	Query     string // case-insensitive match on name or description
	SortBy    string
	SortOrder SortOrder
	Page      int
	PageSize  int
}

// ProductRepository defines the interface for catalog data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// FindByIDs returns the products that exist among ids. Missing ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error)
}

type productRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a catalog repository backed by the products collection
func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{collection: db.Collection("products")}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update replaces the stored product, keeping its id, seller and creation time
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	update := bson.M{
		"$set": bson.M{
			"name":           product.Name,
			"description":    product.Description,
			"price":          product.Price,
			"offer_price":    product.OfferPrice,
			"category":       product.Category,
			"images":         product.Images,
			"specifications": product.Specifications,
			"updated_at":     product.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// sortFields maps public sort keys to document fields. "price" sorts by what
// shoppers pay.
var sortFields = map[string]string{
	"name":        "name",
	"price":       "offer_price",
	"offer_price": "offer_price",
	"list_price":  "price",
	"created_at":  "created_at",
}

// List retrieves products with optional filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, f ProductFilter) ([]*domain.Product, int64, error) {
	query := bson.M{}
	if f.Category != nil {
		query["category"] = *f.Category
	}
	if f.SellerID != "" {
		query["seller_id"] = f.SellerID
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	sortField, ok := sortFields[f.SortBy]
	if !ok {
		sortField = "created_at"
	}
	direction := -1
	if f.SortOrder == SortOrderAsc {
		direction = 1
	}

	page, pageSize := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: direction}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, total, nil
}

// CreateIndexes prepares the indexes used by catalog listings
func (r *productRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}}},
		{Keys: bson.D{{Key: "offer_price", Value: 1}}},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// IndexCreator is implemented by repositories that manage their own indexes
type IndexCreator interface {
	CreateIndexes(ctx context.Context) error
}
