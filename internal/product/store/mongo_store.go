package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	perrors "github.com/abgdnv/gostore/internal/product/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionName is the collection holding product documents.
const CollectionName = "products"

// productDocument is the BSON shape of a product. Prices are decimal128 so they keep their exact value.
type productDocument struct {
	ID        string               `bson:"_id"`
	Name      string               `bson:"name"`
	Quantity  int64                `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
	Status    bool                 `bson:"status"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

// MongoStore implements ProductStore using MongoDB as the data store.
type MongoStore struct {
	db         *mongo.Database
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoStore creates a new instance of ProductStore on the products collection of db.
// The unique index on name is created by the migrations, not here.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:         db,
		collection: db.Collection(CollectionName),
		now:        time.Now,
	}
}

// Create adds a new product to the system.
// Returns ErrProductInsertion if a product with the same name already exists.
func (s *MongoStore) Create(ctx context.Context, product NewProduct) (*Product, error) {
	price, err := ToDecimal128(product.Price)
	if err != nil {
		return nil, err
	}
	// BSON dates hold milliseconds; truncating here keeps the returned value equal to the stored one.
	now := s.now().UTC().Truncate(time.Millisecond)
	doc := productDocument{
		ID:        uuid.New().String(),
		Name:      product.Name,
		Quantity:  product.Quantity,
		Price:     price,
		Status:    product.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: product with name %q already exists", perrors.ErrProductInsertion, product.Name)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toProduct(doc)
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *MongoStore) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var doc productDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return toProduct(doc)
}

// Query retrieves the products whose price lies within the inclusive range.
// It returns a slice of products, which may be empty if nothing matches.
func (s *MongoStore) Query(ctx context.Context, priceRange PriceRange) ([]Product, error) {
	filter, err := priceFilter(priceRange)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	products := make([]Product, 0, len(docs))
	for _, doc := range docs {
		p, err := toProduct(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

// Update sets the supplied fields and updated_at, and returns the product as it is after the update.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *MongoStore) Update(ctx context.Context, id uuid.UUID, update ProductUpdate, updatedAt time.Time) (*Product, error) {
	set := bson.D{{Key: "updated_at", Value: updatedAt.UTC().Truncate(time.Millisecond)}}
	if update.Quantity != nil {
		set = append(set, bson.E{Key: "quantity", Value: *update.Quantity})
	}
	if update.Price != nil {
		price, err := ToDecimal128(*update.Price)
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "price", Value: price})
	}
	if update.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *update.Status})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return toProduct(doc)
}

// DeleteByID removes a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *MongoStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if res.DeletedCount == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

// Ping checks that the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// priceFilter builds the inclusive range filter on price. An empty range matches every product.
func priceFilter(priceRange PriceRange) (bson.M, error) {
	bounds := bson.M{}
	if priceRange.Min != nil {
		minPrice, err := ToDecimal128(*priceRange.Min)
		if err != nil {
			return nil, err
		}
		bounds["$gte"] = minPrice
	}
	if priceRange.Max != nil {
		maxPrice, err := ToDecimal128(*priceRange.Max)
		if err != nil {
			return nil, err
		}
		bounds["$lte"] = maxPrice
	}
	if len(bounds) == 0 {
		return bson.M{}, nil
	}
	return bson.M{"price": bounds}, nil
}

func toProduct(doc productDocument) (*Product, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("stored product has malformed ID %q: %w", doc.ID, err)
	}
	price, err := FromDecimal128(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("stored product %s: %w", doc.ID, err)
	}
	return &Product{
		ID:        id,
		Name:      doc.Name,
		Quantity:  doc.Quantity,
		Price:     price,
		Status:    doc.Status,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}, nil
}
