package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	perrors "github.com/abgdnv/produce/internal/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductsCollection is the collection holding product documents.
const ProductsCollection = "products"

// productDocument is the BSON shape of a product.
type productDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Code     float64            `bson:"code"`
	Name     string             `bson:"name"`
	Price    float64            `bson:"price"`
	Category string             `bson:"category"`
}

func (d productDocument) toProduct() *Product {
	return &Product{
		ID:       d.ID.Hex(),
		Code:     d.Code,
		Name:     d.Name,
		Price:    d.Price,
		Category: d.Category,
	}
}

// MongoStore implements ProductStore on a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore creates a ProductStore backed by the products collection of database.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(ProductsCollection),
	}
}

// Ping checks the connection to the primary.
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// FindByID retrieves a product by its ObjectID hex string.
func (m *MongoStore) FindByID(ctx context.Context, id string) (*Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc productDocument
	if err := m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return doc.toProduct(), nil
}

// FindAll retrieves all products in insertion order.
func (m *MongoStore) FindAll(ctx context.Context, offset, limit int32) ([]Product, error) {
	products, err := m.find(ctx, bson.M{}, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// FindByName retrieves products whose name contains name, ignoring case.
// The name is matched literally, regex metacharacters carry no meaning.
func (m *MongoStore) FindByName(ctx context.Context, name string, offset, limit int32) ([]Product, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}}
	products, err := m.find(ctx, filter, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	return products, nil
}

// Create inserts a new product document.
func (m *MongoStore) Create(ctx context.Context, product Product) (*Product, error) {
	doc := productDocument{
		Code:     product.Code,
		Name:     product.Name,
		Price:    product.Price,
		Category: product.Category,
	}
	res, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to create product: unexpected inserted ID type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toProduct(), nil
}

// Update sets the patch fields and returns the document as it is after the update.
func (m *MongoStore) Update(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	if patch.IsEmpty() {
		return m.FindByID(ctx, id)
	}
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": patchToSet(patch)}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return doc.toProduct(), nil
}

// DeleteByID removes a product and returns the removed document.
func (m *MongoStore) DeleteByID(ctx context.Context, id string) (*Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc productDocument
	if err := m.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product by ID: %w", err)
	}
	return doc.toProduct(), nil
}

func (m *MongoStore) find(ctx context.Context, filter bson.M, offset, limit int32) ([]Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, *d.toProduct())
	}
	return products, nil
}

func patchToSet(patch ProductPatch) bson.M {
	set := bson.M{}
	if patch.Code != nil {
		set["code"] = *patch.Code
	}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	return set
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", perrors.ErrInvalidID, id)
	}
	return oid, nil
}
