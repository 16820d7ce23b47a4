package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	cartCollection  = "cart_items"
	savedCollection = "saved_items"
)

type cartItemDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID   string             `bson:"owner_id"`
	ProductID string             `bson:"product_id"`
	Quantity  int                `bson:"quantity"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type savedItemDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID   string             `bson:"owner_id"`
	ProductID string             `bson:"product_id"`
	SavedAt   time.Time          `bson:"saved_at"`
}

type mongoStore struct {
	db    *mongo.Database
	cart  *mongo.Collection
	saved *mongo.Collection
}

func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{
		db:    db,
		cart:  db.Collection(cartCollection),
		saved: db.Collection(savedCollection),
	}
}

func (m *mongoStore) CreateCartItem(ctx context.Context, rec CartRecord) (string, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	doc := cartItemDoc{
		OwnerID:   rec.OwnerID,
		ProductID: rec.ProductID,
		Quantity:  rec.Quantity,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: time.Now(),
	}

	res, err := m.cart.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create cart item: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *mongoStore) UpdateCartItem(ctx context.Context, id string, quantity int) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"quantity":   quantity,
		"updated_at": time.Now(),
	}}
	res, err := m.cart.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m *mongoStore) DeleteCartItem(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := m.cart.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m *mongoStore) ListCartItems(ctx context.Context, ownerID string) ([]CartRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := m.cart.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer cur.Close(ctx)

	var recs []CartRecord
	for cur.Next(ctx) {
		var doc cartItemDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode cart item: %w", err)
		}
		recs = append(recs, CartRecord{
			ID:        doc.ID.Hex(),
			OwnerID:   doc.OwnerID,
			ProductID: doc.ProductID,
			Quantity:  doc.Quantity,
			CreatedAt: doc.CreatedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}
	return recs, nil
}

func (m *mongoStore) CreateSavedItem(ctx context.Context, rec SavedRecord) (string, error) {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}
	doc := savedItemDoc{
		OwnerID:   rec.OwnerID,
		ProductID: rec.ProductID,
		SavedAt:   rec.SavedAt,
	}

	res, err := m.saved.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create saved item: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *mongoStore) DeleteSavedItem(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := m.saved.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete saved item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m *mongoStore) ListSavedItems(ctx context.Context, ownerID string) ([]SavedRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "saved_at", Value: 1}})
	cur, err := m.saved.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved items: %w", err)
	}
	defer cur.Close(ctx)

	var recs []SavedRecord
	for cur.Next(ctx) {
		var doc savedItemDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode saved item: %w", err)
		}
		recs = append(recs, SavedRecord{
			ID:        doc.ID.Hex(),
			OwnerID:   doc.OwnerID,
			ProductID: doc.ProductID,
			SavedAt:   doc.SavedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved items: %w", err)
	}
	return recs, nil
}

func (m *mongoStore) Batch() Batch {
	return &mongoBatch{store: m}
}

// DeleteAllCartItems removes every cart row for one owner in a single
// command; the driver guarantees per-command atomicity.
func (m *mongoStore) DeleteAllCartItems(ctx context.Context, ownerID string) error {
	if _, err := m.cart.DeleteMany(ctx, bson.M{"owner_id": ownerID}); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// EnsureIndexes creates the owner lookup indexes on both collections.
// Called once at startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ownerIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}

	if _, err := db.Collection(cartCollection).Indexes().CreateMany(ctx, ownerIdx); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	if _, err := db.Collection(savedCollection).Indexes().CreateMany(ctx, ownerIdx); err != nil {
		return fmt.Errorf("failed to create saved indexes: %w", err)
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: bad id %q", ErrRecordNotFound, id)
	}
	return oid, nil
}

type batchOp func(ctx mongo.SessionContext) error

type mongoBatch struct {
	store *mongoStore
	ops   []batchOp
}

func (b *mongoBatch) SetCartItem(rec CartRecord) string {
	oid := primitive.NewObjectID()
	doc := cartItemDoc{
		ID:        oid,
		OwnerID:   rec.OwnerID,
		ProductID: rec.ProductID,
		Quantity:  rec.Quantity,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: time.Now(),
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	b.ops = append(b.ops, func(ctx mongo.SessionContext) error {
		_, err := b.store.cart.InsertOne(ctx, doc)
		return err
	})
	return oid.Hex()
}

func (b *mongoBatch) DeleteCartItem(id string) {
	b.ops = append(b.ops, func(ctx mongo.SessionContext) error {
		oid, err := parseID(id)
		if err != nil {
			return err
		}
		_, err = b.store.cart.DeleteOne(ctx, bson.M{"_id": oid})
		return err
	})
}

func (b *mongoBatch) SetSavedItem(rec SavedRecord) string {
	oid := primitive.NewObjectID()
	doc := savedItemDoc{
		ID:        oid,
		OwnerID:   rec.OwnerID,
		ProductID: rec.ProductID,
		SavedAt:   rec.SavedAt,
	}
	if doc.SavedAt.IsZero() {
		doc.SavedAt = time.Now()
	}

	b.ops = append(b.ops, func(ctx mongo.SessionContext) error {
		_, err := b.store.saved.InsertOne(ctx, doc)
		return err
	})
	return oid.Hex()
}

func (b *mongoBatch) DeleteSavedItem(id string) {
	b.ops = append(b.ops, func(ctx mongo.SessionContext) error {
		oid, err := parseID(id)
		if err != nil {
			return err
		}
		_, err = b.store.saved.DeleteOne(ctx, bson.M{"_id": oid})
		return err
	})
}

func (b *mongoBatch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}

	sess, err := b.store.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, op := range b.ops {
			if err := op(sc); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}
