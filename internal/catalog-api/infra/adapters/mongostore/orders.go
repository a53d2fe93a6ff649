package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	store *Store
	coll  *mongo.Collection
}

func (r *OrderRepository) Insert(ctx context.Context, o *entity.Order) error {
	doc, err := toOrderDoc(o)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return r.store.wrap("insert order", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, entity.InvalidIDError("order", id)
	}

	var doc orderDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.NewNotFoundError("order", id)
	}
	if err != nil {
		return nil, r.store.wrap("find order", err)
	}
	return doc.toEntity(), nil
}

// List returns orders newest first, identity descending on ties.
func (r *OrderRepository) List(ctx context.Context, filter entity.OrderFilter, page entity.PageRequest) ([]*entity.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))

	cur, err := r.coll.Find(ctx, orderQuery(filter), opts)
	if err != nil {
		return nil, r.store.wrap("list orders", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, r.store.wrap("decode orders", err)
	}

	out := make([]*entity.Order, len(docs))
	for i, d := range docs {
		out[i] = d.toEntity()
	}
	return out, nil
}

func (r *OrderRepository) Count(ctx context.Context, filter entity.OrderFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, orderQuery(filter))
	if err != nil {
		return 0, r.store.wrap("count orders", err)
	}
	return n, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, change entity.StatusChange) (*entity.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, entity.InvalidIDError("order", id)
	}

	update := bson.M{
		"$set":  bson.M{"status": string(change.Status), "updated_at": change.Timestamp},
		"$push": bson.M{"status_history": toStatusChangeDoc(change)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.NewNotFoundError("order", id)
	}
	if err != nil {
		return nil, r.store.wrap("update order status", err)
	}
	return doc.toEntity(), nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return entity.InvalidIDError("order", id)
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return r.store.wrap("delete order", err)
	}
	if res.DeletedCount == 0 {
		return entity.NewNotFoundError("order", id)
	}
	return nil
}

func orderQuery(f entity.OrderFilter) bson.M {
	q := bson.M{}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	return q
}
