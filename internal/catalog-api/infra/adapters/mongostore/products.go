package mongostore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
)

var _ ports.ProductRepository = (*ProductRepository)(nil)

type ProductRepository struct {
	store *Store
	coll  *mongo.Collection
}

func (r *ProductRepository) Insert(ctx context.Context, p *entity.Product) error {
	doc, err := toProductDoc(p)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return r.store.wrap("insert product", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, entity.InvalidIDError("product", id)
	}

	var doc productDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.NewNotFoundError("product", id)
	}
	if err != nil {
		return nil, r.store.wrap("find product", err)
	}
	return doc.toEntity(), nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	oids, err := objectIDs(ids)
	if err != nil {
		return nil, err
	}

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, r.store.wrap("find products", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, r.store.wrap("decode products", err)
	}

	out := make(map[string]*entity.Product, len(docs))
	for _, d := range docs {
		p := d.toEntity()
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepository) List(ctx context.Context, filter entity.ProductFilter, page entity.PageRequest) ([]*entity.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))

	cur, err := r.coll.Find(ctx, productQuery(filter), opts)
	if err != nil {
		return nil, r.store.wrap("list products", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, r.store.wrap("decode products", err)
	}

	out := make([]*entity.Product, len(docs))
	for i, d := range docs {
		out[i] = d.toEntity()
	}
	return out, nil
}

func (r *ProductRepository) Count(ctx context.Context, filter entity.ProductFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, productQuery(filter))
	if err != nil {
		return 0, r.store.wrap("count products", err)
	}
	return n, nil
}

func (r *ProductRepository) Update(ctx context.Context, id string, upd entity.ProductUpdate, now time.Time) (*entity.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, entity.InvalidIDError("product", id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": productSet(upd, now)}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.NewNotFoundError("product", id)
	}
	if err != nil {
		return nil, r.store.wrap("update product", err)
	}
	return doc.toEntity(), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return entity.InvalidIDError("product", id)
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return r.store.wrap("delete product", err)
	}
	if res.DeletedCount == 0 {
		return entity.NewNotFoundError("product", id)
	}
	return nil
}

// DecrementStock is a single conditional update, so concurrent orders cannot
// both consume the last units. When nothing matched, the product is re-read
// to tell an untracked or missing product from a short one.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int, now time.Time) (bool, int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, 0, entity.InvalidIDError("product", id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "stock_quantity": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock_quantity": -qty}, "$set": bson.M{"updated_at": now}},
		opts,
	).Decode(&doc)
	if err == nil {
		return true, *doc.StockQuantity, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, 0, r.store.wrap("decrement stock", err)
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return false, 0, err
	}
	if !current.TracksStock() {
		return true, 0, nil
	}
	return false, *current.StockQuantity, nil
}

func (r *ProductRepository) RestoreStock(ctx context.Context, id string, qty int, now time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return entity.InvalidIDError("product", id)
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "stock_quantity": bson.M{"$exists": true}},
		bson.M{"$inc": bson.M{"stock_quantity": qty}, "$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		return r.store.wrap("restore stock", err)
	}
	if res.MatchedCount == 0 {
		// the product may have lost its counter or been deleted meanwhile
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// productQuery translates a listing filter into a query document. Text
// filters are case-insensitive unanchored matches on the quoted input; size
// is matched exactly.
func productQuery(f entity.ProductFilter) bson.M {
	q := bson.M{}
	if f.Name != "" {
		q["name"] = containsRegex(f.Name)
	}
	if f.Size != "" {
		q["size"] = f.Size
	}
	if f.Category != "" {
		q["category"] = containsRegex(f.Category)
	}
	if f.Brand != "" {
		q["brand"] = containsRegex(f.Brand)
	}

	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		q["price"] = price
	}

	if f.InStock != nil {
		if *f.InStock {
			q["stock_quantity"] = bson.M{"$gt": 0}
		} else {
			q["stock_quantity"] = bson.M{"$eq": 0}
		}
	}
	return q
}

func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// productSet builds the $set document for a partial update. updated_at is
// always written, so an empty update still touches the product.
func productSet(u entity.ProductUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Size != nil {
		set["size"] = *u.Size
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Brand != nil {
		set["brand"] = *u.Brand
	}
	if u.Attributes != nil {
		set["attributes"] = u.Attributes
	}
	if u.StockQuantity != nil {
		set["stock_quantity"] = *u.StockQuantity
	}
	if u.Images != nil {
		set["images"] = u.Images
	}
	return set
}
