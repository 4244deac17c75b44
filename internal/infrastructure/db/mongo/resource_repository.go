package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reservo/booking-system/internal/core/domain"
)

const collectionResources = "resources"

type ResourceRepository struct {
	coll *mongo.Collection
}

func NewResourceRepository(db *mongo.Database) *ResourceRepository {
	return &ResourceRepository{coll: db.Collection(collectionResources)}
}

type mongoResource struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	Name         string              `bson:"name"`
	Type         string              `bson:"type"`
	Capacity     int                 `bson:"capacity,omitempty"`
	Duration     int                 `bson:"duration,omitempty"`
	Slots        []time.Time         `bson:"slots"`
	Availability domain.Availability `bson:"availability"`
	CreatedAt    time.Time           `bson:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at"`
}

func (mr *mongoResource) toDomain() *domain.Resource {
	slots := mr.Slots
	if slots == nil {
		slots = []time.Time{}
	}
	return &domain.Resource{
		ID:           mr.ID.Hex(),
		Name:         mr.Name,
		Type:         domain.ResourceType(mr.Type),
		Capacity:     mr.Capacity,
		Duration:     mr.Duration,
		Slots:        slots,
		Availability: mr.Availability,
		CreatedAt:    mr.CreatedAt,
		UpdatedAt:    mr.UpdatedAt,
	}
}

func (r *ResourceRepository) List(ctx context.Context) ([]*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoResource
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}

	out := make([]*domain.Resource, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*domain.Resource, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ResourceRepository) FindByName(ctx context.Context, name string) (*domain.Resource, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	slots := res.Slots
	if slots == nil {
		slots = []time.Time{}
	}
	doc := mongoResource{
		Name:         res.Name,
		Type:         string(res.Type),
		Capacity:     res.Capacity,
		Duration:     res.Duration,
		Slots:        slots,
		Availability: res.Availability,
		CreatedAt:    res.CreatedAt,
		UpdatedAt:    res.UpdatedAt,
	}

	out, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrResourceExists
		}
		return fmt.Errorf("insert resource: %w", err)
	}
	if oid, ok := out.InsertedID.(primitive.ObjectID); ok {
		res.ID = oid.Hex()
	}
	res.Slots = slots
	return nil
}

// UpdateAvailability replaces the availability rules. Slots are only
// replaced when non-nil.
func (r *ResourceRepository) UpdateAvailability(ctx context.Context, id string, a domain.Availability, slots []time.Time) (*domain.Resource, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrResourceNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"availability": a, "updated_at": time.Now().UTC()}
	if slots != nil {
		set["slots"] = slots
	}

	var doc mongoResource
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, fmt.Errorf("update availability: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes makes resource names unique, which also keeps default seeding idempotent.
func (r *ResourceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ResourceRepository) findOne(ctx context.Context, filter bson.M) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoResource
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}
	return doc.toDomain(), nil
}
