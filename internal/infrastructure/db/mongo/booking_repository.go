package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

const collectionBookings = "bookings"

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(collectionBookings)}
}

type mongoBooking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Resource  primitive.ObjectID `bson:"resource"`
	User      primitive.ObjectID `bson:"user"`
	StartTime time.Time          `bson:"start_time"`
	EndTime   time.Time          `bson:"end_time"`
	Status    string             `bson:"status"`
	CreatedBy string             `bson:"created_by"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`

	// populated by the $lookup stage only
	ResourceDoc []struct {
		Name string `bson:"name"`
	} `bson:"resource_doc,omitempty"`
}

func (mb *mongoBooking) toDomain() *domain.Booking {
	b := &domain.Booking{
		ID:         mb.ID.Hex(),
		ResourceID: mb.Resource.Hex(),
		UserID:     mb.User.Hex(),
		StartTime:  mb.StartTime.UTC(),
		EndTime:    mb.EndTime.UTC(),
		Status:     domain.BookingStatus(mb.Status),
		CreatedBy:  domain.EntryPoint(mb.CreatedBy),
		CreatedAt:  mb.CreatedAt.UTC(),
		UpdatedAt:  mb.UpdatedAt.UTC(),
	}
	if len(mb.ResourceDoc) > 0 {
		b.ResourceName = mb.ResourceDoc[0].Name
	}
	return b
}

// Create inserts a new booking document and fills in b.ID.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	resource, ok := objectID(b.ResourceID)
	if !ok {
		return domain.ErrResourceNotFound
	}
	user, ok := objectID(b.UserID)
	if !ok {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, mongoBooking{
		Resource:  resource,
		User:      user,
		StartTime: b.StartTime.UTC(),
		EndTime:   b.EndTime.UTC(),
		Status:    string(b.Status),
		CreatedBy: string(b.CreatedBy),
		CreatedAt: b.CreatedAt.UTC(),
		UpdatedAt: b.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		b.ID = oid.Hex()
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrBookingNotFound
	}

	found, err := r.aggregate(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domain.ErrBookingNotFound
	}
	return found[0], nil
}

// UpdateStatus is a compare-and-set on the status field, so two concurrent
// transitions from the same state cannot both succeed.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus, at time.Time) (*domain.Booking, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrBookingNotFound
	}

	updateCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(updateCtx,
		bson.M{"_id": oid, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": at.UTC()}},
	)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(updateCtx, bson.M{"_id": oid})
		if err != nil {
			return nil, fmt.Errorf("update booking status: %w", err)
		}
		if n == 0 {
			return nil, domain.ErrBookingNotFound
		}
		return nil, domain.ErrInvalidTransition
	}

	return r.FindByID(ctx, id)
}

func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrBookingNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// List returns bookings matching filter ordered by start time.
func (r *BookingRepository) List(ctx context.Context, f ports.BookingFilter) ([]*domain.Booking, error) {
	match := bson.M{}
	if f.UserID != "" {
		user, ok := objectID(f.UserID)
		if !ok {
			return []*domain.Booking{}, nil
		}
		match["user"] = user
	}
	if f.Status != "" {
		match["status"] = string(f.Status)
	}
	if !f.StartsAfter.IsZero() {
		match["start_time"] = bson.M{"$gte": f.StartsAfter.UTC()}
	}
	return r.aggregate(ctx, match)
}

func (r *BookingRepository) FindOverlapping(ctx context.Context, resourceID string, start, end time.Time) ([]*domain.Booking, error) {
	resource, ok := objectID(resourceID)
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return r.aggregate(ctx, bson.M{
		"resource":   resource,
		"status":     bson.M{"$ne": string(domain.BookingCanceled)},
		"start_time": bson.M{"$lt": end.UTC()},
		"end_time":   bson.M{"$gt": start.UTC()},
	})
}

// EnsureIndexes creates the indexes backing the list and overlap queries.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// aggregate runs match, sorts by start time and joins the resource name.
func (r *BookingRepository) aggregate(ctx context.Context, match bson.M) ([]*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "start_time", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionResources},
			{Key: "localField", Value: "resource"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "resource_doc"},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoBooking
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}

	out := make([]*domain.Booking, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}
