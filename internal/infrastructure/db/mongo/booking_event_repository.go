package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

const collectionBookingEvents = "booking_events"

// BookingEventRepository implements ports.BookingEventRepository using MongoDB.
type BookingEventRepository struct {
	db *mongo.Database
}

func NewBookingEventRepository(db *mongo.Database) ports.BookingEventRepository {
	return &BookingEventRepository{db: db}
}

// InsertEvent appends a booking lifecycle event to the booking_events audit collection.
func (r *BookingEventRepository) InsertEvent(ctx context.Context, event *domain.BookingEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"booking_id":  event.BookingID,
		"action":      string(event.Action),
		"actor_id":    event.ActorID,
		"actor_role":  event.ActorRole,
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.From != "" {
		doc["from"] = string(event.From)
	}
	if event.To != "" {
		doc["to"] = string(event.To)
	}

	_, err := r.db.Collection(collectionBookingEvents).InsertOne(ctx, doc)
	return err
}
