package repository

import (
	"context"
	"time"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{collection: db.Collection("calendar_events")}
}

// InsertEvents stores one or more occurrences (a recurring event expands into
// several documents sharing a recurrence group id).
func (r *EventRepository) InsertEvents(ctx context.Context, events []models.CalendarEvent) ([]models.CalendarEvent, error) {
	docs := make([]interface{}, len(events))
	now := time.Now()
	for i := range events {
		events[i].CreatedAt = now
		docs[i] = events[i]
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert calendar events")
		return nil, err
	}
	for i, id := range result.InsertedIDs {
		events[i].ID = id.(primitive.ObjectID)
	}

	logger.Log.WithField("count", len(events)).Info("Calendar events created")
	return events, nil
}

func (r *EventRepository) GetEventByID(ctx context.Context, id primitive.ObjectID) (*models.CalendarEvent, error) {
	var event models.CalendarEvent
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEventsInRange returns events with event_date in [from, to), sorted.
func (r *EventRepository) GetEventsInRange(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	filter := bson.M{"event_date": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().SetSort(bson.D{{Key: "event_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch calendar events")
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.CalendarEvent
	for cursor.Next(ctx) {
		var event models.CalendarEvent
		if err := cursor.Decode(&event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, id primitive.ObjectID, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": event})
	if err != nil {
		logger.Log.WithError(err).WithField("event_id", id.Hex()).Error("Failed to update calendar event")
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteRecurrenceGroup removes every occurrence sharing the group id.
func (r *EventRepository) DeleteRecurrenceGroup(ctx context.Context, groupID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"recurrence_group_id": groupID})
	if err != nil {
		logger.Log.WithError(err).WithField("group_id", groupID).Error("Failed to delete recurrence group")
		return 0, err
	}
	return result.DeletedCount, nil
}
