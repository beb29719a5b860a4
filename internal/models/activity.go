package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is one entry in the family's activity feed, derived from goal
// events.
type Activity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorName string             `bson:"actor_name" json:"actor_name"`
	Type      string             `bson:"type" json:"type"` // GoalEventKind value
	TargetID  primitive.ObjectID `bson:"target_id" json:"target_id"`
	Message   string             `bson:"message" json:"message"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
