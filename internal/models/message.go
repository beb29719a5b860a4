package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemAuthorName is the author attached to messages generated by the app
// itself (goal events, reminders).
const SystemAuthorName = "FamSphere"

// ChatMessage is one entry in the family-wide chat feed.
type ChatMessage struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content     string             `bson:"content" json:"content"`
	AuthorName  string             `bson:"author_name" json:"author_name"`
	IsImportant bool               `bson:"is_important" json:"is_important"`
	IsPinned    bool               `bson:"is_pinned" json:"is_pinned"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

func (m *ChatMessage) IsSystemMessage() bool {
	return m.AuthorName == SystemAuthorName
}
