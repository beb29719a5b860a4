package services

import (
	"context"
	"strings"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/repository"
	"github.com/famsphere/famsphere-server/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Broadcaster pushes a freshly stored message to connected websocket clients.
type Broadcaster interface {
	Broadcast(msg *models.ChatMessage)
}

type ChatService struct {
	repo        *repository.ChatRepository
	broadcaster Broadcaster
}

func NewChatService(repo *repository.ChatRepository) *ChatService {
	return &ChatService{repo: repo}
}

// SetBroadcaster attaches the websocket hub. Wired after construction because
// the hub and the service reference each other.
func (s *ChatService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *ChatService) PostMessage(ctx context.Context, actor models.Actor, content string, important bool) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("message content is required")
	}

	msg := &models.ChatMessage{
		Content:     content,
		AuthorName:  actor.Name,
		IsImportant: important,
	}
	stored, err := s.repo.InsertMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(stored)
	}
	return stored, nil
}

// PostSystemMessage appends an app-authored message to the family chat, used
// for goal event announcements.
func (s *ChatService) PostSystemMessage(ctx context.Context, content string, important bool) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		Content:     content,
		AuthorName:  models.SystemAuthorName,
		IsImportant: important,
	}
	stored, err := s.repo.InsertMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(stored)
	}
	return stored, nil
}

func (s *ChatService) GetHistory(ctx context.Context, limit int64) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.GetHistory(ctx, limit)
}

// SetPinned pins or unpins a message. Any family member may pin.
func (s *ChatService) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	return s.repo.SetPinned(ctx, id, pinned)
}

// DeleteMessage removes a message. Only the author or a parent may delete;
// system messages are parent-deletable.
func (s *ChatService) DeleteMessage(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	msg, err := s.repo.GetMessageByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsParent() && msg.AuthorName != actor.Name {
		return apperrors.Permission("you may only delete your own messages")
	}
	return s.repo.DeleteMessage(ctx, id)
}
