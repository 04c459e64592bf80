package repository

import (
	"context"

	"github.com/arunse/coursechat/pkg/model"
)

// Repository persists conversation threads.
type Repository interface {
	PutConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, id model.ConversationID) (*model.Conversation, error)
	ListConversations(ctx context.Context, limit int) ([]*model.Conversation, error)
}
