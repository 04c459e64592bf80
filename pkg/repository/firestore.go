package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/arunse/coursechat/pkg/model"
)

const conversationCollection = "conversations"

// Firestore stores conversations in a Firestore collection keyed by
// conversation ID.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

func (x *Firestore) Close() error {
	return x.client.Close()
}

func (x *Firestore) PutConversation(ctx context.Context, conv *model.Conversation) error {
	doc := x.client.Collection(conversationCollection).Doc(conv.ID.String())
	if _, err := doc.Set(ctx, conv); err != nil {
		return goerr.Wrap(err, "failed to put conversation", goerr.V("id", conv.ID))
	}
	return nil
}

func (x *Firestore) GetConversation(ctx context.Context, id model.ConversationID) (*model.Conversation, error) {
	snapshot, err := x.client.Collection(conversationCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V("id", id))
	}

	var conv model.Conversation
	if err := snapshot.DataTo(&conv); err != nil {
		return nil, goerr.Wrap(err, "failed to decode conversation", goerr.V("id", id))
	}

	return &conv, nil
}

func (x *Firestore) ListConversations(ctx context.Context, limit int) ([]*model.Conversation, error) {
	query := x.client.Collection(conversationCollection).
		OrderBy("updated_at", firestore.Desc).
		Limit(limit)

	var convs []*model.Conversation
	iter := query.Documents(ctx)
	defer iter.Stop()
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate conversations")
		}

		var conv model.Conversation
		if err := snapshot.DataTo(&conv); err != nil {
			return nil, goerr.Wrap(err, "failed to decode conversation", goerr.V("doc", snapshot.Ref.ID))
		}
		convs = append(convs, &conv)
	}

	return convs, nil
}
