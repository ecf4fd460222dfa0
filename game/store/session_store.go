// game/store/session_store.go
package store

import (
	"context"
	"fmt"

	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionStore represents the MongoDB data store for game sessions.
type SessionStore struct {
	collection *mongo.Collection
}

// NewSessionStore creates a new SessionStore instance.
func NewSessionStore(collection *mongo.Collection) *SessionStore {
	return &SessionStore{
		collection: collection,
	}
}

// CreateSession inserts a new game session document into the collection.
func (ss *SessionStore) CreateSession(ctx context.Context, session *models.GameSession) error {
	_, err := ss.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSessionAlreadyExist
		}
		return fmt.Errorf("failed to create game session %s: %w", session.ID, err)
	}
	return nil
}

// GetSession retrieves a game session by its ID.
func (ss *SessionStore) GetSession(ctx context.Context, id string) (*models.GameSession, error) {
	var session models.GameSession
	filter := bson.M{"_id": id}
	err := ss.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get game session %s: %w", id, err)
	}
	return &session, nil
}

// PutSession replaces the stored document for a session.
func (ss *SessionStore) PutSession(ctx context.Context, session *models.GameSession) error {
	filter := bson.M{"_id": session.ID}
	res, err := ss.collection.ReplaceOne(ctx, filter, session)
	if err != nil {
		return fmt.Errorf("failed to put game session %s: %w", session.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListSessions returns every stored session, newest first.
func (ss *SessionStore) ListSessions(ctx context.Context) ([]*models.GameSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}})
	cursor, err := ss.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list game sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*models.GameSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode game sessions: %w", err)
	}
	return sessions, nil
}
