// game/store/mongo_gateway.go
package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoGateway combines the session and player stores into one Gateway backed
// by MongoDB, and adds multi-document transactions on top of them.
type MongoGateway struct {
	*SessionStore
	*PlayerStore
	client *mongo.Client
}

// NewMongoGateway creates a Gateway over the given collections. The raw client
// is needed for transaction sessions; transactions require a replica set or
// mongos deployment.
func NewMongoGateway(client *mongo.Client, sessions, players *mongo.Collection) *MongoGateway {
	return &MongoGateway{
		SessionStore: NewSessionStore(sessions),
		PlayerStore:  NewPlayerStore(players),
		client:       client,
	}
}

// RunTransaction executes fn inside a MongoDB transaction. Store calls made
// with the callback's context run against the same transaction session, so
// either every write in fn commits or none do.
func (mg *MongoGateway) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := mg.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start MongoDB session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
