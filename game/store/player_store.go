// game/store/player_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PlayerStore represents the MongoDB data store for player profiles.
type PlayerStore struct {
	collection *mongo.Collection
}

// NewPlayerStore creates a new PlayerStore instance.
func NewPlayerStore(collection *mongo.Collection) *PlayerStore {
	return &PlayerStore{
		collection: collection,
	}
}

// CreatePlayer inserts a new player profile document into the collection.
func (ps *PlayerStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	_, err := ps.collection.InsertOne(ctx, player)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrPlayerAlreadyExist
		}
		return fmt.Errorf("failed to create player profile %s: %w", player.UUID, err)
	}
	return nil
}

// GetPlayer retrieves a player profile by UUID.
func (ps *PlayerStore) GetPlayer(ctx context.Context, uuid string) (*models.Player, error) {
	var profile models.Player
	filter := bson.M{"_id": uuid}
	err := ps.collection.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player profile %s: %w", uuid, err)
	}
	return &profile, nil
}

// PutPlayer replaces the stored document for a player profile.
func (ps *PlayerStore) PutPlayer(ctx context.Context, player *models.Player) error {
	filter := bson.M{"_id": player.UUID}
	res, err := ps.collection.ReplaceOne(ctx, filter, player)
	if err != nil {
		return fmt.Errorf("failed to put player profile %s: %w", player.UUID, err)
	}
	if res.MatchedCount == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// ListActivePlayersOlderThan returns ACTIVE players whose effective activity
// (last_game_at when present, else join_date) is strictly before cutoff.
func (ps *PlayerStore) ListActivePlayersOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Player, error) {
	filter := bson.M{
		"status": models.PlayerActive,
		"$or": bson.A{
			bson.M{"last_game_at": bson.M{"$lt": cutoff}},
			bson.M{"last_game_at": nil, "join_date": bson.M{"$lt": cutoff}},
		},
	}
	cursor, err := ps.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue active players: %w", err)
	}
	defer cursor.Close(ctx)

	var players []*models.Player
	if err := cursor.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("failed to decode overdue active players: %w", err)
	}
	return players, nil
}

// CompareAndSetPlayerStatus performs the conditional status update backing the
// forfeiture sweep. The filter re-asserts the expected status and effective
// activity, so only one writer can win per observed state; a lost race shows
// up as ModifiedCount == 0, not as an error.
func (ps *PlayerStore) CompareAndSetPlayerStatus(ctx context.Context, uuid string, expectedStatus models.PlayerStatus, expectedActivity time.Time, newStatus models.PlayerStatus) (bool, error) {
	filter := bson.M{
		"_id":    uuid,
		"status": expectedStatus,
		"$or": bson.A{
			bson.M{"last_game_at": expectedActivity},
			bson.M{"last_game_at": nil, "join_date": expectedActivity},
		},
	}
	update := bson.M{"$set": bson.M{"status": newStatus}}
	res, err := ps.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed conditional status update for player %s: %w", uuid, err)
	}
	return res.ModifiedCount == 1, nil
}
