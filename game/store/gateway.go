// game/store/gateway.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
)

// Sentinel errors shared by every Gateway implementation. Services check these
// with errors.Is and map them to their own error taxonomy.
var (
	ErrSessionNotFound     = fmt.Errorf("game session not found")
	ErrPlayerNotFound      = fmt.Errorf("player profile not found")
	ErrSessionAlreadyExist = fmt.Errorf("game session already exists")
	ErrPlayerAlreadyExist  = fmt.Errorf("player profile already exists")
)

// Gateway is the durable-storage contract for sessions and player profiles.
// The game service is written entirely against this interface so the same
// logic runs against MongoDB in production and the in-memory store in tests
// and local development.
//
// Two primitives carry the concurrency guarantees:
//
//   - RunTransaction batches multiple reads/writes into one atomic unit; the
//     session-completion path uses it so the session and every participant
//     commit together or not at all.
//   - CompareAndSetPlayerStatus is a conditional single-document update; the
//     forfeiture sweep relies on it instead of any distributed lock, so
//     concurrent sweeps against the same player are harmless.
type Gateway interface {
	CreateSession(ctx context.Context, session *models.GameSession) error
	GetSession(ctx context.Context, id string) (*models.GameSession, error)
	PutSession(ctx context.Context, session *models.GameSession) error
	ListSessions(ctx context.Context) ([]*models.GameSession, error)

	CreatePlayer(ctx context.Context, player *models.Player) error
	GetPlayer(ctx context.Context, uuid string) (*models.Player, error)
	PutPlayer(ctx context.Context, player *models.Player) error

	// ListActivePlayersOlderThan returns every player whose status is ACTIVE
	// and whose effective activity (last completed game, else join date) is
	// strictly before cutoff.
	ListActivePlayersOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Player, error)

	// CompareAndSetPlayerStatus sets the player's status to newStatus only if
	// the stored status and effective activity still equal the expected
	// values. It returns false (and no error) when the record changed under
	// us; the caller treats that as a benign skip.
	CompareAndSetPlayerStatus(ctx context.Context, uuid string, expectedStatus models.PlayerStatus, expectedActivity time.Time, newStatus models.PlayerStatus) (bool, error)

	// RunTransaction executes fn atomically. Gateway calls made with the ctx
	// passed to fn participate in the transaction. If fn returns an error the
	// transaction is aborted and no write is observable.
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
