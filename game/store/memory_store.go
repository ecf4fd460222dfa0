// game/store/memory_store.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
)

// txMarker marks a context as belonging to an in-flight MemoryGateway
// transaction so nested store calls reuse the already-held lock.
type txMarker struct{}

// MemoryGateway is an in-process Gateway implementation backed by maps. It is
// used by the test suite and for local development without a MongoDB replica
// set. Transactions take the store lock for their whole duration and roll back
// to a snapshot on error, which gives the same all-or-nothing visibility as
// the MongoDB implementation.
type MemoryGateway struct {
	mu       sync.Mutex
	sessions map[string]*models.GameSession
	players  map[string]*models.Player
}

// NewMemoryGateway creates an empty in-memory Gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		sessions: make(map[string]*models.GameSession),
		players:  make(map[string]*models.Player),
	}
}

// lock acquires the store lock unless ctx is already inside a transaction.
// It returns the matching unlock function.
func (mg *MemoryGateway) lock(ctx context.Context) func() {
	if ctx.Value(txMarker{}) != nil {
		return func() {}
	}
	mg.mu.Lock()
	return mg.mu.Unlock
}

// CreateSession inserts a new game session.
func (mg *MemoryGateway) CreateSession(ctx context.Context, session *models.GameSession) error {
	defer mg.lock(ctx)()
	if _, ok := mg.sessions[session.ID]; ok {
		return ErrSessionAlreadyExist
	}
	mg.sessions[session.ID] = copySession(session)
	return nil
}

// GetSession retrieves a game session by ID.
func (mg *MemoryGateway) GetSession(ctx context.Context, id string) (*models.GameSession, error) {
	defer mg.lock(ctx)()
	session, ok := mg.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copySession(session), nil
}

// PutSession replaces the stored session.
func (mg *MemoryGateway) PutSession(ctx context.Context, session *models.GameSession) error {
	defer mg.lock(ctx)()
	if _, ok := mg.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	mg.sessions[session.ID] = copySession(session)
	return nil
}

// ListSessions returns every stored session.
func (mg *MemoryGateway) ListSessions(ctx context.Context) ([]*models.GameSession, error) {
	defer mg.lock(ctx)()
	sessions := make([]*models.GameSession, 0, len(mg.sessions))
	for _, session := range mg.sessions {
		sessions = append(sessions, copySession(session))
	}
	return sessions, nil
}

// CreatePlayer inserts a new player profile.
func (mg *MemoryGateway) CreatePlayer(ctx context.Context, player *models.Player) error {
	defer mg.lock(ctx)()
	if _, ok := mg.players[player.UUID]; ok {
		return ErrPlayerAlreadyExist
	}
	mg.players[player.UUID] = copyPlayer(player)
	return nil
}

// GetPlayer retrieves a player profile by UUID.
func (mg *MemoryGateway) GetPlayer(ctx context.Context, uuid string) (*models.Player, error) {
	defer mg.lock(ctx)()
	player, ok := mg.players[uuid]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return copyPlayer(player), nil
}

// PutPlayer replaces the stored player profile.
func (mg *MemoryGateway) PutPlayer(ctx context.Context, player *models.Player) error {
	defer mg.lock(ctx)()
	if _, ok := mg.players[player.UUID]; !ok {
		return ErrPlayerNotFound
	}
	mg.players[player.UUID] = copyPlayer(player)
	return nil
}

// ListActivePlayersOlderThan returns ACTIVE players whose effective activity
// is strictly before cutoff.
func (mg *MemoryGateway) ListActivePlayersOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Player, error) {
	defer mg.lock(ctx)()
	var players []*models.Player
	for _, player := range mg.players {
		if player.Status == models.PlayerActive && player.EffectiveActivity().Before(cutoff) {
			players = append(players, copyPlayer(player))
		}
	}
	return players, nil
}

// CompareAndSetPlayerStatus applies the status update only if the stored
// status and effective activity still match the expected values.
func (mg *MemoryGateway) CompareAndSetPlayerStatus(ctx context.Context, uuid string, expectedStatus models.PlayerStatus, expectedActivity time.Time, newStatus models.PlayerStatus) (bool, error) {
	defer mg.lock(ctx)()
	player, ok := mg.players[uuid]
	if !ok {
		return false, nil
	}
	if player.Status != expectedStatus || !player.EffectiveActivity().Equal(expectedActivity) {
		return false, nil
	}
	player.Status = newStatus
	return true, nil
}

// RunTransaction runs fn while holding the store lock and restores the
// pre-transaction snapshot if fn fails.
func (mg *MemoryGateway) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	sessionsSnapshot := make(map[string]*models.GameSession, len(mg.sessions))
	for id, session := range mg.sessions {
		sessionsSnapshot[id] = copySession(session)
	}
	playersSnapshot := make(map[string]*models.Player, len(mg.players))
	for uuid, player := range mg.players {
		playersSnapshot[uuid] = copyPlayer(player)
	}

	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		mg.sessions = sessionsSnapshot
		mg.players = playersSnapshot
		return err
	}
	return nil
}

func copySession(session *models.GameSession) *models.GameSession {
	clone := *session
	clone.Participants = append([]string(nil), session.Participants...)
	if session.EndTime != nil {
		endTime := *session.EndTime
		clone.EndTime = &endTime
	}
	if session.Outcome != nil {
		outcome := *session.Outcome
		outcome.Winners = append([]string(nil), session.Outcome.Winners...)
		outcome.Eliminated = append([]string(nil), session.Outcome.Eliminated...)
		clone.Outcome = &outcome
	}
	return &clone
}

func copyPlayer(player *models.Player) *models.Player {
	clone := *player
	if player.LastGameAt != nil {
		lastGameAt := *player.LastGameAt
		clone.LastGameAt = &lastGameAt
	}
	return &clone
}
