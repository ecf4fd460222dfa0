// game/service/game_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ianherdegen/Beacon-Borderland-sub001/game/store"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
)

// Custom Errors for clear communication to the API layer
var (
	ErrSessionNotFound        = fmt.Errorf("game session not found")
	ErrPlayerNotFound         = fmt.Errorf("player profile not found")
	ErrPlayerAlreadyExists    = fmt.Errorf("player profile already exists")
	ErrInvalidInput           = fmt.Errorf("invalid input")
	ErrInvalidStateTransition = fmt.Errorf("invalid state transition")
	ErrValidation             = fmt.Errorf("outcome validation failed")
)

// GameService encapsulates the business logic for beacon game sessions and
// the player lifecycle. Every status change funnels through the operations
// here (CompleteSession, ReinstatePlayer, and the forfeiture sweep's CAS), so
// the lifecycle invariants stay in one place.
type GameService struct {
	gateway store.Gateway
	// now is swappable so tests can pin the clock.
	now func() time.Time
}

// NewGameService is the constructor for GameService.
func NewGameService(gateway store.Gateway) *GameService {
	return &GameService{
		gateway: gateway,
		now:     time.Now,
	}
}

// SetClock overrides the service's clock. Intended for tests.
func (gs *GameService) SetClock(now func() time.Time) {
	gs.now = now
}

// StartSession creates a new ACTIVE session for a beacon/template pair with a
// fixed participant list. The participant list must be non-empty and the
// template type must be one of SOLO, VERSUS, GROUP.
func (gs *GameService) StartSession(ctx context.Context, beaconID, templateID string, templateType models.TemplateType, participants []string) (*models.GameSession, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: session requires at least one participant", ErrInvalidInput)
	}
	switch templateType {
	case models.TemplateSolo, models.TemplateVersus, models.TemplateGroup:
	default:
		return nil, fmt.Errorf("%w: unknown template type %q", ErrInvalidInput, templateType)
	}
	if templateType == models.TemplateSolo && len(participants) != 1 {
		return nil, fmt.Errorf("%w: SOLO session requires exactly one participant, got %d", ErrInvalidInput, len(participants))
	}

	session := &models.GameSession{
		ID:           uuid.New().String(),
		BeaconID:     beaconID,
		TemplateID:   templateID,
		TemplateType: templateType,
		Status:       models.SessionActive,
		Participants: participants,
		StartTime:    gs.now(),
	}

	if err := gs.gateway.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("service failed to create game session: %w", err)
	}
	log.Printf("INFO: Session %s started at beacon %s (template %s, %d participants).",
		session.ID, beaconID, templateID, len(participants))
	return session, nil
}

// CompleteSession resolves an ACTIVE session with the given outcome. Inside a
// single gateway transaction it marks the session COMPLETED, stamps EndTime,
// records the outcome, sets every participant's LastGameAt to EndTime, and
// moves losing participants to ELIMINATED. Winners keep whatever status they
// had before; a FORFEIT winner is not reinstated by winning. A failure midway
// leaves neither the session nor any participant changed.
func (gs *GameService) CompleteSession(ctx context.Context, sessionID string, outcome *models.Outcome) (*models.GameSession, error) {
	session, err := gs.gateway.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("service failed to load session %s: %w", sessionID, err)
	}
	if session.Status != models.SessionActive {
		return nil, fmt.Errorf("%w: session %s is %s, only ACTIVE sessions can be completed", ErrInvalidStateTransition, sessionID, session.Status)
	}
	if outcome == nil {
		return nil, fmt.Errorf("%w: outcome is required", ErrValidation)
	}
	if err := outcome.Validate(session.TemplateType, session.Participants); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	endTime := gs.now()

	err = gs.gateway.RunTransaction(ctx, func(txCtx context.Context) error {
		// Re-read inside the transaction so a concurrent completion or
		// cancellation aborts instead of double-applying.
		current, err := gs.gateway.GetSession(txCtx, sessionID)
		if err != nil {
			return err
		}
		if current.Status != models.SessionActive {
			return fmt.Errorf("%w: session %s is %s", ErrInvalidStateTransition, sessionID, current.Status)
		}

		current.Status = models.SessionCompleted
		current.EndTime = &endTime
		current.Outcome = outcome
		if err := gs.gateway.PutSession(txCtx, current); err != nil {
			return err
		}

		for _, playerUUID := range current.Participants {
			player, err := gs.gateway.GetPlayer(txCtx, playerUUID)
			if err != nil {
				return fmt.Errorf("participant %s: %w", playerUUID, err)
			}
			player.LastGameAt = &endTime
			if outcome.IsLoss(current.TemplateType, playerUUID) {
				player.Status = models.PlayerEliminated
			}
			if err := gs.gateway.PutPlayer(txCtx, player); err != nil {
				return fmt.Errorf("participant %s: %w", playerUUID, err)
			}
		}
		session = current
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidStateTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("service failed to complete session %s: %w", sessionID, err)
	}

	log.Printf("INFO: Session %s completed at %v.", sessionID, endTime)
	return session, nil
}

// CancelSession terminates an ACTIVE session without resolving an outcome.
// The session moves to CANCELLED with an EndTime; no participant's status or
// LastGameAt is touched.
func (gs *GameService) CancelSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	session, err := gs.gateway.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("service failed to load session %s: %w", sessionID, err)
	}
	if session.Status != models.SessionActive {
		return nil, fmt.Errorf("%w: session %s is %s, only ACTIVE sessions can be cancelled", ErrInvalidStateTransition, sessionID, session.Status)
	}

	endTime := gs.now()
	session.Status = models.SessionCancelled
	session.EndTime = &endTime
	if err := gs.gateway.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("service failed to cancel session %s: %w", sessionID, err)
	}

	log.Printf("INFO: Session %s cancelled at %v.", sessionID, endTime)
	return session, nil
}

// RegisterPlayer creates a new player profile with status ACTIVE. Identity
// issuance itself lives with the external auth provider; this only records
// the profile the lifecycle operations act on.
func (gs *GameService) RegisterPlayer(ctx context.Context, playerUUID, username string) (*models.Player, error) {
	if playerUUID == "" {
		return nil, fmt.Errorf("%w: player UUID is required", ErrInvalidInput)
	}

	player := &models.Player{
		UUID:     playerUUID,
		Username: username,
		Status:   models.PlayerActive,
		JoinDate: gs.now(),
	}
	if err := gs.gateway.CreatePlayer(ctx, player); err != nil {
		if errors.Is(err, store.ErrPlayerAlreadyExist) {
			return nil, ErrPlayerAlreadyExists
		}
		return nil, fmt.Errorf("service failed to create player profile: %w", err)
	}
	log.Printf("INFO: Player %s registered.", playerUUID)
	return player, nil
}

// ReinstatePlayer moves an ELIMINATED or FORFEIT player back to ACTIVE. It is
// idempotent: reinstating an already ACTIVE player is a no-op that returns the
// current profile. LastGameAt is never touched here.
func (gs *GameService) ReinstatePlayer(ctx context.Context, playerUUID string) (*models.Player, error) {
	player, err := gs.gateway.GetPlayer(ctx, playerUUID)
	if err != nil {
		if errors.Is(err, store.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("service failed to load player %s: %w", playerUUID, err)
	}
	if player.Status == models.PlayerActive {
		return player, nil
	}

	player.Status = models.PlayerActive
	if err := gs.gateway.PutPlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("service failed to reinstate player %s: %w", playerUUID, err)
	}
	log.Printf("INFO: Player %s reinstated to ACTIVE.", playerUUID)
	return player, nil
}

// GetSession retrieves a session by ID.
func (gs *GameService) GetSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	session, err := gs.gateway.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("service failed to get session %s: %w", sessionID, err)
	}
	return session, nil
}

// ListSessions returns every stored session.
func (gs *GameService) ListSessions(ctx context.Context) ([]*models.GameSession, error) {
	sessions, err := gs.gateway.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list sessions: %w", err)
	}
	return sessions, nil
}

// GetPlayer retrieves a player profile by UUID.
func (gs *GameService) GetPlayer(ctx context.Context, playerUUID string) (*models.Player, error) {
	player, err := gs.gateway.GetPlayer(ctx, playerUUID)
	if err != nil {
		if errors.Is(err, store.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("service failed to get player %s: %w", playerUUID, err)
	}
	return player, nil
}
