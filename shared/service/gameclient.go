// shared/service/gameclient.go
package service

import (
	"context"
	"fmt"

	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/api"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
)

// GameServiceClient is a typed client for the beacon game service. The web
// and admin surfaces (page rendering, search/filter, connection management)
// consume the core through this client rather than talking to storage.
type GameServiceClient struct {
	apiClient *api.Client
}

// NewGameServiceClient creates a new game service client.
// It takes the base URL of the game service as an argument.
func NewGameServiceClient(baseURL string) *GameServiceClient {
	return &GameServiceClient{
		apiClient: api.NewClient(baseURL, api.NewDefaultHTTPClient()),
	}
}

// --- Request DTOs mirroring game/api/handler.go ---

// StartSessionRequest is the request body for starting a session.
type StartSessionRequest struct {
	BeaconID     string              `json:"beaconId"`
	TemplateID   string              `json:"templateId"`
	TemplateType models.TemplateType `json:"templateType"`
	Participants []string            `json:"participants"`
}

// CompleteSessionRequest is the request body for resolving a session outcome.
type CompleteSessionRequest struct {
	Result     models.GameResult `json:"result,omitempty"`
	Winners    []string          `json:"winners,omitempty"`
	Eliminated []string          `json:"eliminated,omitempty"`
}

// RegisterPlayerRequest is the request body for creating a player profile.
type RegisterPlayerRequest struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

// --- Client Methods ---

// StartSession starts a new session at a beacon.
func (c *GameServiceClient) StartSession(ctx context.Context, req StartSessionRequest) (*models.GameSession, error) {
	var session models.GameSession
	if err := c.apiClient.Post(ctx, "/sessions", req, &session); err != nil {
		return nil, fmt.Errorf("failed to start session at beacon %s: %w", req.BeaconID, err)
	}
	return &session, nil
}

// CompleteSession resolves an active session with an outcome.
func (c *GameServiceClient) CompleteSession(ctx context.Context, sessionID string, req CompleteSessionRequest) (*models.GameSession, error) {
	var session models.GameSession
	path := fmt.Sprintf("/sessions/%s/complete", sessionID)
	if err := c.apiClient.Post(ctx, path, req, &session); err != nil {
		return nil, fmt.Errorf("failed to complete session %s: %w", sessionID, err)
	}
	return &session, nil
}

// CancelSession cancels an active session without an outcome.
func (c *GameServiceClient) CancelSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	var session models.GameSession
	path := fmt.Sprintf("/sessions/%s/cancel", sessionID)
	if err := c.apiClient.Post(ctx, path, nil, &session); err != nil {
		return nil, fmt.Errorf("failed to cancel session %s: %w", sessionID, err)
	}
	return &session, nil
}

// GetSession retrieves a session by ID.
func (c *GameServiceClient) GetSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	var session models.GameSession
	path := fmt.Sprintf("/sessions/%s", sessionID)
	if err := c.apiClient.Get(ctx, path, &session); err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return &session, nil
}

// ListSessions retrieves every session for display pages.
func (c *GameServiceClient) ListSessions(ctx context.Context) ([]models.GameSession, error) {
	var sessions []models.GameSession
	if err := c.apiClient.Get(ctx, "/sessions", &sessions); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// RegisterPlayer creates a new player profile.
func (c *GameServiceClient) RegisterPlayer(ctx context.Context, req RegisterPlayerRequest) (*models.Player, error) {
	var player models.Player
	if err := c.apiClient.Post(ctx, "/players", req, &player); err != nil {
		return nil, fmt.Errorf("failed to register player %s: %w", req.UUID, err)
	}
	return &player, nil
}

// GetPlayer retrieves a player profile by UUID.
func (c *GameServiceClient) GetPlayer(ctx context.Context, playerUUID string) (*models.Player, error) {
	var player models.Player
	path := fmt.Sprintf("/players/%s", playerUUID)
	if err := c.apiClient.Get(ctx, path, &player); err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", playerUUID, err)
	}
	return &player, nil
}

// ReinstatePlayer moves an eliminated or forfeited player back to ACTIVE.
func (c *GameServiceClient) ReinstatePlayer(ctx context.Context, playerUUID string) (*models.Player, error) {
	var player models.Player
	path := fmt.Sprintf("/players/%s/reinstate", playerUUID)
	if err := c.apiClient.Post(ctx, path, nil, &player); err != nil {
		return nil, fmt.Errorf("failed to reinstate player %s: %w", playerUUID, err)
	}
	return &player, nil
}
