// game/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ianherdegen/Beacon-Borderland-sub001/game/service"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/api"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
)

// GameAPIHandlers holds references to the services that handle business logic.
type GameAPIHandlers struct {
	GameService *service.GameService
}

// NewGameAPIHandlers is the constructor for the API handlers.
func NewGameAPIHandlers(gs *service.GameService) *GameAPIHandlers {
	return &GameAPIHandlers{
		GameService: gs,
	}
}

// --- Request/Response DTOs (Data Transfer Objects) ---

type StartSessionRequest struct {
	BeaconID     string              `json:"beaconId"`
	TemplateID   string              `json:"templateId"`
	TemplateType models.TemplateType `json:"templateType"`
	Participants []string            `json:"participants"`
}

type CompleteSessionRequest struct {
	Result     models.GameResult `json:"result,omitempty"`
	Winners    []string          `json:"winners,omitempty"`
	Eliminated []string          `json:"eliminated,omitempty"`
}

type RegisterPlayerRequest struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

// --- Handler Methods ---

// StartSessionHandler handles requests to start a new beacon game session.
// POST /sessions
func (gah *GameAPIHandlers) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.BeaconID == "" || req.TemplateID == "" {
		api.WriteBadRequest(w, "beaconId and templateId are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := gah.GameService.StartSession(ctx, req.BeaconID, req.TemplateID, req.TemplateType, req.Participants)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			api.WriteBadRequest(w, err.Error())
		default:
			log.Printf("Error starting session at beacon %s: %v", req.BeaconID, err)
			api.WriteInternalServerError(w, "Failed to start session")
		}
		return
	}

	api.WriteJSON(w, http.StatusCreated, session)
	log.Printf("Session %s started successfully.", session.ID)
}

// CompleteSessionHandler handles requests to resolve an active session.
// POST /sessions/{id}/complete
func (gah *GameAPIHandlers) CompleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]
	if sessionID == "" {
		api.WriteBadRequest(w, "Session ID is required")
		return
	}

	var req CompleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	outcome := &models.Outcome{
		Result:     req.Result,
		Winners:    req.Winners,
		Eliminated: req.Eliminated,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	session, err := gah.GameService.CompleteSession(ctx, sessionID, outcome)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			api.WriteNotFound(w, fmt.Sprintf("Session %s not found", sessionID))
		case errors.Is(err, service.ErrInvalidStateTransition):
			api.WriteConflict(w, err.Error())
		case errors.Is(err, service.ErrValidation):
			api.WriteUnprocessableEntity(w, err.Error())
		default:
			log.Printf("Error completing session %s: %v", sessionID, err)
			api.WriteInternalServerError(w, "Failed to complete session")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, session)
	log.Printf("Session %s completed successfully.", sessionID)
}

// CancelSessionHandler handles requests to cancel an active session.
// POST /sessions/{id}/cancel
func (gah *GameAPIHandlers) CancelSessionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]
	if sessionID == "" {
		api.WriteBadRequest(w, "Session ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := gah.GameService.CancelSession(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			api.WriteNotFound(w, fmt.Sprintf("Session %s not found", sessionID))
		case errors.Is(err, service.ErrInvalidStateTransition):
			api.WriteConflict(w, err.Error())
		default:
			log.Printf("Error cancelling session %s: %v", sessionID, err)
			api.WriteInternalServerError(w, "Failed to cancel session")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, session)
	log.Printf("Session %s cancelled successfully.", sessionID)
}

// GetSessionHandler handles requests to retrieve a session by ID.
// GET /sessions/{id}
func (gah *GameAPIHandlers) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]
	if sessionID == "" {
		api.WriteBadRequest(w, "Session ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := gah.GameService.GetSession(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			api.WriteNotFound(w, fmt.Sprintf("Session %s not found", sessionID))
		default:
			log.Printf("Error getting session %s: %v", sessionID, err)
			api.WriteInternalServerError(w, "Failed to retrieve session")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, session)
}

// ListSessionsHandler handles requests to list every session.
// GET /sessions
func (gah *GameAPIHandlers) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sessions, err := gah.GameService.ListSessions(ctx)
	if err != nil {
		log.Printf("Error listing sessions: %v", err)
		api.WriteInternalServerError(w, "Failed to list sessions")
		return
	}

	api.WriteJSON(w, http.StatusOK, sessions)
}

// RegisterPlayerHandler handles requests to create a new player profile.
// POST /players
func (gah *GameAPIHandlers) RegisterPlayerHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.UUID == "" {
		api.WriteBadRequest(w, "Player UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	player, err := gah.GameService.RegisterPlayer(ctx, req.UUID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlayerAlreadyExists):
			api.WriteConflict(w, fmt.Sprintf("Player profile %s already exists", req.UUID))
		case errors.Is(err, service.ErrInvalidInput):
			api.WriteBadRequest(w, err.Error())
		default:
			log.Printf("Error registering player %s: %v", req.UUID, err)
			api.WriteInternalServerError(w, "Failed to register player")
		}
		return
	}

	api.WriteJSON(w, http.StatusCreated, player)
	log.Printf("Player profile %s registered successfully.", player.UUID)
}

// GetPlayerHandler handles requests to retrieve a player profile by UUID.
// GET /players/{uuid}
func (gah *GameAPIHandlers) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	uuid := vars["uuid"]
	if uuid == "" {
		api.WriteBadRequest(w, "Player UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	player, err := gah.GameService.GetPlayer(ctx, uuid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlayerNotFound):
			api.WriteNotFound(w, fmt.Sprintf("Player profile %s not found", uuid))
		default:
			log.Printf("Error getting player %s: %v", uuid, err)
			api.WriteInternalServerError(w, "Failed to retrieve player profile")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, player)
}

// ReinstatePlayerHandler handles admin requests to move a player back to ACTIVE.
// POST /players/{uuid}/reinstate
func (gah *GameAPIHandlers) ReinstatePlayerHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	uuid := vars["uuid"]
	if uuid == "" {
		api.WriteBadRequest(w, "Player UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	player, err := gah.GameService.ReinstatePlayer(ctx, uuid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlayerNotFound):
			api.WriteNotFound(w, fmt.Sprintf("Player profile %s not found", uuid))
		default:
			log.Printf("Error reinstating player %s: %v", uuid, err)
			api.WriteInternalServerError(w, "Failed to reinstate player")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, player)
	log.Printf("Player %s reinstated successfully.", uuid)
}

// RegisterRoutes registers all game service routes on the given router.
func (gah *GameAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sessions", gah.StartSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/sessions", gah.ListSessionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/sessions/{id}", gah.GetSessionHandler).Methods(http.MethodGet)
	router.HandleFunc("/sessions/{id}/complete", gah.CompleteSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/cancel", gah.CancelSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/players", gah.RegisterPlayerHandler).Methods(http.MethodPost)
	router.HandleFunc("/players/{uuid}", gah.GetPlayerHandler).Methods(http.MethodGet)
	router.HandleFunc("/players/{uuid}/reinstate", gah.ReinstatePlayerHandler).Methods(http.MethodPost)
}
