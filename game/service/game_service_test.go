package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ianherdegen/Beacon-Borderland-sub001/game/service"
	"github.com/ianherdegen/Beacon-Borderland-sub001/game/store"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
)

type testEnv struct {
	Gateway *store.MemoryGateway
	Service *service.GameService
	Ctx     context.Context
	Now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gateway := store.NewMemoryGateway()
	svc := service.NewGameService(gateway)
	env := &testEnv{
		Gateway: gateway,
		Service: svc,
		Ctx:     context.Background(),
		Now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	svc.SetClock(func() time.Time { return env.Now })
	return env
}

func (env *testEnv) registerPlayers(t *testing.T, uuids ...string) {
	t.Helper()
	for _, uuid := range uuids {
		if _, err := env.Service.RegisterPlayer(env.Ctx, uuid, uuid); err != nil {
			t.Fatalf("register player %s: %v", uuid, err)
		}
	}
}

func (env *testEnv) mustPlayer(t *testing.T, uuid string) *models.Player {
	t.Helper()
	player, err := env.Service.GetPlayer(env.Ctx, uuid)
	if err != nil {
		t.Fatalf("get player %s: %v", uuid, err)
	}
	return player
}

func TestStartSessionValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Service.StartSession(env.Ctx, "beacon-1", "tpl-1", models.TemplateGroup, nil)
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("empty participants must fail with ErrInvalidInput, got %v", err)
	}
	_, err = env.Service.StartSession(env.Ctx, "beacon-1", "tpl-1", models.TemplateType("RAFFLE"), []string{"p1"})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("unknown template type must fail with ErrInvalidInput, got %v", err)
	}
	_, err = env.Service.StartSession(env.Ctx, "beacon-1", "tpl-1", models.TemplateSolo, []string{"p1", "p2"})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("multi-participant solo must fail with ErrInvalidInput, got %v", err)
	}

	session, err := env.Service.StartSession(env.Ctx, "beacon-1", "tpl-1", models.TemplateGroup, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if session.Status != models.SessionActive || session.Outcome != nil || session.EndTime != nil {
		t.Fatalf("new session must be ACTIVE with no outcome, got %+v", session)
	}
}

func TestCompleteSessionGroupElimination(t *testing.T) {
	env := newTestEnv(t)
	env.registerPlayers(t, "p1", "p2")

	session, err := env.Service.StartSession(env.Ctx, "beacon-1", "tpl-1", models.TemplateGroup, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	env.Now = env.Now.Add(30 * time.Minute)
	completed, err := env.Service.CompleteSession(env.Ctx, session.ID, &models.Outcome{Result: models.ResultEliminated})
	if err != nil {
		t.Fatalf("complete session: %v", err)
	}
	if completed.Status != models.SessionCompleted || completed.EndTime == nil || !completed.EndTime.Equal(env.Now) {
		t.Fatalf("completed session state wrong: %+v", completed)
	}
	for _, uuid := range []string{"p1", "p2"} {
		player := env.mustPlayer(t, uuid)
		if player.Status != models.PlayerEliminated {
			t.Fatalf("player %s should be ELIMINATED, got %s", uuid, player.Status)
		}
		if player.LastGameAt == nil || !player.LastGameAt.Equal(env.Now) {
			t.Fatalf("player %s LastGameAt should equal EndTime, got %v", uuid, player.LastGameAt)
		}
	}
}

func TestCompleteSessionTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	env.registerPlayers(t, "p1")

	session, err := env.Service.StartSession(env.Ctx, "beacon-1", "tpl-1", models.TemplateSolo, []string{"p1"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	first, err := env.Service.CompleteSession(env.Ctx, session.ID, &models.Outcome{Result: models.ResultWon})
	if err != nil {
		t.Fatalf("first completion: %v", err)
	}

	_, err = env.Service.CompleteSession(env.Ctx, session.ID, &models.Outcome{Result: models.ResultEliminated})
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Fatalf("second completion must fail with ErrInvalidStateTransition, got %v", err)
	}

	after, err := env.Service.GetSession(env.Ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if after.Status != first.Status || after.Outcome == nil || after.Outcome.Result != models.ResultWon {
		t.Fatalf("state after failed second completion must match the first, got %+v", after)
	}
}

func TestCompleteVersusPartitionViolationLeavesSessionActive(t *testing.T) {
	env := newTestEnv(t)
	env.registerPlayers(t, "a", "b", "c")

	session, err := env.Service.StartSession(env.Ctx, "beacon-1", "tpl-1", models.TemplateVersus, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	outcome := &models.Outcome{Winners: []string{"a", "b"}, Eliminated: []string{"b", "c"}}
	_, err = env.Service.CompleteSession(env.Ctx, session.ID, outcome)
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("partition violation must fail with ErrValidation, got %v", err)
	}

	after, err := env.Service.GetSession(env.Ctx, session.ID)
	if err != nil || after.Status != models.SessionActive {
		t.Fatalf("session must remain ACTIVE after validation failure, got %+v err=%v", after, err)
	}
	for _, uuid := range []string{"a", "b", "c"} {
		player := env.mustPlayer(t, uuid)
		if player.Status != models.PlayerActive || player.LastGameAt != nil {
			t.Fatalf("player %s must be untouched after validation failure, got %+v", uuid, player)
		}
	}
}

func TestCompleteVersusTenParticipants(t *testing.T) {
	env := newTestEnv(t)
	winners := []string{"Phoenix", "Vortex", "Cipher"}
	eliminated := []string{"Drift", "Ember", "Frost", "Gale", "Haze", "Ion", "Jinx"}
	participants := append(append([]string{}, winners...), eliminated...)
	env.registerPlayers(t, participants...)

	// A previously forfeited winner must stay FORFEIT after winning.
	forfeited := env.mustPlayer(t, "Cipher")
	forfeited.Status = models.PlayerForfeit
	if err := env.Gateway.PutPlayer(env.Ctx, forfeited); err != nil {
		t.Fatalf("seed forfeited winner: %v", err)
	}

	session, err := env.Service.StartSession(env.Ctx, "beacon-7", "tpl-versus", models.TemplateVersus, participants)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	env.Now = env.Now.Add(time.Hour)
	completed, err := env.Service.CompleteSession(env.Ctx, session.ID, &models.Outcome{Winners: winners, Eliminated: eliminated})
	if err != nil {
		t.Fatalf("complete session: %v", err)
	}

	for _, uuid := range participants {
		player := env.mustPlayer(t, uuid)
		if player.LastGameAt == nil || !player.LastGameAt.Equal(*completed.EndTime) {
			t.Fatalf("participant %s LastGameAt should equal EndTime, got %v", uuid, player.LastGameAt)
		}
	}
	for _, uuid := range eliminated {
		if got := env.mustPlayer(t, uuid).Status; got != models.PlayerEliminated {
			t.Fatalf("eliminated participant %s should be ELIMINATED, got %s", uuid, got)
		}
	}
	if got := env.mustPlayer(t, "Phoenix").Status; got != models.PlayerActive {
		t.Fatalf("winner Phoenix should keep prior ACTIVE status, got %s", got)
	}
	if got := env.mustPlayer(t, "Cipher").Status; got != models.PlayerForfeit {
		t.Fatalf("winner Cipher should keep prior FORFEIT status, got %s", got)
	}
}

func TestCompleteSessionAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	env.registerPlayers(t, "p1")
	// p2 participates but has no profile, so the transaction fails midway.
	session, err := env.Service.StartSession(env.Ctx, "beacon-1", "tpl-1", models.TemplateGroup, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	_, err = env.Service.CompleteSession(env.Ctx, session.ID, &models.Outcome{Result: models.ResultEliminated})
	if err == nil {
		t.Fatal("completion with a missing participant profile must fail")
	}

	after, err := env.Service.GetSession(env.Ctx, session.ID)
	if err != nil || after.Status != models.SessionActive || after.Outcome != nil {
		t.Fatalf("session must be unchanged after failed completion, got %+v err=%v", after, err)
	}
	p1 := env.mustPlayer(t, "p1")
	if p1.Status != models.PlayerActive || p1.LastGameAt != nil {
		t.Fatalf("participant p1 must be unchanged after failed completion, got %+v", p1)
	}
}

func TestCancelSessionNeverTouchesPlayers(t *testing.T) {
	env := newTestEnv(t)
	env.registerPlayers(t, "p1", "p2")

	session, err := env.Service.StartSession(env.Ctx, "beacon-1", "tpl-1", models.TemplateVersus, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	env.Now = env.Now.Add(10 * time.Minute)
	cancelled, err := env.Service.CancelSession(env.Ctx, session.ID)
	if err != nil {
		t.Fatalf("cancel session: %v", err)
	}
	if cancelled.Status != models.SessionCancelled || cancelled.EndTime == nil || cancelled.Outcome != nil {
		t.Fatalf("cancelled session state wrong: %+v", cancelled)
	}
	for _, uuid := range []string{"p1", "p2"} {
		player := env.mustPlayer(t, uuid)
		if player.Status != models.PlayerActive || player.LastGameAt != nil {
			t.Fatalf("cancellation must not touch player %s, got %+v", uuid, player)
		}
	}

	_, err = env.Service.CancelSession(env.Ctx, session.ID)
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Fatalf("cancelling a terminal session must fail, got %v", err)
	}
	_, err = env.Service.CompleteSession(env.Ctx, session.ID, &models.Outcome{Winners: []string{"p1"}, Eliminated: []string{"p2"}})
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Fatalf("completing a cancelled session must fail, got %v", err)
	}
}

func TestReinstatePlayerIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.registerPlayers(t, "p1")

	forfeited := env.mustPlayer(t, "p1")
	forfeited.Status = models.PlayerForfeit
	lastGame := env.Now.Add(-100 * time.Hour)
	forfeited.LastGameAt = &lastGame
	if err := env.Gateway.PutPlayer(env.Ctx, forfeited); err != nil {
		t.Fatalf("seed forfeited player: %v", err)
	}

	player, err := env.Service.ReinstatePlayer(env.Ctx, "p1")
	if err != nil || player.Status != models.PlayerActive {
		t.Fatalf("reinstate should yield ACTIVE, got %+v err=%v", player, err)
	}
	if player.LastGameAt == nil || !player.LastGameAt.Equal(lastGame) {
		t.Fatalf("reinstate must not touch LastGameAt, got %v", player.LastGameAt)
	}

	again, err := env.Service.ReinstatePlayer(env.Ctx, "p1")
	if err != nil || again.Status != models.PlayerActive {
		t.Fatalf("reinstating an ACTIVE player is a no-op returning ACTIVE, got %+v err=%v", again, err)
	}

	_, err = env.Service.ReinstatePlayer(env.Ctx, "ghost")
	if !errors.Is(err, service.ErrPlayerNotFound) {
		t.Fatalf("reinstating an unknown player must fail with ErrPlayerNotFound, got %v", err)
	}
}

func TestRegisterPlayerDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.registerPlayers(t, "p1")

	_, err := env.Service.RegisterPlayer(env.Ctx, "p1", "p1")
	if !errors.Is(err, service.ErrPlayerAlreadyExists) {
		t.Fatalf("duplicate registration must fail with ErrPlayerAlreadyExists, got %v", err)
	}
}

func TestCompleteSessionNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Service.CompleteSession(env.Ctx, "missing", &models.Outcome{Result: models.ResultWon})
	if !errors.Is(err, service.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	_, err = env.Service.CancelSession(env.Ctx, "missing")
	if !errors.Is(err, service.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
