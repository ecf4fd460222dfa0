package sweeper_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ianherdegen/Beacon-Borderland-sub001/game/store"
	"github.com/ianherdegen/Beacon-Borderland-sub001/game/sweeper"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/config"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
)

func sweepConfig(interval time.Duration) *config.GameServiceConfig {
	return &config.GameServiceConfig{
		ForfeitWindow: 72 * time.Hour,
		SweepInterval: interval,
		SweepTimeout:  time.Minute,
	}
}

func seedPlayer(t *testing.T, gateway *store.MemoryGateway, uuid string, status models.PlayerStatus, lastGameAt *time.Time, joinDate time.Time) {
	t.Helper()
	err := gateway.CreatePlayer(context.Background(), &models.Player{
		UUID:       uuid,
		Username:   uuid,
		Status:     status,
		LastGameAt: lastGameAt,
		JoinDate:   joinDate,
	})
	if err != nil {
		t.Fatalf("seed player %s: %v", uuid, err)
	}
}

func playerStatus(t *testing.T, gateway *store.MemoryGateway, uuid string) models.PlayerStatus {
	t.Helper()
	player, err := gateway.GetPlayer(context.Background(), uuid)
	if err != nil {
		t.Fatalf("get player %s: %v", uuid, err)
	}
	return player.Status
}

func TestSweepForfeitsOverduePlayers(t *testing.T) {
	gateway := store.NewMemoryGateway()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fourDaysAgo := now.Add(-4 * 24 * time.Hour)
	twoDaysAgo := now.Add(-2 * 24 * time.Hour)
	seedPlayer(t, gateway, "overdue", models.PlayerActive, &fourDaysAgo, now.Add(-30*24*time.Hour))
	seedPlayer(t, gateway, "recent", models.PlayerActive, &twoDaysAgo, now.Add(-30*24*time.Hour))
	seedPlayer(t, gateway, "idle-newcomer", models.PlayerActive, nil, fourDaysAgo)
	seedPlayer(t, gateway, "fresh-newcomer", models.PlayerActive, nil, twoDaysAgo)
	seedPlayer(t, gateway, "eliminated", models.PlayerEliminated, &fourDaysAgo, now.Add(-30*24*time.Hour))

	fs := sweeper.NewForfeitureSweeper(sweepConfig(time.Minute), gateway, nil)
	fs.SetClock(func() time.Time { return now })
	fs.Sweep(context.Background())

	if got := playerStatus(t, gateway, "overdue"); got != models.PlayerForfeit {
		t.Fatalf("overdue player should be FORFEIT after a sweep, got %s", got)
	}
	if got := playerStatus(t, gateway, "idle-newcomer"); got != models.PlayerForfeit {
		t.Fatalf("player idle since join should be FORFEIT after a sweep, got %s", got)
	}
	if got := playerStatus(t, gateway, "recent"); got != models.PlayerActive {
		t.Fatalf("recently active player must stay ACTIVE, got %s", got)
	}
	if got := playerStatus(t, gateway, "fresh-newcomer"); got != models.PlayerActive {
		t.Fatalf("fresh newcomer must stay ACTIVE, got %s", got)
	}
	if got := playerStatus(t, gateway, "eliminated"); got != models.PlayerEliminated {
		t.Fatalf("eliminated player must never be forfeited, got %s", got)
	}
}

func TestConcurrentSweepsForfeitOnce(t *testing.T) {
	gateway := store.NewMemoryGateway()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fourDaysAgo := now.Add(-4 * 24 * time.Hour)
	seedPlayer(t, gateway, "overdue", models.PlayerActive, &fourDaysAgo, now.Add(-30*24*time.Hour))

	// Two independent sweeper instances racing over the same storage, the
	// multi-process deployment shape. Neither may error; only one CAS can win.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		fs := sweeper.NewForfeitureSweeper(sweepConfig(time.Minute), gateway, nil)
		fs.SetClock(func() time.Time { return now })
		wg.Add(1)
		go func() {
			defer wg.Done()
			fs.Sweep(context.Background())
		}()
	}
	wg.Wait()

	if got := playerStatus(t, gateway, "overdue"); got != models.PlayerForfeit {
		t.Fatalf("overdue player should be FORFEIT after concurrent sweeps, got %s", got)
	}
}

func TestSweepSkipsUnassignedCandidates(t *testing.T) {
	gateway := store.NewMemoryGateway()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fourDaysAgo := now.Add(-4 * 24 * time.Hour)
	seedPlayer(t, gateway, "mine", models.PlayerActive, &fourDaysAgo, now.Add(-30*24*time.Hour))
	seedPlayer(t, gateway, "theirs", models.PlayerActive, &fourDaysAgo, now.Add(-30*24*time.Hour))

	fs := sweeper.NewForfeitureSweeper(sweepConfig(time.Minute), gateway, assignerFunc(func(entityID string) (bool, error) {
		return entityID == "mine", nil
	}))
	fs.SetClock(func() time.Time { return now })
	fs.Sweep(context.Background())

	if got := playerStatus(t, gateway, "mine"); got != models.PlayerForfeit {
		t.Fatalf("assigned candidate should be FORFEIT, got %s", got)
	}
	if got := playerStatus(t, gateway, "theirs"); got != models.PlayerActive {
		t.Fatalf("unassigned candidate must be left for its owner, got %s", got)
	}
}

type assignerFunc func(entityID string) (bool, error)

func (f assignerFunc) IsResponsible(entityID string) (bool, error) {
	return f(entityID)
}

// gatedGateway blocks the candidate query until released so tests can hold a
// sweep in flight.
type gatedGateway struct {
	*store.MemoryGateway
	entered chan struct{}
	release chan struct{}
	queries atomic.Int32
}

func (gg *gatedGateway) ListActivePlayersOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Player, error) {
	gg.queries.Add(1)
	gg.entered <- struct{}{}
	<-gg.release
	return gg.MemoryGateway.ListActivePlayersOlderThan(ctx, cutoff)
}

func TestOverlappingTickIsDropped(t *testing.T) {
	gateway := &gatedGateway{
		MemoryGateway: store.NewMemoryGateway(),
		entered:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fourDaysAgo := now.Add(-4 * 24 * time.Hour)
	seedPlayer(t, gateway.MemoryGateway, "overdue", models.PlayerActive, &fourDaysAgo, now.Add(-30*24*time.Hour))

	fs := sweeper.NewForfeitureSweeper(sweepConfig(10*time.Millisecond), gateway, nil)
	fs.SetClock(func() time.Time { return now })
	fs.Start()

	// First tick enters the query and parks there. Several more ticks fire
	// while it is parked; the single-flight latch must drop all of them.
	<-gateway.entered
	time.Sleep(50 * time.Millisecond)

	// Stop first so no fresh tick can start a second sweep once the parked
	// one is released; Stop must still wait for the in-flight sweep.
	stopped := make(chan struct{})
	go func() {
		fs.Stop()
		close(stopped)
	}()
	time.Sleep(20 * time.Millisecond)
	close(gateway.release)
	<-stopped

	if got := gateway.queries.Load(); got != 1 {
		t.Fatalf("overlapping ticks must be dropped, saw %d sweep queries", got)
	}
	if got := playerStatus(t, gateway.MemoryGateway, "overdue"); got != models.PlayerForfeit {
		t.Fatalf("in-flight sweep should run to completion across Stop, got %s", got)
	}
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	gateway := store.NewMemoryGateway()
	fs := sweeper.NewForfeitureSweeper(sweepConfig(time.Hour), gateway, nil)

	fs.Stop() // stopping a stopped sweeper is a no-op
	fs.Start()
	fs.Start() // starting a running sweeper is a no-op
	fs.Stop()
	fs.Stop()

	// Restartable after a full stop.
	fs.Start()
	fs.Stop()
}
