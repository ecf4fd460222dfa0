// game/sweeper/forfeiture_sweeper.go
package sweeper

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ianherdegen/Beacon-Borderland-sub001/game/store"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/config"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/models"
)

// Assigner decides whether this instance owns a given entity. The sweeper uses
// it to split the candidate set across instances (see shared/cluster); a nil
// Assigner means this instance sweeps every candidate. Assignment is only a
// load-splitting optimization — correctness rests on the gateway's
// compare-and-set, so overlapping ownership is harmless.
type Assigner interface {
	IsResponsible(entityID string) (bool, error)
}

// ForfeitureSweeper periodically moves ACTIVE players who have not completed a
// game within the configured window to FORFEIT. Each candidate is updated with
// a conditional write against the exact (status, activity) pair that made it a
// candidate, so a sweep never clobbers a concurrent session completion and two
// overlapping sweeps cannot double-apply a forfeiture.
type ForfeitureSweeper struct {
	gateway  store.Gateway
	assigner Assigner
	window   time.Duration
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu       sync.Mutex // guards running/cancel
	running  bool
	cancel   context.CancelFunc
	sweeping atomic.Bool    // single-flight latch for one in-process sweep
	inflight sync.WaitGroup // lets Stop wait for an in-flight sweep
}

// NewForfeitureSweeper creates a sweeper from the service config. assigner may
// be nil when the instance should own the full candidate set.
func NewForfeitureSweeper(cfg *config.GameServiceConfig, gateway store.Gateway, assigner Assigner) *ForfeitureSweeper {
	return &ForfeitureSweeper{
		gateway:  gateway,
		assigner: assigner,
		window:   cfg.ForfeitWindow,
		interval: cfg.SweepInterval,
		timeout:  cfg.SweepTimeout,
		now:      time.Now,
	}
}

// SetClock overrides the sweeper's clock. Intended for tests.
func (fs *ForfeitureSweeper) SetClock(now func() time.Time) {
	fs.now = now
}

// Start launches the sweep loop. Starting an already-running sweeper is a
// no-op.
func (fs *ForfeitureSweeper) Start() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	fs.running = true
	fs.cancel = cancel
	log.Printf("Forfeiture sweeper starting with window %v, sweep interval %v.", fs.window, fs.interval)
	go fs.run(ctx)
}

// Stop halts future ticks and waits for an in-flight sweep to finish. The
// sweep itself is never cancelled mid-candidate; each candidate's update is
// independently atomic, so letting it drain is safe. Stopping an
// already-stopped sweeper is a no-op.
func (fs *ForfeitureSweeper) Stop() {
	fs.mu.Lock()
	if !fs.running {
		fs.mu.Unlock()
		return
	}
	fs.running = false
	fs.cancel()
	fs.mu.Unlock()

	fs.inflight.Wait()
	log.Println("Forfeiture sweeper stopped.")
}

// run is the ticker loop. It only schedules sweeps; the sweep itself runs on
// its own goroutine against a background-derived context so a Stop during a
// sweep lets it run to completion.
func (fs *ForfeitureSweeper) run(ctx context.Context) {
	ticker := time.NewTicker(fs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Forfeiture sweeper loop shutting down.")
			return
		case <-ticker.C:
			fs.trySweep()
		}
	}
}

// trySweep starts one sweep unless the previous one is still running, in
// which case the tick is dropped — never queued.
func (fs *ForfeitureSweeper) trySweep() {
	if !fs.sweeping.CompareAndSwap(false, true) {
		log.Println("WARN: Previous forfeiture sweep still in flight, skipping this tick.")
		return
	}
	fs.inflight.Add(1)
	go func() {
		defer fs.inflight.Done()
		defer fs.sweeping.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), fs.timeout)
		defer cancel()
		fs.Sweep(ctx)
	}()
}

// Sweep performs one full forfeiture pass at the current wall-clock time.
// Per-candidate failures are logged and skipped; they never abort the sweep
// for the remaining candidates.
func (fs *ForfeitureSweeper) Sweep(ctx context.Context) {
	cutoff := fs.now().Add(-fs.window)

	candidates, err := fs.gateway.ListActivePlayersOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("ERROR: Forfeiture sweep failed to query overdue players: %v", err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	forfeited := 0
	for _, candidate := range candidates {
		if fs.assigner != nil {
			isResponsible, err := fs.assigner.IsResponsible(candidate.UUID)
			if err != nil {
				log.Printf("WARNING: Sweep failed to check responsibility for player %s: %v", candidate.UUID, err)
				continue
			}
			if !isResponsible {
				continue
			}
		}
		if fs.forfeitCandidate(ctx, candidate.UUID, cutoff) {
			forfeited++
		}
	}

	if forfeited > 0 {
		log.Printf("INFO: Forfeiture sweep moved %d player(s) to FORFEIT (cutoff %v).", forfeited, cutoff)
	}
}

// forfeitCandidate re-reads the candidate's current state and applies the
// conditional update against exactly that state. A lost race (the player
// completed a game, was forfeited by another sweep, or was reinstated) shows
// up as a failed compare-and-set and is a benign skip.
func (fs *ForfeitureSweeper) forfeitCandidate(ctx context.Context, playerUUID string, cutoff time.Time) bool {
	player, err := fs.gateway.GetPlayer(ctx, playerUUID)
	if err != nil {
		log.Printf("ERROR: Sweep failed to re-read candidate %s: %v", playerUUID, err)
		return false
	}
	if player.Status != models.PlayerActive || !player.EffectiveActivity().Before(cutoff) {
		// Already changed since the candidate query.
		return false
	}

	ok, err := fs.gateway.CompareAndSetPlayerStatus(ctx, playerUUID, models.PlayerActive, player.EffectiveActivity(), models.PlayerForfeit)
	if err != nil {
		log.Printf("ERROR: Sweep failed conditional forfeit for player %s: %v", playerUUID, err)
		return false
	}
	if !ok {
		log.Printf("INFO: Sweep skipped player %s, record changed under us.", playerUUID)
		return false
	}
	return true
}
