package round

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"aviator_backend/internal/config"
	"aviator_backend/internal/fairness"
)

// Settler is what the runner needs from the bet ledger each tick.
type Settler interface {
	SettleAutoCashouts(ctx context.Context, roundID uint, multiplier float64) error
	MarkActiveLost(ctx context.Context, roundID uint) error
}

// Scheduler owns the round lifecycle: open a round, wait out the betting
// window, run the multiplier to the crash point, settle, close, repeat.
// Exactly one round loop runs at a time; a round must reach closed before the
// next one opens.
type Scheduler struct {
	repo Repository
	bets Settler
	gen  fairness.Generator
	cfg  config.Game

	mu         sync.RWMutex
	liveRound  uint
	liveMult   float64
	liveActive bool
}

func NewScheduler(repo Repository, bets Settler, gen fairness.Generator, cfg config.Game) *Scheduler {
	return &Scheduler{repo: repo, bets: bets, gen: gen, cfg: cfg}
}

// CurrentMultiplier reports the in-flight multiplier for manual cashout.
// ok is false between rounds and during the betting window.
func (s *Scheduler) CurrentMultiplier() (roundID uint, multiplier float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveRound, s.liveMult, s.liveActive
}

func (s *Scheduler) setLive(roundID uint, multiplier float64) {
	s.mu.Lock()
	s.liveRound, s.liveMult, s.liveActive = roundID, multiplier, true
	s.mu.Unlock()
}

func (s *Scheduler) clearLive() {
	s.mu.Lock()
	s.liveActive = false
	s.mu.Unlock()
}

// Recover terminates any round a previous process left open or running:
// force-crash it and mark its active bets lost. Called once before the loop
// starts. The in-flight multiplier position is not persisted, so resuming is
// not an option.
func (s *Scheduler) Recover(ctx context.Context) error {
	rounds, err := s.repo.ActiveRounds(ctx)
	if err != nil {
		return err
	}
	for _, rd := range rounds {
		log.Printf("recovering dangling round %d (status %s): force crash", rd.ID, rd.Status)
		if err := s.repo.ForceCrash(ctx, rd.ID); err != nil {
			return err
		}
		if err := s.bets.MarkActiveLost(ctx, rd.ID); err != nil {
			return err
		}
		if err := s.repo.Close(ctx, rd.ID); err != nil {
			return err
		}
	}
	return nil
}

// Run supervises the round loop until ctx is done. A fault inside the loop is
// logged, the stuck round is force-crashed with its bets lost, and the loop
// restarts after a delay; it never dies silently with a round in running.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		err := s.loop(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("round loop fault: %v; restarting", err)
		if rerr := s.Recover(ctx); rerr != nil {
			log.Printf("round loop recovery failed: %v", rerr)
		}
		if !sleep(ctx, time.Second) {
			return
		}
	}
}

func (s *Scheduler) loop(ctx context.Context) (err error) {
	defer func() {
		s.clearLive()
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rd, cerr := s.openRound(ctx)
		if cerr != nil {
			return cerr
		}
		if rd == nil {
			// Another round is still active; retry shortly.
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		// Betting window. Bets arrive through the API while we wait.
		if !sleep(ctx, time.Until(rd.BettingCloseAt)) {
			return ctx.Err()
		}
		if serr := s.repo.Start(ctx, rd.ID); serr != nil {
			return serr
		}

		if rerr := s.runMultiplier(ctx, rd); rerr != nil {
			return rerr
		}

		// Settlement grace before the terminal state.
		if !sleep(ctx, s.cfg.GraceDelay) {
			return ctx.Err()
		}
		if cerr := s.repo.Close(ctx, rd.ID); cerr != nil {
			return cerr
		}
	}
}

func (s *Scheduler) openRound(ctx context.Context) (*Round, error) {
	nonce, err := s.repo.NextNonce(ctx)
	if err != nil {
		return nil, err
	}

	serverSeed := fairness.NewServerSeed()
	clientSeed := fairness.NewClientSeed()

	rd := &Round{
		CrashPoint:     s.gen.Derive(serverSeed, clientSeed, nonce),
		ServerSeed:     serverSeed,
		ClientSeed:     clientSeed,
		Nonce:          nonce,
		ServerHash:     fairness.CommitmentHash(serverSeed),
		BettingCloseAt: time.Now().Add(s.cfg.BettingWindow),
	}
	return s.repo.CreateIfNoneActive(ctx, rd)
}

// runMultiplier advances the multiplier one growth step per tick, settling
// qualifying auto-cashout bets as it goes, until the crash point is reached.
func (s *Scheduler) runMultiplier(ctx context.Context, rd *Round) error {
	multiplier := 1.00
	ticker := time.NewTicker(s.cfg.TickPeriod)
	defer ticker.Stop()
	defer s.clearLive()

	for multiplier < rd.CrashPoint {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		multiplier = math.Round((multiplier+s.cfg.GrowthRate)*100) / 100
		s.setLive(rd.ID, multiplier)

		if err := s.bets.SettleAutoCashouts(ctx, rd.ID, multiplier); err != nil {
			return err
		}
	}

	s.clearLive()
	if err := s.repo.Crash(ctx, rd.ID); err != nil {
		return err
	}
	// Stakes were debited at placement; losing is just the status flip.
	return s.bets.MarkActiveLost(ctx, rd.ID)
}

// sleep waits d unless ctx ends first; reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
