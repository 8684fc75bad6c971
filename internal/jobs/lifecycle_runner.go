package jobs

import (
	"context"
	"log"
	"time"

	"challenge-arena/internal/repository"
	"challenge-arena/internal/services"
)

// LifecycleRunner periodically evaluates every unfinalized challenge
type LifecycleRunner struct {
	engine   *services.LifecycleEngine
	repo     *repository.Repository
	interval time.Duration
	stopChan chan struct{}
}

// NewLifecycleRunner creates a new lifecycle runner job
func NewLifecycleRunner(
	engine *services.LifecycleEngine,
	repo *repository.Repository,
	interval time.Duration,
) *LifecycleRunner {
	return &LifecycleRunner{
		engine:   engine,
		repo:     repo,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the evaluation loop
func (lr *LifecycleRunner) Start() {
	log.Printf("[LifecycleRunner] Starting challenge lifecycle job (interval: %v)", lr.interval)

	ticker := time.NewTicker(lr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lr.evaluateAll()
		case <-lr.stopChan:
			log.Println("[LifecycleRunner] Stopping challenge lifecycle job")
			return
		}
	}
}

// Stop stops the evaluation loop
func (lr *LifecycleRunner) Stop() {
	close(lr.stopChan)
}

// evaluateAll runs one evaluation pass over all unfinalized challenges.
// A failure on one challenge never stops the pass.
func (lr *LifecycleRunner) evaluateAll() {
	ctx := context.Background()

	ids, err := lr.repo.ListUnfinalizedChallengeIDs(ctx)
	if err != nil {
		log.Printf("[LifecycleRunner] Error listing challenges: %v", err)
		return
	}

	for _, id := range ids {
		if err := lr.engine.Evaluate(ctx, id); err != nil {
			log.Printf("[LifecycleRunner] Error evaluating challenge %d: %v", id, err)
		}
	}
}
