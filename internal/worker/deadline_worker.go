package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/repository"
	"github.com/invigo/invigo-backend/internal/service"
)

const (
	sweepInterval = 30 * time.Second
	sweepLimit    = 200
)

// DeadlineWorker force-submits attempts whose time budget expired while the
// client was gone. A live client submits on its own timer; this sweep is the
// backstop for crashed browsers and dropped connections. The submission goes
// through the same conditional transition as a client submit, so a client
// racing the sweep still resolves to exactly one completion.
type DeadlineWorker struct {
	attemptRepo *repository.AttemptRepository
	attemptSvc  *service.AttemptService
	log         zerolog.Logger
}

// NewDeadlineWorker creates a new DeadlineWorker.
func NewDeadlineWorker(attemptRepo *repository.AttemptRepository, attemptSvc *service.AttemptService, log zerolog.Logger) *DeadlineWorker {
	return &DeadlineWorker{
		attemptRepo: attemptRepo,
		attemptSvc:  attemptSvc,
		log:         log.With().Str("component", "deadline_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DeadlineWorker) sweep(ctx context.Context) {
	now := time.Now()
	expired, err := w.attemptRepo.ListExpired(ctx, now, sweepLimit)
	if err != nil {
		w.log.Error().Err(err).Msg("Expired attempt scan failed")
		return
	}

	for _, ea := range expired {
		// nil answers scores the last checkpointed set. The deadline is the
		// effective end time; the sweep tick can lag it by up to the interval.
		deadline := ea.Deadline
		_, err := w.attemptSvc.Submit(ctx, ea.ID, nil, time.Now(), &deadline, 0)
		if err != nil {
			if errors.Is(err, service.ErrAlreadySubmitted) {
				// The client beat us to it.
				continue
			}
			w.log.Error().Err(err).Str("attempt_id", ea.ID.String()).Msg("Forced submit failed")
			continue
		}
		w.log.Info().Str("attempt_id", ea.ID.String()).Msg("Attempt force-submitted after deadline")
	}
}
