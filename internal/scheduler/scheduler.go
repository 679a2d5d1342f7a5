package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"telegram-schedule-bot/internal/models"
)

// Refresher reloads the faculty list.
type Refresher interface {
	Refresh(ctx context.Context) (models.Options, error)
}

// Pruner drops stale conversations.
type Pruner interface {
	PruneSessions(ctx context.Context, before time.Time) (int64, error)
}

type Options struct {
	RefreshInterval time.Duration
	SessionTTL      time.Duration
	PruneInterval   time.Duration
	Logger          *zap.Logger
}

// Start registers the background jobs and starts the scheduler. The cache
// refresh runs once right away so the first dialog does not wait on the site.
func Start(ctx context.Context, cache Refresher, sessions Pruner, opts Options) (gocron.Scheduler, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(opts.RefreshInterval),
		gocron.NewTask(func() {
			places, err := cache.Refresh(ctx)
			if err != nil {
				log.Warn("faculty refresh failed", zap.Error(err))
				return
			}
			log.Info("faculty list refreshed", zap.Int("places", len(places)))
		}),
		gocron.WithName("refresh-places"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	if sessions != nil {
		_, err = s.NewJob(
			gocron.DurationJob(opts.PruneInterval),
			gocron.NewTask(func() {
				n, err := sessions.PruneSessions(ctx, time.Now().Add(-opts.SessionTTL))
				if err != nil {
					log.Warn("session prune failed", zap.Error(err))
					return
				}
				if n > 0 {
					log.Info("stale sessions pruned", zap.Int64("count", n))
				}
			}),
			gocron.WithName("prune-sessions"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, err
		}
	}

	s.Start()
	return s, nil
}
