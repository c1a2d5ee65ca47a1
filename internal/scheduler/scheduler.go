package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/danhoran/volpulse/internal/store"
	"github.com/danhoran/volpulse/pkg/alert"
	"github.com/danhoran/volpulse/pkg/dashboard"
	"github.com/rs/zerolog"
)

// Scheduler recomputes the dashboard on an interval, archives every
// completed run, and alerts on discussions crossing the hot-score
// threshold.
type Scheduler struct {
	builder     *dashboard.Builder
	store       store.Store
	alertMgr    *alert.Manager
	scope       dashboard.Scope
	interval    time.Duration
	minHotScore int
	log         zerolog.Logger

	mu         sync.Mutex
	cancelPrev context.CancelFunc
	alerted    map[string]bool // post id -> already alerted
}

// New creates a scheduler. store and alertMgr may be nil.
func New(builder *dashboard.Builder, st store.Store, alertMgr *alert.Manager, scope dashboard.Scope, interval time.Duration, minHotScore int, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		builder:     builder,
		store:       st,
		alertMgr:    alertMgr,
		scope:       scope,
		interval:    interval,
		minHotScore: minHotScore,
		log:         log,
		alerted:     make(map[string]bool),
	}
}

// Run starts the refresh loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler running")
	s.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh starts a new run after cancelling any still-in-flight previous
// one, so a stale run is abandoned instead of racing the fresh one.
func (s *Scheduler) refresh(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancelPrev != nil {
		s.cancelPrev()
	}
	s.cancelPrev = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()

		vm, err := s.builder.Build(runCtx, s.scope)
		if err != nil {
			if runCtx.Err() != nil {
				s.log.Debug().Msg("stale run abandoned")
				return
			}
			s.log.Error().Err(err).Msg("dashboard refresh failed")
			return
		}

		if s.store != nil {
			if err := s.store.SaveRun(runCtx, vm); err != nil {
				s.log.Error().Err(err).Str("run_id", vm.RunID).Msg("archive run failed")
			}
		}

		s.alertHot(runCtx, vm)
	}()
}

// alertHot broadcasts at most one alert per post.
func (s *Scheduler) alertHot(ctx context.Context, vm *dashboard.ViewModel) {
	if s.alertMgr == nil || !s.alertMgr.HasNotifiers() {
		return
	}

	for _, d := range vm.TopDiscussions {
		if d.HotScore < s.minHotScore {
			continue
		}

		s.mu.Lock()
		seen := s.alerted[d.LatestPostID]
		s.mu.Unlock()
		if seen {
			continue
		}

		n := &alert.Notification{
			EventTitle: d.Title,
			IsGlobal:   d.IsGlobal,
			PostID:     d.LatestPostID,
			PostTitle:  d.LatestPostTitle,
			PostAuthor: d.LatestPostAuthor,
			PostDate:   d.LatestPostDate,
			HotScore:   d.HotScore,
			Likes:      d.LikesCount,
			Comments:   d.CommentsCount,
		}
		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			s.log.Error().Err(err).Str("post_id", d.LatestPostID).Msg("alert failed")
			continue
		}

		s.mu.Lock()
		s.alerted[d.LatestPostID] = true
		s.mu.Unlock()
		s.log.Info().Str("post_id", d.LatestPostID).Int("hot_score", d.HotScore).Msg("alerted")
	}
}
