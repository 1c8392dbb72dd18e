package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
	"github.com/truemediaorg/catbot/model"
)

type FollowerLister interface {
	Followers(ctx context.Context) ([]model.User, error)
}

// Watcher polls the follower list and turns every follower that was not
// there before into a follow event. The first poll only sets the baseline.
type Watcher struct {
	followers FollowerLister
	interval  time.Duration
	log       log.FieldLogger

	mu    sync.Mutex
	known map[string]struct{}

	follows   chan model.FollowEvent
	done      chan struct{}
	stopOnce  sync.Once
	scheduler gocron.Scheduler
}

func NewWatcher(followers FollowerLister, interval time.Duration, logger log.FieldLogger) *Watcher {
	return &Watcher{
		followers: followers,
		interval:  interval,
		log:       logger,
		follows:   make(chan model.FollowEvent),
		done:      make(chan struct{}),
	}
}

// Follows delivers new-follower events. It is never closed; stop reading
// once Stop has been called.
func (w *Watcher) Follows() <-chan model.FollowEvent {
	return w.follows
}

// Start records the current followers and schedules the polling job.
func (w *Watcher) Start(ctx context.Context) error {
	followers, err := w.followers.Followers(ctx)
	if err != nil {
		return fmt.Errorf("error listing followers for baseline: %w", err)
	}
	w.mu.Lock()
	w.known = make(map[string]struct{}, len(followers))
	for _, follower := range followers {
		w.known[follower.ID] = struct{}{}
	}
	w.mu.Unlock()
	w.log.WithField("followers", len(followers)).Debug("follower baseline recorded")

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(newGocronLogger(w.log)),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if err := w.Poll(ctx); err != nil {
				w.log.WithError(err).Warn("error polling followers")
			}
		}),
		gocron.WithName("follower-watcher"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule follower polling: %w", err)
	}
	s.Start()
	w.scheduler = s
	w.log.WithField("interval", w.interval).Info("watching for new followers")
	return nil
}

// Poll lists the followers once and emits an event for each new one. It
// blocks until every event is taken or the watcher stops.
func (w *Watcher) Poll(ctx context.Context) error {
	followers, err := w.followers.Followers(ctx)
	if err != nil {
		return err
	}
	for _, follower := range w.newFollowers(followers) {
		w.log.WithField("userID", follower.ID).Debug("new follower")
		select {
		case w.follows <- model.FollowEvent{Kind: model.FollowEventKindFollow, Source: follower}:
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		}
	}
	return nil
}

func (w *Watcher) newFollowers(followers []model.User) []model.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.known == nil {
		w.known = map[string]struct{}{}
	}
	var fresh []model.User
	for _, follower := range followers {
		if _, ok := w.known[follower.ID]; ok {
			continue
		}
		w.known[follower.ID] = struct{}{}
		fresh = append(fresh, follower)
	}
	return fresh
}

// Stop shuts the scheduler down. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		if w.scheduler != nil {
			err = w.scheduler.Shutdown()
		}
	})
	return err
}
