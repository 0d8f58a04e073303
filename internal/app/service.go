// Package service wires the remote GraphQL service, the live-update binders
// and the domain projections into the operations served over HTTP.
package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/rangeboard/internal/domain/filter"
	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/projector"
	"github.com/okian/rangeboard/internal/domain/reorder"
	"github.com/okian/rangeboard/internal/domain/stage"
	"github.com/okian/rangeboard/internal/domain/statistics"
	"github.com/okian/rangeboard/pkg/logger"
	"github.com/okian/rangeboard/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const stopTimeout = 10 * time.Second

// Remote is the subset of the GraphQL client the service needs.
type Remote interface {
	ScorelistReader
	CatalogReader
	reorder.Swapper
	Stage(ctx context.Context, id int) (model.Stage, error)
	DeleteStage(ctx context.Context, id int) (int, error)
	CreateStage(ctx context.Context, in stage.CreateInput) (int, error)
	SetRounds(ctx context.Context, id, rounds int) error
	GlobalStatistic(ctx context.Context, f statistics.Filter) (model.GlobalStatistic, error)
	Shooters(ctx context.Context) ([]model.Shooter, error)
}

// Subscriber holds one upstream subscription until ctx ends or it fails.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, onEvent func(model.ChangeEvent)) error
}

// Service implements the dependencies of the HTTP surfaces.
type Service struct {
	mu sync.RWMutex

	remote     Remote
	subscriber Subscriber
	hub        *Hub
	catalog    *CatalogCache
	dispatcher *reorder.Dispatcher
	validator  *stage.Validator

	// Configuration
	queueSize      int
	outboxSize     int
	catalogTTL     time.Duration
	reconnectDelay time.Duration
	topics         []string

	// State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSubscriber enables live updates through s.
func WithSubscriber(s Subscriber) Option {
	return func(svc *Service) {
		svc.subscriber = s
	}
}

// WithQueueSize bounds the notification queue of each binder.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithOutboxSize bounds each live viewer's pending updates.
func WithOutboxSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.outboxSize = size
		}
	}
}

// WithCatalogTTL sets how long statistics option lists are cached.
// Zero disables caching.
func WithCatalogTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.catalogTTL = ttl
		}
	}
}

// WithReconnectDelay sets the pause before a failed subscription is
// reopened.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reconnectDelay = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service backed by remote.
func New(remote Remote, opts ...Option) *Service {
	s := &Service{
		remote:         remote,
		queueSize:      64,
		outboxSize:     16,
		catalogTTL:     30 * time.Second,
		reconnectDelay: 2 * time.Second,
		topics:         []string{model.TopicScorelistChange, model.TopicScoreChange},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and opens the upstream subscriptions.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting rangeboard service...")

	v, err := stage.NewValidator()
	if err != nil {
		return fmt.Errorf("stage validator: %w", err)
	}
	s.validator = v
	s.catalog = NewCatalogCache(s.remote, s.catalogTTL)
	s.dispatcher = reorder.New(s.remote, reorder.WithLogger(s.logger.Named("reorder")))

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.hub = NewHub(runCtx, s.remote, s.logger.Named("hub"),
		WithBinderQueueSize(s.queueSize),
		WithBinderOutboxSize(s.outboxSize))

	if s.subscriber != nil {
		for _, topic := range s.topics {
			s.wg.Add(1)
			go s.subscribe(runCtx, topic)
		}
	} else {
		s.logger.Warn(ctx, "no subscriber configured, live updates disabled")
	}

	s.started = true
	s.logger.Info(ctx, "rangeboard service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("outboxSize", s.outboxSize),
		logger.Duration("catalogTTL", s.catalogTTL),
		logger.Bool("live", s.subscriber != nil),
	)
	return nil
}

// Stop cancels the subscriptions and closes every binder.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel, hub := s.cancel, s.hub
	s.mu.Unlock()

	s.logger.Info(context.Background(), "stopping rangeboard service...")

	cancel()
	ctx, done := context.WithTimeout(context.Background(), stopTimeout)
	defer done()
	hub.Close(ctx)
	s.wg.Wait()

	s.logger.Info(context.Background(), "rangeboard service stopped")
}

// subscribe keeps one upstream subscription open, reopening it after a
// pause whenever it ends before ctx does.
func (s *Service) subscribe(ctx context.Context, topic string) {
	defer s.wg.Done()
	log := s.logger.Named("subscription")

	// The first Resync is skipped: binders read on acquire, so nothing can
	// have been missed before the first connection.
	connected := false
	onEvent := func(ev model.ChangeEvent) {
		if ev.Resync {
			if !connected {
				connected = true
				return
			}
			log.Info(ctx, "subscription restored, refetching", logger.String("topic", topic))
		}
		s.Notify(ev)
	}

	for {
		err := s.subscriber.Subscribe(ctx, topic, onEvent)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn(ctx, "subscription failed", logger.String("topic", topic), logger.Error(err))
		} else {
			log.Info(ctx, "subscription ended", logger.String("topic", topic))
		}
		metrics.RecordSubscriptionReconnect(topic)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

// Notify forwards a live-update notification to every active binder.
// Scorelist changes and resyncs also expire the cached catalog.
func (s *Service) Notify(ev model.ChangeEvent) {
	hub, catalog := s.components()
	if hub == nil {
		return
	}
	metrics.RecordNotification(ev.Topic)
	if ev.Topic == model.TopicScorelistChange || ev.Resync {
		catalog.Invalidate()
	}
	ctx := context.Background()
	accepted := hub.Broadcast(ctx, ev)
	s.logger.Debug(ctx, "notification forwarded",
		logger.String("topic", ev.Topic), logger.Int("binders", accepted))
}

func (s *Service) components() (*Hub, *CatalogCache) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil
	}
	return s.hub, s.catalog
}

func validID(id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return nil
}

// Scorelist reads a scorelist. It is never served from a cache.
func (s *Service) Scorelist(ctx context.Context, id int) (model.Scorelist, error) {
	if err := validID(id); err != nil {
		return model.Scorelist{}, err
	}
	return s.remote.Scorelist(ctx, id)
}

// ScorelistView reads a scorelist and projects it for one viewer.
func (s *Service) ScorelistView(ctx context.Context, id, round int, ordering bool) (projector.ScorelistView, error) {
	sl, err := s.Scorelist(ctx, id)
	if err != nil {
		return projector.ScorelistView{}, err
	}
	return projector.View(sl, max(round, 0), ordering), nil
}

// Join starts a live session on scorelist id.
func (s *Service) Join(id, round int, ordering bool) (*LiveSession, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	hub, _ := s.components()
	if hub == nil {
		return nil, ErrNotStarted
	}
	b, release, err := hub.Acquire(id)
	if err != nil {
		return nil, err
	}
	return &LiveSession{
		svc:      s,
		id:       id,
		binder:   b,
		release:  release,
		round:    max(round, 0),
		ordering: ordering,
		last:     Snapshot[model.Scorelist]{Status: StatusLoading},
	}, nil
}

// AddRound raises the round count of scorelist id by one and returns the
// new count. The count comes from the live binder when it is loaded.
func (s *Service) AddRound(ctx context.Context, id int) (int, error) {
	if err := validID(id); err != nil {
		return 0, err
	}
	rounds, err := s.currentRounds(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.remote.SetRounds(ctx, id, rounds+1); err != nil {
		metrics.RecordMutation("updateOneScorelist", "error")
		s.log().Error(ctx, "add round failed", logger.Int("scorelist_id", id), logger.Error(err))
		return 0, fmt.Errorf("add round to scorelist %d: %w", id, err)
	}
	metrics.RecordMutation("updateOneScorelist", "ok")
	return rounds + 1, nil
}

func (s *Service) currentRounds(ctx context.Context, id int) (int, error) {
	if hub, _ := s.components(); hub != nil {
		if snap, ok := hub.Peek(id); ok && snap.Status == StatusLoaded {
			return snap.Data.Rounds, nil
		}
	}
	sl, err := s.remote.Scorelist(ctx, id)
	if err != nil {
		return 0, err
	}
	return sl.Rounds, nil
}

// Swap dispatches the swap mutation for a finished drag.
func (s *Service) Swap(ctx context.Context, ev reorder.DragEnd) (bool, error) {
	s.mu.RLock()
	d := s.dispatcher
	s.mu.RUnlock()
	if d == nil {
		return false, ErrNotStarted
	}
	return d.DragEnd(ctx, ev)
}

// Stage reads one stage.
func (s *Service) Stage(ctx context.Context, id int) (model.Stage, error) {
	if err := validID(id); err != nil {
		return model.Stage{}, err
	}
	return s.remote.Stage(ctx, id)
}

// DeleteStage removes a stage once confirmed and returns the deleted id.
func (s *Service) DeleteStage(ctx context.Context, id int, confirmed bool) (int, error) {
	if err := validID(id); err != nil {
		return 0, err
	}
	if !confirmed {
		return 0, ErrConfirmationRequired
	}
	deleted, err := s.remote.DeleteStage(ctx, id)
	if err != nil {
		metrics.RecordMutation("deleteOneStage", "error")
		s.log().Error(ctx, "delete stage failed", logger.Int("stage_id", id), logger.Error(err))
		return 0, fmt.Errorf("delete stage %d: %w", id, err)
	}
	metrics.RecordMutation("deleteOneStage", "ok")
	s.invalidateCatalog()
	return deleted, nil
}

// ValidateStage checks a stage form without submitting it.
func (s *Service) ValidateStage(f stage.Form) error {
	s.mu.RLock()
	v := s.validator
	s.mu.RUnlock()
	if v == nil {
		return ErrNotStarted
	}
	return v.Validate(f)
}

// CreateStage validates f and creates the stage. It returns the new id.
func (s *Service) CreateStage(ctx context.Context, f stage.Form) (int, error) {
	if err := s.ValidateStage(f); err != nil {
		return 0, err
	}
	id, err := s.remote.CreateStage(ctx, f.CreateInput())
	if err != nil {
		metrics.RecordMutation("createOneStage", "error")
		s.log().Error(ctx, "create stage failed", logger.Error(err))
		return 0, fmt.Errorf("create stage: %w", err)
	}
	metrics.RecordMutation("createOneStage", "ok")
	s.invalidateCatalog()
	return id, nil
}

// Statistics reads the aggregate statistic for sel together with the
// option lists.
func (s *Service) Statistics(ctx context.Context, sel filter.Selection) (statistics.View, error) {
	_, catalog := s.components()
	if catalog == nil {
		return statistics.View{}, ErrNotStarted
	}

	var (
		stat model.GlobalStatistic
		cat  model.Catalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stat, err = s.remote.GlobalStatistic(gctx, statistics.FilterFromSelection(sel))
		return err
	})
	g.Go(func() error {
		var err error
		cat, err = catalog.Get(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return statistics.View{}, err
	}
	return statistics.Assemble(stat, cat, sel), nil
}

// Stages lists every stage by name from the cached catalog.
func (s *Service) Stages(ctx context.Context) ([]model.StageSummary, error) {
	_, catalog := s.components()
	if catalog == nil {
		return nil, ErrNotStarted
	}
	cat, err := catalog.Get(ctx)
	if err != nil {
		return nil, err
	}
	stages := slices.Clone(cat.Stages)
	slices.SortStableFunc(stages, func(a, b model.StageSummary) int { return cmp.Compare(a.Name, b.Name) })
	return stages, nil
}

// Shooters lists every shooter.
func (s *Service) Shooters(ctx context.Context) ([]model.Shooter, error) {
	return s.remote.Shooters(ctx)
}

func (s *Service) invalidateCatalog() {
	if _, catalog := s.components(); catalog != nil {
		catalog.Invalidate()
	}
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"queueSize":          s.queueSize,
		"outboxSize":         s.outboxSize,
		"catalogTTLSecs":     int(s.catalogTTL / time.Second),
		"liveUpdates":        s.subscriber != nil,
		"subscriptionTopics": s.topics,
	}
	if s.started {
		binders := s.hub.Len()
		stats["activeBinders"] = binders
		metrics.UpdateActiveBinders(binders)
	}
	return stats
}
