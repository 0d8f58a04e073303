package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/stage"
	"github.com/okian/rangeboard/internal/domain/statistics"
)

var errRemote = errors.New("remote down")

type swapCall struct{ id1, id2 int }

type fakeRemote struct {
	mu          sync.Mutex
	scorelists  map[int]model.Scorelist
	reads       int
	catalogRead int
	failReads   bool
	failWrites  bool
	rounds      map[int]int
	swaps       []swapCall
	deleted     []int
	created     []stage.CreateInput
	filters     []statistics.Filter
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		scorelists: map[int]model.Scorelist{
			7: {
				ID:     7,
				Rounds: 2,
				Stage:  model.StageRef{Name: "Speed"},
				Scores: []model.Score{
					{ID: 3, Round: 2, HitFactor: "4.1", Shooter: model.Shooter{Name: "B"}, State: model.ScoreStateScored},
					{ID: 1, Round: 1, HitFactor: "5", Shooter: model.Shooter{Name: "A"}, State: model.ScoreStateScored},
				},
			},
		},
		rounds: make(map[int]int),
	}
}

func (f *fakeRemote) Scorelist(_ context.Context, id int) (model.Scorelist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.failReads {
		return model.Scorelist{}, errRemote
	}
	sl, ok := f.scorelists[id]
	if !ok {
		return model.Scorelist{}, errors.New("not found")
	}
	return sl, nil
}

func (f *fakeRemote) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeRemote) setRoundsOn(id, rounds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sl := f.scorelists[id]
	sl.Rounds = rounds
	f.scorelists[id] = sl
}

func (f *fakeRemote) Catalog(context.Context) (model.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogRead++
	if f.failReads {
		return model.Catalog{}, errRemote
	}
	return model.Catalog{
		Scoreboards: []model.Scoreboard{{ID: 1, Name: "Club"}},
		Stages:      []model.StageSummary{{ID: 4, Name: "Speed"}},
	}, nil
}

func (f *fakeRemote) SwapID(_ context.Context, id1, id2 int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errRemote
	}
	f.swaps = append(f.swaps, swapCall{id1, id2})
	return nil
}

func (f *fakeRemote) Stage(_ context.Context, id int) (model.Stage, error) {
	if f.failReads {
		return model.Stage{}, errRemote
	}
	return model.Stage{ID: id, Name: "Speed"}, nil
}

func (f *fakeRemote) DeleteStage(_ context.Context, id int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return 0, errRemote
	}
	f.deleted = append(f.deleted, id)
	return id, nil
}

func (f *fakeRemote) CreateStage(_ context.Context, in stage.CreateInput) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return 0, errRemote
	}
	f.created = append(f.created, in)
	return 42, nil
}

func (f *fakeRemote) SetRounds(_ context.Context, id, rounds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errRemote
	}
	f.rounds[id] = rounds
	return nil
}

func (f *fakeRemote) GlobalStatistic(_ context.Context, flt statistics.Filter) (model.GlobalStatistic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return model.GlobalStatistic{}, errRemote
	}
	f.filters = append(f.filters, flt)
	return model.GlobalStatistic{ShootersTotal: 3, AlphaZoneTotal: 6, CharlieZoneTotal: 3, DeltaZoneTotal: 1}, nil
}

func (f *fakeRemote) Shooters(context.Context) ([]model.Shooter, error) {
	return []model.Shooter{{ID: 1, Name: "A", Division: "Production"}}, nil
}

// fakeSubscriber delivers events on the score topic. A value on drops ends
// the current score subscription as if the server had closed it.
type fakeSubscriber struct {
	mu     sync.Mutex
	calls  map[string]int
	events chan model.ChangeEvent
	drops  chan struct{}
	fail   bool
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		calls:  make(map[string]int),
		events: make(chan model.ChangeEvent, 8),
		drops:  make(chan struct{}, 1),
	}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, topic string, onEvent func(model.ChangeEvent)) error {
	f.mu.Lock()
	f.calls[topic]++
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errRemote
	}
	onEvent(model.ChangeEvent{Topic: topic, ReceivedAt: time.Now(), Resync: true})
	if topic != model.TopicScoreChange {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-f.drops:
			return nil
		case ev := <-f.events:
			onEvent(ev)
		}
	}
}

func (f *fakeSubscriber) callCount(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[topic]
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
