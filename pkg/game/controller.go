// Package game runs the relic hunt: it owns the loaded locations and the
// player profile, dispatches location actions one at a time, applies the
// unlock rules and keeps the local store and the score API up to date.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/profile"
	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	"github.com/jwebster45206/relic-hunt/pkg/story"
)

const (
	DefaultFrameInterval  = 50 * time.Millisecond
	DefaultNetworkTimeout = 10 * time.Second
)

// Options wires a Controller. Source, Profiles, Presenter and Prompter are
// required; the rest have defaults.
type Options struct {
	Source    location.Source
	Profiles  ProfileStore
	API       scoreapi.API // nil disables remote scores
	Presenter Presenter
	Prompter  Prompter
	Logger    *slog.Logger
	Rand      Randomizer
	Now       func() time.Time

	ProgressScale  float64 // Multiplies every timed action; 0 means 1
	FrameInterval  time.Duration
	NetworkTimeout time.Duration
}

// Controller is the game session for one player.
type Controller struct {
	source    location.Source
	profiles  ProfileStore
	api       scoreapi.API
	presenter Presenter
	prompter  Prompter
	logger    *slog.Logger
	rand      Randomizer
	now       func() time.Time

	progressScale  float64
	frameInterval  time.Duration
	networkTimeout time.Duration

	mu        sync.Mutex
	started   bool
	state     State
	player    *profile.Profile
	locations []location.Location
	handlers  []actionFunc
	abandon   context.CancelCauseFunc

	pending sync.WaitGroup // In-flight score pushes
}

func New(opts Options) *Controller {
	c := &Controller{
		source:         opts.Source,
		profiles:       opts.Profiles,
		api:            opts.API,
		presenter:      opts.Presenter,
		prompter:       opts.Prompter,
		logger:         opts.Logger,
		rand:           opts.Rand,
		now:            opts.Now,
		progressScale:  opts.ProgressScale,
		frameInterval:  opts.FrameInterval,
		networkTimeout: opts.NetworkTimeout,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.rand == nil {
		c.rand = globalRand{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.progressScale <= 0 {
		c.progressScale = 1
	}
	if c.frameInterval <= 0 {
		c.frameInterval = DefaultFrameInterval
	}
	if c.networkTimeout <= 0 {
		c.networkTimeout = DefaultNetworkTimeout
	}
	return c
}

// Start loads the profile and the locations, restores unlocks earned in
// earlier sessions and renders the board. It returns ErrNoProfile when the
// player has not registered, and a *LoadError when the game data is bad.
func (c *Controller) Start(ctx context.Context) error {
	p, err := c.profiles.Load(ctx)
	if errors.Is(err, profile.ErrNotFound) {
		return ErrNoProfile
	}
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	locs, err := location.Load(ctx, c.source)
	if err == nil {
		var handlers []actionFunc
		handlers, err = bind(locs)
		if err == nil {
			opened := story.Restore(locs, p.Inventory)
			c.mu.Lock()
			c.player = p
			c.locations = locs
			c.handlers = handlers
			c.started = true
			c.state = Idle
			c.mu.Unlock()

			c.logger.Info("Game started",
				"player_id", p.ID,
				"locations", len(locs),
				"items", p.Inventory.Len(),
				"restored", opened)
			c.present()
			return nil
		}
	}

	c.logger.Error("Failed to load game data", "error", err)
	c.presenter.Notify(Notice{Kind: NoticePersistent, Text: MsgLoadFailed})
	return &LoadError{Err: err}
}

// Dispatch runs the action bound to the location at index. Locked
// locations and dispatches while another action runs are refused with a
// notice. Precondition failures, wrong puzzle answers and abandons leave
// the profile untouched.
func (c *Controller) Dispatch(ctx context.Context, index int) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return ErrNotStarted
	}
	if index < 0 || index >= len(c.locations) {
		c.mu.Unlock()
		return fmt.Errorf("%w: index %d", ErrUnknownLocation, index)
	}
	loc := c.locations[index]
	if !loc.IsAccessible {
		c.mu.Unlock()
		c.presenter.Notify(failure(MsgLocked))
		return ErrLocked
	}
	if c.state != Idle {
		c.mu.Unlock()
		c.presenter.Notify(failure(MsgBusy))
		return ErrBusy
	}
	actx, cancel := context.WithCancelCause(ctx)
	c.state = Running
	c.abandon = cancel
	fn := c.handlers[index]
	c.mu.Unlock()

	defer func() {
		cancel(nil)
		c.mu.Lock()
		c.state = Idle
		c.abandon = nil
		c.mu.Unlock()
		c.present()
	}()

	c.logger.Debug("Dispatching action", "location", loc.Name, "action", loc.Action)
	summary, err := c.run(actx, fn, loc)

	var pre *PreconditionError
	switch {
	case err == nil:
		c.complete(ctx, loc, summary)
		return nil
	case errors.As(err, &pre):
		c.presenter.Notify(failure(pre.Message))
		return err
	case errors.Is(err, ErrAbandoned):
		c.logger.Info("Action abandoned", "location", loc.Name)
		c.presenter.Notify(info(MsgAbandoned, NoticeDuration))
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		c.logger.Error("Action failed", "location", loc.Name, "action", loc.Action, "error", err)
		c.presenter.Notify(failure(MsgTaskFailed))
		return &HandlerError{Location: loc.Name, Err: err}
	}
}

// DispatchName dispatches by location name.
func (c *Controller) DispatchName(ctx context.Context, name string) error {
	c.mu.Lock()
	i := location.Find(c.locations, name)
	c.mu.Unlock()
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, name)
	}
	return c.Dispatch(ctx, i)
}

// Abandon closes the open puzzle. Timed actions cannot be abandoned.
func (c *Controller) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != AwaitingPuzzleAnswer || c.abandon == nil {
		return ErrNotAbandonable
	}
	c.abandon(ErrAbandoned)
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the board. It is empty before Start succeeds.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Flush waits for pending score pushes.
func (c *Controller) Flush() {
	c.pending.Wait()
}

// RemoteScores fetches the player's recorded scores. Failures are logged
// and yield an empty list.
func (c *Controller) RemoteScores(ctx context.Context) []scoreapi.ScoreEntry {
	c.mu.Lock()
	var id string
	if c.player != nil {
		id = c.player.ID
	}
	c.mu.Unlock()
	if c.api == nil || id == "" {
		return []scoreapi.ScoreEntry{}
	}

	ctx, cancel := context.WithTimeout(ctx, c.networkTimeout)
	defer cancel()
	scores, err := c.api.PlayerScores(ctx, id)
	if err != nil {
		c.logger.Warn("Failed to fetch remote scores", "player_id", id, "error", err)
		return []scoreapi.ScoreEntry{}
	}
	if scores == nil {
		scores = []scoreapi.ScoreEntry{}
	}
	return scores
}

func (c *Controller) run(ctx context.Context, fn actionFunc, loc location.Location) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s handler: %v", loc.Action, r)
		}
	}()
	return fn(c, ctx, loc)
}

// complete records the finished action, applies the unlock rules and
// persists the result.
func (c *Controller) complete(ctx context.Context, loc location.Location, summary string) {
	c.mu.Lock()
	c.player.AddHistory(fmt.Sprintf("在%s完成了任务：%s", loc.Name, summary), c.now())
	opened := story.Unlock(c.locations, loc.Name, c.player.Inventory)
	c.mu.Unlock()

	c.logger.Info("Action completed",
		"location", loc.Name,
		"summary", summary,
		"unlocked", opened)
	c.persist(ctx)
}

func (c *Controller) has(item string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player.Inventory.Has(item)
}

// addItem grants item, persists and pushes the score. An item already held
// is not added twice, but the board is still redrawn, saved and pushed.
func (c *Controller) addItem(ctx context.Context, item string) {
	c.mu.Lock()
	added := c.player.Inventory.Add(item)
	c.mu.Unlock()

	c.logger.Info("Item obtained", "item", item, "new", added)
	c.present()
	c.persist(ctx)
	c.pushScore()
	c.presenter.Notify(Notice{
		Kind:     NoticeItem,
		Text:     MsgItemObtained + item,
		Item:     item,
		Duration: ItemNoticeDuration,
	})
}

func (c *Controller) persist(ctx context.Context) {
	c.mu.Lock()
	p := c.player.Clone()
	c.mu.Unlock()

	if err := c.profiles.Save(ctx, p); err != nil {
		c.logger.Error("Failed to save profile", "player_id", p.ID, "error", err)
	}
}

// pushScore sends the current score in the background. Errors are logged.
func (c *Controller) pushScore() {
	if c.api == nil {
		return
	}
	c.mu.Lock()
	sub := scoreapi.ScoreSubmission{
		PlayerID: c.player.ID,
		Score:    c.player.Inventory.Score(),
		Items:    c.player.Inventory.Items(),
	}
	c.mu.Unlock()

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.networkTimeout)
		defer cancel()
		if err := c.api.SaveScore(ctx, sub); err != nil {
			c.logger.Warn("Failed to push score", "player_id", sub.PlayerID, "score", sub.Score, "error", err)
			return
		}
		c.logger.Debug("Score pushed", "player_id", sub.PlayerID, "score", sub.Score)
	}()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) present() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.presenter.Present(snap)
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Locations: slices.Clone(c.locations),
		State:     c.state,
	}
	if c.player != nil {
		snap.PlayerID = c.player.ID
		snap.Nickname = c.player.Nickname
		snap.Inventory = c.player.Inventory.Clone()
		snap.Score = snap.Inventory.Score()
		snap.History = slices.Clone(c.player.History)
	}
	return snap
}
