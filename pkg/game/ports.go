package game

import (
	"context"
	"math/rand/v2"

	"github.com/jwebster45206/relic-hunt/pkg/inventory"
	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/profile"
)

// Presenter receives board snapshots and notices. Calls are made without
// the controller lock held, so implementations may call back into it.
type Presenter interface {
	Present(Snapshot)
	Notify(Notice)
}

// Prompter hosts the modal interactions.
type Prompter interface {
	// Ask shows the puzzle modal (or keeps it open) and blocks until the
	// player submits an answer or ctx is done.
	Ask(ctx context.Context, p Puzzle) (string, error)

	// Progress shows the timed-action modal filled to fraction (0..1).
	Progress(label string, fraction float64)

	// CloseModal hides whichever modal is open.
	CloseModal()
}

// ProfileStore persists the player profile.
type ProfileStore interface {
	Load(ctx context.Context) (*profile.Profile, error)
	Save(ctx context.Context, p *profile.Profile) error
}

// Randomizer picks reward items.
type Randomizer interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Puzzle is a free-text challenge.
type Puzzle struct {
	Title string
	Hint  string
}

// Snapshot is a copy of everything a front-end draws.
type Snapshot struct {
	PlayerID  string
	Nickname  string
	Locations []location.Location
	Inventory *inventory.Inventory
	Score     int
	History   []profile.HistoryEntry
	State     State
}
