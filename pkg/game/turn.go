package game

import (
	"context"
	"errors"
	"time"
)

// puzzle asks until accept returns true. The modal stays open across wrong
// answers and closes on success or abandon.
func (c *Controller) puzzle(ctx context.Context, p Puzzle, accept func(answer string) bool) error {
	c.setState(AwaitingPuzzleAnswer)
	defer c.setState(Running)
	defer c.prompter.CloseModal()

	for {
		answer, err := c.prompter.Ask(ctx, p)
		if err != nil {
			if errors.Is(err, ErrAbandoned) || errors.Is(context.Cause(ctx), ErrAbandoned) {
				return ErrAbandoned
			}
			return err
		}
		if accept(answer) {
			return nil
		}
		c.presenter.Notify(failure(MsgWrongAnswer))
	}
}

// progress fills the progress modal over d scaled by the configured factor,
// reporting wall-clock fraction every frame. The player cannot cancel it;
// only ctx can.
func (c *Controller) progress(ctx context.Context, label string, d time.Duration) error {
	c.setState(AwaitingTimedCompletion)
	defer c.setState(Running)
	defer c.prompter.CloseModal()

	d = time.Duration(float64(d) * c.progressScale)
	start := time.Now()
	ticker := time.NewTicker(c.frameInterval)
	defer ticker.Stop()

	for {
		elapsed := time.Since(start)
		if elapsed >= d {
			c.prompter.Progress(label, 1)
			return nil
		}
		c.prompter.Progress(label, float64(elapsed)/float64(d))

		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-ticker.C:
		}
	}
}

// draw picks a uniform element of pool.
func (c *Controller) draw(pool []string) string {
	return pool[c.rand.IntN(len(pool))]
}
