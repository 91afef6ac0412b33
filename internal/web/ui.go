package web

import (
	"context"
	"sync"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/game"
)

// WebUI adapts the controller's presenter and prompter hooks to a
// request/response front-end. The controller pushes state in; page handlers
// read a View out and Submit answers back.
type WebUI struct {
	now func() time.Time

	mu       sync.Mutex
	snapshot game.Snapshot
	notices  []timedNotice
	puzzle   *game.Puzzle
	progress *progressView
	answers  chan string
	version  uint64
	changed  chan struct{}
}

var (
	_ game.Presenter = (*WebUI)(nil)
	_ game.Prompter  = (*WebUI)(nil)
)

type timedNotice struct {
	game.Notice
	expires time.Time // Zero for persistent notices
}

type progressView struct {
	Label   string
	Percent int
}

// View is what a page render needs, copied out under the lock.
type View struct {
	Snapshot game.Snapshot
	Notices  []game.Notice
	Puzzle   *game.Puzzle
	Progress *progressView
	Version  uint64
}

func NewWebUI() *WebUI {
	return &WebUI{
		now:     time.Now,
		answers: make(chan string, 1),
		changed: make(chan struct{}),
	}
}

func (u *WebUI) Present(s game.Snapshot) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.snapshot = s
	u.bumpLocked()
}

// Notify queues n. A persistent notice already on screen is not repeated.
func (u *WebUI) Notify(n game.Notice) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if n.Kind == game.NoticePersistent && u.hasPersistentLocked(n.Text) {
		return
	}
	tn := timedNotice{Notice: n}
	if n.Kind != game.NoticePersistent {
		d := n.Duration
		if d <= 0 {
			d = game.NoticeDuration
		}
		tn.expires = u.now().Add(d)
	}
	u.notices = append(u.notices, tn)
	u.bumpLocked()
}

func (u *WebUI) hasPersistentLocked(text string) bool {
	for _, n := range u.notices {
		if n.Kind == game.NoticePersistent && n.Text == text {
			return true
		}
	}
	return false
}

// Ask opens the puzzle and waits for Submit.
func (u *WebUI) Ask(ctx context.Context, p game.Puzzle) (string, error) {
	u.mu.Lock()
	u.puzzle = &p
	u.bumpLocked()
	u.mu.Unlock()

	select {
	case answer := <-u.answers:
		return answer, nil
	case <-ctx.Done():
		return "", context.Cause(ctx)
	}
}

func (u *WebUI) Progress(label string, fraction float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	pct := int(fraction * 100)
	if u.progress != nil && u.progress.Label == label && u.progress.Percent == pct {
		return
	}
	u.progress = &progressView{Label: label, Percent: pct}
	u.bumpLocked()
}

func (u *WebUI) CloseModal() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.puzzle = nil
	u.progress = nil
	// Drop an answer that arrived after the puzzle was settled.
	select {
	case <-u.answers:
	default:
	}
	u.bumpLocked()
}

// Submit hands an answer to the waiting puzzle. It reports false when no
// puzzle is open or an answer is already queued.
func (u *WebUI) Submit(answer string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.puzzle == nil {
		return false
	}
	select {
	case u.answers <- answer:
		return true
	default:
		return false
	}
}

// View returns the current state, dropping expired notices.
func (u *WebUI) View() View {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	live := u.notices[:0]
	for _, n := range u.notices {
		if n.expires.IsZero() || now.Before(n.expires) {
			live = append(live, n)
		}
	}
	u.notices = live

	v := View{Snapshot: u.snapshot, Version: u.version}
	for _, n := range live {
		v.Notices = append(v.Notices, n.Notice)
	}
	if u.puzzle != nil {
		p := *u.puzzle
		v.Puzzle = &p
	}
	if u.progress != nil {
		p := *u.progress
		v.Progress = &p
	}
	return v
}

// WaitSettled blocks until something changed after version since and then
// stayed quiet for quiet, or until timeout elapses.
func (u *WebUI) WaitSettled(since uint64, quiet, timeout time.Duration) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	seen := false
	for {
		u.mu.Lock()
		v, ch := u.version, u.changed
		u.mu.Unlock()
		if v != since {
			seen, since = true, v
		}

		if !seen {
			select {
			case <-ch:
			case <-deadline.C:
				return
			}
			continue
		}

		select {
		case <-ch:
		case <-time.After(quiet):
			return
		case <-deadline.C:
			return
		}
	}
}

func (u *WebUI) bumpLocked() {
	u.version++
	close(u.changed)
	u.changed = make(chan struct{})
}
