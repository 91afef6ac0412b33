package main

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/relic-hunt/pkg/game"
)

type sender interface {
	Send(msg tea.Msg)
}

// bridge forwards controller callbacks into the Bubble Tea event loop and
// carries puzzle answers back. Every method may block until the program
// reads the message, so the controller must never run inside Update.
type bridge struct {
	mu      sync.Mutex
	out     sender
	answers chan string
}

var (
	_ game.Presenter = (*bridge)(nil)
	_ game.Prompter  = (*bridge)(nil)
)

func newBridge() *bridge {
	return &bridge{answers: make(chan string, 1)}
}

func (b *bridge) attach(out sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = out
}

func (b *bridge) send(msg tea.Msg) {
	b.mu.Lock()
	out := b.out
	b.mu.Unlock()
	if out != nil {
		out.Send(msg)
	}
}

type snapshotMsg game.Snapshot

type noticeMsg game.Notice

type puzzleMsg game.Puzzle

type progressMsg struct {
	label    string
	fraction float64
}

type closeModalMsg struct{}

func (b *bridge) Present(s game.Snapshot) { b.send(snapshotMsg(s)) }

func (b *bridge) Notify(n game.Notice) { b.send(noticeMsg(n)) }

func (b *bridge) Ask(ctx context.Context, p game.Puzzle) (string, error) {
	b.send(puzzleMsg(p))
	select {
	case answer := <-b.answers:
		return answer, nil
	case <-ctx.Done():
		return "", context.Cause(ctx)
	}
}

func (b *bridge) Progress(label string, fraction float64) {
	b.send(progressMsg{label: label, fraction: fraction})
}

func (b *bridge) CloseModal() {
	select {
	case <-b.answers:
	default:
	}
	b.send(closeModalMsg{})
}

// submit queues an answer without blocking; a second answer before the
// first is read is dropped.
func (b *bridge) submit(answer string) bool {
	select {
	case b.answers <- answer:
		return true
	default:
		return false
	}
}
