package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/relic-hunt/pkg/game"
	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/textfilter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSender chan tea.Msg

func (c chanSender) Send(msg tea.Msg) { c <- msg }

func TestBridge_Ask(t *testing.T) {
	out := make(chanSender, 4)
	b := newBridge()
	b.attach(out)

	got := make(chan string, 1)
	go func() {
		answer, err := b.Ask(context.Background(), game.Puzzle{Title: "书架密码"})
		assert.NoError(t, err)
		got <- answer
	}()

	msg := <-out
	assert.Equal(t, puzzleMsg(game.Puzzle{Title: "书架密码"}), msg)
	require.True(t, b.submit("135"))
	assert.Equal(t, "135", <-got)
}

func TestBridge_AskAbandoned(t *testing.T) {
	b := newBridge() // Unattached; sends are dropped.
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(game.ErrAbandoned)

	_, err := b.Ask(ctx, game.Puzzle{})
	assert.ErrorIs(t, err, game.ErrAbandoned)
}

func TestBridge_CloseModalDropsStaleAnswer(t *testing.T) {
	out := make(chanSender, 1)
	b := newBridge()
	b.attach(out)

	require.True(t, b.submit("a"))
	assert.False(t, b.submit("b"))
	b.CloseModal()
	assert.Equal(t, closeModalMsg{}, <-out)
	assert.True(t, b.submit("c"))
}

func newTestUI() ConsoleUI {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := newBridge()
	ctrl := game.New(game.Options{Presenter: b, Prompter: b, Logger: logger})
	m := NewConsoleUI(context.Background(), ctrl, b, nil, nil, logger)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(ConsoleUI)
}

func update(t *testing.T, m ConsoleUI, msg tea.Msg) ConsoleUI {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(ConsoleUI)
}

func TestConsoleUI_StartFlow(t *testing.T) {
	m := newTestUI()
	assert.Contains(t, m.View(), "正在加载")

	m = update(t, m, startedMsg{err: game.ErrNoProfile})
	assert.True(t, m.needNickname)
	assert.Contains(t, m.View(), "请输入你的昵称")

	m = update(t, m, registeredMsg{err: textfilter.ErrEmptyNickname})
	assert.Contains(t, m.View(), "请输入昵称")

	m = update(t, m, registeredMsg{})
	assert.False(t, m.needNickname)
	assert.True(t, m.loading)
}

func TestConsoleUI_Board(t *testing.T) {
	m := newTestUI()
	m = update(t, m, startedMsg{})
	m = update(t, m, snapshotMsg(game.Snapshot{
		Nickname: "勇者",
		Locations: []location.Location{
			{Name: "图书馆", Description: "古老图书馆", IsAccessible: true, TaskHint: "寻找书架的密码"},
			{Name: "神庙", Description: "神庙", IsAccessible: false},
		},
	}))

	view := m.View()
	assert.Contains(t, view, "探险家：勇者")
	assert.Contains(t, view, "寻找书架的密码")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)
	assert.Contains(t, m.View(), "暂未解锁")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected, "cursor stays on the last location")
}

func TestConsoleUI_Modals(t *testing.T) {
	m := newTestUI()
	m = update(t, m, startedMsg{})

	m = update(t, m, puzzleMsg(game.Puzzle{Title: "书架密码", Hint: "1-3-5"}))
	assert.Contains(t, m.View(), "书架密码")

	m = update(t, m, noticeMsg(game.Notice{Kind: game.NoticeError, Text: game.MsgWrongAnswer, Duration: time.Second}))
	assert.Contains(t, m.View(), game.MsgWrongAnswer)

	m = update(t, m, closeModalMsg{})
	assert.Nil(t, m.puzzle)

	m = update(t, m, progressMsg{label: "正在搜索宝藏...", fraction: 0.5})
	assert.Contains(t, m.View(), "正在搜索宝藏...")
	m = update(t, m, closeModalMsg{})
	assert.Nil(t, m.progress)
}

func TestConsoleUI_NoticesExpire(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	m := newTestUI()
	m.now = func() time.Time { return now }

	m = update(t, m, noticeMsg(game.Notice{Text: "短", Duration: time.Second}))
	m = update(t, m, noticeMsg(game.Notice{Kind: game.NoticePersistent, Text: game.MsgLoadFailed}))
	require.Len(t, m.notices, 2)

	now = now.Add(2 * time.Second)
	m = update(t, m, noticeTickMsg(now))
	require.Len(t, m.notices, 1)
	assert.Equal(t, game.MsgLoadFailed, m.notices[0].Text)
}

func TestConsoleUI_QuitModal(t *testing.T) {
	m := newTestUI()
	m = update(t, m, startedMsg{})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.showQuitModal)
	assert.Contains(t, m.View(), "退出游戏")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.False(t, m.showQuitModal)
}

func TestIsReported(t *testing.T) {
	assert.True(t, isReported(game.ErrBusy))
	assert.True(t, isReported(&game.HandlerError{Location: "图书馆", Err: errors.New("boom")}))
	assert.False(t, isReported(errors.New("unexpected")))
}
