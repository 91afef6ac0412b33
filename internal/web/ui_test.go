package web

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebUI_AskAndSubmit(t *testing.T) {
	ui := NewWebUI()
	assert.False(t, ui.Submit("135"), "no puzzle open")

	got := make(chan string, 1)
	go func() {
		answer, err := ui.Ask(context.Background(), game.Puzzle{Title: "书架密码"})
		assert.NoError(t, err)
		got <- answer
	}()

	require.Eventually(t, func() bool { return ui.View().Puzzle != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "书架密码", ui.View().Puzzle.Title)
	require.True(t, ui.Submit("135"))
	assert.Equal(t, "135", <-got)

	// The modal stays open until the controller closes it.
	assert.NotNil(t, ui.View().Puzzle)
	ui.CloseModal()
	assert.Nil(t, ui.View().Puzzle)
}

func TestWebUI_SubmitDoesNotQueueTwice(t *testing.T) {
	ui := NewWebUI()
	ui.puzzle = &game.Puzzle{Title: "x"}
	assert.True(t, ui.Submit("a"))
	assert.False(t, ui.Submit("b"))

	ui.CloseModal()
	assert.Empty(t, ui.answers, "stale answers are dropped on close")
}

func TestWebUI_AskCancelled(t *testing.T) {
	ui := NewWebUI()
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(game.ErrAbandoned)

	_, err := ui.Ask(ctx, game.Puzzle{})
	assert.True(t, errors.Is(err, game.ErrAbandoned))
}

func TestWebUI_NoticesExpire(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ui := NewWebUI()
	ui.now = func() time.Time { return now }

	ui.Notify(game.Notice{Kind: game.NoticeInfo, Text: "短", Duration: time.Second})
	ui.Notify(game.Notice{Kind: game.NoticeItem, Text: "获得物品：古籍", Item: "古籍", Duration: 2 * time.Second})
	ui.Notify(game.Notice{Kind: game.NoticePersistent, Text: game.MsgLoadFailed})
	assert.Len(t, ui.View().Notices, 3)

	now = now.Add(1500 * time.Millisecond)
	assert.Len(t, ui.View().Notices, 2)

	now = now.Add(time.Hour)
	notices := ui.View().Notices
	require.Len(t, notices, 1)
	assert.Equal(t, game.MsgLoadFailed, notices[0].Text)
}

func TestWebUI_PersistentNoticeShownOnce(t *testing.T) {
	ui := NewWebUI()
	for range 3 {
		ui.Notify(game.Notice{Kind: game.NoticePersistent, Text: game.MsgLoadFailed})
	}
	v := ui.View().Version
	ui.Notify(game.Notice{Kind: game.NoticePersistent, Text: game.MsgLoadFailed})
	assert.Equal(t, v, ui.View().Version, "a repeat is not a change")

	ui.Notify(game.Notice{Kind: game.NoticePersistent, Text: "另一条"})
	ui.Notify(game.Notice{Kind: game.NoticeError, Text: game.MsgLoadFailed})
	assert.Len(t, ui.View().Notices, 3)
}

func TestWebUI_ProgressDeduplicates(t *testing.T) {
	ui := NewWebUI()
	ui.Progress("正在搜索宝藏...", 0.501)
	v := ui.View().Version
	ui.Progress("正在搜索宝藏...", 0.504)
	assert.Equal(t, v, ui.View().Version)
	ui.Progress("正在搜索宝藏...", 0.6)
	assert.Equal(t, 60, ui.View().Progress.Percent)
}

func TestWebUI_WaitSettled(t *testing.T) {
	ui := NewWebUI()

	t.Run("times out without changes", func(t *testing.T) {
		start := time.Now()
		ui.WaitSettled(ui.View().Version, 10*time.Millisecond, 50*time.Millisecond)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("returns after a quiet period", func(t *testing.T) {
		since := ui.View().Version
		go func() {
			time.Sleep(5 * time.Millisecond)
			ui.Notify(game.Notice{Text: "a"})
			ui.Notify(game.Notice{Text: "b"})
		}()
		start := time.Now()
		ui.WaitSettled(since, 20*time.Millisecond, 5*time.Second)
		assert.Less(t, time.Since(start), time.Second)
		assert.Len(t, ui.View().Notices, 2)
	})
}
