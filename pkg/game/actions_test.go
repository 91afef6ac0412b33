package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	locs, err := location.Parse(boardData)
	require.NoError(t, err)
	assert.NoError(t, Validate(locs))

	locs[3].Action = "SEARCHTREASURE"
	var ue *UnknownActionError
	require.ErrorAs(t, Validate(locs), &ue)
	assert.Equal(t, story.SecretRoom, ue.Location)
}

func TestSolvePuzzle_AnswerIsCaseInsensitive(t *testing.T) {
	h := newHarness(t, boardData, []string{story.AncientBook}, "SNEW", "EnSw")
	h.start(t)

	require.NoError(t, h.c.DispatchName(context.Background(), story.Temple))
	assert.Equal(t, 2, h.prompter.askCount())
	assert.Equal(t, "符文谜题", h.prompter.puzzles[0].Title)

	snap := h.c.Snapshot()
	assert.True(t, snap.Inventory.Has(story.RuneKey))
	assert.True(t, accessible(snap)[story.GuardCamp])
}

func TestNegotiateGuard_ProgressRunsToCompletion(t *testing.T) {
	h := newHarness(t, boardData, []string{story.AncientBook, story.RuneKey})
	h.start(t)

	require.NoError(t, h.c.DispatchName(context.Background(), story.GuardCamp))

	fractions := h.prompter.progressCalls()
	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1], "progress never moves backwards")
	}
	assert.Zero(t, h.prompter.askCount())

	snap := h.c.Snapshot()
	assert.True(t, snap.Inventory.Has(story.Pass))
	assert.True(t, accessible(snap)[story.SecretRoom])
	assert.Equal(t, "在守卫营地完成了任务：获得守卫的信任", snap.History[0].Action)
}

func TestProgressCannotBeAbandoned(t *testing.T) {
	h := newHarness(t, boardData, []string{story.AncientBook, story.RuneKey})
	h.c.progressScale = 20 // 60s, cancelled through ctx below
	h.start(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.c.DispatchName(ctx, story.GuardCamp) }()

	require.Eventually(t, func() bool {
		return h.c.State() == AwaitingTimedCompletion
	}, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, h.c.Abandon(), ErrNotAbandonable)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, h.c.Snapshot().Inventory.Has(story.Pass))
}

func TestSearchTreasure_DrawsFromPool(t *testing.T) {
	tests := []struct {
		draw       int
		want       string
		opensCaves bool
	}{
		{draw: 0, want: "金币"},
		{draw: 1, want: "宝石"},
		{draw: 3, want: story.Artifact, opensCaves: true},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := newHarness(t, boardData, []string{story.AncientBook, story.RuneKey, story.Pass})
			h.c.rand = fixedRand(tt.draw)
			h.start(t)

			require.NoError(t, h.c.DispatchName(context.Background(), story.SecretRoom))
			h.c.Flush()

			snap := h.c.Snapshot()
			assert.True(t, snap.Inventory.Has(tt.want))
			assert.Equal(t, "在密室完成了任务：找到宝藏："+tt.want, snap.History[0].Action)
			open := accessible(snap)
			assert.Equal(t, tt.opensCaves, open[story.TreasureCave])
			assert.Equal(t, tt.opensCaves, open[story.AncientWell])

			pushed := h.api.pushed()
			require.Len(t, pushed, 1)
			assert.Equal(t, snap.Score, pushed[0].Score)
		})
	}
}

func TestExploreSecret(t *testing.T) {
	h := newHarness(t, openBoardData, []string{story.Artifact})
	h.c.rand = fixedRand(2)
	h.start(t)

	require.NoError(t, h.c.DispatchName(context.Background(), story.TreasureCave))
	snap := h.c.Snapshot()
	assert.True(t, snap.Inventory.Has("远古卷轴"))
	assert.Equal(t, 800+1500, snap.Score)
}

func TestDivingWell_RiddleGrantsGearFirst(t *testing.T) {
	h := newHarness(t, openBoardData, nil, "太阳", "月亮")
	h.c.rand = fixedRand(1)
	h.start(t)

	require.NoError(t, h.c.DispatchName(context.Background(), story.AncientWell))
	h.c.Flush()

	assert.Equal(t, 2, h.prompter.askCount())
	assert.Equal(t, "获取潜水装备", h.prompter.puzzles[0].Title)
	assert.NotEmpty(t, h.prompter.progressCalls())

	snap := h.c.Snapshot()
	assert.Equal(t, []string{story.DivingGear, "玉佩"}, snap.Inventory.Items())
	assert.Equal(t, "在古井完成了任务：打捞到：玉佩", snap.History[0].Action)
	assert.Len(t, h.api.pushed(), 2, "each new item pushes the score")
}

func TestDivingWell_WithGearSkipsRiddle(t *testing.T) {
	h := newHarness(t, openBoardData, []string{story.DivingGear})
	h.start(t)

	require.NoError(t, h.c.DispatchName(context.Background(), story.AncientWell))
	assert.Zero(t, h.prompter.askCount())
	assert.True(t, h.c.Snapshot().Inventory.Has("珍珠"))
}

func TestAddItem_DuplicateStillPushes(t *testing.T) {
	h := newHarness(t, openBoardData, []string{story.AncientBook}, "135")
	h.start(t)

	require.NoError(t, h.c.DispatchName(context.Background(), story.Library))
	h.c.Flush()

	snap := h.c.Snapshot()
	assert.Equal(t, 1, snap.Inventory.Len())
	assert.Equal(t, 100, snap.Score)
	assert.Len(t, snap.History, 1, "the action still completes")
	assert.Contains(t, h.presenter.texts(), MsgItemObtained+story.AncientBook)

	pushed := h.api.pushed()
	require.Len(t, pushed, 1, "a repeated grant still pushes the score")
	assert.Equal(t, 100, pushed[0].Score)
	assert.Equal(t, []string{story.AncientBook}, pushed[0].Items)
	assert.Len(t, h.stored(t).History, 1)
}

func TestFullPlaythrough(t *testing.T) {
	h := newHarness(t, boardData, nil, "135", "ensw")
	h.c.rand = fixedRand(3)
	h.start(t)
	ctx := context.Background()

	for _, name := range []string{story.Library, story.Temple, story.GuardCamp, story.SecretRoom} {
		require.NoError(t, h.c.DispatchName(ctx, name), name)
	}
	h.c.Flush()

	snap := h.c.Snapshot()
	for _, open := range accessible(snap) {
		assert.True(t, open)
	}
	assert.Equal(t, 100+200+300+800, snap.Score)
	assert.Len(t, snap.History, 4)

	// A fresh controller over the same store sees the same board.
	reloaded := New(Options{
		Source:    stringSource(boardData),
		Profiles:  h.repo,
		Presenter: &fakePresenter{},
		Prompter:  newPrompter(),
		Logger:    testLogger(),
	})
	require.NoError(t, reloaded.Start(ctx))
	assert.Equal(t, accessible(snap), accessible(reloaded.Snapshot()))
	assert.Equal(t, snap.Score, reloaded.Snapshot().Score)
}

func TestRegister(t *testing.T) {
	h := newHarness(t, boardData, nil)

	p, err := Register(context.Background(), h.repo, h.api, "  探险家  ", testLogger())
	require.NoError(t, err)
	assert.Equal(t, "探险家", p.Nickname)
	assert.Regexp(t, `^player_[0-9a-f]{9}$`, p.ID)
	assert.Equal(t, []string{p.ID + ":探险家"}, h.api.players)
	assert.Equal(t, p.ID, h.stored(t).ID)
}

func TestRegister_APIFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, boardData, nil)
	h.api.err = errors.New("unreachable")

	p, err := Register(context.Background(), h.repo, h.api, "探险家", testLogger())
	require.NoError(t, err)
	assert.Equal(t, p.ID, h.stored(t).ID)
}

func TestRegister_RejectsEmptyNickname(t *testing.T) {
	h := newHarness(t, boardData, nil)
	before := h.stored(t)

	_, err := Register(context.Background(), h.repo, nil, "   ", testLogger())
	assert.Error(t, err)

	after, err := h.repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
}
