package game

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/inventory"
	"github.com/jwebster45206/relic-hunt/pkg/profile"
	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	"github.com/jwebster45206/relic-hunt/pkg/storage"
	"github.com/stretchr/testify/require"
)

const boardData = `图书馆|古老的图书馆|书架可以移动|true|findBook|寻找密码
神庙|神秘的神庙|墙上刻满符文|false|solvePuzzle|点亮符文
守卫营地|戒备森严的营地|守卫只认钥匙|false|negotiateGuard|说服守卫
密室|隐秘的密室|需要通行证|false|searchTreasure|搜索宝藏
藏宝洞|幽深的山洞|被封印了|false|exploreSecret|探索山洞
古井|村外的古井|深不见底|false|divingWell|潜入古井
`

// openBoardData has every location accessible so preconditions can be hit.
const openBoardData = `图书馆|古老的图书馆|书架可以移动|true|findBook|寻找密码
神庙|神秘的神庙|墙上刻满符文|true|solvePuzzle|点亮符文
守卫营地|戒备森严的营地|守卫只认钥匙|true|negotiateGuard|说服守卫
密室|隐秘的密室|需要通行证|true|searchTreasure|搜索宝藏
藏宝洞|幽深的山洞|被封印了|true|exploreSecret|探索山洞
古井|村外的古井|深不见底|true|divingWell|潜入古井
`

type stringSource string

func (s stringSource) Read(ctx context.Context) (string, error) {
	return string(s), nil
}

type fakePresenter struct {
	mu        sync.Mutex
	snapshots []Snapshot
	notices   []Notice
}

func (p *fakePresenter) Present(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
}

func (p *fakePresenter) Notify(n Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, n)
}

func (p *fakePresenter) texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, n := range p.notices {
		out = append(out, n.Text)
	}
	return out
}

func (p *fakePresenter) last() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshots[len(p.snapshots)-1]
}

// scriptedPrompter answers puzzles from a queue and blocks when it runs dry.
type scriptedPrompter struct {
	answers chan string
	asked   chan Puzzle

	mu        sync.Mutex
	puzzles   []Puzzle
	fractions []float64
	closes    int
}

func newPrompter(answers ...string) *scriptedPrompter {
	p := &scriptedPrompter{
		answers: make(chan string, len(answers)+1),
		asked:   make(chan Puzzle, 16),
	}
	for _, a := range answers {
		p.answers <- a
	}
	return p
}

func (p *scriptedPrompter) Ask(ctx context.Context, pz Puzzle) (string, error) {
	p.mu.Lock()
	p.puzzles = append(p.puzzles, pz)
	p.mu.Unlock()
	select {
	case p.asked <- pz:
	default:
	}

	select {
	case a := <-p.answers:
		return a, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *scriptedPrompter) Progress(label string, fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fractions = append(p.fractions, fraction)
}

func (p *scriptedPrompter) CloseModal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
}

func (p *scriptedPrompter) progressCalls() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.fractions)
}

func (p *scriptedPrompter) askCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.puzzles)
}

func (p *scriptedPrompter) waitAsked(t *testing.T) Puzzle {
	t.Helper()
	select {
	case pz := <-p.asked:
		return pz
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a puzzle")
		return Puzzle{}
	}
}

type fakeAPI struct {
	mu          sync.Mutex
	submissions []scoreapi.ScoreSubmission
	players     []string
	err         error
	scores      []scoreapi.ScoreEntry
}

var _ scoreapi.API = (*fakeAPI)(nil)

func (a *fakeAPI) CreatePlayer(ctx context.Context, id, nickname string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.players = append(a.players, id+":"+nickname)
	return "玩家创建成功", nil
}

func (a *fakeAPI) SaveScore(ctx context.Context, sub scoreapi.ScoreSubmission) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.submissions = append(a.submissions, sub)
	return nil
}

func (a *fakeAPI) PlayerScores(ctx context.Context, id string) ([]scoreapi.ScoreEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return a.scores, nil
}

func (a *fakeAPI) pushed() []scoreapi.ScoreSubmission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.submissions)
}

// fixedRand always returns n modulo the pool size.
type fixedRand int

func (r fixedRand) IntN(n int) int { return int(r) % n }

type harness struct {
	c         *Controller
	kv        *storage.MockKV
	repo      *profile.Repository
	presenter *fakePresenter
	prompter  *scriptedPrompter
	api       *fakeAPI
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newHarness stores a profile holding items and wires a controller over data.
func newHarness(t *testing.T, data string, items []string, answers ...string) *harness {
	t.Helper()
	kv := storage.NewMockKV()
	repo := profile.NewRepository(kv)
	p := profile.New("勇者")
	p.Inventory = inventory.New(items...)
	require.NoError(t, repo.Save(context.Background(), p))

	h := &harness{
		kv:        kv,
		repo:      repo,
		presenter: &fakePresenter{},
		prompter:  newPrompter(answers...),
		api:       &fakeAPI{},
	}
	h.c = New(Options{
		Source:        stringSource(data),
		Profiles:      repo,
		API:           h.api,
		Presenter:     h.presenter,
		Prompter:      h.prompter,
		Logger:        testLogger(),
		Rand:          fixedRand(0),
		ProgressScale: 0.002,
		FrameInterval: time.Millisecond,
	})
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.Start(context.Background()))
}

func (h *harness) stored(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := h.repo.Load(context.Background())
	require.NoError(t, err)
	return p
}
